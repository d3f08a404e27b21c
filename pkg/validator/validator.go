// Package validator validates plan files before execution.
// It parses all files upfront and checks every step's parameters, so a bad
// range or missing field is reported before any device is touched.
package validator

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/devicelab-dev/scroll-runner/pkg/flow"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	File    string
	Step    int // 1-indexed, 0 = file level
	Message string
}

func (e *ValidationError) Error() string {
	if e.Step > 0 {
		return fmt.Sprintf("%s: step %d: %s", e.File, e.Step, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.File, e.Message)
}

// Result contains the validation result.
type Result struct {
	// Flows are the parsed plans in execution order.
	Flows []*flow.Flow
	// Errors contains all validation errors found.
	Errors []error
}

// IsValid returns true if there are no validation errors.
func (r *Result) IsValid() bool {
	return len(r.Errors) == 0
}

func (r *Result) fail(file string, step int, format string, args ...interface{}) {
	r.Errors = append(r.Errors, &ValidationError{File: file, Step: step, Message: fmt.Sprintf(format, args...)})
}

// Files returns the source paths of the valid plans.
func (r *Result) Files() []string {
	files := make([]string, 0, len(r.Flows))
	for _, f := range r.Flows {
		files = append(files, f.SourcePath)
	}
	return files
}

// Validator validates plan files.
type Validator struct {
	includeTags []string
	excludeTags []string
}

// New creates a new Validator.
func New(includeTags, excludeTags []string) *Validator {
	return &Validator{
		includeTags: includeTags,
		excludeTags: excludeTags,
	}
}

// Validate validates files and directories. Each path is visited once even
// if listed twice or reachable through a directory.
func (v *Validator) Validate(paths ...string) *Result {
	result := &Result{}
	seen := make(map[string]bool)

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			result.fail(path, 0, "cannot access: %v", err)
			continue
		}

		files := []string{path}
		if info.IsDir() {
			files, err = collectPlanFiles(path)
			if err != nil {
				result.fail(path, 0, "failed to scan directory: %v", err)
				continue
			}
		}

		for _, file := range files {
			abs, err := filepath.Abs(file)
			if err != nil {
				abs = file
			}
			if seen[abs] {
				continue
			}
			seen[abs] = true
			v.validateFile(file, result)
		}
	}

	return result
}

// collectPlanFiles finds all .yaml/.yml files in a directory, sorted.
func collectPlanFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && flow.IsPlanFile(path) {
			files = append(files, path)
		}
		return nil
	})
	sort.Strings(files)
	return files, err
}

func (v *Validator) validateFile(filePath string, result *Result) {
	f, err := flow.ParseFile(filePath)
	if err != nil {
		result.fail(filePath, 0, "parse error: %v", err)
		return
	}

	if !flow.ShouldIncludeFlow(f, v.includeTags, v.excludeTags) {
		return
	}

	switch f.Config.Platform {
	case "", "android", "ios":
	default:
		result.fail(filePath, 0, "unsupported platform %q", f.Config.Platform)
		return
	}

	valid := true
	for i, step := range f.Steps {
		if err := step.Validate(); err != nil {
			valid = false
			result.fail(filePath, i+1, "%s: %v", step.Type(), err)
		}
	}
	if valid {
		result.Flows = append(result.Flows, f)
	}
}
