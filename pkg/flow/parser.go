package flow

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/devicelab-dev/scroll-runner/pkg/logger"
)

// ParseError represents a parsing error with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ParseFile parses a single plan file.
func ParseFile(path string) (*Flow, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is user-provided plan file
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data, path)
}

// Parse parses plan YAML content. An optional config document may precede
// the step list, separated by "---".
func Parse(data []byte, sourcePath string) (*Flow, error) {
	parts := splitYAMLDocuments(string(data))

	flow := &Flow{
		SourcePath: sourcePath,
	}

	switch len(parts) {
	case 0:
		return nil, &ParseError{Path: sourcePath, Line: 1, Message: "empty plan file"}
	case 1:
		if err := parseSteps(parts[0], flow); err != nil {
			return nil, err
		}
	case 2:
		if err := parseConfig(parts[0], flow); err != nil {
			return nil, err
		}
		if err := parseSteps(parts[1], flow); err != nil {
			return nil, err
		}
	default:
		return nil, &ParseError{Path: sourcePath, Message: fmt.Sprintf("expected at most 2 documents, got %d", len(parts))}
	}

	if len(flow.Steps) == 0 {
		return nil, &ParseError{Path: sourcePath, Message: "plan has no steps"}
	}
	return flow, nil
}

func splitYAMLDocuments(content string) []string {
	var parts []string
	var current strings.Builder

	for _, line := range strings.Split(content, "\n") {
		if strings.TrimRight(line, " \t\r") == "---" {
			if strings.TrimSpace(current.String()) != "" {
				parts = append(parts, current.String())
			}
			current.Reset()
			continue
		}
		current.WriteString(line)
		current.WriteString("\n")
	}

	if strings.TrimSpace(current.String()) != "" {
		parts = append(parts, current.String())
	}
	return parts
}

func parseConfig(content string, flow *Flow) error {
	var config Config
	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return &ParseError{
			Path:    flow.SourcePath,
			Message: fmt.Sprintf("invalid config: %v", err),
		}
	}
	flow.Config = config
	return nil
}

func parseSteps(content string, flow *Flow) error {
	var rawSteps []yaml.Node
	if err := yaml.Unmarshal([]byte(content), &rawSteps); err != nil {
		return &ParseError{
			Path:    flow.SourcePath,
			Message: fmt.Sprintf("invalid steps: %v", err),
		}
	}

	for i := range rawSteps {
		step, err := parseStep(&rawSteps[i], flow.SourcePath)
		if err != nil {
			return err
		}
		flow.Steps = append(flow.Steps, step)
	}
	return nil
}

func parseStep(node *yaml.Node, sourcePath string) (Step, error) {
	// Bare command name, e.g. "- randomScroll"
	if node.Kind == yaml.ScalarNode {
		if !isStepType(node.Value) {
			return nil, &ParseError{
				Path:    sourcePath,
				Line:    node.Line,
				Message: fmt.Sprintf("unknown step type: %s", node.Value),
			}
		}
		return decodeStep(StepType(node.Value), &yaml.Node{Kind: yaml.MappingNode}, sourcePath)
	}

	if node.Kind != yaml.MappingNode {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: "step must be a mapping or command name",
		}
	}

	stepType, valueNode := extractStepType(node)
	if stepType == "" || valueNode == nil {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    node.Line,
			Message: "unknown step type",
		}
	}
	return decodeStep(StepType(stepType), valueNode, sourcePath)
}

func extractStepType(node *yaml.Node) (string, *yaml.Node) {
	for i := 0; i < len(node.Content)-1; i += 2 {
		key := node.Content[i].Value
		if isStepType(key) {
			return key, node.Content[i+1]
		}
	}
	return "", nil
}

func isStepType(key string) bool {
	switch StepType(key) {
	case StepScroll, StepScrollUntilVisible, StepCollect, StepRandomScroll:
		return true
	}
	return false
}

// newStep returns an empty step of the given type and a setter for its
// shorthand field. A scalar body is shorthand for the step's main field:
// direction for scroll, the condition for scrollUntilVisible, what to
// extract for collect, the region for randomScroll.
func newStep(stepType StepType) (Step, func(string)) {
	switch stepType {
	case StepScroll:
		s := &ScrollStep{}
		return s, func(v string) { s.Direction = v }
	case StepScrollUntilVisible:
		s := &ScrollUntilVisibleStep{}
		return s, func(v string) { s.Until = v }
	case StepCollect:
		s := &CollectStep{}
		return s, func(v string) { s.What = v }
	case StepRandomScroll:
		s := &RandomScrollStep{}
		return s, func(v string) { s.Region = v }
	}
	return nil, nil
}

func decodeStep(stepType StepType, valueNode *yaml.Node, sourcePath string) (Step, error) {
	step, shorthand := newStep(stepType)
	if step == nil {
		return nil, &ParseError{
			Path:    sourcePath,
			Line:    valueNode.Line,
			Message: fmt.Sprintf("unknown step type: %s", stepType),
		}
	}

	switch {
	case valueNode.Kind == yaml.ScalarNode && valueNode.Tag == "!!null":
		// "- collect:" with no body keeps every field at its default.
	case valueNode.Kind == yaml.ScalarNode:
		shorthand(valueNode.Value)
	default:
		if err := valueNode.Decode(step); err != nil {
			return nil, wrapParseError(sourcePath, valueNode.Line, err)
		}
	}

	step.(interface{ base() *BaseStep }).base().StepType = stepType
	return step, nil
}

func wrapParseError(path string, line int, err error) error {
	return &ParseError{
		Path:    path,
		Line:    line,
		Message: err.Error(),
	}
}

// IsPlanFile reports whether path has a YAML extension.
func IsPlanFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// ParseDirectory parses all YAML files in a directory, sorted by path.
// Files that fail to parse are skipped with a warning.
func ParseDirectory(dir string, includeTags, excludeTags []string) ([]*Flow, error) {
	var paths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && IsPlanFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)

	var flows []*Flow
	for _, path := range paths {
		flow, parseErr := ParseFile(path)
		if parseErr != nil {
			logger.Warn("skipping %s: %v", path, parseErr)
			continue
		}
		if ShouldIncludeFlow(flow, includeTags, excludeTags) {
			flows = append(flows, flow)
		}
	}
	return flows, nil
}

// ShouldIncludeFlow reports whether a plan carries at least one include tag
// (when any are given) and none of the exclude tags.
func ShouldIncludeFlow(flow *Flow, includeTags, excludeTags []string) bool {
	tags := make(map[string]struct{}, len(flow.Config.Tags))
	for _, tag := range flow.Config.Tags {
		tags[tag] = struct{}{}
	}
	has := func(t string) bool {
		_, ok := tags[t]
		return ok
	}

	for _, t := range excludeTags {
		if has(t) {
			return false
		}
	}
	if len(includeTags) == 0 {
		return true
	}
	for _, t := range includeTags {
		if has(t) {
			return true
		}
	}
	return false
}

func baseName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
