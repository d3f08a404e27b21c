// Package flow handles parsing and representation of scroll plan files.
package flow

// Flow represents a parsed plan file.
type Flow struct {
	SourcePath string // Path to the source file
	Config     Config // Plan configuration (name, tags)
	Steps      []Step // Steps to execute
}

// Config represents plan-level configuration.
type Config struct {
	Name     string   `yaml:"name"`
	Tags     []string `yaml:"tags"`
	Platform string   `yaml:"platform"` // Restricts the plan to android or ios. Empty = any.
}

// DisplayName returns the configured name, or the file name without extension.
func (f *Flow) DisplayName() string {
	if f.Config.Name != "" {
		return f.Config.Name
	}
	return baseName(f.SourcePath)
}

// ApplyDefaults fills the distance and scroll budget of loop steps that
// leave them unset. Zero arguments change nothing.
func (f *Flow) ApplyDefaults(distance, maxScrolls int) {
	for _, step := range f.Steps {
		var lf *LoopFields
		switch s := step.(type) {
		case *ScrollStep:
			lf = &s.LoopFields
		case *ScrollUntilVisibleStep:
			lf = &s.LoopFields
		case *CollectStep:
			lf = &s.LoopFields
		default:
			continue
		}
		if lf.Distance == 0 && !lf.AutoDistance {
			lf.Distance = distance
		}
		if lf.MaxScrolls == 0 {
			lf.MaxScrolls = maxScrolls
		}
	}
}
