package flow

import (
	"fmt"
	"strings"

	"github.com/devicelab-dev/scroll-runner/pkg/core"
	"github.com/devicelab-dev/scroll-runner/pkg/scroll"
)

// StepType represents the type of step.
type StepType string

// Step type constants.
const (
	StepScroll             StepType = "scroll"             // Locate-only, exhaustion is not a failure
	StepScrollUntilVisible StepType = "scrollUntilVisible" // Target must be found
	StepCollect            StepType = "collect"
	StepRandomScroll       StepType = "randomScroll"
)

// Step is the interface for all plan steps.
type Step interface {
	Type() StepType
	IsOptional() bool
	Label() string
	Describe() string
	Validate() error
}

// BaseStep contains common fields for all steps.
type BaseStep struct {
	StepType  StepType `yaml:"-"`
	Optional  bool     `yaml:"optional"`
	StepLabel string   `yaml:"label"`
}

// Type returns the step type.
func (b *BaseStep) Type() StepType { return b.StepType }

// IsOptional returns whether the step is optional.
func (b *BaseStep) IsOptional() bool { return b.Optional }

// Label returns the step label.
func (b *BaseStep) Label() string { return b.StepLabel }

// Describe returns a human-readable description.
func (b *BaseStep) Describe() string { return string(b.StepType) }

func (b *BaseStep) base() *BaseStep { return b }

// LoopFields are the scroll parameters shared by loop-based steps.
type LoopFields struct {
	Region       string `yaml:"region"`
	Direction    string `yaml:"direction"`
	Distance     int    `yaml:"distance"`
	AutoDistance bool   `yaml:"autoDistance"`
	MaxScrolls   int    `yaml:"maxScrolls"`
}

func (l LoopFields) options() scroll.Options {
	return scroll.Options{
		Region:        l.Region,
		Direction:     core.Direction(strings.ToLower(l.Direction)),
		Distance:      l.Distance,
		AutoDistance:  l.AutoDistance,
		MaxIterations: l.MaxScrolls,
	}
}

// ScrollStep scrolls until a condition holds or the budget runs out.
type ScrollStep struct {
	BaseStep   `yaml:",inline"`
	LoopFields `yaml:",inline"`
	Until      string `yaml:"until"`
	PreCheck   bool   `yaml:"preCheck"`
}

// Options converts the step to loop options.
func (s *ScrollStep) Options() scroll.Options {
	o := s.options()
	o.StopWhen = s.Until
	o.PreCheck = s.PreCheck
	return o
}

// Validate checks the step parameters.
func (s *ScrollStep) Validate() error {
	return s.Options().Validate()
}

// Describe returns a human-readable description of the scroll step.
func (s *ScrollStep) Describe() string {
	if s.Until != "" {
		return fmt.Sprintf("scroll %s until %q", directionOrDefault(s.Direction), s.Until)
	}
	return "scroll " + directionOrDefault(s.Direction)
}

// ScrollUntilVisibleStep scrolls until Until holds and fails if it never does.
type ScrollUntilVisibleStep struct {
	BaseStep   `yaml:",inline"`
	LoopFields `yaml:",inline"`
	Until      string `yaml:"until"`
	Target     string `yaml:"target"` // Name used in the not-found message. Default: Until.
	PreCheck   bool   `yaml:"preCheck"`
}

// Options converts the step to loop options.
func (s *ScrollUntilVisibleStep) Options() scroll.Options {
	o := s.options()
	o.StopWhen = s.Until
	o.Target = s.Target
	o.PreCheck = s.PreCheck
	return o
}

// Validate checks the step parameters.
func (s *ScrollUntilVisibleStep) Validate() error {
	if s.Until == "" {
		return core.ErrMissingRequired.WithMessage("scrollUntilVisible requires 'until'")
	}
	return s.Options().Validate()
}

// Describe returns a human-readable description of the scroll until visible step.
func (s *ScrollUntilVisibleStep) Describe() string {
	if s.Target != "" {
		return "scrollUntilVisible: " + s.Target
	}
	return fmt.Sprintf("scrollUntilVisible: %q", s.Until)
}

// CollectStep gathers visible content while scrolling.
type CollectStep struct {
	BaseStep   `yaml:",inline"`
	LoopFields `yaml:",inline"`
	What       string `yaml:"what"`
	Format     string `yaml:"format"`
	Until      string `yaml:"until"`
}

// Options converts the step to collect options.
func (s *CollectStep) Options() scroll.CollectOptions {
	o := s.options()
	o.StopWhen = s.Until
	return scroll.CollectOptions{Options: o, What: s.What, Format: s.Format}
}

// Validate checks the step parameters.
func (s *CollectStep) Validate() error {
	if s.What == "" {
		return core.ErrMissingRequired.WithMessage("collect requires 'what'")
	}
	o := s.Options()
	o.Collect = true
	o.Query = scroll.QueryPrompt(s.What, s.Format)
	return o.Options.Validate()
}

// Describe returns a human-readable description of the collect step.
func (s *CollectStep) Describe() string {
	return "collect: " + s.What
}

// RandomScrollStep performs a random scroll sequence.
type RandomScrollStep struct {
	BaseStep    `yaml:",inline"`
	Region      string `yaml:"region"`
	Direction   string `yaml:"direction"`
	MinTimes    int    `yaml:"minTimes"`
	MaxTimes    *int   `yaml:"maxTimes"` // Nil = same as minTimes
	MinDistance int    `yaml:"minDistance"`
	MaxDistance int    `yaml:"maxDistance"`
	Seed        *int64 `yaml:"seed"` // Fixed seed for reproducible runs
}

// Options converts the step to random scroll options.
func (s *RandomScrollStep) Options() scroll.RandomOptions {
	o := scroll.RandomOptions{
		Region:      s.Region,
		Direction:   core.Direction(strings.ToLower(s.Direction)),
		MinTimes:    s.MinTimes,
		MinDistance: s.MinDistance,
		MaxDistance: s.MaxDistance,
	}
	if s.MaxTimes != nil {
		o.MaxTimes, o.MaxTimesSet = *s.MaxTimes, true
	}
	if s.Seed != nil {
		o.Rand = scroll.NewRand(*s.Seed)
	}
	return o
}

// Validate checks the step parameters.
func (s *RandomScrollStep) Validate() error {
	return s.Options().Validate()
}

// Describe returns a human-readable description of the random scroll step.
func (s *RandomScrollStep) Describe() string {
	lo := s.MinTimes
	if lo == 0 {
		lo = 1
	}
	times := fmt.Sprintf("%d", lo)
	if s.MaxTimes != nil && *s.MaxTimes > lo {
		times = fmt.Sprintf("%d-%d", lo, *s.MaxTimes)
	}
	if s.Region != "" {
		return fmt.Sprintf("randomScroll %sx in %s", times, s.Region)
	}
	return fmt.Sprintf("randomScroll %sx", times)
}

func directionOrDefault(d string) string {
	if d == "" {
		return string(core.DirectionDown)
	}
	return strings.ToLower(d)
}
