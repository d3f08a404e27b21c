package core

import (
	"context"
	"fmt"
	"strings"
)

// Scroller performs a single scroll action bounded to a region.
type Scroller interface {
	Scroll(ctx context.Context, req ScrollRequest) error
}

// Asserter checks a natural-language predicate against the current screen.
// A predicate that does not hold must be reported as an assertion-category
// ExecutionError (see ErrAssertionFailed); any other error is treated as fatal.
type Asserter interface {
	Assert(ctx context.Context, predicate string) error
}

// Querier extracts visible content matching a natural-language description.
// The returned value is usually a []interface{} but callers must tolerate
// a single value.
type Querier interface {
	Query(ctx context.Context, prompt string) (interface{}, error)
}

// Agent is the capability set an AI-driven UI agent exposes to the engine.
// Implementations: bridge (Android, iOS), mock.
type Agent interface {
	Scroller
	Asserter
	Querier
}

// PlatformReporter is implemented by agents that know which device they drive.
type PlatformReporter interface {
	GetPlatformInfo() *PlatformInfo
}

// Direction is a scroll direction.
type Direction string

// Concrete directions.
const (
	DirectionUp    Direction = "up"
	DirectionDown  Direction = "down"
	DirectionLeft  Direction = "left"
	DirectionRight Direction = "right"
)

// Meta-directions, resolved to a concrete direction for every step.
const (
	DirectionVertical   Direction = "vertical"
	DirectionHorizontal Direction = "horizontal"
)

// ParseDirection parses a direction name (case-insensitive).
func ParseDirection(s string) (Direction, error) {
	d := Direction(strings.ToLower(strings.TrimSpace(s)))
	if !d.Valid() {
		return "", ErrInvalidStep.WithMessage(fmt.Sprintf("unknown scroll direction %q", s))
	}
	return d, nil
}

// IsMeta returns true for vertical and horizontal.
func (d Direction) IsMeta() bool {
	return d == DirectionVertical || d == DirectionHorizontal
}

// IsConcrete returns true for up, down, left and right.
func (d Direction) IsConcrete() bool {
	switch d {
	case DirectionUp, DirectionDown, DirectionLeft, DirectionRight:
		return true
	}
	return false
}

// Valid returns true for concrete and meta directions.
func (d Direction) Valid() bool {
	return d.IsConcrete() || d.IsMeta()
}

// AutoDistance delegates the step magnitude to the agent.
const AutoDistance = 0

// ScrollStep is one planned scroll action.
type ScrollStep struct {
	Direction Direction `json:"direction" yaml:"direction"`
	Distance  int       `json:"distance,omitempty" yaml:"distance,omitempty"` // pixels, AutoDistance = agent decides
}

// Validate checks that the step can be sent to an agent as-is.
func (s ScrollStep) Validate() error {
	if !s.Direction.IsConcrete() {
		return ErrInvalidStep.WithMessage(fmt.Sprintf("step direction must be up, down, left or right, got %q", s.Direction))
	}
	if s.Distance < 0 {
		return ErrInvalidStep.WithMessage(fmt.Sprintf("step distance must be >= 1 or auto, got %d", s.Distance))
	}
	return nil
}

// String returns a human-readable description of the step.
func (s ScrollStep) String() string {
	if s.Distance == AutoDistance {
		return string(s.Direction) + " (auto)"
	}
	return fmt.Sprintf("%s %dpx", s.Direction, s.Distance)
}

// ScrollRequest is what a Scroller receives for one step.
type ScrollRequest struct {
	Direction Direction `json:"direction"`
	Region    string    `json:"region"`
	Distance  int       `json:"distance,omitempty"`
}
