package scroll

import (
	"context"
	"errors"

	"github.com/devicelab-dev/scroll-runner/pkg/core"
)

// StepScroller issues exactly one scroll action per call. It never retries.
type StepScroller struct {
	agent core.Scroller
}

// NewStepScroller wraps the agent's scroll capability.
func NewStepScroller(agent core.Scroller) *StepScroller {
	return &StepScroller{agent: agent}
}

// Step scrolls once inside region. Connection, timeout and config errors
// from the agent are returned as-is. Anything else, including an agent that
// reports "no such element" for a missing region, is wrapped as
// core.ErrScrollFailed: a scroll never means "predicate unmet".
func (s *StepScroller) Step(ctx context.Context, region string, step core.ScrollStep) error {
	if err := step.Validate(); err != nil {
		return err
	}

	err := s.agent.Scroll(ctx, core.ScrollRequest{
		Direction: step.Direction,
		Region:    region,
		Distance:  step.Distance,
	})
	if err == nil {
		return nil
	}

	if errors.Is(err, core.ErrScrollFailed) {
		return err
	}
	var execErr *core.ExecutionError
	if errors.As(err, &execErr) {
		switch execErr.Category {
		case core.ErrCategoryConnection, core.ErrCategoryTimeout, core.ErrCategoryConfig:
			return err
		}
	}
	return core.ErrScrollFailed.WithCause(err).WithDetails(map[string]interface{}{
		"region":    region,
		"direction": string(step.Direction),
		"distance":  step.Distance,
	})
}
