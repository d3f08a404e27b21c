package scroll

import (
	"context"
	"fmt"

	"github.com/devicelab-dev/scroll-runner/pkg/core"
	"github.com/devicelab-dev/scroll-runner/pkg/logger"
)

// LocateAgent is the capability subset needed to scroll towards a target.
type LocateAgent interface {
	core.Scroller
	core.Asserter
}

// Scroll runs the loop in locate-only mode: no content is collected and an
// exhausted budget is reported, not raised.
func Scroll(ctx context.Context, agent LocateAgent, opts Options) (*core.LoopResult, error) {
	opts.Collect = false
	return NewLoop(agent, agent, nil).Run(ctx, opts)
}

// RequireVisible scrolls until StopWhen holds and fails with
// core.ErrTargetNotFound if it still does not hold after the budget and one
// final confirmation check.
func RequireVisible(ctx context.Context, agent LocateAgent, opts Options) (*core.LoopResult, error) {
	if opts.StopWhen == "" {
		return nil, core.ErrMissingRequired.WithMessage("a stop condition is required to locate a target")
	}
	opts.Collect = false
	loop := NewLoop(agent, agent, nil)

	result, err := loop.Run(ctx, opts)
	if err != nil || result.Outcome == core.OutcomeSuccess {
		return result, err
	}

	ok, err := loop.evaluator.Check(ctx, opts.StopWhen)
	if err != nil {
		return result, err
	}
	if ok {
		result.Outcome = core.OutcomeSuccess
		return result, nil
	}

	target := opts.Target
	if target == "" {
		target = opts.StopWhen
	}
	logger.Named("scroll").Errorf("target not found after %d scrolls: %s", result.Steps, target)
	return result, core.ErrTargetNotFound.
		WithMessage(fmt.Sprintf("target not found after %d scrolls: %s", result.Steps, target)).
		WithDetails(map[string]interface{}{
			"target":  target,
			"region":  opts.Region,
			"scrolls": result.Steps,
		})
}

// CollectOptions configures Collect.
type CollectOptions struct {
	Options

	What   string // What to extract, e.g. "product names"
	Format string // Expected result shape. Default: "string[]".
}

// DefaultFormat is the result shape requested when none is given.
const DefaultFormat = "string[]"

// QueryPrompt builds the extraction prompt sent to the agent.
func QueryPrompt(what, format string) string {
	if format == "" {
		format = DefaultFormat
	}
	return fmt.Sprintf("Return the %s currently visible on the page, formatted as %s", what, format)
}

// Collect queries the visible content before scrolling and after every step,
// and returns everything seen, deduplicated in first-seen order. The stop
// condition is checked once right after the first query, then after every
// step. Items are returned whether or not the stop condition fired.
func Collect(ctx context.Context, agent core.Agent, opts CollectOptions) (*core.LoopResult, error) {
	if opts.Query == "" {
		if opts.What == "" {
			return nil, core.ErrMissingRequired.WithMessage("collect requires what to extract")
		}
		opts.Query = QueryPrompt(opts.What, opts.Format)
	}
	if opts.Name == "" {
		opts.Name = "collect"
	}
	o := opts.Options
	o.Collect = true
	o.PreCheck = true
	return NewLoop(agent, agent, agent).Run(ctx, o)
}

// Random plans a random scroll sequence and executes every step without any
// stop condition. Invalid ranges fail before the first scroll. The steps
// performed so far are returned alongside any error.
func Random(ctx context.Context, agent core.Scroller, opts RandomOptions) ([]core.ScrollStep, error) {
	plan, err := NewPlanner(opts.Rand).Plan(opts)
	if err != nil {
		return nil, err
	}

	log := logger.Named("random")
	log.Debugw("start", "region", opts.Region, "steps", len(plan))

	scroller := NewStepScroller(agent)
	for i, step := range plan {
		log.Debugf("scroll %d/%d %s", i+1, len(plan), step)
		if err := scroller.Step(ctx, opts.Region, step); err != nil {
			return plan[:i], err
		}
	}
	return plan, nil
}
