// Package scroll drives a scrollable region step by step through an AI UI
// agent, checking a natural-language stop condition after every step.
//
// All loops are bounded by a step budget, never by wall-clock time, and run
// strictly sequentially: step i+1 starts only after step i has been evaluated.
// A loop assumes it owns the agent session for its whole duration.
package scroll

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/devicelab-dev/scroll-runner/pkg/core"
	"github.com/devicelab-dev/scroll-runner/pkg/logger"
)

// Defaults applied when an option is left zero.
const (
	DefaultMaxIterations = 30
	DefaultDistance      = 200
)

// Options configures one loop run.
type Options struct {
	Region    string         // Region the agent scrolls in, e.g. "product list"
	Direction core.Direction // Concrete or meta. Default: down.

	Distance     int  // Pixels per step. 0 = DefaultDistance.
	AutoDistance bool // Let the agent pick the step size; Distance is ignored.

	MaxIterations int // Scroll budget. 0 = DefaultMaxIterations.

	StopWhen string // Natural-language stop condition. Empty = run the full budget.
	PreCheck bool   // Check StopWhen once before the first scroll.

	Collect bool   // Query visible content at iteration 0 and after every step.
	Query   string // Prompt used in collect mode.

	Target string // Diagnostic name of what is being looked for. Default: StopWhen.

	Rand Rand   // Resolves meta-directions. Nil = time-seeded.
	Name string // Logger name. Default: "scroll".
}

// Validate reports whether the options would be accepted by Loop.Run.
func (o Options) Validate() error {
	_, err := o.normalize()
	return err
}

func (o Options) normalize() (Options, error) {
	if o.Direction == "" {
		o.Direction = core.DirectionDown
	}
	if !o.Direction.Valid() {
		return o, core.ErrInvalidStep.WithMessage(fmt.Sprintf("unknown scroll direction %q", o.Direction))
	}
	switch {
	case o.AutoDistance:
		o.Distance = core.AutoDistance
	case o.Distance == 0:
		o.Distance = DefaultDistance
	case o.Distance < 0:
		return o, core.ErrInvalidStep.WithMessage(fmt.Sprintf("distance must be >= 1, got %d", o.Distance))
	}
	if o.MaxIterations == 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.MaxIterations < 0 {
		return o, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("maxIterations must be >= 1, got %d", o.MaxIterations))
	}
	if o.Collect && o.Query == "" {
		return o, core.ErrMissingRequired.WithMessage("collect mode requires a query")
	}
	if o.Target == "" {
		o.Target = o.StopWhen
	}
	if o.Name == "" {
		o.Name = "scroll"
	}
	o.Rand = defaultRand(o.Rand)
	return o, nil
}

// Loop is the bounded scroll state machine shared by every mode.
type Loop struct {
	scroller  *StepScroller
	evaluator *Evaluator
	querier   core.Querier
}

// NewLoop builds a loop from the agent capabilities. querier may be nil when
// collect mode is never used.
func NewLoop(scroller core.Scroller, asserter core.Asserter, querier core.Querier) *Loop {
	return &Loop{
		scroller:  NewStepScroller(scroller),
		evaluator: NewEvaluator(asserter),
		querier:   querier,
	}
}

// Run executes the loop. Exhausting the budget is not an error: the result
// reports core.OutcomeExhausted and the caller decides what it means.
//
// Scroll and query failures, and evaluator errors that are not "predicate
// unmet", abort immediately. The partially filled result is returned with
// the error so callers can report how many steps ran.
func (l *Loop) Run(ctx context.Context, opts Options) (*core.LoopResult, error) {
	opts, err := opts.normalize()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	log := logger.Named(opts.Name)
	log.Debugw("start",
		"region", opts.Region,
		"direction", opts.Direction,
		"distance", opts.Distance,
		"maxIterations", opts.MaxIterations,
		"stopWhen", opts.StopWhen,
		"preCheck", opts.PreCheck,
		"collect", opts.Collect,
	)

	result := &core.LoopResult{}
	var acc *Accumulator
	finish := func(outcome core.Outcome) *core.LoopResult {
		result.Outcome = outcome
		if acc != nil {
			result.Items = acc.Finalize()
			log.Debugw("collected", "raw", acc.Len(), "deduped", len(result.Items))
		}
		result.Duration = time.Since(start)
		return result
	}
	abort := func(err error) (*core.LoopResult, error) {
		finish(core.OutcomeNone)
		log.Debugw("aborted", "steps", result.Steps, "error", err)
		return result, err
	}

	if opts.Collect {
		if l.querier == nil {
			return nil, core.ErrMissingRequired.WithMessage("collect mode requires an agent with query capability")
		}
		acc = NewAccumulator()
		if err := l.collect(ctx, log, acc, opts.Query, 0); err != nil {
			return abort(err)
		}
	}

	if opts.PreCheck && opts.StopWhen != "" {
		ok, err := l.evaluator.Check(ctx, opts.StopWhen)
		if err != nil {
			return abort(err)
		}
		if ok {
			log.Debug("stop condition already met, no scrolling")
			return finish(core.OutcomeSuccess), nil
		}
		log.Debug("stop condition not met yet, scrolling")
	}

	for i := 1; i <= opts.MaxIterations; i++ {
		step := core.ScrollStep{
			Direction: resolveDirection(opts.Rand, opts.Direction),
			Distance:  opts.Distance,
		}
		log.Debugf("scroll %d/%d %s", i, opts.MaxIterations, step)

		if err := l.scroller.Step(ctx, opts.Region, step); err != nil {
			return abort(err)
		}
		result.Steps = i

		if opts.Collect {
			if err := l.collect(ctx, log, acc, opts.Query, i); err != nil {
				return abort(err)
			}
		}

		if opts.StopWhen == "" {
			continue
		}
		ok, err := l.evaluator.Check(ctx, opts.StopWhen)
		if err != nil {
			return abort(err)
		}
		if ok {
			log.Debugf("stop condition met after %d scrolls", i)
			return finish(core.OutcomeSuccess), nil
		}
		log.Debugf("stop condition not met after %d scrolls", i)
	}

	log.Debugf("budget of %d scrolls spent", opts.MaxIterations)
	return finish(core.OutcomeExhausted), nil
}

func (l *Loop) collect(ctx context.Context, log *zap.SugaredLogger, acc *Accumulator, prompt string, iteration int) error {
	observation, err := l.querier.Query(ctx, prompt)
	if err != nil {
		var execErr *core.ExecutionError
		if errors.As(err, &execErr) {
			return err
		}
		return core.ErrQueryFailed.WithCause(err).WithDetails(map[string]interface{}{
			"query":     prompt,
			"iteration": iteration,
		})
	}
	log.Debugf("query %d: %s", iteration, Preview(observation))
	if acc.Merge(observation) {
		log.Warnf("query %d returned a single value instead of a list; keeping it as one item", iteration)
	}
	return nil
}
