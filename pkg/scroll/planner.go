package scroll

import (
	"fmt"

	"github.com/devicelab-dev/scroll-runner/pkg/core"
)

// RandomOptions configures exploratory scrolling.
type RandomOptions struct {
	Region    string
	Direction core.Direction // Concrete or meta (vertical/horizontal). Default: down.

	// Step count range, inclusive. MinTimes defaults to 1. An unset MaxTimes
	// defaults to MinTimes; with MaxTimesSet a 0 is validated as given.
	MinTimes    int
	MaxTimes    int
	MaxTimesSet bool

	// Per-step distance range in pixels, inclusive. A drawn 0 lets the agent decide.
	MinDistance int
	MaxDistance int

	Rand Rand // Nil = time-seeded source
}

func (o RandomOptions) withDefaults() RandomOptions {
	if o.Direction == "" {
		o.Direction = core.DirectionDown
	}
	if o.MinTimes == 0 {
		o.MinTimes = 1
	}
	if o.MaxTimes == 0 && !o.MaxTimesSet {
		o.MaxTimes = o.MinTimes
	}
	return o
}

// Validate checks the ranges. Errors are core.ErrInvalidRange copies.
func (o RandomOptions) Validate() error {
	o = o.withDefaults()
	if !o.Direction.Valid() {
		return core.ErrInvalidRange.WithMessage(fmt.Sprintf("unknown scroll direction %q", o.Direction))
	}
	if o.MinTimes < 1 {
		return invalidRange("minTimes must be >= 1, got %d", o.MinTimes)
	}
	if o.MaxTimes < o.MinTimes {
		return invalidRange("maxTimes (%d) must be >= minTimes (%d)", o.MaxTimes, o.MinTimes)
	}
	if o.MinDistance < 0 {
		return invalidRange("minDistance must be >= 0, got %d", o.MinDistance)
	}
	if o.MaxDistance < o.MinDistance {
		return invalidRange("maxDistance (%d) must be >= minDistance (%d)", o.MaxDistance, o.MinDistance)
	}
	return nil
}

func invalidRange(format string, args ...interface{}) error {
	return core.ErrInvalidRange.WithMessage(fmt.Sprintf(format, args...))
}

// Planner builds random scroll sequences.
type Planner struct {
	rand Rand
}

// NewPlanner returns a planner drawing from r (nil = time-seeded).
func NewPlanner(r Rand) *Planner {
	return &Planner{rand: defaultRand(r)}
}

// Plan draws the step count, then a direction and distance for each step.
func (p *Planner) Plan(opts RandomOptions) ([]core.ScrollStep, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	opts = opts.withDefaults()

	count := intBetween(p.rand, opts.MinTimes, opts.MaxTimes)
	steps := make([]core.ScrollStep, 0, count)
	for i := 0; i < count; i++ {
		steps = append(steps, core.ScrollStep{
			Direction: resolveDirection(p.rand, opts.Direction),
			Distance:  intBetween(p.rand, opts.MinDistance, opts.MaxDistance),
		})
	}
	return steps, nil
}
