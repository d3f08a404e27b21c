package scroll

import (
	"context"

	"github.com/devicelab-dev/scroll-runner/pkg/core"
)

// Evaluator checks a stop condition against the current screen.
//
// An assertion that does not hold is the loop's normal "not yet" signal and
// comes back as false. Only assertion-category errors are absorbed; transport
// failures, cancellations and agent crashes are returned to the caller.
type Evaluator struct {
	agent core.Asserter
}

// NewEvaluator wraps the agent's assertion capability.
func NewEvaluator(agent core.Asserter) *Evaluator {
	return &Evaluator{agent: agent}
}

// Check reports whether predicate currently holds. An empty predicate never
// holds and does not reach the agent.
func (e *Evaluator) Check(ctx context.Context, predicate string) (bool, error) {
	if predicate == "" {
		return false, nil
	}

	err := e.agent.Assert(ctx, predicate)
	switch {
	case err == nil:
		return true, nil
	case core.IsAssertion(err):
		return false, nil
	default:
		return false, err
	}
}
