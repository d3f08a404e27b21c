package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/devicelab-dev/scroll-runner/pkg/core"
	"github.com/devicelab-dev/scroll-runner/pkg/flow"
	"github.com/devicelab-dev/scroll-runner/pkg/logger"
)

// DeviceWorker represents a single device worker that pulls from the queue.
type DeviceWorker struct {
	ID       int
	DeviceID string
	Agent    core.Agent
	Cleanup  func()
}

// workItem represents a flow and its index in the original flow list.
type workItem struct {
	flow  *flow.Flow
	index int
}

// errStopOnFail cancels the worker group after the first failed flow.
var errStopOnFail = errors.New("stopping after failed plan")

// ParallelRunner coordinates parallel plan execution across multiple devices.
// Each device runs one plan at a time, so a scroll loop always owns its
// agent session.
type ParallelRunner struct {
	workers []DeviceWorker
	config  RunnerConfig
}

// NewParallelRunner creates a parallel runner with multiple device workers.
func NewParallelRunner(workers []DeviceWorker, config RunnerConfig) *ParallelRunner {
	return &ParallelRunner{
		workers: workers,
		config:  config,
	}
}

// Run executes flows in parallel using a work queue pattern.
// All workers pull from the same queue until all flows are complete. The
// suite lists flows in input order regardless of completion order.
func (pr *ParallelRunner) Run(ctx context.Context, flows []*flow.Flow) (*core.SuiteResult, error) {
	if len(pr.workers) == 0 {
		return nil, fmt.Errorf("no workers available")
	}

	sink, err := newSink(pr.config)
	if err != nil {
		return nil, err
	}

	// Create work queue with flow indices
	workQueue := make(chan workItem, len(flows))
	for i, f := range flows {
		workQueue <- workItem{flow: f, index: i}
	}
	close(workQueue)

	results := make([]core.FlowResult, len(flows))
	var resultsMu sync.Mutex
	store := func(idx int, res core.FlowResult) {
		resultsMu.Lock()
		results[idx] = res
		resultsMu.Unlock()
		sink.add(res)
	}

	totalFlows := len(flows)
	g, gctx := errgroup.WithContext(ctx)

	for i := range pr.workers {
		w := pr.workers[i]
		g.Go(func() error {
			if w.Cleanup != nil {
				defer w.Cleanup()
			}
			log := logger.Named("worker").With("worker", w.ID, "device", w.DeviceID)

			// Each worker uses its own agent but shares the report
			runner := New(w.Agent, pr.config)

			for item := range workQueue {
				if gctx.Err() != nil {
					store(item.index, skippedFlow(item.flow, "run stopped"))
					continue
				}
				log.Debugf("plan %d/%d: %s", item.index+1, totalFlows, item.flow.DisplayName())

				// In-flight plans finish against the parent context so a
				// failure on one device does not abort another mid-scroll.
				res := runner.executeFlow(ctx, item.flow, item.index, totalFlows)
				store(item.index, res)

				if pr.config.StopOnFail && res.Status == core.StatusFailed {
					return errStopOnFail
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, errStopOnFail) {
		return nil, err
	}

	// Drain items never picked up because every worker stopped early.
	for item := range workQueue {
		store(item.index, skippedFlow(item.flow, "run stopped"))
	}

	sink.suite.Flows = results
	return sink.end()
}
