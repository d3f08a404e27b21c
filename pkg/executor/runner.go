// Package executor orchestrates plan execution, connecting agents to reports.
package executor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/devicelab-dev/scroll-runner/pkg/core"
	"github.com/devicelab-dev/scroll-runner/pkg/flow"
	"github.com/devicelab-dev/scroll-runner/pkg/report"
)

// RunnerConfig configures the plan runner.
type RunnerConfig struct {
	SuiteName  string // Report title. Default: "scroll-runner".
	OutputDir  string // Report output directory. Empty = no report files.
	HTML       bool   // Also write report.html
	StopOnFail bool   // Skip remaining plans after the first failed one

	// Live progress callbacks. Called from worker goroutines in parallel runs.
	OnFlowStart    func(flowIdx, totalFlows int, name, file string)
	OnStepComplete func(flowName string, res *core.StepResult)
	OnFlowEnd      func(res *core.FlowResult)
}

func (c RunnerConfig) suiteName() string {
	if c.SuiteName == "" {
		return "scroll-runner"
	}
	return c.SuiteName
}

// Runner executes plans sequentially against one agent.
type Runner struct {
	config RunnerConfig
	agent  core.Agent
}

// New creates a new Runner.
func New(agent core.Agent, cfg RunnerConfig) *Runner {
	return &Runner{
		config: cfg,
		agent:  agent,
	}
}

// Run executes all flows and writes the report.
func (r *Runner) Run(ctx context.Context, flows []*flow.Flow) (*core.SuiteResult, error) {
	sink, err := newSink(r.config)
	if err != nil {
		return nil, err
	}

	stopped := false
	for i, f := range flows {
		var res core.FlowResult
		if stopped || ctx.Err() != nil {
			res = skippedFlow(f, "run stopped")
		} else {
			res = r.executeFlow(ctx, f, i, len(flows))
		}
		sink.add(res)
		if r.config.StopOnFail && res.Status == core.StatusFailed {
			stopped = true
		}
	}

	return sink.end()
}

// executeFlow runs a single flow.
func (r *Runner) executeFlow(ctx context.Context, f *flow.Flow, flowIdx, totalFlows int) core.FlowResult {
	fr := &FlowRunner{
		ctx:        ctx,
		flow:       f,
		agent:      r.agent,
		config:     r.config,
		flowIdx:    flowIdx,
		totalFlows: totalFlows,
	}
	return fr.Run()
}

// sink collects flow results into a suite and mirrors them to disk when an
// output directory is configured. Safe for concurrent use.
type sink struct {
	mu     sync.Mutex
	suite  *core.SuiteResult
	writer *report.Writer
}

func newSink(cfg RunnerConfig) (*sink, error) {
	s := &sink{suite: report.NewSuite(cfg.suiteName())}
	if cfg.OutputDir == "" {
		return s, nil
	}
	w, err := report.NewWriter(cfg.OutputDir, s.suite, cfg.HTML)
	if err != nil {
		return nil, err
	}
	if err := w.Start(); err != nil {
		return nil, err
	}
	s.writer = w
	return s, nil
}

func (s *sink) add(res core.FlowResult) {
	if s.writer != nil {
		// Write errors are logged by the writer; the next flush rewrites the whole file.
		_ = s.writer.AddFlow(res)
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suite.Flows = append(s.suite.Flows, res)
}

func (s *sink) end() (*core.SuiteResult, error) {
	if s.writer != nil {
		if err := s.writer.End(); err != nil {
			return s.suite, fmt.Errorf("write report: %w", err)
		}
		return s.suite, nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.suite.Duration = time.Since(s.suite.StartTime)
	s.suite.ComputeSummary()
	return s.suite, nil
}
