package executor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/devicelab-dev/scroll-runner/pkg/core"
	"github.com/devicelab-dev/scroll-runner/pkg/flow"
	"github.com/devicelab-dev/scroll-runner/pkg/logger"
	"github.com/devicelab-dev/scroll-runner/pkg/scroll"
)

// FlowRunner executes a single flow.
type FlowRunner struct {
	ctx        context.Context
	flow       *flow.Flow
	agent      core.Agent
	config     RunnerConfig
	flowIdx    int // Current flow index (0-based)
	totalFlows int // Total number of flows
}

// Run executes the flow and returns the result.
func (fr *FlowRunner) Run() core.FlowResult {
	flowStart := time.Now()
	flowName := fr.flow.DisplayName()
	log := logger.Named("executor").With("flow", flowName)

	result := core.FlowResult{
		Name:      flowName,
		FilePath:  fr.flow.SourcePath,
		Tags:      fr.flow.Config.Tags,
		StartTime: flowStart,
		Steps:     make([]core.StepResult, 0, len(fr.flow.Steps)),
	}
	if pr, ok := fr.agent.(core.PlatformReporter); ok {
		result.PlatformInfo = pr.GetPlatformInfo()
	}

	if reason := fr.platformMismatch(result.PlatformInfo); reason != "" {
		log.Infof("skipped: %s", reason)
		skipped := skippedFlow(fr.flow, reason)
		skipped.PlatformInfo = result.PlatformInfo
		fr.notifyEnd(&skipped)
		return skipped
	}

	// Notify flow start
	if fr.config.OnFlowStart != nil {
		fr.config.OnFlowStart(fr.flowIdx, fr.totalFlows, flowName, filepath.Base(fr.flow.SourcePath))
	}
	log.Infof("start (%d steps)", len(fr.flow.Steps))

	for i, step := range fr.flow.Steps {
		if err := fr.ctx.Err(); err != nil {
			fr.skipRemaining(&result, i, "execution cancelled")
			if result.Error == "" {
				result.Error = "execution cancelled"
			}
			break
		}

		res := fr.executeStep(i, step)
		result.Steps = append(result.Steps, res)
		if fr.config.OnStepComplete != nil {
			fr.config.OnStepComplete(flowName, &res)
		}

		if res.Status == core.StatusFailed || res.Status == core.StatusErrored {
			// Required step failed - skip remaining and fail flow
			result.Error = fmt.Sprintf("step %d (%s): %s", i+1, step.Describe(), res.Error)
			fr.skipRemaining(&result, i+1, "previous step failed")
			break
		}
	}

	result.Duration = time.Since(flowStart)
	result.ComputeSummary()
	result.Status = result.AggregateStatus()
	if result.Status == core.StatusPassed && result.SkippedSteps > 0 && result.PassedSteps == 0 && result.WarnedSteps == 0 {
		result.Status = core.StatusSkipped
	}
	log.Infof("end: %s (%d scrolls, %s)", result.Status, result.TotalScrolls, result.Duration.Round(time.Millisecond))

	fr.notifyEnd(&result)
	return result
}

func (fr *FlowRunner) notifyEnd(res *core.FlowResult) {
	if fr.config.OnFlowEnd != nil {
		fr.config.OnFlowEnd(res)
	}
}

// platformMismatch returns a skip reason when the plan is pinned to a
// platform the agent does not drive. Agents without platform info and the
// mock agent run every plan.
func (fr *FlowRunner) platformMismatch(info *core.PlatformInfo) string {
	want := strings.ToLower(fr.flow.Config.Platform)
	if want == "" || info == nil || info.Platform == "" || info.Platform == "mock" {
		return ""
	}
	if strings.EqualFold(info.Platform, want) {
		return ""
	}
	return fmt.Sprintf("plan requires %s, device is %s", want, info.Platform)
}

func (fr *FlowRunner) skipRemaining(result *core.FlowResult, from int, reason string) {
	for j := from; j < len(fr.flow.Steps); j++ {
		step := fr.flow.Steps[j]
		result.Steps = append(result.Steps, core.StepResult{
			Index:   j,
			Command: string(step.Type()),
			Label:   step.Label(),
			Status:  core.StatusSkipped,
			Message: reason,
		})
	}
}

// executeStep runs one step and classifies its outcome.
func (fr *FlowRunner) executeStep(idx int, step flow.Step) core.StepResult {
	res := core.StepResult{
		Index:     idx,
		Command:   string(step.Type()),
		Label:     step.Label(),
		StartTime: time.Now(),
		Status:    core.StatusRunning,
	}

	err := fr.dispatch(step, &res)
	res.Duration = time.Since(res.StartTime)

	if err == nil {
		res.Status = core.StatusPassed
		return res
	}

	res.Error = err.Error()
	res.Category = core.CategoryOf(err)
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		res.Category = core.ErrCategoryTimeout
	}
	switch {
	case step.IsOptional():
		res.Status = core.StatusWarned
	case res.Category == core.ErrCategoryAssertion:
		res.Status = core.StatusFailed
	default:
		res.Status = core.StatusErrored
	}
	logger.Named("executor").Warnw("step did not pass",
		"step", idx+1,
		"command", res.Command,
		"status", res.Status,
		"category", res.Category,
		"error", err,
	)
	return res
}

// dispatch runs the engine mode for step and fills the mode-specific fields
// of res. Partial loop results are recorded even when err is non-nil.
func (fr *FlowRunner) dispatch(step flow.Step, res *core.StepResult) error {
	switch s := step.(type) {
	case *flow.ScrollStep:
		lr, err := scroll.Scroll(fr.ctx, fr.agent, s.Options())
		applyLoop(res, lr)
		if err == nil {
			res.Message = scrollMessage(s.Until, lr)
		}
		return err

	case *flow.ScrollUntilVisibleStep:
		lr, err := scroll.RequireVisible(fr.ctx, fr.agent, s.Options())
		applyLoop(res, lr)
		if err == nil {
			res.Message = fmt.Sprintf("found after %d scrolls", lr.Steps)
		}
		return err

	case *flow.CollectStep:
		lr, err := scroll.Collect(fr.ctx, fr.agent, s.Options())
		applyLoop(res, lr)
		if lr != nil {
			items := lr.Items
			if items == nil {
				items = []interface{}{}
			}
			res.Data = items
			res.Message = fmt.Sprintf("collected %d items in %d scrolls: %s", len(items), lr.Steps, scroll.Preview(items))
		}
		return err

	case *flow.RandomScrollStep:
		steps, err := scroll.Random(fr.ctx, fr.agent, s.Options())
		res.Scrolls = len(steps)
		if steps != nil {
			res.Data = steps
		}
		if err == nil {
			res.Message = fmt.Sprintf("performed %d random scrolls", len(steps))
		}
		return err

	default:
		return core.ErrInvalidStep.WithMessage(fmt.Sprintf("unsupported step type %q", step.Type()))
	}
}

func applyLoop(res *core.StepResult, lr *core.LoopResult) {
	if lr == nil {
		return
	}
	res.Outcome = lr.Outcome
	res.Scrolls = lr.Steps
}

func scrollMessage(until string, lr *core.LoopResult) string {
	switch {
	case until == "":
		return fmt.Sprintf("scrolled %d times", lr.Steps)
	case lr.Succeeded():
		return fmt.Sprintf("condition met after %d scrolls", lr.Steps)
	default:
		return fmt.Sprintf("condition not met after %d scrolls", lr.Steps)
	}
}

// skippedFlow builds the result for a flow that never ran.
func skippedFlow(f *flow.Flow, reason string) core.FlowResult {
	res := core.FlowResult{
		Name:      f.DisplayName(),
		FilePath:  f.SourcePath,
		Tags:      f.Config.Tags,
		Status:    core.StatusSkipped,
		StartTime: time.Now(),
		Error:     reason,
		Steps:     make([]core.StepResult, 0, len(f.Steps)),
	}
	for i, step := range f.Steps {
		res.Steps = append(res.Steps, core.StepResult{
			Index:   i,
			Command: string(step.Type()),
			Label:   step.Label(),
			Status:  core.StatusSkipped,
			Message: reason,
		})
	}
	res.ComputeSummary()
	return res
}
