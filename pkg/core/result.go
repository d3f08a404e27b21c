package core

import (
	"time"
)

// PlatformInfo contains device and platform details
type PlatformInfo struct {
	Platform    string `json:"platform"`             // ios, android, mock
	DeviceID    string `json:"deviceId"`             // Unique device identifier
	DeviceName  string `json:"deviceName,omitempty"` // e.g., "iPhone 15 Pro", "Pixel 8"
	OSVersion   string `json:"osVersion,omitempty"`  // e.g., "17.0", "14"
	IsSimulator bool   `json:"isSimulator"`          // Simulator/emulator vs real device
}

// LoopResult is the outcome of one bounded scroll loop.
type LoopResult struct {
	Outcome  Outcome       `json:"outcome"`
	Steps    int           `json:"steps"`           // Scroll steps actually performed
	Items    []interface{} `json:"items,omitempty"` // Deduplicated content (collect mode only)
	Duration time.Duration `json:"duration"`
}

// Succeeded returns true if the stop condition was met.
func (r *LoopResult) Succeeded() bool {
	return r != nil && r.Outcome == OutcomeSuccess
}

// StepResult captures the complete outcome of executing a single plan step
type StepResult struct {
	// Identity
	Index   int    `json:"index"`   // 0-based position in plan
	Command string `json:"command"` // scroll, scrollUntilVisible, collect, randomScroll
	Label   string `json:"label,omitempty"`

	// Status
	Status   StepStatus    `json:"status"`
	Category ErrorCategory `json:"errorCategory,omitempty"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Loop outcome
	Outcome Outcome `json:"outcome,omitempty"`
	Scrolls int     `json:"scrolls"`

	// Output
	Message string      `json:"message,omitempty"` // Human-readable explanation
	Data    interface{} `json:"data,omitempty"`    // Collected items or executed random plan

	// Error Details
	Error string `json:"error,omitempty"` // Technical error message
}

// FlowResult captures the complete outcome of executing a plan
type FlowResult struct {
	// Identity
	Name     string   `json:"name"`
	FilePath string   `json:"filePath"`
	Tags     []string `json:"tags,omitempty"`

	// Platform info (captured once per flow)
	PlatformInfo *PlatformInfo `json:"platformInfo,omitempty"`

	// Status (aggregated from steps)
	Status StepStatus `json:"status"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Results
	Steps []StepResult `json:"steps"`

	// Summary (computed)
	TotalSteps   int `json:"totalSteps"`
	PassedSteps  int `json:"passedSteps"`
	FailedSteps  int `json:"failedSteps"`
	SkippedSteps int `json:"skippedSteps"`
	WarnedSteps  int `json:"warnedSteps"`
	TotalScrolls int `json:"totalScrolls"`

	// Error info (if flow failed)
	Error string `json:"error,omitempty"`
}

// ComputeSummary recounts steps and scrolls. Errored steps count as failed.
func (f *FlowResult) ComputeSummary() {
	f.TotalSteps = len(f.Steps)
	f.PassedSteps, f.FailedSteps, f.SkippedSteps, f.WarnedSteps, f.TotalScrolls = 0, 0, 0, 0, 0

	for i := range f.Steps {
		switch f.Steps[i].Status {
		case StatusPassed:
			f.PassedSteps++
		case StatusFailed, StatusErrored:
			f.FailedSteps++
		case StatusSkipped:
			f.SkippedSteps++
		case StatusWarned:
			f.WarnedSteps++
		}
		f.TotalScrolls += f.Steps[i].Scrolls
	}
}

// AggregateStatus is failed if any step failed or errored, warned if any
// optional step warned, and passed otherwise.
func (f *FlowResult) AggregateStatus() StepStatus {
	status := StatusPassed
	for i := range f.Steps {
		switch f.Steps[i].Status {
		case StatusFailed, StatusErrored:
			return StatusFailed
		case StatusWarned:
			status = StatusWarned
		}
	}
	return status
}

// SuiteResult captures the complete outcome of executing multiple plans
type SuiteResult struct {
	// Identity
	Name  string `json:"name"`
	RunID string `json:"runId"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Results
	Flows []FlowResult `json:"flows"`

	// Summary
	TotalFlows   int `json:"totalFlows"`
	PassedFlows  int `json:"passedFlows"`
	FailedFlows  int `json:"failedFlows"`
	SkippedFlows int `json:"skippedFlows"`
}

// ComputeSummary recounts plans. Warned plans count as passed.
func (s *SuiteResult) ComputeSummary() {
	s.TotalFlows = len(s.Flows)
	s.PassedFlows, s.FailedFlows, s.SkippedFlows = 0, 0, 0

	for i := range s.Flows {
		switch s.Flows[i].Status {
		case StatusPassed, StatusWarned:
			s.PassedFlows++
		case StatusFailed, StatusErrored:
			s.FailedFlows++
		case StatusSkipped:
			s.SkippedFlows++
		}
	}
}

// Success reports whether the suite ran at least one plan and every plan
// passed or warned.
func (s *SuiteResult) Success() bool {
	if len(s.Flows) == 0 {
		return false
	}
	for i := range s.Flows {
		if !s.Flows[i].Status.IsSuccess() {
			return false
		}
	}
	return true
}
