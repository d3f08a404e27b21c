package core

import "fmt"

// StepStatus represents the execution status of a step
type StepStatus int

const (
	StatusPending StepStatus = iota // Not yet started
	StatusRunning                   // Currently executing
	StatusPassed                    // Completed successfully
	StatusFailed                    // Assertion failed (target never appeared)
	StatusErrored                   // Unexpected error (agent, transport, bad input)
	StatusSkipped                   // Previous step failed
	StatusWarned                    // Optional step failed (non-blocking)
)

var statusNames = [...]string{
	StatusPending: "pending",
	StatusRunning: "running",
	StatusPassed:  "passed",
	StatusFailed:  "failed",
	StatusErrored: "errored",
	StatusSkipped: "skipped",
	StatusWarned:  "warned",
}

func (s StepStatus) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "unknown"
	}
	return statusNames[s]
}

// MarshalText encodes the status by name in reports.
func (s StepStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// IsTerminal reports whether the step has finished, in any way.
func (s StepStatus) IsTerminal() bool {
	return s > StatusRunning && int(s) < len(statusNames)
}

// IsSuccess returns true if the status indicates success (passed or warned)
func (s StepStatus) IsSuccess() bool {
	return s == StatusPassed || s == StatusWarned
}

// ErrorCategory classifies the type of error for better debugging and reporting
type ErrorCategory int

const (
	ErrCategoryNone       ErrorCategory = iota // No error
	ErrCategoryAssertion                       // Predicate unmet, target not found
	ErrCategoryTimeout                         // Operation timed out
	ErrCategoryConnection                      // Agent/device connection lost
	ErrCategoryExecution                       // Scroll or query could not be performed
	ErrCategoryConfig                          // Invalid ranges, steps or configuration
)

// String returns the string representation of ErrorCategory
func (c ErrorCategory) String() string {
	switch c {
	case ErrCategoryNone:
		return "none"
	case ErrCategoryAssertion:
		return "assertion"
	case ErrCategoryTimeout:
		return "timeout"
	case ErrCategoryConnection:
		return "connection"
	case ErrCategoryExecution:
		return "execution"
	case ErrCategoryConfig:
		return "config"
	default:
		return "unknown"
	}
}

// MarshalText encodes the category by name in reports.
func (c ErrorCategory) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// Outcome is the terminal state of a bounded scroll loop.
type Outcome int

const (
	OutcomeNone      Outcome = iota // Loop did not run
	OutcomeSuccess                  // Stop condition met (possibly before the first scroll)
	OutcomeExhausted                // Budget spent without meeting the stop condition
)

// String returns the string representation of Outcome
func (o Outcome) String() string {
	switch o {
	case OutcomeNone:
		return "none"
	case OutcomeSuccess:
		return "success"
	case OutcomeExhausted:
		return "exhausted"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// MarshalText encodes the outcome by name in reports.
func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}
