package core

import (
	"errors"
	"fmt"
)

// ExecutionError is a classified failure. Category decides how the executor
// reports a step; Code identifies the failure for errors.Is.
type ExecutionError struct {
	Category ErrorCategory
	Code     string                 // Machine-readable code: scroll_failed, target_not_found, etc.
	Message  string                 // Human-readable message
	Details  map[string]interface{} // Additional context
	Cause    error                  // Underlying error
}

func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is matches errors with the same code, so copies made by the With* helpers
// still satisfy errors.Is against the predefined errors.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok || t.Code == "" {
		return false
	}
	return e.Code == t.Code
}

func (e *ExecutionError) clone() *ExecutionError {
	c := *e
	return &c
}

// WithCause returns a copy of the error wrapping cause.
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	c := e.clone()
	c.Cause = cause
	return c
}

// WithMessage returns a copy of the error with msg in place of the default
// message.
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	c := e.clone()
	c.Message = msg
	return c
}

// WithDetails returns a copy whose details are e's merged with details.
// The receiver's map is never modified.
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	c := e.clone()
	c.Details = make(map[string]interface{}, len(e.Details)+len(details))
	for k, v := range e.Details {
		c.Details[k] = v
	}
	for k, v := range details {
		c.Details[k] = v
	}
	return c
}

// Predefined errors
var (
	// Assertion errors
	ErrAssertionFailed = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "assertion_failed",
		Message:  "assertion did not hold",
	}
	ErrTargetNotFound = &ExecutionError{
		Category: ErrCategoryAssertion,
		Code:     "target_not_found",
		Message:  "target not found",
	}

	// Execution errors
	ErrScrollFailed = &ExecutionError{
		Category: ErrCategoryExecution,
		Code:     "scroll_failed",
		Message:  "scroll step failed",
	}
	ErrQueryFailed = &ExecutionError{
		Category: ErrCategoryExecution,
		Code:     "query_failed",
		Message:  "content query failed",
	}

	// Timeout errors
	ErrTimeout = &ExecutionError{
		Category: ErrCategoryTimeout,
		Code:     "timeout",
		Message:  "operation timed out",
	}

	// Connection errors
	ErrDeviceDisconnected = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "device_disconnected",
		Message:  "device connection lost",
	}
	ErrServerUnreachable = &ExecutionError{
		Category: ErrCategoryConnection,
		Code:     "server_unreachable",
		Message:  "could not connect to agent server",
	}

	// Config errors
	ErrInvalidConfig = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_config",
		Message:  "invalid configuration",
	}
	ErrMissingRequired = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "missing_required",
		Message:  "missing required field",
	}
	ErrInvalidRange = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_range",
		Message:  "invalid range",
	}
	ErrInvalidStep = &ExecutionError{
		Category: ErrCategoryConfig,
		Code:     "invalid_step",
		Message:  "invalid scroll step",
	}
)

// NewExecutionError returns an error for failures that have no predefined
// counterpart, such as an agent error type this client does not know.
func NewExecutionError(category ErrorCategory, code, message string) *ExecutionError {
	return &ExecutionError{Category: category, Code: code, Message: message}
}

// CategoryOf returns the category of the first ExecutionError in err's chain.
// Unclassified errors are reported as ErrCategoryExecution.
func CategoryOf(err error) ErrorCategory {
	if err == nil {
		return ErrCategoryNone
	}
	var execErr *ExecutionError
	if errors.As(err, &execErr) {
		return execErr.Category
	}
	return ErrCategoryExecution
}

// IsAssertion reports whether err means "the predicate did not hold"
// rather than a failure to evaluate it.
func IsAssertion(err error) bool {
	var execErr *ExecutionError
	return errors.As(err, &execErr) && execErr.Category == ErrCategoryAssertion
}
