package core

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestExecutionError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ExecutionError
		want string
	}{
		{"message only", ErrTargetNotFound.WithMessage(`"Footer" not found after 30 scrolls`), `"Footer" not found after 30 scrolls`},
		{"with cause", ErrScrollFailed.WithCause(errors.New("region not found")), "scroll step failed: region not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExecutionError_CopiesLeaveSentinelIntact(t *testing.T) {
	cause := errors.New("agent crashed")
	err := ErrQueryFailed.
		WithCause(cause).
		WithMessage("query product names").
		WithDetails(map[string]interface{}{"iteration": 2})

	if err.Unwrap() != cause {
		t.Errorf("Unwrap() = %v, want %v", err.Unwrap(), cause)
	}
	if err.Code != ErrQueryFailed.Code || err.Category != ErrCategoryExecution {
		t.Errorf("copy changed identity: %s/%s", err.Code, err.Category)
	}
	if err.Details["iteration"] != 2 {
		t.Errorf("Details = %v", err.Details)
	}
	if ErrQueryFailed.Cause != nil || ErrQueryFailed.Message != "content query failed" || ErrQueryFailed.Details != nil {
		t.Errorf("sentinel modified: %+v", ErrQueryFailed)
	}
}

func TestExecutionError_WithDetailsMerges(t *testing.T) {
	base := ErrTargetNotFound.WithDetails(map[string]interface{}{"target": "Footer"})
	err := base.WithDetails(map[string]interface{}{"scrolls": 30})

	if err.Details["target"] != "Footer" || err.Details["scrolls"] != 30 {
		t.Errorf("Details = %v, want target and scrolls", err.Details)
	}
	if _, ok := base.Details["scrolls"]; ok {
		t.Error("WithDetails() modified the receiver's details")
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err      *ExecutionError
		category ErrorCategory
		code     string
	}{
		{ErrAssertionFailed, ErrCategoryAssertion, "assertion_failed"},
		{ErrTargetNotFound, ErrCategoryAssertion, "target_not_found"},
		{ErrScrollFailed, ErrCategoryExecution, "scroll_failed"},
		{ErrQueryFailed, ErrCategoryExecution, "query_failed"},
		{ErrTimeout, ErrCategoryTimeout, "timeout"},
		{ErrDeviceDisconnected, ErrCategoryConnection, "device_disconnected"},
		{ErrServerUnreachable, ErrCategoryConnection, "server_unreachable"},
		{ErrInvalidConfig, ErrCategoryConfig, "invalid_config"},
		{ErrMissingRequired, ErrCategoryConfig, "missing_required"},
		{ErrInvalidRange, ErrCategoryConfig, "invalid_range"},
		{ErrInvalidStep, ErrCategoryConfig, "invalid_step"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Category != tt.category {
				t.Errorf("Category = %s, want %s", tt.err.Category, tt.category)
			}
			if tt.err.Code != tt.code {
				t.Errorf("Code = %s, want %s", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Message should not be empty")
			}
		})
	}
}

func TestNewExecutionError(t *testing.T) {
	err := NewExecutionError(ErrCategoryExecution, "custom_error", "custom message")

	if err.Category != ErrCategoryExecution {
		t.Errorf("Category = %s, want %s", err.Category, ErrCategoryExecution)
	}
	if err.Code != "custom_error" {
		t.Errorf("Code = %s, want 'custom_error'", err.Code)
	}
	if err.Message != "custom message" {
		t.Errorf("Message = %s, want 'custom message'", err.Message)
	}
}

func TestExecutionError_ErrorsIs(t *testing.T) {
	cause := errors.New("root cause")
	err := ErrTimeout.WithCause(cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is() should find the cause")
	}
}

func TestExecutionError_IsMatchesCopies(t *testing.T) {
	err := ErrScrollFailed.WithCause(errors.New("region not found")).WithMessage("could not scroll")

	if !errors.Is(err, ErrScrollFailed) {
		t.Error("errors.Is() should match a copy of ErrScrollFailed")
	}
	if errors.Is(err, ErrQueryFailed) {
		t.Error("errors.Is() should not match a different code")
	}

	wrapped := fmt.Errorf("step 3: %w", err)
	if !errors.Is(wrapped, ErrScrollFailed) {
		t.Error("errors.Is() should see through fmt.Errorf wrapping")
	}
}

func TestIsAssertion(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), false},
		{"assertion failed", ErrAssertionFailed, true},
		{"assertion with cause", ErrAssertionFailed.WithCause(errors.New("no")), true},
		{"wrapped assertion", fmt.Errorf("check: %w", ErrAssertionFailed), true},
		{"connection", ErrServerUnreachable, false},
		{"scroll failed", ErrScrollFailed, false},
		{"context canceled", context.Canceled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsAssertion(tt.err); got != tt.want {
				t.Errorf("IsAssertion(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestCategoryOf(t *testing.T) {
	tests := []struct {
		err  error
		want ErrorCategory
	}{
		{nil, ErrCategoryNone},
		{errors.New("raw"), ErrCategoryExecution},
		{ErrTargetNotFound, ErrCategoryAssertion},
		{fmt.Errorf("wrap: %w", ErrInvalidRange), ErrCategoryConfig},
		{ErrDeviceDisconnected, ErrCategoryConnection},
	}

	for _, tt := range tests {
		if got := CategoryOf(tt.err); got != tt.want {
			t.Errorf("CategoryOf(%v) = %s, want %s", tt.err, got, tt.want)
		}
	}
}
