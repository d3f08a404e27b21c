// Package mock provides a scripted agent for running plans without a device.
package mock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/devicelab-dev/scroll-runner/pkg/core"
)

// Call records one agent invocation.
type Call struct {
	Kind    string             // scroll, assert or query
	Request core.ScrollRequest // Set for scroll
	Text    string             // Predicate or prompt
	Scrolls int                // Scrolls performed before this call
}

// Agent is a mock implementation of core.Agent.
//
// The screen is modelled as a scroll counter: predicates become true after a
// configured number of scrolls and queries return the page for the current
// count. Every call is recorded.
type Agent struct {
	// Configuration
	Config Config

	mu      sync.Mutex
	scrolls int
	calls   []Call
}

// Config configures mock agent behavior.
type Config struct {
	// FailOnScroll makes scroll N fail (1-indexed). 0 = never fail.
	FailOnScroll int
	// StepDelay adds artificial delay per call
	StepDelay time.Duration

	// VisibleAfter maps a predicate to the number of scrolls after which it
	// holds. Unknown predicates never hold.
	VisibleAfter map[string]int
	// Pages is what a query returns after N scrolls. Past the end the last
	// page is repeated. Empty = every query returns an empty list.
	Pages [][]interface{}

	// Platform info to report
	Platform string
	DeviceID string
}

// New creates a new mock agent.
func New(cfg Config) *Agent {
	if cfg.Platform == "" {
		cfg.Platform = "mock"
	}
	if cfg.DeviceID == "" {
		cfg.DeviceID = "mock-device"
	}
	return &Agent{Config: cfg}
}

// Scroll simulates one scroll step.
func (a *Agent) Scroll(ctx context.Context, req core.ScrollRequest) error {
	if err := a.wait(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.calls = append(a.calls, Call{Kind: "scroll", Request: req, Scrolls: a.scrolls})
	if a.Config.FailOnScroll > 0 && a.scrolls+1 == a.Config.FailOnScroll {
		return fmt.Errorf("mock failure on scroll %d", a.scrolls+1)
	}
	a.scrolls++
	return nil
}

// Assert holds once the predicate's configured scroll count is reached.
func (a *Agent) Assert(ctx context.Context, predicate string) error {
	if err := a.wait(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.calls = append(a.calls, Call{Kind: "assert", Text: predicate, Scrolls: a.scrolls})
	if n, ok := a.Config.VisibleAfter[predicate]; ok && a.scrolls >= n {
		return nil
	}
	return core.ErrAssertionFailed.WithMessage(fmt.Sprintf("mock: %q does not hold after %d scrolls", predicate, a.scrolls))
}

// Query returns the page for the current scroll count.
func (a *Agent) Query(ctx context.Context, prompt string) (interface{}, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.calls = append(a.calls, Call{Kind: "query", Text: prompt, Scrolls: a.scrolls})
	if len(a.Config.Pages) == 0 {
		return []interface{}{}, nil
	}
	i := a.scrolls
	if i >= len(a.Config.Pages) {
		i = len(a.Config.Pages) - 1
	}
	page := make([]interface{}, len(a.Config.Pages[i]))
	copy(page, a.Config.Pages[i])
	return page, nil
}

// Calls returns a copy of the recorded calls.
func (a *Agent) Calls() []Call {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Call, len(a.calls))
	copy(out, a.calls)
	return out
}

// ScrollCount returns the number of successful scrolls.
func (a *Agent) ScrollCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.scrolls
}

// Reset returns the mock to its initial screen and clears recorded calls.
func (a *Agent) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scrolls = 0
	a.calls = nil
}

// GetPlatformInfo returns mock platform info.
func (a *Agent) GetPlatformInfo() *core.PlatformInfo {
	return &core.PlatformInfo{
		Platform:    a.Config.Platform,
		DeviceID:    a.Config.DeviceID,
		DeviceName:  "Mock Device",
		OSVersion:   "1.0",
		IsSimulator: true,
	}
}

func (a *Agent) wait(ctx context.Context) error {
	if a.Config.StepDelay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(a.Config.StepDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
