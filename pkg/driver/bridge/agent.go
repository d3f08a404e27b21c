package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/devicelab-dev/scroll-runner/pkg/core"
)

// Default server addresses per platform.
const (
	DefaultAndroidURL = "http://127.0.0.1:6790"
	DefaultIOSURL     = "http://localhost:8100"
)

// Config configures an Agent.
type Config struct {
	URL        string // Agent server. Empty = platform default.
	DeviceID   string
	DeviceName string
	OSVersion  string
	AppID      string
	Simulator  bool

	Timeout time.Duration
	RPS     float64
}

// Agent implements core.Agent on top of a Client session.
type Agent struct {
	client *Client
	info   *core.PlatformInfo
	appID  string
}

// NewAndroid creates an agent for an Android device.
func NewAndroid(cfg Config) *Agent {
	return newAgent("android", DefaultAndroidURL, cfg)
}

// NewIOS creates an agent for an iOS device or simulator.
func NewIOS(cfg Config) *Agent {
	return newAgent("ios", DefaultIOSURL, cfg)
}

// New creates an agent for the named platform (android or ios).
func New(platform string, cfg Config) (*Agent, error) {
	switch platform {
	case "android":
		return NewAndroid(cfg), nil
	case "ios":
		return NewIOS(cfg), nil
	}
	return nil, core.ErrInvalidConfig.WithMessage(fmt.Sprintf("unsupported platform %q (want android or ios)", platform))
}

func newAgent(platform, defaultURL string, cfg Config) *Agent {
	url := cfg.URL
	if url == "" {
		url = defaultURL
	}
	return &Agent{
		client: NewClient(url, ClientOptions{Timeout: cfg.Timeout, RPS: cfg.RPS}),
		info: &core.PlatformInfo{
			Platform:    platform,
			DeviceID:    cfg.DeviceID,
			DeviceName:  cfg.DeviceName,
			OSVersion:   cfg.OSVersion,
			IsSimulator: cfg.Simulator,
		},
		appID: cfg.AppID,
	}
}

// Client returns the underlying HTTP client.
func (a *Agent) Client() *Client {
	return a.client
}

// Connect waits for the server to report ready and opens a session.
func (a *Agent) Connect(ctx context.Context) error {
	ready, err := a.client.Status(ctx)
	if err != nil {
		return err
	}
	if !ready {
		return core.ErrServerUnreachable.WithMessage(fmt.Sprintf("agent server at %s is not ready", a.client.BaseURL()))
	}
	return a.client.CreateSession(ctx, Capabilities{
		PlatformName: a.info.Platform,
		DeviceID:     a.info.DeviceID,
		AppID:        a.appID,
	})
}

// Close ends the session.
func (a *Agent) Close(ctx context.Context) error {
	defer a.client.Close()
	return a.client.DeleteSession(ctx)
}

// Scroll performs one scroll step inside the region.
func (a *Agent) Scroll(ctx context.Context, req core.ScrollRequest) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	_, err := a.client.request(ctx, http.MethodPost, a.client.sessionPath("/agent/scroll"), req)
	if core.IsAssertion(err) {
		// "no such element" here means the region is missing.
		return core.ErrScrollFailed.WithCause(err).WithDetails(map[string]interface{}{"region": req.Region})
	}
	return err
}

type assertResult struct {
	Passed bool   `json:"passed"`
	Reason string `json:"reason"`
}

// Assert checks the predicate. A predicate that does not hold comes back as
// core.ErrAssertionFailed carrying the agent's reason.
func (a *Agent) Assert(ctx context.Context, predicate string) error {
	if err := a.requireSession(); err != nil {
		return err
	}
	value, err := a.client.request(ctx, http.MethodPost, a.client.sessionPath("/agent/assert"), map[string]string{
		"predicate": predicate,
	})
	if err != nil {
		return err
	}
	var res assertResult
	if err := json.Unmarshal(value, &res); err != nil {
		return fmt.Errorf("parse assert response: %w", err)
	}
	if res.Passed {
		return nil
	}
	msg := res.Reason
	if msg == "" {
		msg = fmt.Sprintf("%q does not hold", predicate)
	}
	return core.ErrAssertionFailed.WithMessage(msg).WithDetails(map[string]interface{}{
		"predicate": predicate,
	})
}

// Query extracts content. Numbers are decoded as json.Number so integer
// values survive unchanged.
func (a *Agent) Query(ctx context.Context, prompt string) (interface{}, error) {
	if err := a.requireSession(); err != nil {
		return nil, err
	}
	value, err := a.client.request(ctx, http.MethodPost, a.client.sessionPath("/agent/query"), map[string]string{
		"prompt": prompt,
	})
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(value)) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(value))
	dec.UseNumber()
	var out interface{}
	if err := dec.Decode(&out); err != nil {
		return nil, fmt.Errorf("parse query response: %w", err)
	}
	return out, nil
}

// GetPlatformInfo returns the device the agent drives.
func (a *Agent) GetPlatformInfo() *core.PlatformInfo {
	return a.info
}

func (a *Agent) requireSession() error {
	if !a.client.HasSession() {
		return core.ErrDeviceDisconnected.WithMessage("no active agent session, call Connect first")
	}
	return nil
}
