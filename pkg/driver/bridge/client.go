// Package bridge talks to an on-device AI agent server over HTTP.
//
// The server exposes a WebDriver-style JSON protocol: a session is created
// with POST /session, then scroll, assert and query actions are posted under
// /session/{id}/agent/. Responses wrap their payload in a "value" field.
package bridge

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/devicelab-dev/scroll-runner/pkg/core"
	"github.com/devicelab-dev/scroll-runner/pkg/logger"
)

const (
	defaultTimeout = 60 * time.Second
	defaultRPS     = 5
)

// ClientOptions tunes a Client. Zero values use defaults.
type ClientOptions struct {
	Timeout time.Duration // Per request. Default: 60s (agent calls run a model).
	RPS     float64       // Max requests per second. Default: 5. Negative = unlimited.
}

// Client communicates with the agent server.
type Client struct {
	http      *http.Client
	baseURL   string
	sessionID string
	limiter   *rate.Limiter
	log       *zap.SugaredLogger
}

// NewClient creates a client for the server at baseURL.
func NewClient(baseURL string, opts ClientOptions) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	limit := rate.Limit(defaultRPS)
	switch {
	case opts.RPS < 0:
		limit = rate.Inf
	case opts.RPS > 0:
		limit = rate.Limit(opts.RPS)
	}
	return &Client{
		http:    &http.Client{Timeout: opts.Timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
		limiter: rate.NewLimiter(limit, 1),
		log:     logger.Named("bridge"),
	}
}

// BaseURL returns the server address.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SessionID returns the current session ID.
func (c *Client) SessionID() string {
	return c.sessionID
}

// HasSession returns true if a session is active.
func (c *Client) HasSession() bool {
	return c.sessionID != ""
}

// Response is the envelope every endpoint answers with.
type Response struct {
	SessionID string          `json:"sessionId,omitempty"`
	Value     json.RawMessage `json:"value"`
}

type errorValue struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// request makes an HTTP request to the agent server and returns the raw
// "value" payload.
func (c *Client) request(ctx context.Context, method, path string, body interface{}) (json.RawMessage, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}
	start := time.Now()

	var reqBody io.Reader
	var bodyStr string
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
		bodyStr = string(data)
		if len(bodyStr) > 100 {
			bodyStr = bodyStr[:100] + "..."
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.log.Debugf("%s %s [%v] ERROR: %v", method, path, elapsed, err)
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, core.ErrServerUnreachable.WithCause(err).WithDetails(map[string]interface{}{
			"url": c.baseURL,
		})
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, core.ErrDeviceDisconnected.WithCause(fmt.Errorf("read response: %w", err))
	}

	status := "OK"
	if resp.StatusCode >= 400 {
		status = fmt.Sprintf("ERR:%d", resp.StatusCode)
	}
	c.log.Debugf("%s %s [%v] %s body=%s", method, path, elapsed, status, bodyStr)

	var envelope Response
	decodeErr := json.Unmarshal(respBody, &envelope)

	if resp.StatusCode >= 400 {
		if decodeErr == nil {
			var ev errorValue
			if json.Unmarshal(envelope.Value, &ev) == nil && ev.Error != "" {
				return nil, classify(ev.Error, ev.Message)
			}
		}
		return nil, core.NewExecutionError(core.ErrCategoryExecution, "agent_error",
			fmt.Sprintf("server error %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))))
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("parse response: %w", decodeErr)
	}
	if envelope.SessionID != "" && c.sessionID == "" {
		c.sessionID = envelope.SessionID
	}
	return envelope.Value, nil
}

// classify maps a WebDriver-style error name to an ExecutionError.
func classify(errType, msg string) error {
	if msg == "" {
		msg = errType
	}
	switch errType {
	case "assertion failed", "no such element":
		return core.ErrAssertionFailed.WithMessage(msg)
	case "timeout", "script timeout":
		return core.ErrTimeout.WithMessage(msg)
	case "invalid session id":
		return core.ErrDeviceDisconnected.WithMessage(msg)
	case "invalid argument":
		return core.ErrInvalidStep.WithMessage(msg)
	}
	return core.NewExecutionError(core.ErrCategoryExecution, strings.ReplaceAll(errType, " ", "_"), msg)
}

// sessionPath returns path with session ID prefix.
func (c *Client) sessionPath(path string) string {
	return fmt.Sprintf("/session/%s%s", c.sessionID, path)
}

// Status checks if the server is ready.
func (c *Client) Status(ctx context.Context) (bool, error) {
	value, err := c.request(ctx, http.MethodGet, "/status", nil)
	if err != nil {
		return false, err
	}
	var status struct {
		Ready   bool   `json:"ready"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(value, &status); err != nil {
		return false, fmt.Errorf("parse status: %w", err)
	}
	return status.Ready, nil
}

// Capabilities describes the device a session should drive.
type Capabilities struct {
	PlatformName string `json:"platformName"`
	DeviceID     string `json:"deviceId,omitempty"`
	AppID        string `json:"appId,omitempty"`
}

// CreateSession starts a new agent session.
func (c *Client) CreateSession(ctx context.Context, caps Capabilities) error {
	c.sessionID = ""
	value, err := c.request(ctx, http.MethodPost, "/session", map[string]interface{}{
		"capabilities": caps,
	})
	if err != nil {
		return err
	}
	if c.sessionID == "" {
		// Session ID nested in value
		var alt struct {
			SessionID string `json:"sessionId"`
		}
		if json.Unmarshal(value, &alt) == nil {
			c.sessionID = alt.SessionID
		}
	}
	if c.sessionID == "" {
		return errors.New("no session ID in response")
	}
	return nil
}

// DeleteSession ends the current session.
func (c *Client) DeleteSession(ctx context.Context) error {
	if c.sessionID == "" {
		return nil
	}
	_, err := c.request(ctx, http.MethodDelete, c.sessionPath(""), nil)
	c.sessionID = ""
	return err
}

// Close releases idle connections.
func (c *Client) Close() {
	c.http.CloseIdleConnections()
}
