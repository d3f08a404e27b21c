// Package report persists run results as report.json and report.html.
package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/devicelab-dev/scroll-runner/pkg/core"
	"github.com/devicelab-dev/scroll-runner/pkg/logger"
)

// File names inside the output directory.
const (
	JSONFile = "report.json"
	HTMLFile = "report.html"
)

// NewSuite returns an empty suite with a fresh run ID.
func NewSuite(name string) *core.SuiteResult {
	return &core.SuiteResult{
		Name:      name,
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
		Flows:     []core.FlowResult{},
	}
}

// Writer provides thread-safe updates to the suite report.
// Device workers add flow results concurrently; every update is flushed so
// an interrupted run still leaves a readable report.
type Writer struct {
	mu        sync.Mutex
	outputDir string
	suite     *core.SuiteResult
	html      bool
}

// NewWriter creates the output directory and a writer for suite.
func NewWriter(outputDir string, suite *core.SuiteResult, html bool) (*Writer, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Writer{outputDir: outputDir, suite: suite, html: html}, nil
}

// Path returns the report.json location.
func (w *Writer) Path() string {
	return filepath.Join(w.outputDir, JSONFile)
}

// Start marks the run as started.
func (w *Writer) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.suite.StartTime = time.Now()
	return w.flushLocked()
}

// AddFlow appends a finished flow result.
func (w *Writer) AddFlow(fr core.FlowResult) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.suite.Flows = append(w.suite.Flows, fr)
	w.suite.ComputeSummary()
	return w.flushLocked()
}

// End records the wall-clock duration and writes the final report.
func (w *Writer) End() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.suite.Duration = time.Since(w.suite.StartTime)
	w.suite.ComputeSummary()
	if err := w.flushLocked(); err != nil {
		return err
	}
	if w.html {
		return GenerateHTML(w.suite, filepath.Join(w.outputDir, HTMLFile))
	}
	return nil
}

// Suite returns the suite being written.
func (w *Writer) Suite() *core.SuiteResult {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.suite
}

func (w *Writer) flushLocked() error {
	if err := atomicWriteJSON(w.Path(), w.suite); err != nil {
		logger.Error("write report: %v", err)
		return err
	}
	return nil
}

// atomicWriteJSON writes v to a temp file and renames it over path, so
// readers never see a partial file.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename: %w", err)
	}
	return nil
}

// Summary is the decoded form of report.json used by readers. Enum fields
// are kept as their string names.
type Summary struct {
	Name         string        `json:"name"`
	RunID        string        `json:"runId"`
	StartTime    time.Time     `json:"startTime"`
	Duration     time.Duration `json:"duration"`
	TotalFlows   int           `json:"totalFlows"`
	PassedFlows  int           `json:"passedFlows"`
	FailedFlows  int           `json:"failedFlows"`
	SkippedFlows int           `json:"skippedFlows"`
	Flows        []struct {
		Name         string `json:"name"`
		FilePath     string `json:"filePath"`
		Status       string `json:"status"`
		TotalScrolls int    `json:"totalScrolls"`
		Error        string `json:"error,omitempty"`
		Steps        []struct {
			Command string          `json:"command"`
			Status  string          `json:"status"`
			Outcome string          `json:"outcome,omitempty"`
			Scrolls int             `json:"scrolls"`
			Data    json.RawMessage `json:"data,omitempty"`
		} `json:"steps"`
	} `json:"flows"`
}

// ReadReport reads report.json from dir.
func ReadReport(dir string) (*Summary, error) {
	data, err := os.ReadFile(filepath.Join(dir, JSONFile)) //#nosec G304 -- report dir is user-provided
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	var s Summary
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	return &s, nil
}
