package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/devicelab-dev/scroll-runner/pkg/core"
	"github.com/devicelab-dev/scroll-runner/pkg/scroll"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// slowThreshold marks steps that took long enough to be worth a look.
const slowThreshold = 30 * time.Second

// printer writes live progress and summaries.
// Callbacks may arrive from several device workers at once.
type printer struct {
	mu     sync.Mutex
	w      io.Writer
	colors bool
}

func newPrinter(w io.Writer, noANSI bool) *printer {
	return &printer{w: w, colors: !noANSI && isTerminal(w)}
}

// isTerminal reports whether w is a character device and NO_COLOR is unset.
func isTerminal(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fileInfo, err := f.Stat()
	return err == nil && fileInfo.Mode()&os.ModeCharDevice != 0
}

// color returns the color code if colors are enabled, empty string otherwise
func (p *printer) color(c string) string {
	if p.colors {
		return c
	}
	return ""
}

func (p *printer) onFlowStart(flowIdx, totalFlows int, name, file string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.w, "\n  %s[%d/%d]%s %s%s%s (%s)\n",
		p.color(colorCyan), flowIdx+1, totalFlows, p.color(colorReset),
		p.color(colorBold), name, p.color(colorReset), file)
	fmt.Fprintln(p.w, strings.Repeat("─", 60))
}

func (p *printer) onStepComplete(_ string, res *core.StepResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	desc := res.Command
	if res.Label != "" {
		desc = res.Label
	}
	dur := formatDuration(res.Duration)

	switch res.Status {
	case core.StatusPassed:
		symbol, symbolColor, durColor := "✓", p.color(colorGreen), ""
		if res.Duration >= slowThreshold {
			symbol, symbolColor, durColor = "⚠", p.color(colorYellow), p.color(colorYellow)
		}
		fmt.Fprintf(p.w, "    %s%s%s %s %s(%s)%s\n",
			symbolColor, symbol, p.color(colorReset), desc, durColor, dur, p.color(colorReset))
		if res.Message != "" {
			fmt.Fprintf(p.w, "      %s╰─ %s%s\n", p.color(colorGray), res.Message, p.color(colorReset))
		}
	case core.StatusWarned:
		fmt.Fprintf(p.w, "    %s⚠%s %s (%s, optional)\n", p.color(colorYellow), p.color(colorReset), desc, dur)
		fmt.Fprintf(p.w, "      %s╰─%s %s\n", p.color(colorGray), p.color(colorReset), res.Error)
	case core.StatusSkipped:
		fmt.Fprintf(p.w, "    %s-%s %s (skipped)\n", p.color(colorCyan), p.color(colorReset), desc)
	default:
		fmt.Fprintf(p.w, "    %s✗%s %s (%s)\n", p.color(colorRed), p.color(colorReset), desc, dur)
		if res.Error != "" {
			fmt.Fprintf(p.w, "      %s╰─%s [%s] %s\n", p.color(colorGray), p.color(colorReset), res.Category, res.Error)
		}
	}
}

func (p *printer) onFlowEnd(res *core.FlowResult) {
	p.mu.Lock()
	defer p.mu.Unlock()

	symbol, c := "✓", colorGreen
	switch res.Status {
	case core.StatusFailed, core.StatusErrored:
		symbol, c = "✗", colorRed
	case core.StatusSkipped:
		symbol, c = "-", colorCyan
	}
	fmt.Fprintf(p.w, "%s%s %s%s %s%s%s\n",
		p.color(c), symbol, p.color(colorReset), res.Name,
		p.color(colorGray), formatDuration(res.Duration), p.color(colorReset))
	if res.Status == core.StatusSkipped && res.Error != "" {
		fmt.Fprintf(p.w, "  %s╰─%s %s\n", p.color(colorGray), p.color(colorReset), res.Error)
	}
}

func (p *printer) printSummary(suite *core.SuiteResult, reportPath string) {
	var total, passed, failed, skipped, scrolls int
	for _, fr := range suite.Flows {
		total += fr.TotalSteps
		passed += fr.PassedSteps + fr.WarnedSteps
		failed += fr.FailedSteps
		skipped += fr.SkippedSteps
		scrolls += fr.TotalScrolls
	}

	fmt.Fprintln(p.w)
	tableWidth := 92
	fmt.Fprintln(p.w, strings.Repeat("═", tableWidth))
	fmt.Fprintf(p.w, "  %-40s %6s %6s %6s %6s %6s %10s\n", "Plan", "Status", "Steps", "Pass", "Fail", "Scroll", "Duration")
	fmt.Fprintln(p.w, strings.Repeat("─", tableWidth))

	for _, fr := range suite.Flows {
		status, statusColor := "✓ PASS", p.color(colorGreen)
		switch fr.Status {
		case core.StatusFailed, core.StatusErrored:
			status, statusColor = "✗ FAIL", p.color(colorRed)
		case core.StatusSkipped:
			status, statusColor = "- SKIP", p.color(colorCyan)
		}

		// Truncate name if too long
		name := fr.Name
		if len(name) > 40 {
			name = name[:37] + "..."
		}
		fmt.Fprintf(p.w, "  %-40s %s%6s%s %6d %6d %6d %6d %10s\n",
			name, statusColor, status, p.color(colorReset),
			fr.TotalSteps, fr.PassedSteps+fr.WarnedSteps, fr.FailedSteps, fr.TotalScrolls,
			formatDuration(fr.Duration))
	}

	fmt.Fprintln(p.w, strings.Repeat("─", tableWidth))
	statusColor := p.color(colorGreen)
	if suite.FailedFlows > 0 {
		statusColor = p.color(colorRed)
	}
	fmt.Fprintf(p.w, "  %s%-40s%s %s%6s%s %6d %6d %6d %6d %10s\n",
		p.color(colorBold), "TOTAL", p.color(colorReset),
		statusColor, fmt.Sprintf("%d/%d", suite.PassedFlows, suite.TotalFlows), p.color(colorReset),
		total, passed, failed, scrolls, formatDuration(suite.Duration))
	fmt.Fprintln(p.w, strings.Repeat("═", tableWidth))
	if skipped > 0 {
		fmt.Fprintf(p.w, "  %s%d steps skipped%s\n", p.color(colorCyan), skipped, p.color(colorReset))
	}
	if reportPath != "" {
		fmt.Fprintf(p.w, "  Report: %s\n", reportPath)
	}
}

// printLoop summarizes a one-shot loop result.
func (p *printer) printLoop(mode string, lr *core.LoopResult) {
	if lr == nil {
		return
	}
	c := colorYellow
	if lr.Succeeded() {
		c = colorGreen
	}
	fmt.Fprintf(p.w, "%s%s%s: %s after %d scrolls (%s)\n",
		p.color(c), mode, p.color(colorReset), lr.Outcome, lr.Steps, formatDuration(lr.Duration))
	if lr.Items != nil {
		fmt.Fprintf(p.w, "%d items: %s\n", len(lr.Items), scroll.Preview(lr.Items))
	}
}

// formatDuration formats a duration for the console, e.g. 850ms, 2.4s, 3m 5s.
func formatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
