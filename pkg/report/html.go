package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"time"

	"github.com/devicelab-dev/scroll-runner/pkg/core"
	"github.com/devicelab-dev/scroll-runner/pkg/scroll"
)

// GenerateHTML renders a static summary of suite to path.
func GenerateHTML(suite *core.SuiteResult, path string) error {
	html, err := renderHTML(suite)
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	if err := os.WriteFile(path, html, 0o644); err != nil { //#nosec G306 -- report is meant to be shared
		return fmt.Errorf("write html: %w", err)
	}
	return nil
}

func renderHTML(suite *core.SuiteResult) ([]byte, error) {
	tmpl, err := template.New("report").Funcs(template.FuncMap{
		"ms":      func(d time.Duration) string { return d.Round(time.Millisecond).String() },
		"preview": scroll.Preview,
	}).Parse(htmlTemplate)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, suite); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Name}}</title>
<style>
body { font-family: -apple-system, sans-serif; margin: 2em; color: #222; }
table { border-collapse: collapse; width: 100%; margin-bottom: 2em; }
th, td { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
.passed { color: #1a7f37; } .warned { color: #9a6700; }
.failed, .errored { color: #cf222e; } .skipped { color: #888; }
</style>
</head>
<body>
<h1>{{.Name}}</h1>
<p>Run {{.RunID}} &middot; {{.StartTime.Format "2006-01-02 15:04:05"}} &middot; {{ms .Duration}}</p>
<p>{{.PassedFlows}} passed, {{.FailedFlows}} failed, {{.SkippedFlows}} skipped of {{.TotalFlows}}</p>
{{range .Flows}}
<h2 class="{{.Status}}">{{.Name}} ({{.Status}})</h2>
<p>{{.FilePath}}{{with .PlatformInfo}} &middot; {{.Platform}} {{.DeviceID}}{{end}} &middot; {{.TotalScrolls}} scrolls &middot; {{ms .Duration}}</p>
{{with .Error}}<p class="failed">{{.}}</p>{{end}}
<table>
<tr><th>#</th><th>Step</th><th>Status</th><th>Outcome</th><th>Scrolls</th><th>Duration</th><th>Details</th></tr>
{{range .Steps}}
<tr>
<td>{{.Index}}</td>
<td>{{if .Label}}{{.Label}}{{else}}{{.Command}}{{end}}</td>
<td class="{{.Status}}">{{.Status}}</td>
<td>{{.Outcome}}</td>
<td>{{.Scrolls}}</td>
<td>{{ms .Duration}}</td>
<td>{{.Message}}{{if .Data}} {{preview .Data}}{{end}}{{with .Error}}<br><span class="failed">{{.}}</span>{{end}}</td>
</tr>
{{end}}
</table>
{{end}}
</body>
</html>
`
