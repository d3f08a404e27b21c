package flow

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParse_SimplePlan(t *testing.T) {
	yaml := `
- scroll: down
- scrollUntilVisible: "Load more button"
- collect:
    what: product names
    region: product list
    maxScrolls: 5
`
	flow, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(flow.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(flow.Steps))
	}

	sc, ok := flow.Steps[0].(*ScrollStep)
	if !ok {
		t.Fatalf("expected ScrollStep, got %T", flow.Steps[0])
	}
	if sc.Direction != "down" {
		t.Errorf("expected direction=down, got %q", sc.Direction)
	}

	suv, ok := flow.Steps[1].(*ScrollUntilVisibleStep)
	if !ok {
		t.Fatalf("expected ScrollUntilVisibleStep, got %T", flow.Steps[1])
	}
	if suv.Until != "Load more button" {
		t.Errorf("expected until=Load more button, got %q", suv.Until)
	}

	col, ok := flow.Steps[2].(*CollectStep)
	if !ok {
		t.Fatalf("expected CollectStep, got %T", flow.Steps[2])
	}
	if col.What != "product names" || col.Region != "product list" || col.MaxScrolls != 5 {
		t.Errorf("unexpected collect step %+v", col)
	}
}

func TestParse_WithConfig(t *testing.T) {
	yaml := `
name: Catalog exploration
tags:
  - smoke
  - catalog
platform: android
---
- randomScroll:
    region: feed
    minTimes: 2
    maxTimes: 4
`
	flow, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if flow.Config.Name != "Catalog exploration" {
		t.Errorf("expected name=Catalog exploration, got %q", flow.Config.Name)
	}
	if len(flow.Config.Tags) != 2 {
		t.Errorf("expected 2 tags, got %d", len(flow.Config.Tags))
	}
	if flow.Config.Platform != "android" {
		t.Errorf("expected platform=android, got %q", flow.Config.Platform)
	}
	if flow.DisplayName() != "Catalog exploration" {
		t.Errorf("DisplayName() = %q", flow.DisplayName())
	}
	if len(flow.Steps) != 1 {
		t.Errorf("expected 1 step, got %d", len(flow.Steps))
	}
}

func TestParse_AllStepTypes(t *testing.T) {
	testCases := []struct {
		name     string
		yaml     string
		stepType StepType
	}{
		{"scroll scalar", `- scroll: up`, StepScroll},
		{"scroll mapping", `- scroll: {direction: left, until: "end"}`, StepScroll},
		{"scroll bare", `- scroll`, StepScroll},
		{"scrollUntilVisible scalar", `- scrollUntilVisible: "Footer"`, StepScrollUntilVisible},
		{"scrollUntilVisible mapping", `- scrollUntilVisible: {until: "Footer", target: footer}`, StepScrollUntilVisible},
		{"collect scalar", `- collect: prices`, StepCollect},
		{"collect mapping", `- collect: {what: prices, format: "number[]"}`, StepCollect},
		{"randomScroll scalar", `- randomScroll: feed`, StepRandomScroll},
		{"randomScroll empty", `- randomScroll:`, StepRandomScroll},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			flow, err := Parse([]byte(tc.yaml), "test.yaml")
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(flow.Steps) != 1 {
				t.Fatalf("expected 1 step, got %d", len(flow.Steps))
			}
			if flow.Steps[0].Type() != tc.stepType {
				t.Errorf("expected type %s, got %s", tc.stepType, flow.Steps[0].Type())
			}
		})
	}
}

func TestParse_ScrollWithAllFields(t *testing.T) {
	yaml := `
- scroll:
    region: car models
    direction: horizontal
    distance: 400
    maxScrolls: 12
    until: "SUV tab visible"
    preCheck: true
    label: find SUVs
    optional: true
`
	flow, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := flow.Steps[0].(*ScrollStep)
	if s.Region != "car models" || s.Direction != "horizontal" || s.Distance != 400 || s.MaxScrolls != 12 {
		t.Errorf("unexpected loop fields %+v", s.LoopFields)
	}
	if s.Until != "SUV tab visible" || !s.PreCheck {
		t.Errorf("unexpected until/preCheck %q %v", s.Until, s.PreCheck)
	}
	if s.Label() != "find SUVs" || !s.IsOptional() {
		t.Errorf("unexpected label/optional %q %v", s.Label(), s.IsOptional())
	}

	opts := s.Options()
	if opts.StopWhen != "SUV tab visible" || opts.MaxIterations != 12 || !opts.PreCheck {
		t.Errorf("unexpected options %+v", opts)
	}
}

func TestParse_RandomScrollWithSeed(t *testing.T) {
	yaml := `
- randomScroll:
    region: feed
    direction: vertical
    minTimes: 3
    maxTimes: 8
    minDistance: 300
    maxDistance: 700
    seed: 42
`
	flow, err := Parse([]byte(yaml), "test.yaml")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	s := flow.Steps[0].(*RandomScrollStep)
	if s.Seed == nil || *s.Seed != 42 {
		t.Fatalf("expected seed 42, got %v", s.Seed)
	}
	opts := s.Options()
	if opts.Rand == nil || opts.MinTimes != 3 || opts.MaxDistance != 700 || opts.Direction != "vertical" {
		t.Errorf("unexpected options %+v", opts)
	}
}

func TestParse_RandomScrollMaxTimes(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{"omitted", "- randomScroll:\n    minTimes: 5\n", false},
		{"explicit zero", "- randomScroll:\n    minTimes: 5\n    maxTimes: 0\n", true},
		{"explicit range", "- randomScroll:\n    minTimes: 5\n    maxTimes: 6\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flow, err := Parse([]byte(tt.yaml), "test.yaml")
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			err = flow.Steps[0].Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParse_EmptyPlan(t *testing.T) {
	for _, content := range []string{"", "\n\n", "name: x\n---\n"} {
		_, err := Parse([]byte(content), "empty.yaml")
		if err == nil {
			t.Errorf("expected error for %q", content)
		}
	}
}

func TestParse_InvalidStep(t *testing.T) {
	_, err := Parse([]byte(`- tapOn: "Login"`), "test.yaml")
	if err == nil {
		t.Fatal("expected error for unknown step")
	}
	if !strings.Contains(err.Error(), "unknown step type") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestParse_UnknownScalarStep(t *testing.T) {
	_, err := Parse([]byte("- scroll: down\n- fling\n"), "test.yaml")
	pe, ok := err.(*ParseError)
	if !ok {
		t.Fatalf("expected *ParseError, got %T", err)
	}
	if pe.Line != 2 {
		t.Errorf("expected line 2, got %d", pe.Line)
	}
}

func TestParse_StepNotMapping(t *testing.T) {
	_, err := Parse([]byte("- [1, 2]"), "test.yaml")
	if err == nil || !strings.Contains(err.Error(), "step must be a mapping") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestParse_DecodeErrors(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{"scroll", `- scroll: {distance: far}`},
		{"scrollUntilVisible", `- scrollUntilVisible: {maxScrolls: [1]}`},
		{"collect", `- collect: {what: {a: 1}}`},
		{"randomScroll", `- randomScroll: {minTimes: lots}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.yaml), "test.yaml")
			if _, ok := err.(*ParseError); !ok {
				t.Errorf("expected *ParseError, got %v", err)
			}
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("- scroll: [unclosed"), "test.yaml")
	if err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestParse_ConfigError(t *testing.T) {
	_, err := Parse([]byte("tags: {a: [}\n---\n- scroll: down\n"), "test.yaml")
	if err == nil || !strings.Contains(err.Error(), "invalid config") {
		t.Errorf("expected config error, got %v", err)
	}
}

func TestParse_TooManyDocuments(t *testing.T) {
	_, err := Parse([]byte("name: a\n---\n- scroll: down\n---\n- scroll: up\n"), "test.yaml")
	if err == nil {
		t.Error("expected error for three documents")
	}
}

func TestParseError_Error(t *testing.T) {
	tests := []struct {
		err  ParseError
		want string
	}{
		{ParseError{Path: "a.yaml", Line: 3, Message: "bad"}, "a.yaml:3: bad"},
		{ParseError{Path: "a.yaml", Message: "bad"}, "a.yaml: bad"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestParseFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "catalog.yaml")
	if err := os.WriteFile(path, []byte("- collect: names\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	flow, err := ParseFile(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if flow.SourcePath != path {
		t.Errorf("SourcePath = %q", flow.SourcePath)
	}
	if flow.DisplayName() != "catalog" {
		t.Errorf("DisplayName() = %q, want catalog", flow.DisplayName())
	}
}

func TestParseFile_NotFound(t *testing.T) {
	if _, err := ParseFile("/nonexistent/plan.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestParseDirectory(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b.yaml":        "name: B\ntags: [smoke]\n---\n- scroll: down\n",
		"a.yml":         "name: A\ntags: [slow]\n---\n- scroll: up\n",
		"broken.yaml":   "- nope\n",
		"readme.txt":    "not a plan",
		"sub/c.yaml":    "- collect: names\n",
		"sub/skip.json": "{}",
	}
	for name, content := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	flows, err := ParseDirectory(dir, nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var names []string
	for _, f := range flows {
		names = append(names, f.DisplayName())
	}
	if strings.Join(names, ",") != "A,B,c" {
		t.Errorf("flows = %v, want [A B c]", names)
	}

	flows, err = ParseDirectory(dir, []string{"smoke"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(flows) != 1 || flows[0].Config.Name != "B" {
		t.Errorf("include filter returned %d flows", len(flows))
	}
}

func TestParseDirectory_NonExistent(t *testing.T) {
	if _, err := ParseDirectory("/nonexistent/dir", nil, nil); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestIsStepType(t *testing.T) {
	for _, s := range []string{"scroll", "scrollUntilVisible", "collect", "randomScroll"} {
		if !isStepType(s) {
			t.Errorf("isStepType(%q) = false", s)
		}
	}
	for _, s := range []string{"", "tapOn", "Scroll", "label"} {
		if isStepType(s) {
			t.Errorf("isStepType(%q) = true", s)
		}
	}
}

func TestShouldIncludeFlow(t *testing.T) {
	flow := &Flow{Config: Config{Tags: []string{"smoke", "android"}}}

	tests := []struct {
		name    string
		include []string
		exclude []string
		want    bool
	}{
		{"no filters", nil, nil, true},
		{"include match", []string{"smoke"}, nil, true},
		{"include miss", []string{"regression"}, nil, false},
		{"exclude match", nil, []string{"android"}, false},
		{"exclude miss", nil, []string{"ios"}, true},
		{"include and exclude", []string{"smoke"}, []string{"android"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ShouldIncludeFlow(flow, tt.include, tt.exclude); got != tt.want {
				t.Errorf("ShouldIncludeFlow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSplitYAMLDocuments(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int
	}{
		{"single", "- scroll: down\n", 1},
		{"config and steps", "name: x\n---\n- scroll: down\n", 2},
		{"leading separator", "---\n- scroll: down\n", 1},
		{"indented dashes are content", "- collect:\n    what: |\n      ---\n      names\n", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := splitYAMLDocuments(tt.content); len(got) != tt.want {
				t.Errorf("got %d parts, want %d", len(got), tt.want)
			}
		})
	}
}
