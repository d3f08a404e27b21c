package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_ValidConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")

	content := `
flows:
  - "plans/*.yaml"
includeTags:
  - smoke
excludeTags:
  - wip
platform: android
agentUrl: http://127.0.0.1:6790
devices:
  - emulator-5554
  - emulator-5556
rps: 2.5
distance: 300
maxScrolls: 12
outputDir: out
logLevel: debug
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := &Config{
		Flows:       []string{"plans/*.yaml"},
		IncludeTags: []string{"smoke"},
		ExcludeTags: []string{"wip"},
		Platform:    "android",
		AgentURL:    "http://127.0.0.1:6790",
		Devices:     []string{"emulator-5554", "emulator-5556"},
		RPS:         2.5,
		Distance:    300,
		MaxScrolls:  12,
		OutputDir:   "out",
		LogLevel:    "debug",
	}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"platform", "platform: windows"},
		{"rps", "rps: -1"},
		{"distance", "distance: -5"},
		{"maxScrolls", "maxScrolls: -1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Errorf("expected error for %q", tt.content)
			}
		})
	}
}

func TestResolveFlows(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"plans/a.yaml", "plans/b.yaml", "extra/c.yaml"} {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte("- scroll: down\n"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	cfg := &Config{Flows: []string{"plans/*.yaml", "plans/a.yaml", "extra/*.yaml", "missing/*.yaml"}}
	got, err := cfg.ResolveFlows(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{
		filepath.Join(dir, "plans", "a.yaml"),
		filepath.Join(dir, "plans", "b.yaml"),
		filepath.Join(dir, "extra", "c.yaml"),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ResolveFlows mismatch (-want +got):\n%s", diff)
	}

	if _, err := (&Config{Flows: []string{"["}}).ResolveFlows(dir); err == nil {
		t.Error("expected error for malformed pattern")
	}
}

func TestDefaultOutputDir(t *testing.T) {
	ResetHome()
	t.Setenv("SCROLL_RUNNER_HOME", "/test/home")
	t.Cleanup(ResetHome)

	if got, want := DefaultOutputDir(), filepath.Join("/test/home", "reports"); got != want {
		t.Errorf("DefaultOutputDir() = %q, want %q", got, want)
	}
}

func TestLoad_NonExistentFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(`flows: [plans/*.yaml`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoadFromDir(t *testing.T) {
	tests := []struct {
		name     string
		files    map[string]string
		platform string
		rps      float64
	}{
		{"no config", nil, "", 0},
		{"empty config.yaml", map[string]string{"config.yaml": ""}, "", 0},
		{"config.yaml", map[string]string{"config.yaml": "platform: android\nrps: 4"}, "android", 4},
		{"config.yml", map[string]string{"config.yml": "platform: ios"}, "ios", 0},
		{
			"yaml wins over yml",
			map[string]string{"config.yaml": "platform: mock", "config.yml": "platform: android"},
			"mock", 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for name, content := range tt.files {
				if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
					t.Fatal(err)
				}
			}

			cfg, err := LoadFromDir(dir)
			if err != nil {
				t.Fatalf("LoadFromDir: %v", err)
			}
			if cfg.Platform != tt.platform || cfg.RPS != tt.rps {
				t.Errorf("got platform %q rps %v, want %q %v", cfg.Platform, cfg.RPS, tt.platform, tt.rps)
			}
			if len(cfg.Flows) != 0 {
				t.Errorf("expected no flows, got %v", cfg.Flows)
			}
		})
	}
}

func TestLoadFromDir_InvalidConfigIsAnError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("maxScrolls: -3"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadFromDir(dir); err == nil {
		t.Error("expected validation error from LoadFromDir")
	}
}
