// Package config handles configuration for scroll-runner.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config represents the workspace configuration (config.yaml).
type Config struct {
	// Plan selection
	Flows       []string `yaml:"flows"`       // Glob patterns for plan files, relative to the workspace
	IncludeTags []string `yaml:"includeTags"` // Tags to include
	ExcludeTags []string `yaml:"excludeTags"` // Tags to exclude

	// Agent settings
	Platform string   `yaml:"platform"` // android, ios or mock
	AgentURL string   `yaml:"agentUrl"` // Agent bridge URL. Default depends on platform.
	Devices  []string `yaml:"devices"`  // One worker per device
	RPS      float64  `yaml:"rps"`      // Max agent requests per second. 0 = bridge default.

	// Scroll defaults, applied to steps that leave them unset
	Distance   int `yaml:"distance"`
	MaxScrolls int `yaml:"maxScrolls"`

	// Output
	OutputDir string `yaml:"outputDir"`
	LogLevel  string `yaml:"logLevel"`
	LogFile   string `yaml:"logFile"`
}

// Load loads configuration from a file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- user-provided config file
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return &cfg, nil
}

// LoadFromDir loads config.yaml, or config.yml, from dir. A workspace
// without either gets an empty Config.
func LoadFromDir(dir string) (*Config, error) {
	for _, name := range []string{"config.yaml", "config.yml"} {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return &Config{}, nil
}

// Validate rejects values no run could use.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Platform) {
	case "", "android", "ios", "mock":
	default:
		return fmt.Errorf("unsupported platform %q", c.Platform)
	}
	if c.RPS < 0 {
		return fmt.Errorf("rps must be >= 0, got %v", c.RPS)
	}
	if c.Distance < 0 {
		return fmt.Errorf("distance must be >= 0, got %d", c.Distance)
	}
	if c.MaxScrolls < 0 {
		return fmt.Errorf("maxScrolls must be >= 0, got %d", c.MaxScrolls)
	}
	return nil
}

// ResolveFlows expands the Flows globs relative to dir. Patterns that match
// nothing are ignored; the result keeps pattern order without duplicates.
func (c *Config) ResolveFlows(dir string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, pattern := range c.Flows {
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(dir, pattern)
		}
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid flow pattern %q: %w", pattern, err)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	return out, nil
}

// DefaultOutputDir is used when neither the config nor the command line
// names one: <home>/reports.
func DefaultOutputDir() string {
	return filepath.Join(GetHome(), "reports")
}
