// Package cli provides the command-line interface for scroll-runner.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/scroll-runner/pkg/config"
	"github.com/devicelab-dev/scroll-runner/pkg/logger"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:  "config",
		Usage: "Path to workspace config.yaml (default: ./config.yaml if present)",
	},
	&cli.StringFlag{
		Name:    "platform",
		Aliases: []string{"p"},
		Usage:   "Platform to run on (android, ios)",
		EnvVars: []string{"SCROLL_RUNNER_PLATFORM"},
	},
	&cli.StringFlag{
		Name:    "device",
		Aliases: []string{"udid"},
		Usage:   "Device ID to run on (can be comma-separated)",
		EnvVars: []string{"SCROLL_RUNNER_DEVICE"},
	},
	&cli.StringFlag{
		Name:    "driver",
		Aliases: []string{"d"},
		Usage:   "Agent driver to use (bridge, mock)",
		Value:   driverBridge,
		EnvVars: []string{"SCROLL_RUNNER_DRIVER"},
	},
	&cli.StringFlag{
		Name:    "agent-url",
		Usage:   "Agent bridge URL (default depends on platform)",
		EnvVars: []string{"SCROLL_RUNNER_AGENT_URL"},
	},
	&cli.Float64Flag{
		Name:    "rps",
		Usage:   "Max agent requests per second (negative = unlimited)",
		EnvVars: []string{"SCROLL_RUNNER_RPS"},
	},
	&cli.StringFlag{
		Name:  "mock-script",
		Usage: "YAML file scripting the mock agent (visibleAfter, pages, failOnScroll)",
	},
	&cli.StringFlag{
		Name:    "log-level",
		Usage:   "Log level (silent, error, warn, info, debug)",
		EnvVars: []string{"LOG_LEVEL"},
	},
	&cli.StringFlag{
		Name:    "log-file",
		Usage:   "Write JSON logs to this file",
		EnvVars: []string{"SCROLL_RUNNER_LOG_FILE"},
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Usage:   "Also print logs to stderr",
		EnvVars: []string{"SCROLL_RUNNER_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the CLI application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "scroll-runner",
		Usage:   "Bounded, agent-driven scrolling for mobile apps",
		Version: Version,
		Description: `scroll-runner drives a scrollable region through an AI UI agent: scroll
until a natural-language condition holds, collect what is visible along the way,
or explore with random scrolls.

Examples:
  scroll-runner run plans/
  scroll-runner scroll --region "product list" --until "Load more button is visible"
  scroll-runner collect --what "product names" --max-scrolls 10
  scroll-runner random --min-times 3 --max-times 8 --seed 42`,
		Flags: GlobalFlags,
		Commands: []*cli.Command{
			runCommand,
			validateCommand,
			scrollCommand,
			collectCommand,
			randomCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// settings is the merged view of flags, environment and workspace config.
// Flags and their environment variables win over config.yaml.
type settings struct {
	Platform   string
	Devices    []string
	Driver     string
	AgentURL   string
	RPS        float64
	MockScript string

	IncludeTags []string
	ExcludeTags []string
	Flows       []string // Resolved config globs
	OutputDir   string

	Distance   int
	MaxScrolls int

	LogLevel string
	LogFile  string
	Verbose  bool
	NoANSI   bool
}

// loadSettings reads the workspace config and overlays the global flags.
func loadSettings(c *cli.Context) (*settings, error) {
	var ws *config.Config
	var err error
	wsDir := "."
	if path := c.String("config"); path != "" {
		ws, err = config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		wsDir = filepath.Dir(path)
	} else {
		ws, err = config.LoadFromDir(wsDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
	}

	flows, err := ws.ResolveFlows(wsDir)
	if err != nil {
		return nil, err
	}

	s := &settings{
		Platform:    strings.ToLower(pick(c.String("platform"), ws.Platform)),
		Devices:     parseDevices(c.String("device")),
		Driver:      strings.ToLower(c.String("driver")),
		AgentURL:    pick(c.String("agent-url"), ws.AgentURL),
		RPS:         ws.RPS,
		MockScript:  c.String("mock-script"),
		IncludeTags: ws.IncludeTags,
		ExcludeTags: ws.ExcludeTags,
		Flows:       flows,
		OutputDir:   ws.OutputDir,
		Distance:    ws.Distance,
		MaxScrolls:  ws.MaxScrolls,
		LogLevel:    pick(c.String("log-level"), ws.LogLevel),
		LogFile:     pick(c.String("log-file"), ws.LogFile),
		Verbose:     c.Bool("verbose"),
		NoANSI:      c.Bool("no-ansi"),
	}
	if c.IsSet("rps") {
		s.RPS = c.Float64("rps")
	}
	if len(s.Devices) == 0 {
		s.Devices = ws.Devices
	}
	if s.Platform == "mock" {
		s.Driver = driverMock
	}
	switch s.Driver {
	case driverBridge, driverMock:
	default:
		return nil, fmt.Errorf("unsupported driver %q (use bridge or mock)", s.Driver)
	}
	return s, nil
}

// initLogger starts the process logger. Logs go to the log file when one is
// known, and to stderr when verbose or when there is no file.
func (s *settings) initLogger(stderr io.Writer, defaultFile string) error {
	path := s.LogFile
	if path == "" {
		path = defaultFile
	}
	opts := logger.Options{Path: path, Level: s.LogLevel}
	if s.Verbose || path == "" {
		opts.Console = stderr
	}
	if err := logger.Init(opts); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func pick(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func parseDevices(deviceFlag string) []string {
	if deviceFlag == "" {
		return nil
	}
	var devices []string
	for _, d := range strings.Split(deviceFlag, ",") {
		if d = strings.TrimSpace(d); d != "" {
			devices = append(devices, d)
		}
	}
	return devices
}
