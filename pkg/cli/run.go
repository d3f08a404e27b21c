package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/scroll-runner/pkg/config"
	"github.com/devicelab-dev/scroll-runner/pkg/core"
	"github.com/devicelab-dev/scroll-runner/pkg/executor"
	"github.com/devicelab-dev/scroll-runner/pkg/flow"
	"github.com/devicelab-dev/scroll-runner/pkg/logger"
	"github.com/devicelab-dev/scroll-runner/pkg/report"
	"github.com/devicelab-dev/scroll-runner/pkg/validator"
)

var planFlags = []cli.Flag{
	&cli.StringSliceFlag{
		Name:  "include-tags",
		Usage: "Only include plans with these tags",
	},
	&cli.StringSliceFlag{
		Name:  "exclude-tags",
		Usage: "Exclude plans with these tags",
	},
}

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Run scroll plans on one or more devices",
	ArgsUsage: "<plan-file-or-folder>...",
	Description: `Run one or more plan files. Without arguments the flows globs from
config.yaml are used.

Reports are written to the output directory:
  - Default: <home>/reports/<timestamp>/
  - With --output: <output>/<timestamp>/
  - With --output and --flatten: <output>/

With several devices (--device a,b) plans are spread across one worker per
device.

Examples:
  scroll-runner run plans/
  scroll-runner run catalog.yaml search.yaml --include-tags smoke
  scroll-runner --device emulator-5554,emulator-5556 run plans/`,
	Flags: append([]cli.Flag{
		&cli.StringFlag{
			Name:  "output",
			Usage: "Output directory for reports",
		},
		&cli.BoolFlag{
			Name:  "flatten",
			Usage: "Don't create timestamp subfolder (requires --output)",
		},
		&cli.BoolFlag{
			Name:  "html",
			Usage: "Also write report.html",
		},
		&cli.BoolFlag{
			Name:  "stop-on-fail",
			Usage: "Skip remaining plans after the first failure",
		},
		&cli.StringFlag{
			Name:  "name",
			Usage: "Suite name shown in reports",
			Value: "scroll-runner",
		},
	}, planFlags...),
	Action: runPlans,
}

var validateCommand = &cli.Command{
	Name:      "validate",
	Usage:     "Check plan files without running them",
	ArgsUsage: "<plan-file-or-folder>...",
	Flags:     planFlags,
	Action: func(c *cli.Context) error {
		s, err := loadSettings(c)
		if err != nil {
			return err
		}
		if err := s.initLogger(c.App.ErrWriter, ""); err != nil {
			return err
		}
		defer logger.Close()

		flows, err := validatePlans(c, s)
		if err != nil {
			return err
		}
		for _, f := range flows {
			fmt.Fprintf(c.App.Writer, "✓ %s (%d steps)\n", f.SourcePath, len(f.Steps))
		}
		return nil
	},
}

func runPlans(c *cli.Context) error {
	s, err := loadSettings(c)
	if err != nil {
		return err
	}

	outputDir, err := resolveOutputDir(pick(c.String("output"), s.OutputDir), c.Bool("flatten"))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := s.initLogger(c.App.ErrWriter, filepath.Join(outputDir, "scroll-runner.log")); err != nil {
		return err
	}
	defer logger.Close()

	flows, err := validatePlans(c, s)
	if err != nil {
		return err
	}
	for _, f := range flows {
		f.ApplyDefaults(s.Distance, s.MaxScrolls)
	}

	logger.Info("=== Run started ===")
	logger.Info("Output directory: %s", outputDir)
	logger.Info("Platform: %s, driver: %s, devices: %v", s.Platform, s.Driver, s.Devices)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := newPrinter(c.App.Writer, s.NoANSI)
	runnerConfig := executor.RunnerConfig{
		SuiteName:      c.String("name"),
		OutputDir:      outputDir,
		HTML:           c.Bool("html"),
		StopOnFail:     c.Bool("stop-on-fail"),
		OnFlowStart:    out.onFlowStart,
		OnStepComplete: out.onStepComplete,
		OnFlowEnd:      out.onFlowEnd,
	}

	suite, err := executePlans(ctx, s, flows, runnerConfig)
	if err != nil {
		return err
	}

	out.printSummary(suite, filepath.Join(outputDir, report.JSONFile))
	logger.Info("=== Run finished: %d/%d plans passed ===", suite.PassedFlows, suite.TotalFlows)

	if !suite.Success() {
		return fmt.Errorf("%d of %d plans failed", suite.TotalFlows-suite.PassedFlows, suite.TotalFlows)
	}
	return nil
}

// executePlans runs on a single agent, or in parallel when several devices
// are configured.
func executePlans(ctx context.Context, s *settings, flows []*flow.Flow, cfg executor.RunnerConfig) (*core.SuiteResult, error) {
	if len(s.Devices) > 1 {
		workers, err := createDeviceWorkers(ctx, s)
		if err != nil {
			return nil, err
		}
		return executor.NewParallelRunner(workers, cfg).Run(ctx, flows)
	}

	var deviceID string
	if len(s.Devices) == 1 {
		deviceID = s.Devices[0]
	}
	agent, cleanup, err := createAgent(ctx, s, deviceID)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return executor.New(agent, cfg).Run(ctx, flows)
}

// validatePlans parses and validates the plans named on the command line, or
// the workspace config globs when none are given.
func validatePlans(c *cli.Context, s *settings) ([]*flow.Flow, error) {
	paths := c.Args().Slice()
	if len(paths) == 0 {
		paths = s.Flows
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("at least one plan file or folder is required")
	}

	include := c.StringSlice("include-tags")
	if len(include) == 0 {
		include = s.IncludeTags
	}
	exclude := c.StringSlice("exclude-tags")
	if len(exclude) == 0 {
		exclude = s.ExcludeTags
	}

	result := validator.New(include, exclude).Validate(paths...)
	if !result.IsValid() {
		for _, err := range result.Errors {
			fmt.Fprintf(c.App.ErrWriter, "  ✗ %v\n", err)
		}
		return nil, fmt.Errorf("%d validation error(s)", len(result.Errors))
	}
	if len(result.Flows) == 0 {
		return nil, fmt.Errorf("no plans matched")
	}
	return result.Flows, nil
}

// resolveOutputDir determines the output directory based on flags.
// - No --output: <home>/reports/<timestamp>/
// - --output given: <output>/<timestamp>/
// - --output + --flatten: <output>/ (error if --output not given)
func resolveOutputDir(output string, flatten bool) (string, error) {
	if flatten && output == "" {
		return "", fmt.Errorf("--flatten requires --output to be specified")
	}

	baseDir := output
	if baseDir == "" {
		baseDir = config.DefaultOutputDir()
	}

	if flatten {
		return filepath.Clean(baseDir), nil
	}

	// Create timestamp-based subfolder
	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(baseDir, timestamp), nil
}
