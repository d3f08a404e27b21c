package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/scroll-runner/pkg/core"
	"github.com/devicelab-dev/scroll-runner/pkg/logger"
	"github.com/devicelab-dev/scroll-runner/pkg/scroll"
)

var regionFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "region",
		Aliases: []string{"r"},
		Usage:   "Scrollable region, e.g. \"product list\"",
	},
	&cli.StringFlag{
		Name:  "direction",
		Usage: "up, down, left, right, vertical or horizontal",
		Value: string(core.DirectionDown),
	},
}

var loopFlags = withFlags(regionFlags,
	&cli.IntFlag{
		Name:  "distance",
		Usage: "Pixels per scroll (default 200)",
	},
	&cli.BoolFlag{
		Name:  "auto-distance",
		Usage: "Let the agent choose the scroll distance",
	},
	&cli.IntFlag{
		Name:    "max-scrolls",
		Aliases: []string{"n"},
		Usage:   "Scroll budget (default 30)",
	},
	&cli.StringFlag{
		Name:  "until",
		Usage: "Natural-language stop condition",
	},
)

var scrollCommand = &cli.Command{
	Name:  "scroll",
	Usage: "Scroll until a condition holds or the budget runs out",
	Description: `Examples:
  scroll-runner scroll --region feed --max-scrolls 5
  scroll-runner scroll --until "Load more button is visible" --pre-check
  scroll-runner scroll --until "Footer is visible" --require`,
	Flags: withFlags(loopFlags,
		&cli.BoolFlag{
			Name:  "pre-check",
			Usage: "Check the condition before the first scroll",
		},
		&cli.BoolFlag{
			Name:  "require",
			Usage: "Fail if the condition never holds",
		},
		&cli.StringFlag{
			Name:  "target",
			Usage: "Name of what is being looked for, used in the not-found message",
		},
	),
	Action: func(c *cli.Context) error {
		return withAgent(c, func(sess *session) error {
			opts := loopOptions(c, sess.settings)
			opts.PreCheck = c.Bool("pre-check")
			opts.Target = c.String("target")

			mode, run := "scroll", scroll.Scroll
			if c.Bool("require") {
				mode, run = "scrollUntilVisible", scroll.RequireVisible
			}
			lr, err := run(sess.ctx, sess.agent, opts)
			newPrinter(c.App.Writer, sess.settings.NoANSI).printLoop(mode, lr)
			return err
		})
	},
}

var collectCommand = &cli.Command{
	Name:  "collect",
	Usage: "Collect visible content while scrolling and print it as JSON",
	Description: `Examples:
  scroll-runner collect --what "product names" --max-scrolls 10
  scroll-runner collect --what "reviews" --format "{author, stars}[]" --until "No more reviews"`,
	Flags: withFlags(loopFlags,
		&cli.StringFlag{
			Name:     "what",
			Usage:    "What to extract, e.g. \"product names\"",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "format",
			Usage: "Expected result shape",
			Value: scroll.DefaultFormat,
		},
	),
	Action: func(c *cli.Context) error {
		return withAgent(c, func(sess *session) error {
			lr, err := scroll.Collect(sess.ctx, sess.agent, scroll.CollectOptions{
				Options: loopOptions(c, sess.settings),
				What:    c.String("what"),
				Format:  c.String("format"),
			})
			if err != nil {
				sess.out.printLoop("collect", lr)
				return err
			}
			logger.Info("collect: %s after %d scrolls, %d items", lr.Outcome, lr.Steps, len(lr.Items))
			return printJSON(c, lr.Items)
		})
	},
}

var randomCommand = &cli.Command{
	Name:  "random",
	Usage: "Perform a random scroll sequence and print the executed steps",
	Description: `Examples:
  scroll-runner random --min-times 3 --max-times 8
  scroll-runner random --direction horizontal --min-distance 100 --max-distance 400 --seed 42`,
	Flags: withFlags(regionFlags,
		&cli.IntFlag{Name: "min-times", Usage: "Minimum number of scrolls", Value: 1},
		&cli.IntFlag{Name: "max-times", Usage: "Maximum number of scrolls (default min-times)"},
		&cli.IntFlag{Name: "min-distance", Usage: "Minimum pixels per scroll (0 = agent decides)"},
		&cli.IntFlag{Name: "max-distance", Usage: "Maximum pixels per scroll"},
		&cli.Int64Flag{Name: "seed", Usage: "Seed for a reproducible sequence"},
	),
	Action: func(c *cli.Context) error {
		return withAgent(c, func(sess *session) error {
			opts := scroll.RandomOptions{
				Region:      c.String("region"),
				Direction:   core.Direction(c.String("direction")),
				MinTimes:    c.Int("min-times"),
				MaxTimes:    c.Int("max-times"),
				MaxTimesSet: c.IsSet("max-times"),
				MinDistance: c.Int("min-distance"),
				MaxDistance: c.Int("max-distance"),
			}
			if c.IsSet("seed") {
				opts.Rand = scroll.NewRand(c.Int64("seed"))
			}
			steps, err := scroll.Random(sess.ctx, sess.agent, opts)
			if err != nil {
				if steps != nil {
					logger.Warn("random scroll stopped after %d steps", len(steps))
				}
				return err
			}
			return printJSON(c, steps)
		})
	},
}

// withFlags returns base followed by extra without sharing base's array.
func withFlags(base []cli.Flag, extra ...cli.Flag) []cli.Flag {
	out := make([]cli.Flag, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

// loopOptions builds loop options from the shared flags, falling back to
// the workspace defaults.
func loopOptions(c *cli.Context, s *settings) scroll.Options {
	opts := scroll.Options{
		Region:        c.String("region"),
		Direction:     core.Direction(c.String("direction")),
		Distance:      c.Int("distance"),
		AutoDistance:  c.Bool("auto-distance"),
		MaxIterations: c.Int("max-scrolls"),
		StopWhen:      c.String("until"),
	}
	if opts.Distance == 0 {
		opts.Distance = s.Distance
	}
	if opts.MaxIterations == 0 {
		opts.MaxIterations = s.MaxScrolls
	}
	return opts
}

// session is what a one-shot command needs to talk to one agent. out
// prints status to stderr so stdout carries only the result.
type session struct {
	ctx      context.Context
	settings *settings
	agent    core.Agent
	out      *printer
}

func printJSON(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("write result: %w", err)
	}
	return nil
}

// withAgent loads settings, starts logging and connects the first
// configured device for the duration of fn.
func withAgent(c *cli.Context, fn func(*session) error) error {
	s, err := loadSettings(c)
	if err != nil {
		return err
	}
	if err := s.initLogger(c.App.ErrWriter, ""); err != nil {
		return err
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	var deviceID string
	if len(s.Devices) > 0 {
		deviceID = s.Devices[0]
	}
	agent, cleanup, err := createAgent(ctx, s, deviceID)
	if err != nil {
		return err
	}
	defer cleanup()

	return fn(&session{ctx: ctx, settings: s, agent: agent, out: newPrinter(c.App.ErrWriter, s.NoANSI)})
}
