// Package main provides the CLI entry point for docshot.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ideamans/go-l10n"
	"github.com/urfave/cli/v2"

	"github.com/user/docshot/pkg/adapters/logger"
	"github.com/user/docshot/pkg/config"
	"github.com/user/docshot/pkg/docshot"
	"github.com/user/docshot/pkg/pipeline"
	"github.com/user/docshot/pkg/ports"
	"github.com/user/docshot/pkg/summarizer"
)

var version = "dev"

// Exit codes.
const (
	exitOK      = 0
	exitFailed  = 1 // At least one target did not succeed
	exitInvalid = 2 // Configuration or target list rejected before launch
)

const defaultConfigPath = "docshot.yaml"

func main() {
	app := newApp()
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitFailed)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "docshot",
		Usage:   l10n.T("Capture deterministic screenshots for documentation"),
		Version: version,
		Description: l10n.T("docshot drives a headless browser through a list of pages and writes " +
			"stable screenshots for embedding in documentation."),
		Commands: []*cli.Command{
			captureCommand(),
			validateCommand(),
			historyCommand(),
		},
	}
}

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Value:   defaultConfigPath,
		Usage:   l10n.T("Path to the YAML configuration file"),
	}
}

func targetFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "target",
		Aliases: []string{"t"},
		Usage:   l10n.T("Only capture the named target (repeatable)"),
	}
}

func captureCommand() *cli.Command {
	return &cli.Command{
		Name:  "capture",
		Usage: l10n.T("Capture screenshots of every configured target"),
		Flags: []cli.Flag{
			configFlag(),
			targetFlag(),
			&cli.BoolFlag{Name: "fail-fast", Usage: l10n.T("Stop after the first failed target"), Category: l10n.T("Run")},
			&cli.StringFlag{Name: "engine", Usage: l10n.T("Browser engine (chromedp, playwright, rod)"), Category: l10n.T("Browser")},
			&cli.BoolFlag{Name: "no-headless", Usage: l10n.T("Run browser in non-headless mode"), Category: l10n.T("Browser")},
			&cli.StringFlag{Name: "chrome-path", Usage: l10n.T("Path to Chrome executable"), Category: l10n.T("Browser")},
			&cli.StringFlag{Name: "summary", Usage: l10n.T("Write a markdown summary to this file"), Category: l10n.T("Output")},
			&cli.StringFlag{Name: "history", Usage: l10n.T("Record the run in this sqlite database"), Category: l10n.T("Output")},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: l10n.T("Save artifacts of failed targets"), Category: l10n.T("Debug")},
			&cli.StringFlag{Name: "debug-dir", Usage: l10n.T("Directory for debug output"), Category: l10n.T("Debug")},
			&cli.StringFlag{Name: "log-level", Aliases: []string{"l"}, Value: "info", Usage: l10n.T("Log level (debug, info, warn, error)"), Category: l10n.T("Logging")},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"Q"}, Usage: l10n.T("Suppress all log output"), Category: l10n.T("Logging")},
			&cli.StringFlag{Name: "log-file", Usage: l10n.T("Also write logs to this file (rotated)"), Category: l10n.T("Logging")},
		},
		Action: runCapture,
	}
}

func runCapture(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return cli.Exit(err.Error(), exitInvalid)
	}
	applyCaptureFlags(c, &cfg)

	log, closeLog := newLogger(c)
	defer closeLog()

	ctx, stop := signalContext(log)
	defer stop()

	runner := docshot.NewRunner(cfg, log)
	report, err := runner.Run(ctx, docshot.RunOptions{Only: c.StringSlice("target")})
	if err != nil {
		if pipeline.IsKind(err, pipeline.KindInvalidTarget) {
			return cli.Exit(err.Error(), exitInvalid)
		}
		return cli.Exit(err.Error(), exitFailed)
	}

	if !c.Bool("quiet") {
		fmt.Fprint(c.App.Writer, summarizer.NewTextFormatter().Format(runner.Summarize(report)))
	}
	if code := report.ExitCode(); code != exitOK {
		return cli.Exit("", code)
	}
	return nil
}

func applyCaptureFlags(c *cli.Context, cfg *config.Config) {
	if c.IsSet("fail-fast") {
		cfg.FailFast = c.Bool("fail-fast")
	}
	if c.IsSet("engine") {
		cfg.Engine = c.String("engine")
	}
	if c.Bool("no-headless") {
		cfg.Browser.Headless = false
	}
	if c.IsSet("chrome-path") {
		cfg.Browser.ChromePath = c.String("chrome-path")
	}
	if c.IsSet("summary") {
		cfg.Summary = c.String("summary")
	}
	if c.IsSet("history") {
		cfg.History = c.String("history")
	}
	if c.Bool("debug") {
		cfg.Debug = true
	}
	if c.IsSet("debug-dir") {
		cfg.DebugDir = c.String("debug-dir")
	}
}

func validateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: l10n.T("Check the configuration and target list without launching a browser"),
		Flags: []cli.Flag{configFlag(), targetFlag()},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return cli.Exit(err.Error(), exitInvalid)
			}
			plan, err := docshot.NewRunner(cfg, logger.NewNoop()).Plan(docshot.RunOptions{Only: c.StringSlice("target")})
			if err != nil {
				return cli.Exit(err.Error(), exitInvalid)
			}
			for _, t := range plan {
				fmt.Fprintf(c.App.Writer, "%s\t%s -> %s\n", t.Name, t.URL, t.OutputFile)
			}
			fmt.Fprintln(c.App.Writer, l10n.F("Configuration is valid: %d targets", len(plan)))
			return nil
		},
	}
}

func loadConfig(c *cli.Context) (config.Config, error) {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, errors.New(l10n.F("Configuration file not found: %s", path))
		}
		return cfg, err
	}
	return cfg, nil
}

func newLogger(c *cli.Context) (ports.Logger, func()) {
	if c.Bool("quiet") {
		return logger.NewNoop(), func() {}
	}
	l := logger.NewConsole(ports.ParseLogLevel(c.String("log-level"))).
		WithFile(logger.FileOptions{Path: c.String("log-file")})
	return l, func() { l.Close() }
}

// signalContext cancels on SIGINT or SIGTERM. The run then winds down,
// skipping the remaining targets.
func signalContext(log ports.Logger) (context.Context, func()) {
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			log.Warn(l10n.T("Interrupted, shutting down..."))
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(sigCh)
		cancel()
	}
}
