package docshot

import (
	"context"
	"fmt"
	"time"

	"github.com/user/docshot/pkg/adapters/filesink"
	"github.com/user/docshot/pkg/adapters/nullsink"
	"github.com/user/docshot/pkg/adapters/osfilesystem"
	"github.com/user/docshot/pkg/adapters/sqlitehistory"
	"github.com/user/docshot/pkg/config"
	"github.com/user/docshot/pkg/orchestrator"
	"github.com/user/docshot/pkg/pipeline"
	"github.com/user/docshot/pkg/ports"
	"github.com/user/docshot/pkg/stages/capture"
	"github.com/user/docshot/pkg/stages/navigate"
	"github.com/user/docshot/pkg/stages/stabilize"
	"github.com/user/docshot/pkg/summarizer"
	"github.com/user/docshot/pkg/targets"
)

// historyTimeout bounds recording a finished run, which happens even
// after the run context was cancelled.
const historyTimeout = 10 * time.Second

// RunOptions narrows a single run.
type RunOptions struct {
	Only  []string // Target names to run; empty runs all
	RunID string   // Generated when empty
}

// Runner wires adapters and stages for a config.Config and runs it.
type Runner struct {
	config      config.Config
	logger      ports.Logger
	fs          ports.FileSystem
	newBrowser  func(engine string) (ports.Browser, error)
	openHistory func(path string) (ports.HistoryStore, error)
}

// NewRunner creates a Runner using the OS file system, the configured
// engine and the sqlite history store.
func NewRunner(cfg config.Config, logger ports.Logger) *Runner {
	return &Runner{
		config:     cfg,
		logger:     logger,
		fs:         osfilesystem.New(),
		newBrowser: NewBrowser,
		openHistory: func(path string) (ports.HistoryStore, error) {
			return sqlitehistory.Open(path)
		},
	}
}

// WithFileSystem replaces the file system used for screenshots, debug
// artifacts and summaries.
func (r *Runner) WithFileSystem(fs ports.FileSystem) *Runner {
	r.fs = fs
	return r
}

// WithBrowserFactory replaces the engine factory.
func (r *Runner) WithBrowserFactory(fn func(engine string) (ports.Browser, error)) *Runner {
	r.newBrowser = fn
	return r
}

// WithHistoryOpener replaces how the history store is opened.
func (r *Runner) WithHistoryOpener(fn func(path string) (ports.HistoryStore, error)) *Runner {
	r.openHistory = fn
	return r
}

// Run validates the configuration and captures its targets.
//
// Configuration problems are returned as a KindInvalidTarget
// *pipeline.Error without launching a browser. A browser launch failure is
// returned as an error. Per-target failures only appear in the report.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (pipeline.Report, error) {
	if err := r.config.Validate(); err != nil {
		return pipeline.Report{}, invalid(err)
	}
	oc, err := r.config.ToOrchestratorConfig()
	if err != nil {
		return pipeline.Report{}, invalid(err)
	}
	oc.Only = opts.Only
	oc.RunID = opts.RunID

	browser, err := r.newBrowser(r.config.Engine)
	if err != nil {
		return pipeline.Report{}, invalid(err)
	}

	sink, err := r.debugSink()
	if err != nil {
		return pipeline.Report{}, err
	}

	orch := orchestrator.New(
		browser,
		stabilize.NewPrepare(r.logger),
		navigate.New(r.logger),
		stabilize.New(r.logger),
		capture.New(r.fs, r.logger),
		sink,
		r.logger,
	)

	report, err := orch.Run(ctx, oc)
	if err != nil {
		return report, err
	}

	if r.config.Summary != "" {
		if err := r.writeSummary(report); err != nil {
			r.logger.Warn("Failed to write summary: %s", err.Error())
		} else {
			r.logger.Info("Summary written to %s", r.config.Summary)
		}
	}
	if r.config.History != "" {
		if err := r.record(ctx, report); err != nil {
			r.logger.Warn("Failed to record history: %s", err.Error())
		} else {
			r.logger.Info("Run recorded in history: %s", report.RunID)
		}
	}
	return report, nil
}

// Plan validates the configuration and resolves the targets a run with
// opts would capture, without launching a browser.
func (r *Runner) Plan(opts RunOptions) ([]pipeline.ResolvedTarget, error) {
	if err := r.config.Validate(); err != nil {
		return nil, invalid(err)
	}
	oc, err := r.config.ToOrchestratorConfig()
	if err != nil {
		return nil, invalid(err)
	}
	resolved, err := targets.Resolve(oc.BaseURL, oc.OutputRoot, oc.Targets, targets.Defaults{
		Viewport: oc.Viewport,
		FullPage: oc.FullPage,
	})
	if err != nil {
		return nil, err
	}
	if len(opts.Only) > 0 {
		return targets.Filter(resolved, opts.Only)
	}
	return resolved, nil
}

// Summarize builds a summary of report with this runner's settings.
func (r *Runner) Summarize(report pipeline.Report) *summarizer.Summary {
	return NewSummary(r.config, report)
}

// NewSummary builds a summary of report with the settings of cfg.
func NewSummary(cfg config.Config, report pipeline.Report) *summarizer.Summary {
	return summarizer.NewBuilder().
		WithReport(report).
		WithSettings(summarizer.Settings{
			Engine:     cfg.Engine,
			OutputRoot: cfg.OutputRoot,
			Viewport:   cfg.Viewport,
			Headless:   cfg.Browser.Headless,
		}).
		Build()
}

func (r *Runner) debugSink() (ports.DebugSink, error) {
	if !r.config.Debug {
		return nullsink.New(), nil
	}
	if err := r.fs.MkdirAll(r.config.DebugDir); err != nil {
		return nil, fmt.Errorf("create debug directory: %w", err)
	}
	r.logger.Info("Debug output enabled: %s", r.config.DebugDir)
	return filesink.New(r.config.DebugDir, r.fs), nil
}

func (r *Runner) writeSummary(report pipeline.Report) error {
	w := summarizer.NewWriter(summarizer.NewMarkdownFormatter(), r.fs)
	return w.Write(r.config.Summary, r.Summarize(report))
}

func (r *Runner) record(ctx context.Context, report pipeline.Report) error {
	store, err := r.openHistory(r.config.History)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
	defer cancel()
	return store.SaveRun(ctx, ToRunRecord(report))
}

func invalid(err error) error {
	return &pipeline.Error{Kind: pipeline.KindInvalidTarget, Op: "configuration", Err: err}
}
