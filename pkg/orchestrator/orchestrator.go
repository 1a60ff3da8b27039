// Package orchestrator coordinates all pipeline stages.
package orchestrator

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/user/docshot/pkg/pipeline"
	"github.com/user/docshot/pkg/ports"
	"github.com/user/docshot/pkg/targets"
)

// Config contains all configuration for one capture run.
type Config struct {
	// Input
	BaseURL    string
	OutputRoot string
	Targets    []pipeline.CaptureTarget
	Only       []string // Restrict the run to these target names, in list order

	// Page
	Viewport          pipeline.Viewport
	DeviceScaleFactor float64
	FullPage          bool
	JPEGQuality       int

	// Waiting
	WaitUntil  ports.WaitUntil
	IdleWindow time.Duration
	Timeout    time.Duration // Bound for navigation and for each wait

	// Stabilization
	Policy pipeline.StabilizationPolicy

	// Run control
	FailFast bool
	RunID    string // Generated when empty

	// Browser options
	Browser ports.BrowserOptions
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		Viewport:          pipeline.DefaultViewport(),
		DeviceScaleFactor: 1,
		FullPage:          true,
		JPEGQuality:       90,
		WaitUntil:         ports.WaitNetworkIdle,
		IdleWindow:        ports.DefaultIdleWindow,
		Timeout:           30 * time.Second,
		Policy:            pipeline.DefaultStabilizationPolicy(),
		Browser:           ports.BrowserOptions{Headless: true},
	}
}

// failureArtifactTimeout bounds the debug captures taken after a failure.
const failureArtifactTimeout = 10 * time.Second

// resetter is implemented by stages holding run-scoped state.
type resetter interface {
	Reset()
}

// Orchestrator runs every target of a run through the page stages against
// one shared browser. Targets are processed strictly one after another.
type Orchestrator struct {
	browser        ports.Browser
	prepareStage   pipeline.Stage[pipeline.PrepareInput, pipeline.PrepareResult]
	navigateStage  pipeline.Stage[pipeline.NavigateInput, pipeline.NavigateResult]
	stabilizeStage pipeline.Stage[pipeline.StabilizeInput, pipeline.StabilizeResult]
	captureStage   pipeline.Stage[pipeline.CaptureInput, pipeline.CaptureOutput]
	sink           ports.DebugSink
	logger         ports.Logger
	now            func() time.Time
}

// New creates a new Orchestrator.
func New(
	browser ports.Browser,
	prepareStage pipeline.Stage[pipeline.PrepareInput, pipeline.PrepareResult],
	navigateStage pipeline.Stage[pipeline.NavigateInput, pipeline.NavigateResult],
	stabilizeStage pipeline.Stage[pipeline.StabilizeInput, pipeline.StabilizeResult],
	captureStage pipeline.Stage[pipeline.CaptureInput, pipeline.CaptureOutput],
	sink ports.DebugSink,
	logger ports.Logger,
) *Orchestrator {
	return &Orchestrator{
		browser:        browser,
		prepareStage:   prepareStage,
		navigateStage:  navigateStage,
		stabilizeStage: stabilizeStage,
		captureStage:   captureStage,
		sink:           sink,
		logger:         logger.WithComponent("orchestrator"),
		now:            time.Now,
	}
}

// Run validates the target list, then captures every target in order.
//
// Configuration errors are returned as a KindInvalidTarget *pipeline.Error
// before the browser is launched. A browser launch failure is returned as
// an error. Everything else is recorded per target in the report; the
// returned error is nil even when targets failed.
func (o *Orchestrator) Run(ctx context.Context, config Config) (pipeline.Report, error) {
	report := pipeline.Report{
		RunID:     config.RunID,
		BaseURL:   config.BaseURL,
		StartedAt: o.now(),
		FailFast:  config.FailFast,
	}
	if report.RunID == "" {
		report.RunID = newRunID(report.StartedAt)
	}

	resolved, err := targets.Resolve(config.BaseURL, config.OutputRoot, config.Targets, targets.Defaults{
		Viewport: config.Viewport,
		FullPage: config.FullPage,
	})
	if err == nil && len(config.Only) > 0 {
		resolved, err = targets.Filter(resolved, config.Only)
	}
	if err != nil {
		o.logger.Error("Invalid configuration: %s", err.Error())
		report.FinishedAt = o.now()
		return report, err
	}

	if r, ok := o.captureStage.(resetter); ok {
		r.Reset()
	}

	if o.sink.Enabled() {
		if data, err := json.MarshalIndent(plan{RunID: report.RunID, Policy: config.Policy, Targets: resolved}, "", "  "); err == nil {
			o.sink.SavePlanJSON(data)
		}
	}

	if ctx.Err() != nil {
		report.Cancelled = true
		report.Results = skipAll(resolved, pipeline.KindCancelled, "run cancelled before start")
		report.FinishedAt = o.now()
		return report, nil
	}

	o.logger.Info("Starting run %s: %d targets against %s", report.RunID, len(resolved), config.BaseURL)
	if err := o.browser.Launch(ctx, config.Browser); err != nil {
		o.logger.Error("Failed to launch browser: %s", err.Error())
		report.FinishedAt = o.now()
		return report, fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		if err := o.browser.Close(); err != nil {
			o.logger.Warn("Failed to close browser: %s", err.Error())
		}
	}()

	report.Results = make([]pipeline.CaptureResult, 0, len(resolved))
	for i, target := range resolved {
		if ctx.Err() != nil {
			o.logger.Warn("Run cancelled, skipping %d remaining targets", len(resolved)-i)
			report.Cancelled = true
			report.Results = append(report.Results, skipAll(resolved[i:], pipeline.KindCancelled, "run cancelled")...)
			break
		}

		o.logger.Info("[%d/%d] Capturing %s", i+1, len(resolved), target.Name)
		result := o.runTarget(ctx, config, target)
		report.Results = append(report.Results, result)

		switch result.Status {
		case pipeline.StatusSucceeded:
			o.logger.Info("Captured %s -> %s (%d ms)", target.Name, result.WrittenPath, result.Duration.Milliseconds())
		default:
			o.logger.Warn("Target %s failed: %s", target.Name, result.Reason)
		}

		if result.Kind == pipeline.KindCancelled {
			report.Cancelled = true
			report.Results = append(report.Results, skipAll(resolved[i+1:], pipeline.KindCancelled, "run cancelled")...)
			break
		}
		if result.Status == pipeline.StatusFailed && config.FailFast {
			if rest := resolved[i+1:]; len(rest) > 0 {
				o.logger.Warn("Fail-fast: skipping %d remaining targets", len(rest))
				report.Results = append(report.Results, skipAll(rest, "", "skipped after failure of "+target.Name)...)
			}
			break
		}
	}

	report.FinishedAt = o.now()
	c := report.Counts()
	o.logger.Info("Run finished: %d succeeded, %d failed, %d skipped", c.Succeeded, c.Failed, c.Skipped)
	return report, nil
}

// runTarget captures one target on a fresh page and always disposes it.
func (o *Orchestrator) runTarget(ctx context.Context, config Config, target pipeline.ResolvedTarget) pipeline.CaptureResult {
	start := time.Now()

	page, err := o.browser.NewPage(ctx)
	if err != nil {
		perr := pipeline.ClassifyWait(ctx, err, pipeline.KindBrowserFailed, target.Name, "new page")
		return pipeline.Failed(target.Name, perr, time.Since(start))
	}
	defer func() {
		if err := page.Close(); err != nil {
			o.logger.Debug("Failed to close page for %s: %s", target.Name, err.Error())
		}
	}()

	out, err := o.capturePage(ctx, config, page, target)
	if err != nil {
		if pipeline.KindOf(err) != pipeline.KindCancelled {
			o.saveFailureArtifacts(ctx, page, target.Name)
		}
		return pipeline.Failed(target.Name, err, time.Since(start))
	}
	if o.sink.Enabled() {
		if err := o.sink.ClearFailure(target.Name); err != nil {
			o.logger.Debug("Failed to clear debug artifacts for %s: %s", target.Name, err.Error())
		}
	}
	return pipeline.Succeeded(target.Name, out, time.Since(start))
}

func (o *Orchestrator) capturePage(ctx context.Context, config Config, page ports.Page, target pipeline.ResolvedTarget) (pipeline.CaptureOutput, error) {
	policy := config.Policy.Clone()

	if _, err := o.prepareStage.Execute(ctx, pipeline.PrepareInput{
		Page:   page,
		Target: target,
		Policy: policy,
	}); err != nil {
		return pipeline.CaptureOutput{}, err
	}

	if _, err := o.navigateStage.Execute(ctx, pipeline.NavigateInput{
		Page:   page,
		Target: target,
		Wait: ports.WaitCondition{
			Until:      config.WaitUntil,
			IdleWindow: config.IdleWindow,
		},
		DeviceScaleFactor: config.DeviceScaleFactor,
		Timeout:           config.Timeout,
		StepTimeout:       config.Timeout,
	}); err != nil {
		return pipeline.CaptureOutput{}, err
	}

	if _, err := o.stabilizeStage.Execute(ctx, pipeline.StabilizeInput{
		Page:    page,
		Target:  target,
		Policy:  policy,
		Timeout: config.Timeout,
	}); err != nil {
		return pipeline.CaptureOutput{}, err
	}

	return o.captureStage.Execute(ctx, pipeline.CaptureInput{
		Page:    page,
		Target:  target,
		Quality: config.JPEGQuality,
	})
}

// saveFailureArtifacts stores the DOM and a viewport screenshot of a failed
// page. Errors are logged and otherwise ignored.
func (o *Orchestrator) saveFailureArtifacts(ctx context.Context, page ports.Page, name string) {
	if !o.sink.Enabled() {
		return
	}
	actx, cancel := context.WithTimeout(context.WithoutCancel(ctx), failureArtifactTimeout)
	defer cancel()

	var html string
	if err := page.Evaluate(actx, "document.documentElement ? document.documentElement.outerHTML : ''", &html); err != nil {
		o.logger.Debug("Failed to read page HTML for %s: %s", name, err.Error())
	} else if err := o.sink.SavePageHTML(name, []byte(html)); err != nil {
		o.logger.Debug("Failed to save page HTML for %s: %s", name, err.Error())
	}

	data, err := page.Screenshot(actx, ports.ScreenshotOptions{Format: ports.FormatPNG})
	if err != nil {
		o.logger.Debug("Failed to take failure screenshot for %s: %s", name, err.Error())
		return
	}
	if err := o.sink.SaveFailureScreenshot(name, data); err != nil {
		o.logger.Debug("Failed to save failure screenshot for %s: %s", name, err.Error())
	}
}

// plan is the debug snapshot of what a run is about to do.
type plan struct {
	RunID   string                       `json:"run_id"`
	Policy  pipeline.StabilizationPolicy `json:"policy"`
	Targets []pipeline.ResolvedTarget    `json:"targets"`
}

func skipAll(list []pipeline.ResolvedTarget, kind pipeline.ErrorKind, reason string) []pipeline.CaptureResult {
	results := make([]pipeline.CaptureResult, 0, len(list))
	for _, t := range list {
		results = append(results, pipeline.Skipped(t.Name, kind, reason))
	}
	return results
}

// newRunID returns a sortable identifier: UTC timestamp plus random suffix.
func newRunID(at time.Time) string {
	var b [3]byte
	if _, err := rand.Read(b[:]); err != nil {
		return at.UTC().Format("20060102T150405Z")
	}
	return at.UTC().Format("20060102T150405Z") + "-" + hex.EncodeToString(b[:])
}
