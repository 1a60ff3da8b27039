package docshot

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/user/docshot/pkg/adapters/logger"
	"github.com/user/docshot/pkg/mocks"
	"github.com/user/docshot/pkg/pipeline"
	"github.com/user/docshot/pkg/ports"
)

type harness struct {
	browser *mocks.Browser
	fs      *mocks.FileSystem
	history *mocks.HistoryStore
	engine  string
	opened  string
}

func newHarness() *harness {
	return &harness{
		browser: &mocks.Browser{},
		fs:      mocks.NewFileSystem(),
		history: &mocks.HistoryStore{},
	}
}

func (h *harness) runner(b *ConfigBuilder) *Runner {
	return NewRunner(b.Build(), logger.NewNoop()).
		WithFileSystem(h.fs).
		WithBrowserFactory(func(engine string) (ports.Browser, error) {
			h.engine = engine
			return h.browser, nil
		}).
		WithHistoryOpener(func(path string) (ports.HistoryStore, error) {
			h.opened = path
			return h.history, nil
		})
}

func sampleBuilder() *ConfigBuilder {
	return NewConfigBuilder("http://localhost:6006").
		WithOutputRoot("docs").
		AddTarget("home", "/", "home.png").
		AddTarget("settings", "/settings", "settings/profile.png", Click("#tab"), WaitFor(".loaded", 0))
}

func TestRunner_Run(t *testing.T) {
	h := newHarness()
	b := sampleBuilder().
		WithEngine("rod").
		WithSummary(filepath.Join("out", "summary.md")).
		WithHistory(filepath.Join("out", "history.db"))

	report, err := h.runner(b).Run(context.Background(), RunOptions{RunID: "run-1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.RunID != "run-1" || len(report.Results) != 2 || report.Failed() {
		t.Fatalf("unexpected report %+v", report)
	}
	if h.engine != "rod" {
		t.Errorf("engine = %q, want rod", h.engine)
	}
	if h.browser.Launched() != 1 || h.browser.Closed() != 1 {
		t.Errorf("expected one launch and close, got %d/%d", h.browser.Launched(), h.browser.Closed())
	}
	if _, ok := h.fs.GetFile(filepath.Join("docs", "settings", "profile.png")); !ok {
		t.Errorf("expected nested screenshot to be written")
	}

	summary, ok := h.fs.GetFile(filepath.Join("out", "summary.md"))
	if !ok || !strings.Contains(string(summary), "| Run ID | run-1 |") {
		t.Errorf("expected markdown summary, got %q", summary)
	}

	if h.opened != filepath.Join("out", "history.db") {
		t.Errorf("history opened at %q", h.opened)
	}
	if len(h.history.Runs) != 1 || h.history.Runs[0].Succeeded != 2 {
		t.Errorf("expected run to be recorded, got %+v", h.history.Runs)
	}
}

func TestRunner_Only(t *testing.T) {
	h := newHarness()
	report, err := h.runner(sampleBuilder()).Run(context.Background(), RunOptions{Only: []string{"settings"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Results) != 1 || report.Results[0].Target != "settings" {
		t.Errorf("expected only settings, got %+v", report.Results)
	}
}

func TestRunner_InvalidConfiguration(t *testing.T) {
	tests := []struct {
		name    string
		builder *ConfigBuilder
	}{
		{"bad engine", sampleBuilder().WithEngine("webkit")},
		{"bad viewport", sampleBuilder().WithViewport(0, 600)},
		{"relative base", NewConfigBuilder("localhost:6006").AddTarget("a", "/", "a.png")},
		{"duplicate output", sampleBuilder().AddTarget("again", "/again", "home.png")},
		{"no targets", NewConfigBuilder("http://localhost:6006")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness()
			_, err := h.runner(tt.builder).Run(context.Background(), RunOptions{})
			if !pipeline.IsKind(err, pipeline.KindInvalidTarget) {
				t.Fatalf("expected InvalidTarget, got %v", err)
			}
			if h.browser.Launched() != 0 {
				t.Errorf("browser must not be launched")
			}
			if len(h.fs.Writes()) != 0 {
				t.Errorf("no files should be written, got %v", h.fs.Writes())
			}
		})
	}
}

func TestRunner_LaunchFailure(t *testing.T) {
	h := newHarness()
	h.browser.LaunchFunc = func(ctx context.Context, opts ports.BrowserOptions) error {
		return errors.New("no chrome")
	}
	_, err := h.runner(sampleBuilder().WithHistory("h.db")).Run(context.Background(), RunOptions{})
	if err == nil || pipeline.IsKind(err, pipeline.KindInvalidTarget) {
		t.Fatalf("expected launch error, got %v", err)
	}
	if h.opened != "" {
		t.Errorf("history should not be recorded for a run that never started")
	}
}

func TestRunner_HistoryFailureIsNotFatal(t *testing.T) {
	h := newHarness()
	h.history.SaveRunFunc = func(ctx context.Context, run ports.RunRecord) error {
		return errors.New("database is locked")
	}
	report, err := h.runner(sampleBuilder().WithHistory("h.db")).Run(context.Background(), RunOptions{})
	if err != nil || report.Failed() {
		t.Errorf("history errors should only be logged: err=%v", err)
	}
}

func TestRunner_Debug(t *testing.T) {
	h := newHarness()
	h.browser.NewPageFunc = func(ctx context.Context) (ports.Page, error) {
		p := mocks.NewPage()
		p.ClickFunc = func(ctx context.Context, sel string) error {
			return ports.ErrElementNotFound
		}
		return p, nil
	}

	report, err := h.runner(sampleBuilder().WithDebug("dbg")).Run(context.Background(), RunOptions{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Results[1].Kind != pipeline.KindActionFailed {
		t.Fatalf("expected settings to fail with ActionFailed, got %+v", report.Results[1])
	}
	for _, name := range []string{"plan.json", "settings.html", "settings-failure.png"} {
		if _, ok := h.fs.GetFile(filepath.Join("dbg", name)); !ok {
			t.Errorf("expected debug artifact %s", name)
		}
	}
}

func TestNewBrowser(t *testing.T) {
	for _, engine := range []string{"", "chromedp", "Playwright", "rod"} {
		if b, err := NewBrowser(engine); err != nil || b == nil {
			t.Errorf("NewBrowser(%q) = %v, %v", engine, b, err)
		}
	}
	if _, err := NewBrowser("webkit"); err == nil {
		t.Error("expected error for unknown engine")
	}
}

func TestRunner_Plan(t *testing.T) {
	h := newHarness()
	plan, err := h.runner(sampleBuilder()).Plan(RunOptions{Only: []string{"settings"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(plan) != 1 || plan[0].URL != "http://localhost:6006/settings" {
		t.Errorf("unexpected plan %+v", plan)
	}
	if plan[0].OutputFile != filepath.Join("docs", "settings", "profile.png") {
		t.Errorf("OutputFile = %q", plan[0].OutputFile)
	}

	_, err = h.runner(sampleBuilder()).Plan(RunOptions{Only: []string{"missing"}})
	if !pipeline.IsKind(err, pipeline.KindInvalidTarget) {
		t.Errorf("expected InvalidTarget for unknown name, got %v", err)
	}
	if h.browser.Launched() != 0 {
		t.Errorf("Plan must not launch the browser")
	}
}
