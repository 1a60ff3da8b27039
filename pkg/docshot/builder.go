package docshot

import (
	"time"

	"github.com/user/docshot/pkg/config"
	"github.com/user/docshot/pkg/pipeline"
	"github.com/user/docshot/pkg/ports"
)

// ConfigBuilder provides a fluent interface for building a config.Config
// in code instead of YAML.
type ConfigBuilder struct {
	config config.Config
}

// NewConfigBuilder creates a ConfigBuilder over config.Defaults.
func NewConfigBuilder(baseURL string) *ConfigBuilder {
	cfg := config.Defaults()
	cfg.BaseURL = baseURL
	return &ConfigBuilder{config: cfg}
}

// Build returns the final Config. Targets are copied so the builder can
// keep being used.
func (b *ConfigBuilder) Build() config.Config {
	cfg := b.config
	cfg.Targets = append([]config.TargetConfig(nil), b.config.Targets...)
	cfg.Stabilization.ReadinessSelectors = append([]string(nil), b.config.Stabilization.ReadinessSelectors...)
	return cfg
}

// WithOutputRoot sets the directory screenshots are written under.
func (b *ConfigBuilder) WithOutputRoot(dir string) *ConfigBuilder {
	b.config.OutputRoot = dir
	return b
}

// WithViewport sets the default viewport.
func (b *ConfigBuilder) WithViewport(width, height int) *ConfigBuilder {
	b.config.Viewport = pipeline.Viewport{Width: width, Height: height}
	return b
}

// WithDeviceScaleFactor sets the device pixel ratio.
func (b *ConfigBuilder) WithDeviceScaleFactor(factor float64) *ConfigBuilder {
	b.config.DeviceScaleFactor = factor
	return b
}

// WithFullPage sets the default capture extent.
func (b *ConfigBuilder) WithFullPage(fullPage bool) *ConfigBuilder {
	b.config.FullPage = fullPage
	return b
}

// WithJPEGQuality sets the quality used for .jpg outputs.
func (b *ConfigBuilder) WithJPEGQuality(quality int) *ConfigBuilder {
	b.config.JPEGQuality = quality
	return b
}

// WithWaitUntil sets the navigation completion criterion and the network
// quiescence window.
func (b *ConfigBuilder) WithWaitUntil(until ports.WaitUntil, idle time.Duration) *ConfigBuilder {
	b.config.WaitUntil = string(until)
	b.config.NetworkIdleMs = int(idle / time.Millisecond)
	return b
}

// WithTimeout sets the bound for navigation and for each wait.
func (b *ConfigBuilder) WithTimeout(d time.Duration) *ConfigBuilder {
	b.config.TimeoutMs = int(d / time.Millisecond)
	return b
}

// WithFailFast stops the run after the first failed target.
func (b *ConfigBuilder) WithFailFast(failFast bool) *ConfigBuilder {
	b.config.FailFast = failFast
	return b
}

// WithEngine selects the browser engine.
func (b *ConfigBuilder) WithEngine(engine string) *ConfigBuilder {
	b.config.Engine = engine
	return b
}

// WithHeadless sets whether the browser runs headless.
func (b *ConfigBuilder) WithHeadless(headless bool) *ConfigBuilder {
	b.config.Browser.Headless = headless
	return b
}

// WithChromePath sets the browser executable.
func (b *ConfigBuilder) WithChromePath(path string) *ConfigBuilder {
	b.config.Browser.ChromePath = path
	return b
}

// WithRemoteURL attaches to a running browser instead of launching one.
func (b *ConfigBuilder) WithRemoteURL(url string) *ConfigBuilder {
	b.config.Browser.RemoteURL = url
	return b
}

// WithIgnoreHTTPSErrors enables ignoring HTTPS certificate errors.
func (b *ConfigBuilder) WithIgnoreHTTPSErrors(ignore bool) *ConfigBuilder {
	b.config.Browser.IgnoreHTTPSErrors = ignore
	return b
}

// WithHeader adds an extra HTTP header sent with every request.
func (b *ConfigBuilder) WithHeader(name, value string) *ConfigBuilder {
	headers := make(map[string]string, len(b.config.Browser.Headers)+1)
	for k, v := range b.config.Browser.Headers {
		headers[k] = v
	}
	headers[name] = value
	b.config.Browser.Headers = headers
	return b
}

// WithAnimationsDisabled toggles animation suppression.
func (b *ConfigBuilder) WithAnimationsDisabled(disabled bool) *ConfigBuilder {
	b.config.Stabilization.DisableAnimations = disabled
	return b
}

// WithFrozenTime pins the page clock to t. The zero time leaves the clock
// running.
func (b *ConfigBuilder) WithFrozenTime(t time.Time) *ConfigBuilder {
	if t.IsZero() {
		b.config.Stabilization.FreezeTimeTo = ""
	} else {
		b.config.Stabilization.FreezeTimeTo = t.Format(time.RFC3339Nano)
	}
	return b
}

// WithFontReadiness selects whether web fonts are awaited.
func (b *ConfigBuilder) WithFontReadiness(mode pipeline.FontReadiness) *ConfigBuilder {
	b.config.Stabilization.FontReadiness = string(mode)
	return b
}

// WithReadinessSelectors sets the selectors that must match before capture.
func (b *ConfigBuilder) WithReadinessSelectors(selectors ...string) *ConfigBuilder {
	b.config.Stabilization.ReadinessSelectors = append([]string(nil), selectors...)
	return b
}

// WithSummary writes a markdown summary to path after each run.
func (b *ConfigBuilder) WithSummary(path string) *ConfigBuilder {
	b.config.Summary = path
	return b
}

// WithHistory records each run in the sqlite database at path.
func (b *ConfigBuilder) WithHistory(path string) *ConfigBuilder {
	b.config.History = path
	return b
}

// WithDebug saves failure artifacts under dir.
func (b *ConfigBuilder) WithDebug(dir string) *ConfigBuilder {
	b.config.Debug = dir != ""
	if dir != "" {
		b.config.DebugDir = dir
	}
	return b
}

// AddTarget appends a target. Use the Click, WaitFor, Hover and Fill
// helpers to build actions.
func (b *ConfigBuilder) AddTarget(name, path, output string, actions ...config.ActionConfig) *ConfigBuilder {
	t := config.TargetConfig{Name: name, Path: path, Output: output}
	if len(actions) > 0 {
		t.Actions = append([]config.ActionConfig(nil), actions...)
	}
	b.config.Targets = append(b.config.Targets, t)
	return b
}

// AddTargetConfig appends a fully specified target.
func (b *ConfigBuilder) AddTargetConfig(t config.TargetConfig) *ConfigBuilder {
	b.config.Targets = append(b.config.Targets, t)
	return b
}

// Click returns a click action.
func Click(selector string) config.ActionConfig {
	return config.ActionConfig{Click: selector}
}

// WaitFor returns a wait_for action; timeout 0 uses the run timeout.
func WaitFor(selector string, timeout time.Duration) config.ActionConfig {
	return config.ActionConfig{WaitFor: selector, TimeoutMs: int(timeout / time.Millisecond)}
}

// Hover returns a hover action.
func Hover(selector string) config.ActionConfig {
	return config.ActionConfig{Hover: selector}
}

// Fill returns a fill action.
func Fill(selector, text string) config.ActionConfig {
	return config.ActionConfig{Fill: selector, Text: text}
}
