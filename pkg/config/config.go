// Package config provides configuration loading and management.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/user/docshot/pkg/orchestrator"
	"github.com/user/docshot/pkg/pipeline"
	"github.com/user/docshot/pkg/ports"
	"gopkg.in/yaml.v3"
)

// Engine names accepted by the engine setting.
const (
	EngineChromedp   = "chromedp"
	EnginePlaywright = "playwright"
	EngineRod        = "rod"
)

// Engines lists the supported engines.
var Engines = []string{EngineChromedp, EnginePlaywright, EngineRod}

// Environment variables that override file settings.
const (
	EnvBaseURL    = "DOCSHOT_BASE_URL"
	EnvOutputRoot = "DOCSHOT_OUTPUT_ROOT"
	EnvEngine     = "DOCSHOT_ENGINE"
	EnvRemoteURL  = "DOCSHOT_REMOTE_URL"
	EnvHeadless   = "DOCSHOT_HEADLESS"
)

// Config represents the full configuration for docshot.
type Config struct {
	// Input/Output
	BaseURL    string `yaml:"base_url"` // path is a directory; relative target paths resolve beneath it
	OutputRoot string `yaml:"output_root"`

	// Page
	Viewport          pipeline.Viewport `yaml:"viewport"`
	DeviceScaleFactor float64           `yaml:"device_scale_factor"`
	FullPage          bool              `yaml:"full_page"`
	JPEGQuality       int               `yaml:"jpeg_quality"`

	// Waiting
	WaitUntil     string `yaml:"wait_until"`
	NetworkIdleMs int    `yaml:"network_idle_ms"`
	TimeoutMs     int    `yaml:"timeout_ms"`

	// Run control
	FailFast bool   `yaml:"fail_fast"`
	Engine   string `yaml:"engine"`

	Browser       BrowserConfig       `yaml:"browser"`
	Stabilization StabilizationConfig `yaml:"stabilization"`
	Targets       []TargetConfig      `yaml:"targets"`

	// Outputs
	Summary string `yaml:"summary"` // Markdown summary file
	History string `yaml:"history"` // sqlite database path

	// Debug
	Debug    bool   `yaml:"debug"`
	DebugDir string `yaml:"debug_dir"`
}

// BrowserConfig represents browser launch settings.
type BrowserConfig struct {
	Headless          bool              `yaml:"headless"`
	ChromePath        string            `yaml:"chrome_path"`
	RemoteURL         string            `yaml:"remote_url"`
	UserAgent         string            `yaml:"user_agent"`
	ProxyServer       string            `yaml:"proxy_server"`
	IgnoreHTTPSErrors bool              `yaml:"ignore_https_errors"`
	Headers           map[string]string `yaml:"headers"`
}

// StabilizationConfig represents the stabilization policy.
type StabilizationConfig struct {
	DisableAnimations  bool     `yaml:"disable_animations"`
	FreezeTimeTo       string   `yaml:"freeze_time_to"` // RFC 3339, empty = real clock
	FontReadiness      string   `yaml:"font_readiness"`
	ReadinessSelectors []string `yaml:"readiness_selectors"`
}

// TargetConfig represents one capture target.
type TargetConfig struct {
	Name     string             `yaml:"name"`
	Path     string             `yaml:"path"`
	Output   string             `yaml:"output"`
	Viewport *pipeline.Viewport `yaml:"viewport"`
	FullPage *bool              `yaml:"full_page"`
	Actions  []ActionConfig     `yaml:"actions"`
}

// ActionConfig is one interaction step. Exactly one of Click, WaitFor,
// Hover or Fill must be set:
//
//   - click: "#tab-profile"
//   - wait_for: ".profile-loaded"
//     timeout_ms: 5000
//   - fill: "#search"
//     text: "cache"
type ActionConfig struct {
	Click     string `yaml:"click"`
	WaitFor   string `yaml:"wait_for"`
	Hover     string `yaml:"hover"`
	Fill      string `yaml:"fill"`
	Text      string `yaml:"text"`
	TimeoutMs int    `yaml:"timeout_ms"`
}

// Defaults returns a Config with default values.
func Defaults() Config {
	return Config{
		OutputRoot: "screenshots",

		Viewport:          pipeline.DefaultViewport(),
		DeviceScaleFactor: 1,
		FullPage:          true,
		JPEGQuality:       90,

		WaitUntil:     string(ports.WaitNetworkIdle),
		NetworkIdleMs: int(ports.DefaultIdleWindow / time.Millisecond),
		TimeoutMs:     30000,

		Engine: EngineChromedp,

		Browser: BrowserConfig{
			Headless: true,
		},
		Stabilization: StabilizationConfig{
			DisableAnimations: true,
			FontReadiness:     string(pipeline.FontsLoad),
		},

		DebugDir: "./debug",
	}
}

// Load reads an optional .env file, the YAML file at path and then the
// DOCSHOT_* environment overrides.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Defaults(), fmt.Errorf("load .env: %w", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		return cfg, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFromFile loads configuration from a YAML file over Defaults.
// Unknown keys are rejected so typos do not silently fall back to defaults.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Defaults(), err
	}
	return Parse(data)
}

// Parse decodes YAML configuration over Defaults.
func Parse(data []byte) (Config, error) {
	cfg := Defaults()

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// ApplyEnv overrides settings from DOCSHOT_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv(EnvBaseURL); v != "" {
		c.BaseURL = v
	}
	if v := os.Getenv(EnvOutputRoot); v != "" {
		c.OutputRoot = v
	}
	if v := os.Getenv(EnvEngine); v != "" {
		c.Engine = strings.ToLower(v)
	}
	if v := os.Getenv(EnvRemoteURL); v != "" {
		c.Browser.RemoteURL = v
	}
	if v := os.Getenv(EnvHeadless); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvHeadless, err)
		}
		c.Browser.Headless = b
	}
	return nil
}

// Validate checks run-wide settings. Target-level invariants (paths,
// outputs, uniqueness) are checked by the targets package.
func (c Config) Validate() error {
	var errs []error
	if c.Viewport.Width <= 0 || c.Viewport.Height <= 0 {
		errs = append(errs, fmt.Errorf("viewport must be positive, got %dx%d", c.Viewport.Width, c.Viewport.Height))
	}
	if c.DeviceScaleFactor <= 0 {
		errs = append(errs, fmt.Errorf("device_scale_factor must be positive, got %g", c.DeviceScaleFactor))
	}
	if c.JPEGQuality < 1 || c.JPEGQuality > 100 {
		errs = append(errs, fmt.Errorf("jpeg_quality must be between 1 and 100, got %d", c.JPEGQuality))
	}
	switch ports.WaitUntil(c.WaitUntil) {
	case ports.WaitNetworkIdle, ports.WaitLoad:
	default:
		errs = append(errs, fmt.Errorf("wait_until must be %q or %q, got %q", ports.WaitNetworkIdle, ports.WaitLoad, c.WaitUntil))
	}
	if c.NetworkIdleMs < 0 {
		errs = append(errs, fmt.Errorf("network_idle_ms must not be negative"))
	}
	if c.TimeoutMs <= 0 {
		errs = append(errs, fmt.Errorf("timeout_ms must be positive, got %d", c.TimeoutMs))
	}
	if !validEngine(c.Engine) {
		errs = append(errs, fmt.Errorf("engine must be one of %s, got %q", strings.Join(Engines, ", "), c.Engine))
	}
	switch pipeline.FontReadiness(c.Stabilization.FontReadiness) {
	case pipeline.FontsLoad, pipeline.FontsIgnore:
	default:
		errs = append(errs, fmt.Errorf("stabilization.font_readiness must be %q or %q, got %q", pipeline.FontsLoad, pipeline.FontsIgnore, c.Stabilization.FontReadiness))
	}
	if _, err := c.Stabilization.freezeTime(); err != nil {
		errs = append(errs, err)
	}
	for i, t := range c.Targets {
		for j, a := range t.Actions {
			if _, err := a.ToAction(); err != nil {
				errs = append(errs, fmt.Errorf("targets[%d] (%s) actions[%d]: %w", i, t.Name, j, err))
			}
		}
	}
	return errors.Join(errs...)
}

func validEngine(name string) bool {
	for _, e := range Engines {
		if e == name {
			return true
		}
	}
	return false
}

func (s StabilizationConfig) freezeTime() (*time.Time, error) {
	if strings.TrimSpace(s.FreezeTimeTo) == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, strings.TrimSpace(s.FreezeTimeTo))
	if err != nil {
		return nil, fmt.Errorf("stabilization.freeze_time_to: %w", err)
	}
	return &t, nil
}

// ToPolicy converts the stabilization settings.
func (s StabilizationConfig) ToPolicy() (pipeline.StabilizationPolicy, error) {
	at, err := s.freezeTime()
	if err != nil {
		return pipeline.StabilizationPolicy{}, err
	}
	return pipeline.StabilizationPolicy{
		DisableAnimations:  s.DisableAnimations,
		FreezeTimeTo:       at,
		FontReadiness:      pipeline.FontReadiness(s.FontReadiness),
		ReadinessSelectors: append([]string(nil), s.ReadinessSelectors...),
	}, nil
}

// ToAction converts the step to a pipeline.Action.
func (a ActionConfig) ToAction() (pipeline.Action, error) {
	var set []pipeline.Action
	if a.Click != "" {
		set = append(set, pipeline.Action{Kind: pipeline.ActionClick, Selector: a.Click})
	}
	if a.WaitFor != "" {
		set = append(set, pipeline.Action{Kind: pipeline.ActionWaitFor, Selector: a.WaitFor})
	}
	if a.Hover != "" {
		set = append(set, pipeline.Action{Kind: pipeline.ActionHover, Selector: a.Hover})
	}
	if a.Fill != "" {
		set = append(set, pipeline.Action{Kind: pipeline.ActionFill, Selector: a.Fill, Text: a.Text})
	}
	if len(set) != 1 {
		return pipeline.Action{}, fmt.Errorf("exactly one of click, wait_for, hover or fill is required")
	}
	if a.TimeoutMs < 0 {
		return pipeline.Action{}, fmt.Errorf("timeout_ms must not be negative")
	}
	action := set[0]
	if action.Kind == pipeline.ActionWaitFor {
		action.Timeout = time.Duration(a.TimeoutMs) * time.Millisecond
	}
	return action, nil
}

// ToCaptureTargets converts the target list. A present-but-empty actions
// list is kept empty so target validation can reject it.
func (c Config) ToCaptureTargets() ([]pipeline.CaptureTarget, error) {
	list := make([]pipeline.CaptureTarget, 0, len(c.Targets))
	for i, t := range c.Targets {
		ct := pipeline.CaptureTarget{
			Name:       t.Name,
			Path:       t.Path,
			OutputPath: t.Output,
			Viewport:   t.Viewport,
			FullPage:   t.FullPage,
		}
		if t.Actions != nil {
			ct.Actions = make([]pipeline.Action, 0, len(t.Actions))
			for j, a := range t.Actions {
				action, err := a.ToAction()
				if err != nil {
					return nil, fmt.Errorf("targets[%d] (%s) actions[%d]: %w", i, t.Name, j, err)
				}
				ct.Actions = append(ct.Actions, action)
			}
		}
		list = append(list, ct)
	}
	return list, nil
}

// ToBrowserOptions converts the browser settings.
func (c Config) ToBrowserOptions() ports.BrowserOptions {
	return ports.BrowserOptions{
		Headless:          c.Browser.Headless,
		ChromePath:        c.Browser.ChromePath,
		RemoteURL:         c.Browser.RemoteURL,
		UserAgent:         c.Browser.UserAgent,
		Headers:           c.Browser.Headers,
		IgnoreHTTPSErrors: c.Browser.IgnoreHTTPSErrors,
		ProxyServer:       c.Browser.ProxyServer,
	}
}

// ToOrchestratorConfig converts Config to orchestrator.Config.
func (c Config) ToOrchestratorConfig() (orchestrator.Config, error) {
	list, err := c.ToCaptureTargets()
	if err != nil {
		return orchestrator.Config{}, err
	}
	policy, err := c.Stabilization.ToPolicy()
	if err != nil {
		return orchestrator.Config{}, err
	}

	return orchestrator.Config{
		BaseURL:    c.BaseURL,
		OutputRoot: c.OutputRoot,
		Targets:    list,

		Viewport:          c.Viewport,
		DeviceScaleFactor: c.DeviceScaleFactor,
		FullPage:          c.FullPage,
		JPEGQuality:       c.JPEGQuality,

		WaitUntil:  ports.WaitUntil(c.WaitUntil),
		IdleWindow: time.Duration(c.NetworkIdleMs) * time.Millisecond,
		Timeout:    time.Duration(c.TimeoutMs) * time.Millisecond,

		Policy: policy,

		FailFast: c.FailFast,
		Browser:  c.ToBrowserOptions(),
	}, nil
}
