package pipeline

import (
	"time"

	"github.com/user/docshot/pkg/ports"
)

// =============================================================================
// Target List Types
// =============================================================================

// Viewport represents a viewport size in CSS pixels.
type Viewport struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// DefaultViewport returns the viewport used when neither the target nor the
// run configures one.
func DefaultViewport() Viewport {
	return Viewport{Width: 1280, Height: 800}
}

// ActionKind tags an interaction step.
type ActionKind string

const (
	ActionClick   ActionKind = "click"
	ActionWaitFor ActionKind = "wait_for"
	ActionHover   ActionKind = "hover"
	ActionFill    ActionKind = "fill"
)

// ActionKinds lists every kind the navigate stage can execute.
var ActionKinds = []ActionKind{ActionClick, ActionWaitFor, ActionHover, ActionFill}

// Valid reports whether k is one of ActionKinds.
func (k ActionKind) Valid() bool {
	for _, known := range ActionKinds {
		if k == known {
			return true
		}
	}
	return false
}

// Action is one interaction step executed before capture.
type Action struct {
	Kind     ActionKind    `json:"kind"`
	Selector string        `json:"selector"`
	Text     string        `json:"text,omitempty"`    // fill only
	Timeout  time.Duration `json:"timeout,omitempty"` // wait_for only, 0 = run default
}

// String returns a short description used in logs and error ops.
func (a Action) String() string {
	return string(a.Kind) + " " + a.Selector
}

// CaptureTarget identifies one screenshot to produce.
type CaptureTarget struct {
	Name       string    `json:"name"`
	Path       string    `json:"path"`
	OutputPath string    `json:"output"`
	Viewport   *Viewport `json:"viewport,omitempty"`
	FullPage   *bool     `json:"full_page,omitempty"`
	Actions    []Action  `json:"actions,omitempty"`
}

// ResolvedTarget is a validated CaptureTarget with its absolute address and
// output file computed.
type ResolvedTarget struct {
	CaptureTarget
	URL        string            `json:"url"`         // Absolute address
	OutputFile string            `json:"output_file"` // outputRoot joined with OutputPath
	Viewport   Viewport          `json:"viewport"`
	FullPage   bool              `json:"full_page"`
	Format     ports.ImageFormat `json:"format"`
}

// =============================================================================
// Stabilization Types
// =============================================================================

// FontReadiness selects whether the stabilizer waits for web fonts.
type FontReadiness string

const (
	FontsLoad   FontReadiness = "load"
	FontsIgnore FontReadiness = "ignore"
)

// StabilizationPolicy is the global, read-only stabilization configuration.
type StabilizationPolicy struct {
	DisableAnimations  bool          `json:"disable_animations"`
	FreezeTimeTo       *time.Time    `json:"freeze_time_to,omitempty"`
	FontReadiness      FontReadiness `json:"font_readiness"`
	ReadinessSelectors []string      `json:"readiness_selectors,omitempty"`
}

// DefaultStabilizationPolicy returns the policy used when none is configured.
func DefaultStabilizationPolicy() StabilizationPolicy {
	return StabilizationPolicy{
		DisableAnimations: true,
		FontReadiness:     FontsLoad,
	}
}

// Clone returns a deep copy so callers can hand out the policy without
// sharing mutable state.
func (p StabilizationPolicy) Clone() StabilizationPolicy {
	c := p
	if p.FreezeTimeTo != nil {
		t := *p.FreezeTimeTo
		c.FreezeTimeTo = &t
	}
	if p.ReadinessSelectors != nil {
		c.ReadinessSelectors = append([]string(nil), p.ReadinessSelectors...)
	}
	return c
}

// =============================================================================
// Stage I/O Types
// =============================================================================

// PrepareInput contains what the page-creation hook needs.
type PrepareInput struct {
	Page   ports.Page
	Target ResolvedTarget
	Policy StabilizationPolicy
}

// PrepareResult reports which init scripts were registered.
type PrepareResult struct {
	TimeFrozen bool
}

// NavigateInput contains parameters for reaching a target's state.
type NavigateInput struct {
	Page              ports.Page
	Target            ResolvedTarget
	Wait              ports.WaitCondition
	DeviceScaleFactor float64
	Timeout           time.Duration // Navigation bound
	StepTimeout       time.Duration // Default bound for each action
}

// NavigateResult reports how navigation went.
type NavigateResult struct {
	URL             string
	ActionsExecuted int
	Duration        time.Duration
}

// StabilizeInput contains parameters for neutralizing nondeterminism.
type StabilizeInput struct {
	Page    ports.Page
	Target  ResolvedTarget
	Policy  StabilizationPolicy
	Timeout time.Duration // Bound for each wait
}

// StabilizeResult reports which stabilization steps ran.
type StabilizeResult struct {
	StyleApplied   bool
	FontsAwaited   bool
	SelectorsReady int
}

// CaptureInput contains parameters for persisting the screenshot.
type CaptureInput struct {
	Page    ports.Page
	Target  ResolvedTarget
	Quality int // JPEG quality
}

// CaptureOutput describes the written image.
type CaptureOutput struct {
	WrittenPath string
	Digest      string // SHA-256 hex
	Changed     bool   // Bytes differ from the file previously at WrittenPath
	Bytes       int
}

// =============================================================================
// Result Types
// =============================================================================

// Status is the outcome of one target.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// CaptureResult is the immutable outcome of one target.
type CaptureResult struct {
	Target      string        `json:"target"`
	Status      Status        `json:"status"`
	Kind        ErrorKind     `json:"kind,omitempty"`
	Reason      string        `json:"reason,omitempty"`
	WrittenPath string        `json:"written_path,omitempty"`
	Digest      string        `json:"digest,omitempty"`
	Changed     bool          `json:"changed,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Succeeded builds a successful result.
func Succeeded(target string, out CaptureOutput, d time.Duration) CaptureResult {
	return CaptureResult{
		Target:      target,
		Status:      StatusSucceeded,
		WrittenPath: out.WrittenPath,
		Digest:      out.Digest,
		Changed:     out.Changed,
		Duration:    d,
	}
}

// Failed builds a failed result from a classified error.
func Failed(target string, err error, d time.Duration) CaptureResult {
	return CaptureResult{
		Target:   target,
		Status:   StatusFailed,
		Kind:     KindOf(err),
		Reason:   err.Error(),
		Duration: d,
	}
}

// Skipped builds a result for a target that was never attempted.
func Skipped(target string, kind ErrorKind, reason string) CaptureResult {
	return CaptureResult{
		Target: target,
		Status: StatusSkipped,
		Kind:   kind,
		Reason: reason,
	}
}

// Report collects every target's result for one run.
type Report struct {
	RunID      string          `json:"run_id"`
	BaseURL    string          `json:"base_url"`
	StartedAt  time.Time       `json:"started_at"`
	FinishedAt time.Time       `json:"finished_at"`
	FailFast   bool            `json:"fail_fast"`
	Cancelled  bool            `json:"cancelled"`
	Results    []CaptureResult `json:"results"`
}

// Counts tallies results by status.
type Counts struct {
	Succeeded int
	Failed    int
	Skipped   int
	Changed   int
}

// Counts tallies the report's results.
func (r Report) Counts() Counts {
	var c Counts
	for _, res := range r.Results {
		switch res.Status {
		case StatusSucceeded:
			c.Succeeded++
			if res.Changed {
				c.Changed++
			}
		case StatusFailed:
			c.Failed++
		case StatusSkipped:
			c.Skipped++
		}
	}
	return c
}

// Failed reports whether any target did not succeed.
func (r Report) Failed() bool {
	for _, res := range r.Results {
		if res.Status != StatusSucceeded {
			return true
		}
	}
	return false
}

// ExitCode returns the process exit status a CLI should use.
func (r Report) ExitCode() int {
	if r.Failed() {
		return 1
	}
	return 0
}

// Duration returns the wall time of the run.
func (r Report) Duration() time.Duration {
	if r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}
