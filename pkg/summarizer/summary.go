// Package summarizer renders run reports for consoles and CI step summaries.
package summarizer

import (
	"time"

	"github.com/user/docshot/pkg/pipeline"
)

// Summary contains everything a formatter needs about one run.
type Summary struct {
	// Metadata
	GeneratedAt time.Time

	Run      RunInfo
	Settings Settings
	Counts   pipeline.Counts
	Results  []pipeline.CaptureResult
}

// RunInfo describes the run itself.
type RunInfo struct {
	ID        string
	BaseURL   string
	StartedAt time.Time
	Duration  time.Duration
	Cancelled bool
	FailFast  bool
}

// Settings contains the capture configuration worth reporting.
type Settings struct {
	Engine     string
	OutputRoot string
	Viewport   pipeline.Viewport
	Headless   bool
}

// NewSummary creates a new Summary with the current timestamp.
func NewSummary() *Summary {
	return &Summary{
		GeneratedAt: time.Now(),
	}
}

// Failed reports whether any target did not succeed.
func (s *Summary) Failed() bool {
	return s.Counts.Failed > 0 || s.Counts.Skipped > 0
}

// Builder provides a fluent interface for building a Summary.
type Builder struct {
	summary *Summary
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: NewSummary(),
	}
}

// WithReport copies run metadata, counts and results from report.
func (b *Builder) WithReport(report pipeline.Report) *Builder {
	b.summary.Run = RunInfo{
		ID:        report.RunID,
		BaseURL:   report.BaseURL,
		StartedAt: report.StartedAt,
		Duration:  report.Duration(),
		Cancelled: report.Cancelled,
		FailFast:  report.FailFast,
	}
	b.summary.Counts = report.Counts()
	b.summary.Results = append([]pipeline.CaptureResult(nil), report.Results...)
	return b
}

// WithSettings sets the capture settings.
func (b *Builder) WithSettings(settings Settings) *Builder {
	b.summary.Settings = settings
	return b
}

// Build returns the constructed Summary.
func (b *Builder) Build() *Summary {
	return b.summary
}
