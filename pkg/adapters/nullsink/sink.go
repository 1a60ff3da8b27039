// Package nullsink provides a no-op debug sink implementation.
package nullsink

import "github.com/user/docshot/pkg/ports"

// Sink is a no-op implementation of ports.DebugSink.
// It discards all debug output.
type Sink struct{}

// New creates a new NullSink.
func New() *Sink {
	return &Sink{}
}

// Enabled returns false as this sink discards all output.
func (s *Sink) Enabled() bool {
	return false
}

// SavePlanJSON does nothing.
func (s *Sink) SavePlanJSON(data []byte) error {
	return nil
}

// SavePageHTML does nothing.
func (s *Sink) SavePageHTML(target string, html []byte) error {
	return nil
}

// SaveFailureScreenshot does nothing.
func (s *Sink) SaveFailureScreenshot(target string, data []byte) error {
	return nil
}

// ClearFailure does nothing.
func (s *Sink) ClearFailure(target string) error {
	return nil
}

// Ensure Sink implements ports.DebugSink
var _ ports.DebugSink = (*Sink)(nil)
