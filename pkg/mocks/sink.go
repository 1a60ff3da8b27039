package mocks

import (
	"sync"

	"github.com/user/docshot/pkg/ports"
)

// DebugSink is a mock implementation of ports.DebugSink.
type DebugSink struct {
	mu sync.RWMutex

	enabled bool

	PlanJSON           []byte
	PageHTML           map[string][]byte
	FailureScreenshots map[string][]byte
	Cleared            []string
}

// NewDebugSink creates a new mock DebugSink.
func NewDebugSink(enabled bool) *DebugSink {
	return &DebugSink{
		enabled:            enabled,
		PageHTML:           make(map[string][]byte),
		FailureScreenshots: make(map[string][]byte),
	}
}

func (m *DebugSink) Enabled() bool {
	return m.enabled
}

func (m *DebugSink) SavePlanJSON(data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PlanJSON = data
	return nil
}

func (m *DebugSink) SavePageHTML(target string, html []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PageHTML[target] = html
	return nil
}

func (m *DebugSink) SaveFailureScreenshot(target string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FailureScreenshots[target] = data
	return nil
}

func (m *DebugSink) ClearFailure(target string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.PageHTML, target)
	delete(m.FailureScreenshots, target)
	m.Cleared = append(m.Cleared, target)
	return nil
}

var _ ports.DebugSink = (*DebugSink)(nil)

// NullSink is a no-op implementation of ports.DebugSink.
type NullSink struct{}

func (m *NullSink) Enabled() bool                                 { return false }
func (m *NullSink) SavePlanJSON(data []byte) error                { return nil }
func (m *NullSink) SavePageHTML(target string, html []byte) error { return nil }
func (m *NullSink) SaveFailureScreenshot(string, []byte) error    { return nil }
func (m *NullSink) ClearFailure(target string) error              { return nil }

var _ ports.DebugSink = (*NullSink)(nil)
