// Package mocks provides mock implementations for testing.
package mocks

import (
	"context"
	"sync"

	"github.com/user/docshot/pkg/ports"
)

// Browser is a mock implementation of ports.Browser.
type Browser struct {
	LaunchFunc  func(ctx context.Context, opts ports.BrowserOptions) error
	NewPageFunc func(ctx context.Context) (ports.Page, error)
	CloseFunc   func() error

	mu       sync.Mutex
	launched int
	closed   int
	pages    []*Page
}

func (m *Browser) Launch(ctx context.Context, opts ports.BrowserOptions) error {
	m.mu.Lock()
	m.launched++
	m.mu.Unlock()
	if m.LaunchFunc != nil {
		return m.LaunchFunc(ctx, opts)
	}
	return nil
}

// NewPage returns NewPageFunc's page, or a fresh default *Page.
func (m *Browser) NewPage(ctx context.Context) (ports.Page, error) {
	if m.NewPageFunc != nil {
		return m.NewPageFunc(ctx)
	}
	p := NewPage()
	m.mu.Lock()
	m.pages = append(m.pages, p)
	m.mu.Unlock()
	return p, nil
}

func (m *Browser) Close() error {
	m.mu.Lock()
	m.closed++
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Launched returns how many times Launch was called.
func (m *Browser) Launched() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.launched
}

// Closed returns how many times Close was called.
func (m *Browser) Closed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Pages returns the default pages created so far.
func (m *Browser) Pages() []*Page {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Page(nil), m.pages...)
}

// Ensure Browser implements ports.Browser
var _ ports.Browser = (*Browser)(nil)
