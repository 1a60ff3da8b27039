package mocks

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/user/docshot/pkg/ports"
)

// Page is a mock implementation of ports.Page.
// Every call is appended to Calls as "<method> <arg>" for order assertions.
type Page struct {
	AddInitScriptFunc   func(ctx context.Context, source string) error
	SetViewportFunc     func(ctx context.Context, width, height int, scale float64) error
	NavigateFunc        func(ctx context.Context, url string, wait ports.WaitCondition) error
	EvaluateFunc        func(ctx context.Context, expression string, out interface{}) error
	WaitForSelectorFunc func(ctx context.Context, selector string) error
	ClickFunc           func(ctx context.Context, selector string) error
	HoverFunc           func(ctx context.Context, selector string) error
	FillFunc            func(ctx context.Context, selector, text string) error
	ScreenshotFunc      func(ctx context.Context, opts ports.ScreenshotOptions) ([]byte, error)
	CloseFunc           func() error

	mu          sync.Mutex
	calls       []string
	initScripts []string
	closed      bool
}

// NewPage creates a new mock Page.
func NewPage() *Page {
	return &Page{}
}

func (m *Page) record(call string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
}

func (m *Page) AddInitScript(ctx context.Context, source string) error {
	m.record("init")
	m.mu.Lock()
	m.initScripts = append(m.initScripts, source)
	m.mu.Unlock()
	if m.AddInitScriptFunc != nil {
		return m.AddInitScriptFunc(ctx, source)
	}
	return nil
}

func (m *Page) SetViewport(ctx context.Context, width, height int, scale float64) error {
	m.record(fmt.Sprintf("viewport %dx%d", width, height))
	if m.SetViewportFunc != nil {
		return m.SetViewportFunc(ctx, width, height, scale)
	}
	return nil
}

func (m *Page) Navigate(ctx context.Context, url string, wait ports.WaitCondition) error {
	m.record("navigate " + url)
	if m.NavigateFunc != nil {
		return m.NavigateFunc(ctx, url, wait)
	}
	return nil
}

// Evaluate records "evaluate". Without EvaluateFunc it decodes the JSON
// string "loaded" into out, which satisfies the font readiness wait.
func (m *Page) Evaluate(ctx context.Context, expression string, out interface{}) error {
	m.record("evaluate")
	if m.EvaluateFunc != nil {
		return m.EvaluateFunc(ctx, expression, out)
	}
	if out != nil {
		return json.Unmarshal([]byte(`"loaded"`), out)
	}
	return nil
}

func (m *Page) WaitForSelector(ctx context.Context, selector string) error {
	m.record("wait " + selector)
	if m.WaitForSelectorFunc != nil {
		return m.WaitForSelectorFunc(ctx, selector)
	}
	return nil
}

func (m *Page) Click(ctx context.Context, selector string) error {
	m.record("click " + selector)
	if m.ClickFunc != nil {
		return m.ClickFunc(ctx, selector)
	}
	return nil
}

func (m *Page) Hover(ctx context.Context, selector string) error {
	m.record("hover " + selector)
	if m.HoverFunc != nil {
		return m.HoverFunc(ctx, selector)
	}
	return nil
}

func (m *Page) Fill(ctx context.Context, selector, text string) error {
	m.record("fill " + selector)
	if m.FillFunc != nil {
		return m.FillFunc(ctx, selector, text)
	}
	return nil
}

// Screenshot returns a fake PNG signature unless ScreenshotFunc is set.
func (m *Page) Screenshot(ctx context.Context, opts ports.ScreenshotOptions) ([]byte, error) {
	m.record(fmt.Sprintf("screenshot full=%t", opts.FullPage))
	if m.ScreenshotFunc != nil {
		return m.ScreenshotFunc(ctx, opts)
	}
	return []byte{0x89, 'P', 'N', 'G'}, nil
}

func (m *Page) Close() error {
	m.record("close")
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	if m.CloseFunc != nil {
		return m.CloseFunc()
	}
	return nil
}

// Calls returns the recorded calls in order.
func (m *Page) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// InitScripts returns the registered init scripts.
func (m *Page) InitScripts() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.initScripts...)
}

// IsClosed reports whether Close was called.
func (m *Page) IsClosed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Ensure Page implements ports.Page
var _ ports.Page = (*Page)(nil)
