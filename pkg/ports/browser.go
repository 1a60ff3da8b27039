// Package ports defines interfaces for external dependencies.
package ports

import (
	"context"
	"time"
)

// Browser abstracts a browser engine used for screenshot capture.
// A Browser owns one shared browsing context; pages created by NewPage
// are isolated from each other but live in that context.
type Browser interface {
	// Launch starts (or attaches to) the browser and opens the shared
	// browsing context.
	Launch(ctx context.Context, opts BrowserOptions) error

	// NewPage opens a fresh page in the shared browsing context.
	NewPage(ctx context.Context) (Page, error)

	// Close releases the browsing context and the browser.
	Close() error
}

// Page abstracts a single browser tab.
// Every blocking method honors ctx for both deadline and cancellation.
type Page interface {
	// AddInitScript registers a script evaluated in every new document of
	// this page before any of the document's own scripts run.
	AddInitScript(ctx context.Context, source string) error

	// SetViewport sets the viewport size in CSS pixels.
	SetViewport(ctx context.Context, width, height int, deviceScaleFactor float64) error

	// Navigate loads url and waits according to wait.
	Navigate(ctx context.Context, url string, wait WaitCondition) error

	// Evaluate evaluates a JavaScript expression, awaiting the result if it
	// is a promise, and decodes the JSON value into out (which may be nil).
	Evaluate(ctx context.Context, expression string, out interface{}) error

	// WaitForSelector blocks until an element matching selector is present.
	WaitForSelector(ctx context.Context, selector string) error

	// Click clicks the first element matching selector.
	// Returns ErrElementNotFound if nothing matches at call time.
	Click(ctx context.Context, selector string) error

	// Hover moves the pointer over the first element matching selector.
	Hover(ctx context.Context, selector string) error

	// Fill replaces the value of the first input matching selector.
	Fill(ctx context.Context, selector, text string) error

	// Screenshot captures the page.
	Screenshot(ctx context.Context, opts ScreenshotOptions) ([]byte, error)

	// Close disposes the page.
	Close() error
}

// BrowserOptions configures browser launch settings.
type BrowserOptions struct {
	Headless          bool
	ChromePath        string
	RemoteURL         string // Attach to a running browser instead of launching one
	UserAgent         string
	Headers           map[string]string
	IgnoreHTTPSErrors bool   // Ignore HTTPS certificate errors
	ProxyServer       string // HTTP proxy server (e.g., "http://proxy:8080")
}

// WaitUntil selects the navigation completion criterion.
type WaitUntil string

const (
	// WaitNetworkIdle waits for the load event and then for a quiescence
	// window without in-flight requests.
	WaitNetworkIdle WaitUntil = "networkidle"
	// WaitLoad waits for the load event only.
	WaitLoad WaitUntil = "load"
)

// DefaultIdleWindow is the quiescence window used when none is configured.
const DefaultIdleWindow = 500 * time.Millisecond

// WaitCondition describes when a navigation is considered complete.
type WaitCondition struct {
	Until      WaitUntil
	IdleWindow time.Duration
}

// ScreenshotOptions configures a page capture.
type ScreenshotOptions struct {
	FullPage bool
	Format   ImageFormat
	Quality  int // JPEG quality 0-100, ignored for PNG
}

// ImageFormat specifies image encoding format.
type ImageFormat int

const (
	FormatPNG ImageFormat = iota
	FormatJPEG
)

// String returns the file extension style name of the format.
func (f ImageFormat) String() string {
	if f == FormatJPEG {
		return "jpeg"
	}
	return "png"
}

// MarshalText encodes the format by name.
func (f ImageFormat) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}
