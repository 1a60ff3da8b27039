// Package playwrightbrowser provides a browser implementation using
// playwright-go driving Chromium.
package playwrightbrowser

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/user/docshot/pkg/adapters/chromepath"
	"github.com/user/docshot/pkg/ports"
)

// Browser implements ports.Browser on a Playwright Chromium instance.
// All pages of a run share one BrowserContext.
type Browser struct {
	mu      sync.Mutex
	pw      *playwright.Playwright
	browser playwright.Browser
	context playwright.BrowserContext
}

// New creates a new Browser.
func New() *Browser {
	return &Browser{}
}

// Launch starts the Playwright driver and Chromium (or connects over CDP
// to opts.RemoteURL) and creates the shared browser context.
func (b *Browser) Launch(ctx context.Context, opts ports.BrowserOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.context != nil {
		return fmt.Errorf("browser already launched")
	}

	err := await(ctx, func() error { return b.start(opts) })
	if err != nil {
		b.release()
		return err
	}
	return nil
}

func (b *Browser) start(opts ports.BrowserOptions) error {
	chromePath := ""
	if opts.RemoteURL == "" {
		chromePath = chromepath.Resolve(opts.ChromePath)
	}

	// The driver is always needed; a bundled Chromium only when no local
	// Chrome was found.
	install := &playwright.RunOptions{
		Browsers:            []string{"chromium"},
		SkipInstallBrowsers: chromePath != "" || opts.RemoteURL != "",
	}
	if err := playwright.Install(install); err != nil {
		return fmt.Errorf("install playwright driver: %w", err)
	}
	pw, err := playwright.Run(install)
	if err != nil {
		return fmt.Errorf("start playwright: %w", err)
	}
	b.pw = pw

	if opts.RemoteURL != "" {
		b.browser, err = pw.Chromium.ConnectOverCDP(opts.RemoteURL)
	} else {
		launch := playwright.BrowserTypeLaunchOptions{
			Headless: playwright.Bool(opts.Headless),
			Args: []string{
				"--hide-scrollbars",
				"--font-render-hinting=none",
				"--force-color-profile=srgb",
				"--disable-lcd-text",
				"--disable-dev-shm-usage",
			},
		}
		if chromePath != "" {
			launch.ExecutablePath = playwright.String(chromePath)
		}
		if opts.ProxyServer != "" {
			launch.Proxy = &playwright.Proxy{Server: opts.ProxyServer}
		}
		b.browser, err = pw.Chromium.Launch(launch)
	}
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}

	contextOpts := playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(opts.IgnoreHTTPSErrors),
	}
	if opts.UserAgent != "" {
		contextOpts.UserAgent = playwright.String(opts.UserAgent)
	}
	if len(opts.Headers) > 0 {
		contextOpts.ExtraHttpHeaders = opts.Headers
	}
	b.context, err = b.browser.NewContext(contextOpts)
	if err != nil {
		return fmt.Errorf("create browser context: %w", err)
	}
	return nil
}

// NewPage opens a page in the shared context.
func (b *Browser) NewPage(ctx context.Context) (ports.Page, error) {
	b.mu.Lock()
	bctx := b.context
	b.mu.Unlock()
	if bctx == nil {
		return nil, fmt.Errorf("browser not launched")
	}

	var pg playwright.Page
	err := await(ctx, func() error {
		var err error
		pg, err = bctx.NewPage()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}
	return newPage(bctx, pg), nil
}

// Close closes the context, the browser and the driver.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.release()
}

func (b *Browser) release() error {
	var errs []error
	if b.context != nil {
		errs = append(errs, b.context.Close())
		b.context = nil
	}
	if b.browser != nil {
		errs = append(errs, b.browser.Close())
		b.browser = nil
	}
	if b.pw != nil {
		errs = append(errs, b.pw.Stop())
		b.pw = nil
	}
	return errors.Join(errs...)
}

// Ensure Browser implements ports.Browser
var _ ports.Browser = (*Browser)(nil)
