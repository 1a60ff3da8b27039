// Package chromebrowser provides a browser implementation using chromedp.
package chromebrowser

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/user/docshot/pkg/adapters/chromepath"
	"github.com/user/docshot/pkg/ports"
)

// Browser implements ports.Browser using chromedp.
//
// Contexts are layered: the allocator owns the process (or the remote
// connection), rootCtx owns the browser session and sharedCtx owns the one
// browser context in which every page of a run is opened.
type Browser struct {
	mu           sync.Mutex
	allocCancel  context.CancelFunc
	rootCtx      context.Context
	rootCancel   context.CancelFunc
	sharedCtx    context.Context
	sharedCancel context.CancelFunc
	opts         ports.BrowserOptions
}

// New creates a new Browser.
func New() *Browser {
	return &Browser{}
}

// allocatorOptions builds the exec allocator flags for a local launch.
func allocatorOptions(opts ports.BrowserOptions, chromePath string) []chromedp.ExecAllocatorOption {
	chromedpOpts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		chromedp.ExecPath(chromePath),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-background-networking", true),
		chromedp.Flag("disable-background-timer-throttling", true),
		chromedp.Flag("disable-renderer-backgrounding", true),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("disable-sync", true),
		chromedp.Flag("disable-translate", true),
		chromedp.Flag("metrics-recording-only", true),
		chromedp.Flag("mute-audio", true),
		chromedp.Flag("safebrowsing-disable-auto-update", true),

		// Rendering determinism
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("font-render-hinting", "none"),
		chromedp.Flag("force-color-profile", "srgb"),
		chromedp.Flag("disable-lcd-text", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-software-rasterizer", true),

		// CI/container environments
		chromedp.Flag("disable-setuid-sandbox", true),
		chromedp.Flag("disable-namespace-sandbox", true),
		chromedp.Flag("no-zygote", true),
	}

	if opts.Headless {
		chromedpOpts = append(chromedpOpts, chromedp.Flag("headless", "new"))
	}
	if opts.UserAgent != "" {
		chromedpOpts = append(chromedpOpts, chromedp.UserAgent(opts.UserAgent))
	}
	if opts.IgnoreHTTPSErrors {
		chromedpOpts = append(chromedpOpts,
			chromedp.Flag("ignore-certificate-errors", true),
			chromedp.Flag("allow-insecure-localhost", true))
	}
	if opts.ProxyServer != "" {
		chromedpOpts = append(chromedpOpts, chromedp.Flag("proxy-server", opts.ProxyServer))
	}
	return chromedpOpts
}

// Launch starts Chrome (or attaches to opts.RemoteURL) and opens the shared
// browser context.
func (b *Browser) Launch(ctx context.Context, opts ports.BrowserOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sharedCtx != nil {
		return fmt.Errorf("browser already launched")
	}

	// The allocator must outlive ctx: it is released by Close.
	var allocCtx context.Context
	if opts.RemoteURL != "" {
		allocCtx, b.allocCancel = chromedp.NewRemoteAllocator(context.Background(), opts.RemoteURL)
	} else {
		chromePath := chromepath.Resolve(opts.ChromePath)
		if chromePath == "" {
			return fmt.Errorf("chrome not found: please install Chrome/Chromium, set CHROME_PATH environment variable, or use --chrome-path option")
		}
		allocCtx, b.allocCancel = chromedp.NewExecAllocator(context.Background(), allocatorOptions(opts, chromePath)...)
	}

	b.rootCtx, b.rootCancel = chromedp.NewContext(allocCtx)
	if err := runUntil(ctx, b.rootCtx, b.rootCancel); err != nil {
		b.release()
		return fmt.Errorf("start browser: %w", err)
	}

	b.sharedCtx, b.sharedCancel = chromedp.NewContext(b.rootCtx, chromedp.WithNewBrowserContext())
	if err := runUntil(ctx, b.sharedCtx, b.sharedCancel); err != nil {
		b.release()
		return fmt.Errorf("create browser context: %w", err)
	}

	b.opts = opts
	return nil
}

// runUntil performs the first Run on a fresh chromedp context. That first
// Run creates the target and must not use a derived context, so ctx is
// honored by cancelling the chromedp context itself.
func runUntil(ctx, cdpCtx context.Context, cancel context.CancelFunc) error {
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(cdpCtx); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// NewPage opens a new tab in the shared browser context.
func (b *Browser) NewPage(ctx context.Context) (ports.Page, error) {
	b.mu.Lock()
	shared := b.sharedCtx
	opts := b.opts
	b.mu.Unlock()
	if shared == nil {
		return nil, fmt.Errorf("browser not launched")
	}

	tabCtx, tabCancel := chromedp.NewContext(shared)
	p := newPage(tabCtx, tabCancel)
	if err := runUntil(ctx, tabCtx, tabCancel); err != nil {
		tabCancel()
		return nil, fmt.Errorf("open tab: %w", err)
	}
	if err := p.setup(ctx, opts); err != nil {
		tabCancel()
		return nil, err
	}
	return p, nil
}

// Close disposes the shared browser context and shuts the browser down.
// Attached remote browsers are disconnected, not killed.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.release()
	return nil
}

// release must be called with mu held.
func (b *Browser) release() {
	if b.sharedCancel != nil {
		b.sharedCancel()
	}
	if b.rootCancel != nil {
		b.rootCancel()
		// Give Chrome a moment to shut down gracefully before the
		// allocator kills the process.
		time.Sleep(100 * time.Millisecond)
	}
	if b.allocCancel != nil {
		b.allocCancel()
	}
	b.sharedCtx, b.sharedCancel = nil, nil
	b.rootCtx, b.rootCancel = nil, nil
	b.allocCancel = nil
}

// Ensure Browser implements ports.Browser
var _ ports.Browser = (*Browser)(nil)
