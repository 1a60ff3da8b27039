// Package rodbrowser provides a browser implementation using go-rod.
package rodbrowser

import (
	"context"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/user/docshot/pkg/adapters/chromepath"
	"github.com/user/docshot/pkg/ports"
)

// Browser implements ports.Browser with rod. Pages are opened in one
// incognito browser context created at launch.
type Browser struct {
	mu        sync.Mutex
	lnch      *launcher.Launcher
	browser   *rod.Browser
	incognito *rod.Browser
	opts      ports.BrowserOptions
}

// New creates a new Browser.
func New() *Browser {
	return &Browser{}
}

// Launch starts a local Chrome through the rod launcher, or connects to
// opts.RemoteURL.
func (b *Browser) Launch(ctx context.Context, opts ports.BrowserOptions) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.incognito != nil {
		return fmt.Errorf("browser already launched")
	}

	wsURL := opts.RemoteURL
	if wsURL == "" {
		l := launcher.New().
			Context(ctx).
			Headless(opts.Headless).
			Set("hide-scrollbars").
			Set("font-render-hinting", "none").
			Set("force-color-profile", "srgb").
			Set("disable-lcd-text").
			Set("disable-dev-shm-usage")
		if chromePath := chromepath.Resolve(opts.ChromePath); chromePath != "" {
			l = l.Bin(chromePath)
		}
		if opts.ProxyServer != "" {
			l = l.Proxy(opts.ProxyServer)
		}
		u, err := l.Launch()
		if err != nil {
			l.Cleanup()
			return fmt.Errorf("start browser: %w", err)
		}
		wsURL = u
		b.lnch = l
	}

	browser := rod.New().ControlURL(wsURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		b.release()
		return fmt.Errorf("connect browser: %w", err)
	}
	// Drop the launch ctx so the connection outlives it.
	b.browser = browser.Context(context.Background())

	if opts.IgnoreHTTPSErrors {
		if err := b.browser.IgnoreCertErrors(true); err != nil {
			b.release()
			return fmt.Errorf("ignore certificate errors: %w", err)
		}
	}

	incognito, err := b.browser.Context(ctx).Incognito()
	if err != nil {
		b.release()
		return fmt.Errorf("create browser context: %w", err)
	}
	b.incognito = incognito.Context(context.Background())
	b.opts = opts
	return nil
}

// NewPage opens a blank page in the incognito context.
func (b *Browser) NewPage(ctx context.Context) (ports.Page, error) {
	b.mu.Lock()
	incognito := b.incognito
	opts := b.opts
	b.mu.Unlock()
	if incognito == nil {
		return nil, fmt.Errorf("browser not launched")
	}

	pg, err := incognito.Context(ctx).Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("open page: %w", err)
	}
	p := newPage(pg)
	if err := p.setup(ctx, opts); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// Close closes the incognito context and the browser, and removes the
// launcher's user data dir.
func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.release()
}

func (b *Browser) release() error {
	var err error
	if b.incognito != nil {
		b.incognito.Close()
		b.incognito = nil
	}
	if b.browser != nil {
		// A remote browser is left running; only our connection goes.
		if b.lnch != nil {
			err = b.browser.Close()
		}
		b.browser = nil
	}
	if b.lnch != nil {
		b.lnch.Cleanup()
		b.lnch = nil
	}
	return err
}

// Ensure Browser implements ports.Browser
var _ ports.Browser = (*Browser)(nil)
