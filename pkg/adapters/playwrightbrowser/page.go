package playwrightbrowser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/user/docshot/pkg/adapters/netidle"
	"github.com/user/docshot/pkg/ports"
)

// noDeadline disables the driver timeout for calls whose ctx has none.
const noDeadline = 0

// Page implements ports.Page on a Playwright page.
type Page struct {
	context playwright.BrowserContext
	page    playwright.Page
	tracker *netidle.Tracker
}

func newPage(bctx playwright.BrowserContext, pg playwright.Page) *Page {
	p := &Page{context: bctx, page: pg, tracker: netidle.New()}
	pg.OnRequest(func(r playwright.Request) { p.tracker.Start(requestID(r)) })
	pg.OnRequestFinished(func(r playwright.Request) { p.tracker.Done(requestID(r)) })
	pg.OnRequestFailed(func(r playwright.Request) { p.tracker.Done(requestID(r)) })
	return p
}

func requestID(r playwright.Request) string {
	return fmt.Sprintf("%p", r)
}

// await runs fn, returning early with ctx.Err() when ctx ends first.
// Playwright calls are not context aware; fn keeps running until the
// driver gives up or the page is closed.
func await(ctx context.Context, fn func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return translate(err)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// timeout converts the ctx deadline into a driver timeout in ms.
func timeout(ctx context.Context) *float64 {
	d, ok := ctx.Deadline()
	if !ok {
		return playwright.Float(noDeadline)
	}
	ms := float64(time.Until(d).Milliseconds())
	if ms < 1 {
		ms = 1
	}
	return playwright.Float(ms)
}

func translate(err error) error {
	if err != nil && errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %v", ports.ErrTimeout, err)
	}
	return err
}

// AddInitScript registers source for every new document of the page.
func (p *Page) AddInitScript(ctx context.Context, source string) error {
	return await(ctx, func() error {
		return p.page.AddInitScript(playwright.Script{Content: playwright.String(source)})
	})
}

// SetViewport resizes the page. Playwright fixes the scale factor per
// context, so other factors go through a CDP metrics override.
func (p *Page) SetViewport(ctx context.Context, width, height int, deviceScaleFactor float64) error {
	return await(ctx, func() error {
		if deviceScaleFactor == 1 {
			return p.page.SetViewportSize(width, height)
		}
		session, err := p.context.NewCDPSession(p.page)
		if err != nil {
			return err
		}
		_, err = session.Send("Emulation.setDeviceMetricsOverride", map[string]interface{}{
			"width":             width,
			"height":            height,
			"deviceScaleFactor": deviceScaleFactor,
			"mobile":            false,
		})
		return err
	})
}

// Navigate loads url and waits for load, then for network quiescence when
// requested.
func (p *Page) Navigate(ctx context.Context, url string, wait ports.WaitCondition) error {
	p.tracker.Reset()
	err := await(ctx, func() error {
		resp, err := p.page.Goto(url, playwright.PageGotoOptions{
			WaitUntil: playwright.WaitUntilStateLoad,
			Timeout:   timeout(ctx),
		})
		if err != nil {
			return fmt.Errorf("navigate %s: %w", url, err)
		}
		if resp != nil && resp.Status() >= 400 {
			return fmt.Errorf("navigate %s: HTTP %d %s", url, resp.Status(), resp.StatusText())
		}
		return nil
	})
	if err != nil {
		return err
	}

	if wait.Until == ports.WaitNetworkIdle {
		window := wait.IdleWindow
		if window <= 0 {
			window = ports.DefaultIdleWindow
		}
		if err := p.tracker.Wait(ctx, window); err != nil {
			return fmt.Errorf("network idle (%d in flight): %w", p.tracker.InFlight(), err)
		}
	}
	return nil
}

// Evaluate evaluates expression and decodes its value into out.
func (p *Page) Evaluate(ctx context.Context, expression string, out interface{}) error {
	var result interface{}
	err := await(ctx, func() error {
		var err error
		result, err = p.page.Evaluate(expression)
		return err
	})
	if err != nil || out == nil {
		return err
	}
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return json.Unmarshal(raw, out)
}

// WaitForSelector waits for selector to be attached to the DOM.
func (p *Page) WaitForSelector(ctx context.Context, selector string) error {
	return await(ctx, func() error {
		return p.page.Locator(selector).First().WaitFor(playwright.LocatorWaitForOptions{
			State:   playwright.WaitForSelectorStateAttached,
			Timeout: timeout(ctx),
		})
	})
}

// first returns the first match of selector, or ErrElementNotFound.
func (p *Page) first(selector string) (playwright.Locator, error) {
	loc := p.page.Locator(selector)
	n, err := loc.Count()
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, fmt.Errorf("%s: %w", selector, ports.ErrElementNotFound)
	}
	return loc.First(), nil
}

// Click clicks the first element matching selector.
func (p *Page) Click(ctx context.Context, selector string) error {
	return await(ctx, func() error {
		loc, err := p.first(selector)
		if err != nil {
			return err
		}
		return loc.Click(playwright.LocatorClickOptions{Timeout: timeout(ctx)})
	})
}

// Hover hovers the first element matching selector.
func (p *Page) Hover(ctx context.Context, selector string) error {
	return await(ctx, func() error {
		loc, err := p.first(selector)
		if err != nil {
			return err
		}
		return loc.Hover(playwright.LocatorHoverOptions{Timeout: timeout(ctx)})
	})
}

// Fill replaces the value of the first input matching selector.
func (p *Page) Fill(ctx context.Context, selector, text string) error {
	return await(ctx, func() error {
		loc, err := p.first(selector)
		if err != nil {
			return err
		}
		return loc.Fill(text, playwright.LocatorFillOptions{Timeout: timeout(ctx)})
	})
}

// Screenshot captures the viewport or the full page.
func (p *Page) Screenshot(ctx context.Context, opts ports.ScreenshotOptions) ([]byte, error) {
	shot := playwright.PageScreenshotOptions{
		FullPage: playwright.Bool(opts.FullPage),
		Type:     playwright.ScreenshotTypePng,
		Timeout:  timeout(ctx),
	}
	if opts.Format == ports.FormatJPEG {
		shot.Type = playwright.ScreenshotTypeJpeg
		shot.Quality = playwright.Int(opts.Quality)
	}
	var buf []byte
	err := await(ctx, func() error {
		var err error
		buf, err = p.page.Screenshot(shot)
		return err
	})
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Close closes the page.
func (p *Page) Close() error {
	return p.page.Close()
}

// Ensure Page implements ports.Page
var _ ports.Page = (*Page)(nil)
