package chromebrowser

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/runtime"
	"github.com/chromedp/cdproto/security"
	"github.com/chromedp/chromedp"

	"github.com/user/docshot/pkg/adapters/netidle"
	"github.com/user/docshot/pkg/ports"
)

// Page implements ports.Page on one chromedp tab.
type Page struct {
	ctx     context.Context
	cancel  context.CancelFunc
	tracker *netidle.Tracker
}

func newPage(ctx context.Context, cancel context.CancelFunc) *Page {
	p := &Page{
		ctx:     ctx,
		cancel:  cancel,
		tracker: netidle.New(),
	}
	chromedp.ListenTarget(ctx, func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			p.tracker.Start(string(e.RequestID))
		case *network.EventLoadingFinished:
			p.tracker.Done(string(e.RequestID))
		case *network.EventLoadingFailed:
			p.tracker.Done(string(e.RequestID))
		}
	})
	return p
}

// setup enables the network domain (for idle tracking) and applies the
// per-target settings of the launch options.
func (p *Page) setup(ctx context.Context, opts ports.BrowserOptions) error {
	actions := []chromedp.Action{network.Enable()}
	if len(opts.Headers) > 0 {
		headers := make(network.Headers, len(opts.Headers))
		for k, v := range opts.Headers {
			headers[k] = v
		}
		actions = append(actions, network.SetExtraHTTPHeaders(headers))
	}
	if opts.UserAgent != "" {
		actions = append(actions, emulation.SetUserAgentOverride(opts.UserAgent))
	}
	if opts.IgnoreHTTPSErrors {
		actions = append(actions, security.SetIgnoreCertificateErrors(true))
	}
	if err := p.run(ctx, actions...); err != nil {
		return fmt.Errorf("configure tab: %w", err)
	}
	return nil
}

// bind derives a chromedp context from the tab that also ends with ctx.
func (p *Page) bind(ctx context.Context) (context.Context, context.CancelFunc) {
	rctx, cancel := context.WithCancel(p.ctx)
	if d, ok := ctx.Deadline(); ok {
		var cancelDeadline context.CancelFunc
		rctx, cancelDeadline = context.WithDeadline(rctx, d)
		inner := cancel
		cancel = func() {
			cancelDeadline()
			inner()
		}
	}
	stop := context.AfterFunc(ctx, cancel)
	return rctx, func() {
		stop()
		cancel()
	}
}

// run executes actions bounded by ctx. When ctx ended, its error is
// returned so callers can tell deadlines and cancellation apart.
func (p *Page) run(ctx context.Context, actions ...chromedp.Action) error {
	rctx, cancel := p.bind(ctx)
	defer cancel()
	if err := chromedp.Run(rctx, actions...); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return err
	}
	return nil
}

// AddInitScript registers source to run before any document script.
func (p *Page) AddInitScript(ctx context.Context, source string) error {
	return p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, err := page.AddScriptToEvaluateOnNewDocument(source).Do(ctx)
		return err
	}))
}

// SetViewport overrides the device metrics of the tab.
func (p *Page) SetViewport(ctx context.Context, width, height int, deviceScaleFactor float64) error {
	return p.run(ctx, emulation.SetDeviceMetricsOverride(int64(width), int64(height), deviceScaleFactor, false))
}

// Navigate loads url, waits for the load event and, for WaitNetworkIdle,
// for the quiescence window. HTTP error statuses of the document fail the
// navigation.
func (p *Page) Navigate(ctx context.Context, url string, wait ports.WaitCondition) error {
	p.tracker.Reset()

	rctx, cancel := p.bind(ctx)
	resp, err := chromedp.RunResponse(rctx, chromedp.Navigate(url))
	cancel()
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if resp != nil && resp.Status >= 400 {
		return fmt.Errorf("navigate %s: HTTP %d %s", url, resp.Status, resp.StatusText)
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

// Evaluate runs expression, awaiting promises, and decodes the result.
func (p *Page) Evaluate(ctx context.Context, expression string, out interface{}) error {
	var raw json.RawMessage
	err := p.run(ctx, chromedp.Evaluate(expression, &raw, func(ep *runtime.EvaluateParams) *runtime.EvaluateParams {
		return ep.WithAwaitPromise(true)
	}))
	if err != nil {
		return err
	}
	if out == nil || len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// WaitForSelector blocks until selector matches a node.
func (p *Page) WaitForSelector(ctx context.Context, selector string) error {
	return p.run(ctx, chromedp.WaitReady(selector, chromedp.ByQuery))
}

// exists reports whether selector matches right now.
func (p *Page) exists(ctx context.Context, selector string) error {
	sel, _ := json.Marshal(selector)
	var found bool
	if err := p.Evaluate(ctx, fmt.Sprintf("document.querySelector(%s) !== null", sel), &found); err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("%s: %w", selector, ports.ErrElementNotFound)
	}
	return nil
}

// Click clicks the first node matching selector.
func (p *Page) Click(ctx context.Context, selector string) error {
	if err := p.exists(ctx, selector); err != nil {
		return err
	}
	return p.run(ctx, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

// Hover scrolls the first node matching selector into view and moves the
// mouse over its center.
func (p *Page) Hover(ctx context.Context, selector string) error {
	sel, _ := json.Marshal(selector)
	var center *struct {
		X float64 `json:"x"`
		Y float64 `json:"y"`
	}
	expr := fmt.Sprintf(`(() => {
  const el = document.querySelector(%s);
  if (!el) return null;
  el.scrollIntoView({block: 'center', inline: 'center'});
  const r = el.getBoundingClientRect();
  return {x: r.left + r.width / 2, y: r.top + r.height / 2};
})()`, sel)
	if err := p.Evaluate(ctx, expr, &center); err != nil {
		return err
	}
	if center == nil {
		return fmt.Errorf("%s: %w", selector, ports.ErrElementNotFound)
	}
	return p.run(ctx, chromedp.MouseEvent(input.MouseMoved, center.X, center.Y))
}

// Fill replaces the value of the first input matching selector by typing.
func (p *Page) Fill(ctx context.Context, selector, text string) error {
	if err := p.exists(ctx, selector); err != nil {
		return err
	}
	return p.run(ctx,
		chromedp.SetValue(selector, "", chromedp.ByQuery),
		chromedp.SendKeys(selector, text, chromedp.ByQuery),
	)
}

// Screenshot captures the viewport or the full scrollable page.
func (p *Page) Screenshot(ctx context.Context, opts ports.ScreenshotOptions) ([]byte, error) {
	var buf []byte
	if opts.FullPage {
		// FullScreenshot encodes PNG at quality 100 and JPEG below it.
		quality := 100
		if opts.Format == ports.FormatJPEG {
			quality = opts.Quality
			if quality <= 0 || quality >= 100 {
				quality = 99
			}
		}
		if err := p.run(ctx, chromedp.FullScreenshot(&buf, quality)); err != nil {
			return nil, err
		}
		return buf, nil
	}

	err := p.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		params := page.CaptureScreenshot().WithFormat(page.CaptureScreenshotFormatPng)
		if opts.Format == ports.FormatJPEG {
			params = page.CaptureScreenshot().WithFormat(page.CaptureScreenshotFormatJpeg).WithQuality(int64(opts.Quality))
		}
		var err error
		buf, err = params.Do(ctx)
		return err
	}))
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Close closes the tab.
func (p *Page) Close() error {
	p.cancel()
	return nil
}

// Ensure Page implements ports.Page
var _ ports.Page = (*Page)(nil)
