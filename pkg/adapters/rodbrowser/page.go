package rodbrowser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"

	"github.com/user/docshot/pkg/adapters/netidle"
	"github.com/user/docshot/pkg/ports"
)

// Page implements ports.Page on a rod page.
type Page struct {
	page    *rod.Page
	cancel  context.CancelFunc
	tracker *netidle.Tracker

	mu     sync.Mutex
	status int // HTTP status of the last main-frame document response
}

func newPage(pg *rod.Page) *Page {
	ctx, cancel := context.WithCancel(context.Background())
	pg = pg.Context(ctx)
	p := &Page{page: pg, cancel: cancel, tracker: netidle.New()}
	go pg.EachEvent(
		func(e *proto.NetworkRequestWillBeSent) { p.tracker.Start(string(e.RequestID)) },
		func(e *proto.NetworkLoadingFinished) { p.tracker.Done(string(e.RequestID)) },
		func(e *proto.NetworkLoadingFailed) { p.tracker.Done(string(e.RequestID)) },
		func(e *proto.NetworkResponseReceived) {
			if e.Type == proto.NetworkResourceTypeDocument && e.FrameID == pg.FrameID {
				p.mu.Lock()
				p.status = e.Response.Status
				p.mu.Unlock()
			}
		},
	)()
	return p
}

func (p *Page) setup(ctx context.Context, opts ports.BrowserOptions) error {
	pg := p.page.Context(ctx)
	if err := (proto.NetworkEnable{}).Call(pg); err != nil {
		return fmt.Errorf("configure page: %w", err)
	}
	if len(opts.Headers) > 0 {
		dict := make([]string, 0, len(opts.Headers)*2)
		for k, v := range opts.Headers {
			dict = append(dict, k, v)
		}
		if _, err := pg.SetExtraHeaders(dict); err != nil {
			return fmt.Errorf("set headers: %w", err)
		}
	}
	if opts.UserAgent != "" {
		if err := pg.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: opts.UserAgent}); err != nil {
			return fmt.Errorf("set user agent: %w", err)
		}
	}
	return nil
}

// check prefers ctx's own error so deadlines and cancellation classify.
func check(ctx context.Context, err error) error {
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

// AddInitScript registers source for every new document.
func (p *Page) AddInitScript(ctx context.Context, source string) error {
	_, err := p.page.Context(ctx).EvalOnNewDocument(source)
	return check(ctx, err)
}

// SetViewport overrides the device metrics of the page.
func (p *Page) SetViewport(ctx context.Context, width, height int, deviceScaleFactor float64) error {
	err := p.page.Context(ctx).SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             width,
		Height:            height,
		DeviceScaleFactor: deviceScaleFactor,
	})
	return check(ctx, err)
}

// Navigate loads url, waits for the load event and then for network
// quiescence when requested.
func (p *Page) Navigate(ctx context.Context, url string, wait ports.WaitCondition) error {
	p.tracker.Reset()
	p.mu.Lock()
	p.status = 0
	p.mu.Unlock()

	pg := p.page.Context(ctx)
	if err := pg.Navigate(url); err != nil {
		return check(ctx, fmt.Errorf("navigate %s: %w", url, err))
	}
	if err := pg.WaitLoad(); err != nil {
		return check(ctx, fmt.Errorf("navigate %s: %w", url, err))
	}

	p.mu.Lock()
	status := p.status
	p.mu.Unlock()
	if status >= 400 {
		return fmt.Errorf("navigate %s: HTTP %d", url, status)
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

// Evaluate evaluates expression in the page and decodes its value.
func (p *Page) Evaluate(ctx context.Context, expression string, out interface{}) error {
	res, err := proto.RuntimeEvaluate{
		Expression:    expression,
		AwaitPromise:  true,
		ReturnByValue: true,
	}.Call(p.page.Context(ctx))
	if err != nil {
		return check(ctx, err)
	}
	if res.ExceptionDetails != nil {
		return fmt.Errorf("evaluate: %s", res.ExceptionDetails.Text)
	}
	if out == nil {
		return nil
	}
	raw, err := res.Result.Value.MarshalJSON()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}

// WaitForSelector polls until selector matches an element.
func (p *Page) WaitForSelector(ctx context.Context, selector string) error {
	_, err := p.page.Context(ctx).Element(selector)
	return check(ctx, err)
}

// element returns the first match of selector without waiting.
func (p *Page) element(ctx context.Context, selector string) (*rod.Element, error) {
	has, el, err := p.page.Context(ctx).Has(selector)
	if err != nil {
		return nil, check(ctx, err)
	}
	if !has {
		return nil, fmt.Errorf("%s: %w", selector, ports.ErrElementNotFound)
	}
	return el, nil
}

// Click clicks the first element matching selector.
func (p *Page) Click(ctx context.Context, selector string) error {
	el, err := p.element(ctx, selector)
	if err != nil {
		return err
	}
	return check(ctx, el.Click(proto.InputMouseButtonLeft, 1))
}

// Hover moves the mouse over the first element matching selector.
func (p *Page) Hover(ctx context.Context, selector string) error {
	el, err := p.element(ctx, selector)
	if err != nil {
		return err
	}
	return check(ctx, el.Hover())
}

// Fill selects the existing text of the first input matching selector and
// types text over it.
func (p *Page) Fill(ctx context.Context, selector, text string) error {
	el, err := p.element(ctx, selector)
	if err != nil {
		return err
	}
	if err := el.SelectAllText(); err != nil {
		return check(ctx, err)
	}
	return check(ctx, el.Input(text))
}

// Screenshot captures the viewport or the full page.
func (p *Page) Screenshot(ctx context.Context, opts ports.ScreenshotOptions) ([]byte, error) {
	req := &proto.PageCaptureScreenshot{Format: proto.PageCaptureScreenshotFormatPng}
	if opts.Format == ports.FormatJPEG {
		quality := opts.Quality
		req.Format = proto.PageCaptureScreenshotFormatJpeg
		req.Quality = &quality
	}
	buf, err := p.page.Context(ctx).Screenshot(opts.FullPage, req)
	if err != nil {
		return nil, check(ctx, err)
	}
	return buf, nil
}

// Close closes the page.
func (p *Page) Close() error {
	defer p.cancel()
	err := p.page.Close()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Ensure Page implements ports.Page
var _ ports.Page = (*Page)(nil)
