// Package crawler drives a single Chromium page through go-rod. The Browser it
// returns is the one browsing cursor of a run: it navigates, looks elements up,
// clicks them and captures UI states.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"go.uber.org/zap"

	"github.com/v0xg/uiscout/internal/strategy"
	"github.com/v0xg/uiscout/internal/uistate"
)

// DesktopUserAgent is presented instead of the headless default.
const DesktopUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const hideWebdriver = `Object.defineProperty(navigator, 'webdriver', { get: () => undefined });`

// Options configures the browser.
type Options struct {
	Width      int
	Height     int
	Headless   bool
	NavTimeout time.Duration
	ProfileDir string // Chrome/Chromium profile directory for authenticated sessions
	HumanPace  bool

	// ActionTimeout bounds each element read, scroll and click. Rod retries
	// clicks on covered or disabled elements until its context ends.
	ActionTimeout time.Duration
}

// Browser wraps the Rod browser and its single page.
type Browser struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	page     *rod.Page
	opts     Options
	pacer    *Pacer
	now      func() time.Time
	logger   *zap.Logger
}

var (
	_ strategy.Session = (*Browser)(nil)
	_ strategy.Element = (*element)(nil)
)

// Launch starts Chromium and opens a blank page sized to the viewport.
func Launch(ctx context.Context, opts Options, logger *zap.Logger) (*Browser, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("crawler")
	if opts.NavTimeout == 0 {
		opts.NavTimeout = 45 * time.Second
	}
	if opts.ActionTimeout == 0 {
		opts.ActionTimeout = 10 * time.Second
	}

	l := launcher.New().
		Context(ctx).
		Headless(opts.Headless).
		Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	if path, ok := launcher.LookPath(); ok {
		l = l.Bin(path)
	}
	if opts.ProfileDir != "" {
		l = l.UserDataDir(opts.ProfileDir)
	}

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}
	logger.Debug("Browser launched", zap.String("control_url", u), zap.Bool("headless", opts.Headless))

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}

	b := &Browser{
		launcher: l,
		browser:  browser,
		opts:     opts,
		pacer:    NewPacer(opts.HumanPace),
		now:      time.Now,
		logger:   logger,
	}
	if err := b.openPage(); err != nil {
		b.Close()
		return nil, err
	}
	return b, nil
}

func (b *Browser) openPage() error {
	page, err := b.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return fmt.Errorf("opening page: %w", err)
	}
	b.page = page

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             b.opts.Width,
		Height:            b.opts.Height,
		DeviceScaleFactor: 1,
	}); err != nil {
		return fmt.Errorf("setting viewport: %w", err)
	}
	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: DesktopUserAgent}); err != nil {
		return fmt.Errorf("setting user agent: %w", err)
	}
	if _, err := page.EvalOnNewDocument(hideWebdriver); err != nil {
		return fmt.Errorf("installing webdriver mask: %w", err)
	}
	return nil
}

// Close cleans up browser resources. A temporary profile is removed; a
// user-supplied profile directory is left in place.
func (b *Browser) Close() error {
	var errs []error
	if b.page != nil {
		if err := b.page.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if b.browser != nil {
		if err := b.browser.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if b.launcher != nil {
		if b.opts.ProfileDir == "" {
			b.launcher.Cleanup()
		} else {
			b.launcher.Kill()
		}
	}
	return errors.Join(errs...)
}

// Navigate loads url and waits for the page to become interactive.
func (b *Browser) Navigate(ctx context.Context, url string) error {
	page := b.page.Context(ctx)

	if err := page.Timeout(b.opts.NavTimeout).Navigate(url); err != nil {
		return fmt.Errorf("navigating to %s: %w", url, err)
	}
	if err := page.Timeout(b.opts.NavTimeout).WaitLoad(); err != nil {
		return fmt.Errorf("waiting for %s to load: %w", url, err)
	}

	// Persistent connections (WebSockets, polling) never go idle.
	page.Timeout(5*time.Second).WaitRequestIdle(500*time.Millisecond, nil, nil, nil)()

	spa := detectSPA(page)
	if spa {
		waitForInteractiveElements(ctx, page, 5*time.Second)
	}
	b.logger.Debug("Page loaded", zap.String("url", url), zap.Bool("spa", spa))

	return sleep(ctx, b.pacer.AfterEntry())
}

// CurrentURL returns the URL of the page.
func (b *Browser) CurrentURL(ctx context.Context) (string, error) {
	info, err := b.page.Context(ctx).Info()
	if err != nil {
		return "", fmt.Errorf("reading page info: %w", err)
	}
	return info.URL, nil
}

// Wait pauses for d or until ctx is done.
func (b *Browser) Wait(ctx context.Context, d time.Duration) error {
	return sleep(ctx, d)
}

// Query returns the elements matching selector.
func (b *Browser) Query(ctx context.Context, selector string) ([]strategy.Element, error) {
	els, err := b.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("querying %q: %w", selector, err)
	}
	return b.wrap(els), nil
}

const textLookupJS = `(selector, text, ignoreCase) => {
	const norm = s => ignoreCase ? s.toLowerCase() : s;
	const needle = norm(text);
	return Array.from(document.querySelectorAll(selector)).filter(el =>
		el.offsetWidth > 0 && el.offsetHeight > 0 && norm(el.textContent || '').includes(needle));
}`

// QueryText returns visible elements matching selector whose text contains text.
func (b *Browser) QueryText(ctx context.Context, selector, text string, ignoreCase bool) ([]strategy.Element, error) {
	els, err := b.page.Context(ctx).ElementsByJS(rod.Eval(textLookupJS, selector, text, ignoreCase))
	if err != nil {
		return nil, fmt.Errorf("looking up %q in %q: %w", text, selector, err)
	}
	return b.wrap(els), nil
}

// Exists reports whether any element matches selector.
func (b *Browser) Exists(ctx context.Context, selector string) (bool, error) {
	els, err := b.page.Context(ctx).Elements(selector)
	if err != nil {
		return false, fmt.Errorf("querying %q: %w", selector, err)
	}
	return len(els) > 0, nil
}

// ExistsText reports whether a visible element matching selector contains text.
func (b *Browser) ExistsText(ctx context.Context, selector, text string) (bool, error) {
	els, err := b.QueryText(ctx, selector, text, false)
	if err != nil {
		return false, err
	}
	return len(els) > 0, nil
}

func (b *Browser) wrap(els rod.Elements) []strategy.Element {
	out := make([]strategy.Element, len(els))
	for i, el := range els {
		out[i] = &element{el: el, browser: b}
	}
	return out
}

// element adapts a Rod element to strategy.Element.
type element struct {
	el      *rod.Element
	browser *Browser
}

// bounded returns the element and page bound to ctx and the action timeout.
func (e *element) bounded(ctx context.Context) (*rod.Element, *rod.Page, context.CancelFunc) {
	actx, cancel := context.WithTimeout(ctx, e.browser.opts.ActionTimeout)
	return e.el.Context(actx), e.browser.page.Context(actx), cancel
}

func (e *element) Text(ctx context.Context) (string, error) {
	el, _, cancel := e.bounded(ctx)
	defer cancel()
	return el.Text()
}

// Box returns the element rectangle in document coordinates, so it lines up
// with full-page screenshots.
func (e *element) Box(ctx context.Context) (uistate.BoundingBox, error) {
	el, page, cancel := e.bounded(ctx)
	defer cancel()

	shape, err := el.Shape()
	if err != nil {
		return uistate.BoundingBox{}, err
	}
	if len(shape.Quads) == 0 {
		return uistate.BoundingBox{}, errors.New("element has no shape")
	}

	quad := shape.Quads[0]
	minX, maxX := quad[0], quad[0]
	minY, maxY := quad[1], quad[1]
	for i := 2; i+1 < len(quad); i += 2 {
		minX, maxX = min(minX, quad[i]), max(maxX, quad[i])
		minY, maxY = min(minY, quad[i+1]), max(maxY, quad[i+1])
	}

	scroll, err := page.Eval(`() => [window.scrollX, window.scrollY]`)
	if err != nil {
		return uistate.BoundingBox{}, err
	}
	offset := scroll.Value.Arr()
	var sx, sy float64
	if len(offset) == 2 {
		sx, sy = offset[0].Num(), offset[1].Num()
	}

	return uistate.BoundingBox{
		X:      int(minX + sx),
		Y:      int(minY + sy),
		Width:  int(maxX - minX),
		Height: int(maxY - minY),
	}, nil
}

func (e *element) ScrollIntoView(ctx context.Context) error {
	el, _, cancel := e.bounded(ctx)
	defer cancel()
	return el.ScrollIntoView()
}

func (e *element) Click(ctx context.Context) error {
	pacer := e.browser.pacer
	if err := sleep(ctx, pacer.BeforeClick()); err != nil {
		return err
	}
	el, _, cancel := e.bounded(ctx)
	err := el.Click(proto.InputMouseButtonLeft, 1)
	cancel()
	if err != nil {
		return err
	}
	return sleep(ctx, pacer.AfterClick())
}

// waitForInteractiveElements polls until interactive elements appear or timeout.
func waitForInteractiveElements(ctx context.Context, page *rod.Page, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	checkInterval := 200 * time.Millisecond

	for time.Now().Before(deadline) {
		res, err := page.Eval(`() => {
			const nodes = document.querySelectorAll('button, [role="button"], input:not([type="hidden"]), textarea, a[href]');
			let visible = 0;
			nodes.forEach(el => { if (el.offsetParent) visible++; });
			return visible;
		}`)
		if err == nil && res.Value.Int() > 0 {
			// Let the last render land.
			_ = sleep(ctx, 300*time.Millisecond)
			return
		}
		if sleep(ctx, checkInterval) != nil {
			return
		}
	}
}

// detectSPA checks for common client-side framework markers.
func detectSPA(page *rod.Page) bool {
	res, err := page.Eval(`() => {
		if (window.__REACT_DEVTOOLS_GLOBAL_HOOK__ || document.querySelector('[data-reactroot]') || document.querySelector('#__next')) return true;
		if (window.__VUE__ || document.querySelector('[data-v-]')) return true;
		if (window.ng || document.querySelector('[ng-version]') || document.querySelector('app-root')) return true;
		if (document.querySelector('[class*="svelte-"]')) return true;
		return false;
	}`)
	if err != nil {
		return false
	}
	return res.Value.Bool()
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
