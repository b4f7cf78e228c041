package chromedp_driver

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/user/steam-claimer/internal/repository"
)

// Options configures the browser launched by New.
type Options struct {
	Headless    bool
	UserDataDir string
	Width       int
	Height      int
	// NavigationTimeout bounds required navigations and interactions.
	NavigationTimeout time.Duration
	Logger            *zap.Logger
}

const readyStateProbe = 2 * time.Second

// Driver implements repository.PageDriver over a single chromedp tab.
type Driver struct {
	tab         context.Context
	cancelTab   context.CancelFunc
	cancelAlloc context.CancelFunc
	timeout     time.Duration
	logger      *zap.Logger
}

var (
	_ repository.PageDriver   = (*Driver)(nil)
	_ repository.CookieSetter = (*Driver)(nil)
)

// New launches a browser with a persistent profile and opens one tab.
func New(opts Options) (*Driver, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("hide-crash-restore-bubble", true),
		chromedp.Flag("lang", "en-US"),
		chromedp.WindowSize(opts.Width, opts.Height),
	)
	if opts.UserDataDir != "" {
		allocOpts = append(allocOpts, chromedp.UserDataDir(opts.UserDataDir))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(context.Background(), allocOpts...)
	tabCtx, cancelTab := chromedp.NewContext(allocCtx, chromedp.WithLogf(opts.Logger.Sugar().Debugf))

	// The first Run starts the browser; it must use the tab context itself.
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		cancelAlloc()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Driver{
		tab:         tabCtx,
		cancelTab:   cancelTab,
		cancelAlloc: cancelAlloc,
		timeout:     opts.NavigationTimeout,
		logger:      opts.Logger,
	}, nil
}

// Close shuts the tab and the browser down.
func (d *Driver) Close() {
	d.cancelTab()
	d.cancelAlloc()
}

// scoped derives a context from the tab that also ends when ctx ends.
func (d *Driver) scoped(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	runCtx, cancel := context.WithTimeout(d.tab, timeout)
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (d *Driver) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	runCtx, cancel := d.scoped(ctx, timeout)
	defer cancel()
	err := chromedp.Run(runCtx, actions...)
	if err != nil && ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}

func (d *Driver) Navigate(ctx context.Context, url string) (string, error) {
	var location string
	err := d.run(ctx, d.timeout,
		chromedp.Navigate(url),
		chromedp.Location(&location),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", repository.ErrNavigationFailed, url, err)
	}
	d.logger.Debug("navigated", zap.String("url", url), zap.String("location", location))
	return location, nil
}

func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	var location string
	err := d.run(ctx, d.timeout, chromedp.Location(&location))
	return location, err
}

func (d *Driver) Visible(ctx context.Context, selector string, timeout time.Duration) (bool, error) {
	err := d.run(ctx, timeout, chromedp.WaitVisible(selector, chromedp.ByQuery))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		return false, nil
	default:
		return false, err
	}
}

func (d *Driver) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	ok, err := d.Visible(ctx, selector, timeout)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%w: %s", repository.ErrElementNotFound, selector)
	}
	return nil
}

func (d *Driver) Click(ctx context.Context, selector string) error {
	return d.run(ctx, d.timeout, chromedp.Click(selector, chromedp.ByQuery, chromedp.NodeVisible))
}

func (d *Driver) Fill(ctx context.Context, selector, value string) error {
	return d.run(ctx, d.timeout,
		chromedp.SetValue(selector, "", chromedp.ByQuery),
		chromedp.SendKeys(selector, value, chromedp.ByQuery),
	)
}

const selectOptionJS = `(() => {
	const el = document.querySelector(%s);
	if (!el) return false;
	for (const o of el.options) {
		if (o.value === %s || o.text.trim() === %s) {
			el.value = o.value;
			el.dispatchEvent(new Event('change', { bubbles: true }));
			return true;
		}
	}
	return false;
})()`

func (d *Driver) Select(ctx context.Context, selector, value string) error {
	var matched bool
	q := strconv.Quote(value)
	err := d.run(ctx, d.timeout,
		chromedp.WaitReady(selector, chromedp.ByQuery),
		chromedp.Evaluate(fmt.Sprintf(selectOptionJS, strconv.Quote(selector), q, q), &matched),
	)
	if err != nil {
		return err
	}
	if !matched {
		return fmt.Errorf("no option %q in %s", value, selector)
	}
	return nil
}

func (d *Driver) Text(ctx context.Context, selector string) (string, error) {
	var text string
	err := d.run(ctx, d.timeout, chromedp.TextContent(selector, &text, chromedp.ByQuery))
	return text, err
}

func (d *Driver) Title(ctx context.Context) (string, error) {
	var title string
	err := d.run(ctx, d.timeout, chromedp.Title(&title))
	return title, err
}

func (d *Driver) WaitNetworkIdle(ctx context.Context, timeout time.Duration) error {
	runCtx, cancel := d.scoped(ctx, timeout)
	defer cancel()

	idle := make(chan struct{})
	var once sync.Once
	chromedp.ListenTarget(runCtx, func(ev interface{}) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == "networkIdle" {
			once.Do(func() { close(idle) })
		}
	})
	if err := chromedp.Run(runCtx, page.SetLifecycleEventsEnabled(true)); err != nil {
		return err
	}

	select {
	case <-idle:
		return nil
	case <-runCtx.Done():
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// The idle event may have fired before the listener was attached.
		var state string
		if err := d.run(ctx, readyStateProbe, chromedp.Evaluate(`document.readyState`, &state)); err == nil && state == "complete" {
			return nil
		}
		return fmt.Errorf("waiting for network idle: %w", runCtx.Err())
	}
}

func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := d.run(ctx, d.timeout, chromedp.CaptureScreenshot(&buf))
	return buf, err
}

// SetCookie stores a cookie valid for every path of domain.
func (d *Driver) SetCookie(ctx context.Context, name, value, domain string) error {
	return d.run(ctx, d.timeout, chromedp.ActionFunc(func(ctx context.Context) error {
		return network.SetCookie(name, value).WithDomain(domain).WithPath("/").Do(ctx)
	}))
}
