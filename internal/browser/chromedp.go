package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// ChromeRenderer drives a fresh headless Chrome per render through the
// DevTools protocol.
type ChromeRenderer struct {
	timeout  time.Duration
	idleWait time.Duration
	opts     []chromedp.ExecAllocatorOption
	logger   *slog.Logger
}

func NewChromeRenderer(timeout time.Duration, logger *slog.Logger) *ChromeRenderer {
	if logger == nil {
		logger = slog.Default()
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("headless", true),
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)
	return &ChromeRenderer{
		timeout:  timeout,
		idleWait: timeout / 2,
		opts:     opts,
		logger:   logger,
	}
}

func (r *ChromeRenderer) Render(ctx context.Context, url string) (*Page, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, r.opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	idle := make(chan struct{}, 1)
	chromedp.ListenTarget(bctx, func(ev any) {
		if e, ok := ev.(*page.EventLifecycleEvent); ok && e.Name == "networkIdle" {
			select {
			case idle <- struct{}{}:
			default:
			}
		}
	})

	var (
		html  string
		text  string
		title string
		links []string
	)

	r.logger.Debug("rendering page", "url", url)
	err := chromedp.Run(bctx,
		page.SetLifecycleEventsEnabled(true),
		chromedp.ActionFunc(func(context.Context) error {
			select {
			case <-idle:
			default:
			}
			return nil
		}),
		chromedp.Navigate(url),
		chromedp.ActionFunc(func(ctx context.Context) error {
			select {
			case <-idle:
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.idleWait):
				r.logger.Warn("network idle not reached", "url", url, "waited", r.idleWait)
			}
			return nil
		}),
		chromedp.Evaluate("("+cleanupScript+")()", nil),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.Text("body", &text, chromedp.ByQuery),
		chromedp.Evaluate("("+linksScript+")()", &links),
		chromedp.Title(&title),
	)
	if err != nil {
		return nil, fmt.Errorf("render %s: %w", url, err)
	}

	return &Page{
		URL:   url,
		Title: title,
		HTML:  html,
		Text:  text,
		Links: links,
	}, nil
}

func (r *ChromeRenderer) Close() error { return nil }
