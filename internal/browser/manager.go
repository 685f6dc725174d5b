package browser

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/playwright-community/playwright-go"
)

const (
	LoadStateLoad             = "load"
	LoadStateDomcontentloaded = "domcontentloaded"
	LoadStateNetworkidle      = "networkidle"
)

// Manager owns one headless Chromium. Every Render gets its own browser
// context, so concurrent chain runs never share cookies or pages.
type Manager struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	timeout time.Duration
	logger  *slog.Logger
}

func NewManager(timeout time.Duration, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := playwright.Install(&playwright.RunOptions{Browsers: []string{"chromium"}}); err != nil {
		return nil, fmt.Errorf("install pw failed: %w", err)
	}

	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start pw failed: %w", err)
	}

	b, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(true),
		Args:     []string{"--no-sandbox"},
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("launch chromium failed: %w", err)
	}

	return &Manager{
		pw:      pw,
		browser: b,
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (m *Manager) Render(ctx context.Context, url string) (*Page, error) {
	if m == nil || m.browser == nil {
		return nil, fmt.Errorf("browser is not initialized")
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	bctx, err := m.browser.NewContext()
	if err != nil {
		return nil, fmt.Errorf("new browser context: %w", err)
	}
	defer bctx.Close()

	// Closing the context fails whatever playwright call is pending, which
	// is how a cancelled run gets out of a slow page.
	stop := context.AfterFunc(ctx, func() { _ = bctx.Close() })
	defer stop()

	page, err := bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}

	ms := float64(m.timeout.Milliseconds())
	m.logger.Debug("rendering page", "url", url)

	if _, err := page.Goto(url, playwright.PageGotoOptions{Timeout: playwright.Float(ms)}); err != nil {
		m.logger.Warn("page load warning", "url", url, "error", err)
	}

	state := playwright.LoadState(LoadStateNetworkidle)
	if err := page.WaitForLoadState(playwright.PageWaitForLoadStateOptions{
		State:   &state,
		Timeout: playwright.Float(ms),
	}); err != nil {
		m.logger.Warn("network idle wait failed", "url", url, "error", err)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("render %s: %w", url, err)
	}

	return m.snapshot(page, url)
}

func (m *Manager) Close() error {
	var firstErr error
	if m.browser != nil {
		if err := m.browser.Close(); err != nil {
			firstErr = err
		}
	}
	if m.pw != nil {
		if err := m.pw.Stop(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
