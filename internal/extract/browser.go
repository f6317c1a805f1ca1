package extract

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"github.com/kstarpick/crawler/internal/config"
	"github.com/kstarpick/crawler/internal/types"
)

// BrowserLoader renders article pages in a headless browser. It is the
// primary detail strategy: the publisher serves bot-block pages to
// plain HTTP clients often enough that rendered DOM is the reliable
// path.
type BrowserLoader struct {
	browser *rod.Browser
	cleanup func()
	cfg     *config.BrowserConfig
	logger  *slog.Logger
}

// NewBrowserLoader launches a Chromium instance and connects to it.
func NewBrowserLoader(cfg *config.BrowserConfig, logger *slog.Logger) (*BrowserLoader, error) {
	l := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-features", "IsolateOrigins,site-per-process").
		Set("disable-blink-features", "AutomationControlled")

	launchURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	return &BrowserLoader{
		browser: browser,
		cleanup: l.Kill,
		cfg:     cfg,
		logger:  logger.With("component", "browser_loader"),
	}, nil
}

// LoadHTML navigates to pageURL and returns the rendered DOM. Each call
// opens a fresh page and closes it on every exit path; navigation is
// retried up to the configured budget.
func (b *BrowserLoader) LoadHTML(ctx context.Context, pageURL string) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= b.cfg.MaxRetries; attempt++ {
		html, err := b.loadOnce(ctx, pageURL)
		if err == nil {
			return html, nil
		}
		lastErr = err
		b.logger.Warn("page load failed",
			"url", pageURL,
			"attempt", attempt,
			"max_attempts", b.cfg.MaxRetries,
			"error", err,
		)
		if attempt < b.cfg.MaxRetries {
			select {
			case <-time.After(b.cfg.RetryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}
	}
	return "", &types.FetchError{URL: pageURL, Err: lastErr, Retryable: false}
}

func (b *BrowserLoader) loadOnce(ctx context.Context, pageURL string) (string, error) {
	page, err := stealth.Page(b.browser)
	if err != nil {
		return "", fmt.Errorf("stealth page: %w", err)
	}
	defer b.closePage(page)

	page = page.Context(ctx)

	if err := page.Timeout(b.cfg.NavigationTimeout).Navigate(pageURL); err != nil {
		return "", fmt.Errorf("navigate: %w", err)
	}
	if err := page.Timeout(b.cfg.NavigationTimeout).WaitStable(300 * time.Millisecond); err != nil {
		b.logger.Warn("page stability timeout, continuing", "url", pageURL, "error", err)
	}

	// dynamic blocks keep rendering after load
	select {
	case <-time.After(b.cfg.SettleDelay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	html, err := page.HTML()
	if err != nil {
		return "", fmt.Errorf("read page html: %w", err)
	}
	if len(html) < minPageLength {
		return "", fmt.Errorf("rendered page too short (%d bytes)", len(html))
	}
	return html, nil
}

// closePage closes a page, recovering from rod's panics so a wedged
// page never takes the extraction attempt down with it.
func (b *BrowserLoader) closePage(page *rod.Page) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Warn("page close panicked", "panic", r)
		}
	}()
	if err := page.Close(); err != nil {
		b.logger.Warn("page close failed", "error", err)
	}
}

// Browser exposes the underlying browser for the listing discoverer,
// which drives its own navigation sequence.
func (b *BrowserLoader) Browser() *rod.Browser {
	return b.browser
}

// Close shuts the browser down, killing the process if the graceful
// close fails.
func (b *BrowserLoader) Close() error {
	err := b.browser.Close()
	if b.cleanup != nil {
		b.cleanup()
	}
	return err
}
