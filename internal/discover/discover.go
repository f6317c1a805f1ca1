// Package discover walks the publisher's listing surfaces and produces
// ordered article candidates: the home page first, then the "load more"
// feed, then a few fixed category pages until the run cap is reached.
package discover

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/stealth"

	"github.com/kstarpick/crawler/internal/config"
	"github.com/kstarpick/crawler/internal/types"
)

// Discoverer produces the run's candidate sequence.
type Discoverer interface {
	Discover(ctx context.Context, maxItems int) ([]types.Candidate, error)
}

// feedPageSize is how many items one "load more" click appends.
const feedPageSize = 15

// loadMoreJS clicks the feed's load-more control when one is visible.
const loadMoreJS = `() => {
	const buttons = Array.from(document.querySelectorAll('button, a, div[role="button"]'));
	for (const btn of buttons) {
		const text = (btn.textContent || '').toLowerCase();
		if (text.includes('load more') || (text.includes('load') && text.includes('more'))) {
			if (btn.offsetParent !== null && btn.style.display !== 'none') {
				btn.click();
				return true;
			}
		}
	}
	return false;
}`

// BrowserDiscoverer drives the listing surfaces with one browser page
// reused sequentially. Listing navigation is stateful, so it is never
// parallelized.
type BrowserDiscoverer struct {
	browser *rod.Browser
	src     *config.SourceConfig
	browCfg *config.BrowserConfig
	crawl   *config.CrawlConfig
	logger  *slog.Logger
}

// NewBrowserDiscoverer creates a BrowserDiscoverer on an already
// connected browser.
func NewBrowserDiscoverer(browser *rod.Browser, cfg *config.Config, logger *slog.Logger) *BrowserDiscoverer {
	return &BrowserDiscoverer{
		browser: browser,
		src:     &cfg.Source,
		browCfg: &cfg.Browser,
		crawl:   &cfg.Crawl,
		logger:  logger.With("component", "discoverer"),
	}
}

// Discover walks home, the load-more feed, and the category pages in
// order, collecting up to maxItems candidates.
func (d *BrowserDiscoverer) Discover(ctx context.Context, maxItems int) ([]types.Candidate, error) {
	base, err := url.Parse(d.src.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	page, err := stealth.Page(d.browser)
	if err != nil {
		return nil, fmt.Errorf("open listing page: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			d.logger.Warn("listing page close failed", "error", err)
		}
	}()
	page = page.Context(ctx)

	c := newCollector(base, d.src.ArticlePath, maxItems)

	if err := d.collectSurface(page, c, d.src.BaseURL); err != nil {
		return nil, err
	}

	if !c.full() {
		if err := d.collectFeed(ctx, page, c); err != nil {
			d.logger.Warn("load-more feed failed, continuing with category pages", "error", err)
		}
	}

	for _, path := range d.src.CategoryPages {
		if c.full() {
			break
		}
		pageURL := d.src.BaseURL + path
		if err := d.collectSurface(page, c, pageURL); err != nil {
			d.logger.Warn("category page failed, continuing", "url", pageURL, "error", err)
		}
	}

	d.logger.Info("discovery complete", "candidates", len(c.items), "cap", maxItems)
	return c.items, nil
}

// collectSurface navigates to one listing URL and harvests its links.
// Navigation gets one retry before the surface is given up on.
func (d *BrowserDiscoverer) collectSurface(page *rod.Page, c *collector, pageURL string) error {
	if err := d.navigate(page, pageURL); err != nil {
		return err
	}
	if err := page.Timeout(d.browCfg.NavigationTimeout).WaitStable(300 * time.Millisecond); err != nil {
		d.logger.Warn("listing stability timeout, continuing", "url", pageURL, "error", err)
	}

	added, err := d.collectFromPage(page, c)
	if err != nil {
		return err
	}
	d.logger.Debug("listing surface collected", "url", pageURL, "added", added, "total", len(c.items))
	return nil
}

func (d *BrowserDiscoverer) navigate(page *rod.Page, pageURL string) error {
	err := page.Timeout(d.browCfg.NavigationTimeout).Navigate(pageURL)
	if err == nil {
		return nil
	}
	d.logger.Warn("listing navigation failed, retrying once", "url", pageURL, "error", err)
	if err := page.Timeout(d.browCfg.NavigationTimeout).Navigate(pageURL); err != nil {
		return fmt.Errorf("navigate %s: %w", pageURL, err)
	}
	return nil
}

// collectFeed harvests the paginated feed, clicking load-more until the
// cap is reached, the click budget runs out, or the button disappears.
func (d *BrowserDiscoverer) collectFeed(ctx context.Context, page *rod.Page, c *collector) error {
	feedURL := d.src.BaseURL + d.src.LatestPath
	if err := d.navigate(page, feedURL); err != nil {
		return err
	}
	if err := page.Timeout(d.browCfg.NavigationTimeout).WaitStable(300 * time.Millisecond); err != nil {
		d.logger.Warn("feed stability timeout, continuing", "error", err)
	}

	clicks := (c.maxItems - len(c.items) + feedPageSize - 1) / feedPageSize
	if clicks > d.crawl.MaxLoadMoreClicks {
		clicks = d.crawl.MaxLoadMoreClicks
	}

	for attempt := 0; attempt <= clicks && !c.full(); attempt++ {
		added, err := d.collectFromPage(page, c)
		if err != nil {
			return err
		}
		d.logger.Debug("feed pass collected", "attempt", attempt, "added", added, "total", len(c.items))

		if c.full() || attempt == clicks {
			break
		}

		if _, err := page.Eval(`() => window.scrollTo(0, document.body.scrollHeight)`); err != nil {
			d.logger.Warn("feed scroll failed", "error", err)
		}
		select {
		case <-time.After(d.browCfg.SettleDelay):
		case <-ctx.Done():
			return ctx.Err()
		}

		res, err := page.Eval(loadMoreJS)
		if err != nil {
			return fmt.Errorf("click load more: %w", err)
		}
		if !res.Value.Bool() {
			d.logger.Debug("no load-more control, feed exhausted")
			break
		}
		select {
		case <-time.After(d.browCfg.LoadMoreWait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

func (d *BrowserDiscoverer) collectFromPage(page *rod.Page, c *collector) (int, error) {
	html, err := page.HTML()
	if err != nil {
		return 0, fmt.Errorf("read listing html: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return 0, fmt.Errorf("parse listing html: %w", err)
	}
	return c.collect(doc), nil
}
