package discover

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kstarpick/crawler/internal/config"
	"github.com/kstarpick/crawler/internal/types"
)

// PageFetcher loads a listing page body over plain HTTP.
type PageFetcher interface {
	LoadHTML(ctx context.Context, pageURL string) (string, error)
}

// StaticDiscoverer harvests candidates from server-rendered listing
// markup without a browser. Load-more pagination needs script
// execution, so this path only sees what the initial responses carry.
type StaticDiscoverer struct {
	fetcher PageFetcher
	src     *config.SourceConfig
	logger  *slog.Logger
}

func NewStaticDiscoverer(fetcher PageFetcher, cfg *config.Config, logger *slog.Logger) *StaticDiscoverer {
	return &StaticDiscoverer{
		fetcher: fetcher,
		src:     &cfg.Source,
		logger:  logger.With("component", "discoverer"),
	}
}

func (d *StaticDiscoverer) Discover(ctx context.Context, maxItems int) ([]types.Candidate, error) {
	base, err := url.Parse(d.src.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	c := newCollector(base, d.src.ArticlePath, maxItems)

	pages := make([]string, 0, len(d.src.CategoryPages)+2)
	pages = append(pages, d.src.BaseURL, d.src.BaseURL+d.src.LatestPath)
	for _, path := range d.src.CategoryPages {
		pages = append(pages, d.src.BaseURL+path)
	}

	for _, pageURL := range pages {
		if c.full() {
			break
		}
		html, err := d.fetcher.LoadHTML(ctx, pageURL)
		if err != nil {
			d.logger.Warn("listing fetch failed, continuing", "url", pageURL, "error", err)
			continue
		}
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
		if err != nil {
			d.logger.Warn("listing parse failed, continuing", "url", pageURL, "error", err)
			continue
		}
		added := c.collect(doc)
		d.logger.Debug("listing surface collected", "url", pageURL, "added", added, "total", len(c.items))
	}

	d.logger.Info("discovery complete", "candidates", len(c.items), "cap", maxItems)
	return c.items, nil
}
