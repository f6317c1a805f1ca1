// Package extract turns a single article URL into a normalized Detail.
// Strategies run as a chain: a plain HTTP fetch first, then rendered
// browser DOM with retries, then HTTP again under an alternate client
// identity. When the whole chain fails the result degrades to a
// placeholder instead of an error, so a record is always persisted.
package extract

import (
	"context"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kstarpick/crawler/internal/types"
)

// minContentLength is the threshold below which extracted content is
// treated as a bot-block page rather than an article body.
const minContentLength = 100

// PlaceholderContent is persisted when every strategy failed.
const PlaceholderContent = "<p>상세 기사를 가져오는 중 오류가 발생했습니다. 원본 페이지를 방문해 주세요.</p>"

// PageLoader renders or fetches a page and returns its HTML.
type PageLoader interface {
	LoadHTML(ctx context.Context, pageURL string) (string, error)
}

// FallbackLoader is a PageLoader that can also retry under an alternate
// client identity.
type FallbackLoader interface {
	PageLoader
	LoadHTMLAlternate(ctx context.Context, pageURL string) (string, error)
}

// Extractor runs the strategy chain for one article URL at a time. Safe
// for concurrent use.
type Extractor struct {
	primary  PageLoader // nil disables the browser strategy
	fallback FallbackLoader
	parser   *Parser
	logger   *slog.Logger
}

// NewExtractor creates an Extractor. primary may be nil when dynamic
// crawling is disabled.
func NewExtractor(primary PageLoader, fallback FallbackLoader, parser *Parser, logger *slog.Logger) *Extractor {
	return &Extractor{
		primary:  primary,
		fallback: fallback,
		parser:   parser,
		logger:   logger.With("component", "extractor"),
	}
}

// Extract never fails: it returns a Degraded detail when no strategy
// produced enough content.
func (e *Extractor) Extract(ctx context.Context, articleURL string) *types.Detail {
	if detail := e.attempt(ctx, articleURL, e.fallback.LoadHTML, "http"); detail != nil {
		return detail
	}
	if e.primary != nil {
		if detail := e.attempt(ctx, articleURL, e.primary.LoadHTML, "browser"); detail != nil {
			return detail
		}
	}
	if detail := e.attempt(ctx, articleURL, e.fallback.LoadHTMLAlternate, "http_alternate"); detail != nil {
		return detail
	}

	e.logger.Warn("all extraction strategies failed, degrading", "url", articleURL)
	return &types.Detail{
		Content:  PlaceholderContent,
		Tags:     []string{},
		Degraded: true,
	}
}

type loadFunc func(ctx context.Context, pageURL string) (string, error)

func (e *Extractor) attempt(ctx context.Context, articleURL string, load loadFunc, strategy string) *types.Detail {
	html, err := load(ctx, articleURL)
	if err != nil {
		e.logger.Debug("strategy failed", "strategy", strategy, "url", articleURL, "error", err)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		e.logger.Debug("strategy returned unparseable html", "strategy", strategy, "url", articleURL, "error", err)
		return nil
	}

	detail := e.parser.Parse(ctx, doc, articleURL)
	if err := contentError(detail.Content); err != nil {
		e.logger.Debug("strategy returned insufficient content",
			"strategy", strategy,
			"url", articleURL,
			"content_length", len(detail.Content),
			"error", err,
		)
		return nil
	}

	e.logger.Debug("extraction succeeded", "strategy", strategy, "url", articleURL, "title", detail.Title)
	return detail
}

// contentError classifies a parsed body too weak to stand as an
// article: no region matched at all, or the match is a bot-block stub.
func contentError(content string) error {
	if content == "" {
		return types.ErrNoContent
	}
	if len(content) < minContentLength {
		return types.ErrEmptyContent
	}
	return nil
}
