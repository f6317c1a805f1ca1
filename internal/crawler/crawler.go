// Package crawler orchestrates one crawl run: discovery, dedup, detail
// extraction, record assembly, and persistence.
package crawler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/kstarpick/crawler/internal/classify"
	"github.com/kstarpick/crawler/internal/config"
	"github.com/kstarpick/crawler/internal/discover"
	"github.com/kstarpick/crawler/internal/storage"
	"github.com/kstarpick/crawler/internal/types"
)

// featuredCount marks how many of the first-discovered candidates
// become featured records. Discovery order decides, before dedup.
const featuredCount = 5

// Extractor produces a Detail for an article URL. It never fails: a
// page no strategy could read comes back as a degraded placeholder.
type Extractor interface {
	Extract(ctx context.Context, articleURL string) *types.Detail
}

// ImageRehoster rewrites a remote image URL to a proxied one.
type ImageRehoster interface {
	Rehost(ctx context.Context, imageURL string) string
}

// Result summarizes one crawl run.
type Result struct {
	Discovered int `json:"discovered"`
	New        int `json:"new"`
	Inserted   int `json:"inserted"`
	Updated    int `json:"updated"`
}

// Crawler wires the pipeline stages together.
type Crawler struct {
	discoverer discover.Discoverer
	extractor  Extractor
	rehoster   ImageRehoster
	store      storage.ArticleStore
	src        *config.SourceConfig
	crawl      *config.CrawlConfig
	logger     *slog.Logger

	// now is swappable for deterministic slug fallbacks in tests.
	now func() time.Time
}

func New(discoverer discover.Discoverer, extractor Extractor, rehoster ImageRehoster, store storage.ArticleStore, cfg *config.Config, logger *slog.Logger) *Crawler {
	return &Crawler{
		discoverer: discoverer,
		extractor:  extractor,
		rehoster:   rehoster,
		store:      store,
		src:        &cfg.Source,
		crawl:      &cfg.Crawl,
		logger:     logger.With("component", "crawler"),
		now:        time.Now,
	}
}

// RunOptions overrides run-level pacing per invocation. Zero values
// fall back to the configured defaults.
type RunOptions struct {
	MaxItems           int
	ConcurrentRequests int
}

// Run executes one crawl: discover candidates, drop already-persisted
// URLs, extract details in bounded parallel groups, and insert the new
// records.
func (c *Crawler) Run(ctx context.Context, opts RunOptions) (*Result, error) {
	maxItems := opts.MaxItems
	if maxItems <= 0 {
		maxItems = c.crawl.MaxItems
	}
	groupSize := opts.ConcurrentRequests
	if groupSize <= 0 {
		groupSize = c.crawl.ConcurrentRequests
	}

	candidates, err := c.discoverer.Discover(ctx, maxItems)
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	if len(candidates) == 0 {
		return nil, types.ErrNoCandidates
	}

	fresh, err := c.dedup(ctx, candidates)
	if err != nil {
		return nil, err
	}
	result := &Result{Discovered: len(candidates), New: len(fresh)}
	if len(fresh) == 0 {
		c.logger.Info("crawl found nothing new", "discovered", len(candidates))
		return result, nil
	}

	articles, err := c.extractAll(ctx, fresh, groupSize)
	if err != nil {
		return nil, err
	}

	inserted, err := c.store.InsertArticles(ctx, articles)
	if err != nil {
		return nil, err
	}
	result.Inserted = inserted

	c.logger.Info("crawl complete",
		"discovered", result.Discovered, "new", result.New, "inserted", result.Inserted)
	return result, nil
}

// dedup drops candidates whose source URL is already persisted.
// Featured status was fixed at discovery time, so a run that loses its
// first candidates to dedup does not promote later ones.
func (c *Crawler) dedup(ctx context.Context, candidates []types.Candidate) ([]types.Candidate, error) {
	urls := make([]string, len(candidates))
	for i, cand := range candidates {
		urls[i] = cand.SourceURL
	}
	existing, err := c.store.ExistingSourceURLs(ctx, urls)
	if err != nil {
		return nil, err
	}

	fresh := candidates[:0:0]
	for _, cand := range candidates {
		if !existing[cand.SourceURL] {
			fresh = append(fresh, cand)
		}
	}
	c.logger.Debug("dedup against store", "candidates", len(candidates), "new", len(fresh))
	return fresh, nil
}

// extractAll fetches details in groups of ConcurrentRequests, pausing
// between groups to keep load on the source polite.
func (c *Crawler) extractAll(ctx context.Context, candidates []types.Candidate, groupSize int) ([]types.Article, error) {
	if groupSize < 1 {
		groupSize = 1
	}

	articles := make([]types.Article, len(candidates))
	for start := 0; start < len(candidates); start += groupSize {
		end := start + groupSize
		if end > len(candidates) {
			end = len(candidates)
		}

		group := candidates[start:end]
		done := make(chan struct{})
		for i := range group {
			go func(slot int, cand types.Candidate) {
				defer func() { done <- struct{}{} }()
				detail := c.extractor.Extract(ctx, cand.SourceURL)
				articles[start+slot] = c.buildArticle(ctx, cand, detail)
			}(i, group[i])
		}
		for range group {
			<-done
		}

		c.logger.Debug("detail group processed", "done", end, "total", len(candidates))

		if end < len(candidates) {
			select {
			case <-time.After(c.crawl.GroupDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}
	return articles, nil
}

// buildArticle merges a listing candidate with its extracted detail
// into a persistable record.
func (c *Crawler) buildArticle(ctx context.Context, cand types.Candidate, detail *types.Detail) types.Article {
	now := c.now()

	title := cand.Title
	if detail.Title != "" {
		title = detail.Title
	}

	// Detail-page category wins; the listing hint only fills its absence.
	category := detail.Category
	if category == "" {
		category = classify.Map(cand.CategoryHint)
	}

	// A degraded detail keeps its empty tag set; defaults only fill a
	// successful extraction that produced none.
	tags := detail.Tags
	if len(tags) == 0 && !detail.Degraded {
		tags = []string{"K-POP", "News", c.src.Name}
		if cand.CategoryHint != "" {
			tags = append(tags, cand.CategoryHint)
		}
	}
	if detail.RawCategory != "" && !containsString(tags, detail.RawCategory) {
		tags = append(tags, detail.RawCategory)
	}

	author := detail.Author
	if author.Name == "" {
		author = types.Author{
			Name:  classify.SynthesizeByline(category, cand.SourceURL),
			ID:    c.src.CrawlerAuthorID,
			Email: c.src.CrawlerEmail,
			Image: c.src.DefaultAvatar,
		}
	}

	cover := detail.CoverImage
	if cover == "" && cand.ThumbnailURL != "" {
		cover = c.rehoster.Rehost(ctx, cand.ThumbnailURL)
	}
	if cover == "" {
		cover = c.src.DefaultCover
	}

	summary := title + " - From " + c.src.Name
	if cand.CategoryHint != "" {
		summary += " (" + cand.CategoryHint + ")"
	}
	summary += " (Recently)"

	publishedAt := detail.PublishedAt
	if publishedAt.IsZero() {
		publishedAt = now
	}

	return types.Article{
		Title:          title,
		Slug:           Slugify(title, now),
		SourceURL:      cand.SourceURL,
		SourceName:     c.src.Name,
		Summary:        summary,
		DetailCategory: detail.RawCategory,
		Category:       category,
		Tags:           tags,
		Author:         author,
		CoverImage:     cover,
		Content:        detail.Content,
		CreatedAt:      now,
		PublishedAt:    publishedAt,
		UpdatedAt:      now,
		Featured:       cand.DiscoveryOrder < featuredCount,
		ViewCount:      0,
	}
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
