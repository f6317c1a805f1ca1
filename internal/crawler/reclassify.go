package crawler

import (
	"context"
	"fmt"
	"time"

	"github.com/kstarpick/crawler/internal/types"
)

// ReclassifyResult summarizes a category maintenance pass.
type ReclassifyResult struct {
	Candidates int `json:"candidates"`
	Updated    int `json:"updated"`
}

// SingleReclassifyResult reports one record's category refresh.
type SingleReclassifyResult struct {
	Title       string         `json:"title"`
	OldCategory types.Category `json:"oldCategory"`
	NewCategory types.Category `json:"newCategory"`
	Updated     bool           `json:"updated"`
}

// Reclassify re-extracts category signals for persisted records whose
// classification is missing or stale and rewrites the ones where a
// fresh signal was found. Work is capped per pass and paced in small
// parallel groups.
func (c *Crawler) Reclassify(ctx context.Context) (*ReclassifyResult, error) {
	stale, err := c.store.FindMisclassified(ctx, c.crawl.ReclassifyLimit)
	if err != nil {
		return nil, err
	}
	result := &ReclassifyResult{Candidates: len(stale)}
	if len(stale) == 0 {
		return result, nil
	}

	groupSize := c.crawl.ReclassifyGroupSize
	if groupSize < 1 {
		groupSize = 1
	}

	for start := 0; start < len(stale); start += groupSize {
		end := start + groupSize
		if end > len(stale) {
			end = len(stale)
		}

		group := stale[start:end]
		updated := make(chan bool, len(group))
		for i := range group {
			go func(article types.Article) {
				ok, err := c.reclassifyOne(ctx, &article)
				if err != nil {
					c.logger.Warn("reclassify failed", "url", article.SourceURL, "error", err)
				}
				updated <- ok
			}(group[i])
		}
		for range group {
			if <-updated {
				result.Updated++
			}
		}

		if end < len(stale) {
			select {
			case <-time.After(c.crawl.ReclassifyDelay):
			case <-ctx.Done():
				return result, ctx.Err()
			}
		}
	}

	c.logger.Info("reclassify pass complete",
		"candidates", result.Candidates, "updated", result.Updated)
	return result, nil
}

// ReclassifyOne refreshes a single record looked up by id or source
// URL. Records whose detail page yields no category signal are left
// untouched.
func (c *Crawler) ReclassifyOne(ctx context.Context, id, sourceURL string) (*SingleReclassifyResult, error) {
	article, err := c.store.FindByIDOrURL(ctx, id, sourceURL)
	if err != nil {
		return nil, err
	}

	old := article.Category
	updated, err := c.reclassifyOne(ctx, article)
	if err != nil {
		return nil, err
	}
	return &SingleReclassifyResult{
		Title:       article.Title,
		OldCategory: old,
		NewCategory: article.Category,
		Updated:     updated,
	}, nil
}

// reclassifyOne re-extracts one record's detail page and persists the
// new classification when the page carries a category signal. The
// passed article is updated in place on success.
func (c *Crawler) reclassifyOne(ctx context.Context, article *types.Article) (bool, error) {
	detail := c.extractor.Extract(ctx, article.SourceURL)
	if detail.RawCategory == "" || detail.Category == "" {
		c.logger.Debug("no category signal on detail page", "url", article.SourceURL)
		return false, nil
	}

	var tags []string
	if len(detail.Tags) > 0 {
		tags = detail.Tags
	}

	id := article.ID.Hex()
	if article.ID.IsZero() {
		return false, fmt.Errorf("record for %s has no id", article.SourceURL)
	}
	if err := c.store.UpdateArticleCategory(ctx, id, detail.RawCategory, detail.Category, tags); err != nil {
		return false, err
	}

	c.logger.Info("category updated",
		"title", article.Title, "from", article.Category, "to", detail.Category, "raw", detail.RawCategory)
	article.DetailCategory = detail.RawCategory
	article.Category = detail.Category
	if tags != nil {
		article.Tags = tags
	}
	return true, nil
}
