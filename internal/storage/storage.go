// Package storage persists crawled articles and image hash mappings.
package storage

import (
	"context"

	"github.com/kstarpick/crawler/internal/types"
)

// ArticleStore is what the crawler needs from the article collection.
type ArticleStore interface {
	// ExistingSourceURLs reports which of the given source URLs already
	// have a persisted record.
	ExistingSourceURLs(ctx context.Context, urls []string) (map[string]bool, error)

	// InsertArticles persists a batch of new records and returns how many
	// were written.
	InsertArticles(ctx context.Context, articles []types.Article) (int, error)

	// FindMisclassified returns up to limit records whose category fields
	// need recomputation: missing or empty detailCategory, or a category
	// outside the known buckets.
	FindMisclassified(ctx context.Context, limit int) ([]types.Article, error)

	// FindByIDOrURL looks a record up by its id, falling back to its
	// source URL. Returns types.ErrNotFound when neither matches.
	FindByIDOrURL(ctx context.Context, id, sourceURL string) (*types.Article, error)

	// UpdateArticleCategory rewrites one record's classification fields.
	UpdateArticleCategory(ctx context.Context, id string, detailCategory string, category types.Category, tags []string) error
}

// HashStore records rehosted image origins keyed by content hash.
type HashStore interface {
	UpsertImageHash(ctx context.Context, hash, originURL string) error
}

// Store is the full persistence surface backed by one database.
type Store interface {
	ArticleStore
	HashStore
	Close(ctx context.Context) error
}
