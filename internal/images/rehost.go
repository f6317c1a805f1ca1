// Package images rewrites remote image references to hash-addressed
// local proxy URLs.
package images

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"strings"
)

// HashStore persists hash-to-origin-URL mappings. Upsert must be
// idempotent: re-registering a known hash keeps the stored record.
type HashStore interface {
	UpsertImageHash(ctx context.Context, hash, originURL string) error
}

// Rehoster swaps remote image URLs for proxy URLs keyed by a content
// hash of the origin address.
type Rehoster struct {
	store     HashStore
	proxyBase string
	logger    *slog.Logger
}

// NewRehoster creates a Rehoster that registers mappings in store and
// emits proxy URLs under proxyBase.
func NewRehoster(store HashStore, proxyBase string, logger *slog.Logger) *Rehoster {
	return &Rehoster{
		store:     store,
		proxyBase: proxyBase,
		logger:    logger.With("component", "images"),
	}
}

// Hash returns the stable identifier for an image origin URL.
func Hash(originURL string) string {
	sum := sha256.Sum256([]byte(originURL))
	return hex.EncodeToString(sum[:])[:16]
}

// Rehost converts a remote image URL to its proxy form and records the
// mapping. Already-local URLs pass through unchanged. When the mapping
// cannot be stored the original URL is returned so the article still
// renders.
func (r *Rehoster) Rehost(ctx context.Context, imageURL string) string {
	if imageURL == "" {
		return imageURL
	}
	if strings.HasPrefix(imageURL, "/api/proxy/") || strings.HasPrefix(imageURL, "/images/") {
		return imageURL
	}
	if !strings.HasPrefix(imageURL, "http://") && !strings.HasPrefix(imageURL, "https://") {
		return imageURL
	}

	hash := Hash(imageURL)
	if err := r.store.UpsertImageHash(ctx, hash, imageURL); err != nil {
		r.logger.Warn("failed to register image hash, keeping origin URL",
			"url", imageURL, "hash", hash, "error", err)
		return imageURL
	}
	return r.proxyBase + "?hash=" + hash
}
