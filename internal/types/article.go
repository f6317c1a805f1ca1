package types

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is one of the portal's fixed classification buckets.
type Category string

const (
	CategoryDrama   Category = "drama"
	CategoryKpop    Category = "kpop"
	CategoryMovie   Category = "movie"
	CategoryVariety Category = "variety"
	CategoryCeleb   Category = "celeb"
)

// Candidate is a discovered article reference. It lives only within one
// crawl run: it is either filtered out, deduplicated away, or promoted to
// an Article.
type Candidate struct {
	// Title is the anchor text found on the listing surface.
	Title string

	// SourceURL is the canonical absolute article URL.
	SourceURL string

	// ThumbnailURL is a best-effort nearby image, possibly empty.
	ThumbnailURL string

	// CategoryHint is the raw listing-side category signal (URL segment or
	// title keyword). It is a guess; the detail page overrides it.
	CategoryHint string

	// DiscoveryOrder is the candidate's position within the run. The first
	// five discovered candidates become featured records.
	DiscoveryOrder int
}

// Author identifies who a record is attributed to. Crawled records carry a
// synthetic byline with crawler placeholders for id/email/avatar.
type Author struct {
	Name  string `bson:"name"  json:"name"`
	ID    string `bson:"id"    json:"id"`
	Email string `bson:"email" json:"email"`
	Image string `bson:"image" json:"image"`
}

// Article is the persisted, classified, sanitized record. The crawler
// creates it once per unique sourceUrl; afterwards only the category
// reclassification path touches it.
type Article struct {
	ID             primitive.ObjectID `bson:"_id,omitempty"   json:"id,omitempty"`
	Title          string             `bson:"title"           json:"title"`
	Slug           string             `bson:"slug"            json:"slug"`
	SourceURL      string             `bson:"articleUrl"      json:"articleUrl"`
	SourceName     string             `bson:"source"          json:"source"`
	Summary        string             `bson:"summary"         json:"summary"`
	DetailCategory string             `bson:"detailCategory"  json:"detailCategory"`
	Category       Category           `bson:"category"        json:"category"`
	Tags           []string           `bson:"tags"            json:"tags"`
	Author         Author             `bson:"author"          json:"author"`
	CoverImage     string             `bson:"coverImage"      json:"coverImage"`
	Content        string             `bson:"content"         json:"content"`
	CreatedAt      time.Time          `bson:"createdAt"       json:"createdAt"`
	PublishedAt    time.Time          `bson:"publishedAt"     json:"publishedAt"`
	UpdatedAt      time.Time          `bson:"updatedAt"       json:"updatedAt"`
	Featured       bool               `bson:"featured"        json:"featured"`
	ViewCount      int                `bson:"viewCount"       json:"viewCount"`
}

// Detail is the normalized output of detail extraction. Extract always
// returns a well-formed Detail; Degraded marks placeholder results.
type Detail struct {
	Title      string
	Tags       []string
	Author     Author
	CoverImage string
	Content    string

	// PublishedAt is the page's declared publication time, zero when the
	// page does not expose one.
	PublishedAt time.Time

	// RawCategory is the verbatim category signal from the article page,
	// empty when no signal was found anywhere in the cascade.
	RawCategory string

	// Category is the classified RawCategory, empty when RawCategory is.
	// A non-empty value overrides the listing-side guess.
	Category Category

	// Degraded is set when both strategies failed and Content is a
	// placeholder.
	Degraded bool
}

// ImageMapping records one rehosted image. Append-only and idempotent on
// Hash: the hash is a pure function of URL, so repeated rehosting of the
// same URL never creates a second row.
type ImageMapping struct {
	Hash      string    `bson:"hash"      json:"hash"`
	URL       string    `bson:"url"       json:"url"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
