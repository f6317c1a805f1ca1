// Package sanitize cleans extracted article regions: promotional
// clutter is dropped, social embeds are normalized, and image
// references are absolutized and rehosted.
package sanitize

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ImageRehoster swaps a remote image URL for a locally served one.
type ImageRehoster interface {
	Rehost(ctx context.Context, imageURL string) string
}

// Sanitizer runs the content cleanup pipeline over a goquery region.
type Sanitizer struct {
	siteBase string
	rehoster ImageRehoster
	logger   *slog.Logger
}

// New creates a Sanitizer. siteBase is the publisher origin used to
// absolutize relative image paths.
func New(siteBase string, rehoster ImageRehoster, logger *slog.Logger) *Sanitizer {
	return &Sanitizer{
		siteBase: strings.TrimSuffix(siteBase, "/"),
		rehoster: rehoster,
		logger:   logger.With("component", "sanitize"),
	}
}

var sourceLineRe = regexp.MustCompile(`^Source(\s*\(\d+\))?:?`)

// Clean scrubs a cloned copy of region and returns the sanitized inner
// HTML. An empty string means the region held no usable content.
func (s *Sanitizer) Clean(ctx context.Context, region *goquery.Selection) string {
	if region == nil || region.Length() == 0 {
		return ""
	}
	clone := region.Clone()

	s.scrub(clone)
	s.absolutizeImages(clone)
	normalizeInstagramEmbeds(clone)
	normalizeTwitterEmbeds(clone)
	formatReadability(clone)
	splitSentenceParagraphs(clone)
	s.rehostImages(ctx, clone)

	html, err := clone.Html()
	if err != nil {
		s.logger.Warn("failed to serialize sanitized region", "error", err)
		return ""
	}
	html = strings.TrimSpace(html)
	if strings.TrimSpace(clone.Text()) == "" && clone.Find("img, iframe, blockquote").Length() == 0 {
		return ""
	}
	return html
}

// scrub strips clutter nodes from the region in place.
func (s *Sanitizer) scrub(region *goquery.Selection) {
	region.Find(".social-share-container, .article-reactions, .article-footer, script, .ad, .disqus_thread, .comment-container").Remove()

	// only YouTube players survive
	region.Find("iframe").Each(func(_ int, el *goquery.Selection) {
		src, _ := el.Attr("src")
		if !strings.Contains(src, "youtube.com/embed/") && !strings.Contains(src, "youtu.be/") {
			el.Remove()
		}
	})

	// promotional banner images wrapped in outbound links
	region.Find(`p > a[target="_blank"][rel="noopener noreferrer"] > img[class*="wp-image-"]`).Each(func(_ int, el *goquery.Selection) {
		el.Parent().Parent().Remove()
	})

	// banners that trail a divider
	region.Find("hr").Each(func(_ int, el *goquery.Selection) {
		next := el.Next()
		if next.Is("p") && next.Find(`img, a[target="_blank"]`).Length() > 0 {
			next.Remove()
		}
	})
	region.Find("hr").Remove()

	region.Find(`p[style*="text-align: center"], p[style*="text-align:center"]`).Remove()

	// streaming-service links collapse to their text
	region.Find(`a[href*="viki.com"]`).Each(func(_ int, el *goquery.Selection) {
		el.ReplaceWithHtml(el.Text())
	})

	region.Find("p").Each(func(_ int, el *goquery.Selection) {
		text := strings.TrimSpace(el.Text())
		switch {
		case strings.Contains(text, "원본 기사"):
			el.Remove()
		case sourceLineRe.MatchString(text):
			el.Remove()
		case strings.Contains(text, "Watch") && (strings.Contains(text, "on Viki") || strings.Contains(text, "below")):
			el.Remove()
		}
	})
	region.Find(`a[class*="btn-watch-now"]`).Each(func(_ int, el *goquery.Selection) {
		el.Closest("p").Remove()
	})
}

// absolutizeImages resolves relative image paths against the site base.
func (s *Sanitizer) absolutizeImages(region *goquery.Selection) {
	region.Find("img").Each(func(_ int, el *goquery.Selection) {
		src, ok := el.Attr("src")
		if !ok || src == "" {
			if lazy, ok := el.Attr("data-src"); ok && lazy != "" {
				src = lazy
				el.SetAttr("src", lazy)
			} else {
				return
			}
		}
		if strings.HasPrefix(src, "/") && !strings.HasPrefix(src, "//") {
			el.SetAttr("src", s.siteBase+src)
		}
	})
}

// rehostImages swaps remote image sources for proxy URLs.
func (s *Sanitizer) rehostImages(ctx context.Context, region *goquery.Selection) {
	region.Find("img").Each(func(_ int, el *goquery.Selection) {
		src, _ := el.Attr("src")
		if !strings.HasPrefix(src, "http") {
			return
		}
		el.SetAttr("src", s.rehoster.Rehost(ctx, src))
	})
}
