package extract

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
)

// pageMeta is document-level metadata from the head. The markup
// cascades fall back to it when the article body carries no usable
// signal of its own.
type pageMeta struct {
	OGTitle   string
	OGImage   string
	Published time.Time
}

// probeMeta reads open graph tags and JSON-LD publication data off the
// parsed document.
func probeMeta(root *html.Node) pageMeta {
	meta := pageMeta{
		OGTitle: metaContent(root, `//meta[@property="og:title"]`),
		OGImage: metaContent(root, `//meta[@property="og:image"]`),
	}

	if raw := metaContent(root, `//meta[@property="article:published_time"]`); raw != "" {
		if ts, err := time.Parse(time.RFC3339, raw); err == nil {
			meta.Published = ts
		}
	}
	if meta.Published.IsZero() {
		meta.Published = jsonLDPublished(root)
	}

	return meta
}

func metaContent(root *html.Node, xpath string) string {
	node, err := htmlquery.Query(root, xpath)
	if err != nil || node == nil {
		return ""
	}
	return strings.TrimSpace(htmlquery.SelectAttr(node, "content"))
}

// jsonLDPublished pulls datePublished out of the first JSON-LD block
// that carries one.
func jsonLDPublished(root *html.Node) time.Time {
	nodes, err := htmlquery.QueryAll(root, `//script[@type="application/ld+json"]`)
	if err != nil {
		return time.Time{}
	}
	for _, node := range nodes {
		var data struct {
			DatePublished string `json:"datePublished"`
		}
		if err := json.Unmarshal([]byte(htmlquery.InnerText(node)), &data); err != nil {
			continue
		}
		if data.DatePublished == "" {
			continue
		}
		if ts, err := time.Parse(time.RFC3339, data.DatePublished); err == nil {
			return ts
		}
	}
	return time.Time{}
}
