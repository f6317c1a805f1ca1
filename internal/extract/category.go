package extract

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var categoryHrefRe = regexp.MustCompile(`/category/([^/]+)`)

// tagLinkSelectors are tried in order against the dedicated tag-link
// markup; the site has shipped several variants of this structure.
var tagLinkSelectors = []string{
	".tags-container .uppercase.badges.tags a",
	".tags-container .badges.tags a",
	".tags-container .badges a",
	`.tags-container a[href*="/category/"]`,
	".article-info .tags-container a",
	"div.tags-container a",
}

// tagCategoryKeywords maps well-known article tags to category labels
// for the last cascade step.
var tagCategoryKeywords = map[string]bool{
	"K-Drama":      true,
	"Drama":        true,
	"Korean Drama": true,
	"K-Pop":        true,
	"Music":        true,
	"Korean Music": true,
	"Movie":        true,
	"Film":         true,
	"Korean Movie": true,
	"Variety":      true,
	"Variety Show": true,
	"Celebrity":    true,
	"Interview":    true,
	"Fashion":      true,
	"Style":        true,
}

// rawCategory walks the category signal cascade and returns the first
// non-empty raw label: JSON-LD, article:section meta, tag-link markup,
// breadcrumb trail, URL path segment, then tag keywords.
func rawCategory(doc *goquery.Document, articleURL string, tags []string) string {
	sources := []func() string{
		func() string { return categoryFromJSONLD(doc) },
		func() string { return categoryFromMeta(doc) },
		func() string { return categoryFromTagLink(doc) },
		func() string { return categoryFromBreadcrumb(doc) },
		func() string { return categoryFromURL(articleURL) },
		func() string { return categoryFromTags(tags) },
	}
	for _, source := range sources {
		if label := source(); label != "" {
			return label
		}
	}
	return ""
}

func categoryFromJSONLD(doc *goquery.Document) string {
	var label string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, el *goquery.Selection) bool {
		var data map[string]any
		if err := json.Unmarshal([]byte(el.Text()), &data); err != nil {
			return true
		}
		if section, ok := data["articleSection"].(string); ok {
			if section = strings.TrimSpace(section); section != "" {
				label = section
				return false
			}
		}
		return true
	})
	return label
}

func categoryFromMeta(doc *goquery.Document) string {
	content, _ := doc.Find(`meta[property="article:section"]`).Attr("content")
	return strings.TrimSpace(content)
}

func categoryFromTagLink(doc *goquery.Document) string {
	var link *goquery.Selection
	for _, selector := range tagLinkSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			link = sel
			break
		}
	}
	if link == nil {
		return ""
	}

	if href, _ := link.Attr("href"); strings.Contains(href, "/category/") {
		if m := categoryHrefRe.FindStringSubmatch(href); m != nil {
			return m[1]
		}
	}
	if title, _ := link.Attr("title"); title != "" {
		return strings.ToLower(title)
	}
	if text := strings.TrimSpace(link.Text()); text != "" {
		return strings.ToLower(text)
	}
	return ""
}

func categoryFromBreadcrumb(doc *goquery.Document) string {
	var label string
	doc.Find(".breadcrumbs a, .breadcrumb a, .nav-breadcrumb a").EachWithBreak(func(_ int, el *goquery.Selection) bool {
		href, _ := el.Attr("href")
		if m := categoryHrefRe.FindStringSubmatch(href); m != nil {
			label = strings.ReplaceAll(m[1], "-", " ")
			return false
		}
		return true
	})
	return label
}

func categoryFromURL(articleURL string) string {
	if m := categoryHrefRe.FindStringSubmatch(articleURL); m != nil {
		return strings.ReplaceAll(m[1], "-", " ")
	}
	return ""
}

func categoryFromTags(tags []string) string {
	for _, tag := range tags {
		if tagCategoryKeywords[strings.TrimSpace(tag)] {
			return strings.TrimSpace(tag)
		}
	}
	return ""
}
