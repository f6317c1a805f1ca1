package extract

import (
	"context"
	"log/slog"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kstarpick/crawler/internal/classify"
	"github.com/kstarpick/crawler/internal/config"
	"github.com/kstarpick/crawler/internal/sanitize"
	"github.com/kstarpick/crawler/internal/types"
)

// sectionTitles are page-section headings the title cascade must never
// mistake for an article title.
var sectionTitles = map[string]bool{
	"Trending Now":     true,
	"Latest Articles":  true,
	"Popular Articles": true,
}

var tagPathRe = regexp.MustCompile(`/tag/([^/]+)`)

// Parser turns a rendered article document into a normalized Detail.
type Parser struct {
	sanitizer *sanitize.Sanitizer
	rehoster  sanitize.ImageRehoster
	src       *config.SourceConfig
	logger    *slog.Logger
}

// NewParser creates a Parser.
func NewParser(sanitizer *sanitize.Sanitizer, rehoster sanitize.ImageRehoster, src *config.SourceConfig, logger *slog.Logger) *Parser {
	return &Parser{
		sanitizer: sanitizer,
		rehoster:  rehoster,
		src:       src,
		logger:    logger.With("component", "parser"),
	}
}

// Parse extracts title, tags, author, cover image, category signal, and
// sanitized content from an article document.
func (p *Parser) Parse(ctx context.Context, doc *goquery.Document, articleURL string) *types.Detail {
	meta := probeMeta(doc.Get(0))

	detail := &types.Detail{
		Title:       p.parseTitle(doc, meta.OGTitle),
		Tags:        p.parseTags(doc, articleURL),
		PublishedAt: meta.Published,
	}

	detail.CoverImage = p.parseCoverImage(ctx, doc, meta.OGImage)
	detail.Content = p.parseContent(ctx, doc)

	detail.RawCategory = rawCategory(doc, articleURL, detail.Tags)
	if detail.RawCategory != "" {
		detail.Category = classify.Map(detail.RawCategory)
		p.logger.Debug("category signal found",
			"url", articleURL,
			"raw", detail.RawCategory,
			"mapped", detail.Category,
		)
	}

	effective := detail.Category
	if effective == "" {
		effective = types.CategoryKpop
	}
	detail.Author = types.Author{
		Name:  classify.ResolveByline(p.parseAuthor(doc), effective, articleURL),
		ID:    p.src.CrawlerAuthorID,
		Email: p.src.CrawlerEmail,
		Image: p.src.DefaultAvatar,
	}

	return detail
}

func (p *Parser) parseTitle(doc *goquery.Document, ogTitle string) string {
	title := strings.TrimSpace(doc.Find(".article-info h1, .article-wrapper h1, .article-section h1").First().Text())

	if title == "" {
		pageTitle := strings.TrimSpace(doc.Find("title").First().Text())
		before, _, _ := strings.Cut(pageTitle, " - ")
		title = strings.TrimSpace(before)
	}

	if (title == "" || sectionTitles[title]) && ogTitle != "" {
		title = ogTitle
	}

	if sectionTitles[title] {
		return ""
	}
	return title
}

func (p *Parser) parseTags(doc *goquery.Document, articleURL string) []string {
	var tags []string

	doc.Find(".article-tags .tag-item a").Each(func(_ int, el *goquery.Selection) {
		if tag := strings.TrimSpace(el.Text()); tag != "" {
			tags = append(tags, tag)
		}
	})

	if len(tags) == 0 {
		doc.Find(".tags-container .uppercase.badges.tags a, .tags-container .badges.tags a").Each(func(_ int, el *goquery.Selection) {
			tag := strings.TrimSpace(el.Text())
			if tag != "" && !strings.Contains(tag, "category") {
				tags = append(tags, tag)
			}
		})
	}

	if len(tags) == 0 {
		doc.Find(".tags-container a").Each(func(_ int, el *goquery.Selection) {
			tag := strings.TrimSpace(el.Text())
			if tag != "" && !strings.Contains(tag, "category") {
				tags = append(tags, tag)
			}
		})
	}

	if len(tags) == 0 {
		if m := tagPathRe.FindStringSubmatch(articleURL); m != nil {
			tags = append(tags, strings.ReplaceAll(m[1], "-", " "))
		}
	}

	return tags
}

func (p *Parser) parseAuthor(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find(`.info-emphasis.right a, .author-date a[href*="/author/"]`).First().Text())
}

func (p *Parser) parseCoverImage(ctx context.Context, doc *goquery.Document, ogImage string) string {
	img := doc.Find(".article-section .image-wrapper img, .article-wrapper img").First()
	src, ok := img.Attr("src")
	if !ok || src == "" {
		src, _ = img.Attr("data-src")
	}
	if src == "" {
		src = ogImage
	}
	if src == "" {
		return ""
	}
	return p.rehoster.Rehost(ctx, src)
}

// contentRegions is the ordered selector cascade for the article body.
// The first selector yielding usable content wins.
var contentRegions = []string{
	".article-wrapper > div",
	".article-paragraph",
	".article-section",
}

func (p *Parser) parseContent(ctx context.Context, doc *goquery.Document) string {
	for _, selector := range contentRegions {
		region := doc.Find(selector).First()
		if region.Length() == 0 {
			continue
		}
		if content := p.sanitizer.Clean(ctx, region); content != "" {
			return content
		}
	}
	return ""
}
