package discover

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/kstarpick/crawler/internal/classify"
	"github.com/kstarpick/crawler/internal/types"
)

// minTitleLength drops navigation anchors ("More", "Next") that happen
// to point at article URLs.
const minTitleLength = 4

// thumbnailContainers are the ancestor nodes searched for a nearby
// image when the anchor itself holds none.
const thumbnailContainers = `article, .post, .news-item, div[class*="article"], div[class*="post"]`

// collector accumulates unique candidates across listing surfaces up to
// the run cap.
type collector struct {
	base        *url.URL
	articlePath string
	maxItems    int
	seen        map[string]bool
	items       []types.Candidate
}

func newCollector(base *url.URL, articlePath string, maxItems int) *collector {
	return &collector{
		base:        base,
		articlePath: articlePath,
		maxItems:    maxItems,
		seen:        make(map[string]bool),
	}
}

func (c *collector) full() bool {
	return len(c.items) >= c.maxItems
}

// collect scans doc for article anchors and appends new candidates.
// Returns how many were added.
func (c *collector) collect(doc *goquery.Document) int {
	added := 0
	doc.Find(`a[href*="` + c.articlePath + `"]`).EachWithBreak(func(_ int, a *goquery.Selection) bool {
		if c.full() {
			return false
		}
		href, _ := a.Attr("href")
		articleURL := c.resolve(href)
		if articleURL == "" || c.seen[articleURL] {
			return true
		}

		title := strings.TrimSpace(a.Text())
		if len(title) < minTitleLength {
			return true
		}
		if ShouldSkip(title) {
			c.seen[articleURL] = true
			return true
		}

		c.seen[articleURL] = true
		c.items = append(c.items, types.Candidate{
			Title:          title,
			SourceURL:      articleURL,
			ThumbnailURL:   nearbyThumbnail(a),
			CategoryHint:   categoryHint(articleURL, title),
			DiscoveryOrder: len(c.items),
		})
		added++
		return true
	})
	return added
}

// resolve normalizes an anchor href to a canonical absolute article URL
// on the crawled site. Returns "" for off-site or non-article targets.
func (c *collector) resolve(href string) string {
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := c.base.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	if !strings.HasSuffix(abs.Hostname(), c.base.Hostname()) {
		return ""
	}
	if !strings.Contains(abs.Path, c.articlePath) {
		return ""
	}
	abs.Fragment = ""
	return abs.String()
}

// nearbyThumbnail finds a best-effort image for the anchor: inside the
// link, then in an enclosing card container, then in adjacent siblings.
func nearbyThumbnail(a *goquery.Selection) string {
	if src := imageSrc(a.Find("img").First()); src != "" {
		return src
	}
	if container := a.Closest(thumbnailContainers); container.Length() > 0 {
		if src := imageSrc(container.Find("img").First()); src != "" {
			return src
		}
	}
	if src := imageSrc(a.Prev().Find("img").First()); src != "" {
		return src
	}
	return imageSrc(a.Next().Find("img").First())
}

func imageSrc(img *goquery.Selection) string {
	if img.Length() == 0 {
		return ""
	}
	if src, ok := img.Attr("src"); ok && src != "" {
		return src
	}
	src, _ := img.Attr("data-src")
	return src
}

// categoryHint guesses a raw category from the URL, then the title.
// The detail page signal overrides this downstream.
func categoryHint(articleURL, title string) string {
	if hint := classify.InferFromURL(articleURL); hint != "" {
		return hint
	}
	return classify.InferFromTitle(title)
}
