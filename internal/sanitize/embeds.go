package sanitize

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	instagramURLRe = regexp.MustCompile(`https?://(?:www\.)?instagram\.com/(?:p|reel)/[A-Za-z0-9_-]+`)
	twitterURLRe   = regexp.MustCompile(`https?://(?:www\.)?(?:twitter\.com|x\.com)/(?:#!/)?@?[A-Za-z0-9_]+/status(?:es)?/\d+`)
	postSharedRe   = regexp.MustCompile(`(?i)A post shared by`)
)

func instagramEmbed(postURL string) string {
	return `<blockquote class="instagram-media" data-instgrm-captioned data-instgrm-permalink="` + postURL +
		`" data-instgrm-version="14"><a href="` + postURL + `" target="_blank">View this post on Instagram</a></blockquote>`
}

func twitterEmbed(tweetURL string) string {
	return `<blockquote class="twitter-tweet" data-dnt="true"><a href="` + tweetURL +
		`" target="_blank" rel="noopener noreferrer">` + tweetURL + `</a></blockquote>`
}

// normalizeInstagramEmbeds rewrites Instagram caption fallbacks into
// canonical embed blockquotes and drops caption fragments that leaked
// into the article body.
func normalizeInstagramEmbeds(region *goquery.Selection) {
	region.Find("blockquote").Each(func(_ int, bq *goquery.Selection) {
		if bq.HasClass("instagram-media") || bq.HasClass("twitter-tweet") {
			return
		}
		if !strings.Contains(bq.Text(), "View this post on Instagram") {
			return
		}
		html, err := goquery.OuterHtml(bq)
		if err != nil {
			return
		}
		if postURL := instagramURLRe.FindString(html); postURL != "" {
			bq.ReplaceWithHtml(instagramEmbed(postURL))
		} else {
			bq.Remove()
		}
	})

	region.Find("p").Each(func(_ int, p *goquery.Selection) {
		if p.ParentsFiltered("blockquote").Length() > 0 {
			return
		}
		text := strings.TrimSpace(p.Text())
		switch {
		case strings.EqualFold(text, "View this post on Instagram"):
			p.Remove()
		case postSharedRe.MatchString(text):
			html, err := goquery.OuterHtml(p)
			if err != nil {
				p.Remove()
				return
			}
			if postURL := instagramURLRe.FindString(html); postURL != "" {
				p.ReplaceWithHtml(instagramEmbed(postURL))
			} else {
				p.Remove()
			}
		}
	})

	// bare post links outside any embed become embeds themselves
	region.Find(`a[href*="instagram.com/p/"], a[href*="instagram.com/reel/"]`).Each(func(_ int, a *goquery.Selection) {
		if a.ParentsFiltered("blockquote").Length() > 0 {
			return
		}
		href, _ := a.Attr("href")
		if postURL := instagramURLRe.FindString(href); postURL != "" {
			a.ReplaceWithHtml(instagramEmbed(postURL))
		}
	})
}

// normalizeTwitterEmbeds rewrites bare tweet links into canonical embed
// blockquotes.
func normalizeTwitterEmbeds(region *goquery.Selection) {
	region.Find(`a[href*="twitter.com/"], a[href*="x.com/"]`).Each(func(_ int, a *goquery.Selection) {
		if a.ParentsFiltered("blockquote").Length() > 0 {
			return
		}
		href, _ := a.Attr("href")
		if tweetURL := twitterURLRe.FindString(href); tweetURL != "" {
			a.ReplaceWithHtml(twitterEmbed(tweetURL))
		}
	})
}
