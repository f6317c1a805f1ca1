package sanitize

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
	Level: slog.LevelError,
}))

type fakeRehoster struct {
	calls []string
}

func (f *fakeRehoster) Rehost(_ context.Context, imageURL string) string {
	f.calls = append(f.calls, imageURL)
	return "/api/proxy/hash-image?hash=deadbeefdeadbeef"
}

func regionFrom(t *testing.T, html string) *goquery.Selection {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		t.Fatalf("failed to parse fixture: %v", err)
	}
	sel := doc.Find("#region")
	if sel.Length() == 0 {
		t.Fatal("fixture has no #region element")
	}
	return sel
}

func newTestSanitizer(rh ImageRehoster) *Sanitizer {
	if rh == nil {
		rh = &fakeRehoster{}
	}
	return New("https://www.soompi.com", rh, testLogger)
}

func TestCleanRemovesClutter(t *testing.T) {
	html := `<div id="region">
		<p>First line of the story.</p>
		<div class="social-share-container">share</div>
		<div class="article-reactions">likes</div>
		<script>track();</script>
		<div class="ad">buy things</div>
		<hr>
		<p style="text-align: center">promo text</p>
	</div>`

	s := newTestSanitizer(nil)
	got := s.Clean(context.Background(), regionFrom(t, html))

	if !strings.Contains(got, "First line of the story.") {
		t.Error("expected story text to survive")
	}
	for _, banned := range []string{"share", "likes", "track()", "buy things", "<hr", "promo text"} {
		if strings.Contains(got, banned) {
			t.Errorf("expected %q to be removed, got: %s", banned, got)
		}
	}
}

func TestCleanKeepsYouTubeDropsOtherIframes(t *testing.T) {
	html := `<div id="region">
		<p>Watch the teaser here.</p>
		<iframe src="https://www.youtube.com/embed/abc123"></iframe>
		<iframe src="https://player.vimeo.com/video/999"></iframe>
	</div>`

	s := newTestSanitizer(nil)
	got := s.Clean(context.Background(), regionFrom(t, html))

	if !strings.Contains(got, "youtube.com/embed/abc123") {
		t.Error("expected YouTube iframe to survive")
	}
	if strings.Contains(got, "vimeo.com") {
		t.Error("expected non-YouTube iframe to be removed")
	}
}

func TestCleanConvertsStreamingLinksToText(t *testing.T) {
	html := `<div id="region">
		<p>The drama stars <a href="https://www.viki.com/tv/123?utm_source=soompi">Lee Min Ho</a> in the lead role.</p>
	</div>`

	s := newTestSanitizer(nil)
	got := s.Clean(context.Background(), regionFrom(t, html))

	if strings.Contains(got, "viki.com") {
		t.Error("expected streaming link to be removed")
	}
	if !strings.Contains(got, "Lee Min Ho") {
		t.Error("expected link text to be kept")
	}
}

func TestCleanRemovesWatchPromos(t *testing.T) {
	html := `<div id="region">
		<p>Real story sentence.</p>
		<p>Watch the full episode on Viki now!</p>
		<p>Watch the trailer below!</p>
	</div>`

	s := newTestSanitizer(nil)
	got := s.Clean(context.Background(), regionFrom(t, html))

	if !strings.Contains(got, "Real story sentence.") {
		t.Error("expected story text to survive")
	}
	if strings.Contains(got, "Viki") || strings.Contains(got, "below") {
		t.Errorf("expected watch promos removed, got: %s", got)
	}
}

func TestCleanRemovesBannerAfterDivider(t *testing.T) {
	html := `<div id="region">
		<p>Story ends here.</p>
		<hr>
		<p><a target="_blank" rel="noopener noreferrer" href="https://example.com/promo"><img class="wp-image-552" src="https://cdn.example.com/banner.jpg"></a></p>
	</div>`

	s := newTestSanitizer(nil)
	got := s.Clean(context.Background(), regionFrom(t, html))

	if strings.Contains(got, "banner.jpg") {
		t.Error("expected trailing banner image to be removed")
	}
	if strings.Contains(got, "<hr") {
		t.Error("expected divider to be removed")
	}
}

func TestCleanRemovesSourceAttribution(t *testing.T) {
	html := `<div id="region">
		<p>Closing paragraph of the story.</p>
		<p>Source: (1) Naver</p>
		<p>Source (2): Daum</p>
	</div>`

	s := newTestSanitizer(nil)
	got := s.Clean(context.Background(), regionFrom(t, html))

	if strings.Contains(got, "Naver") || strings.Contains(got, "Daum") {
		t.Errorf("expected source attributions removed, got: %s", got)
	}
	if !strings.Contains(got, "Closing paragraph of the story.") {
		t.Error("expected story text to survive")
	}
}

func TestCleanAbsolutizesAndRehostsImages(t *testing.T) {
	html := `<div id="region">
		<p>Photo of the group below.</p>
		<img src="/wp-content/uploads/photo.jpg">
	</div>`

	rh := &fakeRehoster{}
	s := newTestSanitizer(rh)
	got := s.Clean(context.Background(), regionFrom(t, html))

	if len(rh.calls) != 1 {
		t.Fatalf("expected 1 rehost call, got %d", len(rh.calls))
	}
	if rh.calls[0] != "https://www.soompi.com/wp-content/uploads/photo.jpg" {
		t.Errorf("expected absolutized URL passed to rehoster, got %q", rh.calls[0])
	}
	if !strings.Contains(got, "/api/proxy/hash-image?hash=") {
		t.Errorf("expected proxy URL in output, got: %s", got)
	}
}

func TestCleanUsesLazyImageSource(t *testing.T) {
	html := `<div id="region">
		<p>Lazy photo follows.</p>
		<img data-src="https://cdn.example.com/lazy.jpg">
	</div>`

	rh := &fakeRehoster{}
	s := newTestSanitizer(rh)
	s.Clean(context.Background(), regionFrom(t, html))

	if len(rh.calls) != 1 || rh.calls[0] != "https://cdn.example.com/lazy.jpg" {
		t.Errorf("expected data-src to be promoted and rehosted, calls: %v", rh.calls)
	}
}

func TestCleanNormalizesInstagramFallback(t *testing.T) {
	html := `<div id="region">
		<p>The idol posted an update.</p>
		<blockquote>
			<p>View this post on Instagram</p>
			<a href="https://www.instagram.com/p/Cxyz123/">link</a>
			<p>A post shared by Star (@star)</p>
		</blockquote>
	</div>`

	s := newTestSanitizer(nil)
	got := s.Clean(context.Background(), regionFrom(t, html))

	if !strings.Contains(got, `class="instagram-media"`) {
		t.Errorf("expected canonical instagram embed, got: %s", got)
	}
	if !strings.Contains(got, "instagram.com/p/Cxyz123") {
		t.Error("expected post URL preserved in embed")
	}
	if strings.Contains(got, "A post shared by Star") {
		t.Error("expected caption fallback text removed")
	}
}

func TestCleanNormalizesLooseInstagramCaption(t *testing.T) {
	html := `<div id="region">
		<p>View this post on Instagram</p>
		<p>A post shared by Star (@star) <a href="https://www.instagram.com/reel/Babc987/">post</a></p>
		<p>Regular text continues.</p>
	</div>`

	s := newTestSanitizer(nil)
	got := s.Clean(context.Background(), regionFrom(t, html))

	if !strings.Contains(got, "instagram.com/reel/Babc987") {
		t.Errorf("expected embed for loose caption, got: %s", got)
	}
	if strings.Contains(got, "View this post on Instagram</p>") {
		t.Error("expected caption paragraph removed")
	}
	if !strings.Contains(got, "Regular text continues.") {
		t.Error("expected surrounding text to survive")
	}
}

func TestCleanNormalizesTweetLinks(t *testing.T) {
	html := `<div id="region">
		<p>The agency announced it on <a href="https://twitter.com/agency/status/12345">Twitter</a> today.</p>
	</div>`

	s := newTestSanitizer(nil)
	got := s.Clean(context.Background(), regionFrom(t, html))

	if !strings.Contains(got, `class="twitter-tweet"`) {
		t.Errorf("expected canonical tweet embed, got: %s", got)
	}
	if !strings.Contains(got, "twitter.com/agency/status/12345") {
		t.Error("expected tweet URL preserved")
	}
}

func TestCleanSplitsSentences(t *testing.T) {
	html := `<div id="region">
		<p>First sentence here. Second sentence follows. Third one closes.</p>
	</div>`

	s := newTestSanitizer(nil)
	got := s.Clean(context.Background(), regionFrom(t, html))

	if n := strings.Count(got, "<p>"); n != 3 {
		t.Errorf("expected 3 paragraphs after splitting, got %d: %s", n, got)
	}
}

func TestCleanDoesNotSplitMediaParagraphs(t *testing.T) {
	html := `<div id="region">
		<p>Look at this. <img src="https://cdn.example.com/a.jpg"> Nice photo.</p>
	</div>`

	s := newTestSanitizer(nil)
	got := s.Clean(context.Background(), regionFrom(t, html))

	if n := strings.Count(got, "<p>"); n != 1 {
		t.Errorf("expected media paragraph left intact, got %d paragraphs: %s", n, got)
	}
}

func TestSplitHTMLSentencesIgnoresTagPeriods(t *testing.T) {
	html := `Visit <a href="https://example.com/page.html">the site</a>. More text here.`
	got := splitHTMLSentences(html)
	if len(got) != 2 {
		t.Fatalf("expected 2 sentences, got %d: %v", len(got), got)
	}
	if !strings.Contains(got[0], "example.com/page.html") {
		t.Error("URL inside the tag should stay in the first sentence")
	}
}

func TestCleanEmptyRegion(t *testing.T) {
	html := `<div id="region"><p>   </p><hr></div>`

	s := newTestSanitizer(nil)
	if got := s.Clean(context.Background(), regionFrom(t, html)); got != "" {
		t.Errorf("expected empty result for empty region, got %q", got)
	}

	if got := s.Clean(context.Background(), nil); got != "" {
		t.Errorf("expected empty result for nil region, got %q", got)
	}
}
