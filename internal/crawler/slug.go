package crawler

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Hangul jamo and syllables survive slugification alongside ascii
// alphanumerics.
var slugStripRe = regexp.MustCompile(`[^a-z0-9ㄱ-ㅎㅏ-ㅣ가-힣\s]+`)

var slugSpaceRe = regexp.MustCompile(`\s+`)

// Slugify derives a URL slug from a title. Titles that reduce to fewer
// than three characters get a timestamped fallback so the slug is never
// empty.
func Slugify(title string, now time.Time) string {
	slug := strings.ToLower(title)
	slug = slugStripRe.ReplaceAllString(slug, "")
	slug = slugSpaceRe.ReplaceAllString(strings.TrimSpace(slug), "-")
	slug = strings.Trim(slug, "-")

	if utf8.RuneCountInString(slug) < 3 {
		millis := strconv.FormatInt(now.UnixMilli(), 10)
		if len(millis) > 6 {
			millis = millis[len(millis)-6:]
		}
		return fmt.Sprintf("soompi-news-%s", millis)
	}
	return slug
}
