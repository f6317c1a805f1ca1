package discover

import "strings"

// excludeKeywords marks listing titles that never become articles:
// quiz-style posts and syndication credits.
var excludeKeywords = []string{
	"quiz:",
	"soompi",
}

// ShouldSkip reports whether a listing title is excluded from the run.
// Missing titles are always skipped.
func ShouldSkip(title string) bool {
	if strings.TrimSpace(title) == "" {
		return true
	}
	lower := strings.ToLower(title)
	for _, keyword := range excludeKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
