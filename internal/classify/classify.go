// Package classify maps raw publisher category labels onto the local
// site taxonomy and synthesizes author bylines for generic credits.
package classify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/kstarpick/crawler/internal/types"
)

var normalizeRe = regexp.MustCompile(`[-_\s]`)

// exactMap maps normalized publisher labels to local categories.
// Checked exact-first, then by substring containment.
var exactMap = map[string]types.Category{
	// drama
	"drama":         types.CategoryDrama,
	"kdrama":        types.CategoryDrama,
	"koreandrama":   types.CategoryDrama,
	"dramapreview":  types.CategoryDrama,
	"previewdrama":  types.CategoryDrama,
	"previewdramas": types.CategoryDrama,
	"dramapreviews": types.CategoryDrama,
	"tv":            types.CategoryDrama,
	"tvfilm":        types.CategoryMovie,
	"television":    types.CategoryDrama,

	// music
	"music":       types.CategoryKpop,
	"kpop":        types.CategoryKpop,
	"koreanmusic": types.CategoryKpop,
	"idol":        types.CategoryKpop,
	"comeback":    types.CategoryKpop,
	"album":       types.CategoryKpop,
	"mv":          types.CategoryKpop,
	"musicvideo":  types.CategoryKpop,
	"song":        types.CategoryKpop,
	"concert":     types.CategoryKpop,
	"performance": types.CategoryKpop,
	"tour":        types.CategoryKpop,

	// film
	"movie":       types.CategoryMovie,
	"film":        types.CategoryMovie,
	"cinema":      types.CategoryMovie,
	"koreanfilm":  types.CategoryMovie,
	"koreanmovie": types.CategoryMovie,

	// variety
	"variety":       types.CategoryVariety,
	"varietyshow":   types.CategoryVariety,
	"show":          types.CategoryVariety,
	"entertainment": types.CategoryVariety,
	"reality":       types.CategoryVariety,
	"realityshow":   types.CategoryVariety,

	// celebrity and general news
	"celeb":        types.CategoryCeleb,
	"celebrity":    types.CategoryCeleb,
	"celebrities":  types.CategoryCeleb,
	"actor":        types.CategoryCeleb,
	"actress":      types.CategoryCeleb,
	"star":         types.CategoryCeleb,
	"stars":        types.CategoryCeleb,
	"style":        types.CategoryCeleb,
	"fashion":      types.CategoryCeleb,
	"culture":      types.CategoryCeleb,
	"features":     types.CategoryCeleb,
	"interview":    types.CategoryCeleb,
	"lifestyle":    types.CategoryCeleb,
	"personal":     types.CategoryCeleb,
	"news":         types.CategoryCeleb,
	"announcement": types.CategoryCeleb,
	"update":       types.CategoryCeleb,
	"wedding":      types.CategoryCeleb,
	"marriage":     types.CategoryCeleb,
	"married":      types.CategoryCeleb,
	"relationship": types.CategoryCeleb,
	"dating":       types.CategoryCeleb,
	"couple":       types.CategoryCeleb,
	"family":       types.CategoryCeleb,
	"birth":        types.CategoryCeleb,
	"birthday":     types.CategoryCeleb,
	"death":        types.CategoryCeleb,
	"dies":         types.CategoryCeleb,
	"passed":       types.CategoryCeleb,
	"passaway":     types.CategoryCeleb,
	"cancer":       types.CategoryCeleb,
	"illness":      types.CategoryCeleb,
	"health":       types.CategoryCeleb,
	"social":       types.CategoryCeleb,
	"instagram":    types.CategoryCeleb,
	"twitter":      types.CategoryCeleb,
	"sns":          types.CategoryCeleb,
}

// substringOrder fixes the containment-check iteration order so that
// ambiguous labels always map the same way between runs.
var substringOrder = func() []string {
	keys := make([]string, 0, len(exactMap))
	for k := range exactMap {
		keys = append(keys, k)
	}
	// longest keyword first, ties alphabetical
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})
	return keys
}()

// Taxonomy returns the portal's category buckets.
func Taxonomy() []types.Category {
	return []types.Category{
		types.CategoryDrama,
		types.CategoryKpop,
		types.CategoryMovie,
		types.CategoryVariety,
		types.CategoryCeleb,
	}
}

// Normalize lowercases a raw label and strips hyphens, underscores, and
// whitespace.
func Normalize(raw string) string {
	return normalizeRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(raw)), "")
}

// Map converts a raw publisher category label to a local category.
// Unknown or empty labels fall back to kpop.
func Map(raw string) types.Category {
	if raw == "" {
		return types.CategoryKpop
	}
	normalized := Normalize(raw)
	if cat, ok := exactMap[normalized]; ok {
		return cat
	}
	for _, keyword := range substringOrder {
		if strings.Contains(normalized, keyword) {
			return exactMap[keyword]
		}
	}
	return types.CategoryKpop
}

// InferFromURL extracts a raw category hint from an article URL.
// Returns "" when the URL carries no recognizable hint.
func InferFromURL(articleURL string) string {
	if articleURL == "" {
		return ""
	}
	if m := categoryPathRe.FindStringSubmatch(articleURL); m != nil {
		return m[1]
	}
	lower := strings.ToLower(articleURL)
	switch {
	case strings.Contains(lower, "drama") || strings.Contains(lower, "k-drama"):
		return "drama"
	case strings.Contains(lower, "music") || strings.Contains(lower, "k-pop") || strings.Contains(lower, "kpop"):
		return "kpop"
	case strings.Contains(lower, "movie") || strings.Contains(lower, "film"):
		return "movie"
	case strings.Contains(lower, "variety") || strings.Contains(lower, "show"):
		return "variety"
	case strings.Contains(lower, "celeb") || strings.Contains(lower, "actor") || strings.Contains(lower, "style"):
		return "celeb"
	}
	return ""
}

var categoryPathRe = regexp.MustCompile(`/category/([^/]+)`)

// InferFromTitle extracts a raw category hint from an article title.
// Returns "" when the title carries no recognizable hint.
func InferFromTitle(title string) string {
	if title == "" {
		return ""
	}
	lower := strings.ToLower(title)
	switch {
	case strings.Contains(lower, "drama") || strings.Contains(lower, "series"):
		return "drama"
	case strings.Contains(lower, "comeback") || strings.Contains(lower, "mv") ||
		strings.Contains(lower, "album") || strings.Contains(lower, "music") ||
		strings.Contains(lower, "song") || strings.Contains(lower, "concert"):
		return "kpop"
	case strings.Contains(lower, "movie") || strings.Contains(lower, "film"):
		return "movie"
	case strings.Contains(lower, "variety") || strings.Contains(lower, "show"):
		return "variety"
	}
	return ""
}
