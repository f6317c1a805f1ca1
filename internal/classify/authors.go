package classify

import (
	"hash/fnv"
	"strings"

	"github.com/kstarpick/crawler/internal/types"
)

// bylinesByCategory holds the pool of synthetic byline names per
// category.
var bylinesByCategory = map[types.Category][]string{
	types.CategoryKpop:    {"Sarah", "Michael", "Jessica", "David", "Emma", "Ryan"},
	types.CategoryDrama:   {"Jennifer", "James", "Sophie", "Daniel", "Grace", "Alex"},
	types.CategoryMovie:   {"Rachel", "Kevin", "Lily", "Steven", "Mia", "Eric"},
	types.CategoryVariety: {"Chloe", "Tyler", "Zoe", "Noah", "Aria", "Lucas"},
	types.CategoryCeleb:   {"Olivia", "Ethan", "Ava", "Mason", "Isabella", "Logan"},
}

// IsGenericByline reports whether an extracted author credit is a
// placeholder that should be replaced with a synthetic byline.
func IsGenericByline(author string) bool {
	if strings.TrimSpace(author) == "" {
		return true
	}
	switch author {
	case "Admin", "By Admin", "admin", "by admin", "Staff":
		return true
	}
	lower := strings.ToLower(author)
	return strings.Contains(lower, "admin") || strings.Contains(lower, "soompi")
}

// SynthesizeByline picks a byline name for the category and article
// URL. The pick is stable: the same URL always yields the same name.
func SynthesizeByline(category types.Category, articleURL string) string {
	pool, ok := bylinesByCategory[category]
	if !ok {
		pool = bylinesByCategory[types.CategoryKpop]
	}
	h := fnv.New32a()
	h.Write([]byte(articleURL))
	return pool[h.Sum32()%uint32(len(pool))]
}

// ResolveByline returns the extracted author when it is usable, or a
// synthetic byline otherwise.
func ResolveByline(extracted string, category types.Category, articleURL string) string {
	if !IsGenericByline(extracted) {
		return strings.TrimSpace(extracted)
	}
	return SynthesizeByline(category, articleURL)
}
