package address

import (
	"strconv"
	"strings"
)

// Slugify converts a heading title into a URL-safe, lower-kebab slug.
// Example: "Error Handling & Retries" → "error-handling-retries"
//
// Rules:
//   - Lowercase
//   - Spaces and underscores become hyphens
//   - Non-alphanumeric characters (except hyphens) are removed
//   - Consecutive hyphens are collapsed
//   - Leading/trailing hyphens are trimmed
//   - Empty result falls back to "section"
func Slugify(title string) string {
	s := strings.ToLower(strings.TrimSpace(title))

	var b strings.Builder
	prevHyphen := false
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
			prevHyphen = false
		case r == ' ' || r == '_' || r == '-':
			if !prevHyphen {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		return "section"
	}
	return slug
}

// UniqueSlug returns slug, or slug-2, slug-3, ... — the first variant not
// present in taken. Repeated heading titles are disambiguated this way in
// document order, so slugs are deterministic for a given document state.
func UniqueSlug(slug string, taken map[string]bool) string {
	if !taken[slug] {
		return slug
	}
	for i := 2; ; i++ {
		candidate := slug + "-" + strconv.Itoa(i)
		if !taken[candidate] {
			return candidate
		}
	}
}
