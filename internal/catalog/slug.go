package catalog

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	SlugOther      = "outro"
	SlugPromotions = "promocoes"
)

var (
	nonAlnumRe = regexp.MustCompile(`[^a-z0-9]+`)

	// BaseCategories always exist and cannot be deleted.
	BaseCategories = []struct{ Name, Slug string }{
		{Name: "Outro", Slug: SlugOther},
		{Name: "Promoções", Slug: SlugPromotions},
	}
)

// StripAccents removes combining marks after NFD decomposition, so "Promoções"
// becomes "Promocoes".
func StripAccents(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// Slugify lowercases, strips accents and collapses every non alphanumeric run
// into a single dash.
func Slugify(name string) string {
	s := strings.ToLower(StripAccents(strings.TrimSpace(name)))
	s = nonAlnumRe.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// IsProtectedSlug reports whether the category is one of the base ones.
func IsProtectedSlug(slug string) bool {
	for _, base := range BaseCategories {
		if base.Slug == slug {
			return true
		}
	}
	return false
}
