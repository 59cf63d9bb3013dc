// Package imageurl cleans product image references coming from the admin UI
// and the catalog before they reach a browser.
package imageurl

import (
	"regexp"
	"strings"
)

// Placeholder is served whenever a product has no usable image.
const Placeholder = "/produtos/whey.png"

var (
	whitespaceRe = regexp.MustCompile(`\s`)
	// RE2 has no backreferences; collapseExtension checks both halves match.
	duplicateExtRe = regexp.MustCompile(`(?i)\.(webp|png|jpg|jpeg)\.(webp|png|jpg|jpeg)(\?.*)?$`)
)

// Normalize returns a usable image URL. Blank, "null" and "undefined" map to
// the placeholder, whitespace is escaped and a doubled extension such as
// ".webp.webp" is collapsed, also when followed by a query string.
func Normalize(raw string) string {
	u := strings.TrimSpace(raw)
	if u == "" || u == "null" || u == "undefined" {
		return Placeholder
	}

	u = whitespaceRe.ReplaceAllString(u, "%20")
	return duplicateExtRe.ReplaceAllStringFunc(u, collapseExtension)
}

func collapseExtension(match string) string {
	query := ""
	if idx := strings.Index(match, "?"); idx >= 0 {
		query = match[idx:]
		match = match[:idx]
	}
	half := len(match) / 2
	if len(match)%2 != 0 || !strings.EqualFold(match[:half], match[half:]) {
		return match + query
	}
	return match[:half] + query
}

// Pick chooses the primary image of a product: the explicit image URL, else
// the first gallery entry, normalized.
func Pick(imageURL string, gallery []string) string {
	if strings.TrimSpace(imageURL) != "" {
		return Normalize(imageURL)
	}
	for _, candidate := range gallery {
		if strings.TrimSpace(candidate) != "" {
			return Normalize(candidate)
		}
	}
	return Placeholder
}
