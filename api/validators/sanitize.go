package validators

import (
	"fmt"
	"strings"
	"unicode/utf8"

	pkgerrors "github.com/primefit/storefront/pkg/errors"
)

const maxVariantLen = 120

// SanitizeString trims input and caps it at maxLen runes.
func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen <= 0 || utf8.RuneCountInString(trimmed) <= maxLen {
		return trimmed
	}
	return string([]rune(trimmed)[:maxLen])
}

// SanitizeVariant trims a flavor label; an empty result is a valid variant.
// Length is checked by validation, never cut, so distinct labels stay distinct.
func SanitizeVariant(input string) string {
	return strings.TrimSpace(input)
}

// ValidateVariant applies the body rules for a variant to a value read from
// the query string.
func ValidateVariant(field, raw string) (string, error) {
	variant := SanitizeVariant(raw)
	if !utf8.ValidString(variant) {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{field: "must be valid text"})
	}
	if utf8.RuneCountInString(variant) > maxVariantLen {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "validation failed").WithDetails(map[string]string{field: fmt.Sprintf("must be at most %d", maxVariantLen)})
	}
	return variant, nil
}
