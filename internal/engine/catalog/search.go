package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/rendis/locallink/internal/model"
)

// normalize removes accents/diacritics and lowercases text for fuzzy matching.
func normalize(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(func(r rune) bool {
		return unicode.Is(unicode.Mn, r)
	}), norm.NFC)
	result, _, err := transform.String(t, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return result
}

// Search returns the businesses whose name, category, description or any
// tag contains query. Matching ignores case and accents. A blank query
// matches nothing.
func Search(businesses []model.Business, query string) []model.Business {
	q := normalize(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	var out []model.Business
	for _, b := range businesses {
		if matches(b, q) {
			out = append(out, b)
		}
	}
	return out
}

func matches(b model.Business, q string) bool {
	for _, field := range []string{b.Name, b.Category, b.Description} {
		if field != "" && strings.Contains(normalize(field), q) {
			return true
		}
	}
	for _, t := range b.Tags {
		if strings.Contains(normalize(t), q) {
			return true
		}
	}
	return false
}
