package catalog

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripMarks drops combining marks after decomposition, so "Sữa" becomes "Sua".
var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func generateSlug(name string) string {
	slug, _, err := transform.String(stripMarks, strings.ToLower(name))
	if err != nil {
		slug = strings.ToLower(name)
	}
	// đ has no decomposition
	slug = strings.ReplaceAll(slug, "đ", "d")

	slug = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			return r
		}
		if r == ' ' {
			return '-'
		}
		return -1
	}, slug)

	slug = strings.Trim(slug, "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}
	return slug
}
