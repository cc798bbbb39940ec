// Package slug derives URL path segments from titles.
package slug

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxLength bounds generated slugs. Longer titles are cut at a word boundary.
const MaxLength = 80

// Make lowercases s, strips diacritics and joins the remaining runs of
// letters and digits with single hyphens. It returns "" when s has no
// letters or digits.
func Make(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	pending := false
	for _, r := range strings.ToLower(folded) {
		if isSlugRune(r) {
			if pending && b.Len() > 0 {
				b.WriteByte('-')
			}
			pending = false
			b.WriteRune(r)
			continue
		}
		pending = true
	}

	out := b.String()
	if len(out) > MaxLength {
		out = out[:MaxLength]
		if i := strings.LastIndexByte(out, '-'); i > 0 {
			out = out[:i]
		}
		out = strings.TrimRight(out, "-")
	}
	return out
}

// isSlugRune accepts ASCII letters and digits only, so that slugs stay
// valid for the URL-safe pattern.
func isSlugRune(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
}

// OrFallback returns Make(s), or prefix-<first 8 characters of id> when s
// yields nothing.
func OrFallback(s, prefix, id string) string {
	if out := Make(s); out != "" {
		return out
	}
	short := strings.ReplaceAll(id, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	return prefix + "-" + strings.ToLower(short)
}
