// Package properties maps front matter onto remote page properties.
package properties

import (
	"strings"
	"unicode"
)

// Reserved labels.
const (
	TitleLabel = "Title"
	PathLabel  = "Path"
	URLLabel   = "URL"
)

// Label converts a front-matter key into its display label: words are split
// on separators and lower-to-upper case changes, then title-cased and joined
// with single spaces. "created_at" and "createdAt" both become "Created At".
func Label(key string) string {
	words := splitWords(key)
	for i, w := range words {
		rs := []rune(strings.ToLower(w))
		rs[0] = unicode.ToUpper(rs[0])
		words[i] = string(rs)
	}
	return strings.Join(words, " ")
}

func splitWords(s string) []string {
	var words []string
	var cur []rune
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}

	var prev rune
	for _, r := range s {
		switch {
		case !unicode.IsLetter(r) && !unicode.IsDigit(r):
			flush()
		case unicode.IsUpper(r) && (unicode.IsLower(prev) || unicode.IsDigit(prev)):
			flush()
			cur = append(cur, r)
		default:
			cur = append(cur, r)
		}
		prev = r
	}
	flush()
	return words
}
