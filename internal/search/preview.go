package search

import (
	"regexp"
	"strings"
)

// Ellipsis marks a truncated preview.
const Ellipsis = "…"

var (
	tagPattern        = regexp.MustCompile(`<[^>]*>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// StripMarkup removes tags and collapses whitespace, leaving plain text.
func StripMarkup(content string) string {
	plain := tagPattern.ReplaceAllString(content, " ")
	plain = whitespacePattern.ReplaceAllString(plain, " ")
	return strings.TrimSpace(plain)
}

// Preview builds the plain-text excerpt shown in search results: the first
// maxLen characters of the markup-stripped content, with an ellipsis marker
// only when the untruncated plain text is longer.
func Preview(content string, maxLen int) string {
	plain := StripMarkup(content)
	runes := []rune(plain)
	if len(runes) <= maxLen {
		return plain
	}
	return string(runes[:maxLen]) + Ellipsis
}
