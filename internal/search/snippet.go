package search

import (
	"strings"
	"unicode/utf8"
)

const ellipsis = "..."

// snippet extracts the text around the first hit of the phrase, or failing
// that of the first query word that occurs. The window spans SnippetBefore
// characters before the hit and SnippetAfter characters from its start.
// Newlines become spaces.
func (e *Engine) snippet(content, query string, words []string) string {
	pos := strings.Index(content, query)
	if pos == -1 {
		for _, w := range words {
			if pos = strings.Index(content, w); pos != -1 {
				break
			}
		}
	}

	if pos == -1 {
		return runePrefix(content, e.cfg.SnippetAfter) + ellipsis
	}

	start := backRunes(content, pos, e.cfg.SnippetBefore)
	end := forwardRunes(content, pos, e.cfg.SnippetAfter)

	s := content[start:end]
	if start > 0 {
		s = ellipsis + s
	}
	if end < len(content) {
		s += ellipsis
	}
	return strings.TrimSpace(strings.ReplaceAll(s, "\n", " "))
}

// backRunes moves n characters left of byte offset pos.
func backRunes(s string, pos, n int) int {
	for ; n > 0 && pos > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(s[:pos])
		pos -= size
	}
	return pos
}

// forwardRunes moves n characters right of byte offset pos.
func forwardRunes(s string, pos, n int) int {
	for ; n > 0 && pos < len(s); n-- {
		_, size := utf8.DecodeRuneInString(s[pos:])
		pos += size
	}
	return pos
}
