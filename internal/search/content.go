package search

import (
	"strings"

	"github.com/Aman-CERP/skillsmcp/internal/skill"
)

// matchContent scores every entry against the lower-cased query.
func (e *Engine) matchContent(entries []skill.ContentEntry, query string, words []string) []Result {
	var results []Result

	for _, entry := range entries {
		score := scoreContent(entry.Content, query, words)
		if score <= 0 {
			continue
		}
		results = append(results, Result{
			Domain:    entry.Domain,
			SubSkill:  entry.SubSkill,
			File:      entry.File,
			Score:     round3(score),
			MatchType: MatchContent,
			Snippet:   e.snippet(entry.Content, query, words),
		})
	}
	return results
}

// scoreContent ranks one document. content and query must already be
// lower-cased.
//
//   - phrase present: 1.0, or 1.2 when the whole phrase lies in the first
//     500 characters
//   - every word present: 0.7 plus 0.05 per occurrence, bonus capped at 0.2
//   - some words present: 0.3 scaled by the fraction of words found
func scoreContent(content, query string, words []string) float64 {
	if strings.Contains(content, query) {
		if strings.Contains(runePrefix(content, EarlyMatchWindow), query) {
			return ScorePhraseEarly
		}
		return ScorePhrase
	}

	if len(words) == 0 {
		return 0
	}

	matched, occurrences := 0, 0
	for _, w := range words {
		if n := strings.Count(content, w); n > 0 {
			matched++
			occurrences += n
		}
	}

	switch {
	case matched == len(words):
		return ScoreAllWords + min(ScoreAllWordsBonus*float64(occurrences), ScoreAllWordsMaxAdd)
	case matched > 0:
		return ScorePartialWeight * float64(matched) / float64(len(words))
	default:
		return 0
	}
}

// runePrefix returns at most n leading characters of s.
func runePrefix(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
