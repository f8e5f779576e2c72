// Package search ranks skills and skill documents against a text query.
//
// Two independent algorithms share one result shape:
//   - Metadata search matches the query against domain names, descriptions,
//     tags, sub-skill names and triggers, using first-match priority rules.
//   - Content search matches the query against lower-cased document bodies,
//     scoring phrase hits above all-words hits above partial hits.
//
// Neither algorithm uses an inverted index; every search is a linear scan of
// the current snapshot, which is small by construction.
package search

import (
	"fmt"
	"strings"
)

// MatchType records which field produced a result.
type MatchType string

const (
	MatchName        MatchType = "name"
	MatchDescription MatchType = "description"
	MatchTags        MatchType = "tags"
	MatchTriggers    MatchType = "triggers"
	MatchContent     MatchType = "content"
)

// Metadata search scores.
const (
	ScoreDomainName        = 0.9
	ScoreDomainDescription = 0.7
	ScoreDomainTags        = 0.8
	ScoreSubSkillName      = 0.85
	ScoreSubSkillTriggers  = 0.9
)

// Content search scores.
const (
	ScorePhrase         = 1.0
	ScorePhraseEarly    = 1.2
	ScoreAllWords       = 0.7
	ScoreAllWordsBonus  = 0.05
	ScoreAllWordsMaxAdd = 0.2
	ScorePartialWeight  = 0.3

	// EarlyMatchWindow is how many leading characters count as an early hit.
	EarlyMatchWindow = 500
)

// Result is a single ranked hit.
type Result struct {
	// Domain is the skill domain name.
	Domain string `json:"domain"`

	// SubSkill is set when the hit belongs to a sub-skill.
	SubSkill string `json:"sub_skill,omitempty"`

	// Score is the relevance score, higher is better.
	Score float64 `json:"score"`

	// MatchType is the field that matched.
	MatchType MatchType `json:"match_type"`

	// File is the document path for content hits.
	File string `json:"file,omitempty"`

	// Snippet is the text around a content hit.
	Snippet string `json:"snippet,omitempty"`
}

// Response is the result list of one search.
type Response struct {
	Query        string   `json:"query"`
	Results      []Result `json:"results"`
	TotalMatches int      `json:"total_matches"`
	Truncated    bool     `json:"truncated"`
}

// ParseMatchTypes converts names such as "tags" or "triggers" into match
// types. Unknown names are returned as an error.
func ParseMatchTypes(names []string) ([]MatchType, error) {
	var types []MatchType
	for _, n := range names {
		mt := MatchType(strings.ToLower(strings.TrimSpace(n)))
		switch mt {
		case MatchName, MatchDescription, MatchTags, MatchTriggers, MatchContent:
			types = append(types, mt)
		case "":
		default:
			return nil, fmt.Errorf("unknown match type %q (valid: name, description, tags, triggers, content)", n)
		}
	}
	return types, nil
}

// Options configures a search call.
type Options struct {
	// Limit is the maximum number of results. Zero selects the caller's
	// default; every value is clamped to [1, 100].
	Limit int

	// Domains restricts results to these domain names. Empty means all.
	Domains []string

	// MatchTypes restricts results to these match types. Empty means all.
	MatchTypes []MatchType

	// MinScore drops results scoring below it.
	MinScore float64
}

// Config holds query limits and snippet geometry.
type Config struct {
	// MaxQueryLength is the longest accepted query in characters.
	MaxQueryLength int

	// MaxQueryTerms is the most whitespace-separated words content search accepts.
	MaxQueryTerms int

	// SnippetBefore is how many characters precede a hit in a snippet.
	SnippetBefore int

	// SnippetAfter is how many characters follow the start of a hit.
	SnippetAfter int

	// DefaultSkillLimit applies to metadata searches when Options.Limit is zero.
	DefaultSkillLimit int

	// DefaultContentLimit applies to content searches when Options.Limit is zero.
	DefaultContentLimit int
}

// DefaultConfig returns the standard limits.
func DefaultConfig() Config {
	return Config{
		MaxQueryLength:      1000,
		MaxQueryTerms:       100,
		SnippetBefore:       50,
		SnippetAfter:        150,
		DefaultSkillLimit:   5,
		DefaultContentLimit: 10,
	}
}

// WithDefaults fills zero fields from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.MaxQueryLength <= 0 {
		c.MaxQueryLength = d.MaxQueryLength
	}
	if c.MaxQueryTerms <= 0 {
		c.MaxQueryTerms = d.MaxQueryTerms
	}
	if c.SnippetBefore <= 0 {
		c.SnippetBefore = d.SnippetBefore
	}
	if c.SnippetAfter <= 0 {
		c.SnippetAfter = d.SnippetAfter
	}
	if c.DefaultSkillLimit <= 0 {
		c.DefaultSkillLimit = d.DefaultSkillLimit
	}
	if c.DefaultContentLimit <= 0 {
		c.DefaultContentLimit = d.DefaultContentLimit
	}
	return c
}
