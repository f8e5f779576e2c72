package search

import (
	"fmt"
	"strings"
	"unicode/utf8"

	skerrors "github.com/Aman-CERP/skillsmcp/internal/errors"
)

// Limit bounds.
const (
	MinLimit = 1
	MaxLimit = 100
)

// ClampLimit applies def when limit is zero and clamps to [MinLimit, MaxLimit].
func ClampLimit(limit, def int) int {
	if limit == 0 {
		limit = def
	}
	if limit < MinLimit {
		return MinLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// ValidateQuery rejects blank and oversized queries.
func (c Config) ValidateQuery(query string) error {
	if strings.TrimSpace(query) == "" {
		return skerrors.InvalidInput(skerrors.ErrCodeQueryEmpty, "Query cannot be empty")
	}
	if utf8.RuneCountInString(query) > c.MaxQueryLength {
		return skerrors.InvalidInput(skerrors.ErrCodeQueryTooLong,
			fmt.Sprintf("Query too long (max %d characters)", c.MaxQueryLength))
	}
	return nil
}

// queryTerms lower-cases and splits a content query, enforcing the term limit.
func (c Config) queryTerms(query string) (string, []string, error) {
	lower := strings.ToLower(query)
	words := strings.Fields(lower)
	if len(words) > c.MaxQueryTerms {
		return "", nil, skerrors.InvalidInput(skerrors.ErrCodeTooManyTerms,
			fmt.Sprintf("Too many search terms (max %d words)", c.MaxQueryTerms))
	}
	return lower, words, nil
}
