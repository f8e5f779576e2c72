package search

import (
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/Aman-CERP/skillsmcp/internal/skill"
)

// Engine runs searches over caller-supplied snapshots. It holds no index
// state of its own and is safe for concurrent use.
type Engine struct {
	cfg    Config
	logger *slog.Logger
}

// EngineOption configures the search engine.
type EngineOption func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEngine creates a search engine. Zero config fields take defaults.
func NewEngine(cfg Config, opts ...EngineOption) *Engine {
	e := &Engine{
		cfg:    cfg.WithDefaults(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the effective configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Metadata ranks domains and sub-skills by their metadata.
func (e *Engine) Metadata(skills []skill.Meta, query string, opts Options) (*Response, error) {
	if err := e.cfg.ValidateQuery(query); err != nil {
		return nil, err
	}
	start := time.Now()

	results := ApplyFilters(matchMetadata(skills, query), opts)
	resp := finalize(query, results, ClampLimit(opts.Limit, e.cfg.DefaultSkillLimit))

	e.logger.Debug("metadata search complete",
		slog.String("query", query),
		slog.Int("matches", resp.TotalMatches),
		slog.Duration("duration", time.Since(start)))
	return resp, nil
}

// Content ranks indexed documents by full-text containment.
func (e *Engine) Content(entries []skill.ContentEntry, query string, opts Options) (*Response, error) {
	if err := e.cfg.ValidateQuery(query); err != nil {
		return nil, err
	}
	lower, words, err := e.cfg.queryTerms(query)
	if err != nil {
		return nil, err
	}
	start := time.Now()

	results := ApplyFilters(e.matchContent(entries, lower, words), opts)
	resp := finalize(query, results, ClampLimit(opts.Limit, e.cfg.DefaultContentLimit))

	e.logger.Debug("content search complete",
		slog.String("query", query),
		slog.Int("terms", len(words)),
		slog.Int("matches", resp.TotalMatches),
		slog.Duration("duration", time.Since(start)))
	return resp, nil
}

// All runs both searches and merges them. Metadata hits come first so that
// a content hit for the same domain and sub-skill is dropped as a duplicate;
// the merged list is then ranked and truncated again.
func (e *Engine) All(skills []skill.Meta, entries []skill.ContentEntry, query string, opts Options) (*Response, error) {
	meta, err := e.Metadata(skills, query, opts)
	if err != nil {
		return nil, err
	}
	content, err := e.Content(entries, query, opts)
	if err != nil {
		return nil, err
	}

	type key struct{ domain, sub string }
	seen := make(map[key]bool, len(meta.Results))
	merged := make([]Result, 0, len(meta.Results)+len(content.Results))
	for _, r := range meta.Results {
		seen[key{r.Domain, r.SubSkill}] = true
		merged = append(merged, r)
	}
	for _, r := range content.Results {
		k := key{r.Domain, r.SubSkill}
		if seen[k] {
			continue
		}
		seen[k] = true
		merged = append(merged, r)
	}

	return finalize(query, merged, ClampLimit(opts.Limit, e.cfg.DefaultContentLimit)), nil
}

// finalize sorts by descending score, keeping insertion order for ties,
// and truncates to limit.
func finalize(query string, results []Result, limit int) *Response {
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	resp := &Response{
		Query:        query,
		TotalMatches: len(results),
	}
	if len(results) > limit {
		results = results[:limit]
		resp.Truncated = true
	}
	if results == nil {
		results = []Result{}
	}
	resp.Results = results
	return resp
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
