// Package telemetry tracks how the skill server is used: per-operation call
// counts, per-domain load counts, a bounded list of recent searches and the
// most frequent query terms. All data stays local; persistence to SQLite is
// optional.
package telemetry

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// SearchRecord is one entry of the recent-searches buffer.
type SearchRecord struct {
	Operation   string    `json:"operation"`
	Query       string    `json:"query"`
	ResultCount int       `json:"result_count"`
	Timestamp   time.Time `json:"timestamp"`
}

// TermCount represents a term and its frequency count.
type TermCount struct {
	Term  string `json:"term"`
	Count int64  `json:"count"`
}

// Details carries the optional context of a recorded operation.
type Details struct {
	// Domain increments that domain's load counter when set.
	Domain string

	// Query appends a recent-search entry when set.
	Query string

	// ResultCount is stored with the search entry.
	ResultCount int
}

// Snapshot is a point-in-time copy of the usage statistics.
type Snapshot struct {
	StartTime      time.Time        `json:"uptime_since"`
	ToolCalls      map[string]int64 `json:"tool_calls"`
	SkillLoads     map[string]int64 `json:"skill_loads"`
	RecentSearches []SearchRecord   `json:"recent_searches"`
	TopTerms       []TermCount      `json:"top_terms"`
	TotalSearches  int64            `json:"total_searches"`
}

// Uptime returns the time elapsed since StartTime, rounded to seconds.
func (s *Snapshot) Uptime() time.Duration {
	return time.Since(s.StartTime).Round(time.Second)
}

// Config configures the usage tracker.
type Config struct {
	RecentCapacity   int // Recent searches kept in memory (default: 100)
	TopTermsCapacity int // Distinct terms tracked (default: 100)
	MinTermLength    int // Shorter terms are not counted (default: 3)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		RecentCapacity:   100,
		TopTermsCapacity: 100,
		MinTermLength:    3,
	}
}

// Usage collects usage statistics. Safe for concurrent use.
type Usage struct {
	mu sync.Mutex

	toolCalls     map[string]int64
	skillLoads    map[string]int64
	searches      *CircularBuffer[SearchRecord]
	topTerms      *lru.Cache[string, int64]
	totalSearches int64
	startTime     time.Time
	cfg           Config

	// Deltas not yet written to the store
	pending pendingDelta

	store   Store
	flushMu sync.Mutex
	lock    *FileLock
	logger  *slog.Logger
	closed  bool
}

type pendingDelta struct {
	toolCalls  map[string]int64
	skillLoads map[string]int64
	terms      map[string]int64
	searches   []SearchRecord
}

func newPendingDelta() pendingDelta {
	return pendingDelta{
		toolCalls:  make(map[string]int64),
		skillLoads: make(map[string]int64),
		terms:      make(map[string]int64),
	}
}

func (p pendingDelta) empty() bool {
	return len(p.toolCalls) == 0 && len(p.skillLoads) == 0 && len(p.terms) == 0 && len(p.searches) == 0
}

// Option configures a Usage tracker.
type Option func(*Usage)

// WithStore persists usage deltas on Flush and Close. lockPath, when set,
// names a file used to serialize flushes across processes.
func WithStore(store Store, lockPath string) Option {
	return func(u *Usage) {
		u.store = store
		if lockPath != "" {
			u.lock = NewFileLock(lockPath)
		}
	}
}

// WithLogger sets the logger for flush failures.
func WithLogger(logger *slog.Logger) Option {
	return func(u *Usage) {
		if logger != nil {
			u.logger = logger
		}
	}
}

// NewUsage creates a tracker. Zero config fields take defaults.
func NewUsage(cfg Config, opts ...Option) *Usage {
	d := DefaultConfig()
	if cfg.RecentCapacity <= 0 {
		cfg.RecentCapacity = d.RecentCapacity
	}
	if cfg.TopTermsCapacity <= 0 {
		cfg.TopTermsCapacity = d.TopTermsCapacity
	}
	if cfg.MinTermLength <= 0 {
		cfg.MinTermLength = d.MinTermLength
	}

	topTerms, _ := lru.New[string, int64](cfg.TopTermsCapacity)

	u := &Usage{
		toolCalls:  make(map[string]int64),
		skillLoads: make(map[string]int64),
		searches:   NewCircularBuffer[SearchRecord](cfg.RecentCapacity),
		topTerms:   topTerms,
		startTime:  time.Now(),
		cfg:        cfg,
		pending:    newPendingDelta(),
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Record counts one invocation of operation. Deltas for the store are only
// kept when a store is configured, so an unpersisted tracker stays bounded.
func (u *Usage) Record(operation string, d Details) {
	u.mu.Lock()
	defer u.mu.Unlock()

	persist := u.store != nil

	u.toolCalls[operation]++
	if persist {
		u.pending.toolCalls[operation]++
	}

	if d.Domain != "" {
		u.skillLoads[d.Domain]++
		if persist {
			u.pending.skillLoads[d.Domain]++
		}
	}

	if d.Query == "" {
		return
	}

	rec := SearchRecord{
		Operation:   operation,
		Query:       d.Query,
		ResultCount: d.ResultCount,
		Timestamp:   time.Now(),
	}
	u.searches.Add(rec)
	u.totalSearches++
	if persist {
		u.pending.searches = append(u.pending.searches, rec)
	}

	for _, term := range ExtractTerms(d.Query, u.cfg.MinTermLength) {
		count, _ := u.topTerms.Get(term)
		u.topTerms.Add(term, count+1)
		if persist {
			u.pending.terms[term]++
		}
	}
}

// Snapshot returns a copy of the statistics. recent limits how many of the
// most recent searches are included; zero or less includes all of them.
func (u *Usage) Snapshot(recent int) *Snapshot {
	u.mu.Lock()
	defer u.mu.Unlock()

	if recent <= 0 {
		recent = u.searches.Capacity()
	}

	return &Snapshot{
		StartTime:      u.startTime,
		ToolCalls:      copyCounts(u.toolCalls),
		SkillLoads:     copyCounts(u.skillLoads),
		RecentSearches: u.searches.Last(recent),
		TopTerms:       u.sortedTerms(),
		TotalSearches:  u.totalSearches,
	}
}

// RecentSearchCount returns how many searches the buffer currently holds.
func (u *Usage) RecentSearchCount() int {
	return u.searches.Size()
}

// sortedTerms must be called with mu held.
func (u *Usage) sortedTerms() []TermCount {
	terms := make([]TermCount, 0, u.topTerms.Len())
	for _, key := range u.topTerms.Keys() {
		if count, ok := u.topTerms.Peek(key); ok {
			terms = append(terms, TermCount{Term: key, Count: count})
		}
	}
	sort.SliceStable(terms, func(i, j int) bool {
		if terms[i].Count != terms[j].Count {
			return terms[i].Count > terms[j].Count
		}
		return terms[i].Term < terms[j].Term
	})
	return terms
}

// Flush writes accumulated deltas to the store. Without a store it is a no-op.
func (u *Usage) Flush() error {
	if u.store == nil {
		return nil
	}

	u.flushMu.Lock()
	defer u.flushMu.Unlock()

	u.mu.Lock()
	delta := u.pending
	u.pending = newPendingDelta()
	u.mu.Unlock()

	if delta.empty() {
		return nil
	}

	if u.lock != nil {
		if err := u.lock.Lock(); err != nil {
			u.restore(delta)
			return err
		}
		defer func() { _ = u.lock.Unlock() }()
	}

	if err := u.write(delta); err != nil {
		u.restore(delta)
		return fmt.Errorf("flush usage: %w", err)
	}

	u.logger.Debug("usage flushed",
		slog.Int("tool_calls", len(delta.toolCalls)),
		slog.Int("terms", len(delta.terms)),
		slog.Int("searches", len(delta.searches)))
	return nil
}

func (u *Usage) write(delta pendingDelta) error {
	if err := u.store.AddCounts(KindToolCall, delta.toolCalls); err != nil {
		return err
	}
	if err := u.store.AddCounts(KindSkillLoad, delta.skillLoads); err != nil {
		return err
	}
	if err := u.store.UpsertTermCounts(delta.terms); err != nil {
		return err
	}
	return u.store.AddSearches(delta.searches)
}

// restore puts an unwritten delta back so the next flush retries it.
func (u *Usage) restore(delta pendingDelta) {
	u.mu.Lock()
	defer u.mu.Unlock()

	for k, v := range delta.toolCalls {
		u.pending.toolCalls[k] += v
	}
	for k, v := range delta.skillLoads {
		u.pending.skillLoads[k] += v
	}
	for k, v := range delta.terms {
		u.pending.terms[k] += v
	}
	u.pending.searches = append(delta.searches, u.pending.searches...)
}

// Close flushes and closes the store.
func (u *Usage) Close() error {
	u.mu.Lock()
	if u.closed {
		u.mu.Unlock()
		return nil
	}
	u.closed = true
	u.mu.Unlock()

	if u.store == nil {
		return nil
	}

	flushErr := u.Flush()
	if err := u.store.Close(); err != nil && flushErr == nil {
		return err
	}
	return flushErr
}

// ExtractTerms lower-cases a query and returns its words of at least minLen
// characters.
func ExtractTerms(query string, minLen int) []string {
	words := strings.Fields(strings.ToLower(query))
	var terms []string
	for _, w := range words {
		if len([]rune(w)) >= minLen {
			terms = append(terms, w)
		}
	}
	return terms
}

func copyCounts(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
