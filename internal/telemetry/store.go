package telemetry

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// Count kinds stored in usage_counts.
const (
	KindToolCall  = "tool_call"
	KindSkillLoad = "skill_load"
)

// maxStoredSearches bounds the persisted recent-search table.
const maxStoredSearches = 1000

// Store persists usage deltas.
type Store interface {
	// AddCounts adds counts of the given kind.
	AddCounts(kind string, counts map[string]int64) error

	// GetCounts returns the accumulated counts of a kind.
	GetCounts(kind string) (map[string]int64, error)

	// UpsertTermCounts adds term frequency counts.
	UpsertTermCounts(terms map[string]int64) error

	// GetTopTerms retrieves the top N terms by frequency.
	GetTopTerms(limit int) ([]TermCount, error)

	// AddSearches appends search records.
	AddSearches(records []SearchRecord) error

	// GetRecentSearches returns up to limit records, newest first.
	GetRecentSearches(limit int) ([]SearchRecord, error)

	// Close releases resources.
	Close() error
}

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// OpenSQLiteStore opens or creates the usage database at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create telemetry directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single writer to prevent lock contention
	db.SetMaxOpenConns(1)

	// DSN params may be ignored by modernc.org/sqlite, so set pragmas directly
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("set pragma: %w", err)
		}
	}

	if err := InitSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

// InitSchema creates the usage tables if they don't exist.
func InitSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS usage_counts (
		kind TEXT NOT NULL,
		name TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (kind, name)
	);

	CREATE TABLE IF NOT EXISTS query_terms (
		term TEXT PRIMARY KEY,
		count INTEGER NOT NULL DEFAULT 1,
		last_seen TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_query_terms_count ON query_terms(count DESC);

	CREATE TABLE IF NOT EXISTS recent_searches (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		operation TEXT NOT NULL,
		query TEXT NOT NULL,
		result_count INTEGER NOT NULL DEFAULT 0,
		timestamp_ms INTEGER NOT NULL
	);
	`

	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("create telemetry schema: %w", err)
	}
	return nil
}

// AddCounts adds counts of the given kind.
func (s *SQLiteStore) AddCounts(kind string, counts map[string]int64) error {
	if len(counts) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO usage_counts (kind, name, count)
		VALUES (?, ?, ?)
		ON CONFLICT(kind, name) DO UPDATE SET count = count + excluded.count
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for name, count := range counts {
		if _, err := stmt.Exec(kind, name, count); err != nil {
			return fmt.Errorf("upsert usage count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetCounts returns the accumulated counts of a kind.
func (s *SQLiteStore) GetCounts(kind string) (map[string]int64, error) {
	rows, err := s.db.Query(`SELECT name, count FROM usage_counts WHERE kind = ?`, kind)
	if err != nil {
		return nil, fmt.Errorf("query usage counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var name string
		var count int64
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		counts[name] = count
	}
	return counts, rows.Err()
}

// UpsertTermCounts adds term frequency counts.
func (s *SQLiteStore) UpsertTermCounts(terms map[string]int64) error {
	if len(terms) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO query_terms (term, count, last_seen)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(term) DO UPDATE SET
			count = count + excluded.count,
			last_seen = CURRENT_TIMESTAMP
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for term, count := range terms {
		if _, err := stmt.Exec(term, count); err != nil {
			return fmt.Errorf("upsert term count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetTopTerms retrieves the top N terms by frequency.
func (s *SQLiteStore) GetTopTerms(limit int) ([]TermCount, error) {
	rows, err := s.db.Query(`
		SELECT term, count
		FROM query_terms
		ORDER BY count DESC, term ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query top terms: %w", err)
	}
	defer rows.Close()

	var terms []TermCount
	for rows.Next() {
		var tc TermCount
		if err := rows.Scan(&tc.Term, &tc.Count); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		terms = append(terms, tc)
	}
	return terms, rows.Err()
}

// AddSearches appends search records and trims the table to the newest
// maxStoredSearches rows.
func (s *SQLiteStore) AddSearches(records []SearchRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(`
		INSERT INTO recent_searches (operation, query, result_count, timestamp_ms)
		VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		if _, err := stmt.Exec(r.Operation, r.Query, r.ResultCount, r.Timestamp.UnixMilli()); err != nil {
			return fmt.Errorf("insert search: %w", err)
		}
	}

	if _, err := tx.Exec(`
		DELETE FROM recent_searches
		WHERE id NOT IN (
			SELECT id FROM recent_searches
			ORDER BY id DESC
			LIMIT ?
		)
	`, maxStoredSearches); err != nil {
		return fmt.Errorf("trim searches: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

// GetRecentSearches returns up to limit records, newest first.
func (s *SQLiteStore) GetRecentSearches(limit int) ([]SearchRecord, error) {
	rows, err := s.db.Query(`
		SELECT operation, query, result_count, timestamp_ms
		FROM recent_searches
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent searches: %w", err)
	}
	defer rows.Close()

	var records []SearchRecord
	for rows.Next() {
		var r SearchRecord
		var ms int64
		if err := rows.Scan(&r.Operation, &r.Query, &r.ResultCount, &ms); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		r.Timestamp = time.UnixMilli(ms)
		records = append(records, r)
	}
	return records, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// LoadSnapshot rebuilds a Snapshot from persisted data. Recent searches are
// returned oldest first like Usage.Snapshot. TotalSearches is the number of
// persisted search tool calls. StartTime is left zero.
func LoadSnapshot(store Store, recent, topTerms int) (*Snapshot, error) {
	calls, err := store.GetCounts(KindToolCall)
	if err != nil {
		return nil, err
	}
	loads, err := store.GetCounts(KindSkillLoad)
	if err != nil {
		return nil, err
	}
	terms, err := store.GetTopTerms(topTerms)
	if err != nil {
		return nil, err
	}
	searches, err := store.GetRecentSearches(recent)
	if err != nil {
		return nil, err
	}
	slices.Reverse(searches)
	if searches == nil {
		searches = []SearchRecord{}
	}

	var total int64
	for op, n := range calls {
		if strings.HasPrefix(op, "search_") {
			total += n
		}
	}

	return &Snapshot{
		ToolCalls:      calls,
		SkillLoads:     loads,
		RecentSearches: searches,
		TopTerms:       terms,
		TotalSearches:  total,
	}, nil
}
