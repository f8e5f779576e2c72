package index

import (
	"time"

	"github.com/Aman-CERP/skillsmcp/internal/skill"
)

// MetaSnapshot is an immutable view of every loaded metadata record.
type MetaSnapshot struct {
	// Skills is in directory iteration order.
	Skills []skill.Meta

	// Errors collects read, decode and schema problems from the load.
	Errors []string

	// LoadedAt is when the snapshot was built.
	LoadedAt time.Time
}

// EmptyMeta returns a snapshot with no skills.
func EmptyMeta() *MetaSnapshot {
	return &MetaSnapshot{Skills: []skill.Meta{}, Errors: []string{}}
}

// Find returns the record with the given name.
func (s *MetaSnapshot) Find(name string) (skill.Meta, bool) {
	if s == nil {
		return skill.Meta{}, false
	}
	for _, m := range s.Skills {
		if m.Name == name {
			return m, true
		}
	}
	return skill.Meta{}, false
}

// Len returns the number of records.
func (s *MetaSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Skills)
}

// ContentSnapshot is an immutable, ordered set of indexed documents.
type ContentSnapshot struct {
	entries []skill.ContentEntry
	byKey   map[string]int
}

// NewContentSnapshot indexes entries by key. Later duplicates win.
func NewContentSnapshot(entries []skill.ContentEntry) *ContentSnapshot {
	s := &ContentSnapshot{
		entries: make([]skill.ContentEntry, 0, len(entries)),
		byKey:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if i, ok := s.byKey[e.Key()]; ok {
			s.entries[i] = e
			continue
		}
		s.byKey[e.Key()] = len(s.entries)
		s.entries = append(s.entries, e)
	}
	return s
}

// Len returns the number of indexed documents.
func (s *ContentSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.entries)
}

// Entries returns the documents in index order. The slice is shared and must
// not be modified.
func (s *ContentSnapshot) Entries() []skill.ContentEntry {
	if s == nil {
		return nil
	}
	return s.entries
}

// Get looks up a document by "<domain>:<file>" key.
func (s *ContentSnapshot) Get(key string) (skill.ContentEntry, bool) {
	if s == nil {
		return skill.ContentEntry{}, false
	}
	i, ok := s.byKey[key]
	if !ok {
		return skill.ContentEntry{}, false
	}
	return s.entries[i], true
}
