// Package index builds the in-memory snapshots of a skill store.
//
// Two snapshots are produced from the same directory listing: a metadata
// snapshot (parsed _meta.json records plus validation errors) and a content
// snapshot (lower-cased document bodies keyed by "<domain>:<file>"). Both are
// immutable once built; callers replace them wholesale on reload.
//
// A malformed domain never stops the scan. Unreadable files are logged and
// skipped, and metadata problems are collected as strings.
package index
