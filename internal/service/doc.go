// Package service is the query facade over a skill store.
//
// A Service owns four independently locked regions: the metadata snapshot,
// the content snapshot, the change detector's file-timestamp snapshot and the
// usage statistics. Snapshots are built without any lock held and swapped in
// under their own lock, so readers see either the previous or the next index,
// never a partial one. The first read triggers the initial load.
package service
