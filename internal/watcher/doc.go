// Package watcher detects changes in a skill store and keeps the in-memory
// index fresh.
//
// Change detection is poll based: a ChangeDetector samples the modification
// time of every file under every domain directory and compares the sample
// with the previous one. A Refresher runs that check on a fixed interval and
// triggers a reload when anything was added, modified or removed. Index
// staleness is therefore bounded by the poll interval.
//
// When enabled, fsnotify events only shorten that window by waking the
// refresher early. The poll comparison remains the sole authority on whether
// a reload happens, so missed or coalesced events are harmless.
//
// Usage:
//
//	det := watcher.NewChangeDetector("skills")
//	r := watcher.NewRefresher(det, svc.Reload, watcher.DefaultOptions())
//	go r.Run(ctx)
package watcher
