package watcher

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"
)

type fileStamp struct {
	modTime time.Time
	size    int64
}

// Snapshot maps absolute file paths to their last observed state.
type Snapshot map[string]fileStamp

// Sample walks every file below every domain directory of root.
// Symlinked domains are followed and their files are keyed under the link
// path, matching what the index builder reads. Entries that cannot be read
// are logged and skipped. A missing root yields an empty snapshot.
func Sample(root string, logger *slog.Logger) Snapshot {
	if logger == nil {
		logger = slog.Default()
	}
	snap := make(Snapshot)

	entries, err := os.ReadDir(root)
	if err != nil {
		return snap
	}

	for _, e := range entries {
		domainDir := filepath.Join(root, e.Name())
		walkRoot, ok := domainWalkRoot(domainDir, e)
		if !ok {
			continue
		}
		sampleDomain(snap, domainDir, walkRoot, logger)
	}
	return snap
}

// domainWalkRoot returns the directory to walk for a domain entry. WalkDir
// does not descend through a symlinked root, so links are resolved first.
func domainWalkRoot(domainDir string, e fs.DirEntry) (string, bool) {
	if e.IsDir() {
		return domainDir, true
	}
	if e.Type()&fs.ModeSymlink == 0 {
		return "", false
	}
	target, err := filepath.EvalSymlinks(domainDir)
	if err != nil {
		return "", false
	}
	info, err := os.Stat(target)
	if err != nil || !info.IsDir() {
		return "", false
	}
	return target, true
}

func sampleDomain(snap Snapshot, domainDir, walkRoot string, logger *slog.Logger) {
	_ = filepath.WalkDir(walkRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("cannot access path",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil
		}
		if d.IsDir() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			logger.Warn("cannot stat file",
				slog.String("path", path),
				slog.String("error", err.Error()))
			return nil
		}

		key := path
		if walkRoot != domainDir {
			if rel, err := filepath.Rel(walkRoot, path); err == nil {
				key = filepath.Join(domainDir, rel)
			}
		}
		snap[key] = fileStamp{
			modTime: info.ModTime(),
			size:    info.Size(),
		}
		return nil
	})
}

// HasChanged reports whether current differs from previous by any added,
// removed or modified file.
func HasChanged(previous, current Snapshot) bool {
	if len(previous) != len(current) {
		return true
	}
	for path, cur := range current {
		prev, ok := previous[path]
		if !ok || !prev.modTime.Equal(cur.modTime) || prev.size != cur.size {
			return true
		}
	}
	return false
}

// Diff lists the differences between two snapshots, sorted by path.
func Diff(previous, current Snapshot) []FileEvent {
	var events []FileEvent

	for path, cur := range current {
		prev, ok := previous[path]
		switch {
		case !ok:
			events = append(events, FileEvent{Path: path, Operation: OpCreate})
		case !prev.modTime.Equal(cur.modTime) || prev.size != cur.size:
			events = append(events, FileEvent{Path: path, Operation: OpModify})
		}
	}

	for path := range previous {
		if _, ok := current[path]; !ok {
			events = append(events, FileEvent{Path: path, Operation: OpDelete})
		}
	}

	sort.Slice(events, func(i, j int) bool {
		return events[i].Path < events[j].Path
	})
	return events
}
