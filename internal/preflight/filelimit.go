package preflight

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"syscall"
)

// baseDescriptors covers stdio, the log file, the usage database with its
// WAL, and the runtime's own descriptors.
const baseDescriptors = 32

// descriptorNeed estimates the files the server holds open at peak: one per
// index worker reading a skill file, plus one per watched directory when
// fsnotify is on (its kqueue backend keeps a descriptor per watch).
func descriptorNeed(t Target) (need, watched int) {
	need = baseDescriptors + max(t.IndexWorkers, 1)
	if t.Fsnotify {
		watched = countWatchDirs(t.SkillsDir)
		need += watched
	}
	return need, watched
}

// countWatchDirs counts the directories under root that the watcher
// subscribes to, counting each symlinked domain as one.
func countWatchDirs(root string) int {
	n := 0
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		switch {
		case d.IsDir():
			n++
		case d.Type()&fs.ModeSymlink != 0 && filepath.Dir(path) == root:
			n++
		}
		return nil
	})
	return n
}

// CheckFileDescriptors checks the soft RLIMIT_NOFILE against what the
// configured workers and watcher will need.
func (c *Checker) CheckFileDescriptors(t Target) CheckResult {
	result := CheckResult{
		Name:     "file_descriptors",
		Required: true,
	}

	var rLimit syscall.Rlimit
	if err := syscall.Getrlimit(syscall.RLIMIT_NOFILE, &rLimit); err != nil {
		result.Status = StatusFail
		result.Message = fmt.Sprintf("failed to read descriptor limit: %v", err)
		return result
	}

	need, watched := descriptorNeed(t)
	result.Message = fmt.Sprintf("limit %d, need %d", rLimit.Cur, need)
	result.Details = fmt.Sprintf("%d index workers, %d watched directories", max(t.IndexWorkers, 1), watched)

	if rLimit.Cur < uint64(need) {
		result.Status = StatusFail
		result.Details += fmt.Sprintf("; run 'ulimit -n %d' or lower performance.index_workers", max(2*need, 1024))
		return result
	}
	result.Status = StatusPass
	return result
}
