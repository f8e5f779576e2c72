package preflight

import (
	"fmt"
	"path/filepath"
	"strings"
	"syscall"
)

// usageDBHeadroom is kept free next to the usage database for its WAL and
// the rows written between flushes.
const usageDBHeadroom = 32 << 20

// diskNeed is the space wanted under one directory.
type diskNeed struct {
	dir   string
	bytes uint64
	uses  []string
}

// diskNeeds resolves each write location to its nearest existing directory
// and sums the needs of locations that resolve to the same one.
func diskNeeds(t Target) []diskNeed {
	var needs []diskNeed
	add := func(dir string, bytes uint64, use string) {
		dir = existingParent(dir)
		for i := range needs {
			if needs[i].dir == dir {
				needs[i].bytes += bytes
				needs[i].uses = append(needs[i].uses, use)
				return
			}
		}
		needs = append(needs, diskNeed{dir: dir, bytes: bytes, uses: []string{use}})
	}

	add(t.LogDir, t.rotation().DiskBudget(), "logs")
	if t.Persist {
		add(filepath.Dir(t.DBPath), usageDBHeadroom, "usage db")
	}
	return needs
}

// CheckDiskSpace checks that the log directory can hold the full rotated
// log set and, with persistence on, that the usage database has headroom.
// Running short is a warning: rotation keeps the server alive regardless.
func (c *Checker) CheckDiskSpace(t Target) CheckResult {
	result := CheckResult{Name: "disk_space"}

	var parts, dirs []string
	for _, need := range diskNeeds(t) {
		label := strings.Join(need.uses, "+")
		dirs = append(dirs, need.dir)

		free, err := freeBytes(need.dir)
		if err != nil {
			result.Status = max(result.Status, StatusFail)
			parts = append(parts, fmt.Sprintf("%s: %v", label, err))
			continue
		}
		if free < need.bytes {
			result.Status = max(result.Status, StatusWarn)
		}
		parts = append(parts, fmt.Sprintf("%s: %s free, %s needed", label, formatBytes(free), formatBytes(need.bytes)))
	}

	result.Message = strings.Join(parts, "; ")
	result.Details = strings.Join(dirs, ", ")
	return result
}

func freeBytes(dir string) (uint64, error) {
	var stat syscall.Statfs_t
	if err := syscall.Statfs(dir, &stat); err != nil {
		return 0, fmt.Errorf("statfs %s: %w", dir, err)
	}
	return stat.Bavail * uint64(stat.Bsize), nil
}

// formatBytes renders n with a binary unit, e.g. "60.0 MB".
func formatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d bytes", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit && exp < 3; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}
