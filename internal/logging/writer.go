package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// SyncPolicy decides when the log file is flushed to disk.
type SyncPolicy string

const (
	// SyncEveryRecord flushes after each record so "skillsmcp logs -f"
	// shows tool calls as they happen.
	SyncEveryRecord SyncPolicy = "record"

	// SyncOnRotate only flushes when a file is rotated or closed.
	SyncOnRotate SyncPolicy = "rotate"
)

// ParseSyncPolicy accepts "record" or "rotate". Empty selects SyncEveryRecord.
func ParseSyncPolicy(s string) (SyncPolicy, error) {
	switch p := SyncPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return SyncEveryRecord, nil
	case SyncEveryRecord, SyncOnRotate:
		return p, nil
	default:
		return "", fmt.Errorf("unknown log sync policy %q (valid: record, rotate)", s)
	}
}

// Rotation bounds the disk used by the server log.
type Rotation struct {
	// MaxSizeMB is the size a file may reach before it is rotated.
	MaxSizeMB int
	// MaxFiles is how many rotated files (server.log.1 ... server.log.N)
	// are kept. Zero keeps none and truncates instead.
	MaxFiles int
	Sync     SyncPolicy
}

// DefaultRotation keeps five 10MB backups and syncs every record.
func DefaultRotation() Rotation {
	return Rotation{MaxSizeMB: 10, MaxFiles: 5, Sync: SyncEveryRecord}
}

// DiskBudget is the most space the log and its backups can occupy.
func (r Rotation) DiskBudget() uint64 {
	return uint64(r.MaxSizeMB) * 1024 * 1024 * uint64(r.MaxFiles+1)
}

// RotatingWriter is an io.Writer that moves the file aside once it would
// grow past the configured size. Safe for concurrent use.
type RotatingWriter struct {
	path    string
	limit   int64
	backups int
	policy  SyncPolicy

	mu   sync.Mutex
	file *os.File
	size int64
}

// NewRotatingWriter opens path for appending, creating its directory.
func NewRotatingWriter(path string, rot Rotation) (*RotatingWriter, error) {
	if rot.Sync == "" {
		rot.Sync = SyncEveryRecord
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	w := &RotatingWriter{
		path:    path,
		limit:   int64(rot.MaxSizeMB) * 1024 * 1024,
		backups: max(rot.MaxFiles, 0),
		policy:  rot.Sync,
	}
	if err := w.open(); err != nil {
		return nil, err
	}
	return w, nil
}

// Write appends p, rotating first when p would push a non-empty file past
// the size limit. A failed rotation is reported on stderr and the record is
// still written to the current file.
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return 0, os.ErrClosed
	}
	if w.size > 0 && w.size+int64(len(p)) > w.limit {
		if err := w.rotate(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "skillsmcp: log rotation failed: %v\n", err)
		}
		if w.file == nil {
			if err := w.open(); err != nil {
				return 0, err
			}
		}
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	if err == nil && w.policy == SyncEveryRecord {
		_ = w.file.Sync()
	}
	return n, err
}

// Sync flushes the current file.
func (w *RotatingWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	return w.file.Sync()
}

// Close flushes and closes the file. Later writes fail with os.ErrClosed.
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	_ = w.file.Sync()
	err := w.file.Close()
	w.file = nil
	return err
}

func (w *RotatingWriter) open() error {
	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to stat log file: %w", err)
	}
	w.file, w.size = f, info.Size()
	return nil
}

// backupName returns path.n, the n-th most recent rotated file.
func (w *RotatingWriter) backupName(n int) string {
	return fmt.Sprintf("%s.%d", w.path, n)
}

// rotate shifts server.log.(N-1) to .N down to server.log to .1, dropping
// the oldest. With no backups the file is truncated. mu must be held.
func (w *RotatingWriter) rotate() error {
	_ = w.file.Sync()
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close log file: %w", err)
	}
	w.file = nil

	if w.backups == 0 {
		if err := os.Truncate(w.path, 0); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to truncate log file: %w", err)
		}
		return w.open()
	}

	_ = os.Remove(w.backupName(w.backups))
	for n := w.backups - 1; n >= 1; n-- {
		if err := os.Rename(w.backupName(n), w.backupName(n+1)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to shift %s: %w", w.backupName(n), err)
		}
	}
	if err := os.Rename(w.path, w.backupName(1)); err != nil && !os.IsNotExist(err) {
		// Keep logging into the old file rather than losing records.
		if openErr := w.open(); openErr != nil {
			return openErr
		}
		return fmt.Errorf("failed to rotate log file: %w", err)
	}
	return w.open()
}
