package watcher

import (
	"context"
	"log/slog"
	"sync"
)

// ChangeDetector owns the file-timestamp snapshot of a store.
// Sampling happens without the lock held; the lock only guards the swap.
type ChangeDetector struct {
	root   string
	logger *slog.Logger

	mu   sync.Mutex
	last Snapshot
}

// DetectorOption configures a ChangeDetector.
type DetectorOption func(*ChangeDetector)

// WithDetectorLogger sets the logger for skipped paths and detected changes.
func WithDetectorLogger(logger *slog.Logger) DetectorOption {
	return func(d *ChangeDetector) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// NewChangeDetector creates a detector for the store at root with an empty
// baseline, so the first Check reports every existing file as new.
func NewChangeDetector(root string, opts ...DetectorOption) *ChangeDetector {
	d := &ChangeDetector{
		root:   root,
		logger: slog.Default(),
		last:   make(Snapshot),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Root returns the watched store directory.
func (d *ChangeDetector) Root() string {
	return d.root
}

// Prime records the current state as the baseline without reporting changes.
func (d *ChangeDetector) Prime() {
	current := Sample(d.root, d.logger)

	d.mu.Lock()
	d.last = current
	d.mu.Unlock()
}

// Check samples the store, compares it with the stored snapshot and replaces
// the stored snapshot unconditionally.
func (d *ChangeDetector) Check() bool {
	current := Sample(d.root, d.logger)

	d.mu.Lock()
	previous := d.last
	d.last = current
	d.mu.Unlock()

	if !HasChanged(previous, current) {
		return false
	}

	if d.logger.Enabled(context.Background(), slog.LevelDebug) {
		for _, ev := range Diff(previous, current) {
			d.logger.Debug("skill file changed",
				slog.String("path", ev.Path),
				slog.String("op", ev.Operation.String()))
		}
	}
	return true
}

// Tracked returns the number of files in the stored snapshot.
func (d *ChangeDetector) Tracked() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.last)
}
