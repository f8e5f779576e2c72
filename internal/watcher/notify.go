package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Nudger turns fsnotify events under a store into coalesced wake-up signals.
// It never reports what changed; the refresher re-samples to find out.
type Nudger struct {
	fsw    *fsnotify.Watcher
	root   string
	out    chan struct{}
	logger *slog.Logger
}

// NewNudger watches root and every directory below it.
func NewNudger(root string, logger *slog.Logger) (*Nudger, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	n := &Nudger{
		fsw:    fsw,
		root:   root,
		out:    make(chan struct{}, 1),
		logger: logger,
	}
	if err := n.addRecursive(root); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("add directories to watcher: %w", err)
	}
	return n, nil
}

// C returns the wake-up channel. Bursts collapse into a single pending signal.
func (n *Nudger) C() <-chan struct{} {
	return n.out
}

// Run forwards events until ctx is cancelled or the watcher is closed.
func (n *Nudger) Run(ctx context.Context) {
	defer func() { _ = n.fsw.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-n.fsw.Events:
			if !ok {
				return
			}
			if event.Op&fsnotify.Chmod == event.Op {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = n.addRecursive(event.Name)
				}
			}
			n.signal()
		case err, ok := <-n.fsw.Errors:
			if !ok {
				return
			}
			n.logger.Warn("fsnotify error", slog.String("error", err.Error()))
		}
	}
}

func (n *Nudger) signal() {
	select {
	case n.out <- struct{}{}:
	default:
	}
}

func (n *Nudger) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err == nil && d.Type()&fs.ModeSymlink != 0 && filepath.Dir(path) == n.root {
			// Linked domain: WalkDir will not descend, so watch the target.
			if target, ok := domainWalkRoot(path, d); ok {
				_ = n.addRecursive(target)
			}
			return nil
		}
		if err != nil {
			return nil // Skip paths we can't access
		}
		if !d.IsDir() {
			return nil
		}
		if path == dir {
			return n.fsw.Add(path)
		}
		if err := n.fsw.Add(path); err != nil {
			n.logger.Debug("cannot watch directory",
				slog.String("path", path),
				slog.String("error", err.Error()))
		}
		return nil
	})
}
