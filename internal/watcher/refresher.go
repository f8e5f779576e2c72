package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// ReloadFunc rebuilds the index. It is called from the refresher goroutine.
type ReloadFunc func(ctx context.Context) error

// Refresher polls a ChangeDetector and reloads the index on change.
// A failing cycle is logged and the loop continues.
type Refresher struct {
	detector *ChangeDetector
	reload   ReloadFunc
	opts     Options
	logger   *slog.Logger
}

// NewRefresher creates a refresher. Call Run to start it.
func NewRefresher(detector *ChangeDetector, reload ReloadFunc, opts Options) *Refresher {
	return &Refresher{
		detector: detector,
		reload:   reload,
		opts:     opts.WithDefaults(),
		logger:   detector.logger,
	}
}

// Run blocks until ctx is cancelled. The detector should already be primed
// so that the first cycle does not reload an index that was just built.
func (r *Refresher) Run(ctx context.Context) error {
	var nudges <-chan struct{}
	if r.opts.UseFsnotify {
		n, err := NewNudger(r.detector.Root(), r.logger)
		if err != nil {
			r.logger.Warn("fsnotify unavailable, polling only", slog.String("error", err.Error()))
		} else {
			go n.Run(ctx)
			nudges = n.C()
		}
	}

	r.logger.Info("skill refresher started",
		slog.String("root", r.detector.Root()),
		slog.Int("tracked_files", r.detector.Tracked()),
		slog.Duration("interval", r.opts.PollInterval),
		slog.Bool("fsnotify", nudges != nil))

	ticker := time.NewTicker(r.opts.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("skill refresher stopped")
			return ctx.Err()
		case <-ticker.C:
		case <-nudges:
		}

		if err := r.cycle(ctx); err != nil {
			r.logger.Error("refresh cycle failed", slog.String("error", err.Error()))
		}
	}
}

// cycle runs one check-and-maybe-reload step. Panics are converted into
// errors so one bad cycle cannot stop the loop.
func (r *Refresher) cycle(ctx context.Context) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in refresh cycle: %v", p)
		}
	}()

	if !r.detector.Check() {
		return nil
	}

	r.logger.Info("skill changes detected, reloading index")
	if err := r.reload(ctx); err != nil {
		return fmt.Errorf("reload index: %w", err)
	}
	return nil
}
