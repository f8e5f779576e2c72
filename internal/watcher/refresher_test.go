package watcher

import (
	"context"
	"errors"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefresher_ReloadsOnChange(t *testing.T) {
	// Given: a primed detector and a counting reload
	root := newStore(t)
	d := NewChangeDetector(root)
	d.Prime()

	var reloads atomic.Int32
	r := NewRefresher(d, func(context.Context) error {
		reloads.Add(1)
		return nil
	}, Options{PollInterval: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	// When: nothing changes for a few cycles
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), reloads.Load())

	// When: a file is added
	writeFile(t, filepath.Join(root, "forms", "references", "new.md"), "new")

	// Then: exactly one reload happens
	require.Eventually(t, func() bool { return reloads.Load() == 1 }, time.Second, 10*time.Millisecond)
	time.Sleep(60 * time.Millisecond)
	assert.Equal(t, int32(1), reloads.Load())

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop")
	}
}

func TestRefresher_SurvivesFailingCycles(t *testing.T) {
	// Given: a reload that errors first, then panics, then succeeds
	root := newStore(t)
	d := NewChangeDetector(root)
	d.Prime()

	var calls atomic.Int32
	r := NewRefresher(d, func(context.Context) error {
		switch calls.Add(1) {
		case 1:
			return errors.New("disk on fire")
		case 2:
			panic("unexpected")
		default:
			return nil
		}
	}, Options{PollInterval: 20 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()

	// When: three separate changes arrive
	for i, name := range []string{"a.md", "b.md", "c.md"} {
		writeFile(t, filepath.Join(root, "forms", "references", name), "x")
		want := int32(i + 1)
		require.Eventually(t, func() bool { return calls.Load() >= want }, time.Second, 10*time.Millisecond)
	}

	// Then: the loop kept running through the error and the panic
	assert.Equal(t, int32(3), calls.Load())
}

func TestRefresher_FsnotifyNudge(t *testing.T) {
	// Given: a long poll interval with fsnotify enabled
	root := newStore(t)
	d := NewChangeDetector(root)
	d.Prime()

	var reloads atomic.Int32
	r := NewRefresher(d, func(context.Context) error {
		reloads.Add(1)
		return nil
	}, Options{PollInterval: time.Hour, UseFsnotify: true})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = r.Run(ctx) }()
	time.Sleep(50 * time.Millisecond)

	// When: a file is written
	writeFile(t, filepath.Join(root, "forms", "SKILL.md"), "# Forms v2")

	// Then: the reload happens well before the poll interval
	require.Eventually(t, func() bool { return reloads.Load() >= 1 }, 2*time.Second, 10*time.Millisecond)
}

func TestOptions_WithDefaults(t *testing.T) {
	assert.Equal(t, 5*time.Second, Options{}.WithDefaults().PollInterval)
	assert.Equal(t, time.Second, Options{PollInterval: time.Second}.WithDefaults().PollInterval)
}
