package config

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/RyanBlaney/sonido-tuner/logging"
)

func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "tolerance_cents = 2\nsensitivity = 0.02\n")

	var hooked atomic.Int32
	w := NewWatcher(path,
		WithWatcherLogger(&logging.NoOpLogger{}),
		WithReloadHook(func(FileConfig) { hooked.Add(1) }),
	)

	if got := w.Snapshot(); got != DefaultSessionConfig() {
		t.Errorf("initial snapshot = %+v, want defaults", got)
	}

	if err := w.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got := w.Snapshot(); got.ToleranceCents != 2 || got.Sensitivity != 0.02 {
		t.Errorf("snapshot after reload = %+v", got)
	}
	if hooked.Load() != 1 {
		t.Errorf("hook called %d times, want 1", hooked.Load())
	}

	// An invalid file keeps the previous snapshot
	writeConfig(t, dir, "tolerance_cents = 42\n")
	if err := w.Reload(); err == nil {
		t.Error("Reload() accepted out-of-range tolerance")
	}
	if got := w.Snapshot(); got.ToleranceCents != 2 {
		t.Errorf("snapshot after rejected reload = %+v, want tolerance 2", got)
	}
	if hooked.Load() != 1 {
		t.Errorf("hook called for rejected reload")
	}
}

func TestWatcherOverrides(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "tolerance_cents = 2\nsensitivity = 0.02\n")

	base := SessionConfig{ToleranceCents: 8, Sensitivity: 0.1}
	w := NewWatcher(path,
		WithWatcherLogger(&logging.NoOpLogger{}),
		WithOverrides(base, map[string]bool{"sensitivity": true}),
	)
	if got := w.Snapshot(); got != base {
		t.Errorf("initial snapshot = %+v, want %+v", got, base)
	}

	if err := w.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	want := SessionConfig{ToleranceCents: 2, Sensitivity: 0.1}
	if got := w.Snapshot(); got != want {
		t.Errorf("snapshot = %+v, want %+v", got, want)
	}
}

func TestWatcherRunPicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "tolerance_cents = 1\n")

	w := NewWatcher(path,
		WithWatcherLogger(&logging.NoOpLogger{}),
		WithReloadDelay(10*time.Millisecond),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	waitFor(t, func() bool { return w.Snapshot().ToleranceCents == 1 })

	if err := os.WriteFile(path, []byte("tolerance_cents = 6\n"), 0644); err != nil {
		t.Fatalf("Failed to update config: %v", err)
	}
	waitFor(t, func() bool { return w.Snapshot().ToleranceCents == 6 })

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run() error = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after cancel")
	}
}

func TestWatcherRunMissingDirectory(t *testing.T) {
	w := NewWatcher("/nonexistent/dir/config.toml", WithWatcherLogger(&logging.NoOpLogger{}))
	if err := w.Run(context.Background()); err == nil {
		t.Error("Run() on missing directory returned nil")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
