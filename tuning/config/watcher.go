package config

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/RyanBlaney/sonido-tuner/logging"
)

// DefaultReloadDelay collapses the burst of events an editor produces on save
const DefaultReloadDelay = 100 * time.Millisecond

// Watcher is a Source backed by a TOML file. The file is re-read whenever it
// changes; a reload that fails to parse or validate keeps the previous
// snapshot.
type Watcher struct {
	path    string
	base    SessionConfig
	changed map[string]bool
	delay   time.Duration
	logger  logging.Logger
	hook    func(FileConfig)

	current atomic.Pointer[SessionConfig]

	mu       sync.Mutex
	debounce *time.Timer
}

// WatcherOption configures a Watcher
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger used for reload messages
func WithWatcherLogger(logger logging.Logger) WatcherOption {
	return func(w *Watcher) {
		if logger != nil {
			w.logger = logger
		}
	}
}

// WithOverrides sets the configuration the file is applied on top of, and the
// flag names ("tolerance", "sensitivity") whose base values the file must not
// replace.
func WithOverrides(base SessionConfig, changed map[string]bool) WatcherOption {
	return func(w *Watcher) {
		w.base = base
		w.changed = changed
	}
}

// WithReloadDelay overrides DefaultReloadDelay
func WithReloadDelay(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.delay = d
		}
	}
}

// WithReloadHook registers a function called with every successfully loaded file
func WithReloadHook(hook func(FileConfig)) WatcherOption {
	return func(w *Watcher) {
		w.hook = hook
	}
}

// NewWatcher creates a watcher for path. The initial snapshot is the base
// configuration until Reload or Run loads the file.
func NewWatcher(path string, opts ...WatcherOption) *Watcher {
	w := &Watcher{
		path:   path,
		base:   DefaultSessionConfig(),
		delay:  DefaultReloadDelay,
		logger: logging.WithFields(logging.Fields{"component": "config_watcher"}),
	}
	for _, opt := range opts {
		opt(w)
	}

	initial := w.base.Clamp()
	w.current.Store(&initial)
	return w
}

// Snapshot implements Source
func (w *Watcher) Snapshot() SessionConfig {
	return *w.current.Load()
}

// Path returns the watched file
func (w *Watcher) Path() string {
	return w.path
}

// Reload reads the file and replaces the snapshot if it is valid.
func (w *Watcher) Reload() error {
	fc, err := LoadFileConfig(w.path)
	if err != nil {
		return err
	}

	cfg := w.base
	ApplyFileConfig(&cfg, fc, w.changed)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%s: %w", w.path, err)
	}

	w.current.Store(&cfg)
	if w.hook != nil {
		w.hook(fc)
	}
	return nil
}

// Run loads the file once and then watches its directory until ctx is done.
// It returns an error only if the watch cannot be established.
func (w *Watcher) Run(ctx context.Context) error {
	logger := w.logger.WithFields(logging.Fields{
		"function": "Run",
		"path":     w.path,
	})

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	dir := filepath.Dir(w.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	if err := w.Reload(); err != nil {
		logger.Warn("Initial config load failed, keeping defaults", logging.Fields{"error": err.Error()})
	}

	name := filepath.Base(w.path)
	for {
		select {
		case <-ctx.Done():
			w.stopDebounce()
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.scheduleReload(logger)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error(err, "File watcher error")
		}
	}
}

func (w *Watcher) scheduleReload(logger logging.Logger) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
	}

	w.debounce = time.AfterFunc(w.delay, func() {
		if err := w.Reload(); err != nil {
			logger.Warn("Config reload rejected, keeping previous values", logging.Fields{"error": err.Error()})
			return
		}
		cfg := w.Snapshot()
		logger.Info("Config reloaded", logging.Fields{
			"tolerance_cents": cfg.ToleranceCents,
			"sensitivity":     cfg.Sensitivity,
		})
	})
}

func (w *Watcher) stopDebounce() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.debounce != nil {
		w.debounce.Stop()
		w.debounce = nil
	}
}
