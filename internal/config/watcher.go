package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher watches the config file and reloads it on change. Editors
// replace files via rename, so the watch is on the directory rather
// than the file itself.
type Watcher struct {
	root       string
	configHash string

	watcher  *fsnotify.Watcher
	onChange func(*Config)

	// Debouncing
	pendingMu    sync.Mutex
	pendingAt    time.Time
	debounceTime time.Duration
}

// WatcherConfig contains watcher configuration.
type WatcherConfig struct {
	Root         string
	Current      *Config       // config currently in effect, for change detection
	OnChange     func(*Config) // called with the reloaded config
	DebounceTime time.Duration // Default: 500ms
}

// NewWatcher creates a new config watcher.
func NewWatcher(cfg WatcherConfig) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	debounceTime := cfg.DebounceTime
	if debounceTime == 0 {
		debounceTime = 500 * time.Millisecond
	}

	hash := ""
	if cfg.Current != nil {
		hash = cfg.Current.Hash()
	}

	return &Watcher{
		root:         cfg.Root,
		configHash:   hash,
		watcher:      watcher,
		onChange:     cfg.OnChange,
		debounceTime: debounceTime,
	}, nil
}

// Watch starts watching for config changes.
// It blocks until the context is cancelled.
func (w *Watcher) Watch(ctx context.Context) error {
	dir := ConfigDir(w.root)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	if err := w.watcher.Add(dir); err != nil {
		return err
	}

	slog.Info("watching for config changes", "path", ConfigPath(w.root))

	go w.processDebounced(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("stopping config watcher")
			return w.watcher.Close()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			w.handleEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			slog.Warn("config watcher error", "error", err)
		}
	}
}

// handleEvent marks a pending reload when the config file changes.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if filepath.Base(event.Name) != filepath.Base(ConfigPath(w.root)) {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.pendingMu.Lock()
	w.pendingAt = time.Now()
	w.pendingMu.Unlock()
}

// processDebounced reloads once writes have settled.
func (w *Watcher) processDebounced(ctx context.Context) {
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.pendingMu.Lock()
			pending := !w.pendingAt.IsZero() && time.Since(w.pendingAt) >= w.debounceTime
			if pending {
				w.pendingAt = time.Time{}
			}
			w.pendingMu.Unlock()

			if pending {
				w.reload()
			}
		}
	}
}

// reload re-reads the config file and notifies on real changes.
func (w *Watcher) reload() {
	cfg, warnings, err := Load(w.root)
	if err != nil {
		slog.Warn("config reload failed", "error", err)
		return
	}
	for _, warning := range warnings {
		slog.Debug(warning)
	}

	if errs := Validate(cfg); len(errs) > 0 {
		for _, err := range errs {
			slog.Warn("config reload rejected", "error", err)
		}
		return
	}

	hash := cfg.Hash()
	if hash == w.configHash {
		slog.Debug("config unchanged after reload")
		return
	}
	w.configHash = hash

	slog.Info("config reloaded", "provider", cfg.Reranker.Provider)
	if w.onChange != nil {
		w.onChange(cfg)
	}
}
