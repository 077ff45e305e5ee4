package requirement

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc receives every successfully reloaded config and its hash.
type ReloadFunc func(cfg *Config, hash string)

// Watcher watches a requirement file and hot-reloads it on change.
type Watcher struct {
	watcher  *fsnotify.Watcher
	path     string
	onReload ReloadFunc
	logger   *slog.Logger
	debounce time.Duration
}

// NewWatcher creates a watcher for path. The parent directory is watched so
// editors that replace the file by rename are picked up.
func NewWatcher(path string, onReload ReloadFunc, logger *slog.Logger) (*Watcher, error) {
	if path == "" {
		return nil, fmt.Errorf("requirement watcher: empty path")
	}
	if logger == nil {
		logger = slog.Default()
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("failed to watch %q: %w", path, err)
	}

	return &Watcher{
		watcher:  w,
		path:     filepath.Clean(path),
		onReload: onReload,
		logger:   logger,
		debounce: 500 * time.Millisecond,
	}, nil
}

// Run reloads the config after writes settle. Blocks until ctx is cancelled.
// A file that fails to load keeps the previous config in effect. Reloads run
// on the calling goroutine, so onReload is never invoked after Run returns.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	debounce := time.NewTimer(w.debounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				debounce.Reset(w.debounce)
			}

		case <-debounce.C:
			if ctx.Err() != nil {
				return nil
			}
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("requirement watcher error", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) reload() {
	cfg, hash, err := LoadConfigWithHash(w.path)
	if err != nil {
		w.logger.Error("requirement reload failed", "path", w.path, "error", err)
		return
	}
	w.logger.Info("requirements reloaded", "path", w.path, "hash", hash)
	if w.onReload != nil {
		w.onReload(cfg, hash)
	}
}
