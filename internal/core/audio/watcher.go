package audio

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// Watcher reloads a cached clip whenever its file is rewritten on disk.
type Watcher struct {
	cache *Cache
	path  string
}

func NewWatcher(cache *Cache, path string) *Watcher {
	return &Watcher{
		cache: cache,
		path:  path,
	}
}

// Start watches the clip's directory until ctx is cancelled.
func (w *Watcher) Start(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", filepath.Dir(w.path), err)
	}

	go w.loop(ctx, watcher)
	return nil
}

func (w *Watcher) loop(ctx context.Context, watcher *fsnotify.Watcher) {
	defer watcher.Close()
	target := filepath.Clean(w.path)

	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != target || !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create)) {
				continue
			}
			slog.Info("Reloading audio clip due to change", "path", event.Name)
			if err := w.cache.Reload(w.path); err != nil {
				slog.Error("Failed to reload audio clip", "path", w.path, "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			slog.Error("Audio clip watcher error", "error", err)
		case <-ctx.Done():
			slog.Info("Stopping audio clip watcher")
			return
		}
	}
}
