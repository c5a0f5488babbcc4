package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mgpai22/subtitler/internal/logging"
)

type implWatcher struct {
	path     string
	handler  EventHandler
	logger   *logging.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

// Start runs the handler after each settled burst of writes to the file.
// Handlers run on this goroutine, one at a time, so refreshes never overlap.
func (w *implWatcher) Start(ctx context.Context) error {
	w.logger.Infow("Watching script", "path", w.path)

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Debugw("File watcher stopped", "path", w.path)
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if !w.relevant(event) {
				continue
			}
			w.logger.Debugw("Script changed", "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			if err := w.handler(ctx, w.path); err != nil {
				w.logger.Errorw("Refresh failed", "path", w.path, "error", err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Errorw("Watcher error", "error", err)
		}
	}
}

// Stop closes the file watcher
func (w *implWatcher) Stop() error {
	return w.watcher.Close()
}

func (w *implWatcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create)
}
