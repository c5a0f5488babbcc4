package watcher

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mgpai22/subtitler/internal/logging"
)

// DefaultDebounce coalesces the burst of events a single editor save emits.
const DefaultDebounce = 150 * time.Millisecond

// New watches a single file. The parent directory is watched so that editors
// replacing the file by rename are still observed.
func New(filePath string, handler EventHandler, log *logging.Logger, debounce time.Duration) (Watcher, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	if log == nil {
		log = logging.Nop()
	}

	return &implWatcher{
		path:     abs,
		handler:  handler,
		logger:   log,
		watcher:  watcher,
		debounce: debounce,
	}, nil
}
