package watcher

import "context"

// Watcher defines the interface for script file monitoring
type Watcher interface {
	Start(ctx context.Context) error
	Stop() error
}

// EventHandler is called once per settled burst of edits
type EventHandler func(ctx context.Context, filePath string) error
