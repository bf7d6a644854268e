package config

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc is called with the freshly loaded configuration after the
// watched file changes. Load errors are delivered as a nil config plus
// the error so the caller can keep running with the previous config.
type ReloadFunc func(cfg *Config, err error)

// Watcher reloads the configuration file when it changes on disk.
// Editors and orchestrators often replace files with rename+create, so
// both write and create events are honored, debounced to one reload.
type Watcher struct {
	path     string
	loader   *FileLoader
	debounce time.Duration
	onReload ReloadFunc
}

// NewWatcher creates a watcher for the given configuration file
func NewWatcher(path string, onReload ReloadFunc) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path: %w", err)
	}
	return &Watcher{
		path:     abs,
		loader:   NewFileLoader(abs),
		debounce: 500 * time.Millisecond,
		onReload: onReload,
	}, nil
}

// Start blocks watching for changes until the context is cancelled.
// Typically run in its own goroutine.
func (w *Watcher) Start(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	defer fw.Close()

	// Watch the directory rather than the file so rename+create
	// replacement does not drop the watch.
	if err := fw.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch config directory: %w", err)
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			eventPath, err := filepath.Abs(event.Name)
			if err != nil || eventPath != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			cfg, err := w.loader.Load()
			w.onReload(cfg, err)

		case err, ok := <-fw.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.onReload(nil, err)
		}
	}
}
