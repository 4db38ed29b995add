// Package watch re-runs a callback when a file changes.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/satishbabariya/dataql/internal/debug"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 300 * time.Millisecond

// Watcher watches a single file
type Watcher struct {
	file     string
	callback func(path string) error
	watcher  *fsnotify.Watcher
	debounce time.Duration
	// OnError receives callback and watcher errors. It defaults to a debug log.
	OnError func(err error)
}

// NewWatcher creates a watcher for file. The directory is watched so that
// editors replacing the file by rename are still seen.
func NewWatcher(file string, callback func(path string) error) (*Watcher, error) {
	absPath, err := filepath.Abs(file)
	if err != nil {
		return nil, fmt.Errorf("failed to get absolute path: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(absPath)); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch directory: %w", err)
	}

	return &Watcher{
		file:     absPath,
		callback: callback,
		watcher:  watcher,
		debounce: DefaultDebounce,
		OnError: func(err error) {
			debug.Warn("Watch error", "error", err)
		},
	}, nil
}

// WithDebounce sets the settle interval.
func (w *Watcher) WithDebounce(d time.Duration) *Watcher {
	w.debounce = d
	return w
}

// Run calls the callback once, then again after every change, until ctx is
// done. A failing first call is returned; later failures go to OnError.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	if err := w.callback(w.file); err != nil {
		return fmt.Errorf("initial callback failed: %w", err)
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	var pending <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if eventPath, err := filepath.Abs(event.Name); err != nil || eventPath != w.file {
				continue
			}
			debug.Debug("File changed", "file", w.file, "op", event.Op.String())
			timer.Reset(w.debounce)
			pending = timer.C

		case <-pending:
			pending = nil
			if err := w.callback(w.file); err != nil {
				w.OnError(err)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.OnError(err)
		}
	}
}
