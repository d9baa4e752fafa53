// Package watch re-runs work when YAML files below a set of directories
// change.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"proctor/internal/loader"
	"proctor/pkg/logging"
)

const subsystem = "Watcher"

// DefaultDebounce is used when New is given a zero interval.
const DefaultDebounce = 500 * time.Millisecond

// Trigger receives the sorted set of YAML files changed within one
// debounce window.
type Trigger func(ctx context.Context, changed []string)

// Watcher collects filesystem events and fires a trigger once no further
// change arrived for the debounce interval.
type Watcher struct {
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

// New creates a watcher. Call Add before Run.
func New(debounce time.Duration) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{watcher: w, debounce: debounce}, nil
}

// Add watches a directory and all its non-hidden subdirectories. A file
// path watches its parent directory.
func (w *Watcher) Add(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return w.watcher.Add(filepath.Dir(path))
	}

	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if p != path && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		logging.Debug(subsystem, "Watching directory: %s", p)
		return w.watcher.Add(p)
	})
}

// Run processes events until ctx is done. The trigger runs on the calling
// goroutine, so events arriving meanwhile are batched into the next window.
func (w *Watcher) Run(ctx context.Context, trigger Trigger) error {
	pending := make(map[string]struct{})
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if w.handleEvent(event) {
				pending[event.Name] = struct{}{}
				timer.Reset(w.debounce)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			logging.Error(subsystem, err, "Filesystem watcher error")

		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for name := range pending {
				changed = append(changed, name)
			}
			sort.Strings(changed)
			pending = make(map[string]struct{})

			logging.Info(subsystem, "Detected changes in %d file(s)", len(changed))
			trigger(ctx, changed)
		}
	}
}

// handleEvent reports whether the event concerns a YAML file. New
// directories are added to the watch list.
func (w *Watcher) handleEvent(event fsnotify.Event) bool {
	if event.Op&fsnotify.Create == fsnotify.Create {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.Add(event.Name); err != nil {
				logging.Warn(subsystem, "Failed to watch new directory %s: %v", event.Name, err)
			}
			return false
		}
	}

	if !loader.IsYAMLFile(event.Name) {
		return false
	}
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0
}

// Close stops watching.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
