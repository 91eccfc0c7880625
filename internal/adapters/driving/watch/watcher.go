// Package watch re-imports document-structure files when they change on disk.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/chapterdex/internal/core/domain"
	"github.com/custodia-labs/chapterdex/internal/logger"
)

// DefaultDebounce is how long the watcher waits for writes to settle.
const DefaultDebounce = 500 * time.Millisecond

// ErrNoPaths is returned when the watcher is started without files.
var ErrNoPaths = errors.New("no files to watch")

// Importer re-reads the watched files.
type Importer interface {
	ImportFiles(ctx context.Context, paths []string) (*domain.ImportReport, error)
}

// Watcher watches a fixed set of files and re-imports all of them after a
// change. Files are imported together so later files keep overwriting
// earlier ones in the same order as the initial import.
type Watcher struct {
	importer Importer
	paths    []string
	debounce time.Duration
	onImport func(*domain.ImportReport, error)
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before a re-import.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithCallback registers a function called after every re-import.
func WithCallback(fn func(*domain.ImportReport, error)) Option {
	return func(w *Watcher) {
		w.onImport = fn
	}
}

// New creates a watcher for the given files.
func New(importer Importer, paths []string, opts ...Option) *Watcher {
	w := &Watcher{
		importer: importer,
		paths:    make([]string, 0, len(paths)),
		debounce: DefaultDebounce,
	}
	for _, p := range paths {
		if abs, err := filepath.Abs(p); err == nil {
			p = abs
		}
		w.paths = append(w.paths, filepath.Clean(p))
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Run blocks until ctx is cancelled, re-importing after each burst of changes.
// Parent directories are watched rather than the files themselves so that
// editors which replace files on save are still picked up.
func (w *Watcher) Run(ctx context.Context) error {
	if len(w.paths) == 0 {
		return ErrNoPaths
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	dirs := make(map[string]struct{})
	for _, p := range w.paths {
		dirs[filepath.Dir(p)] = struct{}{}
	}
	for dir := range dirs {
		if err := fw.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
		logger.Debug("Watching directory %s", dir)
	}

	var (
		mu    sync.Mutex
		timer *time.Timer
	)
	trigger := make(chan struct{}, 1)

	schedule := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(w.debounce, func() {
			select {
			case trigger <- struct{}{}:
			default:
			}
		})
	}
	defer func() {
		mu.Lock()
		if timer != nil {
			timer.Stop()
		}
		mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.handleFsEvent(event) {
				logger.Debug("Change detected: %s %s", event.Op, event.Name)
				schedule()
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-trigger:
			w.reimport(ctx)
		}
	}
}

// handleFsEvent reports whether an event touches a watched file in a way
// that changes its content.
func (w *Watcher) handleFsEvent(event fsnotify.Event) bool {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Clean(event.Name)
	for _, p := range w.paths {
		if p == name {
			return true
		}
	}
	return false
}

func (w *Watcher) reimport(ctx context.Context) {
	report, err := w.importer.ImportFiles(ctx, w.paths)
	if err != nil {
		logger.Warn("Re-import failed: %v", err)
	} else {
		logger.Info("Re-imported %d files: %d chapters, %d pages, %d skipped",
			len(report.Files), report.Imported, report.Pages, report.Skipped)
	}
	if w.onImport != nil {
		w.onImport(report, err)
	}
}
