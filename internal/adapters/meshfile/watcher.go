package meshfile

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/subdiv/internal/core/ports"
	"go.trai.ch/zerr"
)

// Watcher reloads sources when their files change. Events for one file
// within the debounce window collapse into a single reload.
type Watcher struct {
	fsWatcher *fsnotify.Watcher
	logger    ports.Logger
	debouncer *Debouncer

	mu      sync.Mutex
	sources map[string]*Source
	dirs    map[string]int
	wg      sync.WaitGroup
}

// NewWatcher creates a watcher with the given debounce window.
func NewWatcher(logger ports.Logger, window time.Duration) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to create file watcher")
	}
	return newWatcher(fsw, logger, window), nil
}

func newWatcher(fsw *fsnotify.Watcher, logger ports.Logger, window time.Duration) *Watcher {
	w := &Watcher{
		fsWatcher: fsw,
		logger:    logger,
		sources:   make(map[string]*Source),
		dirs:      make(map[string]int),
	}
	w.debouncer = NewDebouncer(window, w.reload)
	return w
}

// Add starts watching src's file. Directories are watched rather than files
// so editors that replace the file by rename keep being observed.
func (w *Watcher) Add(src *Source) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.sources[src.Path()]; ok {
		return nil
	}
	dir := filepath.Dir(src.Path())
	if w.dirs[dir] == 0 && w.fsWatcher != nil {
		if err := w.fsWatcher.Add(dir); err != nil {
			return zerr.With(zerr.Wrap(err, "failed to watch directory"), "dir", dir)
		}
	}
	w.dirs[dir]++
	w.sources[src.Path()] = src
	return nil
}

// Remove stops watching src's file.
func (w *Watcher) Remove(src *Source) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.sources[src.Path()]; !ok {
		return
	}
	delete(w.sources, src.Path())
	dir := filepath.Dir(src.Path())
	w.dirs[dir]--
	if w.dirs[dir] == 0 {
		delete(w.dirs, dir)
		if w.fsWatcher != nil {
			_ = w.fsWatcher.Remove(dir)
		}
	}
}

// Start processes file events until ctx is done or Close is called.
func (w *Watcher) Start(ctx context.Context) {
	w.wg.Go(func() { w.processEvents(ctx) })
}

// Close stops the watcher, drops pending reloads and waits for the event loop.
func (w *Watcher) Close() error {
	var err error
	if w.fsWatcher != nil {
		err = w.fsWatcher.Close()
	}
	w.wg.Wait()
	w.debouncer.Stop()
	if err != nil {
		return zerr.Wrap(err, "failed to close file watcher")
	}
	return nil
}

// Flush reloads every file with a pending event now.
func (w *Watcher) Flush() { w.debouncer.Flush() }

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.logger.Error(zerr.Wrap(err, "file watcher error"))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}
	path := filepath.Clean(event.Name)
	w.mu.Lock()
	_, ok := w.sources[path]
	w.mu.Unlock()
	if ok {
		w.debouncer.Add(path)
	}
}

func (w *Watcher) reload(paths []string) {
	for _, path := range paths {
		w.mu.Lock()
		src, ok := w.sources[path]
		w.mu.Unlock()
		if !ok {
			continue
		}
		if err := src.Reload(); err != nil {
			w.logger.Error(err)
			continue
		}
		w.logger.Info("reloaded mesh " + path)
	}
}
