package meshfile

import (
	"time"

	"github.com/fsnotify/fsnotify"
	"go.trai.ch/subdiv/internal/core/ports"
)

// NewDetachedWatcher returns a watcher with no file system backing; events
// are injected with Dispatch.
func NewDetachedWatcher(logger ports.Logger, window time.Duration) *Watcher {
	return newWatcher(nil, logger, window)
}

// Dispatch feeds a file event through the watcher's filter and debouncer.
func (w *Watcher) Dispatch(event fsnotify.Event) { w.handle(event) }
