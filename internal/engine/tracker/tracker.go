// Package tracker turns asynchronous mesh notifications into dirty flags.
package tracker

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports"
	"go.trai.ch/zerr"
)

type subscription struct {
	source ports.MeshSource
	token  domain.SubscriptionToken
}

// Tracker owns the subscriptions of one mesh binding. Notification callbacks
// only classify the event and set atomic flags.
type Tracker struct {
	handle     domain.MeshHandle
	classifier *Classifier
	flags      *domain.DirtyFlags

	mu     sync.Mutex
	subs   []subscription
	closed atomic.Bool
}

// New creates a tracker for handle. All flags start dirty.
func New(handle domain.MeshHandle, classifier *Classifier) *Tracker {
	return &Tracker{
		handle:     handle,
		classifier: classifier,
		flags:      domain.NewDirtyFlags(),
	}
}

// Handle returns the tracked mesh handle.
func (t *Tracker) Handle() domain.MeshHandle { return t.handle }

// Flags returns the dirty flags shared with the frame path.
func (t *Tracker) Flags() *domain.DirtyFlags { return t.flags }

// Watch subscribes to changes of the tracked mesh on src.
func (t *Tracker) Watch(src ports.MeshSource) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed.Load() {
		return domain.ErrTrackerClosed
	}
	token, err := src.Subscribe(t.handle, t.Notify)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to subscribe"), "handle", string(t.handle))
	}
	t.subs = append(t.subs, subscription{source: src, token: token})
	return nil
}

// Notify records ev. It is safe to call from any goroutine and never blocks.
func (t *Tracker) Notify(ev domain.ChangeEvent) {
	if t.closed.Load() {
		return
	}
	if ev.Handle != "" && ev.Handle != t.handle {
		return
	}
	switch t.classifier.Classify(ev) {
	case domain.ClassTopology:
		t.flags.MarkTopology()
	case domain.ClassAttributes:
		t.flags.MarkAttributes()
	case domain.ClassIgnore:
	}
}

// Close removes every subscription in reverse order. Notifications that
// race with Close are dropped. Close is idempotent.
func (t *Tracker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed.Swap(true) {
		return nil
	}
	var errs []error
	for _, s := range slices.Backward(t.subs) {
		if err := s.source.Unsubscribe(s.token); err != nil {
			errs = append(errs, zerr.With(zerr.Wrap(err, "failed to unsubscribe"), "token", uint64(s.token)))
		}
	}
	t.subs = nil
	return errors.Join(errs...)
}
