// Package backend selects and owns the process-wide compute backend.
package backend

import (
	"context"
	"errors"
	"slices"
	"sync"

	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports"
	"go.trai.ch/zerr"
)

// Probe reports whether a backend can be created on this machine.
type Probe func(ctx context.Context) error

// Factory creates a backend. A factory that fails must release whatever it
// acquired before returning.
type Factory func(ctx context.Context, cfg domain.BackendConfig) (ports.ComputeBackend, error)

// Entry describes one backend variant.
type Entry struct {
	Kind    domain.BackendKind
	Probe   Probe
	Factory Factory
}

// ProbeResult is the outcome of probing one registered backend.
type ProbeResult struct {
	Kind domain.BackendKind
	Err  error
}

// Available reports whether the probe succeeded.
func (r ProbeResult) Available() bool { return r.Err == nil }

// Registry maps backend kinds to their probe and factory and owns the single
// backend selected for the process. Controllers share it through leases;
// the backend shuts down when the last lease is released.
type Registry struct {
	logger ports.Logger

	mu      sync.Mutex
	entries map[domain.BackendKind]Entry
	order   []domain.BackendKind
	active  ports.ComputeBackend
	refs    int
	closed  bool
}

// NewRegistry creates an empty registry.
func NewRegistry(logger ports.Logger) *Registry {
	return &Registry{
		logger:  logger,
		entries: make(map[domain.BackendKind]Entry),
	}
}

// Register adds or replaces the entry for e.Kind.
func (r *Registry) Register(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.entries[e.Kind]; !ok {
		r.order = append(r.order, e.Kind)
	}
	r.entries[e.Kind] = e
}

// Kinds returns the registered kinds in registration order.
func (r *Registry) Kinds() []domain.BackendKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.order)
}

// Active returns the selected backend, or nil when none is leased.
func (r *Registry) Active() ports.ComputeBackend {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// ProbeAll probes every registered backend in registration order.
func (r *Registry) ProbeAll(ctx context.Context) []ProbeResult {
	r.mu.Lock()
	entries := make([]Entry, 0, len(r.order))
	for _, k := range r.order {
		entries = append(entries, r.entries[k])
	}
	r.mu.Unlock()

	out := make([]ProbeResult, 0, len(entries))
	for _, e := range entries {
		out = append(out, ProbeResult{Kind: e.Kind, Err: e.Probe(ctx)})
	}
	return out
}

// Select returns a lease on the process backend, creating it on first use
// from the first kind in cfg.Preference that probes and constructs
// successfully. The CPU baseline is tried last when the preference omits
// it. Once selected the backend stays fixed until every lease is released.
// If no candidate succeeds the error wraps domain.ErrBackendUnavailable and
// no backend is retained.
func (r *Registry) Select(ctx context.Context, cfg domain.BackendConfig) (*Lease, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, errors.Join(domain.ErrRegistryClosed, zerr.New("cannot select a backend after close"))
	}
	if r.active != nil {
		r.refs++
		return &Lease{registry: r, backend: r.active}, nil
	}

	pref := slices.Clone(cfg.Preference)
	if len(pref) == 0 {
		pref = domain.DefaultBackendPreference()
	}
	if !slices.Contains(pref, domain.BackendCPU) {
		pref = append(pref, domain.BackendCPU)
	}

	var errs []error
	for _, kind := range pref {
		b, err := r.create(ctx, kind, cfg)
		if err != nil {
			errs = append(errs, err)
			r.logger.Info("backend " + string(kind) + " unavailable, falling back")
			continue
		}
		r.active = b
		r.refs = 1
		r.logger.Info("selected compute backend " + string(kind))
		return &Lease{registry: r, backend: b}, nil
	}
	return nil, errors.Join(append([]error{domain.ErrBackendUnavailable}, errs...)...)
}

// Close stops further selections. Outstanding leases stay valid and the
// backend shuts down with the last of them.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

func (r *Registry) create(ctx context.Context, kind domain.BackendKind, cfg domain.BackendConfig) (ports.ComputeBackend, error) {
	e, ok := r.entries[kind]
	if !ok {
		return nil, errors.Join(domain.ErrBackendNotRegistered, zerr.With(zerr.New("backend not registered"), "backend", string(kind)))
	}
	if err := e.Probe(ctx); err != nil {
		return nil, zerr.With(zerr.Wrap(err, "probe failed"), "backend", string(kind))
	}
	b, err := e.Factory(ctx, cfg)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "initialization failed"), "backend", string(kind))
	}
	return b, nil
}

func (r *Registry) release() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.refs--
	if r.refs > 0 || r.active == nil {
		return nil
	}
	b := r.active
	r.active = nil
	if err := b.Shutdown(); err != nil {
		return zerr.With(zerr.Wrap(err, "backend shutdown failed"), "backend", string(b.Kind()))
	}
	return nil
}

// Lease is one reference to the process backend.
type Lease struct {
	registry *Registry
	backend  ports.ComputeBackend
	once     sync.Once
}

// Backend returns the leased backend.
func (l *Lease) Backend() ports.ComputeBackend { return l.backend }

// Acquire takes an additional lease on the same backend.
func (l *Lease) Acquire() *Lease {
	l.registry.mu.Lock()
	defer l.registry.mu.Unlock()
	l.registry.refs++
	return &Lease{registry: l.registry, backend: l.backend}
}

// Release returns the lease. The last release shuts the backend down.
// Releasing twice is a no-op.
func (l *Lease) Release() error {
	var err error
	l.once.Do(func() { err = l.registry.release() })
	return err
}
