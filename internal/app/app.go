// Package app implements the application layer for subdiv.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.trai.ch/subdiv/internal/adapters/backend"   //nolint:depguard // Wired in app layer
	"go.trai.ch/subdiv/internal/adapters/drawstage" //nolint:depguard // Wired in app layer
	"go.trai.ch/subdiv/internal/adapters/memmesh"   //nolint:depguard // Wired in app layer
	"go.trai.ch/subdiv/internal/adapters/meshfile"  //nolint:depguard // Wired in app layer
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports"
	"go.trai.ch/subdiv/internal/engine/controller"
	"go.trai.ch/subdiv/internal/engine/tracker"
	"go.trai.ch/zerr"
)

// DefaultWatchInterval paces frames in watch mode when no interval is given.
const DefaultWatchInterval = 100 * time.Millisecond

// App binds meshes to refinement controllers and drives their frames.
type App struct {
	loader    ports.ConfigLoader
	logger    ports.Logger
	registry  *backend.Registry
	builder   controller.PlanBuilder
	draw      *drawstage.Exporter
	store     ports.PlanStore
	tracer    ports.Tracer
	telemetry ports.Telemetry

	mu         sync.Mutex
	cfg        *domain.Config
	classifier *tracker.Classifier
	bindings   map[domain.MeshHandle]*controller.Controller
	order      []domain.MeshHandle
	closed     bool
}

// New creates a new App instance.
func New(
	cfg *domain.Config,
	loader ports.ConfigLoader,
	log ports.Logger,
	registry *backend.Registry,
	builder controller.PlanBuilder,
	draw *drawstage.Exporter,
	store ports.PlanStore,
	tracer ports.Tracer,
	telemetry ports.Telemetry,
) *App {
	return &App{
		loader:     loader,
		logger:     log,
		registry:   registry,
		builder:    builder,
		draw:       draw,
		store:      store,
		tracer:     tracer,
		telemetry:  telemetry,
		cfg:        cfg,
		classifier: tracker.NewClassifier(cfg.Classifier),
		bindings:   make(map[domain.MeshHandle]*controller.Controller),
	}
}

// Config returns a copy of the active configuration.
func (a *App) Config() domain.Config {
	a.mu.Lock()
	defer a.mu.Unlock()
	return *a.cfg
}

// Configure reloads the configuration from path. Existing bindings keep the
// classifier they were created with; the plan store keeps its startup path.
func (a *App) Configure(path string) error {
	cfg, err := a.loader.Load(path)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to load configuration"), "path", path)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.cfg = cfg
	a.classifier = tracker.NewClassifier(cfg.Classifier)
	if l, ok := a.logger.(interface{ SetLevel(domain.LogLevel) }); ok {
		l.SetLevel(cfg.LogLevel)
	}
	return nil
}

// Bind creates a controller for src on a lease of the process backend.
// Failing to obtain any backend is fatal for the binding and wraps
// domain.ErrBackendUnavailable.
func (a *App) Bind(ctx context.Context, src ports.MeshSource, d domain.RefinementDescriptor) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	handle := src.Handle()
	if a.closed {
		return errors.Join(domain.ErrRegistryClosed, zerr.With(zerr.New("app closed"), "handle", string(handle)))
	}
	if _, ok := a.bindings[handle]; ok {
		return errors.Join(domain.ErrMeshAlreadyBound, zerr.With(zerr.New("duplicate binding"), "handle", string(handle)))
	}

	lease, err := a.registry.Select(ctx, a.cfg.Backends)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to select compute backend"), "handle", string(handle))
	}
	ctrl, err := controller.New(controller.Options{
		Source:     src,
		Classifier: a.classifier,
		Builder:    a.builder,
		Lease:      lease,
		Draw:       a.draw,
		Store:      a.store,
		Logger:     a.logger,
		Tracer:     a.tracer,
		Descriptor: d,
	})
	if err != nil {
		return errors.Join(err, lease.Release())
	}

	a.bindings[handle] = ctrl
	a.order = append(a.order, handle)
	return nil
}

// Unbind closes the controller of handle and removes its binding.
func (a *App) Unbind(handle domain.MeshHandle) error {
	a.mu.Lock()
	ctrl, ok := a.bindings[handle]
	if ok {
		delete(a.bindings, handle)
		a.order = slices.DeleteFunc(a.order, func(h domain.MeshHandle) bool { return h == handle })
	}
	a.mu.Unlock()

	if !ok {
		return zerr.With(zerr.New("mesh not bound"), "handle", string(handle))
	}
	return ctrl.Close()
}

// Bound returns the bound handles in binding order.
func (a *App) Bound() []domain.MeshHandle {
	a.mu.Lock()
	defer a.mu.Unlock()
	return slices.Clone(a.order)
}

// Controller returns the controller bound to handle.
func (a *App) Controller(handle domain.MeshHandle) (*controller.Controller, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	c, ok := a.bindings[handle]
	return c, ok
}

// Frame runs one frame of every binding in binding order.
func (a *App) Frame(ctx context.Context) []controller.Report {
	a.mu.Lock()
	ctrls := make([]*controller.Controller, 0, len(a.order))
	for _, h := range a.order {
		ctrls = append(ctrls, a.bindings[h])
	}
	a.mu.Unlock()

	reports := make([]controller.Report, 0, len(ctrls))
	for _, c := range ctrls {
		reports = append(reports, c.Frame(ctx))
	}
	return reports
}

// RunOptions configuration for the Run method.
type RunOptions struct {
	// Meshes are built-in shape names or OBJ paths.
	Meshes []string
	// Frames is the number of frames to drive. Zero in watch mode runs until
	// the context is cancelled; otherwise it means one frame.
	Frames int
	// Interval paces consecutive frames.
	Interval time.Duration
	// Descriptor overrides the configured descriptor when set.
	Descriptor *domain.RefinementDescriptor
	// Watch reloads OBJ sources when their files change.
	Watch bool
	// Export writes the last refined frame of every mesh as OBJ. With more
	// than one mesh the files get an index suffix.
	Export string
	// Progress receives one line per completed frame when set.
	Progress io.Writer
	// OnFrame receives the reports of every frame.
	OnFrame func([]controller.Report)
}

// Run binds every mesh, drives the frames and unbinds again.
//
//nolint:cyclop // orchestration function
func (a *App) Run(ctx context.Context, opts RunOptions) (err error) {
	if len(opts.Meshes) == 0 {
		return domain.ErrNoMeshesSpecified
	}
	cfg := a.Config()
	d := cfg.Descriptor
	if opts.Descriptor != nil {
		d = *opts.Descriptor
	}
	if err := d.Validate(); err != nil {
		return err
	}

	if opts.Progress != nil {
		if p, ok := a.telemetry.(interface{ Attach(io.Writer) func() }); ok {
			defer p.Attach(opts.Progress)()
		}
	}

	var watcher *meshfile.Watcher
	if opts.Watch {
		if watcher, err = meshfile.NewWatcher(a.logger, cfg.WatchDebounce); err != nil {
			return err
		}
		defer func() { err = errors.Join(err, watcher.Close()) }()
		watcher.Start(ctx)
	}

	var handles []domain.MeshHandle
	defer func() {
		for _, h := range handles {
			err = errors.Join(err, a.Unbind(h))
		}
	}()
	for _, name := range opts.Meshes {
		src, err := a.open(name, opts.Watch)
		if err != nil {
			return err
		}
		if fsrc, ok := src.(*meshfile.Source); ok && watcher != nil {
			if err := watcher.Add(fsrc); err != nil {
				return err
			}
		}
		if err := a.Bind(ctx, src, d); err != nil {
			return err
		}
		handles = append(handles, src.Handle())
	}

	frames := opts.Frames
	if frames <= 0 && !opts.Watch {
		frames = 1
	}
	interval := opts.Interval
	if interval <= 0 && opts.Watch {
		interval = DefaultWatchInterval
	}

	var last []controller.Report
	for i := 0; frames <= 0 || i < frames; i++ {
		if i > 0 && interval > 0 {
			if !wait(ctx, interval) {
				break
			}
		}
		if ctx.Err() != nil {
			break
		}
		last = a.Frame(ctx)
		if opts.OnFrame != nil {
			opts.OnFrame(last)
		}
	}
	if frames > 0 && ctx.Err() != nil {
		return zerr.Wrap(ctx.Err(), "run interrupted")
	}

	for _, r := range last {
		a.summarize(r)
	}
	if opts.Export != "" {
		for i, h := range handles {
			if err := a.Export(exportPath(opts.Export, i, len(handles)), h); err != nil {
				return err
			}
		}
	}
	return nil
}

func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// open resolves a built-in shape or an OBJ file. In watch mode an unreadable
// file is bound anyway and stays not ready until it parses.
func (a *App) open(name string, watch bool) (ports.MeshSource, error) {
	if slices.Contains(memmesh.Shapes(), name) {
		m, err := memmesh.Shape(name)
		if err != nil {
			return nil, err
		}
		return m, nil
	}
	src, err := meshfile.Open(name)
	if err != nil {
		if src == nil || !watch {
			return nil, err
		}
		a.logger.Warn(fmt.Sprintf("waiting for %s: %v", src.Path(), err))
	}
	return src, nil
}

func (a *App) summarize(r controller.Report) {
	c, ok := a.Controller(r.Handle)
	if !ok {
		return
	}
	bufs, ok := c.RefinedBuffers()
	if !ok {
		a.logger.Info(fmt.Sprintf("%s: %s after %d frames, nothing refined", r.Handle, r.Status, r.Frame))
		return
	}
	a.logger.Info(fmt.Sprintf("%s: %s after %d frames, %d patches, %d vertices on %s",
		r.Handle, r.Status, r.Frame, bufs.PatchCount, bufs.RefinedVertices, bufs.Backend))
}

func exportPath(base string, i, n int) string {
	if n == 1 {
		return base
	}
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "-" + strconv.Itoa(i+1) + ext
}

// Export writes the last drawn frame of handle to path as OBJ.
func (a *App) Export(path string, handle domain.MeshHandle) (err error) {
	f, err := os.Create(path) //nolint:gosec // path is provided by user
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create export file"), "path", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = zerr.With(zerr.Wrap(cerr, "failed to close export file"), "path", path)
		}
	}()
	if err := a.draw.WriteOBJ(f, handle); err != nil {
		return zerr.With(err, "path", path)
	}
	a.logger.Info(fmt.Sprintf("exported %s to %s", handle, path))
	return nil
}

// BackendStatus is the probe result of every registered backend plus the one
// a binding would use.
type BackendStatus struct {
	Probes   []backend.ProbeResult
	Selected domain.BackendKind
	// Err is set when no backend could be selected.
	Err error
}

// Backends probes every registered backend and resolves the selection for
// the configured preference.
func (a *App) Backends(ctx context.Context) BackendStatus {
	cfg := a.Config()
	status := BackendStatus{Probes: a.registry.ProbeAll(ctx)}
	lease, err := a.registry.Select(ctx, cfg.Backends)
	if err != nil {
		status.Err = err
		return status
	}
	status.Selected = lease.Backend().Kind()
	status.Err = lease.Release()
	return status
}

// Plans returns every recorded plan build.
func (a *App) Plans() ([]domain.PlanInfo, error) {
	plans, err := a.store.List()
	if err != nil {
		return nil, zerr.Wrap(err, "failed to list plans")
	}
	return plans, nil
}

// Close unbinds every mesh and releases the draw stage, tracer and
// telemetry. It is safe to call more than once.
func (a *App) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	handles := slices.Clone(a.order)
	a.mu.Unlock()

	var errs error
	for _, h := range handles {
		errs = errors.Join(errs, a.Unbind(h))
	}
	a.registry.Close()
	a.draw.Close()
	if s, ok := a.tracer.(interface{ Shutdown(context.Context) error }); ok {
		errs = errors.Join(errs, s.Shutdown(context.Background()))
	}
	if a.telemetry != nil {
		errs = errors.Join(errs, a.telemetry.Close())
	}
	return errs
}
