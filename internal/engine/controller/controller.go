// Package controller runs the per-frame refinement state machine of one mesh binding.
package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports"
	"go.trai.ch/subdiv/internal/engine/geometry"
	"go.trai.ch/subdiv/internal/engine/topology"
	"go.trai.ch/subdiv/internal/engine/tracker"
	"go.trai.ch/zerr"
)

// State is a step of the frame state machine.
type State string

const (
	// StateIdle is the resting state between frames.
	StateIdle State = "Idle"
	// StateTopologyCheck snapshots the mesh structure when it is dirty.
	StateTopologyCheck State = "TopologyCheck"
	// StatePlanCheck rebuilds the refinement plan when topology or descriptor changed.
	StatePlanCheck State = "PlanCheck"
	// StateRefine brings the device buffers up to date.
	StateRefine State = "Refine"
	// StateDraw hands the buffers to the draw stage.
	StateDraw State = "Draw"
)

// PlanBuilder builds refinement plans.
type PlanBuilder interface {
	Build(ctx context.Context, topo *domain.Topology, d domain.RefinementDescriptor) (*domain.RefinementPlan, error)
}

// BackendLease is a shared reference to the process compute backend.
type BackendLease interface {
	Backend() ports.ComputeBackend
	Release() error
}

// Options are the collaborators of a Controller. Store is optional.
type Options struct {
	Source     ports.MeshSource
	Classifier *tracker.Classifier
	Builder    PlanBuilder
	Lease      BackendLease
	Draw       ports.DrawStage
	Store      ports.PlanStore
	Logger     ports.Logger
	Tracer     ports.Tracer
	Descriptor domain.RefinementDescriptor
}

// Report describes one frame.
type Report struct {
	Handle domain.MeshHandle
	Frame  int
	Status domain.FrameStatus
	// Path lists the states the frame passed through, ending in StateIdle.
	Path []State
	// Err is the error absorbed during the frame, if any.
	Err error

	TopologyRebuilt bool
	PlanRebuilt     bool
	Buffers         geometry.Outcome
}

// Controller owns the topology, plan and geometry caches of one mesh
// binding. Frame must be called from a single goroutine; only change
// notifications arrive concurrently and they touch nothing but the tracker's
// flags.
type Controller struct {
	handle   domain.MeshHandle
	source   ports.MeshSource
	tracker  *tracker.Tracker
	topology *topology.Cache
	geometry *geometry.Cache
	builder  PlanBuilder
	lease    BackendLease
	draw     ports.DrawStage
	store    ports.PlanStore
	logger   ports.Logger
	tracer   ports.Tracer

	descriptor domain.RefinementDescriptor
	plan       *domain.RefinementPlan
	rejected   string
	warned     map[uint64]struct{}
	invalid    bool

	state  State
	frame  int
	closed bool
}

// New creates a controller and subscribes to changes of the source mesh.
func New(opts Options) (*Controller, error) {
	switch {
	case opts.Source == nil:
		return nil, zerr.New("controller needs a mesh source")
	case opts.Classifier == nil, opts.Builder == nil, opts.Lease == nil, opts.Draw == nil, opts.Logger == nil, opts.Tracer == nil:
		return nil, zerr.With(zerr.New("controller is missing a collaborator"), "handle", string(opts.Source.Handle()))
	}
	if err := opts.Descriptor.Validate(); err != nil {
		return nil, err
	}

	handle := opts.Source.Handle()
	c := &Controller{
		handle:     handle,
		source:     opts.Source,
		tracker:    tracker.New(handle, opts.Classifier),
		topology:   topology.NewCache(),
		geometry:   geometry.NewCache(handle),
		builder:    opts.Builder,
		lease:      opts.Lease,
		draw:       opts.Draw,
		store:      opts.Store,
		logger:     opts.Logger,
		tracer:     opts.Tracer,
		descriptor: opts.Descriptor,
		warned:     make(map[uint64]struct{}),
		state:      StateIdle,
	}
	if err := c.tracker.Watch(opts.Source); err != nil {
		return nil, err
	}
	return c, nil
}

// Handle returns the bound mesh handle.
func (c *Controller) Handle() domain.MeshHandle { return c.handle }

// State returns the current state. It is StateIdle outside Frame.
func (c *Controller) State() State { return c.state }

// Flags returns the dirty flags of the binding.
func (c *Controller) Flags() *domain.DirtyFlags { return c.tracker.Flags() }

// Topology returns the topology cache.
func (c *Controller) Topology() *topology.Cache { return c.topology }

// Geometry returns the geometry cache.
func (c *Controller) Geometry() *geometry.Cache { return c.geometry }

// Plan returns the current plan, or nil before the first successful build.
func (c *Controller) Plan() *domain.RefinementPlan { return c.plan }

// Descriptor returns the descriptor the next frame will use.
func (c *Controller) Descriptor() domain.RefinementDescriptor { return c.descriptor }

// Watch subscribes to change notifications for the bound mesh on another source.
func (c *Controller) Watch(src ports.MeshSource) error {
	return c.tracker.Watch(src)
}

// SetDescriptor replaces the refinement descriptor. A different value
// rebuilds the plan on the next frame.
func (c *Controller) SetDescriptor(d domain.RefinementDescriptor) error {
	if err := d.Validate(); err != nil {
		return err
	}
	c.descriptor = d
	return nil
}

// RefinedBuffers returns the last good buffers. They are valid until the
// next frame unless the caller retains them.
func (c *Controller) RefinedBuffers() (ports.RefinedBuffers, bool) {
	return c.geometry.Buffers()
}

func (c *Controller) enter(r *Report, s State) {
	c.state = s
	r.Path = append(r.Path, s)
}

// Frame runs one pass of the state machine. Errors never escape a frame:
// they are logged and reported, and the draw stage either receives buffers
// or nothing.
func (c *Controller) Frame(ctx context.Context) (r Report) {
	c.frame++
	r.Handle, r.Frame = c.handle, c.frame
	if c.closed {
		r.Status = domain.FrameSkipped
		r.Err = zerr.With(zerr.New("controller closed"), "handle", string(c.handle))
		return r
	}

	ctx, span := c.tracer.Start(ctx, "frame",
		ports.WithAttribute(ports.AttrMesh, string(c.handle)),
		ports.WithAttribute(ports.AttrFrame, c.frame),
	)
	defer func() {
		span.SetAttribute(ports.AttrFrameStatus, string(r.Status))
		if r.Err != nil && r.Status != domain.FrameDrawn && r.Status != domain.FrameCached {
			span.RecordError(r.Err)
		}
		span.End()
		c.enter(&r, StateIdle)
	}()

	topo, ok := c.checkTopology(ctx, &r)
	if !ok {
		return r
	}
	plan, ok := c.checkPlan(ctx, &r, topo)
	if !ok {
		return r
	}
	c.refine(ctx, &r, plan)
	if r.Status == domain.FrameSkipped {
		return r
	}
	c.drawFrame(ctx, &r)
	return r
}

func (c *Controller) checkTopology(ctx context.Context, r *Report) (*domain.Topology, bool) {
	c.enter(r, StateTopologyCheck)
	_, span := c.tracer.Start(ctx, "topology.check")
	defer span.End()

	before := c.topology.Rebuilds()
	topo, err := c.topology.RebuildIfDirty(c.source, c.tracker.Flags())
	if err != nil {
		r.Status = domain.FrameSkipped
		if errors.Is(err, domain.ErrSourceNotReady) {
			return nil, false
		}
		r.Err = err
		span.RecordError(err)
		if !c.invalid {
			c.invalid = true
			c.logger.Warn(fmt.Sprintf("skipping frames of %s: %v", c.handle, err))
		}
		return nil, false
	}
	c.invalid = false
	r.TopologyRebuilt = c.topology.Rebuilds() != before
	return topo, true
}

func (c *Controller) checkPlan(ctx context.Context, r *Report, topo *domain.Topology) (*domain.RefinementPlan, bool) {
	c.enter(r, StatePlanCheck)
	ctx, span := c.tracer.Start(ctx, "plan.check")
	defer span.End()

	if c.plan != nil && c.topology.PlanValid() && c.plan.Descriptor == c.descriptor {
		return c.plan, true
	}

	key := domain.PlanKey(topo, c.descriptor)
	if key == c.rejected {
		r.Status = domain.FrameSkipped
		r.Err = errors.Join(domain.ErrUnsupportedTopology, zerr.With(zerr.New("plan previously rejected"), "key", key))
		return nil, false
	}

	start := time.Now()
	plan, err := c.builder.Build(ctx, topo, c.descriptor)
	if err != nil {
		r.Status = domain.FrameSkipped
		r.Err = err
		span.RecordError(err)
		c.rejectPlan(topo, key, err)
		return nil, false
	}
	elapsed := time.Since(start)

	c.plan = plan
	c.rejected = ""
	c.topology.MarkPlanBuilt()
	r.PlanRebuilt = true
	span.SetAttribute(ports.AttrPatches, plan.PatchCount())
	c.logger.Info(fmt.Sprintf("built plan for %s: %d patches, %d refined vertices",
		c.handle, plan.PatchCount(), plan.NumRefinedVertices()))
	c.recordPlan(plan, elapsed)
	return plan, true
}

// rejectPlan remembers a plan that cannot be built so the same inputs are
// not retried every frame. Unsupported topologies warn once per fingerprint.
func (c *Controller) rejectPlan(topo *domain.Topology, key string, err error) {
	if !errors.Is(err, domain.ErrUnsupportedTopology) {
		c.logger.Error(zerr.With(zerr.Wrap(err, "plan build failed"), "handle", string(c.handle)))
		return
	}
	c.rejected = key
	if _, ok := c.warned[topo.Fingerprint()]; ok {
		return
	}
	c.warned[topo.Fingerprint()] = struct{}{}
	c.logger.Warn(fmt.Sprintf("%s: %v", c.handle, err))
}

func (c *Controller) recordPlan(plan *domain.RefinementPlan, elapsed time.Duration) {
	if c.store == nil {
		return
	}
	info := domain.PlanInfo{
		Handle:              c.handle,
		Key:                 plan.Key,
		TopologyFingerprint: fmt.Sprintf("%016x", plan.TopologyFingerprint),
		Descriptor:          plan.Descriptor,
		PatchCount:          plan.PatchCount(),
		RefinedVertices:     plan.NumRefinedVertices(),
		Checksum:            plan.Checksum(),
		BuildDuration:       elapsed,
		Timestamp:           time.Now(),
	}
	if err := c.store.Put(info); err != nil {
		c.logger.Error(zerr.With(zerr.Wrap(err, "failed to record plan"), "handle", string(c.handle)))
	}
}

func (c *Controller) refine(ctx context.Context, r *Report, plan *domain.RefinementPlan) {
	c.enter(r, StateRefine)
	backend := c.lease.Backend()
	ctx, span := c.tracer.Start(ctx, "geometry.refine",
		ports.WithAttribute(ports.AttrBackend, string(backend.Kind())),
	)
	defer span.End()

	outcome, err := c.geometry.EnsureCurrent(ctx, plan, c.source, backend, c.tracker.Flags())
	r.Buffers = outcome
	switch {
	case err == nil && outcome == geometry.Untouched && !r.PlanRebuilt && !r.TopologyRebuilt:
		r.Status = domain.FrameCached
	case err == nil:
		r.Status = domain.FrameDrawn
	case errors.Is(err, domain.ErrSourceNotReady):
		r.Status = domain.FrameSkipped
	default:
		r.Err = err
		span.RecordError(err)
		c.logger.Error(zerr.With(zerr.Wrap(err, "refine failed"), "handle", string(c.handle)))
		if c.geometry.HasBuffers() {
			r.Status = domain.FrameStale
		} else {
			r.Status = domain.FrameSkipped
		}
	}
}

func (c *Controller) drawFrame(ctx context.Context, r *Report) {
	c.enter(r, StateDraw)
	ctx, span := c.tracer.Start(ctx, "draw")
	defer span.End()

	buffers, ok := c.geometry.Buffers()
	if !ok {
		r.Status = domain.FrameSkipped
		return
	}
	span.SetAttribute(ports.AttrPatches, buffers.PatchCount)
	if err := c.draw.Draw(ctx, buffers); err != nil {
		err = zerr.With(zerr.Wrap(err, "draw failed"), "handle", string(c.handle))
		r.Err = errors.Join(r.Err, err)
		r.Status = domain.FrameSkipped
		span.RecordError(err)
		c.logger.Error(err)
	}
}

// Close unsubscribes from every source, then releases the buffers and the
// backend lease. No notification is handled after Close returns.
func (c *Controller) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true

	var errs []error
	if err := c.tracker.Close(); err != nil {
		errs = append(errs, err)
	}
	c.geometry.Release()
	c.plan = nil
	if err := c.lease.Release(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
