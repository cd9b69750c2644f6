// Package geometry keeps the refined device buffers of one mesh binding current.
package geometry

import (
	"context"
	"errors"

	"github.com/go-gl/mathgl/mgl32"
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports"
	"go.trai.ch/zerr"
)

// Outcome describes what EnsureCurrent had to do.
type Outcome uint8

const (
	// Untouched means the buffers already matched the plan and the source data.
	Untouched Outcome = iota
	// Refreshed means the buffers were refined and re-uploaded in place.
	Refreshed
	// Reallocated means new buffers were allocated for changed counts.
	Reallocated
)

// String returns the name of the outcome.
func (o Outcome) String() string {
	switch o {
	case Refreshed:
		return "refreshed"
	case Reallocated:
		return "reallocated"
	default:
		return "untouched"
	}
}

type sizes struct {
	position   int
	patchIndex int
	patchParam int
}

func sizesFor(plan *domain.RefinementPlan) sizes {
	return sizes{
		position:   12 * plan.NumRefinedVertices(),
		patchIndex: 4 * len(plan.Patches.Indices),
		patchParam: 8 * plan.PatchCount(),
	}
}

// Cache owns the position, patch index and patch param buffers of one mesh
// binding. It is only used from the frame path and is not safe for
// concurrent use.
type Cache struct {
	handle domain.MeshHandle

	position   ports.DeviceBuffer
	patchIndex ports.DeviceBuffer
	patchParam ports.DeviceBuffer
	sizes      sizes

	planKey     string
	patchCount  int
	refined     int
	arrays      []domain.PatchArray
	scheme      domain.Scheme
	backend     domain.BackendKind
	stale       bool
	allocations int
	refines     int
}

// NewCache creates an empty cache for handle.
func NewCache(handle domain.MeshHandle) *Cache {
	return &Cache{handle: handle}
}

// Allocations returns how many times the buffer set was allocated.
func (c *Cache) Allocations() int { return c.allocations }

// Refines returns how many refines were uploaded.
func (c *Cache) Refines() int { return c.refines }

// PlanKey returns the key of the plan the buffers were last filled from.
func (c *Cache) PlanKey() string { return c.planKey }

// HasBuffers reports whether a good buffer set exists.
func (c *Cache) HasBuffers() bool { return c.position != nil }

// Buffers returns the current buffer set. ok is false before the first
// successful refine.
func (c *Cache) Buffers() (ports.RefinedBuffers, bool) {
	if c.position == nil {
		return ports.RefinedBuffers{}, false
	}
	return ports.RefinedBuffers{
		Handle:          c.handle,
		Position:        c.position,
		PatchIndex:      c.patchIndex,
		PatchParam:      c.patchParam,
		PatchCount:      c.patchCount,
		RefinedVertices: c.refined,
		PatchArrays:     c.arrays,
		Scheme:          c.scheme,
		Backend:         c.backend,
		Stale:           c.stale,
	}, true
}

// EnsureCurrent brings the buffers in line with plan and the coarse points of
// src. A plan whose counts match the held buffers reuses them; a data-only
// change refines and uploads without allocating. On failure the previous
// buffers are kept and marked stale, and the error wraps
// domain.ErrComputeFailure unless the source was not ready.
func (c *Cache) EnsureCurrent(
	ctx context.Context,
	plan *domain.RefinementPlan,
	src ports.MeshSource,
	backend ports.ComputeBackend,
	flags *domain.DirtyFlags,
) (Outcome, error) {
	planChanged := c.position == nil || plan.Key != c.planKey || backend.Kind() != c.backend
	if !planChanged && !flags.AttributesDirty() {
		flags.ClearBuffersStale()
		return Untouched, nil
	}

	// Cleared before reading so an edit racing the refine marks it again.
	flags.ClearAttributes()
	outcome, err := c.refresh(ctx, plan, src, backend, planChanged)
	if err != nil {
		flags.MarkAttributes()
		if c.position != nil {
			c.stale = true
		}
		return Untouched, err
	}
	flags.ClearBuffersStale()
	return outcome, nil
}

func (c *Cache) refresh(
	ctx context.Context,
	plan *domain.RefinementPlan,
	src ports.MeshSource,
	backend ports.ComputeBackend,
	planChanged bool,
) (Outcome, error) {
	points, err := src.VertexPositions()
	if err != nil {
		if errors.Is(err, domain.ErrSourceNotReady) {
			return Untouched, err
		}
		return Untouched, computeFailure(zerr.Wrap(err, "failed to read vertex positions"))
	}

	refined, err := backend.Refine(ctx, plan, points)
	if err != nil {
		return Untouched, computeFailure(err)
	}

	set := bufferSet{c.position, c.patchIndex, c.patchParam}
	outcome := Refreshed
	want := sizesFor(plan)
	if c.position == nil || want != c.sizes || backend.Kind() != c.backend {
		if set, err = allocate(backend, want); err != nil {
			return Untouched, err
		}
		outcome = Reallocated
	}

	if err := set.upload(plan, refined, planChanged || outcome == Reallocated, outcome != Reallocated); err != nil {
		if outcome == Reallocated {
			set.release()
		}
		return Untouched, computeFailure(err)
	}

	if outcome == Reallocated {
		c.Release()
		c.position, c.patchIndex, c.patchParam = set.position, set.patchIndex, set.patchParam
		c.sizes = want
		c.backend = backend.Kind()
		c.allocations++
	}
	c.planKey = plan.Key
	c.patchCount = plan.PatchCount()
	c.refined = len(refined)
	c.arrays = plan.Patches.Arrays
	c.scheme = plan.Descriptor.Scheme
	c.stale = false
	c.refines++
	return outcome, nil
}

type bufferSet struct {
	position   ports.DeviceBuffer
	patchIndex ports.DeviceBuffer
	patchParam ports.DeviceBuffer
}

// allocate creates a complete buffer set or nothing.
func allocate(backend ports.ComputeBackend, want sizes) (bufferSet, error) {
	var set bufferSet
	for _, slot := range []struct {
		dst  *ports.DeviceBuffer
		kind domain.BufferKind
		size int
	}{
		{&set.position, domain.BufferPosition, want.position},
		{&set.patchIndex, domain.BufferPatchIndex, want.patchIndex},
		{&set.patchParam, domain.BufferPatchParam, want.patchParam},
	} {
		buf, err := backend.Allocate(slot.kind, slot.size)
		if err != nil {
			set.release()
			err = zerr.With(zerr.Wrap(err, "failed to allocate buffer"), "kind", string(slot.kind))
			return bufferSet{}, computeFailure(zerr.With(err, "size", slot.size))
		}
		*slot.dst = buf
	}
	return set, nil
}

type bufferWrite struct {
	buf  ports.DeviceBuffer
	data []byte
}

// upload writes the refined data and, when patches is set, the patch table.
// Writes into live buffers are undone when a later one fails so the set
// never mixes two plans.
func (s bufferSet) upload(plan *domain.RefinementPlan, refined []mgl32.Vec3, patches, inPlace bool) error {
	writes := []bufferWrite{{s.position, domain.PackPositions(refined)}}
	if patches {
		writes = append(writes,
			bufferWrite{s.patchIndex, domain.PackUint32(plan.Patches.Indices)},
			bufferWrite{s.patchParam, domain.PackUint32(plan.Patches.PackParams())},
		)
	}

	var saved [][]byte
	for i, w := range writes {
		var prev []byte
		if inPlace {
			prev, _ = w.buf.Contents()
		}
		saved = append(saved, prev)
		if err := w.buf.Write(w.data); err != nil {
			for j := i; j >= 0; j-- {
				if saved[j] == nil {
					continue
				}
				if rerr := writes[j].buf.Write(saved[j]); rerr != nil {
					err = errors.Join(err, zerr.With(zerr.Wrap(rerr, "failed to restore buffer"), "kind", string(writes[j].buf.Kind())))
				}
			}
			return err
		}
	}
	return nil
}

func (s bufferSet) release() {
	for _, b := range []ports.DeviceBuffer{s.position, s.patchIndex, s.patchParam} {
		if b != nil {
			b.Release()
		}
	}
}

// Release drops the cache's reference on every buffer. Buffers retained by
// a draw stage stay valid until it releases them.
func (c *Cache) Release() {
	bufferSet{c.position, c.patchIndex, c.patchParam}.release()
	c.position, c.patchIndex, c.patchParam = nil, nil, nil
	c.sizes = sizes{}
	c.planKey = ""
	c.stale = false
}

func computeFailure(err error) error {
	if errors.Is(err, domain.ErrComputeFailure) {
		return err
	}
	return errors.Join(domain.ErrComputeFailure, err)
}
