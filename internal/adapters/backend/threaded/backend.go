// Package threaded implements a compute backend that splits stencil
// evaluation across a bounded worker pool.
package threaded

import (
	"context"
	"errors"
	"runtime"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"go.trai.ch/subdiv/internal/adapters/backend/hostmem"
	"go.trai.ch/subdiv/internal/adapters/backend/kernels"
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// DefaultChunk is the number of stencils one task evaluates.
const DefaultChunk = 4096

// Backend evaluates disjoint stencil ranges in parallel. Each refined vertex
// is computed by exactly one worker in table order, so the output matches the
// CPU backend bit for bit.
type Backend struct {
	workers int
	chunk   int
	pool    hostmem.Pool
	closed  atomic.Bool
}

// Probe reports whether more than one CPU is usable.
func Probe(_ context.Context) error {
	if runtime.GOMAXPROCS(0) < 2 {
		return errors.Join(domain.ErrBackendUnavailable, zerr.New("a single CPU is available"))
	}
	return nil
}

// New creates a threaded backend. cfg.Workers of zero uses GOMAXPROCS.
func New(_ context.Context, cfg domain.BackendConfig) (*Backend, error) {
	workers := cfg.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	return &Backend{workers: workers, chunk: DefaultChunk}, nil
}

// Kind returns domain.BackendThreadedCPU.
func (b *Backend) Kind() domain.BackendKind { return domain.BackendThreadedCPU }

// Workers returns the pool bound.
func (b *Backend) Workers() int { return b.workers }

// Refine evaluates every stencil of plan against src. A started refine
// runs to completion; ctx is not consulted once workers are scheduled.
func (b *Backend) Refine(_ context.Context, plan *domain.RefinementPlan, src []mgl32.Vec3) ([]mgl32.Vec3, error) {
	if b.closed.Load() {
		return nil, errors.Join(domain.ErrComputeFailure, zerr.New("backend is shut down"))
	}
	if err := kernels.Check(plan, src); err != nil {
		return nil, err
	}

	out := make([]mgl32.Vec3, plan.NumRefinedVertices())
	var g errgroup.Group
	g.SetLimit(b.workers)
	for start := 0; start < len(out); start += b.chunk {
		end := min(start+b.chunk, len(out))
		g.Go(func() error {
			kernels.Eval(&plan.Stencils, src, out, start, end)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Join(domain.ErrComputeFailure, zerr.Wrap(err, "threaded refine failed"))
	}
	return out, nil
}

// Allocate creates a host buffer.
func (b *Backend) Allocate(kind domain.BufferKind, size int) (ports.DeviceBuffer, error) {
	buf, err := b.pool.Allocate(kind, size, nil)
	if err != nil {
		return nil, err
	}
	return buf, nil
}

// Live returns the number of buffers still referenced.
func (b *Backend) Live() int { return b.pool.Live() }

// Shutdown marks the backend closed. Buffers stay valid until released.
func (b *Backend) Shutdown() error {
	b.closed.Store(true)
	return nil
}
