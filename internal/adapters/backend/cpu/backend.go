// Package cpu implements the single-threaded baseline compute backend.
package cpu

import (
	"context"
	"errors"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"go.trai.ch/subdiv/internal/adapters/backend/hostmem"
	"go.trai.ch/subdiv/internal/adapters/backend/kernels"
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports"
	"go.trai.ch/zerr"
)

// Backend evaluates stencils on the calling goroutine.
type Backend struct {
	pool   hostmem.Pool
	closed atomic.Bool
}

// Probe reports whether the backend can run. The CPU baseline always can.
func Probe(_ context.Context) error { return nil }

// New creates a CPU backend.
func New(_ context.Context, _ domain.BackendConfig) (*Backend, error) {
	return &Backend{}, nil
}

// Kind returns domain.BackendCPU.
func (b *Backend) Kind() domain.BackendKind { return domain.BackendCPU }

// Refine evaluates every stencil of plan against src.
func (b *Backend) Refine(_ context.Context, plan *domain.RefinementPlan, src []mgl32.Vec3) ([]mgl32.Vec3, error) {
	if b.closed.Load() {
		return nil, errors.Join(domain.ErrComputeFailure, zerr.New("backend is shut down"))
	}
	if err := kernels.Check(plan, src); err != nil {
		return nil, err
	}
	out := make([]mgl32.Vec3, plan.NumRefinedVertices())
	kernels.Eval(&plan.Stencils, src, out, 0, len(out))
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
