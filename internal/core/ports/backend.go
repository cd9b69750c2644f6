package ports

import (
	"context"

	"github.com/go-gl/mathgl/mgl32"
	"go.trai.ch/subdiv/internal/core/domain"
)

//go:generate mockgen -source=backend.go -destination=mocks/mock_backend.go -package=mocks

// ComputeBackend evaluates refinement plans on one execution strategy.
// A backend owns its device state from construction until Shutdown.
type ComputeBackend interface {
	// Kind returns the backend variant.
	Kind() domain.BackendKind

	// Refine evaluates every stencil of plan against src and returns the refined points.
	// Runtime failures are reported as domain.ErrComputeFailure.
	Refine(ctx context.Context, plan *domain.RefinementPlan, src []mgl32.Vec3) ([]mgl32.Vec3, error)

	// Allocate creates a device buffer of size bytes for the given kind.
	Allocate(kind domain.BufferKind, size int) (DeviceBuffer, error)

	// Shutdown releases device resources in reverse acquisition order.
	Shutdown() error
}

// DeviceBuffer is a reference-counted device-resident array.
type DeviceBuffer interface {
	// ID identifies the allocation. A reallocated buffer has a new ID.
	ID() uint64

	// Kind returns what the buffer holds.
	Kind() domain.BufferKind

	// Size returns the allocated capacity in bytes.
	Size() int

	// Write uploads data at offset zero. data must fit the capacity.
	Write(data []byte) error

	// Contents returns a host copy of the buffer when the device allows it.
	Contents() ([]byte, bool)

	// Retain adds a reference so the buffer survives its owner's release.
	Retain()

	// Release drops a reference, freeing device memory when none remain.
	Release()
}
