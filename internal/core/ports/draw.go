package ports

import (
	"context"

	"go.trai.ch/subdiv/internal/core/domain"
)

// RefinedBuffers are the buffers for one frame of one mesh binding.
// They are valid until the frame ends unless the receiver calls Retain.
type RefinedBuffers struct {
	Handle     domain.MeshHandle
	Position   DeviceBuffer
	PatchIndex DeviceBuffer
	PatchParam DeviceBuffer

	PatchCount      int
	RefinedVertices int
	PatchArrays     []domain.PatchArray
	Scheme          domain.Scheme
	Backend         domain.BackendKind

	// Stale is true when a refine failed and the buffers hold the previous frame.
	Stale bool
}

// Retain bumps every buffer's reference count.
func (b RefinedBuffers) Retain() {
	b.Position.Retain()
	b.PatchIndex.Retain()
	b.PatchParam.Retain()
}

// Release drops the references taken by Retain.
func (b RefinedBuffers) Release() {
	b.Position.Release()
	b.PatchIndex.Release()
	b.PatchParam.Release()
}

// DrawStage consumes refined buffers and issues draw calls.
//
//go:generate mockgen -source=draw.go -destination=mocks/mock_draw.go -package=mocks
type DrawStage interface {
	Draw(ctx context.Context, buffers RefinedBuffers) error
}
