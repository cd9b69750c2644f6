package ports

import (
	"github.com/go-gl/mathgl/mgl32"
	"go.trai.ch/subdiv/internal/core/domain"
)

// MeshSource is a read-only view of a mesh owned by the host.
//
//go:generate mockgen -source=mesh_source.go -destination=mocks/mock_mesh_source.go -package=mocks
type MeshSource interface {
	// Handle returns the stable identity of the mesh.
	Handle() domain.MeshHandle

	// VertexPositions returns the current coarse points.
	// Returns domain.ErrSourceNotReady if the mesh has not been evaluated yet.
	VertexPositions() ([]mgl32.Vec3, error)

	// FaceTopology returns the per-face vertex counts and the flattened face-vertex indices.
	FaceTopology() (counts []int, indices []int, err error)

	// CreaseData returns the edge and corner sharpness values.
	CreaseData() (domain.CreaseData, error)

	// Subscribe registers a callback for changes to the mesh identified by handle.
	// The callback may run on any goroutine.
	Subscribe(handle domain.MeshHandle, callback func(domain.ChangeEvent)) (domain.SubscriptionToken, error)

	// Unsubscribe removes a subscription. No callback for the token runs after it returns.
	Unsubscribe(token domain.SubscriptionToken) error
}
