package ports

import "go.trai.ch/subdiv/internal/core/domain"

// PlanStore records finished plan builds per mesh binding.
//
//go:generate mockgen -source=store.go -destination=mocks/mock_store.go -package=mocks
type PlanStore interface {
	// Get retrieves the last plan info recorded for a handle.
	// Returns nil, nil if not found.
	Get(handle domain.MeshHandle) (*domain.PlanInfo, error)

	// Put stores the plan info.
	Put(info domain.PlanInfo) error

	// List returns every recorded plan info ordered by handle.
	List() ([]domain.PlanInfo, error)
}
