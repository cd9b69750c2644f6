package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/subdiv/internal/adapters/config" //nolint:depguard // Wired in adapter wiring
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports"
)

// NodeID is the unique identifier for the plan store Graft node.
const NodeID graft.ID = "adapter.plan_store"

func init() {
	graft.Register(graft.Node[ports.PlanStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (ports.PlanStore, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			return NewStore(cfg.StatePath)
		},
	})
}
