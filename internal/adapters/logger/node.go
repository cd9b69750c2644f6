package logger

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/subdiv/internal/adapters/config" //nolint:depguard // Wired in adapter wiring
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports"
)

// NodeID is the unique identifier for the logger Graft node.
const NodeID graft.ID = "adapter.logger"

func init() {
	graft.Register(graft.Node[ports.Logger]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{config.NodeID},
		Run: func(ctx context.Context) (ports.Logger, error) {
			cfg, err := graft.Dep[*domain.Config](ctx)
			if err != nil {
				return nil, err
			}
			l := New()
			l.SetLevel(cfg.LogLevel)
			return l, nil
		},
	})
}
