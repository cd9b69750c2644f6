package telemetry

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/subdiv/internal/adapters/telemetry/progrock"
	"go.trai.ch/subdiv/internal/core/ports"
)

// TracerNodeID is the unique identifier for the tracer Graft node.
const TracerNodeID graft.ID = "adapter.tracer"

func init() {
	graft.Register(graft.Node[ports.Tracer]{
		ID:        TracerNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{progrock.NodeID},
		Run: func(ctx context.Context) (ports.Tracer, error) {
			rec, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}
			return NewBridgedTracer(rec, "subdiv"), nil
		},
	})
}
