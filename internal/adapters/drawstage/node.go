package drawstage

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the draw stage Graft node.
const NodeID graft.ID = "adapter.drawstage"

func init() {
	graft.Register(graft.Node[*Exporter]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Exporter, error) {
			return New(), nil
		},
	})
}
