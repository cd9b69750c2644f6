package refine

import (
	"context"

	"github.com/grindlemire/graft"
)

// NodeID is the unique identifier for the plan builder Graft node.
const NodeID graft.ID = "engine.refine"

func init() {
	graft.Register(graft.Node[*Builder]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Builder, error) {
			return NewBuilder(), nil
		},
	})
}
