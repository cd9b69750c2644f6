package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/subdiv/internal/adapters/backend"            //nolint:depguard // Wired in app layer
	"go.trai.ch/subdiv/internal/adapters/cas"                //nolint:depguard // Wired in app layer
	"go.trai.ch/subdiv/internal/adapters/config"             //nolint:depguard // Wired in app layer
	"go.trai.ch/subdiv/internal/adapters/drawstage"          //nolint:depguard // Wired in app layer
	"go.trai.ch/subdiv/internal/adapters/logger"             //nolint:depguard // Wired in app layer
	"go.trai.ch/subdiv/internal/adapters/telemetry"          //nolint:depguard // Wired in app layer
	"go.trai.ch/subdiv/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in app layer
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports"
	"go.trai.ch/subdiv/internal/engine/refine"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

func init() {
	// App Node
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			config.LoaderNodeID,
			logger.NodeID,
			backend.NodeID,
			refine.NodeID,
			drawstage.NodeID,
			cas.NodeID,
			telemetry.TracerNodeID,
			progrock.NodeID,
		},
		Run: runAppNode,
	})

	// Components Node
	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			a, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewComponents(a, log), nil
		},
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	cfg, err := graft.Dep[*domain.Config](ctx)
	if err != nil {
		return nil, err
	}

	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	registry, err := graft.Dep[*backend.Registry](ctx)
	if err != nil {
		return nil, err
	}

	builder, err := graft.Dep[*refine.Builder](ctx)
	if err != nil {
		return nil, err
	}

	draw, err := graft.Dep[*drawstage.Exporter](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.PlanStore](ctx)
	if err != nil {
		return nil, err
	}

	tracer, err := graft.Dep[ports.Tracer](ctx)
	if err != nil {
		return nil, err
	}

	rec, err := graft.Dep[ports.Telemetry](ctx)
	if err != nil {
		return nil, err
	}

	return New(cfg, loader, log, registry, builder, draw, store, tracer, rec), nil
}
