package backend

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/subdiv/internal/adapters/backend/cpu"
	"go.trai.ch/subdiv/internal/adapters/backend/gpucompute"
	"go.trai.ch/subdiv/internal/adapters/backend/gpukernel"
	"go.trai.ch/subdiv/internal/adapters/backend/threaded"
	"go.trai.ch/subdiv/internal/adapters/logger" //nolint:depguard // Wired in adapter wiring
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports"
)

// NodeID is the unique identifier for the backend registry Graft node.
const NodeID graft.ID = "adapter.backend_registry"

func init() {
	graft.Register(graft.Node[*Registry]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{logger.NodeID},
		Run: func(ctx context.Context) (*Registry, error) {
			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}
			return NewDefaultRegistry(log), nil
		},
	})
}

// NewDefaultRegistry registers every built-in backend.
func NewDefaultRegistry(log ports.Logger) *Registry {
	r := NewRegistry(log)
	r.Register(Entry{
		Kind:  domain.BackendCPU,
		Probe: cpu.Probe,
		Factory: func(ctx context.Context, cfg domain.BackendConfig) (ports.ComputeBackend, error) {
			b, err := cpu.New(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return b, nil
		},
	})
	r.Register(Entry{
		Kind:  domain.BackendThreadedCPU,
		Probe: threaded.Probe,
		Factory: func(ctx context.Context, cfg domain.BackendConfig) (ports.ComputeBackend, error) {
			b, err := threaded.New(ctx, cfg)
			if err != nil {
				return nil, err
			}
			return b, nil
		},
	})
	r.Register(Entry{Kind: domain.BackendGPUCompute, Probe: gpucompute.Probe, Factory: gpucompute.Create})
	r.Register(Entry{Kind: domain.BackendGPUKernel, Probe: gpukernel.Probe, Factory: gpukernel.Create})
	return r
}
