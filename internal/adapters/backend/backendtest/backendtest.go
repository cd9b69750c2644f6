// Package backendtest provides plans and points shared by backend tests.
package backendtest

import (
	"context"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/subdiv/internal/adapters/backend/cpu"
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports"
	"go.trai.ch/subdiv/internal/engine/refine"
)

// CubePoints are the corners of a cube of side two centred on the origin.
var CubePoints = []mgl32.Vec3{
	{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
	{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
}

// CubePlan builds a Catmull-Clark plan for the cube at the given level.
func CubePlan(t testing.TB, level int) *domain.RefinementPlan {
	t.Helper()
	topo, err := domain.NewTopology(8, []int{4, 4, 4, 4, 4, 4}, []int{
		0, 3, 2, 1,
		4, 5, 6, 7,
		0, 1, 5, 4,
		1, 2, 6, 5,
		2, 3, 7, 6,
		3, 0, 4, 7,
	}, domain.CreaseData{})
	require.NoError(t, err)

	d := domain.DefaultDescriptor()
	d.IsolationLevel = level
	plan, err := refine.NewBuilder().Build(context.Background(), topo, d)
	require.NoError(t, err)
	return plan
}

// RequireMatchesCPU refines src with b and with the cpu backend and checks
// every coordinate under the tolerance of b's kind.
func RequireMatchesCPU(t testing.TB, b ports.ComputeBackend, plan *domain.RefinementPlan, src []mgl32.Vec3) {
	t.Helper()
	base, err := cpu.New(context.Background(), domain.BackendConfig{})
	require.NoError(t, err)
	defer func() { _ = base.Shutdown() }()
	want, err := base.Refine(context.Background(), plan, src)
	require.NoError(t, err)

	got, err := b.Refine(context.Background(), plan, src)
	require.NoError(t, err)
	require.Len(t, got, len(want))
	kind := b.Kind()
	for i := range want {
		for k := range 3 {
			assert.True(t, kind.WithinTolerance(want[i][k], got[i][k]),
				"%s vertex %d axis %d: want %v got %v", kind, i, k, want[i][k], got[i][k])
		}
	}
}
