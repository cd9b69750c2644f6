package refine_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/engine/refine"
)

var cubePoints = [][3]float64{
	{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
	{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
}

func cube(t *testing.T, creases domain.CreaseData) *domain.Topology {
	t.Helper()
	topo, err := domain.NewTopology(8, []int{4, 4, 4, 4, 4, 4}, []int{
		0, 3, 2, 1,
		4, 5, 6, 7,
		0, 1, 5, 4,
		1, 2, 6, 5,
		2, 3, 7, 6,
		3, 0, 4, 7,
	}, creases)
	require.NoError(t, err)
	return topo
}

func tetrahedron(t *testing.T) *domain.Topology {
	t.Helper()
	topo, err := domain.NewTopology(4, []int{3, 3, 3, 3}, []int{
		0, 1, 2,
		0, 3, 1,
		0, 2, 3,
		1, 3, 2,
	}, domain.CreaseData{})
	require.NoError(t, err)
	return topo
}

// grid returns an n by n quad grid in the z=0 plane with unit spacing.
func grid(t *testing.T, n int) (*domain.Topology, [][3]float64) {
	t.Helper()
	var points [][3]float64
	for j := 0; j <= n; j++ {
		for i := 0; i <= n; i++ {
			points = append(points, [3]float64{float64(i), float64(j), 0})
		}
	}
	at := func(i, j int) int { return j*(n+1) + i }
	var counts, indices []int
	for j := range n {
		for i := range n {
			counts = append(counts, 4)
			indices = append(indices, at(i, j), at(i+1, j), at(i+1, j+1), at(i, j+1))
		}
	}
	topo, err := domain.NewTopology(len(points), counts, indices, domain.CreaseData{})
	require.NoError(t, err)
	return topo, points
}

func apply(plan *domain.RefinementPlan, src [][3]float64) [][3]float64 {
	out := make([][3]float64, plan.NumRefinedVertices())
	for i := range out {
		idx, w := plan.Stencils.Stencil(i)
		for j := range idx {
			for k := range 3 {
				out[i][k] += float64(w[j]) * src[idx[j]][k]
			}
		}
	}
	return out
}

func descriptor(scheme domain.Scheme, rule domain.BoundaryRule, lvl int, adaptive bool) domain.RefinementDescriptor {
	return domain.RefinementDescriptor{Scheme: scheme, BoundaryRule: rule, IsolationLevel: lvl, Adaptive: adaptive}
}

func TestBuild_CubeUniform(t *testing.T) {
	b := refine.NewBuilder()

	plan, err := b.Build(context.Background(), cube(t, domain.CreaseData{}),
		descriptor(domain.SchemeCatmullClark, domain.BoundaryEdgeAndCorner, 1, false))
	require.NoError(t, err)

	assert.Equal(t, 26, plan.NumRefinedVertices())
	assert.Equal(t, 24, plan.PatchCount())
	require.Len(t, plan.Patches.Arrays, 1)
	assert.Equal(t, domain.PatchQuads, plan.Patches.Arrays[0].Type)
	assert.Len(t, plan.Patches.Indices, 24*4)
	assert.Equal(t, 8, plan.NumCoarseVertices)

	refined := apply(plan, cubePoints)
	// Face points come first, then edge points, then vertex points.
	assert.InDeltaSlice(t, []float64{0, 0, -1}, refined[0][:], 1e-6)
	assert.InDeltaSlice(t, []float64{5.0 / 9, 5.0 / 9, 5.0 / 9}, refined[18+6][:], 1e-6)

	plan2, err := b.Build(context.Background(), cube(t, domain.CreaseData{}),
		descriptor(domain.SchemeCatmullClark, domain.BoundaryEdgeAndCorner, 2, false))
	require.NoError(t, err)
	assert.Equal(t, 98, plan2.NumRefinedVertices())
	assert.Equal(t, 96, plan2.PatchCount())
}

func TestBuild_StencilsAreAffine(t *testing.T) {
	topo, _ := grid(t, 3)
	creased := cube(t, domain.CreaseData{
		Edges:   []domain.EdgeCrease{{V0: 0, V1: 1, Sharpness: 0.5}, {V0: 1, V1: 2, Sharpness: 2.5}},
		Corners: []domain.CornerCrease{{Vertex: 6, Sharpness: 1.5}},
	})

	tests := []struct {
		name string
		topo *domain.Topology
		desc domain.RefinementDescriptor
	}{
		{"cube uniform", creased, descriptor(domain.SchemeCatmullClark, domain.BoundaryEdgeOnly, 3, false)},
		{"cube adaptive", creased, descriptor(domain.SchemeCatmullClark, domain.BoundaryEdgeOnly, 3, true)},
		{"grid adaptive", topo, descriptor(domain.SchemeCatmullClark, domain.BoundaryEdgeAndCorner, 2, true)},
		{"tetra loop", tetrahedron(t), descriptor(domain.SchemeLoop, domain.BoundaryEdgeOnly, 2, false)},
		{"cube bilinear", creased, descriptor(domain.SchemeBilinear, domain.BoundaryEdgeOnly, 2, false)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := refine.NewBuilder().Build(context.Background(), tt.topo, tt.desc)
			require.NoError(t, err)
			for i := range plan.NumRefinedVertices() {
				_, w := plan.Stencils.Stencil(i)
				var sum float64
				for _, x := range w {
					sum += float64(x)
				}
				assert.InDelta(t, 1.0, sum, 1e-5, "stencil %d", i)
			}
			for _, idx := range plan.Patches.Indices {
				assert.Less(t, int(idx), plan.NumRefinedVertices())
			}
		})
	}
}

func TestBuild_Deterministic(t *testing.T) {
	desc := descriptor(domain.SchemeCatmullClark, domain.BoundaryEdgeAndCorner, 3, true)
	creases := domain.CreaseData{Edges: []domain.EdgeCrease{{V0: 4, V1: 5, Sharpness: 1.25}}}

	a, err := refine.NewBuilder().Build(context.Background(), cube(t, creases), desc)
	require.NoError(t, err)
	b, err := refine.NewBuilder().Build(context.Background(), cube(t, creases), desc)
	require.NoError(t, err)

	assert.Equal(t, a.Checksum(), b.Checksum())
	assert.Equal(t, a, b)
}

func TestBuild_InfiniteCreasesKeepTheCube(t *testing.T) {
	var creases domain.CreaseData
	for _, e := range [][2]int{{0, 1}, {1, 2}, {2, 3}, {3, 0}, {4, 5}, {5, 6}, {6, 7}, {7, 4}, {0, 4}, {1, 5}, {2, 6}, {3, 7}} {
		creases.Edges = append(creases.Edges, domain.EdgeCrease{V0: e[0], V1: e[1], Sharpness: domain.SharpnessInfinite})
	}

	plan, err := refine.NewBuilder().Build(context.Background(), cube(t, creases),
		descriptor(domain.SchemeCatmullClark, domain.BoundaryEdgeOnly, 1, false))
	require.NoError(t, err)

	refined := apply(plan, cubePoints)
	assert.InDeltaSlice(t, []float64{1, 1, 1}, refined[18+6][:], 1e-6)
	for e := 6; e < 18; e++ {
		for k := range 3 {
			assert.InDelta(t, 1.0, abs(refined[e][k])+boolf(refined[e][k] == 0), 1e-6)
		}
	}
}

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func boolf(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func TestBuild_BoundaryRules(t *testing.T) {
	topo, points := grid(t, 3)
	// 9 face points and 24 edge points precede the vertex points.
	const corner = 9 + 24

	plan, err := refine.NewBuilder().Build(context.Background(), topo,
		descriptor(domain.SchemeCatmullClark, domain.BoundaryEdgeAndCorner, 1, false))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0, 0, 0}, apply(plan, points)[corner][:], 1e-6)

	plan, err = refine.NewBuilder().Build(context.Background(), topo,
		descriptor(domain.SchemeCatmullClark, domain.BoundaryEdgeOnly, 1, false))
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{0.125, 0.125, 0}, apply(plan, points)[corner][:], 1e-6)
	assert.Equal(t, 36, plan.PatchCount())

	plan, err = refine.NewBuilder().Build(context.Background(), topo,
		descriptor(domain.SchemeCatmullClark, domain.BoundaryNone, 1, false))
	require.NoError(t, err)
	assert.Equal(t, 16, plan.PatchCount())
	for _, p := range plan.Patches.Params {
		assert.False(t, p.Boundary)
	}
}

func TestBuild_AdaptiveIsolatesRegularFaces(t *testing.T) {
	topo, _ := grid(t, 3)

	plan, err := refine.NewBuilder().Build(context.Background(), topo,
		descriptor(domain.SchemeCatmullClark, domain.BoundaryEdgeOnly, 2, true))
	require.NoError(t, err)

	require.NotEmpty(t, plan.Patches.Arrays)
	regular := plan.Patches.Arrays[0]
	require.Equal(t, domain.PatchRegular, regular.Type)

	// The center face of the coarse grid is regular at level zero and its
	// control grid is the whole coarse vertex set.
	center := plan.Patches.Params[regular.ParamOffset]
	assert.Equal(t, uint32(4), center.Face)
	assert.Equal(t, uint8(0), center.Level)
	cvs := plan.Patches.Indices[regular.IndexOffset : regular.IndexOffset+16]
	assert.ElementsMatch(t, []uint32{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15}, cvs)

	for _, p := range plan.Patches.Params[regular.ParamOffset+regular.NumPatches:] {
		assert.Equal(t, uint8(2), p.Level)
	}
}

func TestBuild_UniformFallbackForNonCatmullClark(t *testing.T) {
	plan, err := refine.NewBuilder().Build(context.Background(), tetrahedron(t),
		descriptor(domain.SchemeLoop, domain.BoundaryEdgeOnly, 1, true))
	require.NoError(t, err)

	assert.Equal(t, 10, plan.NumRefinedVertices())
	assert.Equal(t, 16, plan.PatchCount())
	require.Len(t, plan.Patches.Arrays, 1)
	assert.Equal(t, domain.PatchTriangles, plan.Patches.Arrays[0].Type)
}

func TestBuild_Errors(t *testing.T) {
	nonManifold, err := domain.NewTopology(5, []int{3, 3, 3}, []int{0, 1, 2, 1, 0, 3, 0, 1, 4}, domain.CreaseData{})
	require.NoError(t, err)
	flipped, err := domain.NewTopology(4, []int{3, 3}, []int{0, 1, 2, 0, 1, 3}, domain.CreaseData{})
	require.NoError(t, err)

	tests := []struct {
		name string
		topo *domain.Topology
		desc domain.RefinementDescriptor
		want error
	}{
		{"edge with three faces", nonManifold, domain.DefaultDescriptor(), domain.ErrUnsupportedTopology},
		{"inconsistent winding", flipped, domain.DefaultDescriptor(), domain.ErrUnsupportedTopology},
		{"loop on quads", cube(t, domain.CreaseData{}), descriptor(domain.SchemeLoop, domain.BoundaryEdgeOnly, 1, false), domain.ErrUnsupportedTopology},
		{"level too deep", cube(t, domain.CreaseData{}), descriptor(domain.SchemeCatmullClark, domain.BoundaryEdgeOnly, 11, false), domain.ErrInvalidDescriptor},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := refine.NewBuilder().Build(context.Background(), tt.topo, tt.desc)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBuild_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := refine.NewBuilder().Build(ctx, cube(t, domain.CreaseData{}), domain.DefaultDescriptor())
	require.Error(t, err)
}

// pyramid returns an n-sided pyramid: one n-gon base and n triangles meeting
// at an apex of valence n.
func pyramid(t *testing.T, n int) *domain.Topology {
	t.Helper()
	counts := []int{n}
	var indices []int
	for i := n - 1; i >= 0; i-- {
		indices = append(indices, i)
	}
	for i := range n {
		counts = append(counts, 3)
		indices = append(indices, n, i, (i+1)%n)
	}
	topo, err := domain.NewTopology(n+1, counts, indices, domain.CreaseData{})
	require.NoError(t, err)
	return topo
}

func TestBuild_AdaptiveHighValenceTerminates(t *testing.T) {
	topo := pyramid(t, 64)

	for _, level := range []int{4, domain.MaxIsolationLevel} {
		plan, err := refine.NewBuilder().Build(context.Background(), topo,
			descriptor(domain.SchemeCatmullClark, domain.BoundaryEdgeAndCorner, level, true))
		require.NoError(t, err, "level %d", level)
		require.Positive(t, plan.PatchCount())

		var worst float64
		for i := range plan.NumRefinedVertices() {
			_, w := plan.Stencils.Stencil(i)
			var sum float64
			for _, x := range w {
				sum += float64(x)
			}
			worst = max(worst, abs(sum-1))
		}
		assert.Less(t, worst, 1e-4, "level %d", level)

		var top uint32
		for _, idx := range plan.Patches.Indices {
			top = max(top, idx)
		}
		assert.Less(t, int(top), plan.NumRefinedVertices(), "level %d", level)
	}
}
