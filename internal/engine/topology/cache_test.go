package topology_test

import (
	"errors"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports/mocks"
	"go.trai.ch/subdiv/internal/engine/topology"
	"go.uber.org/mock/gomock"
)

var quadPoints = []mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0}}

func expectQuad(src *mocks.MockMeshSource, indices []int) {
	src.EXPECT().FaceTopology().Return([]int{4}, indices, nil)
	src.EXPECT().CreaseData().Return(domain.CreaseData{}, nil)
	src.EXPECT().VertexPositions().Return(quadPoints, nil)
}

func TestCache_RebuildIfDirty(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mocks.NewMockMeshSource(ctrl)
	flags := domain.NewDirtyFlags()
	cache := topology.NewCache()

	expectQuad(src, []int{0, 1, 2, 3})
	first, err := cache.RebuildIfDirty(src, flags)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.False(t, flags.TopologyDirty())
	assert.False(t, cache.PlanValid())
	assert.Equal(t, 1, cache.Rebuilds())
	cache.MarkPlanBuilt()

	// Clean flags never touch the source.
	again, err := cache.RebuildIfDirty(src, flags)
	require.NoError(t, err)
	assert.Same(t, first, again)

	// A structurally identical snapshot keeps the instance and the plan.
	flags.MarkTopology()
	expectQuad(src, []int{0, 1, 2, 3})
	same, err := cache.RebuildIfDirty(src, flags)
	require.NoError(t, err)
	assert.Same(t, first, same)
	assert.True(t, cache.PlanValid())
	assert.Equal(t, 1, cache.Rebuilds())

	// A real edit replaces the topology and invalidates the plan.
	flags.MarkTopology()
	expectQuad(src, []int{0, 3, 2, 1})
	next, err := cache.RebuildIfDirty(src, flags)
	require.NoError(t, err)
	assert.NotSame(t, first, next)
	assert.False(t, cache.PlanValid())
	assert.Equal(t, 2, cache.Rebuilds())
}

func TestCache_InvalidKeepsPrevious(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mocks.NewMockMeshSource(ctrl)
	flags := domain.NewDirtyFlags()
	cache := topology.NewCache()

	expectQuad(src, []int{0, 1, 2, 3})
	good, err := cache.RebuildIfDirty(src, flags)
	require.NoError(t, err)
	cache.MarkPlanBuilt()

	flags.MarkTopology()
	expectQuad(src, []int{0, 1, 2, 9})
	got, err := cache.RebuildIfDirty(src, flags)
	require.ErrorIs(t, err, domain.ErrInvalidTopology)
	assert.Same(t, good, got)
	assert.Same(t, good, cache.Current())
	assert.True(t, flags.TopologyDirty())
	assert.True(t, cache.PlanValid())
}

func TestCache_SourceErrors(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mocks.NewMockMeshSource(ctrl)
	cache := topology.NewCache()

	src.EXPECT().FaceTopology().Return(nil, nil, domain.ErrSourceNotReady)
	_, err := cache.RebuildIfDirty(src, domain.NewDirtyFlags())
	require.ErrorIs(t, err, domain.ErrSourceNotReady)
	assert.NotErrorIs(t, err, domain.ErrInvalidTopology)

	src.EXPECT().FaceTopology().Return([]int{4}, []int{0, 1, 2, 3}, nil)
	src.EXPECT().CreaseData().Return(domain.CreaseData{}, errors.New("plug is locked"))
	_, err = cache.RebuildIfDirty(src, domain.NewDirtyFlags())
	require.ErrorIs(t, err, domain.ErrInvalidTopology)
	assert.Nil(t, cache.Current())
}

func TestCache_EditDuringSnapshot(t *testing.T) {
	ctrl := gomock.NewController(t)
	src := mocks.NewMockMeshSource(ctrl)
	flags := domain.NewDirtyFlags()
	cache := topology.NewCache()

	// The host splits the quad while the first snapshot is reading positions.
	src.EXPECT().FaceTopology().Return([]int{4}, []int{0, 1, 2, 3}, nil)
	src.EXPECT().CreaseData().Return(domain.CreaseData{}, nil)
	src.EXPECT().VertexPositions().DoAndReturn(func() ([]mgl32.Vec3, error) {
		flags.MarkTopology()
		return quadPoints, nil
	})
	first, err := cache.RebuildIfDirty(src, flags)
	require.NoError(t, err)
	assert.Equal(t, 1, first.NumFaces())
	assert.True(t, flags.TopologyDirty())

	src.EXPECT().FaceTopology().Return([]int{3, 3}, []int{0, 1, 2, 0, 2, 3}, nil)
	src.EXPECT().CreaseData().Return(domain.CreaseData{}, nil)
	src.EXPECT().VertexPositions().Return(quadPoints, nil)
	next, err := cache.RebuildIfDirty(src, flags)
	require.NoError(t, err)
	assert.Equal(t, 2, next.NumFaces())
	assert.False(t, flags.TopologyDirty())
	assert.Equal(t, 2, cache.Rebuilds())
}
