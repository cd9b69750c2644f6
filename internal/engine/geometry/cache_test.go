package geometry_test

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/subdiv/internal/adapters/backend/backendtest"
	"go.trai.ch/subdiv/internal/adapters/backend/cpu"
	"go.trai.ch/subdiv/internal/adapters/memmesh"
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports"
	"go.trai.ch/subdiv/internal/core/ports/mocks"
	"go.trai.ch/subdiv/internal/engine/geometry"
	"go.uber.org/mock/gomock"
)

func newCPU(t *testing.T) *cpu.Backend {
	t.Helper()
	b, err := cpu.New(context.Background(), domain.BackendConfig{})
	require.NoError(t, err)
	return b
}

func TestCache_EnsureCurrent(t *testing.T) {
	ctx := context.Background()
	backend := newCPU(t)
	mesh := memmesh.Cube("cube")
	flags := domain.NewDirtyFlags()
	cache := geometry.NewCache("cube")

	_, ok := cache.Buffers()
	assert.False(t, ok)

	level1 := backendtest.CubePlan(t, 1)
	outcome, err := cache.EnsureCurrent(ctx, level1, mesh, backend, flags)
	require.NoError(t, err)
	assert.Equal(t, geometry.Reallocated, outcome)
	assert.False(t, flags.AttributesDirty())
	assert.False(t, flags.BuffersStale())

	first, ok := cache.Buffers()
	require.True(t, ok)
	assert.Equal(t, domain.MeshHandle("cube"), first.Handle)
	assert.Equal(t, 24, first.PatchCount)
	assert.Equal(t, 26, first.RefinedVertices)
	assert.Equal(t, 26*12, first.Position.Size())
	assert.Equal(t, domain.SchemeCatmullClark, first.Scheme)
	assert.Equal(t, domain.BackendCPU, first.Backend)
	assert.False(t, first.Stale)
	indices, ok := first.PatchIndex.Contents()
	require.True(t, ok)
	assert.Equal(t, level1.Patches.Indices, domain.UnpackUint32(indices))

	// Nothing changed.
	flags.MarkBuffersStale()
	outcome, err = cache.EnsureCurrent(ctx, level1, mesh, backend, flags)
	require.NoError(t, err)
	assert.Equal(t, geometry.Untouched, outcome)
	assert.False(t, flags.BuffersStale())
	assert.Equal(t, 1, cache.Refines())

	// Data-only change keeps identity and capacity.
	moved := append([]mgl32.Vec3(nil), backendtest.CubePoints...)
	moved[6] = mgl32.Vec3{2, 2, 2}
	mesh.SetPoints(moved)
	flags.MarkAttributes()
	outcome, err = cache.EnsureCurrent(ctx, level1, mesh, backend, flags)
	require.NoError(t, err)
	assert.Equal(t, geometry.Refreshed, outcome)
	second, _ := cache.Buffers()
	assert.Equal(t, first.Position.ID(), second.Position.ID())
	assert.Equal(t, first.Position.Size(), second.Position.Size())
	assert.Equal(t, 1, cache.Allocations())

	want, err := backend.Refine(ctx, level1, moved)
	require.NoError(t, err)
	data, ok := second.Position.Contents()
	require.True(t, ok)
	assert.Equal(t, want, domain.UnpackPositions(data))

	// A new plan with new counts reallocates.
	level2 := backendtest.CubePlan(t, 2)
	outcome, err = cache.EnsureCurrent(ctx, level2, mesh, backend, flags)
	require.NoError(t, err)
	assert.Equal(t, geometry.Reallocated, outcome)
	third, _ := cache.Buffers()
	assert.NotEqual(t, first.Position.ID(), third.Position.ID())
	assert.Equal(t, 96, third.PatchCount)
	assert.Equal(t, 98*12, third.Position.Size())
	assert.Equal(t, 2, cache.Allocations())
	assert.Equal(t, 3, backend.Live())

	cache.Release()
	assert.Equal(t, 0, backend.Live())
	assert.False(t, cache.HasBuffers())
}

func TestCache_SameCountsReusesBuffers(t *testing.T) {
	ctx := context.Background()
	backend := newCPU(t)
	mesh := memmesh.Cube("cube")
	flags := domain.NewDirtyFlags()
	cache := geometry.NewCache("cube")

	plan := backendtest.CubePlan(t, 1)
	_, err := cache.EnsureCurrent(ctx, plan, mesh, backend, flags)
	require.NoError(t, err)
	before, _ := cache.Buffers()

	rekeyed := *plan
	rekeyed.Key = "rekeyed"
	outcome, err := cache.EnsureCurrent(ctx, &rekeyed, mesh, backend, flags)
	require.NoError(t, err)
	assert.Equal(t, geometry.Refreshed, outcome)
	after, _ := cache.Buffers()
	assert.Equal(t, before.PatchIndex.ID(), after.PatchIndex.ID())
	assert.Equal(t, "rekeyed", cache.PlanKey())
	assert.Equal(t, 1, cache.Allocations())
}

func TestCache_ComputeFailureKeepsBuffers(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	healthy := newCPU(t)
	mesh := memmesh.Cube("cube")
	flags := domain.NewDirtyFlags()
	cache := geometry.NewCache("cube")
	plan := backendtest.CubePlan(t, 1)

	_, err := cache.EnsureCurrent(ctx, plan, mesh, healthy, flags)
	require.NoError(t, err)
	good, _ := cache.Buffers()
	goodData, _ := good.Position.Contents()

	failing := mocks.NewMockComputeBackend(ctrl)
	failing.EXPECT().Kind().Return(domain.BackendCPU).AnyTimes()
	failing.EXPECT().Refine(gomock.Any(), plan, gomock.Any()).Return(nil, errors.New("device lost"))

	flags.MarkAttributes()
	_, err = cache.EnsureCurrent(ctx, plan, mesh, failing, flags)
	require.ErrorIs(t, err, domain.ErrComputeFailure)
	assert.True(t, flags.AttributesDirty())

	stale, ok := cache.Buffers()
	require.True(t, ok)
	assert.True(t, stale.Stale)
	assert.Equal(t, good.Position.ID(), stale.Position.ID())
	data, _ := stale.Position.Contents()
	assert.Equal(t, goodData, data)

	// The next frame retries and clears the stale mark.
	outcome, err := cache.EnsureCurrent(ctx, plan, mesh, healthy, flags)
	require.NoError(t, err)
	assert.Equal(t, geometry.Refreshed, outcome)
	fresh, _ := cache.Buffers()
	assert.False(t, fresh.Stale)
}

type allocFailure struct {
	ports.ComputeBackend
	kind domain.BufferKind
}

func (b allocFailure) Allocate(kind domain.BufferKind, size int) (ports.DeviceBuffer, error) {
	if kind == b.kind {
		return nil, errors.New("out of device memory")
	}
	return b.ComputeBackend.Allocate(kind, size)
}

func TestCache_AllocationFailureKeepsBuffers(t *testing.T) {
	ctx := context.Background()
	backend := newCPU(t)
	mesh := memmesh.Cube("cube")
	flags := domain.NewDirtyFlags()
	cache := geometry.NewCache("cube")

	_, err := cache.EnsureCurrent(ctx, backendtest.CubePlan(t, 1), mesh, backend, flags)
	require.NoError(t, err)
	good, _ := cache.Buffers()

	_, err = cache.EnsureCurrent(ctx, backendtest.CubePlan(t, 2), mesh, allocFailure{backend, domain.BufferPatchParam}, flags)
	require.ErrorIs(t, err, domain.ErrComputeFailure)
	assert.Equal(t, 3, backend.Live())

	kept, ok := cache.Buffers()
	require.True(t, ok)
	assert.True(t, kept.Stale)
	assert.Equal(t, good.Position.ID(), kept.Position.ID())
	assert.Equal(t, 24, kept.PatchCount)
}

// writeFailure hands out buffers of one kind whose writes fail once armed.
type writeFailure struct {
	ports.ComputeBackend
	kind  domain.BufferKind
	armed *bool
}

func (b writeFailure) Allocate(kind domain.BufferKind, size int) (ports.DeviceBuffer, error) {
	buf, err := b.ComputeBackend.Allocate(kind, size)
	if err != nil || kind != b.kind {
		return buf, err
	}
	return failingWrites{buf, b.armed}, nil
}

type failingWrites struct {
	ports.DeviceBuffer
	armed *bool
}

func (b failingWrites) Write(data []byte) error {
	if *b.armed {
		return errors.New("device lost")
	}
	return b.DeviceBuffer.Write(data)
}

func TestCache_InPlaceWriteFailureRestoresBuffers(t *testing.T) {
	ctx := context.Background()
	armed := false
	backend := writeFailure{newCPU(t), domain.BufferPatchParam, &armed}
	mesh := memmesh.Cube("cube")
	flags := domain.NewDirtyFlags()
	cache := geometry.NewCache("cube")

	plan := backendtest.CubePlan(t, 1)
	_, err := cache.EnsureCurrent(ctx, plan, mesh, backend, flags)
	require.NoError(t, err)
	good, _ := cache.Buffers()
	goodPositions, _ := good.Position.Contents()
	goodIndices, _ := good.PatchIndex.Contents()

	// Same counts, different data: written in place.
	rekeyed := *plan
	rekeyed.Key = "rekeyed"
	rekeyed.Patches.Indices = append([]uint32(nil), plan.Patches.Indices...)
	slices.Reverse(rekeyed.Patches.Indices)
	moved := append([]mgl32.Vec3(nil), backendtest.CubePoints...)
	moved[6] = mgl32.Vec3{2, 2, 2}
	mesh.SetPoints(moved)
	flags.MarkAttributes()

	armed = true
	_, err = cache.EnsureCurrent(ctx, &rekeyed, mesh, backend, flags)
	require.ErrorIs(t, err, domain.ErrComputeFailure)

	kept, ok := cache.Buffers()
	require.True(t, ok)
	assert.True(t, kept.Stale)
	assert.Equal(t, plan.Key, cache.PlanKey())
	assert.Equal(t, good.Position.ID(), kept.Position.ID())
	positions, _ := kept.Position.Contents()
	assert.Equal(t, goodPositions, positions)
	indices, _ := kept.PatchIndex.Contents()
	assert.Equal(t, goodIndices, indices)

	armed = false
	outcome, err := cache.EnsureCurrent(ctx, &rekeyed, mesh, backend, flags)
	require.NoError(t, err)
	assert.Equal(t, geometry.Refreshed, outcome)
	assert.Equal(t, "rekeyed", cache.PlanKey())
	indices, _ = kept.PatchIndex.Contents()
	assert.Equal(t, rekeyed.Patches.Indices, domain.UnpackUint32(indices))
}

func TestCache_SourceNotReady(t *testing.T) {
	cache := geometry.NewCache("pending")
	_, err := cache.EnsureCurrent(
		context.Background(),
		backendtest.CubePlan(t, 1),
		memmesh.NewEmpty("pending"),
		newCPU(t),
		domain.NewDirtyFlags(),
	)
	require.ErrorIs(t, err, domain.ErrSourceNotReady)
	assert.NotErrorIs(t, err, domain.ErrComputeFailure)
	assert.False(t, cache.HasBuffers())
}

func TestCache_RetainedBuffersOutliveRelease(t *testing.T) {
	backend := newCPU(t)
	cache := geometry.NewCache("cube")
	_, err := cache.EnsureCurrent(context.Background(), backendtest.CubePlan(t, 1), memmesh.Cube("cube"), backend, domain.NewDirtyFlags())
	require.NoError(t, err)

	bufs, _ := cache.Buffers()
	bufs.Retain()
	cache.Release()
	assert.Equal(t, 3, backend.Live())
	_, ok := bufs.Position.Contents()
	assert.True(t, ok)

	bufs.Release()
	assert.Equal(t, 0, backend.Live())
}
