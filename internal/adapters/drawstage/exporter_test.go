package drawstage_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/subdiv/internal/adapters/backend/backendtest"
	"go.trai.ch/subdiv/internal/adapters/backend/cpu"
	"go.trai.ch/subdiv/internal/adapters/drawstage"
	"go.trai.ch/subdiv/internal/adapters/meshfile"
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports"
)

func refined(t *testing.T, b *cpu.Backend, level int) ports.RefinedBuffers {
	t.Helper()
	plan := backendtest.CubePlan(t, level)
	points, err := b.Refine(context.Background(), plan, backendtest.CubePoints)
	require.NoError(t, err)

	upload := func(kind domain.BufferKind, data []byte) ports.DeviceBuffer {
		buf, err := b.Allocate(kind, len(data))
		require.NoError(t, err)
		require.NoError(t, buf.Write(data))
		return buf
	}
	return ports.RefinedBuffers{
		Handle:          "cube",
		Position:        upload(domain.BufferPosition, domain.PackPositions(points)),
		PatchIndex:      upload(domain.BufferPatchIndex, domain.PackUint32(plan.Patches.Indices)),
		PatchParam:      upload(domain.BufferPatchParam, domain.PackUint32(plan.Patches.PackParams())),
		PatchCount:      plan.PatchCount(),
		RefinedVertices: len(points),
		PatchArrays:     plan.Patches.Arrays,
		Scheme:          plan.Descriptor.Scheme,
		Backend:         domain.BackendCPU,
	}
}

func TestExporter_DrawRetainsLatest(t *testing.T) {
	backend, err := cpu.New(context.Background(), domain.BackendConfig{})
	require.NoError(t, err)
	exp := drawstage.New()
	var _ ports.DrawStage = exp

	first := refined(t, backend, 1)
	require.NoError(t, exp.Draw(context.Background(), first))
	first.Release()
	assert.Equal(t, 3, backend.Live())

	second := refined(t, backend, 2)
	require.NoError(t, exp.Draw(context.Background(), second))
	second.Release()
	assert.Equal(t, 3, backend.Live())
	assert.Equal(t, 2, exp.Draws("cube"))
	assert.Equal(t, []domain.MeshHandle{"cube"}, exp.Handles())

	last, ok := exp.Last("cube")
	require.True(t, ok)
	assert.Equal(t, 96, last.PatchCount)

	exp.Close()
	assert.Equal(t, 0, backend.Live())
	_, ok = exp.Last("cube")
	assert.False(t, ok)
}

func TestExporter_WriteOBJ(t *testing.T) {
	backend, err := cpu.New(context.Background(), domain.BackendConfig{})
	require.NoError(t, err)
	exp := drawstage.New()
	t.Cleanup(exp.Close)

	var buf bytes.Buffer
	require.Error(t, exp.WriteOBJ(&buf, "cube"))

	frame := refined(t, backend, 1)
	require.NoError(t, exp.Draw(context.Background(), frame))
	frame.Release()

	require.NoError(t, exp.WriteOBJ(&buf, "cube"))
	mesh, err := meshfile.Parse(&buf)
	require.NoError(t, err)
	assert.Len(t, mesh.Points, 26)
	assert.Len(t, mesh.Counts, 24)
	for _, c := range mesh.Counts {
		assert.Equal(t, 4, c)
	}

	topo, err := domain.NewTopology(len(mesh.Points), mesh.Counts, mesh.Indices, mesh.Creases)
	require.NoError(t, err)
	assert.Equal(t, 24, topo.NumFaces())
}

func TestExporter_IncompleteBuffers(t *testing.T) {
	exp := drawstage.New()
	err := exp.Draw(context.Background(), ports.RefinedBuffers{Handle: "cube"})
	require.Error(t, err)
	assert.Empty(t, exp.Handles())
}

func TestFaces(t *testing.T) {
	regular := make([]uint32, 16)
	for i := range regular {
		regular[i] = uint32(100 + i)
	}
	indices := append(regular, 1, 2, 3, 4, 5, 6, 7)

	faces, err := drawstage.Faces([]domain.PatchArray{
		{Type: domain.PatchRegular, NumPatches: 1, IndexOffset: 0},
		{Type: domain.PatchQuads, NumPatches: 1, IndexOffset: 16},
		{Type: domain.PatchTriangles, NumPatches: 1, IndexOffset: 20},
	}, indices)
	require.NoError(t, err)
	assert.Equal(t, []meshfile.Face{
		{105, 106, 110, 109},
		{1, 2, 3, 4},
		{5, 6, 7},
	}, faces)

	_, err = drawstage.Faces([]domain.PatchArray{{Type: domain.PatchQuads, NumPatches: 2}}, []uint32{1, 2, 3, 4})
	require.Error(t, err)

	_, err = drawstage.Faces([]domain.PatchArray{{NumPatches: 1}}, indices)
	require.Error(t, err)
}
