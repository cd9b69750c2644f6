package meshfile_test

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/subdiv/internal/adapters/meshfile"
	"go.trai.ch/subdiv/internal/core/domain"
)

const quad = "v 0 0 0\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\n"

func writeMesh(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

type events struct {
	mu    sync.Mutex
	attrs []string
}

func (e *events) record(ev domain.ChangeEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.attrs = append(e.attrs, ev.Attribute)
}

func (e *events) list() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.attrs...)
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	writeMesh(t, path, quad)

	src, err := meshfile.Open(path)
	require.NoError(t, err)
	assert.Equal(t, domain.MeshHandle(path), src.Handle())
	assert.Equal(t, path, src.Path())

	points, err := src.VertexPositions()
	require.NoError(t, err)
	assert.Len(t, points, 4)
}

func TestOpen_Missing(t *testing.T) {
	src, err := meshfile.Open(filepath.Join(t.TempDir(), "absent.obj"))
	require.Error(t, err)
	require.NotNil(t, src)

	_, err = src.VertexPositions()
	require.ErrorIs(t, err, domain.ErrSourceNotReady)
}

func TestSource_Reload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quad.obj")
	writeMesh(t, path, quad)
	src, err := meshfile.Open(path)
	require.NoError(t, err)

	rec := &events{}
	_, err = src.Subscribe(src.Handle(), rec.record)
	require.NoError(t, err)

	writeMesh(t, path, "v 0 0 1\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3 4\n")
	require.NoError(t, src.Reload())
	assert.Equal(t, []string{"points"}, rec.list())

	writeMesh(t, path, "v 0 0 1\nv 1 0 0\nv 1 1 0\nv 0 1 0\nf 1 2 3\n")
	require.NoError(t, src.Reload())
	assert.Equal(t, []string{"points", "faceVertices"}, rec.list())

	// A malformed edit keeps the last good content.
	writeMesh(t, path, "v 0 0\n")
	require.ErrorIs(t, src.Reload(), domain.ErrMeshParse)
	counts, _, err := src.FaceTopology()
	require.NoError(t, err)
	assert.Equal(t, []int{3}, counts)
	assert.Len(t, rec.list(), 2)
}
