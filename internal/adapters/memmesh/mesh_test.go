package memmesh_test

import (
	"sync"
	"testing"
	"testing/synctest"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/subdiv/internal/adapters/memmesh"
	"go.trai.ch/subdiv/internal/core/domain"
)

type recorder struct {
	mu     sync.Mutex
	events []domain.ChangeEvent
}

func (r *recorder) notify(ev domain.ChangeEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) attributes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Attribute)
	}
	return out
}

func TestShape(t *testing.T) {
	assert.Equal(t, []string{"cube", "fin", "grid", "octahedron", "tetrahedron"}, memmesh.Shapes())

	for _, name := range memmesh.Shapes() {
		t.Run(name, func(t *testing.T) {
			m, err := memmesh.Shape(name)
			require.NoError(t, err)
			assert.Equal(t, domain.MeshHandle(name), m.Handle())

			points, err := m.VertexPositions()
			require.NoError(t, err)
			counts, indices, err := m.FaceTopology()
			require.NoError(t, err)
			creases, err := m.CreaseData()
			require.NoError(t, err)

			_, err = domain.NewTopology(len(points), counts, indices, creases)
			require.NoError(t, err)
		})
	}

	_, err := memmesh.Shape("teapot")
	require.ErrorIs(t, err, domain.ErrUnknownShape)
}

func TestGrid(t *testing.T) {
	m := memmesh.Grid("g", 2)
	points, err := m.VertexPositions()
	require.NoError(t, err)
	assert.Len(t, points, 9)
	counts, indices, err := m.FaceTopology()
	require.NoError(t, err)
	assert.Equal(t, []int{4, 4, 4, 4}, counts)
	assert.Equal(t, []int{0, 1, 4, 3}, indices[:4])
}

func TestMesh_NotReady(t *testing.T) {
	m := memmesh.NewEmpty("pending")

	_, err := m.VertexPositions()
	require.ErrorIs(t, err, domain.ErrSourceNotReady)
	_, _, err = m.FaceTopology()
	require.ErrorIs(t, err, domain.ErrSourceNotReady)
	_, err = m.CreaseData()
	require.ErrorIs(t, err, domain.ErrSourceNotReady)

	rec := &recorder{}
	_, err = m.Subscribe("pending", rec.notify)
	require.NoError(t, err)

	cube := memmesh.Cube("c")
	points, _ := cube.VertexPositions()
	counts, indices, _ := cube.FaceTopology()
	m.Update(points, counts, indices, domain.CreaseData{})

	got, err := m.VertexPositions()
	require.NoError(t, err)
	assert.Equal(t, points, got)
	require.Len(t, rec.events, 1)
	assert.Equal(t, domain.ChangeEvent{
		Handle: "pending", Attribute: memmesh.AttrOutMesh, Kind: domain.ChangeAttributeEval,
	}, rec.events[0])
}

func TestMesh_UpdateReportsChangedAttributes(t *testing.T) {
	m := memmesh.Cube("cube")
	points, _ := m.VertexPositions()
	counts, indices, _ := m.FaceTopology()

	rec := &recorder{}
	_, err := m.Subscribe("cube", rec.notify)
	require.NoError(t, err)

	m.Update(points, counts, indices, domain.CreaseData{})
	assert.Empty(t, rec.attributes())

	moved := append([]mgl32.Vec3(nil), points...)
	moved[0] = mgl32.Vec3{-2, -2, -2}
	m.Update(moved, counts, indices, domain.CreaseData{})
	assert.Equal(t, []string{memmesh.AttrPoints}, rec.attributes())

	creased := domain.CreaseData{Edges: []domain.EdgeCrease{{V0: 0, V1: 1, Sharpness: 2}}}
	m.Update(moved, counts, indices, creased)
	assert.Equal(t, []string{memmesh.AttrPoints, memmesh.AttrCreases}, rec.attributes())

	flipped := append([]int(nil), indices...)
	flipped[1], flipped[3] = flipped[3], flipped[1]
	m.Update(moved, counts, flipped, creased)
	assert.Equal(t, []string{memmesh.AttrPoints, memmesh.AttrCreases, memmesh.AttrFaceVertices}, rec.attributes())
}

func TestMesh_Setters(t *testing.T) {
	m := memmesh.Tetrahedron("tet")
	rec := &recorder{}
	_, err := m.Subscribe("tet", rec.notify)
	require.NoError(t, err)

	m.SetPoints([]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	m.SetTopology([]int{3}, []int{0, 1, 2})
	m.SetCreases(domain.CreaseData{Corners: []domain.CornerCrease{{Vertex: 0, Sharpness: 10}}})
	m.Emit(memmesh.AttrOutMesh, domain.ChangeAttributeEval)

	assert.Equal(t, []string{
		memmesh.AttrPoints, memmesh.AttrFaceVertices, memmesh.AttrCreases, memmesh.AttrOutMesh,
	}, rec.attributes())

	counts, _, err := m.FaceTopology()
	require.NoError(t, err)
	assert.Equal(t, []int{3}, counts)
}

func TestMesh_Subscriptions(t *testing.T) {
	m := memmesh.Cube("cube")

	_, err := m.Subscribe("other", func(domain.ChangeEvent) {})
	require.Error(t, err)

	rec := &recorder{}
	tok, err := m.Subscribe("cube", rec.notify)
	require.NoError(t, err)
	assert.Equal(t, 1, m.Subscribers())

	require.NoError(t, m.Unsubscribe(tok))
	assert.Equal(t, 0, m.Subscribers())
	m.Emit(memmesh.AttrPoints, domain.ChangeAttributeSet)
	assert.Empty(t, rec.attributes())

	require.ErrorIs(t, m.Unsubscribe(tok), domain.ErrSubscriptionNotFound)
}

func TestMesh_UnsubscribeWaitsForDelivery(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		m := memmesh.Cube("cube")
		entered := make(chan struct{})
		proceed := make(chan struct{})
		var delivered sync.WaitGroup

		tok, err := m.Subscribe("cube", func(domain.ChangeEvent) {
			close(entered)
			<-proceed
		})
		require.NoError(t, err)

		delivered.Go(func() { m.Emit(memmesh.AttrPoints, domain.ChangeAttributeSet) })
		<-entered

		var done bool
		unsubscribed := make(chan struct{})
		go func() {
			_ = m.Unsubscribe(tok)
			done = true
			close(unsubscribed)
		}()

		synctest.Wait()
		assert.False(t, done)

		close(proceed)
		<-unsubscribed
		delivered.Wait()
		assert.True(t, done)
	})
}
