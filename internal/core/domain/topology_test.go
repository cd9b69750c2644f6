package domain_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/subdiv/internal/core/domain"
)

func TestNewTopology_Valid(t *testing.T) {
	counts := []int{4, 3}
	indices := []int{0, 1, 2, 3, 1, 4, 2}

	topo, err := domain.NewTopology(5, counts, indices, domain.CreaseData{})
	require.NoError(t, err)

	assert.Equal(t, 5, topo.NumVertices())
	assert.Equal(t, 2, topo.NumFaces())
	assert.Equal(t, []int{0, 1, 2, 3}, topo.Face(0))
	assert.Equal(t, []int{1, 4, 2}, topo.Face(1))

	// The snapshot owns its data.
	indices[0] = 4
	assert.Equal(t, 0, topo.Face(0)[0])
}

func TestNewTopology_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		vertices int
		counts   []int
		indices  []int
		creases  domain.CreaseData
	}{
		{"index out of range", 3, []int{3}, []int{0, 1, 3}, domain.CreaseData{}},
		{"negative index", 3, []int{3}, []int{0, -1, 2}, domain.CreaseData{}},
		{"face with two vertices", 3, []int{2}, []int{0, 1}, domain.CreaseData{}},
		{"count mismatch", 4, []int{4}, []int{0, 1, 2}, domain.CreaseData{}},
		{"repeated vertex", 4, []int{4}, []int{0, 1, 1, 2}, domain.CreaseData{}},
		{
			"crease out of range", 3, []int{3}, []int{0, 1, 2},
			domain.CreaseData{Edges: []domain.EdgeCrease{{V0: 0, V1: 7, Sharpness: 1}}},
		},
		{
			"corner out of range", 3, []int{3}, []int{0, 1, 2},
			domain.CreaseData{Corners: []domain.CornerCrease{{Vertex: 9, Sharpness: 1}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := domain.NewTopology(tt.vertices, tt.counts, tt.indices, tt.creases)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidTopology)
		})
	}
}

func TestTopology_Fingerprint(t *testing.T) {
	a, err := domain.NewTopology(4, []int{4}, []int{0, 1, 2, 3}, domain.CreaseData{})
	require.NoError(t, err)
	b, err := domain.NewTopology(4, []int{4}, []int{0, 1, 2, 3}, domain.CreaseData{})
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())

	creased, err := domain.NewTopology(4, []int{4}, []int{0, 1, 2, 3}, domain.CreaseData{
		Edges: []domain.EdgeCrease{{V0: 0, V1: 1, Sharpness: 2}},
	})
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), creased.Fingerprint())

	rewound, err := domain.NewTopology(4, []int{4}, []int{0, 3, 2, 1}, domain.CreaseData{})
	require.NoError(t, err)
	assert.NotEqual(t, a.Fingerprint(), rewound.Fingerprint())
	assert.Len(t, a.String(), 16)
}
