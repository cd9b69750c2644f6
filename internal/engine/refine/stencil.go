package refine

import (
	"slices"

	"go.trai.ch/subdiv/internal/core/domain"
)

// stencil is a refined vertex expressed over coarse vertices, kept in
// float64 until the table is emitted.
type stencil struct {
	idx []uint32
	w   []float64
}

func identity(n int) []stencil {
	out := make([]stencil, n)
	for i := range out {
		out[i] = stencil{idx: []uint32{uint32(i)}, w: []float64{1}} //nolint:gosec // vertex counts fit in 32 bits
	}
	return out
}

// composer folds child masks through the parent level's stencils. It reuses a
// dense accumulator over the coarse vertices and emits indices in ascending order.
type composer struct {
	acc     []float64
	seen    []bool
	touched []uint32
}

func newComposer(numCoarse int) *composer {
	return &composer{acc: make([]float64, numCoarse), seen: make([]bool, numCoarse)}
}

func (c *composer) compose(masks []mask, parents []stencil) []stencil {
	out := make([]stencil, len(masks))
	for i, m := range masks {
		for _, t := range m {
			p := parents[t.v]
			for j, idx := range p.idx {
				if !c.seen[idx] {
					c.seen[idx] = true
					c.touched = append(c.touched, idx)
				}
				c.acc[idx] += t.w * p.w[j]
			}
		}
		slices.Sort(c.touched)
		s := stencil{idx: make([]uint32, 0, len(c.touched)), w: make([]float64, 0, len(c.touched))}
		for _, idx := range c.touched {
			if c.acc[idx] != 0 {
				s.idx = append(s.idx, idx)
				s.w = append(s.w, c.acc[idx])
			}
			c.acc[idx] = 0
			c.seen[idx] = false
		}
		c.touched = c.touched[:0]
		out[i] = s
	}
	return out
}

func table(stencils []stencil) domain.StencilTable {
	var t domain.StencilTable
	t.Sizes = make([]uint32, len(stencils))
	t.Offsets = make([]uint32, len(stencils))
	for i, s := range stencils {
		t.Sizes[i] = uint32(len(s.idx))       //nolint:gosec // stencil sizes fit in 32 bits
		t.Offsets[i] = uint32(len(t.Indices)) //nolint:gosec // table sizes fit in 32 bits
		t.Indices = append(t.Indices, s.idx...)
		for _, w := range s.w {
			t.Weights = append(t.Weights, float32(w))
		}
	}
	return t
}
