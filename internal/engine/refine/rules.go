package refine

import (
	"math"

	"go.trai.ch/subdiv/internal/core/domain"
)

// term is one weighted parent vertex of a child vertex.
type term struct {
	v int
	w float64
}

type mask []term

func scale(m mask, s float64) mask {
	out := make(mask, len(m))
	for i, t := range m {
		out[i] = term{t.v, t.w * s}
	}
	return out
}

func blend(a, b mask, wa float64) mask {
	return append(scale(a, wa), scale(b, 1-wa)...)
}

type vertexRule int

const (
	ruleSmooth vertexRule = iota
	ruleCrease
	ruleCorner
)

func classify(corner float64, sharp []float64) vertexRule {
	if corner > 0 {
		return ruleCorner
	}
	n := 0
	for _, s := range sharp {
		if s > 0 {
			n++
		}
	}
	switch {
	case n > 2:
		return ruleCorner
	case n == 2:
		return ruleCrease
	default:
		return ruleSmooth
	}
}

// rules produces child vertex masks over the vertices of one level.
type rules struct {
	scheme domain.Scheme
	l      *level
}

// facePoint is the centroid of f.
func (r rules) facePoint(f int) mask {
	face := r.l.faces[f]
	w := 1 / float64(len(face))
	m := make(mask, len(face))
	for i, v := range face {
		m[i] = term{v, w}
	}
	return m
}

func (r rules) edgePoint(e int) mask {
	ed := &r.l.edges[e]
	mid := mask{{ed.v0, 0.5}, {ed.v1, 0.5}}
	if r.scheme == domain.SchemeBilinear || ed.sharp >= 1 || len(ed.faces) != 2 {
		return mid
	}

	var smooth mask
	switch r.scheme {
	case domain.SchemeLoop:
		smooth = mask{{ed.v0, 3.0 / 8}, {ed.v1, 3.0 / 8}}
		for _, f := range ed.faces {
			for _, v := range r.l.faces[f] {
				if v != ed.v0 && v != ed.v1 {
					smooth = append(smooth, term{v, 1.0 / 8})
				}
			}
		}
	default:
		smooth = mask{{ed.v0, 0.25}, {ed.v1, 0.25}}
		for _, f := range ed.faces {
			smooth = append(smooth, scale(r.facePoint(f), 0.25)...)
		}
	}

	if ed.sharp <= 0 {
		return smooth
	}
	return blend(mid, smooth, ed.sharp)
}

func (r rules) vertexPoint(v int) mask {
	if r.scheme == domain.SchemeBilinear {
		return mask{{v, 1}}
	}

	l := r.l
	sharp := make([]float64, len(l.vertEdges[v]))
	child := make([]float64, len(sharp))
	for i, e := range l.vertEdges[v] {
		sharp[i] = l.edges[e].sharp
		child[i] = decay(sharp[i])
	}
	corner := l.vertSharp[v]
	parentRule := classify(corner, sharp)
	childRule := classify(decay(corner), child)

	m := r.vertexMask(v, parentRule, sharp)
	if parentRule == childRule {
		return m
	}

	// Sharpness crossing zero on this level blends the two rules by its average.
	var sum float64
	var n int
	if corner > 0 && decay(corner) == 0 {
		sum += math.Min(corner, 1)
		n++
	}
	for i, s := range sharp {
		if s > 0 && child[i] == 0 {
			sum += math.Min(s, 1)
			n++
		}
	}
	if n == 0 {
		return m
	}
	return blend(m, r.vertexMask(v, childRule, child), sum/float64(n))
}

func (r rules) vertexMask(v int, rule vertexRule, sharp []float64) mask {
	l := r.l
	switch rule {
	case ruleCorner:
		return mask{{v, 1}}
	case ruleCrease:
		m := mask{{v, 0.75}}
		for i, e := range l.vertEdges[v] {
			if sharp[i] > 0 {
				m = append(m, term{l.edges[e].other(v), 0.125})
			}
		}
		return m
	}

	n := len(l.vertEdges[v])
	if n < 3 || len(l.vertFaces[v]) != n {
		return mask{{v, 1}}
	}
	fn := float64(n)

	if r.scheme == domain.SchemeLoop {
		beta := 3.0 / (8 * fn)
		if n == 3 {
			beta = 3.0 / 16
		}
		m := mask{{v, 1 - fn*beta}}
		for _, e := range l.vertEdges[v] {
			m = append(m, term{l.edges[e].other(v), beta})
		}
		return m
	}

	m := mask{{v, (fn - 2) / fn}}
	for _, e := range l.vertEdges[v] {
		m = append(m, term{l.edges[e].other(v), 1 / (fn * fn)})
	}
	for _, f := range l.vertFaces[v] {
		m = append(m, scale(r.facePoint(f), 1/(fn*fn))...)
	}
	return m
}
