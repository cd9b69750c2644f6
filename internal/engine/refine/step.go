package refine

import (
	"go.trai.ch/subdiv/internal/core/domain"
)

// child selects one child face of a parent face. For quad-producing schemes
// corner i is the quad at the parent's i-th vertex. Loop uses corners 0..2
// for the corner triangles and 3 for the center triangle.
type child struct {
	face, corner int
}

const loopCenter = 3

// allChildren selects every child of every face.
func allChildren(l *level, scheme domain.Scheme) []child {
	var sel []child
	for f, face := range l.faces {
		n := len(face)
		if scheme == domain.SchemeLoop {
			n = 4
		}
		for i := range n {
			sel = append(sel, child{f, i})
		}
	}
	return sel
}

// subdivide creates the next level from the selected children of l and
// returns, per child vertex, its mask over the vertices of l.
func subdivide(l *level, scheme domain.Scheme, sel []child) (*level, []mask) {
	loop := scheme == domain.SchemeLoop

	needFace := make([]bool, len(l.faces))
	needEdge := make([]bool, len(l.edges))
	needVert := make([]bool, l.numVerts)
	for _, c := range sel {
		edges := l.faceEdges[c.face]
		n := len(edges)
		if c.corner == loopCenter && loop {
			for _, e := range edges {
				needEdge[e] = true
			}
			continue
		}
		needVert[l.faces[c.face][c.corner]] = true
		needEdge[edges[c.corner]] = true
		needEdge[edges[(c.corner+n-1)%n]] = true
		if !loop {
			needFace[c.face] = true
		}
	}

	r := rules{scheme: scheme, l: l}
	var masks []mask
	facePt := assign(needFace, &masks, r.facePoint)
	edgePt := assign(needEdge, &masks, r.edgePoint)
	vertPt := assign(needVert, &masks, r.vertexPoint)

	next := &level{
		depth:        l.depth + 1,
		numVerts:     len(masks),
		faces:        make([][]int, 0, len(sel)),
		params:       make([]domain.PatchParam, 0, len(sel)),
		vertSharp:    make([]float64, len(masks)),
		edgeSharp:    make(map[pair]float64),
		edgeBoundary: make(map[pair]bool),
	}

	for _, c := range sel {
		face := l.faces[c.face]
		edges := l.faceEdges[c.face]
		n := len(face)
		prev := (c.corner + n - 1) % n
		var cf []int
		switch {
		case loop && c.corner == loopCenter:
			cf = []int{edgePt[edges[0]], edgePt[edges[1]], edgePt[edges[2]]}
		case loop:
			cf = []int{vertPt[face[c.corner]], edgePt[edges[c.corner]], edgePt[edges[prev]]}
		default:
			cf = []int{vertPt[face[c.corner]], edgePt[edges[c.corner]], facePt[c.face], edgePt[edges[prev]]}
		}
		next.faces = append(next.faces, cf)
		next.params = append(next.params, childParam(l, scheme, c))
	}

	for e, ok := range needEdge {
		if !ok {
			continue
		}
		ed := &l.edges[e]
		mid := edgePt[e]
		for _, end := range [2]int{ed.v0, ed.v1} {
			if vertPt[end] < 0 {
				continue
			}
			k := edgeKey(vertPt[end], mid)
			if ed.boundary {
				next.edgeBoundary[k] = true
			}
			if s := decay(ed.sharp); s > 0 {
				next.edgeSharp[k] = s
			}
		}
	}
	for v, ok := range needVert {
		if ok {
			next.vertSharp[vertPt[v]] = decay(l.vertSharp[v])
		}
	}

	next.link()
	return next, masks
}

// assign numbers the needed elements in order and appends their masks.
func assign(need []bool, masks *[]mask, rule func(int) mask) []int {
	ids := make([]int, len(need))
	for i, ok := range need {
		ids[i] = -1
		if ok {
			ids[i] = len(*masks)
			*masks = append(*masks, rule(i))
		}
	}
	return ids
}

// childParam locates a child face in its coarse face's parametric domain.
func childParam(l *level, scheme domain.Scheme, c child) domain.PatchParam {
	p := l.params[c.face]
	p.Level++
	if l.depth == 0 && scheme != domain.SchemeLoop && len(l.faces[c.face]) != 4 {
		p.SubFace = uint8(c.corner) //nolint:gosec // corner of a coarse face
		return p
	}
	du, dv := uint16(0), uint16(0)
	switch c.corner {
	case 1:
		du = 1
	case 2:
		du, dv = 1, 1
		if scheme == domain.SchemeLoop {
			du = 0
		}
	case 3:
		dv = 1
		if scheme == domain.SchemeLoop {
			du = 1
		}
	}
	p.U = 2*p.U + du
	p.V = 2*p.V + dv
	return p
}
