package refine

import (
	"errors"
	"math"

	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/zerr"
)

var infinite = math.Inf(1)

// pair is an undirected edge key with a < b.
type pair struct{ a, b int }

func edgeKey(a, b int) pair {
	if a > b {
		a, b = b, a
	}
	return pair{a, b}
}

type edge struct {
	v0, v1   int
	faces    []int
	forward  int // traversals from v0 to v1
	backward int
	boundary bool
	sharp    float64
}

// other returns the endpoint of e opposite to v.
func (e *edge) other(v int) int {
	if e.v0 == v {
		return e.v1
	}
	return e.v0
}

// level is one refinement level. Faces at levels above zero may be a sparse
// subset of the full subdivided mesh; every vertex that contributes to a
// further level still has its complete one-ring.
type level struct {
	depth     int
	numVerts  int
	faces     [][]int
	params    []domain.PatchParam
	vertSharp []float64

	// Only used for levels above zero; level zero derives both from the faces and creases.
	edgeSharp    map[pair]float64
	edgeBoundary map[pair]bool

	edges     []edge
	edgeIndex map[pair]int
	faceEdges [][]int
	vertEdges [][]int
	vertFaces [][]int
}

// newBaseLevel builds level zero from a coarse topology.
func newBaseLevel(topo *domain.Topology, rule domain.BoundaryRule) (*level, error) {
	l := &level{
		numVerts:  topo.NumVertices(),
		faces:     make([][]int, topo.NumFaces()),
		params:    make([]domain.PatchParam, topo.NumFaces()),
		vertSharp: make([]float64, topo.NumVertices()),
	}
	for f := range l.faces {
		l.faces[f] = topo.Face(f)
		l.params[f] = domain.PatchParam{Face: uint32(f)} //nolint:gosec // face counts fit in 32 bits
	}
	if err := l.connect(); err != nil {
		return nil, err
	}

	creases := topo.Creases()
	for _, c := range creases.Edges {
		idx, ok := l.edgeIndex[edgeKey(c.V0, c.V1)]
		if !ok {
			continue
		}
		e := &l.edges[idx]
		if !e.boundary {
			e.sharp = math.Max(e.sharp, sharpness(c.Sharpness))
		}
	}
	for _, c := range creases.Corners {
		l.vertSharp[c.Vertex] = math.Max(l.vertSharp[c.Vertex], sharpness(c.Sharpness))
	}
	if rule == domain.BoundaryEdgeAndCorner {
		for v := range l.numVerts {
			if len(l.vertEdges[v]) == 2 && l.onBoundary(v) {
				l.vertSharp[v] = infinite
			}
		}
	}
	return l, nil
}

func sharpness(s float32) float64 {
	if s >= domain.SharpnessInfinite {
		return infinite
	}
	return math.Max(0, float64(s))
}

// decay returns the sharpness one level down.
func decay(s float64) float64 {
	if math.IsInf(s, 1) {
		return s
	}
	return math.Max(0, s-1)
}

// index derives edges and incidence lists from the face list.
func (l *level) index() {
	l.edgeIndex = make(map[pair]int)
	l.faceEdges = make([][]int, len(l.faces))
	l.vertEdges = make([][]int, l.numVerts)
	l.vertFaces = make([][]int, l.numVerts)

	for f, face := range l.faces {
		n := len(face)
		l.faceEdges[f] = make([]int, n)
		for i, v := range face {
			w := face[(i+1)%n]
			k := edgeKey(v, w)
			idx, ok := l.edgeIndex[k]
			if !ok {
				idx = len(l.edges)
				l.edgeIndex[k] = idx
				l.edges = append(l.edges, edge{v0: k.a, v1: k.b})
				l.vertEdges[k.a] = append(l.vertEdges[k.a], idx)
				l.vertEdges[k.b] = append(l.vertEdges[k.b], idx)
			}
			e := &l.edges[idx]
			e.faces = append(e.faces, f)
			if v == e.v0 {
				e.forward++
			} else {
				e.backward++
			}
			l.faceEdges[f][i] = idx
			l.vertFaces[v] = append(l.vertFaces[v], f)
		}
	}
}

// connect indexes level zero and checks that the mesh is manifold and
// consistently wound.
func (l *level) connect() error {
	l.index()
	for i := range l.edges {
		e := &l.edges[i]
		if len(e.faces) > 2 {
			return unsupported("edge shared by more than two faces", e)
		}
		if e.forward > 1 || e.backward > 1 {
			return unsupported("faces sharing an edge have opposite winding", e)
		}
		e.boundary = len(e.faces) == 1
		if e.boundary {
			e.sharp = infinite
		}
	}
	return nil
}

// link indexes a refined level. Boundary and sharpness come from the
// parent edges recorded in edgeBoundary and edgeSharp.
func (l *level) link() {
	l.index()
	for i := range l.edges {
		e := &l.edges[i]
		k := pair{e.v0, e.v1}
		e.boundary = l.edgeBoundary[k]
		e.sharp = l.edgeSharp[k]
		if e.boundary {
			e.sharp = infinite
		}
	}
}

func unsupported(msg string, e *edge) error {
	err := zerr.With(zerr.New(msg), "v0", e.v0)
	err = zerr.With(err, "v1", e.v1)
	err = zerr.With(err, "faces", len(e.faces))
	return errors.Join(domain.ErrUnsupportedTopology, err)
}

// onBoundary reports whether v touches a boundary edge.
func (l *level) onBoundary(v int) bool {
	for _, e := range l.vertEdges[v] {
		if l.edges[e].boundary {
			return true
		}
	}
	return false
}

// faceOnBoundary reports whether any corner of f touches a boundary edge.
func (l *level) faceOnBoundary(f int) bool {
	for _, v := range l.faces[f] {
		if l.onBoundary(v) {
			return true
		}
	}
	return false
}

// regular reports whether f can be evaluated as a bicubic B-spline patch:
// a quad whose corners are smooth interior vertices of valence four
// surrounded by quads.
func (l *level) regular(f int) bool {
	face := l.faces[f]
	if len(face) != 4 {
		return false
	}
	for _, v := range face {
		if l.vertSharp[v] > 0 || len(l.vertEdges[v]) != 4 || len(l.vertFaces[v]) != 4 {
			return false
		}
		for _, e := range l.vertEdges[v] {
			if l.edges[e].sharp > 0 {
				return false
			}
		}
		for _, g := range l.vertFaces[v] {
			if len(l.faces[g]) != 4 {
				return false
			}
		}
	}
	return true
}

// opposite returns the face across edge index e from f.
func (l *level) opposite(f, e int) int {
	for _, g := range l.edges[e].faces {
		if g != f {
			return g
		}
	}
	return -1
}

// rotated returns face g starting at vertex v.
func (l *level) rotated(g, v int) []int {
	face := l.faces[g]
	out := make([]int, len(face))
	start := 0
	for i, w := range face {
		if w == v {
			start = i
			break
		}
	}
	for i := range face {
		out[i] = face[(start+i)%len(face)]
	}
	return out
}

// regularPoints gathers the 4x4 control grid of a regular face in row-major
// order. Row zero lies across the edge from corner 0 to corner 1.
func (l *level) regularPoints(f int) [16]int {
	face := l.faces[f]
	var g [4][4]int
	g[1][1], g[1][2], g[2][2], g[2][1] = face[0], face[1], face[2], face[3]

	// Outside neighbors across each edge, as (next to v_i, next to v_i+1).
	slots := [4][2][2]int{
		{{0, 1}, {0, 2}},
		{{1, 3}, {2, 3}},
		{{3, 2}, {3, 1}},
		{{2, 0}, {1, 0}},
	}
	for i := range 4 {
		// ring = [v_i+1, v_i, next to v_i, next to v_i+1]
		ring := l.rotated(l.opposite(f, l.faceEdges[f][i]), face[(i+1)%4])
		g[slots[i][0][0]][slots[i][0][1]] = ring[2]
		g[slots[i][1][0]][slots[i][1][1]] = ring[3]
	}

	// Diagonal corners come from the face around v_i that shares no edge with f.
	corners := [4][2]int{{0, 0}, {0, 3}, {3, 3}, {3, 0}}
	for i, v := range face {
		prev := l.opposite(f, l.faceEdges[f][(i+3)%4])
		next := l.opposite(f, l.faceEdges[f][i])
		for _, d := range l.vertFaces[v] {
			if d != f && d != prev && d != next {
				g[corners[i][0]][corners[i][1]] = l.rotated(d, v)[2]
				break
			}
		}
	}

	var out [16]int
	for r := range 4 {
		for c := range 4 {
			out[4*r+c] = g[r][c]
		}
	}
	return out
}
