package memmesh

import (
	"errors"
	"slices"

	"github.com/go-gl/mathgl/mgl32"
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/zerr"
)

type shape func(handle domain.MeshHandle) *Mesh

var shapes = map[string]shape{
	"cube":        Cube,
	"tetrahedron": Tetrahedron,
	"octahedron":  Octahedron,
	"grid":        func(h domain.MeshHandle) *Mesh { return Grid(h, 3) },
	"fin":         Fin,
}

// Shapes returns the names accepted by Shape, sorted.
func Shapes() []string {
	names := make([]string, 0, len(shapes))
	for name := range shapes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Shape builds the named built-in mesh with the name as its handle.
func Shape(name string) (*Mesh, error) {
	build, ok := shapes[name]
	if !ok {
		return nil, errors.Join(domain.ErrUnknownShape, zerr.With(zerr.New("no built-in mesh"), "shape", name))
	}
	return build(domain.MeshHandle(name)), nil
}

// Cube is six quads around a cube of side two.
func Cube(handle domain.MeshHandle) *Mesh {
	return New(handle, []mgl32.Vec3{
		{-1, -1, -1}, {1, -1, -1}, {1, 1, -1}, {-1, 1, -1},
		{-1, -1, 1}, {1, -1, 1}, {1, 1, 1}, {-1, 1, 1},
	}, []int{4, 4, 4, 4, 4, 4}, []int{
		0, 3, 2, 1,
		4, 5, 6, 7,
		0, 1, 5, 4,
		1, 2, 6, 5,
		2, 3, 7, 6,
		3, 0, 4, 7,
	}, domain.CreaseData{})
}

// Tetrahedron is four outward-facing triangles.
func Tetrahedron(handle domain.MeshHandle) *Mesh {
	return New(handle, []mgl32.Vec3{
		{1, 1, 1}, {-1, -1, 1}, {-1, 1, -1}, {1, -1, -1},
	}, []int{3, 3, 3, 3}, []int{
		0, 2, 1,
		0, 1, 3,
		1, 2, 3,
		2, 0, 3,
	}, domain.CreaseData{})
}

// Octahedron is eight triangles around the unit axes.
func Octahedron(handle domain.MeshHandle) *Mesh {
	return New(handle, []mgl32.Vec3{
		{1, 0, 0}, {-1, 0, 0}, {0, 1, 0}, {0, -1, 0}, {0, 0, 1}, {0, 0, -1},
	}, []int{3, 3, 3, 3, 3, 3, 3, 3}, []int{
		4, 0, 2,
		4, 2, 1,
		4, 1, 3,
		4, 3, 0,
		5, 2, 0,
		5, 1, 2,
		5, 3, 1,
		5, 0, 3,
	}, domain.CreaseData{})
}

// Grid is an open n×n quad grid in the XY plane.
func Grid(handle domain.MeshHandle, n int) *Mesh {
	points := make([]mgl32.Vec3, 0, (n+1)*(n+1))
	for y := 0; y <= n; y++ {
		for x := 0; x <= n; x++ {
			points = append(points, mgl32.Vec3{float32(x), float32(y), 0})
		}
	}
	counts := make([]int, 0, n*n)
	indices := make([]int, 0, 4*n*n)
	for y := range n {
		for x := range n {
			v := y*(n+1) + x
			counts = append(counts, 4)
			indices = append(indices, v, v+1, v+n+2, v+n+1)
		}
	}
	return New(handle, points, counts, indices, domain.CreaseData{})
}

// Fin is three quads sharing one edge, which no manifold scheme accepts.
func Fin(handle domain.MeshHandle) *Mesh {
	return New(handle, []mgl32.Vec3{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{1, 0, 1}, {0, 0, 1}, {1, -1, 0}, {0, -1, 0},
	}, []int{4, 4, 4}, []int{
		0, 1, 2, 3,
		1, 0, 5, 4,
		0, 1, 6, 7,
	}, domain.CreaseData{})
}
