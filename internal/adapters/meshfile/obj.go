// Package meshfile reads and writes Wavefront OBJ meshes and watches them for edits.
package meshfile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/zerr"
)

// Mesh is the content of one OBJ file.
type Mesh struct {
	Points  []mgl32.Vec3
	Counts  []int
	Indices []int
	Creases domain.CreaseData
}

// Parse reads an OBJ stream. Only v, f and t records are interpreted.
// Tags follow the "t name nint/nfloat/nstring ints... floats..." form:
//
//	t crease 2/1/0 0 1 2.5   sharpens edge 0-1
//	t corner 1/1/0 3 10      sharpens vertex 3
//
// A crease with more than two vertices sharpens every consecutive edge of
// the chain. Tag indices are zero-based.
func Parse(r io.Reader) (*Mesh, error) {
	m := &Mesh{}
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		fields := strings.Fields(sc.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		var err error
		switch fields[0] {
		case "v":
			err = m.vertex(fields[1:])
		case "f":
			err = m.face(fields[1:])
		case "t":
			err = m.tag(fields[1:])
		}
		if err != nil {
			return nil, errors.Join(domain.ErrMeshParse, zerr.With(err, "line", line))
		}
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Join(domain.ErrMeshParse, zerr.Wrap(err, "failed to read mesh"))
	}
	return m, nil
}

func (m *Mesh) vertex(args []string) error {
	if len(args) < 3 {
		return zerr.New("vertex needs three coordinates")
	}
	var p mgl32.Vec3
	for i := range 3 {
		v, err := strconv.ParseFloat(args[i], 32)
		if err != nil {
			return zerr.Wrap(err, "invalid vertex coordinate")
		}
		p[i] = float32(v)
	}
	m.Points = append(m.Points, p)
	return nil
}

func (m *Mesh) face(args []string) error {
	if len(args) < 3 {
		return zerr.With(zerr.New("face needs three vertices"), "vertices", len(args))
	}
	for _, a := range args {
		ref, _, _ := strings.Cut(a, "/")
		i, err := strconv.Atoi(ref)
		if err != nil {
			return zerr.Wrap(err, "invalid face index")
		}
		switch {
		case i > 0:
			i--
		case i < 0:
			i += len(m.Points)
		default:
			return zerr.New("face index zero")
		}
		m.Indices = append(m.Indices, i)
	}
	m.Counts = append(m.Counts, len(args))
	return nil
}

func (m *Mesh) tag(args []string) error {
	if len(args) < 2 {
		return zerr.New("tag needs a name and a size triple")
	}
	name := args[0]
	var nint, nfloat, nstring int
	if _, err := fmt.Sscanf(args[1], "%d/%d/%d", &nint, &nfloat, &nstring); err != nil {
		return zerr.With(zerr.Wrap(err, "invalid tag sizes"), "tag", name)
	}
	vals := args[2:]
	if len(vals) < nint+nfloat+nstring {
		return zerr.With(zerr.New("tag has fewer values than declared"), "tag", name)
	}

	ints := make([]int, nint)
	for i := range ints {
		v, err := strconv.Atoi(vals[i])
		if err != nil {
			return zerr.With(zerr.Wrap(err, "invalid tag integer"), "tag", name)
		}
		ints[i] = v
	}
	floats := make([]float32, nfloat)
	for i := range floats {
		v, err := strconv.ParseFloat(vals[nint+i], 32)
		if err != nil {
			return zerr.With(zerr.Wrap(err, "invalid tag float"), "tag", name)
		}
		floats[i] = float32(v)
	}

	switch name {
	case "crease":
		if nint < 2 || nfloat == 0 {
			return zerr.New("crease needs two vertices and a sharpness")
		}
		for i := 0; i+1 < nint; i++ {
			m.Creases.Edges = append(m.Creases.Edges, domain.EdgeCrease{
				V0: ints[i], V1: ints[i+1], Sharpness: pick(floats, i),
			})
		}
	case "corner":
		if nint == 0 || nfloat == 0 {
			return zerr.New("corner needs a vertex and a sharpness")
		}
		for i, v := range ints {
			m.Creases.Corners = append(m.Creases.Corners, domain.CornerCrease{Vertex: v, Sharpness: pick(floats, i)})
		}
	}
	return nil
}

// pick returns the i-th value, or the only one when a single value is shared.
func pick(values []float32, i int) float32 {
	if i < len(values) {
		return values[i]
	}
	return values[len(values)-1]
}

// Face is one polygon of refined output, as zero-based point indices.
type Face []uint32

// Write emits points and faces as OBJ, followed by crease tags.
func Write(w io.Writer, points []mgl32.Vec3, faces []Face, creases domain.CreaseData) error {
	bw := bufio.NewWriter(w)
	for _, p := range points {
		fmt.Fprintf(bw, "v %g %g %g\n", p[0], p[1], p[2])
	}
	for _, f := range faces {
		bw.WriteString("f")
		for _, v := range f {
			fmt.Fprintf(bw, " %d", v+1)
		}
		bw.WriteString("\n")
	}
	for _, e := range creases.Edges {
		fmt.Fprintf(bw, "t crease 2/1/0 %d %d %g\n", e.V0, e.V1, e.Sharpness)
	}
	for _, c := range creases.Corners {
		fmt.Fprintf(bw, "t corner 1/1/0 %d %g\n", c.Vertex, c.Sharpness)
	}
	if err := bw.Flush(); err != nil {
		return zerr.Wrap(err, "failed to write mesh")
	}
	return nil
}
