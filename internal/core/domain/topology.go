package domain

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/zerr"
)

// SharpnessInfinite marks an edge or corner as infinitely sharp.
const SharpnessInfinite float32 = 10

// EdgeCrease assigns a sharpness to the edge between two coarse vertices.
type EdgeCrease struct {
	V0        int     `json:"v0" yaml:"v0"`
	V1        int     `json:"v1" yaml:"v1"`
	Sharpness float32 `json:"sharpness" yaml:"sharpness"`
}

// CornerCrease assigns a sharpness to a single coarse vertex.
type CornerCrease struct {
	Vertex    int     `json:"vertex" yaml:"vertex"`
	Sharpness float32 `json:"sharpness" yaml:"sharpness"`
}

// CreaseData is the semi-sharp feature data attached to a coarse mesh.
type CreaseData struct {
	Edges   []EdgeCrease   `json:"edges,omitempty" yaml:"edges,omitempty"`
	Corners []CornerCrease `json:"corners,omitempty" yaml:"corners,omitempty"`
}

// Clone returns a deep copy of the crease data.
func (c CreaseData) Clone() CreaseData {
	return CreaseData{
		Edges:   append([]EdgeCrease(nil), c.Edges...),
		Corners: append([]CornerCrease(nil), c.Corners...),
	}
}

// Topology is an immutable snapshot of a coarse mesh's structure.
// Instances are only created through NewTopology and never modified afterwards.
type Topology struct {
	numVertices int
	counts      []int
	indices     []int
	offsets     []int
	creases     CreaseData
	fingerprint uint64
}

// NewTopology validates and copies the given mesh structure.
// It fails with ErrInvalidTopology if an index is out of range, a face has fewer
// than three vertices or a face repeats a vertex on consecutive corners.
func NewTopology(numVertices int, counts, indices []int, creases CreaseData) (*Topology, error) {
	if numVertices < 0 {
		return nil, invalidTopology("negative vertex count", "vertices", numVertices)
	}

	offsets := make([]int, len(counts)+1)
	for f, n := range counts {
		if n < 3 {
			return nil, invalidTopology("face has fewer than 3 vertices", "face", f)
		}
		offsets[f+1] = offsets[f] + n
	}
	if offsets[len(counts)] != len(indices) {
		return nil, invalidTopology("face vertex counts do not match index list", "indices", len(indices))
	}

	for f := range counts {
		face := indices[offsets[f]:offsets[f+1]]
		for i, v := range face {
			if v < 0 || v >= numVertices {
				return nil, invalidTopology("face vertex index out of range", "face", f, "index", v)
			}
			if v == face[(i+1)%len(face)] {
				return nil, invalidTopology("face repeats a vertex", "face", f, "index", v)
			}
		}
	}

	for _, e := range creases.Edges {
		if e.V0 < 0 || e.V0 >= numVertices || e.V1 < 0 || e.V1 >= numVertices || e.V0 == e.V1 {
			return nil, invalidTopology("crease edge out of range", "v0", e.V0, "v1", e.V1)
		}
	}
	for _, c := range creases.Corners {
		if c.Vertex < 0 || c.Vertex >= numVertices {
			return nil, invalidTopology("corner vertex out of range", "vertex", c.Vertex)
		}
	}

	t := &Topology{
		numVertices: numVertices,
		counts:      append([]int(nil), counts...),
		indices:     append([]int(nil), indices...),
		offsets:     offsets,
		creases:     creases.Clone(),
	}
	t.fingerprint = t.computeFingerprint()
	return t, nil
}

// invalidTopology builds an ErrInvalidTopology carrying the given key/value pairs.
func invalidTopology(msg string, kv ...any) error {
	var err error = zerr.New(msg)
	for i := 0; i+1 < len(kv); i += 2 {
		key, _ := kv[i].(string)
		err = zerr.With(err, key, kv[i+1])
	}
	return errors.Join(ErrInvalidTopology, err)
}

// NumVertices returns the coarse vertex count.
func (t *Topology) NumVertices() int { return t.numVertices }

// NumFaces returns the coarse face count.
func (t *Topology) NumFaces() int { return len(t.counts) }

// Face returns the vertex indices of face f. The slice must not be modified.
func (t *Topology) Face(f int) []int {
	return t.indices[t.offsets[f]:t.offsets[f+1]]
}

// FaceVertexCounts returns a copy of the per-face vertex counts.
func (t *Topology) FaceVertexCounts() []int { return append([]int(nil), t.counts...) }

// FaceVertexIndices returns a copy of the flattened face-vertex index list.
func (t *Topology) FaceVertexIndices() []int { return append([]int(nil), t.indices...) }

// Creases returns a copy of the crease data.
func (t *Topology) Creases() CreaseData { return t.creases.Clone() }

// Fingerprint returns a content hash over counts, indices and creases.
// Equal fingerprints identify structurally equal snapshots.
func (t *Topology) Fingerprint() uint64 { return t.fingerprint }

// String returns the fingerprint in hexadecimal form.
func (t *Topology) String() string { return fmt.Sprintf("%016x", t.fingerprint) }

func (t *Topology) computeFingerprint() uint64 {
	h := xxhash.New()
	var buf [8]byte
	writeInt := func(v int) {
		binary.LittleEndian.PutUint64(buf[:], uint64(v)) //nolint:gosec // two's complement is fine for hashing
		_, _ = h.Write(buf[:])
	}
	writeFloat := func(v float32) {
		binary.LittleEndian.PutUint32(buf[:4], math.Float32bits(v))
		_, _ = h.Write(buf[:4])
	}

	writeInt(t.numVertices)
	writeInt(len(t.counts))
	for _, n := range t.counts {
		writeInt(n)
	}
	for _, v := range t.indices {
		writeInt(v)
	}
	_, _ = h.WriteString("creases")
	for _, e := range t.creases.Edges {
		writeInt(e.V0)
		writeInt(e.V1)
		writeFloat(e.Sharpness)
	}
	_, _ = h.WriteString("corners")
	for _, c := range t.creases.Corners {
		writeInt(c.Vertex)
		writeFloat(c.Sharpness)
	}
	return h.Sum64()
}
