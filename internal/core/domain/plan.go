package domain

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/cespare/xxhash/v2"
)

// StencilTable expresses every refined vertex as a weighted sum of coarse vertices.
// Stencil i covers Indices[Offsets[i]:Offsets[i]+Sizes[i]] and the matching Weights.
type StencilTable struct {
	Sizes   []uint32
	Offsets []uint32
	Indices []uint32
	Weights []float32
}

// Len returns the number of stencils, which equals the refined vertex count.
func (s *StencilTable) Len() int { return len(s.Sizes) }

// Stencil returns the coarse indices and weights of stencil i.
func (s *StencilTable) Stencil(i int) ([]uint32, []float32) {
	start := s.Offsets[i]
	end := start + s.Sizes[i]
	return s.Indices[start:end], s.Weights[start:end]
}

// PatchType describes how a patch's control vertices are evaluated.
type PatchType uint8

const (
	// PatchQuads is a bilinear quad over four refined vertices.
	PatchQuads PatchType = iota + 1
	// PatchTriangles is a linear triangle over three refined vertices.
	PatchTriangles
	// PatchRegular is a bicubic B-spline patch over a 4x4 grid of refined vertices.
	PatchRegular
)

// String returns the name of the patch type.
func (p PatchType) String() string {
	switch p {
	case PatchQuads:
		return "quads"
	case PatchTriangles:
		return "triangles"
	case PatchRegular:
		return "regular"
	default:
		return "unknown"
	}
}

// ControlVertices returns the number of control vertices per patch.
func (p PatchType) ControlVertices() int {
	switch p {
	case PatchQuads:
		return 4
	case PatchTriangles:
		return 3
	case PatchRegular:
		return 16
	default:
		return 0
	}
}

// PatchParam locates a patch in the parametric domain of its coarse face.
type PatchParam struct {
	// Face is the coarse face the patch descends from.
	Face uint32
	// SubFace is the corner of a non-quad coarse face the patch descends from.
	SubFace uint8
	// Level is the refinement level the patch was emitted at.
	Level uint8
	// U and V are the patch's cell in the 2^Level grid of its parent domain.
	U, V uint16
	// Boundary is true when the patch touches the mesh boundary.
	Boundary bool
}

// Pack encodes the param as two 32-bit words for device upload:
// word0 = face, word1 = u:10 | v:10 | level:4 | subface:7 | boundary:1.
func (p PatchParam) Pack() [2]uint32 {
	var boundary uint32
	if p.Boundary {
		boundary = 1
	}
	return [2]uint32{
		p.Face,
		uint32(p.U&0x3ff) | uint32(p.V&0x3ff)<<10 | uint32(p.Level&0xf)<<20 | uint32(p.SubFace&0x7f)<<24 | boundary<<31,
	}
}

// PatchArray is a contiguous run of patches of one type.
type PatchArray struct {
	Type        PatchType
	NumPatches  int
	IndexOffset int
	ParamOffset int
}

// PatchTable maps refined patches to refined-vertex indices and parametric data.
type PatchTable struct {
	Arrays  []PatchArray
	Indices []uint32
	Params  []PatchParam
}

// PatchCount returns the total number of patches.
func (t *PatchTable) PatchCount() int { return len(t.Params) }

// PackParams encodes every patch param for device upload.
func (t *PatchTable) PackParams() []uint32 {
	out := make([]uint32, 0, 2*len(t.Params))
	for _, p := range t.Params {
		w := p.Pack()
		out = append(out, w[0], w[1])
	}
	return out
}

// RefinementPlan is the evaluation context built from one (Topology, RefinementDescriptor) pair.
type RefinementPlan struct {
	// Key identifies the inputs the plan was built from.
	Key string
	// Descriptor is the descriptor the plan was built with.
	Descriptor RefinementDescriptor
	// TopologyFingerprint is the fingerprint of the source topology.
	TopologyFingerprint uint64
	// NumCoarseVertices is the number of source vertices refine expects.
	NumCoarseVertices int
	// Stencils produces the refined vertex buffer from the coarse vertices.
	Stencils StencilTable
	// Patches indexes into the refined vertex buffer.
	Patches PatchTable
}

// NumRefinedVertices returns the length of the refined vertex buffer.
func (p *RefinementPlan) NumRefinedVertices() int { return p.Stencils.Len() }

// PatchCount returns the number of patches to draw.
func (p *RefinementPlan) PatchCount() int { return p.Patches.PatchCount() }

// Checksum hashes the stencil and patch tables bit for bit.
func (p *RefinementPlan) Checksum() string {
	h := xxhash.New()
	var buf [4]byte
	put := func(v uint32) {
		binary.LittleEndian.PutUint32(buf[:], v)
		_, _ = h.Write(buf[:])
	}
	for _, v := range p.Stencils.Sizes {
		put(v)
	}
	for _, v := range p.Stencils.Indices {
		put(v)
	}
	for _, w := range p.Stencils.Weights {
		put(math.Float32bits(w))
	}
	for _, a := range p.Patches.Arrays {
		put(uint32(a.Type))
		put(uint32(a.NumPatches)) //nolint:gosec // patch counts fit in 32 bits
	}
	for _, v := range p.Patches.Indices {
		put(v)
	}
	for _, v := range p.Patches.PackParams() {
		put(v)
	}
	return fmt.Sprintf("%016x", h.Sum64())
}

// PlanKey derives the identity of a plan from its inputs.
func PlanKey(topo *Topology, d RefinementDescriptor) string {
	h := xxhash.New()
	_, _ = fmt.Fprintf(h, "%016x", topo.Fingerprint())
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(string(d.Scheme))
	_, _ = h.Write([]byte{0})
	_, _ = h.WriteString(string(d.BoundaryRule))
	_, _ = h.Write([]byte{0})
	_, _ = fmt.Fprintf(h, "%d:%t", d.IsolationLevel, d.EffectiveAdaptive())
	return fmt.Sprintf("%016x", h.Sum64())
}
