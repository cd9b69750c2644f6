// Package kernels holds the stencil evaluation shared by every compute backend.
package kernels

import (
	_ "embed"
	"encoding/binary"
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/zerr"
)

// StencilShader is the WGSL compute shader evaluating one stencil per invocation.
//
//go:embed shaders/stencil.wgsl
var StencilShader string

const (
	// WorkgroupSize matches @workgroup_size in StencilShader.
	WorkgroupSize = 64
	// MaxWorkgroupsPerDimension is the portable dispatch limit.
	MaxWorkgroupsPerDimension = 65535
)

// Check verifies that src can be refined by plan.
func Check(plan *domain.RefinementPlan, src []mgl32.Vec3) error {
	if plan == nil {
		return errors.Join(domain.ErrComputeFailure, zerr.New("no refinement plan"))
	}
	if len(src) != plan.NumCoarseVertices {
		err := zerr.With(zerr.New("coarse vertex count does not match plan"), "expected", plan.NumCoarseVertices)
		err = zerr.With(err, "got", len(src))
		return errors.Join(domain.ErrComputeFailure, err)
	}
	return nil
}

// Eval writes stencils [start, end) of t applied to src into dst.
// Terms are accumulated in table order so every caller produces identical bits.
func Eval(t *domain.StencilTable, src, dst []mgl32.Vec3, start, end int) {
	for i := start; i < end; i++ {
		idx, w := t.Stencil(i)
		var p mgl32.Vec3
		for j, v := range idx {
			p = p.Add(src[v].Mul(w[j]))
		}
		dst[i] = p
	}
}

// Dispatch returns the workgroup grid covering n invocations.
func Dispatch(n int) (x, y uint32) {
	groups := (n + WorkgroupSize - 1) / WorkgroupSize
	if groups == 0 {
		return 0, 0
	}
	rows := (groups + MaxWorkgroupsPerDimension - 1) / MaxWorkgroupsPerDimension
	cols := (groups + rows - 1) / rows
	return uint32(cols), uint32(rows) //nolint:gosec // bounded by the dispatch limit
}

// Inputs are the device-ready byte streams for one dispatch, in binding order.
type Inputs struct {
	Params  []byte
	Sizes   []byte
	Offsets []byte
	Indices []byte
	Weights []byte
	Source  []byte
	// OutputSize is the byte size of the refined xyz stream.
	OutputSize int
}

// Storage returns the read-only storage streams in binding order, starting at binding 1.
func (in *Inputs) Storage() [][]byte {
	return [][]byte{in.Sizes, in.Offsets, in.Indices, in.Weights, in.Source}
}

// Pack encodes a plan and its coarse points for upload. Empty streams are
// padded to one word since zero-sized bindings are invalid.
func Pack(plan *domain.RefinementPlan, src []mgl32.Vec3) *Inputs {
	t := &plan.Stencils
	weights := make([]byte, 4*len(t.Weights))
	for i, w := range t.Weights {
		binary.LittleEndian.PutUint32(weights[4*i:], math.Float32bits(w))
	}
	params := make([]byte, 16)
	binary.LittleEndian.PutUint32(params, uint32(t.Len())) //nolint:gosec // stencil counts fit in 32 bits

	return &Inputs{
		Params:     params,
		Sizes:      pad(domain.PackUint32(t.Sizes)),
		Offsets:    pad(domain.PackUint32(t.Offsets)),
		Indices:    pad(domain.PackUint32(t.Indices)),
		Weights:    pad(weights),
		Source:     pad(domain.PackPositions(src)),
		OutputSize: max(12*t.Len(), 4),
	}
}

// Unpack decodes the refined stream of n points.
func Unpack(data []byte, n int) []mgl32.Vec3 {
	return domain.UnpackPositions(data[:12*n])
}

func pad(b []byte) []byte {
	if len(b) == 0 {
		return make([]byte, 4)
	}
	return b
}
