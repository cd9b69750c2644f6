package domain

import (
	"errors"
	"math"

	"go.trai.ch/zerr"
)

// BackendKind tags a compute backend variant.
type BackendKind string

const (
	// BackendCPU is the single-threaded baseline, always available.
	BackendCPU BackendKind = "cpu"
	// BackendThreadedCPU splits stencil evaluation across a worker pool.
	BackendThreadedCPU BackendKind = "threaded-cpu"
	// BackendGPUCompute dispatches a compute shader through the Vulkan HAL.
	BackendGPUCompute BackendKind = "gpu-compute"
	// BackendGPUKernel dispatches a compute kernel through wgpu-native.
	BackendGPUKernel BackendKind = "gpu-kernel"
)

// DefaultBackendPreference lists backends most-parallel first, ending with the baseline.
func DefaultBackendPreference() []BackendKind {
	return []BackendKind{BackendGPUKernel, BackendGPUCompute, BackendThreadedCPU, BackendCPU}
}

// ParseBackendKind converts a configuration string into a BackendKind.
func ParseBackendKind(s string) (BackendKind, error) {
	switch BackendKind(s) {
	case BackendCPU, BackendThreadedCPU, BackendGPUCompute, BackendGPUKernel:
		return BackendKind(s), nil
	default:
		return "", errors.Join(ErrBackendNotRegistered, zerr.With(zerr.New("unknown backend"), "backend", s))
	}
}

// Tolerance returns the relative difference a backend's output may show against
// the CPU baseline. CPU backends evaluate stencils in the same order and are exact.
func (k BackendKind) Tolerance() float32 {
	switch k {
	case BackendGPUCompute, BackendGPUKernel:
		return 1e-5
	default:
		return 0
	}
}

// WithinTolerance reports whether got matches want under the backend's tolerance.
func (k BackendKind) WithinTolerance(want, got float32) bool {
	tol := k.Tolerance()
	if tol == 0 {
		return want == got
	}
	scale := math.Max(1, math.Abs(float64(want)))
	return math.Abs(float64(want)-float64(got)) <= float64(tol)*scale
}

// BufferKind identifies one of the refined output buffers.
type BufferKind string

const (
	// BufferPosition holds refined xyz positions as packed float32.
	BufferPosition BufferKind = "position"
	// BufferPatchIndex holds patch control-vertex indices as uint32.
	BufferPatchIndex BufferKind = "patch-index"
	// BufferPatchParam holds packed patch params as pairs of uint32.
	BufferPatchParam BufferKind = "patch-param"
)
