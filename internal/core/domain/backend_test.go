package domain_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"go.trai.ch/subdiv/internal/core/domain"
)

func TestBackendKind_WithinTolerance(t *testing.T) {
	assert.True(t, domain.BackendCPU.WithinTolerance(1.5, 1.5))
	assert.False(t, domain.BackendThreadedCPU.WithinTolerance(1.5, 1.5000001))

	assert.True(t, domain.BackendGPUCompute.WithinTolerance(1.5, 1.500001))
	assert.False(t, domain.BackendGPUKernel.WithinTolerance(1.5, 1.6))
	assert.True(t, domain.BackendGPUKernel.WithinTolerance(1000, 1000.005))
}

func TestDefaultBackendPreference_EndsWithBaseline(t *testing.T) {
	pref := domain.DefaultBackendPreference()
	assert.Equal(t, domain.BackendCPU, pref[len(pref)-1])
}

func TestPackPositions_RoundTrip(t *testing.T) {
	points := []mgl32.Vec3{{1, 2, 3}, {-0.5, 0, 4.25}}
	packed := domain.PackPositions(points)
	assert.Len(t, packed, 24)
	assert.Equal(t, points, domain.UnpackPositions(packed))
}

func TestPatchParam_Pack(t *testing.T) {
	p := domain.PatchParam{Face: 7, SubFace: 2, Level: 3, U: 5, V: 6, Boundary: true}
	words := p.Pack()
	assert.Equal(t, uint32(7), words[0])
	assert.Equal(t, uint32(5), words[1]&0x3ff)
	assert.Equal(t, uint32(6), (words[1]>>10)&0x3ff)
	assert.Equal(t, uint32(3), (words[1]>>20)&0xf)
	assert.Equal(t, uint32(2), (words[1]>>24)&0x7f)
	assert.Equal(t, uint32(1), words[1]>>31)
}
