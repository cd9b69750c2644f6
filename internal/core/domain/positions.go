package domain

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// PackPositions copies points into a packed little-endian float32 xyz stream.
func PackPositions(points []mgl32.Vec3) []byte {
	out := make([]byte, 12*len(points))
	for i, p := range points {
		binary.LittleEndian.PutUint32(out[12*i:], math.Float32bits(p[0]))
		binary.LittleEndian.PutUint32(out[12*i+4:], math.Float32bits(p[1]))
		binary.LittleEndian.PutUint32(out[12*i+8:], math.Float32bits(p[2]))
	}
	return out
}

// UnpackPositions decodes a stream written by PackPositions.
func UnpackPositions(data []byte) []mgl32.Vec3 {
	out := make([]mgl32.Vec3, len(data)/12)
	for i := range out {
		out[i] = mgl32.Vec3{
			math.Float32frombits(binary.LittleEndian.Uint32(data[12*i:])),
			math.Float32frombits(binary.LittleEndian.Uint32(data[12*i+4:])),
			math.Float32frombits(binary.LittleEndian.Uint32(data[12*i+8:])),
		}
	}
	return out
}

// PackUint32 encodes values as little-endian words.
func PackUint32(values []uint32) []byte {
	out := make([]byte, 4*len(values))
	for i, v := range values {
		binary.LittleEndian.PutUint32(out[4*i:], v)
	}
	return out
}

// UnpackUint32 decodes a stream written by PackUint32.
func UnpackUint32(data []byte) []uint32 {
	out := make([]uint32, len(data)/4)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(data[4*i:])
	}
	return out
}
