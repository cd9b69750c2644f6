// Package drawstage implements a draw stage that keeps the last frame of
// every mesh binding and exports it as a mesh file.
package drawstage

import (
	"context"
	"errors"
	"io"
	"slices"
	"strings"
	"sync"

	"go.trai.ch/subdiv/internal/adapters/meshfile"
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports"
	"go.trai.ch/zerr"
)

// Exporter implements ports.DrawStage. Each draw retains the buffers until
// the next draw of the same handle replaces them.
type Exporter struct {
	mu     sync.Mutex
	frames map[domain.MeshHandle]ports.RefinedBuffers
	draws  map[domain.MeshHandle]int
}

// New creates an empty Exporter.
func New() *Exporter {
	return &Exporter{
		frames: make(map[domain.MeshHandle]ports.RefinedBuffers),
		draws:  make(map[domain.MeshHandle]int),
	}
}

// Draw keeps buffers as the latest frame of its handle.
func (e *Exporter) Draw(_ context.Context, buffers ports.RefinedBuffers) error {
	if buffers.Position == nil || buffers.PatchIndex == nil || buffers.PatchParam == nil {
		return zerr.With(zerr.New("incomplete buffer set"), "handle", string(buffers.Handle))
	}
	buffers.Retain()

	e.mu.Lock()
	prev, ok := e.frames[buffers.Handle]
	e.frames[buffers.Handle] = buffers
	e.draws[buffers.Handle]++
	e.mu.Unlock()

	if ok {
		prev.Release()
	}
	return nil
}

// Handles returns every handle drawn so far, sorted.
func (e *Exporter) Handles() []domain.MeshHandle {
	e.mu.Lock()
	defer e.mu.Unlock()

	out := make([]domain.MeshHandle, 0, len(e.frames))
	for h := range e.frames {
		out = append(out, h)
	}
	slices.SortFunc(out, func(a, b domain.MeshHandle) int { return strings.Compare(string(a), string(b)) })
	return out
}

// Draws returns how many frames of handle were drawn.
func (e *Exporter) Draws(handle domain.MeshHandle) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.draws[handle]
}

// Last returns the latest frame of handle. The buffers stay valid until the
// next Draw for the handle or Close.
func (e *Exporter) Last(handle domain.MeshHandle) (ports.RefinedBuffers, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.frames[handle]
	return b, ok
}

// WriteOBJ writes the latest frame of handle as an OBJ mesh. Regular patches
// are written as the quad spanned by their four inner control vertices.
func (e *Exporter) WriteOBJ(w io.Writer, handle domain.MeshHandle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	b, ok := e.frames[handle]
	if !ok {
		return zerr.With(zerr.New("nothing drawn"), "handle", string(handle))
	}
	positions, ok := b.Position.Contents()
	if !ok {
		return errors.Join(domain.ErrBufferReleased, zerr.With(zerr.New("position buffer unreadable"), "handle", string(handle)))
	}
	indexData, ok := b.PatchIndex.Contents()
	if !ok {
		return errors.Join(domain.ErrBufferReleased, zerr.With(zerr.New("patch index buffer unreadable"), "handle", string(handle)))
	}

	points := domain.UnpackPositions(positions)
	if b.RefinedVertices < len(points) {
		points = points[:b.RefinedVertices]
	}
	faces, err := Faces(b.PatchArrays, domain.UnpackUint32(indexData))
	if err != nil {
		return zerr.With(err, "handle", string(handle))
	}
	return meshfile.Write(w, points, faces, domain.CreaseData{})
}

// Faces turns patch arrays into polygons over the refined vertices.
func Faces(arrays []domain.PatchArray, indices []uint32) ([]meshfile.Face, error) {
	var faces []meshfile.Face
	for _, a := range arrays {
		n := a.Type.ControlVertices()
		if n == 0 {
			return nil, zerr.With(zerr.New("unknown patch type"), "type", a.Type.String())
		}
		for p := range a.NumPatches {
			start := a.IndexOffset + p*n
			if start+n > len(indices) {
				return nil, zerr.With(zerr.New("patch index out of range"), "offset", start)
			}
			cvs := indices[start : start+n]
			if a.Type == domain.PatchRegular {
				faces = append(faces, meshfile.Face{cvs[5], cvs[6], cvs[10], cvs[9]})
				continue
			}
			faces = append(faces, meshfile.Face(slices.Clone(cvs)))
		}
	}
	return faces, nil
}

// Close releases every retained frame.
func (e *Exporter) Close() {
	e.mu.Lock()
	frames := e.frames
	e.frames = make(map[domain.MeshHandle]ports.RefinedBuffers)
	e.mu.Unlock()

	for _, b := range frames {
		b.Release()
	}
}
