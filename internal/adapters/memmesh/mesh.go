// Package memmesh provides an in-memory mesh source with change notifications.
package memmesh

import (
	"errors"
	"slices"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.MeshSource = (*Mesh)(nil)

// Attribute names reported in change events.
const (
	AttrPoints       = "points"
	AttrFaceVertices = "faceVertices"
	AttrCreases      = "creases"
	AttrOutMesh      = "outMesh"
)

// Mesh is a mutable mesh owned by the caller. Edits notify subscribers
// after the new data is visible to readers.
type Mesh struct {
	handle domain.MeshHandle

	mu      sync.RWMutex
	ready   bool
	points  []mgl32.Vec3
	counts  []int
	indices []int
	creases domain.CreaseData

	// deliver is held for reading while callbacks run so Unsubscribe can
	// wait for in-flight deliveries.
	deliver sync.RWMutex
	subMu   sync.Mutex
	subs    map[domain.SubscriptionToken]func(domain.ChangeEvent)
	next    domain.SubscriptionToken
}

// New creates a ready mesh from the given data. Slices are copied.
func New(handle domain.MeshHandle, points []mgl32.Vec3, counts, indices []int, creases domain.CreaseData) *Mesh {
	m := NewEmpty(handle)
	m.ready = true
	m.points = slices.Clone(points)
	m.counts = slices.Clone(counts)
	m.indices = slices.Clone(indices)
	m.creases = creases.Clone()
	return m
}

// NewEmpty creates a mesh that reports domain.ErrSourceNotReady until its first Update.
func NewEmpty(handle domain.MeshHandle) *Mesh {
	return &Mesh{
		handle: handle,
		subs:   make(map[domain.SubscriptionToken]func(domain.ChangeEvent)),
	}
}

// Handle returns the mesh identity.
func (m *Mesh) Handle() domain.MeshHandle { return m.handle }

// VertexPositions returns a copy of the coarse points.
func (m *Mesh) VertexPositions() ([]mgl32.Vec3, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.ready {
		return nil, m.notReady()
	}
	return slices.Clone(m.points), nil
}

// FaceTopology returns copies of the face counts and indices.
func (m *Mesh) FaceTopology() (counts []int, indices []int, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.ready {
		return nil, nil, m.notReady()
	}
	return slices.Clone(m.counts), slices.Clone(m.indices), nil
}

// CreaseData returns a copy of the crease data.
func (m *Mesh) CreaseData() (domain.CreaseData, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if !m.ready {
		return domain.CreaseData{}, m.notReady()
	}
	return m.creases.Clone(), nil
}

func (m *Mesh) notReady() error {
	return errors.Join(domain.ErrSourceNotReady, zerr.With(zerr.New("mesh has no data"), "mesh", string(m.handle)))
}

// SetPoints replaces the coarse points and reports a points change.
func (m *Mesh) SetPoints(points []mgl32.Vec3) {
	m.mu.Lock()
	m.points = slices.Clone(points)
	m.ready = true
	m.mu.Unlock()
	m.Emit(AttrPoints, domain.ChangeAttributeSet)
}

// SetTopology replaces the face structure and reports a face-vertices change.
func (m *Mesh) SetTopology(counts, indices []int) {
	m.mu.Lock()
	m.counts = slices.Clone(counts)
	m.indices = slices.Clone(indices)
	m.mu.Unlock()
	m.Emit(AttrFaceVertices, domain.ChangeAttributeSet)
}

// SetCreases replaces the crease data and reports a creases change.
func (m *Mesh) SetCreases(creases domain.CreaseData) {
	m.mu.Lock()
	m.creases = creases.Clone()
	m.mu.Unlock()
	m.Emit(AttrCreases, domain.ChangeAttributeSet)
}

// Update replaces every field and reports only the attributes that differ.
// The first Update of an empty mesh reports an evaluation of the output mesh.
func (m *Mesh) Update(points []mgl32.Vec3, counts, indices []int, creases domain.CreaseData) {
	m.mu.Lock()
	first := !m.ready
	faces := !slices.Equal(m.counts, counts) || !slices.Equal(m.indices, indices)
	crease := !slices.Equal(m.creases.Edges, creases.Edges) || !slices.Equal(m.creases.Corners, creases.Corners)
	moved := !slices.Equal(m.points, points)
	m.ready = true
	m.points = slices.Clone(points)
	m.counts = slices.Clone(counts)
	m.indices = slices.Clone(indices)
	m.creases = creases.Clone()
	m.mu.Unlock()

	switch {
	case first:
		m.Emit(AttrOutMesh, domain.ChangeAttributeEval)
		return
	case faces:
		m.Emit(AttrFaceVertices, domain.ChangeAttributeSet)
	}
	if crease {
		m.Emit(AttrCreases, domain.ChangeAttributeSet)
	}
	if moved {
		m.Emit(AttrPoints, domain.ChangeAttributeSet)
	}
}

// Subscribe registers callback for changes to this mesh.
func (m *Mesh) Subscribe(handle domain.MeshHandle, callback func(domain.ChangeEvent)) (domain.SubscriptionToken, error) {
	if handle != m.handle {
		err := zerr.With(zerr.New("handle does not match mesh"), "mesh", string(m.handle))
		return 0, zerr.With(err, "handle", string(handle))
	}
	m.subMu.Lock()
	defer m.subMu.Unlock()
	m.next++
	m.subs[m.next] = callback
	return m.next, nil
}

// Unsubscribe removes a subscription and waits for deliveries in flight.
// It must not be called from inside a callback.
func (m *Mesh) Unsubscribe(token domain.SubscriptionToken) error {
	m.subMu.Lock()
	_, ok := m.subs[token]
	delete(m.subs, token)
	m.subMu.Unlock()
	if !ok {
		return errors.Join(domain.ErrSubscriptionNotFound, zerr.With(zerr.New("unknown token"), "token", uint64(token)))
	}

	m.deliver.Lock()
	m.deliver.Unlock() //nolint:staticcheck // barrier for in-flight callbacks
	return nil
}

// Subscribers returns the number of active subscriptions.
func (m *Mesh) Subscribers() int {
	m.subMu.Lock()
	defer m.subMu.Unlock()
	return len(m.subs)
}

// Emit delivers a change event for attribute to every subscriber.
func (m *Mesh) Emit(attribute string, kind domain.ChangeKind) {
	m.deliver.RLock()
	defer m.deliver.RUnlock()

	m.subMu.Lock()
	tokens := make([]domain.SubscriptionToken, 0, len(m.subs))
	for tok := range m.subs {
		tokens = append(tokens, tok)
	}
	slices.Sort(tokens)
	callbacks := make([]func(domain.ChangeEvent), 0, len(tokens))
	for _, tok := range tokens {
		callbacks = append(callbacks, m.subs[tok])
	}
	m.subMu.Unlock()

	ev := domain.ChangeEvent{Handle: m.handle, Attribute: attribute, Kind: kind}
	for _, cb := range callbacks {
		cb(ev)
	}
}
