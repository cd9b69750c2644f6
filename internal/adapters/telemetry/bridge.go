package telemetry

import (
	"context"
	"errors"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports"
)

// Bridge implements sdktrace.SpanProcessor to mirror root spans as telemetry
// vertices. Child spans stay in the trace only.
type Bridge struct {
	telemetry ports.Telemetry

	mu       sync.Mutex
	vertices map[trace.SpanID]ports.Vertex
}

// NewBridge returns a new Bridge.
func NewBridge(t ports.Telemetry) *Bridge {
	return &Bridge{
		telemetry: t,
		vertices:  make(map[trace.SpanID]ports.Vertex),
	}
}

// OnStart records a vertex for spans without a parent.
func (b *Bridge) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	sc := s.SpanContext()
	if b.telemetry == nil || !sc.IsValid() {
		return
	}
	if trace.SpanFromContext(parent).SpanContext().IsValid() {
		return
	}

	name := s.Name()
	if mesh, ok := lookup(s.Attributes(), ports.AttrMesh); ok {
		name += " " + mesh.Emit()
	}
	if frame, ok := lookup(s.Attributes(), ports.AttrFrame); ok {
		name += " #" + frame.Emit()
	}
	_, v := b.telemetry.Record(parent, name)

	b.mu.Lock()
	b.vertices[sc.SpanID()] = v
	b.mu.Unlock()
}

// OnEnd completes the vertex, marking frames served from cache.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	b.mu.Lock()
	v, ok := b.vertices[s.SpanContext().SpanID()]
	delete(b.vertices, s.SpanContext().SpanID())
	b.mu.Unlock()
	if !ok {
		return
	}

	if status, ok := lookup(s.Attributes(), ports.AttrFrameStatus); ok && status.AsString() == string(domain.FrameCached) {
		v.Cached()
	}

	var err error
	if s.Status().Code == codes.Error {
		desc := s.Status().Description
		if desc == "" {
			desc = "frame failed"
		}
		err = errors.New(desc)
	}
	v.Complete(err)
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}

func lookup(attrs []attribute.KeyValue, key string) (attribute.Value, bool) {
	for _, kv := range attrs {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}
