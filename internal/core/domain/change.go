package domain

import "sync/atomic"

// MeshHandle is the stable identity of a mesh inside the host scene.
type MeshHandle string

// SubscriptionToken identifies a change subscription on a mesh source.
type SubscriptionToken uint64

// ChangeKind describes what happened to an attribute.
type ChangeKind uint8

const (
	// ChangeUnknown is an event the source could not describe.
	ChangeUnknown ChangeKind = iota
	// ChangeAttributeSet is a direct write to an attribute.
	ChangeAttributeSet
	// ChangeAttributeEval is an evaluation of a derived attribute.
	ChangeAttributeEval
	// ChangeTopologyEdit is a structural edit reported by the source itself.
	ChangeTopologyEdit
)

// String returns the name of the change kind.
func (k ChangeKind) String() string {
	switch k {
	case ChangeAttributeSet:
		return "set"
	case ChangeAttributeEval:
		return "eval"
	case ChangeTopologyEdit:
		return "topology"
	default:
		return "unknown"
	}
}

// ChangeEvent is a single notification delivered by a mesh source.
type ChangeEvent struct {
	Handle    MeshHandle
	Attribute string
	Kind      ChangeKind
}

// ChangeClass is the outcome of classifying a ChangeEvent.
type ChangeClass string

const (
	// ClassIgnore marks events known to affect neither topology nor positions.
	ClassIgnore ChangeClass = "ignore"
	// ClassAttributes marks events that change vertex data only.
	ClassAttributes ChangeClass = "attributes"
	// ClassTopology marks events that may change the mesh structure.
	ClassTopology ChangeClass = "topology"
)

// DirtyFlags are the coarse invalidation bits shared between the notification
// path and the frame path. Only the flags are touched from notification callbacks.
type DirtyFlags struct {
	topology    atomic.Bool
	attributes  atomic.Bool
	staleBuffer atomic.Bool
}

// NewDirtyFlags returns flags with every bit set so the first frame builds everything.
func NewDirtyFlags() *DirtyFlags {
	f := &DirtyFlags{}
	f.topology.Store(true)
	f.attributes.Store(true)
	f.staleBuffer.Store(true)
	return f
}

// MarkTopology flags a structural change. Positions may have changed as well.
func (f *DirtyFlags) MarkTopology() {
	f.topology.Store(true)
	f.attributes.Store(true)
	f.staleBuffer.Store(true)
}

// MarkAttributes flags a data-only change.
func (f *DirtyFlags) MarkAttributes() {
	f.attributes.Store(true)
	f.staleBuffer.Store(true)
}

// MarkBuffersStale flags the device buffers as not reflecting the current frame.
func (f *DirtyFlags) MarkBuffersStale() { f.staleBuffer.Store(true) }

// TopologyDirty reports whether a structural rebuild is pending.
func (f *DirtyFlags) TopologyDirty() bool { return f.topology.Load() }

// AttributesDirty reports whether vertex data changed since the last refine.
func (f *DirtyFlags) AttributesDirty() bool { return f.attributes.Load() }

// BuffersStale reports whether the buffers lag behind the source.
func (f *DirtyFlags) BuffersStale() bool { return f.staleBuffer.Load() }

// ClearTopology is called by the topology cache before it takes a snapshot.
func (f *DirtyFlags) ClearTopology() { f.topology.Store(false) }

// ClearAttributes is called by the geometry cache after a successful refine.
func (f *DirtyFlags) ClearAttributes() { f.attributes.Store(false) }

// ClearBuffersStale is called once the buffers for the current frame are in place.
func (f *DirtyFlags) ClearBuffersStale() { f.staleBuffer.Store(false) }
