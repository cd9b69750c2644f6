package domain

import "go.trai.ch/zerr"

var (
	// ErrInvalidTopology is returned when a mesh snapshot is malformed: an index is out of
	// range, a face has fewer than three vertices or a face repeats a vertex.
	ErrInvalidTopology = zerr.New("invalid topology")

	// ErrUnsupportedTopology is returned when the chosen scheme cannot represent the mesh,
	// for example a non-manifold edge or a non-triangle face under Loop.
	ErrUnsupportedTopology = zerr.New("unsupported topology")

	// ErrBackendUnavailable is returned when a compute backend cannot be initialized.
	ErrBackendUnavailable = zerr.New("compute backend unavailable")

	// ErrComputeFailure is returned when a backend fails while refining a frame.
	ErrComputeFailure = zerr.New("compute failure")

	// ErrSourceNotReady is returned when a mesh source has no data to offer yet.
	ErrSourceNotReady = zerr.New("mesh source not ready")

	// ErrInvalidDescriptor is returned when a refinement descriptor holds an unknown value.
	ErrInvalidDescriptor = zerr.New("invalid refinement descriptor")

	// ErrBackendNotRegistered is returned when a backend identifier is not in the registry.
	ErrBackendNotRegistered = zerr.New("backend not registered")

	// ErrRegistryClosed is returned when a registry is used after its last lease was released.
	ErrRegistryClosed = zerr.New("backend registry closed")

	// ErrBufferReleased is returned when a device buffer is used after its last reference was dropped.
	ErrBufferReleased = zerr.New("device buffer released")

	// ErrTrackerClosed is returned when a change tracker is used after teardown.
	ErrTrackerClosed = zerr.New("change tracker closed")

	// ErrSubscriptionNotFound is returned when unsubscribing an unknown token.
	ErrSubscriptionNotFound = zerr.New("subscription not found")

	// ErrMeshParse is returned when a mesh file cannot be parsed.
	ErrMeshParse = zerr.New("failed to parse mesh")

	// ErrNoMeshesSpecified is returned when a run names no mesh.
	ErrNoMeshesSpecified = zerr.New("no meshes specified")

	// ErrMeshAlreadyBound is returned when binding a handle that already has a controller.
	ErrMeshAlreadyBound = zerr.New("mesh already bound")

	// ErrUnknownShape is returned when a built-in shape name is not known.
	ErrUnknownShape = zerr.New("unknown shape")
)
