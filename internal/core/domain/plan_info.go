package domain

import "time"

// PlanInfo records a finished plan build for a mesh binding.
type PlanInfo struct {
	Handle              MeshHandle           `json:"handle,omitzero"`
	Key                 string               `json:"key,omitzero"`
	TopologyFingerprint string               `json:"topology_fingerprint,omitzero"`
	Descriptor          RefinementDescriptor `json:"descriptor"`
	PatchCount          int                  `json:"patch_count"`
	RefinedVertices     int                  `json:"refined_vertices"`
	Checksum            string               `json:"checksum,omitzero"`
	BuildDuration       time.Duration        `json:"build_duration,omitzero"`
	Timestamp           time.Time            `json:"timestamp,omitzero"`
}
