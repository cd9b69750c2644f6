// Package topology snapshots mesh structure from a source when it is dirty.
package topology

import (
	"errors"

	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/subdiv/internal/core/ports"
	"go.trai.ch/zerr"
)

// Cache holds the last good topology of one mesh binding. It is only used
// from the frame path and is not safe for concurrent use.
type Cache struct {
	current *domain.Topology
	planOK  bool
	builds  int
}

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{}
}

// Current returns the last good topology, or nil before the first snapshot.
func (c *Cache) Current() *domain.Topology { return c.current }

// Rebuilds returns how many snapshots produced a structurally new topology.
func (c *Cache) Rebuilds() int { return c.builds }

// PlanValid reports whether the plan built from Current is still usable.
func (c *Cache) PlanValid() bool { return c.planOK }

// MarkPlanBuilt records that a plan for Current exists.
func (c *Cache) MarkPlanBuilt() { c.planOK = true }

// InvalidatePlan forces the next plan check to rebuild.
func (c *Cache) InvalidatePlan() { c.planOK = false }

// RebuildIfDirty returns the current topology, taking a new snapshot from
// src when flags report a structural change. A snapshot equal to the
// previous one keeps the previous instance. On failure the previous
// topology is retained and the flags stay dirty.
func (c *Cache) RebuildIfDirty(src ports.MeshSource, flags *domain.DirtyFlags) (*domain.Topology, error) {
	if !flags.TopologyDirty() && c.current != nil {
		return c.current, nil
	}

	// Cleared before reading so an edit racing the snapshot marks it again.
	flags.ClearTopology()
	topo, err := snapshot(src)
	if err != nil {
		flags.MarkTopology()
		return c.current, err
	}

	if c.current != nil && c.current.Fingerprint() == topo.Fingerprint() {
		return c.current, nil
	}
	c.current = topo
	c.planOK = false
	c.builds++
	return topo, nil
}

func snapshot(src ports.MeshSource) (*domain.Topology, error) {
	counts, indices, err := src.FaceTopology()
	if err != nil {
		return nil, sourceError(err, "failed to read face topology")
	}
	creases, err := src.CreaseData()
	if err != nil {
		return nil, sourceError(err, "failed to read crease data")
	}
	points, err := src.VertexPositions()
	if err != nil {
		return nil, sourceError(err, "failed to read vertex positions")
	}
	return domain.NewTopology(len(points), counts, indices, creases)
}

func sourceError(err error, msg string) error {
	if errors.Is(err, domain.ErrSourceNotReady) {
		return err
	}
	return errors.Join(domain.ErrInvalidTopology, zerr.Wrap(err, msg))
}
