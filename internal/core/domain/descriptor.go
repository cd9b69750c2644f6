package domain

import (
	"errors"

	"go.trai.ch/zerr"
)

// MaxIsolationLevel caps both uniform and adaptive refinement depth.
const MaxIsolationLevel = 10

// Scheme identifies a subdivision scheme.
type Scheme string

const (
	// SchemeCatmullClark refines arbitrary polygons into quads.
	SchemeCatmullClark Scheme = "catmullClark"
	// SchemeLoop refines triangle meshes into triangles.
	SchemeLoop Scheme = "loop"
	// SchemeBilinear splits polygons into quads without smoothing.
	SchemeBilinear Scheme = "bilinear"
)

// BoundaryRule selects how boundary edges and vertices are interpolated.
type BoundaryRule string

const (
	// BoundaryEdgeOnly treats boundary edges as infinitely sharp creases.
	BoundaryEdgeOnly BoundaryRule = "edgeOnly"
	// BoundaryEdgeAndCorner also pins boundary vertices of valence two.
	BoundaryEdgeAndCorner BoundaryRule = "edgeAndCorner"
	// BoundaryNone leaves the boundary uninterpolated; patches touching it are not drawn.
	BoundaryNone BoundaryRule = "none"
)

// ParseScheme converts a configuration string into a Scheme.
func ParseScheme(s string) (Scheme, error) {
	switch Scheme(s) {
	case SchemeCatmullClark, SchemeLoop, SchemeBilinear:
		return Scheme(s), nil
	default:
		return "", errors.Join(ErrInvalidDescriptor, zerr.With(zerr.New("unknown scheme"), "scheme", s))
	}
}

// ParseBoundaryRule converts a configuration string into a BoundaryRule.
func ParseBoundaryRule(s string) (BoundaryRule, error) {
	switch BoundaryRule(s) {
	case BoundaryEdgeOnly, BoundaryEdgeAndCorner, BoundaryNone:
		return BoundaryRule(s), nil
	default:
		return "", errors.Join(ErrInvalidDescriptor, zerr.With(zerr.New("unknown boundary rule"), "boundary_rule", s))
	}
}

// RefinementDescriptor holds the material-level parameters that shape a refinement plan.
// Two descriptors require the same plan if and only if they are equal by value.
type RefinementDescriptor struct {
	Scheme         Scheme       `json:"scheme" yaml:"scheme"`
	BoundaryRule   BoundaryRule `json:"boundaryRule" yaml:"boundaryRule"`
	IsolationLevel int          `json:"isolationLevel" yaml:"isolationLevel"`
	Adaptive       bool         `json:"adaptive" yaml:"adaptive"`
}

// DefaultDescriptor returns the descriptor used when no material attributes are set.
func DefaultDescriptor() RefinementDescriptor {
	return RefinementDescriptor{
		Scheme:         SchemeCatmullClark,
		BoundaryRule:   BoundaryEdgeAndCorner,
		IsolationLevel: 2,
	}
}

// Validate reports whether every field holds a recognized value.
func (d RefinementDescriptor) Validate() error {
	if _, err := ParseScheme(string(d.Scheme)); err != nil {
		return err
	}
	if _, err := ParseBoundaryRule(string(d.BoundaryRule)); err != nil {
		return err
	}
	if d.IsolationLevel < 0 || d.IsolationLevel > MaxIsolationLevel {
		return errors.Join(ErrInvalidDescriptor,
			zerr.With(zerr.New("isolation level out of range"), "isolation_level", d.IsolationLevel))
	}
	return nil
}

// EffectiveAdaptive reports whether adaptive isolation applies. Only Catmull-Clark
// supports it; other schemes refine uniformly to the isolation level.
func (d RefinementDescriptor) EffectiveAdaptive() bool {
	return d.Adaptive && d.Scheme == SchemeCatmullClark
}
