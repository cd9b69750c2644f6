// Package refine builds refinement plans: stencil tables and patch tables
// derived from a coarse topology and a refinement descriptor.
package refine

import (
	"context"
	"errors"

	"go.trai.ch/subdiv/internal/core/domain"
	"go.trai.ch/zerr"
)

// Builder constructs refinement plans. It holds no state between builds and
// is safe for concurrent use.
type Builder struct{}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// Build derives the plan for topo under d. Identical inputs produce
// bit-identical plans.
func (b *Builder) Build(ctx context.Context, topo *domain.Topology, d domain.RefinementDescriptor) (*domain.RefinementPlan, error) {
	if err := d.Validate(); err != nil {
		return nil, err
	}
	if d.Scheme == domain.SchemeLoop {
		for f := range topo.NumFaces() {
			if len(topo.Face(f)) != 3 {
				err := zerr.With(zerr.New("loop scheme requires triangles"), "face", f)
				return nil, errors.Join(domain.ErrUnsupportedTopology, err)
			}
		}
	}

	base, err := newBaseLevel(topo, d.BoundaryRule)
	if err != nil {
		return nil, err
	}

	var stencils []stencil
	var patches *patchSet
	if d.EffectiveAdaptive() {
		stencils, patches, err = adaptive(ctx, base, d)
	} else {
		stencils, patches, err = uniform(ctx, base, d)
	}
	if err != nil {
		return nil, err
	}

	return &domain.RefinementPlan{
		Key:                 domain.PlanKey(topo, d),
		Descriptor:          d,
		TopologyFingerprint: topo.Fingerprint(),
		NumCoarseVertices:   topo.NumVertices(),
		Stencils:            table(stencils),
		Patches:             patches.table(),
	}, nil
}

// uniform refines every face to the isolation level. The refined vertex
// buffer holds the last level only.
func uniform(ctx context.Context, l *level, d domain.RefinementDescriptor) ([]stencil, *patchSet, error) {
	st := identity(l.numVerts)
	c := newComposer(l.numVerts)
	for range d.IsolationLevel {
		if err := ctx.Err(); err != nil {
			return nil, nil, zerr.Wrap(err, "refinement canceled")
		}
		var masks []mask
		l, masks = subdivide(l, d.Scheme, allChildren(l, d.Scheme))
		st = c.compose(masks, st)
	}

	patches := newPatchSet(d.BoundaryRule)
	for f := range l.faces {
		patches.face(l, f, 0)
	}
	return st, patches, nil
}

// adaptive isolates irregular features. Regular faces become bicubic patches
// at the shallowest level they appear; irregular faces are split until the
// isolation level and then drawn as quads. The refined vertex buffer holds
// every level back to back.
func adaptive(ctx context.Context, l *level, d domain.RefinementDescriptor) ([]stencil, *patchSet, error) {
	c := newComposer(l.numVerts)
	levelSt := identity(l.numVerts)
	all := append([]stencil(nil), levelSt...)
	offset := 0
	patches := newPatchSet(d.BoundaryRule)

	active := make([]int, len(l.faces))
	for f := range active {
		active[f] = f
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, zerr.Wrap(err, "refinement canceled")
		}

		var split []int
		for _, f := range active {
			switch {
			case l.regular(f):
				if !(patches.omitBoundary && l.faceOnBoundary(f)) {
					patches.regular(l, f, offset)
				}
			case l.depth == d.IsolationLevel:
				patches.face(l, f, offset)
			default:
				split = append(split, f)
			}
		}
		if len(split) == 0 {
			break
		}

		sel, children := isolate(l, split)
		next, masks := subdivide(l, d.Scheme, sel)
		levelSt = c.compose(masks, levelSt)
		offset = len(all)
		all = append(all, levelSt...)
		l = next
		active = children
	}
	return all, patches, nil
}

// isolate selects the children of split faces together with the corner
// children of neighboring faces that complete the one-ring of every vertex
// of a split face. It returns the selection and the positions within it of
// the split faces' children.
func isolate(l *level, split []int) ([]child, []int) {
	isSplit := make([]bool, len(l.faces))
	splitVert := make([]bool, l.numVerts)
	for _, f := range split {
		isSplit[f] = true
		for _, v := range l.faces[f] {
			splitVert[v] = true
		}
	}

	var sel []child
	var children []int
	for f, face := range l.faces {
		for i, v := range face {
			switch {
			case isSplit[f]:
				children = append(children, len(sel))
				sel = append(sel, child{f, i})
			case splitVert[v]:
				sel = append(sel, child{f, i})
			}
		}
	}
	return sel, children
}
