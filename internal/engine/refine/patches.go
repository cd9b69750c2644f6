package refine

import (
	"go.trai.ch/subdiv/internal/core/domain"
)

// patchSet collects patches per type and assembles them in a fixed order.
type patchSet struct {
	omitBoundary bool
	indices      map[domain.PatchType][]uint32
	params       map[domain.PatchType][]domain.PatchParam
}

var patchOrder = []domain.PatchType{domain.PatchRegular, domain.PatchQuads, domain.PatchTriangles}

func newPatchSet(rule domain.BoundaryRule) *patchSet {
	return &patchSet{
		omitBoundary: rule == domain.BoundaryNone,
		indices:      make(map[domain.PatchType][]uint32),
		params:       make(map[domain.PatchType][]domain.PatchParam),
	}
}

func (s *patchSet) add(t domain.PatchType, p domain.PatchParam, offset int, verts ...int) {
	for _, v := range verts {
		s.indices[t] = append(s.indices[t], uint32(offset+v)) //nolint:gosec // vertex counts fit in 32 bits
	}
	s.params[t] = append(s.params[t], p)
}

// face emits f as a linear patch, fanning polygons with more than four sides.
func (s *patchSet) face(l *level, f, offset int) {
	p := l.params[f]
	p.Boundary = l.faceOnBoundary(f)
	if p.Boundary && s.omitBoundary {
		return
	}
	face := l.faces[f]
	switch len(face) {
	case 4:
		s.add(domain.PatchQuads, p, offset, face...)
	case 3:
		s.add(domain.PatchTriangles, p, offset, face...)
	default:
		for i := 1; i+1 < len(face); i++ {
			s.add(domain.PatchTriangles, p, offset, face[0], face[i], face[i+1])
		}
	}
}

// regular emits f as a bicubic patch over its 4x4 control grid.
func (s *patchSet) regular(l *level, f, offset int) {
	p := l.params[f]
	pts := l.regularPoints(f)
	s.add(domain.PatchRegular, p, offset, pts[:]...)
}

func (s *patchSet) table() domain.PatchTable {
	var t domain.PatchTable
	for _, typ := range patchOrder {
		params := s.params[typ]
		if len(params) == 0 {
			continue
		}
		t.Arrays = append(t.Arrays, domain.PatchArray{
			Type:        typ,
			NumPatches:  len(params),
			IndexOffset: len(t.Indices),
			ParamOffset: len(t.Params),
		})
		t.Indices = append(t.Indices, s.indices[typ]...)
		t.Params = append(t.Params, params...)
	}
	return t
}
