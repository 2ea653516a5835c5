package creator

import (
	"fmt"

	"github.com/hanpama/graphbind/internal/graph"
	"github.com/hanpama/graphbind/internal/index"
	"github.com/hanpama/graphbind/internal/scalars"
)

// Direction tells whether a type is read (OUT) or written (IN) by clients.
type Direction int

const (
	Out Direction = iota
	In
)

// ReferenceCreator hands out graph references for indexed types. Within one
// build the same type and direction always yields the same *Reference.
type ReferenceCreator struct {
	idx     index.Index
	scalars *scalars.Registry
	refs    [2]map[index.TypeID]*graph.Reference
}

func NewReferenceCreator(idx index.Index, reg *scalars.Registry) *ReferenceCreator {
	return &ReferenceCreator{
		idx:     idx,
		scalars: reg,
		refs:    [2]map[index.TypeID]*graph.Reference{make(map[index.TypeID]*graph.Reference), make(map[index.TypeID]*graph.Reference)},
	}
}

// Reference returns the reference for id in the given direction.
func (c *ReferenceCreator) Reference(id index.TypeID, dir Direction) (*graph.Reference, error) {
	if ref, ok := c.refs[dir][id]; ok {
		return ref, nil
	}
	if s, ok := c.scalars.ByType(id); ok {
		return s.Reference, nil
	}
	info, ok := c.idx.Lookup(id)
	if !ok {
		return nil, fmt.Errorf("type %s is not indexed", id)
	}

	var kind graph.Kind
	switch info.Kind {
	case index.KindBasic:
		if !info.Annotations.Has(index.AnnEnum) {
			if info.Type != nil {
				if s, ok := c.scalars.ForType(info.Type); ok {
					return s.Reference, nil
				}
			}
			return nil, fmt.Errorf("type %s maps to no scalar", id)
		}
		kind = graph.KindEnum
	case index.KindInterface:
		if dir == In {
			return nil, fmt.Errorf("interface %s cannot be used as input", id)
		}
		kind = graph.KindInterface
		if info.Annotations.Has(index.AnnUnion) {
			kind = graph.KindUnion
		}
	case index.KindStruct:
		kind = graph.KindType
		if dir == In {
			kind = graph.KindInput
		}
	default:
		return nil, fmt.Errorf("type %s has unsupported shape %s", id, info.Kind)
	}

	// Only struct types differ by direction.
	slot := dir
	if kind != graph.KindType && kind != graph.KindInput {
		slot = Out
		if ref, ok := c.refs[slot][id]; ok {
			return ref, nil
		}
	}
	ref := graph.NewReference(id, graphName(info, kind), kind)
	c.refs[slot][id] = ref
	return ref, nil
}

func graphName(info *index.TypeInfo, kind graph.Kind) string {
	if n := info.Annotations.Get(index.AnnName); n != "" {
		return n
	}
	if kind == graph.KindInput && !info.Annotations.Has(index.AnnInput) {
		return info.Name + "Input"
	}
	return info.Name
}
