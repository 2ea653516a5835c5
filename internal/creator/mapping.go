package creator

import (
	"go.uber.org/zap"

	"github.com/hanpama/graphbind/internal/graph"
	"github.com/hanpama/graphbind/internal/index"
	"github.com/hanpama/graphbind/internal/scalars"
)

type mappingKey struct {
	owner  index.TypeID
	scalar string
}

// MappingResolver decides how a field declared as a scalar is converted from
// that scalar's representation. Results are kept in a table keyed by owner
// type and target scalar.
type MappingResolver struct {
	idx     index.Index
	scalars *scalars.Registry
	log     *zap.Logger
	table   map[mappingKey]*graph.Mapping
}

func NewMappingResolver(idx index.Index, reg *scalars.Registry, log *zap.Logger) *MappingResolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &MappingResolver{idx: idx, scalars: reg, log: log, table: make(map[mappingKey]*graph.Mapping)}
}

// Resolve returns the mapping declared by ann for a value of type ref, or nil
// when no toScalar annotation is present or the scalar is unknown.
//
// The creation strategy is probed in a fixed order: a constructor taking the
// representation, then a SetValue method, then a From<Scalar> factory.
// Types that already are scalars always get None.
func (r *MappingResolver) Resolve(ref *graph.Reference, ann index.Annotations) *graph.Mapping {
	target := ann.Get(index.AnnToScalar)
	if target == "" {
		return nil
	}
	scalar, ok := r.scalars.ByName(target)
	if !ok {
		r.log.Debug("dropping mapping to unknown scalar",
			zap.String("scalar", target),
			zap.String("type", string(ref.OwnerID())))
		return nil
	}

	key := mappingKey{owner: ref.OwnerID(), scalar: scalar.Name()}
	if m, ok := r.table[key]; ok {
		return m
	}
	m := &graph.Mapping{Target: scalar.Reference, Create: graph.None{}}
	if ref.Kind() != graph.KindScalar {
		if info, ok := r.idx.Lookup(ref.OwnerID()); ok {
			m.Create = probe(info, scalar)
		}
	}
	r.table[key] = m
	return m
}

func probe(info *index.TypeInfo, scalar *scalars.Scalar) graph.Creation {
	rep := scalar.Representation
	if c, ok := info.Constructor(rep); ok {
		return graph.Constructor{Func: c.Func}
	}
	if s, ok := info.Method("SetValue"); ok && len(s.Params) == 1 && s.Params[0].ID == rep {
		return graph.Setter{Method: s.Name}
	}
	name := "From" + scalar.Name()
	if f, ok := info.Factory(name, rep); ok {
		return graph.StaticFactory{Name: name, Func: f.Func}
	}
	return graph.None{}
}
