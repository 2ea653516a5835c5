package creator

import (
	"fmt"

	"github.com/hanpama/graphbind/internal/graph"
	"github.com/hanpama/graphbind/internal/index"
)

func (b *builder) createUnion(ref *graph.Reference, info *index.TypeInfo) (*graph.Union, error) {
	u := graph.NewUnion(ref, info.Annotations.Get(index.AnnDescription))
	for _, id := range b.idx.FindImplementors(info.ID) {
		member, err := b.refs.Reference(id, Out)
		if err != nil {
			return nil, err
		}
		if member.Kind() != graph.KindType {
			return nil, fmt.Errorf("union member %s is not an object type", member.Name())
		}
		b.require(member)
		u.AddMember(member)
	}
	return u, nil
}

func (b *builder) createInterface(ref *graph.Reference, info *index.TypeInfo) (*graph.Interface, error) {
	iface := &graph.Interface{Reference: ref, Description: info.Annotations.Get(index.AnnDescription)}
	var err error
	iface.Fields, err = b.accessorFields(info, make(map[string]bool), nil, make(map[index.TypeID]bool))
	if err != nil {
		return nil, err
	}
	for _, id := range b.idx.FindImplementors(info.ID) {
		impl, err := b.refs.Reference(id, Out)
		if err != nil {
			return nil, err
		}
		if impl.Kind() != graph.KindType {
			continue
		}
		b.require(impl)
		iface.Implementors = append(iface.Implementors, impl)
	}
	return iface, nil
}

// accessorFields appends the accessor methods of info and then of its
// supertypes, walked depth first.
func (b *builder) accessorFields(info *index.TypeInfo, seen map[string]bool, out []*graph.Field, visited map[index.TypeID]bool) ([]*graph.Field, error) {
	if visited[info.ID] {
		return out, nil
	}
	visited[info.ID] = true
	for _, m := range b.idx.AccessorMethods(info.ID) {
		spec := fieldSpec{name: index.AccessorName(m.Name), property: m.Name, id: m.Result, ann: m.Annotations, dir: Out}
		if n := m.Annotations.Get(index.AnnName); n != "" {
			spec.name = n
		}
		if seen[spec.name] {
			continue
		}
		if len(m.Results) > 0 {
			spec.typ = m.Results[0]
		}
		f, err := b.field(spec)
		if err != nil {
			return nil, err
		}
		f.Accessor = true
		seen[f.Name] = true
		out = append(out, f)
	}
	for _, sid := range info.Supers {
		super, ok := b.lookupSuper(info, sid)
		if !ok {
			continue
		}
		var err error
		if out, err = b.accessorFields(super, seen, out, visited); err != nil {
			return nil, err
		}
	}
	return out, nil
}
