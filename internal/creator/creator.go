// Package creator assembles a graph.Schema from an index of Go types.
//
// Building starts from the operations declared on API types. Every type they
// reach is given a Reference and queued; queued references are turned into
// objects, interfaces, unions, inputs or enums until the queue drains.
package creator

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hanpama/graphbind/internal/graph"
	"github.com/hanpama/graphbind/internal/index"
	"github.com/hanpama/graphbind/internal/scalars"
)

// BuildError reports a type that could not be added to the graph.
type BuildError struct {
	Type index.TypeID
	Err  error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("creator: build %s: %v", e.Type, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

type Option func(*builder)

func WithLogger(log *zap.Logger) Option {
	return func(b *builder) {
		if log != nil {
			b.log = log
		}
	}
}

type builder struct {
	idx      index.Index
	scalars  *scalars.Registry
	refs     *ReferenceCreator
	mappings *MappingResolver
	log      *zap.Logger

	schema    *graph.Schema
	queue     []*graph.Reference
	queued    map[*graph.Reference]bool
	names     map[string]index.TypeID
	scalarSet map[*graph.Reference]bool
	sourceOps map[index.TypeID][]*graph.Operation
}

// Build assembles the graph for every API registered in idx.
func Build(idx index.Index, reg *scalars.Registry, opts ...Option) (*graph.Schema, error) {
	b := &builder{
		idx:       idx,
		scalars:   reg,
		log:       zap.NewNop(),
		schema:    &graph.Schema{},
		queued:    make(map[*graph.Reference]bool),
		names:     make(map[string]index.TypeID),
		scalarSet: make(map[*graph.Reference]bool),
		sourceOps: make(map[index.TypeID][]*graph.Operation),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.refs = NewReferenceCreator(idx, reg)
	b.mappings = NewMappingResolver(idx, reg, b.log)

	var errs []error
	for _, id := range idx.APIs() {
		api, _ := idx.Lookup(id)
		for _, m := range api.Methods {
			op, err := b.operation(api, m)
			if err != nil {
				errs = append(errs, &BuildError{Type: id, Err: err})
				continue
			}
			if op == nil {
				continue
			}
			switch op.Kind {
			case graph.OperationQuery:
				b.schema.Queries = append(b.schema.Queries, op)
			case graph.OperationMutation:
				b.schema.Mutations = append(b.schema.Mutations, op)
			case graph.OperationSource:
				owner := op.SourceType.OwnerID()
				b.sourceOps[owner] = append(b.sourceOps[owner], op)
			}
		}
	}

	for len(b.queue) > 0 {
		ref := b.queue[0]
		b.queue = b.queue[1:]
		if err := b.create(ref); err != nil {
			errs = append(errs, &BuildError{Type: ref.OwnerID(), Err: err})
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	for _, u := range b.schema.Unions {
		u.Freeze()
	}
	for _, s := range reg.All() {
		if b.scalarSet[s.Reference] {
			b.schema.Scalars = append(b.schema.Scalars, s.Reference)
		}
	}
	b.log.Debug("graph built",
		zap.Int("queries", len(b.schema.Queries)),
		zap.Int("mutations", len(b.schema.Mutations)),
		zap.Int("objects", len(b.schema.Objects)))
	return b.schema, nil
}

func (b *builder) require(ref *graph.Reference) {
	if ref.Kind() == graph.KindScalar {
		b.useScalar(ref)
		return
	}
	if b.queued[ref] {
		return
	}
	b.queued[ref] = true
	b.queue = append(b.queue, ref)
}

func (b *builder) useScalar(ref *graph.Reference) {
	b.scalarSet[ref] = true
}

func (b *builder) create(ref *graph.Reference) error {
	if prev, ok := b.names[ref.Name()]; ok {
		return fmt.Errorf("name %s is already used by %s", ref.Name(), prev)
	}
	b.names[ref.Name()] = ref.OwnerID()

	info, ok := b.idx.Lookup(ref.OwnerID())
	if !ok {
		return fmt.Errorf("type is not indexed")
	}
	switch ref.Kind() {
	case graph.KindType:
		obj, err := b.createObject(ref, info)
		if err != nil {
			return err
		}
		b.schema.Objects = append(b.schema.Objects, obj)
	case graph.KindInterface:
		iface, err := b.createInterface(ref, info)
		if err != nil {
			return err
		}
		b.schema.Interfaces = append(b.schema.Interfaces, iface)
	case graph.KindUnion:
		u, err := b.createUnion(ref, info)
		if err != nil {
			return err
		}
		b.schema.Unions = append(b.schema.Unions, u)
	case graph.KindInput:
		in, err := b.createInput(ref, info)
		if err != nil {
			return err
		}
		b.schema.Inputs = append(b.schema.Inputs, in)
	case graph.KindEnum:
		b.schema.Enums = append(b.schema.Enums, b.createEnum(ref, info))
	default:
		return fmt.Errorf("no creator for %s", ref.Kind())
	}
	return nil
}

// structFields collects the exported fields of info and of its embedded
// supertypes. Earlier names win.
func (b *builder) structFields(info *index.TypeInfo, dir Direction, seen map[string]bool, out []*graph.Field) ([]*graph.Field, error) {
	for _, fi := range info.Fields {
		f, err := b.field(fieldSpec{
			name:     index.LowerFirst(fi.Name),
			property: fi.Name,
			id:       fi.ID,
			typ:      fi.Type,
			ann:      fi.Annotations,
			dir:      dir,
		})
		if err != nil {
			return nil, err
		}
		if seen[f.Name] {
			continue
		}
		seen[f.Name] = true
		f.Index = fi.Index
		out = append(out, f)
	}
	for _, sid := range info.Supers {
		super, ok := b.lookupSuper(info, sid)
		if !ok || super.Kind != index.KindStruct {
			continue
		}
		var err error
		if out, err = b.structFields(super, dir, seen, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (b *builder) lookupSuper(owner *index.TypeInfo, sid index.TypeID) (*index.TypeInfo, bool) {
	if sid.IsStdlib() {
		return nil, false
	}
	super, ok := b.idx.Lookup(sid)
	if !ok {
		b.log.Debug("skipping unindexed supertype",
			zap.String("type", string(owner.ID)),
			zap.String("super", string(sid)))
	}
	return super, ok
}

func (b *builder) createObject(ref *graph.Reference, info *index.TypeInfo) (*graph.Object, error) {
	obj := &graph.Object{
		Reference:   ref,
		Description: info.Annotations.Get(index.AnnDescription),
		Operations:  b.sourceOps[info.ID],
	}
	seen := make(map[string]bool)
	fields, err := b.structFields(info, Out, seen, nil)
	if err != nil {
		return nil, err
	}
	obj.Fields, err = b.accessorFields(info, seen, fields, make(map[index.TypeID]bool))
	if err != nil {
		return nil, err
	}
	for _, op := range obj.Operations {
		if seen[op.Name] {
			return nil, fmt.Errorf("source operation %s collides with a field", op.Name)
		}
		seen[op.Name] = true
	}
	for _, iid := range info.Interfaces {
		iinfo, ok := b.idx.Lookup(iid)
		if !ok || iinfo.Annotations.Has(index.AnnUnion) {
			continue
		}
		iref, err := b.refs.Reference(iid, Out)
		if err != nil {
			return nil, err
		}
		b.require(iref)
		obj.Interfaces = append(obj.Interfaces, iref)
	}
	return obj, nil
}

func (b *builder) createInput(ref *graph.Reference, info *index.TypeInfo) (*graph.Input, error) {
	fields, err := b.structFields(info, In, make(map[string]bool), nil)
	if err != nil {
		return nil, err
	}
	return &graph.Input{
		Reference:   ref,
		Description: info.Annotations.Get(index.AnnDescription),
		Fields:      fields,
	}, nil
}

func (b *builder) createEnum(ref *graph.Reference, info *index.TypeInfo) *graph.Enum {
	e := &graph.Enum{Reference: ref, Description: info.Annotations.Get(index.AnnDescription)}
	for _, v := range info.EnumValues {
		e.Values = append(e.Values, graph.EnumValue{Name: v.Name, Description: v.Description, Value: v.Value})
	}
	return e
}
