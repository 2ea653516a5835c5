package creator

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/hanpama/graphbind/internal/graph"
	"github.com/hanpama/graphbind/internal/index"
)

// shape splits t into its leaf type and list wrappers. Pointers, slices,
// maps and interfaces are nullable; everything else is not.
func shape(t reflect.Type) (reflect.Type, *graph.Wrapper, bool) {
	notNull := true
	for t.Kind() == reflect.Ptr {
		notNull = false
		t = t.Elem()
	}
	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return t, nil, notNull
		}
		leaf, inner, itemNotNull := shape(t.Elem())
		if t.Kind() == reflect.Slice {
			notNull = false
		}
		return leaf, &graph.Wrapper{NotNullItems: itemNotNull, Inner: inner}, notNull
	case reflect.Interface, reflect.Map:
		notNull = false
	}
	return t, nil, notNull
}

type fieldSpec struct {
	name     string
	property string
	id       index.TypeID
	typ      reflect.Type
	ann      index.Annotations
	dir      Direction
}

func (b *builder) field(s fieldSpec) (*graph.Field, error) {
	f := &graph.Field{
		Name:        s.name,
		Description: s.ann.Get(index.AnnDescription),
		Property:    s.property,
		Type:        s.typ,
	}
	if n := s.ann.Get(index.AnnName); n != "" {
		f.Name = n
	}

	leafID := s.id
	if s.typ != nil {
		var leaf reflect.Type
		leaf, f.Wrapper, f.NotNull = shape(s.typ)
		leafID = index.IDOf(leaf)
	}
	if s.ann.Has(index.AnnNonNull) {
		f.NotNull = true
	}
	if v, ok := s.ann[index.AnnDefaultValue]; ok {
		f.DefaultValue = &v
	}

	if s.ann.Has(index.AnnID) {
		id, _ := b.scalars.ByName("ID")
		f.Reference = id.Reference
		b.useScalar(f.Reference)
		return f, nil
	}

	ref, err := b.refs.Reference(leafID, s.dir)
	if err != nil {
		return nil, fmt.Errorf("field %s: %w", f.Name, err)
	}
	f.Reference = ref
	f.Mapping = b.mappings.Resolve(ref, s.ann)
	if f.Mapping == nil {
		if info, ok := b.idx.Lookup(ref.OwnerID()); ok && ref.Kind() != graph.KindScalar {
			f.Mapping = b.mappings.Resolve(ref, info.Annotations)
		}
	}
	if f.Mapping != nil {
		b.useScalar(f.Mapping.Target)
	} else {
		b.require(ref)
	}
	return f, nil
}

func operationKind(ann index.Annotations) (graph.OperationKind, string, bool) {
	for _, k := range []struct {
		key  string
		kind graph.OperationKind
	}{
		{index.AnnQuery, graph.OperationQuery},
		{index.AnnMutation, graph.OperationMutation},
		{index.AnnSource, graph.OperationSource},
	} {
		if v, ok := ann[k.key]; ok {
			if v == "true" {
				v = ""
			}
			return k.kind, v, true
		}
	}
	return "", "", false
}

func (b *builder) operation(api *index.TypeInfo, m index.MethodInfo) (*graph.Operation, error) {
	kind, name, ok := operationKind(m.Annotations)
	if !ok {
		return nil, nil
	}
	if m.Result == "" || len(m.Results) > 1 {
		return nil, fmt.Errorf("operation %s.%s must return one value and an optional error", api.Name, m.Name)
	}
	if name == "" {
		name = index.AccessorName(m.Name)
	}

	op := &graph.Operation{
		Kind:         kind,
		API:          api.ID,
		Method:       m.Name,
		ReturnsError: m.ReturnsError,
	}
	argNames := splitArgs(m.Annotations.Get(index.AnnArgs))
	argN := 0
	for _, p := range m.Params {
		switch {
		case p.ID == "context.Context":
			op.Params = append(op.Params, graph.Param{Kind: graph.ParamContext, Type: p.Type})
		case kind == graph.OperationSource && op.SourceType == nil:
			if p.Type != nil && p.Type.Kind() == reflect.Slice {
				op.Batch = true
			}
			ref, err := b.refs.Reference(p.ID, Out)
			if err != nil {
				return nil, fmt.Errorf("operation %s source: %w", name, err)
			}
			if ref.Kind() != graph.KindType {
				return nil, fmt.Errorf("operation %s source %s is not an object type", name, ref.Name())
			}
			b.require(ref)
			op.SourceType = ref
			op.Params = append(op.Params, graph.Param{Kind: graph.ParamSource, Type: p.Type})
		default:
			argName := p.Name
			if argN < len(argNames) {
				argName = argNames[argN]
			}
			if argName == "" {
				argName = "arg" + strconv.Itoa(argN)
			}
			argN++
			f, err := b.field(fieldSpec{name: argName, id: p.ID, typ: p.Type, ann: p.Annotations, dir: In})
			if err != nil {
				return nil, fmt.Errorf("operation %s: %w", name, err)
			}
			arg := &graph.Argument{Field: *f}
			op.Arguments = append(op.Arguments, arg)
			op.Params = append(op.Params, graph.Param{Kind: graph.ParamArgument, Argument: arg, Type: p.Type})
		}
	}
	if kind == graph.OperationSource && op.SourceType == nil {
		return nil, fmt.Errorf("source operation %s takes no source parameter", name)
	}

	out := fieldSpec{name: name, id: m.Result, ann: m.Annotations, dir: Out}
	if len(m.Results) > 0 {
		out.typ = m.Results[0]
	}
	f, err := b.field(out)
	if err != nil {
		return nil, fmt.Errorf("operation %s: %w", name, err)
	}
	op.Field = *f
	op.Property = m.Name
	if op.Batch {
		if op.Wrapper == nil {
			return nil, fmt.Errorf("batch operation %s must return a slice", name)
		}
		op.NotNull = op.Wrapper.NotNullItems
		op.Wrapper = op.Wrapper.Inner
	}
	return op, nil
}

func splitArgs(s string) []string {
	if s == "" {
		return nil
	}
	out := strings.Split(s, ",")
	for i := range out {
		out[i] = strings.TrimSpace(out[i])
	}
	return out
}
