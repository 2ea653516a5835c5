package schema

import (
	"fmt"

	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	"github.com/hanpama/graphbind/internal/graph"
	"github.com/hanpama/graphbind/internal/scalars"
)

const (
	QueryTypeName    = "Query"
	MutationTypeName = "Mutation"
)

var builtinScalars = []string{"String", "Int", "Float", "Boolean", "ID"}

// BuildFromGraph builds the executable schema for a type graph. Batched
// source operations become async fields; every other field resolves inline.
func BuildFromGraph(g *graph.Schema, reg *scalars.Registry) (*Schema, error) {
	s := NewSchema()
	scalar := func(name string) {
		if _, ok := s.Types[name]; ok {
			return
		}
		desc := ""
		if sc, ok := reg.ByName(name); ok {
			desc = sc.Description
		}
		s.AddType(NewType(name, TypeKindScalar, desc))
	}
	// variables and @skip/@include need the standard scalars even when no
	// field uses them
	for _, name := range builtinScalars {
		scalar(name)
	}
	for _, ref := range g.Scalars {
		scalar(ref.Name())
	}

	add := func(t *Type) error {
		if _, ok := s.Types[t.Name]; ok {
			return fmt.Errorf("schema: type %s is defined twice", t.Name)
		}
		s.AddType(t)
		return nil
	}

	if len(g.Queries) > 0 {
		q, err := buildRoot(QueryTypeName, g.Queries)
		if err != nil {
			return nil, err
		}
		s.SetQueryType(QueryTypeName).AddType(q)
	}
	if len(g.Mutations) > 0 {
		m, err := buildRoot(MutationTypeName, g.Mutations)
		if err != nil {
			return nil, err
		}
		s.SetMutationType(MutationTypeName).AddType(m)
	}

	for _, o := range g.Objects {
		t, err := buildObject(o)
		if err != nil {
			return nil, err
		}
		if err := add(t); err != nil {
			return nil, err
		}
	}
	for _, i := range g.Interfaces {
		t := NewType(i.Name(), TypeKindInterface, i.Description)
		for _, f := range i.Fields {
			t.AddField(NewField(f.Name, f.Description, buildTypeRef(f)))
		}
		for _, impl := range i.Implementors {
			t.AddPossibleType(impl.Name())
		}
		if err := add(t); err != nil {
			return nil, err
		}
	}
	for _, u := range g.Unions {
		t := NewType(u.Name(), TypeKindUnion, u.Description)
		for _, m := range u.Members() {
			t.AddPossibleType(m.Name())
		}
		if err := add(t); err != nil {
			return nil, err
		}
	}
	for _, in := range g.Inputs {
		t := NewType(in.Name(), TypeKindInputObject, in.Description)
		for _, f := range in.Fields {
			v, err := buildInputValue(f)
			if err != nil {
				return nil, fmt.Errorf("schema: input %s: %w", in.Name(), err)
			}
			t.AddInputField(v)
		}
		if err := add(t); err != nil {
			return nil, err
		}
	}
	for _, e := range g.Enums {
		t := NewType(e.Name(), TypeKindEnum, e.Description)
		for _, v := range e.Values {
			t.AddEnumValue(NewEnumValue(v.Name, v.Description))
		}
		if err := add(t); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func buildRoot(name string, ops []*graph.Operation) (*Type, error) {
	t := NewType(name, TypeKindObject, "")
	for _, op := range ops {
		f, err := buildOperation(op)
		if err != nil {
			return nil, err
		}
		t.AddField(f)
	}
	return t, nil
}

func buildObject(o *graph.Object) (*Type, error) {
	t := NewType(o.Name(), TypeKindObject, o.Description)
	for _, iface := range o.Interfaces {
		t.AddInterface(iface.Name())
	}
	for _, f := range o.Fields {
		t.AddField(NewField(f.Name, f.Description, buildTypeRef(f)))
	}
	for _, op := range o.Operations {
		f, err := buildOperation(op)
		if err != nil {
			return nil, err
		}
		t.AddField(f)
	}
	return t, nil
}

func buildOperation(op *graph.Operation) (*Field, error) {
	f := NewField(op.Name, op.Description, buildTypeRef(&op.Field)).SetAsync(op.Batch)
	for _, arg := range op.Arguments {
		v, err := buildInputValue(&arg.Field)
		if err != nil {
			return nil, fmt.Errorf("schema: field %s: %w", op.Name, err)
		}
		f.AddArgument(v)
	}
	return f, nil
}

func buildInputValue(f *graph.Field) (*InputValue, error) {
	v := NewInputValue(f.Name, f.Description, buildTypeRef(f))
	if f.DefaultValue != nil {
		def, err := parseLiteral(*f.DefaultValue)
		if err != nil {
			return nil, fmt.Errorf("default value of %s: %w", f.Name, err)
		}
		v.SetDefault(def)
	}
	return v, nil
}

func buildTypeRef(f *graph.Field) *TypeRef {
	return wrapTypeRef(NamedType(f.GraphReference().Name()), f.Wrapper, f.NotNull)
}

func wrapTypeRef(leaf *TypeRef, w *graph.Wrapper, notNull bool) *TypeRef {
	t := leaf
	if w != nil {
		t = ListType(wrapTypeRef(leaf, w.Inner, w.NotNullItems))
	}
	if notNull {
		t = NonNullType(t)
	}
	return t
}

// parseLiteral reads a GraphQL value literal such as `5`, `"x"` or `[RED]`.
func parseLiteral(lit string) (any, error) {
	doc, err := parser.ParseQuery(&ast.Source{Input: "{f(v:" + lit + ")}"})
	if err != nil {
		return nil, err
	}
	field, ok := doc.Operations[0].SelectionSet[0].(*ast.Field)
	if !ok || len(field.Arguments) != 1 {
		return nil, fmt.Errorf("invalid literal %q", lit)
	}
	return field.Arguments[0].Value.Value(nil)
}
