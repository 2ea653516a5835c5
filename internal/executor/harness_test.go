package executor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/require"
	"github.com/vektah/gqlparser/v2/ast"
	"github.com/vektah/gqlparser/v2/parser"

	language "github.com/hanpama/graphbind/internal/language"
	schema "github.com/hanpama/graphbind/internal/schema"
)

var (
	ignoreLocations = cmpopts.IgnoreFields(GraphQLError{}, "Locations")
	equateEmpty     = cmpopts.EquateEmpty()
)

// schemaFromSDL builds a schema from SDL. Fields marked @async are resolved
// in batches; Query and Mutation become the root types when defined.
func schemaFromSDL(t *testing.T, sdl string) *schema.Schema {
	t.Helper()
	doc, err := parser.ParseSchema(&ast.Source{Input: sdl})
	require.NoError(t, err)

	sch := schema.NewSchema()
	for _, name := range []string{"String", "Int", "Float", "Boolean", "ID"} {
		sch.AddType(schema.NewType(name, schema.TypeKindScalar, ""))
	}
	for _, def := range doc.Definitions {
		switch def.Kind {
		case ast.Scalar:
			sch.AddType(schema.NewType(def.Name, schema.TypeKindScalar, ""))
		case ast.Enum:
			typ := schema.NewType(def.Name, schema.TypeKindEnum, "")
			for _, v := range def.EnumValues {
				typ.AddEnumValue(schema.NewEnumValue(v.Name, ""))
			}
			sch.AddType(typ)
		case ast.Union:
			typ := schema.NewType(def.Name, schema.TypeKindUnion, "")
			for _, member := range def.Types {
				typ.AddPossibleType(member)
			}
			sch.AddType(typ)
		case ast.InputObject:
			typ := schema.NewType(def.Name, schema.TypeKindInputObject, "")
			for _, f := range def.Fields {
				typ.AddInputField(inputValueFromAST(f.Name, f.Type, f.DefaultValue))
			}
			sch.AddType(typ)
		case ast.Object, ast.Interface:
			kind := schema.TypeKindObject
			if def.Kind == ast.Interface {
				kind = schema.TypeKindInterface
			}
			typ := schema.NewType(def.Name, kind, "")
			for _, f := range def.Fields {
				field := schema.NewField(f.Name, "", typeRefFromAST(f.Type))
				field.SetAsync(f.Directives.ForName("async") != nil)
				for _, a := range f.Arguments {
					field.AddArgument(inputValueFromAST(a.Name, a.Type, a.DefaultValue))
				}
				typ.AddField(field)
			}
			for _, iface := range def.Interfaces {
				typ.AddInterface(iface)
			}
			sch.AddType(typ)
		}
	}
	for _, def := range doc.Definitions {
		if def.Kind != ast.Object {
			continue
		}
		for _, iface := range def.Interfaces {
			if it := sch.Types[iface]; it != nil {
				it.AddPossibleType(def.Name)
			}
		}
	}
	if sch.Types["Query"] != nil {
		sch.SetQueryType("Query")
	}
	if sch.Types["Mutation"] != nil {
		sch.SetMutationType("Mutation")
	}
	return sch
}

func inputValueFromAST(name string, typ *ast.Type, def *ast.Value) *schema.InputValue {
	iv := schema.NewInputValue(name, "", typeRefFromAST(typ))
	if def != nil {
		iv.SetDefault(literal(def))
	}
	return iv
}

func mustParseQuery(t *testing.T, q string) *language.QueryDocument {
	t.Helper()
	doc, err := language.ParseQuery(q)
	require.NoError(t, err)
	return doc
}

type resolverFunc func(ctx context.Context, source any, args map[string]any) (any, error)

func value(v any) resolverFunc {
	return func(context.Context, any, map[string]any) (any, error) { return v, nil }
}

func fail(message string) resolverFunc {
	return func(context.Context, any, map[string]any) (any, error) { return nil, errors.New(message) }
}

// prop reads key from a map source.
func prop(key string) resolverFunc {
	return func(_ context.Context, source any, _ map[string]any) (any, error) {
		return source.(map[string]any)[key], nil
	}
}

// call is one resolver invocation seen by fakeRuntime. Batch is 0 for
// inline calls and counts BatchResolveAsync calls from 1 otherwise.
type call struct {
	Batch  int
	Field  string
	Source any
	Args   map[string]any
}

// fakeRuntime resolves "Type.field" keys from a map and records every call.
// Unknown keys resolve to null.
type fakeRuntime struct {
	mu        sync.Mutex
	resolvers map[string]resolverFunc
	calls     []call
	batches   int

	typeOf    func(value any) (string, error)
	concrete  func(abstractType string, value any) (any, error)
	serialize func(typeName string, value any) (any, error)
}

func newRuntime(resolvers map[string]resolverFunc) *fakeRuntime {
	return &fakeRuntime{resolvers: resolvers}
}

func (r *fakeRuntime) resolve(ctx context.Context, batch int, p ResolveParams) (any, error) {
	key := p.ObjectType + "." + p.Field
	r.mu.Lock()
	r.calls = append(r.calls, call{Batch: batch, Field: key, Source: p.Source, Args: p.Args})
	fn := r.resolvers[key]
	r.mu.Unlock()
	if fn == nil {
		return nil, nil
	}
	return fn(ctx, p.Source, p.Args)
}

func (r *fakeRuntime) ResolveSync(ctx context.Context, p ResolveParams) (any, error) {
	return r.resolve(ctx, 0, p)
}

func (r *fakeRuntime) BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult {
	r.mu.Lock()
	r.batches++
	batch := r.batches
	r.mu.Unlock()

	out := make([]AsyncResolveResult, len(tasks))
	for i, task := range tasks {
		v, err := r.resolve(ctx, batch, task.ResolveParams)
		out[i] = AsyncResolveResult{Value: v, Error: err}
	}
	return out
}

func (r *fakeRuntime) ResolveType(_ context.Context, _ string, value any) (string, error) {
	if r.typeOf != nil {
		return r.typeOf(value)
	}
	if m, ok := value.(map[string]any); ok {
		if name, ok := m["__typename"].(string); ok {
			return name, nil
		}
	}
	return "", fmt.Errorf("cannot resolve type of %T", value)
}

func (r *fakeRuntime) ResolveConcreteValue(_ context.Context, abstractType string, value any) (any, error) {
	if r.concrete != nil {
		return r.concrete(abstractType, value)
	}
	return value, nil
}

func (r *fakeRuntime) SerializeLeafValue(_ context.Context, typeName string, value any) (any, error) {
	if r.serialize != nil {
		return r.serialize(typeName, value)
	}
	return value, nil
}

func (r *fakeRuntime) Calls() []call {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]call(nil), r.calls...)
}

// fields lists the recorded calls as "batch:Type.field".
func (r *fakeRuntime) fields() []string {
	var out []string
	for _, c := range r.Calls() {
		out = append(out, fmt.Sprintf("%d:%s", c.Batch, c.Field))
	}
	return out
}

func execute(t *testing.T, sch *schema.Schema, rt Runtime, query string, vars map[string]any) *ExecutionResult {
	t.Helper()
	res, err := NewExecutor(rt, sch).Execute(context.Background(), ExecutionInput{Query: query, Variables: vars})
	require.NoError(t, err)
	return res
}

func requireResult(t *testing.T, want, got *ExecutionResult) {
	t.Helper()
	if diff := cmp.Diff(want, got, ignoreLocations, equateEmpty); diff != "" {
		t.Fatalf("ExecutionResult mismatch (-want +got):\n%s", diff)
	}
}
