package execution

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ohler55/ojg/gen"
	"github.com/stretchr/testify/require"

	executor "github.com/hanpama/graphbind/internal/executor"
	"github.com/hanpama/graphbind/internal/graph"
	language "github.com/hanpama/graphbind/internal/language"
	schema "github.com/hanpama/graphbind/internal/schema"
)

func heroGraph() *graph.Schema {
	str := graph.NewReference("string", "String", graph.KindScalar)
	hero := graph.NewReference("example.com/starwars.Hero", "Hero", graph.KindType)
	friends := &graph.Operation{Field: graph.Field{Name: "rivals", Reference: hero}, Kind: graph.OperationSource, SourceType: hero, Batch: true}
	return &graph.Schema{
		Objects: []*graph.Object{{
			Reference: hero,
			Fields: []*graph.Field{
				{Name: "name", Reference: str},
				{Name: "friends", Reference: hero, Wrapper: &graph.Wrapper{}},
			},
			Operations: []*graph.Operation{friends},
		}},
	}
}

func fieldContext(t *testing.T, query string) *Context {
	t.Helper()
	doc, err := language.ParseQuery(query)
	require.NoError(t, err)
	op := doc.Operations[0]
	field := op.SelectionSet[0].(*language.Field)

	c := NewContext(gen.Object{"query": gen.String(query)}, "abc-1", heroGraph())
	c.withInput(&executor.ExecutionInput{Query: query, ExecutionID: "abc-1"})
	return c.Narrow(executor.ResolveParams{
		ExecutionID: "abc-1",
		ObjectType:  "Query",
		Field:       field.Name,
		Source:      "root",
		Args:        map[string]any{"episode": "JEDI"},
		Path:        executor.Path{"hero", 1, "name"},
		Fields:      []*language.Field{field},
		ReturnType:  schema.NamedType("Hero"),
		Operation:   op,
		Document:    doc,
	}, nil)
}

func TestContextAccessors(t *testing.T) {
	c := fieldContext(t, `query Q { hero(episode: JEDI) { name } }`)

	require.Equal(t, "abc-1", c.ExecutionID())
	require.Equal(t, "hero", c.FieldName())
	require.Equal(t, "Query", c.ParentTypeName())
	require.Equal(t, "root", c.Source())
	require.Equal(t, "QUERY", c.OperationType())
	require.True(t, c.HasArgument("episode"))
	require.False(t, c.HasArgument("first"))
	require.Equal(t, "JEDI", c.Argument("episode"))
	require.Equal(t, "/hero[1]/name", c.PathString())

	args := c.Arguments()
	args["episode"] = "EMPIRE"
	require.Equal(t, "JEDI", c.Argument("episode"))

	require.Equal(t,
		`Context{executionId=abc-1, operationName=, parentTypeName=Query, fieldName=hero, path=/hero[1]/name, arguments=map[episode:JEDI]}`,
		c.String())
}

func TestContextOutsideField(t *testing.T) {
	c := NewContext(gen.Object{}, "abc-2", nil)
	require.Equal(t, "abc-2", c.ExecutionID())
	require.Equal(t, "", c.FieldName())
	require.Nil(t, c.Path())
	require.Empty(t, c.Arguments())
	require.Equal(t, gen.Array{}, c.SelectedFields(true))
	require.Empty(t, c.RequestedOperationTypes())

	var params executor.ResolveParams
	require.Error(t, c.Unwrap(&params))
}

func TestContextTravelsInContext(t *testing.T) {
	_, ok := FromContext(context.Background())
	require.False(t, ok)

	c := NewContext(gen.Object{}, "abc-3", nil)
	got, ok := FromContext(WithContext(context.Background(), c))
	require.True(t, ok)
	require.Same(t, c, got)
}

func TestNarrowSharesRequestState(t *testing.T) {
	c := NewContext(gen.Object{}, "abc-4", nil)
	a := c.Narrow(executor.ResolveParams{Field: "a"}, nil)
	b := c.Narrow(executor.ResolveParams{Field: "b"}, nil)

	require.Equal(t, "a", a.FieldName())
	require.Equal(t, "b", b.FieldName())
	require.Equal(t, "", c.FieldName())

	c.setResult(&executor.ExecutionResult{Data: 1})
	require.Equal(t, 1, a.Result().Data)
}

func TestSelectedFields(t *testing.T) {
	c := fieldContext(t, `
		query {
			hero {
				name
				__typename
				... on Hero { friends { name __typename } }
				...Names
				rivals { name }
			}
		}
		fragment Names on Hero { name friends { name } }`)

	want := gen.Array{
		gen.String("name"),
		gen.Object{"friends": gen.Array{gen.String("name")}},
	}
	if diff := cmp.Diff(want, c.SelectedFields(false)); diff != "" {
		t.Fatalf("SelectedFields(false) mismatch (-want +got):\n%s", diff)
	}

	want = append(want, gen.Object{"rivals": gen.Array{gen.String("name")}})
	if diff := cmp.Diff(want, c.SelectedFields(true)); diff != "" {
		t.Fatalf("SelectedFields(true) mismatch (-want +got):\n%s", diff)
	}
}

func TestRequestedOperationTypes(t *testing.T) {
	query := `mutation M { a } query Q { b } mutation N { c }`
	c := NewContext(gen.Object{}, "abc-5", nil)
	c.withInput(&executor.ExecutionInput{Query: query})

	require.Equal(t, []string{"MUTATION", "QUERY"}, c.RequestedOperationTypes())

	got := c.RequestedOperationTypes()
	got[0] = "changed"
	require.Equal(t, []string{"MUTATION", "QUERY"}, c.RequestedOperationTypes())
}

func TestUnwrap(t *testing.T) {
	c := fieldContext(t, `{ hero { name } }`)

	var params executor.ResolveParams
	require.NoError(t, c.Unwrap(&params))
	require.Equal(t, "hero", params.Field)

	var in executor.ExecutionInput
	require.NoError(t, c.Unwrap(&in))
	require.Equal(t, "abc-1", in.ExecutionID)

	var n int
	err := c.Unwrap(&n)
	require.ErrorIs(t, err, ErrUnsupportedUnwrap)
	require.Contains(t, err.Error(), "*int")
}
