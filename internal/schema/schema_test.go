package schema

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/graphbind/internal/graph"
	"github.com/hanpama/graphbind/internal/scalars"
)

func heroGraph(t *testing.T) (*graph.Schema, *scalars.Registry) {
	t.Helper()
	reg := scalars.Default()
	str, _ := reg.ByName("String")
	integer, _ := reg.ByName("Int")
	dt, _ := reg.ByName("DateTime")

	hero := graph.NewReference("example.com/sw.Hero", "Hero", graph.KindType)
	droid := graph.NewReference("example.com/sw.Droid", "Droid", graph.KindType)
	character := graph.NewReference("example.com/sw.Character", "Character", graph.KindInterface)
	search := graph.NewReference("example.com/sw.Search", "SearchResult", graph.KindUnion)
	episode := graph.NewReference("example.com/sw.Episode", "Episode", graph.KindEnum)
	review := graph.NewReference("example.com/sw.Review", "ReviewInput", graph.KindInput)

	limit := "10"
	union := graph.NewUnion(search, "")
	union.AddMember(hero)
	union.AddMember(droid)
	union.Freeze()

	name := &graph.Field{Name: "name", Reference: str.Reference, NotNull: true}
	return &graph.Schema{
		Queries: []*graph.Operation{
			{
				Field: graph.Field{Name: "hero", Reference: character},
				Kind:  graph.OperationQuery,
				Arguments: []*graph.Argument{
					{Field: graph.Field{Name: "episode", Reference: episode}},
					{Field: graph.Field{Name: "limit", Reference: integer.Reference, DefaultValue: &limit}},
				},
			},
			{Field: graph.Field{Name: "search", Reference: search, Wrapper: &graph.Wrapper{NotNullItems: true}, NotNull: true}, Kind: graph.OperationQuery},
		},
		Mutations: []*graph.Operation{
			{
				Field:     graph.Field{Name: "review", Reference: str.Reference},
				Kind:      graph.OperationMutation,
				Arguments: []*graph.Argument{{Field: graph.Field{Name: "input", Reference: review, NotNull: true}}},
			},
		},
		Objects: []*graph.Object{
			{
				Reference:   hero,
				Description: "A hero",
				Fields: []*graph.Field{
					name,
					{Name: "born", Reference: graph.NewReference("example.com/sw.Day", "Day", graph.KindType), Mapping: &graph.Mapping{Target: dt.Reference, Create: graph.None{}}},
					{Name: "tags", Reference: str.Reference, Wrapper: &graph.Wrapper{Inner: &graph.Wrapper{NotNullItems: true}}},
				},
				Operations: []*graph.Operation{
					{Field: graph.Field{Name: "friends", Reference: hero, Wrapper: &graph.Wrapper{}}, Kind: graph.OperationSource, SourceType: hero, Batch: true},
				},
				Interfaces: []*graph.Reference{character},
			},
			{Reference: droid, Fields: []*graph.Field{name}, Interfaces: []*graph.Reference{character}},
		},
		Interfaces: []*graph.Interface{{Reference: character, Fields: []*graph.Field{name}, Implementors: []*graph.Reference{hero, droid}}},
		Unions:     []*graph.Union{union},
		Inputs:     []*graph.Input{{Reference: review, Fields: []*graph.Field{{Name: "stars", Reference: integer.Reference, NotNull: true}}}},
		Enums:      []*graph.Enum{{Reference: episode, Values: []graph.EnumValue{{Name: "NEWHOPE"}, {Name: "EMPIRE"}}}},
		Scalars:    []*graph.Reference{str.Reference, integer.Reference, dt.Reference},
	}, reg
}

func TestBuildFromGraphTypeRefs(t *testing.T) {
	g, reg := heroGraph(t)
	s, err := BuildFromGraph(g, reg)
	require.NoError(t, err)

	query := s.GetQueryType()
	hero := s.Types["Hero"]
	tests := []struct {
		name string
		got  *TypeRef
		want *TypeRef
	}{
		{"Hero.name", hero.Field("name").Type, NonNullType(NamedType("String"))},
		{"Hero.born", hero.Field("born").Type, NamedType("DateTime")},
		{"Hero.tags", hero.Field("tags").Type, ListType(ListType(NonNullType(NamedType("String"))))},
		{"Hero.friends", hero.Field("friends").Type, ListType(NamedType("Hero"))},
		{"Query.hero", query.Field("hero").Type, NamedType("Character")},
		{"Query.search", query.Field("search").Type, NonNullType(ListType(NonNullType(NamedType("SearchResult"))))},
		{"Mutation.review(input)", s.GetMutationType().Field("review").Arguments[0].Type, NonNullType(NamedType("ReviewInput"))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, tt.got); diff != "" {
				t.Fatalf("type mismatch (-want +got):\n%s", diff)
			}
		})
	}

	require.Equal(t, "A hero", hero.Description)
	require.Equal(t, []string{"Character"}, hero.Interfaces)
	require.Equal(t, TypeKindUnion, s.Types["SearchResult"].Kind)
	require.Equal(t, TypeKindInputObject, s.Types["ReviewInput"].Kind)
	require.Len(t, s.Types["Episode"].EnumValues, 2)
	require.Equal(t, "An RFC 3339 date-time string.", s.Types["DateTime"].Description)

	for _, name := range []string{"String", "Int", "Float", "Boolean", "ID"} {
		require.Equal(t, TypeKindScalar, s.Types[name].Kind, name)
	}
	require.Equal(t, "The `ID` scalar type represents a unique identifier.", s.Types["ID"].Description)
}

func TestBuildFromGraphFields(t *testing.T) {
	g, reg := heroGraph(t)
	s, err := BuildFromGraph(g, reg)
	require.NoError(t, err)

	require.Equal(t, "Query", s.GetQueryType().Name)
	require.Equal(t, "Mutation", s.GetMutationType().Name)

	hero := s.Types["Hero"]
	require.False(t, hero.Field("name").Async)
	require.True(t, hero.Field("friends").Async)
	require.Equal(t, int64(10), s.GetQueryType().Field("hero").Arguments[1].DefaultValue)

	require.True(t, s.IsPossibleType("Character", "Droid"))
	require.True(t, s.IsPossibleType("SearchResult", "Hero"))
	require.True(t, s.IsPossibleType("Hero", "Hero"))
	require.False(t, s.IsPossibleType("Episode", "Hero"))
}

func TestBuildFromGraphRejectsRootNameClash(t *testing.T) {
	g, reg := heroGraph(t)
	g.Objects = append(g.Objects, &graph.Object{Reference: graph.NewReference("example.com/sw.Query", "Query", graph.KindType)})

	_, err := BuildFromGraph(g, reg)
	require.EqualError(t, err, "schema: type Query is defined twice")
}

func TestParseLiteral(t *testing.T) {
	for lit, want := range map[string]any{
		`5`:        int64(5),
		`"x"`:      "x",
		`true`:     true,
		`[1, 2]`:   []any{int64(1), int64(2)},
		`{a: 1.5}`: map[string]any{"a": 1.5},
		`null`:     nil,
	} {
		got, err := parseLiteral(lit)
		require.NoError(t, err, lit)
		require.Equal(t, want, got, lit)
	}
	_, err := parseLiteral(`{`)
	require.Error(t, err)
}
