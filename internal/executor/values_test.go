package executor

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	language "github.com/hanpama/graphbind/internal/language"
	schema "github.com/hanpama/graphbind/internal/schema"
)

func TestCoerceValue(t *testing.T) {
	sch := schemaFromSDL(t, heroSDL+"\nscalar DateTime\n")
	named := schema.NamedType

	for _, tc := range []struct {
		name  string
		value any
		typ   *schema.TypeRef
		want  any
		err   string
	}{
		{name: "int", value: 7, typ: named("Int"), want: 7},
		{name: "int from int64", value: int64(7), typ: named("Int"), want: 7},
		{name: "int from whole float", value: float64(7), typ: named("Int"), want: 7},
		{name: "int from fraction", value: 7.5, typ: named("Int"), err: "cannot coerce 7.5 (float64) to Int"},
		{name: "int overflow", value: int64(math.MaxInt32) + 1, typ: named("Int"), err: "cannot coerce 2147483648 (int64) to Int"},
		{name: "int from string", value: "7", typ: named("Int"), err: "cannot coerce 7 (string) to Int"},
		{name: "float from int", value: 3, typ: named("Float"), want: float64(3)},
		{name: "string", value: "Nova", typ: named("String"), want: "Nova"},
		{name: "string from int", value: 1, typ: named("String"), err: "cannot coerce 1 (int) to String"},
		{name: "boolean", value: true, typ: named("Boolean"), want: true},
		{name: "id from int", value: 42, typ: named("ID"), want: "42"},
		{name: "id from bool", value: true, typ: named("ID"), err: "cannot coerce true (bool) to ID"},
		{name: "null", value: nil, typ: named("Int"), want: nil},
		{name: "null for non-null", value: nil, typ: schema.NonNullType(named("Int")), err: "cannot provide null for non-null type"},
		{name: "list", value: []any{1, 2}, typ: schema.ListType(named("ID")), want: []any{"1", "2"}},
		{name: "single item list", value: 1, typ: schema.ListType(named("ID")), want: []any{"1"}},
		{name: "bad list item", value: []any{1, "x"}, typ: schema.ListType(named("Int")), err: "[1]: cannot coerce x (string) to Int"},
		{name: "enum", value: "SPEED", typ: named("Power"), want: "SPEED"},
		{name: "unknown enum value", value: "TELEPATHY", typ: named("Power"), err: `value "TELEPATHY" does not exist in enum Power`},
		{name: "custom scalar passes", value: "2024-01-01", typ: named("DateTime"), want: "2024-01-01"},
		{
			name:  "input object default",
			value: map[string]any{"name": "Nova"},
			typ:   named("HeroInput"),
			want:  map[string]any{"name": "Nova", "power": "FLIGHT"},
		},
		{
			name:  "input object nested error",
			value: map[string]any{"name": 3},
			typ:   named("HeroInput"),
			err:   "field 'name': cannot coerce 3 (int) to String",
		},
		{
			name:  "input object from scalar",
			value: "Nova",
			typ:   named("HeroInput"),
			err:   "cannot coerce Nova (string) to input object HeroInput",
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := coerceValue(sch, tc.value, tc.typ)
			if tc.err != "" {
				require.EqualError(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestLiteral(t *testing.T) {
	doc := mustParseQuery(t, `{ hero(a: 1, b: 99999999999999999999, c: 1.5, d: "s", e: FLIGHT, f: [1, null], g: {x: true}, h: $v) }`)
	args := doc.Operations[0].SelectionSet[0].(*language.Field).Arguments

	got := make(map[string]any, len(args))
	for _, a := range args {
		got[a.Name] = valueFromAST(a.Value, map[string]any{"v": "var"})
	}
	require.Equal(t, map[string]any{
		"a": 1,
		"b": 1e20,
		"c": 1.5,
		"d": "s",
		"e": "FLIGHT",
		"f": []any{1, nil},
		"g": map[string]any{"x": true},
		"h": "var",
	}, got)
}
