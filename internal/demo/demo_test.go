package demo

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/ohler55/ojg/gen"
	"github.com/stretchr/testify/require"

	"github.com/hanpama/graphbind/internal/datafetcher"
	"github.com/hanpama/graphbind/internal/execution"
	"github.com/hanpama/graphbind/internal/scalars"
)

func newService(t *testing.T) (*API, *execution.Service) {
	t.Helper()
	api := New()
	reg := scalars.Default()
	g, l, err := Build(api, reg, nil)
	require.NoError(t, err)
	svc, err := execution.NewService(g, reg, datafetcher.New(g, reg, l))
	require.NoError(t, err)
	return api, svc
}

func run(t *testing.T, svc *execution.Service, query string) gen.Object {
	t.Helper()
	res, err := svc.Execute(context.Background(), gen.Object{"query": gen.String(query)})
	require.NoError(t, err)
	return res
}

func requireData(t *testing.T, want gen.Object, got gen.Object) {
	t.Helper()
	require.Nil(t, got["errors"])
	if diff := cmp.Diff(want, got["data"]); diff != "" {
		t.Fatalf("data mismatch (-want +got):\n%s", diff)
	}
}

func TestGraphShape(t *testing.T) {
	idx, err := Index()
	require.NoError(t, err)
	require.NotEmpty(t, idx.APIs())

	g, _, err := Build(New(), scalars.Default(), nil)
	require.NoError(t, err)
	require.NotNil(t, g.Union("SearchResult"))
	require.NotNil(t, g.Interface("Person"))
	require.NotNil(t, g.Input("HeroInput"))
	require.NotNil(t, g.Enum("Power"))

	ops := g.BatchOperations()
	require.Len(t, ops, 1)
	require.Equal(t, "Hero.nemeses", ops[0].LoaderName())
}

func TestMappedScalarsAndEnums(t *testing.T) {
	_, svc := newService(t)
	got := run(t, svc, `{ heroes(power: FLIGHT) { name power debut salary } }`)
	requireData(t, gen.Object{"heroes": gen.Array{gen.Object{
		"name":   gen.String("Skyhawk"),
		"power":  gen.String("FLIGHT"),
		"debut":  gen.String("1962-08-01T00:00:00Z"),
		"salary": gen.Big("5200"),
	}}}, got)
}

func TestSearchUnion(t *testing.T) {
	_, svc := newService(t)
	got := run(t, svc, `{
		search(text: "o") {
			__typename
			... on Person { name }
			... on City { name population }
		}
	}`)
	requireData(t, gen.Object{"search": gen.Array{
		gen.Object{"__typename": gen.String("Hero"), "name": gen.String("Ironclad")},
		gen.Object{"__typename": gen.String("Villain"), "name": gen.String("Doctor Gloom")},
		gen.Object{"__typename": gen.String("City"), "name": gen.String("Gotham"), "population": gen.Int(8_000_000)},
		gen.Object{"__typename": gen.String("City"), "name": gen.String("Metro City"), "population": gen.Int(12_500_000)},
	}}, got)
}

func TestNemesesAreBatched(t *testing.T) {
	api, svc := newService(t)
	got := run(t, svc, `{ heroes { name nemeses { name bounty } } }`)
	requireData(t, gen.Object{"heroes": gen.Array{
		gen.Object{"name": gen.String("Skyhawk"), "nemeses": gen.Array{
			gen.Object{"name": gen.String("Doctor Gloom"), "bounty": gen.Big("1000000")},
		}},
		gen.Object{"name": gen.String("Ironclad"), "nemeses": gen.Array{
			gen.Object{"name": gen.String("The Magnet"), "bounty": gen.Big("250000.75")},
			gen.Object{"name": gen.String("Doctor Gloom"), "bounty": gen.Big("1000000")},
		}},
		gen.Object{"name": gen.String("Blink"), "nemeses": gen.Array{}},
	}}, got)
	require.Equal(t, 1, api.Loads())
}

func TestRecruitAndResidents(t *testing.T) {
	_, svc := newService(t)
	got := run(t, svc, `mutation {
		recruit(input: {name: "Nova", power: TELEPATHY, salary: "99.999", debut: "2001-02-03T10:00:00Z", home: "Gotham"}) {
			id name salary debut
		}
	}`)
	requireData(t, gen.Object{"recruit": gen.Object{
		"id":     gen.String("h4"),
		"name":   gen.String("Nova"),
		"salary": gen.Big("100"),
		"debut":  gen.String("2001-02-03T00:00:00Z"),
	}}, got)

	got = run(t, svc, `{ city(name: "Gotham") { residents { name } } }`)
	requireData(t, gen.Object{"city": gen.Object{"residents": gen.Array{
		gen.Object{"name": gen.String("Skyhawk")},
		gen.Object{"name": gen.String("Blink")},
		gen.Object{"name": gen.String("Nova")},
	}}}, got)
}

func TestRaise(t *testing.T) {
	api, svc := newService(t)
	before, err := api.Hero("h3")
	require.NoError(t, err)

	got := run(t, svc, `mutation { raise(id: "h3", amount: "0.5") { salary } }`)
	requireData(t, gen.Object{"raise": gen.Object{"salary": gen.Big("4100.5")}}, got)
	require.Equal(t, "4100.00", before.Salary.String())
}

func TestErrors(t *testing.T) {
	_, svc := newService(t)

	got := run(t, svc, `{ hero(id: "h9") { name } }`)
	require.Equal(t, gen.Object{"hero": nil}, got["data"])
	require.Equal(t, gen.String("not found"), got["errors"].(gen.Array)[0].(gen.Object)["message"])

	got = run(t, svc, `mutation { recruit(input: {name: " ", power: SPEED, salary: "1"}) { id } }`)
	require.Equal(t, gen.Object{"recruit": nil}, got["data"])
	require.Equal(t, gen.String("invalid input"), got["errors"].(gen.Array)[0].(gen.Object)["message"])
}
