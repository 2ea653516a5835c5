package demo

import (
	"go.uber.org/zap"

	"github.com/hanpama/graphbind/internal/creator"
	"github.com/hanpama/graphbind/internal/graph"
	"github.com/hanpama/graphbind/internal/index"
	"github.com/hanpama/graphbind/internal/lookup"
	"github.com/hanpama/graphbind/internal/scalars"
)

// Index registers the API and the types its operations reach.
func Index() (*index.Memory, error) {
	return index.NewScanner().
		API(&API{}, map[string]index.Annotations{
			"Hero":      {index.AnnQuery: "true", index.AnnArgs: "id"},
			"Heroes":    {index.AnnQuery: "true", index.AnnArgs: "power"},
			"Search":    {index.AnnQuery: "true", index.AnnArgs: "text"},
			"City":      {index.AnnQuery: "true", index.AnnArgs: "name"},
			"Recruit":   {index.AnnMutation: "true", index.AnnArgs: "input"},
			"Raise":     {index.AnnMutation: "true", index.AnnArgs: "id,amount"},
			"Nemeses":   {index.AnnSource: "true", index.AnnDescription: "Villains the hero fights."},
			"Residents": {index.AnnSource: "true"},
		}).
		Interface((*Person)(nil), nil).
		Union((*SearchResult)(nil), nil).
		Type(Villain{}, nil).
		Type(Money{}, index.Annotations{index.AnnToScalar: "BigDecimal"}).
		Type(Date{}, index.Annotations{index.AnnToScalar: "DateTime"}).
		Input(HeroInput{}, index.Annotations{index.AnnDescription: "A hero to recruit."}).
		Enum(Power(""), Flight, Strength, Speed, Telepathy).
		Factory("FromDateTime", FromDateTime).
		Index()
}

// Build indexes the API, builds its graph and returns a lookup serving api.
func Build(api *API, reg *scalars.Registry, log *zap.Logger) (*graph.Schema, lookup.Service, error) {
	idx, err := Index()
	if err != nil {
		return nil, nil, err
	}
	g, err := creator.Build(idx, reg, creator.WithLogger(log))
	if err != nil {
		return nil, nil, err
	}
	return g, lookup.New(idx).Provide(api), nil
}
