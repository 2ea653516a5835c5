package execution

import (
	"context"
	"testing"

	"github.com/ohler55/ojg/gen"
	"github.com/stretchr/testify/require"

	eventbus "github.com/hanpama/graphbind/internal/eventbus"
	events "github.com/hanpama/graphbind/internal/events"
)

func TestBusEmitter(t *testing.T) {
	bus := eventbus.New()
	var (
		starts   []events.ExecutionStart
		finishes []events.ExecutionFinish
		failures []events.ExecutionError
		builds   []events.EngineBuild
	)
	eventbus.Subscribe(bus, func(_ context.Context, e events.ExecutionStart) { starts = append(starts, e) })
	eventbus.Subscribe(bus, func(_ context.Context, e events.ExecutionFinish) { finishes = append(finishes, e) })
	eventbus.Subscribe(bus, func(_ context.Context, e events.ExecutionError) { failures = append(failures, e) })
	eventbus.Subscribe(bus, func(_ context.Context, e events.EngineBuild) { builds = append(builds, e) })

	svc := newTestService(t, newStubFetcher(), WithEmitter(Emitters{&BusEmitter{Bus: bus}, NopEmitter{}}))

	_, err := svc.Execute(context.Background(), gen.Object{
		"query":         gen.String(`query Greet { hello(name: "Ann") people { initial } }`),
		"operationName": gen.String("Greet"),
	})
	require.NoError(t, err)
	_, err = svc.Execute(context.Background(), gen.Object{})
	require.ErrorIs(t, err, ErrMissingQuery)

	require.Len(t, starts, 1)
	require.Equal(t, events.ExecutionStart{
		ExecutionID:   svc.prefix + "-1",
		Query:         `query Greet { hello(name: "Ann") people { initial } }`,
		OperationName: "Greet",
		OperationType: "QUERY",
	}, starts[0])

	require.Len(t, finishes, 1)
	require.Equal(t, svc.prefix+"-1", finishes[0].ExecutionID)
	require.Equal(t, "QUERY", finishes[0].OperationType)
	require.Empty(t, finishes[0].Errors)

	require.Len(t, failures, 1)
	require.Equal(t, svc.prefix+"-2", failures[0].ExecutionID)
	require.ErrorIs(t, failures[0].Err, ErrMissingQuery)

	require.Equal(t, []events.EngineBuild{{Types: 7, Queries: 2, Mutations: 0, BatchLoads: 1}}, builds)
}
