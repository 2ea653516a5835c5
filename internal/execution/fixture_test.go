package execution

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hanpama/graphbind/internal/creator"
	"github.com/hanpama/graphbind/internal/dataloader"
	executor "github.com/hanpama/graphbind/internal/executor"
	"github.com/hanpama/graphbind/internal/graph"
	"github.com/hanpama/graphbind/internal/index"
	"github.com/hanpama/graphbind/internal/scalars"
)

type Person struct {
	Name string
}

type peopleAPI struct{}

func (peopleAPI) Hello(name string) string      { return "" }
func (peopleAPI) People() []*Person             { return nil }
func (peopleAPI) Initial(ps []*Person) []string { return nil }

func peopleGraph(t *testing.T) *graph.Schema {
	t.Helper()
	idx, err := index.NewScanner().
		API(peopleAPI{}, map[string]index.Annotations{
			"Hello":   {index.AnnQuery: "", index.AnnArgs: "name"},
			"People":  {index.AnnQuery: ""},
			"Initial": {index.AnnSource: ""},
		}).
		Index()
	require.NoError(t, err)
	g, err := creator.Build(idx, scalars.Default())
	require.NoError(t, err)
	return g
}

// stubFetcher resolves fields from a table keyed by "Type.field" and loads
// batched fields through the loader registry in the context.
type stubFetcher struct {
	mu      sync.Mutex
	fields  map[string]func(ctx context.Context, p executor.ResolveParams) (any, error)
	batches [][]any
}

func newStubFetcher() *stubFetcher {
	f := &stubFetcher{}
	f.fields = map[string]func(context.Context, executor.ResolveParams) (any, error){
		"Query.hello": func(ctx context.Context, p executor.ResolveParams) (any, error) {
			return "Hello, " + p.Args["name"].(string), nil
		},
		"Query.people": func(ctx context.Context, p executor.ResolveParams) (any, error) {
			return []*Person{{Name: "Ann"}, {Name: "Bob"}, {Name: "Ann"}}, nil
		},
		"Person.name": func(ctx context.Context, p executor.ResolveParams) (any, error) {
			return p.Source.(*Person).Name, nil
		},
	}
	return f
}

func (f *stubFetcher) ResolveSync(ctx context.Context, p executor.ResolveParams) (any, error) {
	fn, ok := f.fields[p.ObjectType+"."+p.Field]
	if !ok {
		return nil, fmt.Errorf("no field %s.%s", p.ObjectType, p.Field)
	}
	return fn(ctx, p)
}

func (f *stubFetcher) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	out := make([]executor.AsyncResolveResult, len(tasks))
	reg, ok := dataloader.RegistryFrom(ctx)
	if !ok {
		for i := range out {
			out[i].Error = fmt.Errorf("no registry")
		}
		return out
	}
	keys := make([]any, len(tasks))
	for i, task := range tasks {
		keys[i] = task.Source
	}
	l, ok := reg.Get(tasks[0].ObjectType + "." + tasks[0].Field)
	if !ok {
		for i := range out {
			out[i].Error = fmt.Errorf("no loader")
		}
		return out
	}
	for i, r := range l.LoadMany(ctx, keys) {
		out[i] = executor.AsyncResolveResult{Value: r.Value, Error: r.Err}
	}
	return out
}

func (f *stubFetcher) BatchFunc(op *graph.Operation) dataloader.BatchFunc {
	return func(ctx context.Context, keys []any) ([]any, error) {
		f.mu.Lock()
		f.batches = append(f.batches, keys)
		f.mu.Unlock()
		out := make([]any, len(keys))
		for i, k := range keys {
			out[i] = strings.ToUpper(k.(*Person).Name[:1])
		}
		return out, nil
	}
}

func (f *stubFetcher) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	return "", fmt.Errorf("no abstract types")
}

func (f *stubFetcher) ResolveConcreteValue(ctx context.Context, abstractType string, value any) (any, error) {
	return value, nil
}

func (f *stubFetcher) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	return value, nil
}

// recordingEmitter keeps the order of emitter calls.
type recordingEmitter struct {
	mu     sync.Mutex
	calls  []string
	errs   []error
	builds int
}

func (e *recordingEmitter) record(s string) {
	e.mu.Lock()
	e.calls = append(e.calls, s)
	e.mu.Unlock()
}

func (e *recordingEmitter) BeforeExecute(ctx context.Context, c *Context) {
	e.record("before " + c.ExecutionID())
}

func (e *recordingEmitter) AfterExecute(ctx context.Context, c *Context) {
	e.record("after " + c.ExecutionID())
}

func (e *recordingEmitter) OnExecuteError(ctx context.Context, id string, err error) {
	e.mu.Lock()
	e.errs = append(e.errs, err)
	e.mu.Unlock()
	e.record("error " + id)
}

func (e *recordingEmitter) BeforeEngineBuild(b *executor.Builder) *executor.Builder {
	e.mu.Lock()
	e.builds++
	e.mu.Unlock()
	return b
}
