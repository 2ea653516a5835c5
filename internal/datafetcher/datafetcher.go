// Package datafetcher is the engine runtime backed by Go methods. Root and
// source operations call the bound method on the instance supplied by a
// lookup.Service; plain fields read struct fields and accessor methods of the
// source value. Batched source operations go through the per-execution
// dataloader registry.
package datafetcher

import (
	"context"
	"errors"
	"fmt"

	"github.com/ohler55/ojg/oj"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/hanpama/graphbind/internal/dataloader"
	"github.com/hanpama/graphbind/internal/execution"
	executor "github.com/hanpama/graphbind/internal/executor"
	"github.com/hanpama/graphbind/internal/graph"
	"github.com/hanpama/graphbind/internal/index"
	"github.com/hanpama/graphbind/internal/lookup"
	"github.com/hanpama/graphbind/internal/scalars"
	schema "github.com/hanpama/graphbind/internal/schema"
)

var ErrNoBinding = errors.New("datafetcher: no binding")

type Option func(*Fetcher)

// WithMaxConcurrency limits how many batch groups load in parallel.
func WithMaxConcurrency(n int) Option {
	return func(f *Fetcher) { f.maxConcurrency = n }
}

func WithLogger(log *zap.Logger) Option {
	return func(f *Fetcher) {
		if log != nil {
			f.log = log
		}
	}
}

// binding is what a "Type.field" coordinate resolves through: either an
// operation or a field read from the source value.
type binding struct {
	op    *graph.Operation
	field *graph.Field
}

type Fetcher struct {
	graph   *graph.Schema
	scalars *scalars.Registry
	lookup  lookup.Service
	log     *zap.Logger

	maxConcurrency int

	bindings map[string]binding
	// members lists the possible object types of each union and interface.
	members map[string][]*graph.Reference
	enums   map[string]*graph.Enum
	enumsOf map[index.TypeID]*graph.Enum
	inputs  map[index.TypeID]*graph.Input
}

var _ execution.Fetcher = (*Fetcher)(nil)

func New(g *graph.Schema, reg *scalars.Registry, l lookup.Service, opts ...Option) *Fetcher {
	f := &Fetcher{
		graph:          g,
		scalars:        reg,
		lookup:         l,
		log:            zap.NewNop(),
		maxConcurrency: 8,
		bindings:       make(map[string]binding),
		members:        make(map[string][]*graph.Reference),
		enums:          make(map[string]*graph.Enum),
		enumsOf:        make(map[index.TypeID]*graph.Enum),
		inputs:         make(map[index.TypeID]*graph.Input),
	}
	for _, opt := range opts {
		opt(f)
	}

	for _, op := range g.Queries {
		f.bindings[schema.QueryTypeName+"."+op.Name] = binding{op: op, field: &op.Field}
	}
	for _, op := range g.Mutations {
		f.bindings[schema.MutationTypeName+"."+op.Name] = binding{op: op, field: &op.Field}
	}
	for _, o := range g.Objects {
		for _, fld := range o.Fields {
			f.bindings[o.Name()+"."+fld.Name] = binding{field: fld}
		}
		for _, op := range o.Operations {
			f.bindings[o.Name()+"."+op.Name] = binding{op: op, field: &op.Field}
		}
	}
	for _, u := range g.Unions {
		f.members[u.Name()] = u.Members()
	}
	for _, i := range g.Interfaces {
		f.members[i.Name()] = i.Implementors
	}
	for _, e := range g.Enums {
		f.enums[e.Name()] = e
		f.enumsOf[e.OwnerID()] = e
	}
	for _, in := range g.Inputs {
		f.inputs[in.OwnerID()] = in
	}
	return f
}

func (f *Fetcher) binding(objectType, field string) (binding, error) {
	b, ok := f.bindings[objectType+"."+field]
	if !ok {
		return binding{}, fmt.Errorf("%w for %s.%s", ErrNoBinding, objectType, field)
	}
	return b, nil
}

// ResolveSync calls the operation bound to the field, or reads the field from
// the source value.
func (f *Fetcher) ResolveSync(ctx context.Context, params executor.ResolveParams) (any, error) {
	b, err := f.binding(params.ObjectType, params.Field)
	if err != nil {
		return nil, err
	}
	ctx = f.narrow(ctx, params, b.field)
	if b.op == nil {
		v, err := readProperty(ctx, b.field, params.Source)
		if err != nil {
			return nil, err
		}
		return respond(b.field, v), nil
	}
	return f.call(ctx, b.op, params.Source, params.Args)
}

// BatchResolveAsync groups tasks by field and arguments and loads each group
// through its loader. Groups run in parallel, at most maxConcurrency at a
// time.
func (f *Fetcher) BatchResolveAsync(ctx context.Context, tasks []executor.AsyncResolveTask) []executor.AsyncResolveResult {
	results := make([]executor.AsyncResolveResult, len(tasks))
	if len(tasks) == 0 {
		return results
	}

	type groupKey struct {
		objectType string
		field      string
		args       string
	}
	var groups [][]int
	idxByKey := map[groupKey]int{}
	for i, t := range tasks {
		k := groupKey{objectType: t.ObjectType, field: t.Field, args: argsKey(t.Args)}
		if gi, ok := idxByKey[k]; ok {
			groups[gi] = append(groups[gi], i)
			continue
		}
		idxByKey[k] = len(groups)
		groups = append(groups, []int{i})
	}

	var g errgroup.Group
	if f.maxConcurrency > 0 {
		g.SetLimit(f.maxConcurrency)
	}
	for _, idxs := range groups {
		g.Go(func() error {
			f.runGroup(ctx, tasks, idxs, results)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// runGroup resolves the tasks at idxs, which share one field and one set of
// arguments, and writes their results in place.
func (f *Fetcher) runGroup(ctx context.Context, tasks []executor.AsyncResolveTask, idxs []int, results []executor.AsyncResolveResult) {
	first := tasks[idxs[0]]
	b, err := f.binding(first.ObjectType, first.Field)
	if err == nil && b.op == nil {
		err = fmt.Errorf("datafetcher: %s.%s is not an operation", first.ObjectType, first.Field)
	}
	if err != nil {
		for _, i := range idxs {
			results[i] = executor.AsyncResolveResult{Error: err}
		}
		return
	}

	if !b.op.Batch {
		for _, i := range idxs {
			v, err := f.call(f.narrow(ctx, tasks[i].ResolveParams, b.field), b.op, tasks[i].Source, tasks[i].Args)
			results[i] = executor.AsyncResolveResult{Value: v, Error: err}
		}
		return
	}

	loader := f.loader(ctx, b.op, argsKey(first.Args))
	keys := make([]any, len(idxs))
	for j, i := range idxs {
		keys[j] = tasks[i].Source
	}
	f.log.Debug("batch load",
		zap.String("executionId", first.ExecutionID),
		zap.String("loader", loader.Name()),
		zap.Int("keys", len(keys)))

	loaded := loader.LoadMany(f.narrow(ctx, first.ResolveParams, b.field), keys)
	for j, i := range idxs {
		results[i] = executor.AsyncResolveResult{Value: loaded[j].Value, Error: loaded[j].Err}
	}
}

// loader returns the execution's loader for op and args, or a loader used
// only for this call when the context carries no registry. Loader results are
// keyed by source alone, so every distinct argument set gets a loader of its
// own, forked from the registered one.
func (f *Fetcher) loader(ctx context.Context, op *graph.Operation, args string) *dataloader.Loader {
	reg, ok := dataloader.RegistryFrom(ctx)
	if !ok {
		return dataloader.New(op.LoaderName(), f.BatchFunc(op))
	}
	l, ok := reg.Get(op.LoaderName())
	if !ok {
		return dataloader.New(op.LoaderName(), f.BatchFunc(op))
	}
	if args == "" {
		return l
	}
	return reg.LoadOrStore(l.Fork(op.LoaderName() + args))
}

// argsKey renders coerced arguments with sorted keys, or "" when there are
// none.
func argsKey(args map[string]any) string {
	if len(args) == 0 {
		return ""
	}
	return oj.JSON(args, &oj.Options{Sort: true})
}

// BatchFunc calls the batched operation op with the loader keys as its
// source slice. Arguments are taken from the field bound to ctx.
func (f *Fetcher) BatchFunc(op *graph.Operation) dataloader.BatchFunc {
	return func(ctx context.Context, keys []any) ([]any, error) {
		var args map[string]any
		if c, ok := execution.FromContext(ctx); ok {
			args = c.Arguments()
		}
		v, err := f.call(ctx, op, keys, args)
		if err != nil {
			return nil, err
		}
		out, ok := v.([]any)
		if !ok {
			return nil, fmt.Errorf("datafetcher: %s returned %T, not a list", op.LoaderName(), v)
		}
		return out, nil
	}
}

// narrow binds a copy of the request Context, narrowed to one field, to a
// child of ctx.
func (f *Fetcher) narrow(ctx context.Context, params executor.ResolveParams, field *graph.Field) context.Context {
	c, ok := execution.FromContext(ctx)
	if !ok {
		c = execution.NewContext(nil, params.ExecutionID, f.graph)
	}
	return execution.WithContext(ctx, c.Narrow(params, field))
}
