package execution

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/ohler55/ojg/gen"
	"github.com/ohler55/ojg/oj"
	"go.uber.org/zap"

	"github.com/hanpama/graphbind/internal/dataloader"
	executor "github.com/hanpama/graphbind/internal/executor"
	"github.com/hanpama/graphbind/internal/graph"
	"github.com/hanpama/graphbind/internal/scalars"
	schema "github.com/hanpama/graphbind/internal/schema"
)

// Fetcher is the runtime the engine resolves fields with. It also provides
// the batch functions of batched source operations.
type Fetcher interface {
	executor.Runtime
	BatchFunc(op *graph.Operation) dataloader.BatchFunc
}

type Option func(*Service)

func WithEmitter(e Emitter) Option {
	return func(s *Service) {
		if e != nil {
			s.emitter = e
		}
	}
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithExceptionHandler replaces the handler derived from the error policy.
func WithExceptionHandler(h executor.ExceptionHandler) Option {
	return func(s *Service) { s.handler = h }
}

func WithErrorPolicy(p ErrorPolicy) Option {
	return func(s *Service) { s.policy = p }
}

// WithDocumentCache keeps up to size parsed documents. Zero disables caching.
func WithDocumentCache(size int) Option {
	return func(s *Service) { s.docCacheSize = size }
}

// WithBatchCache makes batch loaders remember results for the rest of an
// execution.
func WithBatchCache(enabled bool) Option {
	return func(s *Service) { s.batchCache = enabled }
}

// WithLogPayload logs every request payload at info level.
func WithLogPayload(enabled bool) Option {
	return func(s *Service) { s.logPayload = enabled }
}

// Service executes requests against one graph. The engine is built on first
// use and reused afterwards; a changed graph needs a new Service.
type Service struct {
	graph   *graph.Schema
	scalars *scalars.Registry
	fetcher Fetcher
	emitter Emitter
	log     *zap.Logger

	handler      executor.ExceptionHandler
	policy       ErrorPolicy
	docCacheSize int
	batchCache   bool
	logPayload   bool

	prefix  string
	counter atomic.Uint64

	engineOnce sync.Once
	engine     *executor.Executor
	engineErr  error
}

func NewService(g *graph.Schema, reg *scalars.Registry, f Fetcher, opts ...Option) (*Service, error) {
	if !g.HasOperations() {
		return nil, ErrNoOperations
	}
	s := &Service{
		graph:        g,
		scalars:      reg,
		fetcher:      f,
		emitter:      NopEmitter{},
		log:          zap.NewNop(),
		docCacheSize: 256,
		batchCache:   true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.handler == nil {
		s.handler = NewExceptionHandler(s.policy, s.log)
	}
	h := fnv.New64a()
	h.Write([]byte(g.Signature()))
	s.prefix = strconv.FormatUint(h.Sum64(), 16)
	return s, nil
}

func (s *Service) Graph() *graph.Schema { return s.graph }

// NextExecutionID returns "<schema hash>-<n>" with n counting up from 1.
func (s *Service) NextExecutionID() string {
	return s.prefix + "-" + strconv.FormatUint(s.counter.Add(1), 10)
}

// Engine returns the executor, building it on the first call.
func (s *Service) Engine() (*executor.Executor, error) {
	s.engineOnce.Do(func() {
		sch, err := schema.BuildFromGraph(s.graph, s.scalars)
		if err != nil {
			s.engineErr = fmt.Errorf("execution: build engine: %w", err)
			return
		}
		b := executor.NewBuilder(s.fetcher, sch).
			WithExceptionHandler(s.handler).
			WithDocumentCache(s.docCacheSize)
		s.engine = s.emitter.BeforeEngineBuild(b).Build()
		s.log.Info("engine built",
			zap.Int("types", len(sch.Types)),
			zap.Int("batchLoaders", len(s.graph.BatchOperations())))
	})
	return s.engine, s.engineErr
}

// Execute runs one request payload of the form
// {"query": ..., "operationName": ..., "variables": {...}} and returns
// {"data": ..., "errors": [...]}. Requests that cannot be executed at all,
// such as a missing query or a syntax error, return an error instead.
func (s *Service) Execute(ctx context.Context, payload gen.Object) (gen.Object, error) {
	id := s.NextExecutionID()
	if s.logPayload {
		s.log.Info("request payload",
			zap.String("executionId", id),
			zap.String("payload", oj.JSON(payload, &oj.Options{Sort: true})))
	}

	query, _ := payload["query"].(gen.String)
	if query == "" {
		return nil, s.fail(ctx, id, ErrMissingQuery)
	}
	opName, _ := payload["operationName"].(gen.String)
	in := &executor.ExecutionInput{
		Query:         string(query),
		OperationName: string(opName),
		Variables:     variables(payload["variables"]),
		ExecutionID:   id,
	}

	c := NewContext(payload, id, s.graph)
	c.withInput(in)
	ctx = WithContext(ctx, c)

	if ops := s.graph.BatchOperations(); len(ops) > 0 {
		reg := dataloader.NewRegistry()
		for _, op := range ops {
			l := dataloader.New(op.LoaderName(), s.fetcher.BatchFunc(op), dataloader.WithCache(s.batchCache))
			if err := reg.Register(l); err != nil {
				return nil, s.fail(ctx, id, err)
			}
		}
		ctx = dataloader.WithRegistry(ctx, reg)
	}

	engine, err := s.Engine()
	if err != nil {
		return nil, s.fail(ctx, id, err)
	}

	s.emitter.BeforeExecute(ctx, c)
	res, err := s.run(ctx, engine, in)
	if err != nil {
		return nil, s.fail(ctx, id, err)
	}
	c.setResult(res)
	s.emitter.AfterExecute(ctx, c)
	return Response(res), nil
}

func (s *Service) run(ctx context.Context, engine *executor.Executor, in *executor.ExecutionInput) (*executor.ExecutionResult, error) {
	defer func() {
		if r := recover(); r != nil {
			s.fail(ctx, in.ExecutionID, fmt.Errorf("execution: engine panic: %v", r))
			panic(r)
		}
	}()
	return engine.Execute(ctx, *in)
}

func (s *Service) fail(ctx context.Context, id string, err error) error {
	s.log.Error("execution failed", zap.String("executionId", id), zap.Error(err))
	s.emitter.OnExecuteError(ctx, id, err)
	return err
}

func variables(n gen.Node) map[string]any {
	obj, ok := n.(gen.Object)
	if !ok {
		return nil
	}
	vars, _ := obj.Simplify().(map[string]any)
	return vars
}
