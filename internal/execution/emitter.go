package execution

import (
	"context"
	"errors"
	"time"

	eventbus "github.com/hanpama/graphbind/internal/eventbus"
	events "github.com/hanpama/graphbind/internal/events"
	executor "github.com/hanpama/graphbind/internal/executor"
	schema "github.com/hanpama/graphbind/internal/schema"
)

// Emitter observes the life cycle of requests.
type Emitter interface {
	BeforeExecute(ctx context.Context, c *Context)
	AfterExecute(ctx context.Context, c *Context)
	OnExecuteError(ctx context.Context, executionID string, err error)
	// BeforeEngineBuild may adjust the engine before it is built. It is
	// called once per Service.
	BeforeEngineBuild(b *executor.Builder) *executor.Builder
}

// NopEmitter ignores every event.
type NopEmitter struct{}

func (NopEmitter) BeforeExecute(context.Context, *Context)                 {}
func (NopEmitter) AfterExecute(context.Context, *Context)                  {}
func (NopEmitter) OnExecuteError(context.Context, string, error)           {}
func (NopEmitter) BeforeEngineBuild(b *executor.Builder) *executor.Builder { return b }

// BusEmitter publishes request events on an event bus.
type BusEmitter struct {
	Bus *eventbus.Bus
}

func (e *BusEmitter) BeforeExecute(ctx context.Context, c *Context) {
	eventbus.Publish(ctx, e.Bus, events.ExecutionStart{
		ExecutionID:   c.ExecutionID(),
		Query:         c.Query(),
		OperationName: c.OperationName(),
		OperationType: firstOr(c.RequestedOperationTypes(), ""),
	})
}

func (e *BusEmitter) AfterExecute(ctx context.Context, c *Context) {
	var errs []error
	if res := c.Result(); res != nil {
		for _, ge := range res.Errors {
			errs = append(errs, errors.New(ge.Message))
		}
	}
	eventbus.Publish(ctx, e.Bus, events.ExecutionFinish{
		ExecutionID:   c.ExecutionID(),
		OperationName: c.OperationName(),
		OperationType: firstOr(c.RequestedOperationTypes(), ""),
		Errors:        errs,
		Duration:      time.Since(c.Started()),
	})
}

func (e *BusEmitter) OnExecuteError(ctx context.Context, executionID string, err error) {
	eventbus.Publish(ctx, e.Bus, events.ExecutionError{ExecutionID: executionID, Err: err})
}

func (e *BusEmitter) BeforeEngineBuild(b *executor.Builder) *executor.Builder {
	eventbus.Publish(context.Background(), e.Bus, engineStats(b.Schema()))
	return b
}

// Emitters fans every call out to each emitter in order. BeforeEngineBuild
// threads the builder through all of them.
type Emitters []Emitter

func (es Emitters) BeforeExecute(ctx context.Context, c *Context) {
	for _, e := range es {
		e.BeforeExecute(ctx, c)
	}
}

func (es Emitters) AfterExecute(ctx context.Context, c *Context) {
	for _, e := range es {
		e.AfterExecute(ctx, c)
	}
}

func (es Emitters) OnExecuteError(ctx context.Context, executionID string, err error) {
	for _, e := range es {
		e.OnExecuteError(ctx, executionID, err)
	}
}

func (es Emitters) BeforeEngineBuild(b *executor.Builder) *executor.Builder {
	for _, e := range es {
		b = e.BeforeEngineBuild(b)
	}
	return b
}

func engineStats(sch *schema.Schema) events.EngineBuild {
	stats := events.EngineBuild{Types: len(sch.Types)}
	if q := sch.GetQueryType(); q != nil {
		stats.Queries = len(q.Fields)
	}
	if m := sch.GetMutationType(); m != nil {
		stats.Mutations = len(m.Fields)
	}
	for _, t := range sch.Types {
		for _, f := range t.Fields {
			if f.Async {
				stats.BatchLoads++
			}
		}
	}
	return stats
}

func firstOr(list []string, def string) string {
	if len(list) == 0 {
		return def
	}
	return list[0]
}
