package execution

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ohler55/ojg/gen"

	executor "github.com/hanpama/graphbind/internal/executor"
	"github.com/hanpama/graphbind/internal/graph"
	language "github.com/hanpama/graphbind/internal/language"
	schema "github.com/hanpama/graphbind/internal/schema"
)

// request is the part of a Context shared by every field of one execution.
type request struct {
	payload     gen.Object
	executionID string
	graph       *graph.Schema
	started     time.Time
	input       *executor.ExecutionInput
	result      *executor.ExecutionResult

	docOnce sync.Once
	doc     *language.QueryDocument
	opsOnce sync.Once
	opTypes []string
}

// Context is the per-request state handed to resolvers. A request-level
// Context is created when a payload arrives; each field resolution works on
// a narrowed copy carrying that field's parameters.
type Context struct {
	req    *request
	params *executor.ResolveParams
	field  *graph.Field
}

// NewContext wraps a request payload.
func NewContext(payload gen.Object, executionID string, g *graph.Schema) *Context {
	return &Context{req: &request{
		payload:     payload,
		executionID: executionID,
		graph:       g,
		started:     time.Now(),
	}}
}

type contextKey struct{}

// WithContext returns a copy of ctx carrying c.
func WithContext(ctx context.Context, c *Context) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// FromContext returns the Context bound to ctx.
func FromContext(ctx context.Context) (*Context, bool) {
	c, ok := ctx.Value(contextKey{}).(*Context)
	return c, ok
}

// Narrow returns a copy of c bound to one field resolution. field may be nil.
func (c *Context) Narrow(params executor.ResolveParams, field *graph.Field) *Context {
	return &Context{req: c.req, params: &params, field: field}
}

func (c *Context) withInput(in *executor.ExecutionInput) {
	c.req.input = in
}

func (c *Context) setResult(res *executor.ExecutionResult) {
	c.req.result = res
}

// Payload is the raw request object.
func (c *Context) Payload() gen.Object { return c.req.payload }

func (c *Context) ExecutionID() string {
	if c.params != nil && c.params.ExecutionID != "" {
		return c.params.ExecutionID
	}
	return c.req.executionID
}

// Started is when the request was received.
func (c *Context) Started() time.Time { return c.req.started }

func (c *Context) Query() string {
	if c.req.input == nil {
		return ""
	}
	return c.req.input.Query
}

func (c *Context) OperationName() string {
	if c.req.input == nil {
		return ""
	}
	return c.req.input.OperationName
}

func (c *Context) Variables() map[string]any {
	if c.req.input == nil {
		return nil
	}
	return c.req.input.Variables
}

// Result is the engine result, set once execution finished.
func (c *Context) Result() *executor.ExecutionResult { return c.req.result }

// Field is the graph field being resolved, nil outside field resolution.
func (c *Context) Field() *graph.Field { return c.field }

func (c *Context) HasArgument(name string) bool {
	if c.params == nil {
		return false
	}
	_, ok := c.params.Args[name]
	return ok
}

func (c *Context) Argument(name string) any {
	if c.params == nil {
		return nil
	}
	return c.params.Args[name]
}

// Arguments returns a copy of the coerced field arguments.
func (c *Context) Arguments() map[string]any {
	if c.params == nil {
		return map[string]any{}
	}
	return maps.Clone(c.params.Args)
}

func (c *Context) Path() executor.Path {
	if c.params == nil {
		return nil
	}
	return c.params.Path
}

// PathString renders the path as /hero/friends[0]/name.
func (c *Context) PathString() string {
	var b strings.Builder
	for _, e := range c.Path() {
		switch v := e.(type) {
		case string:
			b.WriteString("/" + v)
		case int:
			fmt.Fprintf(&b, "[%d]", v)
		}
	}
	return b.String()
}

func (c *Context) FieldName() string {
	if c.params == nil {
		return ""
	}
	return c.params.Field
}

func (c *Context) Source() any {
	if c.params == nil {
		return nil
	}
	return c.params.Source
}

func (c *Context) ParentTypeName() string {
	if c.params == nil {
		return ""
	}
	return c.params.ObjectType
}

// OperationType is QUERY or MUTATION for the executing operation.
func (c *Context) OperationType() string {
	if c.params == nil || c.params.Operation == nil {
		return ""
	}
	return operationType(c.params.Operation.Operation)
}

// RequestedOperationTypes lists the distinct operation types in the request
// document, in document order. The document is parsed once per request.
func (c *Context) RequestedOperationTypes() []string {
	c.req.opsOnce.Do(func() {
		doc := c.document()
		if doc == nil {
			return
		}
		for _, op := range doc.Operations {
			t := operationType(op.Operation)
			if !slices.Contains(c.req.opTypes, t) {
				c.req.opTypes = append(c.req.opTypes, t)
			}
		}
	})
	return append([]string(nil), c.req.opTypes...)
}

func (c *Context) document() *language.QueryDocument {
	if c.params != nil && c.params.Document != nil {
		return c.params.Document
	}
	c.req.docOnce.Do(func() {
		if q := c.Query(); q != "" {
			c.req.doc, _ = language.ParseQuery(q)
		}
	})
	return c.req.doc
}

// SelectedFields lists the fields selected below the current field with
// fragments flattened. Leaf fields appear as their name and object fields as
// {name: [...]}. Fields backed by source operations are left out unless
// includeSourceFields is set.
func (c *Context) SelectedFields(includeSourceFields bool) gen.Array {
	if c.params == nil || c.params.ReturnType == nil {
		return gen.Array{}
	}
	typeName := schema.GetNamedType(c.params.ReturnType)
	var set language.SelectionSet
	for _, f := range c.params.Fields {
		set = append(set, f.SelectionSet...)
	}
	return c.selected(typeName, set, includeSourceFields)
}

func (c *Context) selected(typeName string, set language.SelectionSet, includeSource bool) gen.Array {
	out := gen.Array{}
	seen := map[string]bool{}
	for _, sel := range c.flatten(typeName, set) {
		name := sel.field.Name
		if name == "__typename" || seen[name] {
			continue
		}
		if !includeSource && c.isSourceField(sel.typeName, name) {
			continue
		}
		seen[name] = true
		if len(sel.field.SelectionSet) == 0 {
			out = append(out, gen.String(name))
			continue
		}
		child := c.fieldTypeName(sel.typeName, name)
		out = append(out, gen.Object{name: c.selected(child, sel.field.SelectionSet, includeSource)})
	}
	return out
}

type selectedField struct {
	typeName string
	field    *language.Field
}

func (c *Context) flatten(typeName string, set language.SelectionSet) []selectedField {
	var out []selectedField
	for _, s := range set {
		switch sel := s.(type) {
		case *language.Field:
			out = append(out, selectedField{typeName: typeName, field: sel})
		case *language.InlineFragment:
			t := typeName
			if sel.TypeCondition != "" {
				t = sel.TypeCondition
			}
			out = append(out, c.flatten(t, sel.SelectionSet)...)
		case *language.FragmentSpread:
			def := c.fragment(sel.Name)
			if def == nil {
				continue
			}
			t := typeName
			if def.TypeCondition != "" {
				t = def.TypeCondition
			}
			out = append(out, c.flatten(t, def.SelectionSet)...)
		}
	}
	return out
}

func (c *Context) fragment(name string) *language.FragmentDefinition {
	doc := c.document()
	if doc == nil {
		return nil
	}
	return doc.Fragments.ForName(name)
}

func (c *Context) isSourceField(typeName, field string) bool {
	if c.req.graph == nil {
		return false
	}
	obj := c.req.graph.Object(typeName)
	return obj != nil && obj.Operation(field) != nil
}

func (c *Context) fieldTypeName(typeName, field string) string {
	g := c.req.graph
	if g == nil {
		return ""
	}
	if obj := g.Object(typeName); obj != nil {
		if f := obj.Field(field); f != nil {
			return f.GraphReference().Name()
		}
		if op := obj.Operation(field); op != nil {
			return op.GraphReference().Name()
		}
	}
	if iface := g.Interface(typeName); iface != nil {
		for _, f := range iface.Fields {
			if f.Name == field {
				return f.GraphReference().Name()
			}
		}
	}
	return ""
}

// Unwrap copies the engine state behind c into target, which must be a
// *executor.ResolveParams or a *executor.ExecutionInput.
func (c *Context) Unwrap(target any) error {
	switch t := target.(type) {
	case *executor.ResolveParams:
		if c.params == nil {
			return fmt.Errorf("execution: context is not bound to a field")
		}
		*t = *c.params
		return nil
	case *executor.ExecutionInput:
		if c.req.input == nil {
			return fmt.Errorf("execution: context has no execution input")
		}
		*t = *c.req.input
		return nil
	}
	return fmt.Errorf("%w: %T", ErrUnsupportedUnwrap, target)
}

func (c *Context) String() string {
	return fmt.Sprintf("Context{executionId=%s, operationName=%s, parentTypeName=%s, fieldName=%s, path=%s, arguments=%v}",
		c.ExecutionID(), c.OperationName(), c.ParentTypeName(), c.FieldName(), c.PathString(), c.Arguments())
}

func operationType(op language.Operation) string {
	return strings.ToUpper(string(op))
}
