package executor

import (
	"context"
	"fmt"

	language "github.com/hanpama/graphbind/internal/language"
	schema "github.com/hanpama/graphbind/internal/schema"
)

// ExecutionInput is one request to run against the executor.
type ExecutionInput struct {
	Query         string
	OperationName string
	Variables     map[string]any
	// ExecutionID is handed to the runtime with every field.
	ExecutionID string
	// Root is the source value of root fields.
	Root any
}

// Executor runs operations against one schema through a Runtime. It holds no
// per-request state and is safe for concurrent use.
type Executor struct {
	runtime Runtime
	schema  *schema.Schema
	handler ExceptionHandler
	docs    *documentCache
}

// Builder configures an Executor.
type Builder struct {
	runtime   Runtime
	schema    *schema.Schema
	handler   ExceptionHandler
	cacheSize int
}

func NewBuilder(runtime Runtime, schema *schema.Schema) *Builder {
	return &Builder{runtime: runtime, schema: schema, handler: DefaultExceptionHandler}
}

// WithExceptionHandler replaces DefaultExceptionHandler. A nil handler is ignored.
func (b *Builder) WithExceptionHandler(h ExceptionHandler) *Builder {
	if h != nil {
		b.handler = h
	}
	return b
}

// WithDocumentCache keeps up to size parsed documents. Zero disables caching.
func (b *Builder) WithDocumentCache(size int) *Builder {
	b.cacheSize = size
	return b
}

// Schema is the schema the executor will run against.
func (b *Builder) Schema() *schema.Schema { return b.schema }

func (b *Builder) Build() *Executor {
	e := &Executor{runtime: b.runtime, schema: b.schema, handler: b.handler}
	if b.cacheSize > 0 {
		e.docs = newDocumentCache(b.cacheSize)
	}
	return e
}

// NewExecutor builds an executor with the default exception handler and no
// document cache.
func NewExecutor(runtime Runtime, schema *schema.Schema) *Executor {
	return NewBuilder(runtime, schema).Build()
}

func (e *Executor) Schema() *schema.Schema { return e.schema }

// Parse parses query, reusing a cached document when caching is enabled.
// Syntax errors are returned as *language.Error.
func (e *Executor) Parse(query string) (*language.QueryDocument, error) {
	if e.docs != nil {
		if doc, ok := e.docs.get(query); ok {
			return doc, nil
		}
	}
	doc, err := language.ParseQuery(query)
	if err != nil {
		return nil, err
	}
	if e.docs != nil {
		e.docs.add(query, doc)
	}
	return doc, nil
}

// Execute parses and runs in. A document that fails to parse is returned as
// an error; every later failure is reported inside the result.
func (e *Executor) Execute(ctx context.Context, in ExecutionInput) (*ExecutionResult, error) {
	doc, err := e.Parse(in.Query)
	if err != nil {
		return nil, err
	}
	return e.ExecuteDocument(ctx, doc, in), nil
}

// ExecuteDocument runs an already parsed document. in.Query is not read.
func (e *Executor) ExecuteDocument(ctx context.Context, doc *language.QueryDocument, in ExecutionInput) *ExecutionResult {
	op := GetOperation(doc, in.OperationName)
	if op == nil {
		return requestError("operation not found")
	}

	vars, err := coerceVariableValues(e.schema, op, in.Variables)
	if err != nil {
		return requestError(err.Error())
	}

	var root *schema.Type
	switch op.Operation {
	case language.Query:
		root = e.schema.GetQueryType()
	case language.Mutation:
		root = e.schema.GetMutationType()
	default:
		return requestError(fmt.Sprintf("%s operations are not supported", op.Operation))
	}
	if root == nil {
		return requestError(fmt.Sprintf("root type not found for %s operation", op.Operation))
	}

	st := &executionState{
		ctx:         ctx,
		runtime:     e.runtime,
		schema:      e.schema,
		handler:     e.handler,
		executionID: in.ExecutionID,
		document:    doc,
		operation:   op,
		variables:   vars,
		errors:      []GraphQLError{},
		nulled:      make(map[string]bool),
	}
	return &ExecutionResult{Data: st.run(root, in.Root), Errors: st.errors}
}

// GetOperation picks the operation called operationName. An empty name
// selects the only operation of the document, or else the anonymous one. It
// returns nil when there is no match.
func GetOperation(doc *language.QueryDocument, operationName string) *language.OperationDefinition {
	return doc.Operations.ForName(operationName)
}
