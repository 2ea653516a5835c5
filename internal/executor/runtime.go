package executor

import (
	"context"

	language "github.com/hanpama/graphbind/internal/language"
	schema "github.com/hanpama/graphbind/internal/schema"
)

// Runtime is what the executor calls out to. Per depth, every sync field is
// resolved through ResolveSync as it is reached; the async fields met on the
// way are then handed to one BatchResolveAsync call, and the next depth waits
// for it.
//
// Implementations are shared by concurrent operations and must not mutate
// sources or arguments. Any error becomes a located field error through the
// executor's ExceptionHandler, with null propagation for non-null fields.
type Runtime interface {
	// ResolveSync resolves a field inline. (nil, nil) is a null value.
	ResolveSync(ctx context.Context, params ResolveParams) (any, error)

	// BatchResolveAsync resolves one depth of async fields. It returns one
	// result per task, in task order; a failed element leaves the others
	// untouched.
	BatchResolveAsync(ctx context.Context, tasks []AsyncResolveTask) []AsyncResolveResult

	// ResolveType names the object type of a value returned for an interface
	// or union. The name must be a possible type of abstractType.
	ResolveType(ctx context.Context, abstractType string, value any) (string, error)

	// ResolveConcreteValue unwraps the value the object type's fields are
	// resolved against. Most runtimes return value unchanged.
	ResolveConcreteValue(ctx context.Context, abstractType string, value any) (any, error)

	// SerializeLeafValue turns a scalar or enum value into its response form.
	SerializeLeafValue(ctx context.Context, scalarOrEnumTypeName string, value any) (any, error)
}

// ResolveParams describes one field instance being resolved.
type ResolveParams struct {
	ExecutionID string
	// ObjectType is the parent object type name; the root type name for root fields.
	ObjectType string
	// Field is the field name on ObjectType.
	Field string
	// Source is the parent object value (the execution root for root fields).
	Source any
	// Args are the field arguments, coerced to Go values per the schema.
	Args map[string]any
	Path Path
	// Fields are the AST nodes merged into this field, in document order.
	Fields     []*language.Field
	ReturnType *schema.TypeRef
	Operation  *language.OperationDefinition
	Document   *language.QueryDocument
	// Variables are the coerced variable values of the operation.
	Variables map[string]any
}

// AsyncResolveTask is one async field instance of a batch.
type AsyncResolveTask struct {
	ResolveParams
}

// AsyncResolveResult answers one task. Value is the raw value before
// completion and is ignored when Error is set.
type AsyncResolveResult struct {
	Value any
	Error error
}
