package executor

import (
	"context"
	"errors"

	language "github.com/hanpama/graphbind/internal/language"
)

// Location is a line and column in the query document, both 1-based.
type Location struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

// GraphQLError is one entry of the response error list. It also satisfies
// error, so resolvers can return a fully formed one.
type GraphQLError struct {
	Message    string         `json:"message"`
	Locations  []Location     `json:"locations,omitempty"`
	Path       Path           `json:"path,omitempty"`
	Extensions map[string]any `json:"extensions,omitempty"`
}

func (e GraphQLError) Error() string {
	return e.Message
}

// ExecutionResult is the outcome of one operation. Data is nil when the
// operation could not start, for example on an unknown operation name.
type ExecutionResult struct {
	Data   any            `json:"data"`
	Errors []GraphQLError `json:"errors,omitempty"`
}

func requestError(message string) *ExecutionResult {
	return &ExecutionResult{Errors: []GraphQLError{{Message: message}}}
}

// ExceptionHandler converts an error raised while resolving a field into the
// error reported to the client.
type ExceptionHandler func(ctx context.Context, params ResolveParams, err error) GraphQLError

// DefaultExceptionHandler reports the error message at the field's path and
// locations. A GraphQLError returned by a resolver is passed through with its
// location filled in.
func DefaultExceptionHandler(_ context.Context, params ResolveParams, err error) GraphQLError {
	var gqlErr GraphQLError
	if errors.As(err, &gqlErr) {
		if gqlErr.Path == nil {
			gqlErr.Path = params.Path
		}
		if gqlErr.Locations == nil {
			gqlErr.Locations = LocationsOf(params.Fields)
		}
		return gqlErr
	}
	return GraphQLError{Message: err.Error(), Path: params.Path, Locations: LocationsOf(params.Fields)}
}

// LocationsOf returns the source location of the first field node.
func LocationsOf(fields []*language.Field) []Location {
	if len(fields) == 0 || fields[0].Position == nil {
		return nil
	}
	return []Location{{Line: fields[0].Position.Line, Column: fields[0].Position.Column}}
}
