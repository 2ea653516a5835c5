package execution

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	executor "github.com/hanpama/graphbind/internal/executor"
)

var (
	ErrUnsupportedUnwrap = errors.New("execution: unsupported unwrap target")
	ErrMissingQuery      = errors.New("execution: missing query")
	ErrNoOperations      = errors.New("execution: schema has no queries or mutations")
)

// Recovered is implemented by errors standing for a recovered panic.
type Recovered interface {
	error
	Recovered() any
}

const DefaultErrorMessage = "Server Error"

// ErrorPolicy decides which resolver error messages reach the client.
// Messages of recovered panics are hidden unless the panic value's type is
// listed in Show. Other errors are shown unless their type is listed in
// Hide. Types are named the way %T prints them.
type ErrorPolicy struct {
	DefaultMessage string
	Hide           []string
	Show           []string
}

// NewExceptionHandler builds the engine exception handler for p.
func NewExceptionHandler(p ErrorPolicy, log *zap.Logger) executor.ExceptionHandler {
	if p.DefaultMessage == "" {
		p.DefaultMessage = DefaultErrorMessage
	}
	if log == nil {
		log = zap.NewNop()
	}
	return func(ctx context.Context, params executor.ResolveParams, err error) executor.GraphQLError {
		var gqlErr executor.GraphQLError
		if errors.As(err, &gqlErr) {
			return executor.DefaultExceptionHandler(ctx, params, err)
		}

		var (
			exception string
			message   = err.Error()
		)
		var rec Recovered
		if errors.As(err, &rec) {
			exception = fmt.Sprintf("%T", rec.Recovered())
			if !slices.Contains(p.Show, exception) {
				message = p.DefaultMessage
			}
			log.Error("resolver panicked",
				zap.String("executionId", params.ExecutionID),
				zap.String("field", params.ObjectType+"."+params.Field),
				zap.Error(err))
		} else {
			exception = fmt.Sprintf("%T", err)
			if slices.Contains(p.Hide, exception) {
				message = p.DefaultMessage
			}
		}

		return executor.GraphQLError{
			Message:   message,
			Locations: executor.LocationsOf(params.Fields),
			Path:      params.Path,
			Extensions: map[string]any{
				"classification": "DataFetchingException",
				"exception":      exception,
			},
		}
	}
}
