package events

import "time"

// ExecutionStart is emitted before executing a GraphQL operation.
type ExecutionStart struct {
	ExecutionID   string
	Query         string
	OperationName string
	OperationType string
}

// ExecutionFinish is emitted after an operation produced a result. Errors
// holds the field errors reported in the response.
type ExecutionFinish struct {
	ExecutionID   string
	OperationName string
	OperationType string
	Errors        []error
	Duration      time.Duration
}

// ExecutionError is emitted when a request fails without producing a result,
// for example on a syntax error or an engine panic.
type ExecutionError struct {
	ExecutionID string
	Err         error
}

// EngineBuild is emitted once, when a service builds its executor.
type EngineBuild struct {
	Types      int
	Queries    int
	Mutations  int
	BatchLoads int
}
