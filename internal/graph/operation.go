package graph

import (
	"reflect"

	"github.com/hanpama/graphbind/internal/index"
)

type OperationKind string

const (
	OperationQuery    OperationKind = "QUERY"
	OperationMutation OperationKind = "MUTATION"
	OperationSource   OperationKind = "SOURCE"
)

type ParamKind int

const (
	ParamContext ParamKind = iota + 1
	ParamSource
	ParamArgument
)

// Param is one Go parameter of the bound method, in declaration order.
type Param struct {
	Kind     ParamKind
	Argument *Argument
	Type     reflect.Type
}

// Operation is a graph field bound to a resolver method.
type Operation struct {
	Field
	Kind   OperationKind
	API    index.TypeID
	Method string
	// SourceType is the type a source operation adds its field to.
	SourceType *Reference
	// Batch is set for source operations taking a slice of sources.
	Batch        bool
	Params       []Param
	Arguments    []*Argument
	ReturnsError bool
}

// LoaderName is the name the operation's batch loader is registered under.
func (o *Operation) LoaderName() string {
	if o.SourceType == nil {
		return o.Name
	}
	return o.SourceType.Name() + "." + o.Name
}
