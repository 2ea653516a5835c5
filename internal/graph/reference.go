// Package graph is the in-memory type graph built from indexed Go types:
// references, object/interface/union/input/enum nodes, operations bound to
// resolver methods and the scalar mappings attached to fields.
package graph

import (
	"fmt"

	"github.com/hanpama/graphbind/internal/index"
)

type Kind string

const (
	KindScalar    Kind = "SCALAR"
	KindType      Kind = "TYPE"
	KindInput     Kind = "INPUT"
	KindInterface Kind = "INTERFACE"
	KindUnion     Kind = "UNION"
	KindEnum      Kind = "ENUM"
)

// Reference identifies a node of the graph. It is immutable; two references
// are equal when they are owned by the same Go type.
type Reference struct {
	ownerID index.TypeID
	name    string
	kind    Kind
}

func NewReference(owner index.TypeID, name string, kind Kind) *Reference {
	return &Reference{ownerID: owner, name: name, kind: kind}
}

func (r *Reference) OwnerID() index.TypeID { return r.ownerID }
func (r *Reference) Name() string          { return r.name }
func (r *Reference) Kind() Kind            { return r.kind }

func (r *Reference) Equal(o *Reference) bool {
	return r != nil && o != nil && r.ownerID == o.ownerID
}

func (r *Reference) String() string {
	return fmt.Sprintf("%s(%s %s)", r.name, r.kind, r.ownerID)
}
