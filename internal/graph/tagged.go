package graph

import (
	"reflect"

	"github.com/hanpama/graphbind/internal/index"
)

// Tagged wraps a value returned for a union or interface field together with
// the identity of its concrete type, fixed when the value is produced.
type Tagged struct {
	typeID index.TypeID
	value  any
}

func Tag(v any) Tagged {
	if v == nil {
		return Tagged{}
	}
	return Tagged{typeID: index.IDOf(reflect.TypeOf(v)), value: v}
}

func (t Tagged) TypeID() index.TypeID { return t.typeID }
func (t Tagged) Value() any           { return t.value }
