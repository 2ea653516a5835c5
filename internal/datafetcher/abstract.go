package datafetcher

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hanpama/graphbind/internal/graph"
	"github.com/hanpama/graphbind/internal/index"
)

// ResolveType matches the concrete type of value against the members of a
// union or the implementors of an interface. Tagged values are matched by
// their tag. Only an exact match counts.
func (f *Fetcher) ResolveType(ctx context.Context, abstractType string, value any) (string, error) {
	members, ok := f.members[abstractType]
	if !ok {
		return "", fmt.Errorf("datafetcher: %s is not a union or interface", abstractType)
	}
	if value == nil {
		return "", fmt.Errorf("datafetcher: no value to resolve %s from", abstractType)
	}
	var id index.TypeID
	if t, ok := value.(graph.Tagged); ok {
		id = t.TypeID()
	} else {
		id = index.IDOf(reflect.TypeOf(value))
	}
	for _, m := range members {
		if m.OwnerID() == id {
			return m.Name(), nil
		}
	}
	return "", fmt.Errorf("datafetcher: no type of %s matches %s", abstractType, id)
}

func (f *Fetcher) ResolveConcreteValue(ctx context.Context, abstractType string, value any) (any, error) {
	if t, ok := value.(graph.Tagged); ok {
		return t.Value(), nil
	}
	return value, nil
}

// SerializeLeafValue writes enum values as their names and scalars through
// the registered scalar. Values the scalar does not accept are retried with
// their String form.
func (f *Fetcher) SerializeLeafValue(ctx context.Context, typeName string, value any) (any, error) {
	if value == nil {
		return nil, nil
	}
	if e, ok := f.enums[typeName]; ok {
		return enumName(e, value)
	}
	s, ok := f.scalars.ByName(typeName)
	if !ok {
		return value, nil
	}
	out, err := s.Serialize(value)
	if err != nil {
		if str, ok := value.(fmt.Stringer); ok {
			if out, err2 := s.Serialize(str.String()); err2 == nil {
				return out, nil
			}
		}
		return nil, err
	}
	return out, nil
}

func enumName(e *graph.Enum, value any) (any, error) {
	if reflect.TypeOf(value).Comparable() {
		for _, ev := range e.Values {
			if ev.Value == value {
				return ev.Name, nil
			}
		}
	}
	if name, ok := value.(string); ok {
		for _, ev := range e.Values {
			if ev.Name == name {
				return name, nil
			}
		}
	}
	return nil, fmt.Errorf("Enum %s cannot represent value %v", e.Name(), value)
}
