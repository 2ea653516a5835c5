package executor

import (
	"fmt"
	"reflect"

	language "github.com/hanpama/graphbind/internal/language"
	schema "github.com/hanpama/graphbind/internal/schema"
)

// completeValue shapes a resolved value after the field's type: leaves are
// serialized by the runtime, objects expand their sub-selection and abstract
// values are resolved to an object type first. A nil return for a non-null
// type means the null has to propagate.
func (s *executionState) completeValue(typ *schema.TypeRef, fields []*language.Field, value any, path Path) any {
	if typ.IsNonNull() {
		if isNullish(value) {
			if !s.hasErrorAt(path) {
				s.addError(fmt.Sprintf("Cannot return null for non-nullable field %s", path), path)
			}
			return nil
		}
		return s.completeValue(typ.Unwrap(), fields, value, path)
	}
	if isNullish(value) {
		return nil
	}
	if typ.IsList() {
		return s.completeList(typ.Unwrap(), fields, value, path)
	}

	name := typ.GetNamedType()
	t := s.schema.Types[name]
	if t == nil {
		s.addError(fmt.Sprintf("Unknown type: %s", name), path)
		return nil
	}
	switch t.Kind {
	case schema.TypeKindScalar, schema.TypeKindEnum:
		out, err := s.runtime.SerializeLeafValue(s.ctx, name, value)
		if err != nil {
			s.addError(err.Error(), path)
			return nil
		}
		return out
	case schema.TypeKindObject:
		return s.completeObject(t, fields, value, path)
	case schema.TypeKindInterface, schema.TypeKindUnion:
		return s.completeAbstract(name, fields, value, path)
	}
	s.addError(fmt.Sprintf("Cannot complete value of unexpected type: %s", t.Kind), path)
	return nil
}

// completeList completes every item; one null item of a non-null item type
// nulls the whole list.
func (s *executionState) completeList(item *schema.TypeRef, fields []*language.Field, value any, path Path) any {
	items, ok := value.([]any)
	if !ok {
		rv := reflect.ValueOf(value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			s.addError(fmt.Sprintf("Expected list value, got %T", value), path)
			return nil
		}
		items = make([]any, rv.Len())
		for i := range items {
			items[i] = rv.Index(i).Interface()
		}
	}

	out := make([]any, len(items))
	for i, v := range items {
		c := s.completeValue(item, fields, v, path.with(i))
		if isNullish(c) {
			if item.IsNonNull() {
				return nil
			}
			c = nil
		}
		out[i] = c
	}
	return out
}

func (s *executionState) completeObject(t *schema.Type, fields []*language.Field, value any, path Path) any {
	var set language.SelectionSet
	for _, f := range fields {
		set = append(set, f.SelectionSet...)
	}
	return s.executeSelectionSet(t, set, value, path)
}

func (s *executionState) completeAbstract(abstract string, fields []*language.Field, value any, path Path) any {
	name, err := s.runtime.ResolveType(s.ctx, abstract, value)
	if err != nil {
		s.addError(err.Error(), path)
		return nil
	}
	t := s.schema.Types[name]
	if t == nil || t.Kind != schema.TypeKindObject {
		s.addError(fmt.Sprintf("Abstract type %s must resolve to an Object type at runtime. Got: %s", abstract, name), path)
		return nil
	}
	if !s.schema.IsPossibleType(abstract, name) {
		s.addError(fmt.Sprintf("Runtime Object type %s is not a possible type for %s", name, abstract), path)
		return nil
	}
	concrete, err := s.runtime.ResolveConcreteValue(s.ctx, abstract, value)
	if err != nil {
		s.addError(err.Error(), path)
		return nil
	}
	return s.completeObject(t, fields, concrete, path)
}
