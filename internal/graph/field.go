package graph

import "reflect"

// Wrapper describes one list level around a field's type. NotNullItems
// reports whether the elements at this level are non-null.
type Wrapper struct {
	NotNullItems bool
	Inner        *Wrapper
}

// Depth returns the number of nested list levels.
func (w *Wrapper) Depth() int {
	n := 0
	for ; w != nil; w = w.Inner {
		n++
	}
	return n
}

type Field struct {
	Name        string
	Description string
	Reference   *Reference
	Wrapper     *Wrapper
	NotNull     bool
	Mapping     *Mapping
	// DefaultValue is the raw GraphQL literal of an argument or input default.
	DefaultValue *string

	// Property is the Go struct field or accessor method backing the field.
	Property string
	Index    []int
	Accessor bool
	// Type is the Go type of the struct field, parameter or result.
	Type reflect.Type
}

// GraphReference is the reference the field is presented as: the mapping
// target when one is attached.
func (f *Field) GraphReference() *Reference {
	if f.Mapping != nil {
		return f.Mapping.Target
	}
	return f.Reference
}

type Argument struct {
	Field
}
