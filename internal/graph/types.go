package graph

type Object struct {
	*Reference
	Description string
	Fields      []*Field
	// Operations are source operations adding fields to this type.
	Operations []*Operation
	Interfaces []*Reference
}

func (o *Object) Field(name string) *Field {
	for _, f := range o.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

func (o *Object) Operation(name string) *Operation {
	for _, op := range o.Operations {
		if op.Name == name {
			return op
		}
	}
	return nil
}

type Interface struct {
	*Reference
	Description  string
	Fields       []*Field
	Implementors []*Reference
}

type Input struct {
	*Reference
	Description string
	Fields      []*Field
}

type EnumValue struct {
	Name        string
	Description string
	Value       any
}

type Enum struct {
	*Reference
	Description string
	Values      []EnumValue
}
