package graph

import (
	"strings"
)

// Schema is the assembled type graph. It is built once and only read
// afterwards.
type Schema struct {
	Queries    []*Operation
	Mutations  []*Operation
	Objects    []*Object
	Interfaces []*Interface
	Unions     []*Union
	Inputs     []*Input
	Enums      []*Enum
	Scalars    []*Reference
}

func (s *Schema) HasOperations() bool {
	return len(s.Queries) > 0 || len(s.Mutations) > 0
}

func (s *Schema) Object(name string) *Object {
	for _, o := range s.Objects {
		if o.Name() == name {
			return o
		}
	}
	return nil
}

func (s *Schema) Interface(name string) *Interface {
	for _, i := range s.Interfaces {
		if i.Name() == name {
			return i
		}
	}
	return nil
}

func (s *Schema) Union(name string) *Union {
	for _, u := range s.Unions {
		if u.Name() == name {
			return u
		}
	}
	return nil
}

func (s *Schema) Input(name string) *Input {
	for _, i := range s.Inputs {
		if i.Name() == name {
			return i
		}
	}
	return nil
}

func (s *Schema) Enum(name string) *Enum {
	for _, e := range s.Enums {
		if e.Name() == name {
			return e
		}
	}
	return nil
}

// BatchOperations returns every source operation resolved in batches.
func (s *Schema) BatchOperations() []*Operation {
	var out []*Operation
	for _, o := range s.Objects {
		for _, op := range o.Operations {
			if op.Batch {
				out = append(out, op)
			}
		}
	}
	return out
}

// Signature renders a stable textual summary of the graph, one line per
// node, used to derive an identity for the schema.
func (s *Schema) Signature() string {
	var b strings.Builder
	ops := func(kind string, list []*Operation) {
		for _, op := range list {
			b.WriteString(kind + " " + op.Name + ":" + op.GraphReference().Name() + "\n")
		}
	}
	fields := func(list []*Field) {
		for i, f := range list {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(f.Name + ":" + f.GraphReference().Name())
		}
	}
	ops("query", s.Queries)
	ops("mutation", s.Mutations)
	for _, o := range s.Objects {
		b.WriteString("type " + o.Name() + " ")
		fields(o.Fields)
		for _, op := range o.Operations {
			b.WriteString("," + op.Name + ":" + op.GraphReference().Name())
		}
		b.WriteByte('\n')
	}
	for _, i := range s.Interfaces {
		b.WriteString("interface " + i.Name() + " ")
		fields(i.Fields)
		b.WriteByte('\n')
	}
	for _, u := range s.Unions {
		b.WriteString("union " + u.Name())
		for _, m := range u.Members() {
			b.WriteString(" " + m.Name())
		}
		b.WriteByte('\n')
	}
	for _, in := range s.Inputs {
		b.WriteString("input " + in.Name() + " ")
		fields(in.Fields)
		b.WriteByte('\n')
	}
	for _, e := range s.Enums {
		b.WriteString("enum " + e.Name())
		for _, v := range e.Values {
			b.WriteString(" " + v.Name)
		}
		b.WriteByte('\n')
	}
	return b.String()
}
