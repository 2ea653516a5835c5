package main

import (
	"fmt"
	"sort"

	"github.com/ohler55/ojg/gen"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"

	"github.com/hanpama/graphbind/internal/graph"
)

func newTypesCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "types",
		Short: "List the types of the graph as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.log.Sync() }()
			fmt.Fprintln(cmd.OutOrStdout(), oj.JSON(describeGraph(a.graph), &oj.Options{Sort: true, Indent: 2}))
			return nil
		},
	}
}

// describeGraph lists the graph's types sorted by name. Root operations are
// listed as the Query and Mutation types.
func describeGraph(g *graph.Schema) gen.Array {
	var out gen.Array
	add := func(name, kind string, extra gen.Object) {
		t := gen.Object{"name": gen.String(name), "kind": gen.String(kind)}
		for k, v := range extra {
			t[k] = v
		}
		out = append(out, t)
	}

	if len(g.Queries) > 0 {
		add("Query", "OBJECT", gen.Object{"fields": operationNames(g.Queries)})
	}
	if len(g.Mutations) > 0 {
		add("Mutation", "OBJECT", gen.Object{"fields": operationNames(g.Mutations)})
	}
	for _, o := range g.Objects {
		fields := fieldNames(o.Fields)
		fields = append(fields, operationNames(o.Operations)...)
		add(o.Name(), "OBJECT", gen.Object{"fields": fields, "interfaces": refNames(o.Interfaces)})
	}
	for _, i := range g.Interfaces {
		add(i.Name(), "INTERFACE", gen.Object{"fields": fieldNames(i.Fields), "implementors": refNames(i.Implementors)})
	}
	for _, u := range g.Unions {
		add(u.Name(), "UNION", gen.Object{"members": refNames(u.Members())})
	}
	for _, in := range g.Inputs {
		add(in.Name(), "INPUT_OBJECT", gen.Object{"fields": fieldNames(in.Fields)})
	}
	for _, e := range g.Enums {
		values := make(gen.Array, len(e.Values))
		for i, v := range e.Values {
			values[i] = gen.String(v.Name)
		}
		add(e.Name(), "ENUM", gen.Object{"values": values})
	}
	for _, s := range g.Scalars {
		add(s.Name(), "SCALAR", nil)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].(gen.Object)["name"].(gen.String) < out[j].(gen.Object)["name"].(gen.String)
	})
	return out
}

func fieldNames(fields []*graph.Field) gen.Array {
	out := make(gen.Array, len(fields))
	for i, f := range fields {
		out[i] = gen.String(f.Name)
	}
	return out
}

func operationNames(ops []*graph.Operation) gen.Array {
	out := make(gen.Array, len(ops))
	for i, op := range ops {
		out[i] = gen.String(op.Name)
	}
	return out
}

func refNames(refs []*graph.Reference) gen.Array {
	out := make(gen.Array, len(refs))
	for i, r := range refs {
		out[i] = gen.String(r.Name())
	}
	return out
}
