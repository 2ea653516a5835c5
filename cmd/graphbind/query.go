package main

import (
	"fmt"

	"github.com/ohler55/ojg/gen"
	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cobra"
)

func newQueryCmd(configPath *string) *cobra.Command {
	var variables, operation, selector string
	cmd := &cobra.Command{
		Use:   "query <document>",
		Short: "Execute one GraphQL request and print the response as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			payload := gen.Object{"query": gen.String(args[0])}
			if operation != "" {
				payload["operationName"] = gen.String(operation)
			}
			if variables != "" {
				var p gen.Parser
				vars, err := p.Parse([]byte(variables))
				if err != nil {
					return fmt.Errorf("--variables: %w", err)
				}
				if _, ok := vars.(gen.Object); !ok {
					return fmt.Errorf("--variables must be a JSON object")
				}
				payload["variables"] = vars
			}
			var expr jp.Expr
			if selector != "" {
				var err error
				if expr, err = jp.ParseString(selector); err != nil {
					return fmt.Errorf("--select: %w", err)
				}
			}

			a, err := newApp(*configPath)
			if err != nil {
				return err
			}
			defer func() { _ = a.log.Sync() }()

			res, err := a.service.Execute(cmd.Context(), payload)
			if err != nil {
				return err
			}
			var out gen.Node = res
			if expr != nil {
				sel := gen.Array{}
				for _, v := range expr.Get(res) {
					n, _ := v.(gen.Node)
					sel = append(sel, n)
				}
				out = sel
			}
			fmt.Fprintln(cmd.OutOrStdout(), oj.JSON(out, &oj.Options{Sort: true, Indent: 2}))
			return nil
		},
	}
	cmd.Flags().StringVar(&variables, "variables", "", "variables as a JSON object")
	cmd.Flags().StringVar(&operation, "operation", "", "operation to run when the document has several")
	cmd.Flags().StringVar(&selector, "select", "", "JSONPath applied to the response, e.g. $.data.heroes[*].name")
	return cmd
}
