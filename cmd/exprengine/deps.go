package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vk/exprengine/internal/engine"
	"github.com/vk/exprengine/internal/hcldoc"
)

func newDepsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "deps <document.hcl>",
		Short: "Print the dependency edges and evaluation order of each object's bindings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			doc, engines, err := hcldoc.Load(ctx, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, obj := range doc.Objects() {
				eng, ok := engines[obj.Name()]
				if !ok || eng.NumBindings() == 0 {
					continue
				}
				fmt.Fprintf(out, "object %s:\n", obj.Name())
				for _, edge := range eng.DependencyEdges() {
					fmt.Fprintf(out, "  %s -> %s\n", edge[0], edge[1])
				}
				order, err := eng.EvaluationOrder(engine.FilterAll)
				if err != nil {
					return fmt.Errorf("object %s: %w", obj.Name(), err)
				}
				fmt.Fprintf(out, "  order: %v\n", order)
			}
			return nil
		},
	}
}
