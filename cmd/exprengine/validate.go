package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vk/exprengine/internal/hcldoc"
)

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <document.hcl>",
		Short: "Install the bindings and report validation diagnostics without evaluating",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			doc, engines, err := hcldoc.Load(ctx, args[0])
			if err != nil {
				return err
			}

			total := 0
			for _, obj := range doc.Objects() {
				if eng, ok := engines[obj.Name()]; ok {
					total += eng.NumBindings()
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "ok: %d objects, %d bindings\n", len(doc.Objects()), total)
			return nil
		},
	}
}
