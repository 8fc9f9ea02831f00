package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zclconf/go-cty/cty"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/vk/exprengine/internal/engine"
	"github.com/vk/exprengine/internal/hcldoc"
)

func newRunCmd() *cobra.Command {
	outputFilter := int(engine.FilterAll)

	cmd := &cobra.Command{
		Use:   "run <document.hcl>",
		Short: "Install the bindings and evaluate them in dependency order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			doc, engines, err := hcldoc.Load(ctx, args[0])
			if err != nil {
				return err
			}

			for _, obj := range doc.Objects() {
				eng, ok := engines[obj.Name()]
				if !ok {
					continue
				}
				if err := eng.Execute(ctx, outputFilter); err != nil {
					return fmt.Errorf("object %s: %w", obj.Name(), err)
				}
			}

			out := cmd.OutOrStdout()
			for _, obj := range doc.Objects() {
				for _, prop := range obj.Properties() {
					fmt.Fprintf(out, "%s.%s = %s\n", obj.Name(), prop.Name(), renderValue(prop.Value()))
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&outputFilter, "output-filter", engine.FilterAll,
		"restrict evaluation: -1 all bindings, 0 non-output properties, 1 output properties")
	return cmd
}

// renderValue renders a property value for display.
func renderValue(v cty.Value) string {
	if v.IsNull() {
		return "null"
	}
	b, err := ctyjson.Marshal(v, v.Type())
	if err != nil {
		return v.GoString()
	}
	return string(b)
}
