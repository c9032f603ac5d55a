package main

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"schemamap/internal/builtin"
)

func builtinsCmd() *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "builtins",
		Short: "List the builtin transforms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tbl := table.NewWriter()
			tbl.SetOutputMirror(cmd.OutOrStdout())
			tbl.SetStyle(table.StyleLight)
			tbl.AppendHeader(table.Row{"Name", "Category", "Signature", "Whole arrays"})

			n := 0

			for _, k := range builtin.All() {
				if category != "" && !strings.EqualFold(string(k.Category()), category) {
					continue
				}

				whole := ""
				if k.ArrayAware() {
					whole = "yes"
				}

				tbl.AppendRow(table.Row{k.String(), k.Category(), k.Signature(), whole})
				n++
			}

			tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d", n)})
			tbl.Render()

			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "only list builtins of this category")

	return cmd
}
