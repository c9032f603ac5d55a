package main

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"schemamap/internal/lexer"
	"schemamap/internal/parser"
	"schemamap/internal/plan"
)

func tokensCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "tokens <file.smap>",
		Short:  "Print the tokens of a mapping file",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}

			toks, err := lexer.Tokenize(string(src))
			if err != nil {
				return err
			}

			for _, t := range toks {
				fmt.Fprintf(cmd.OutOrStdout(), "%-8s %-12s %q\n", t.Pos(), t.Kind, t.Text)
			}

			return nil
		},
	}
}

var dumper = spew.ConfigState{
	Indent:                  "  ",
	DisablePointerAddresses: true,
	DisableCapacities:       true,
	DisableMethods:          true,
	SortKeys:                true,
}

func astCmd() *cobra.Command {
	var resolved bool

	cmd := &cobra.Command{
		Use:    "ast <file.smap>",
		Short:  "Dump the syntax tree or the resolved rules of a mapping file",
		Hidden: true,
		Args:   cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, err := parser.ParseFile(args[0])
			if err != nil {
				return err
			}

			if !resolved {
				dumper.Fdump(cmd.OutOrStdout(), file.Body)
				return nil
			}

			p, err := plan.Resolve(file, plan.DefaultConfig())
			if p == nil {
				return err
			}

			dumper.Fdump(cmd.OutOrStdout(), p.Rules)

			return err
		},
	}

	cmd.Flags().BoolVar(&resolved, "resolved", false, "dump the rules after resolution")

	return cmd
}

func planCmd(a *app) *cobra.Command {
	var mappingPath string

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the resolved plan of a mapping file as YAML",
		Long: `Plan prints how every mapping was resolved: the strategy chosen for it,
how each transform step was bound and the diagnostics found.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tr, err := a.load(mappingPath)
			if err != nil {
				return err
			}

			out, err := plan.ExportYAML(tr.Plan())
			if err != nil {
				return err
			}

			_, err = cmd.OutOrStdout().Write(out)

			return err
		},
	}

	cmd.Flags().StringVarP(&mappingPath, "mapping", "m", "", "mapping file")

	_ = cmd.MarkFlagRequired("mapping")

	return cmd
}
