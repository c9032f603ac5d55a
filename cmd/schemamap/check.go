package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"schemamap/internal/diagnostic"
	"schemamap/internal/parser"
	"schemamap/internal/plan"
)

var errCheckFailed = errors.New("check failed")

func checkCmd(a *app) *cobra.Command {
	var (
		strict, nocolor bool
		mappings        []string
	)

	cmd := &cobra.Command{
		Use:   "check [-m file.smap]... [file.smap]...",
		Short: "Parse and resolve mapping files and report diagnostics",
		Long: `Check parses and resolves each mapping file, loading its lookup tables and
plugin functions, and prints every diagnostic found.

Examples:
  schemamap check -m orders.smap
  schemamap check --strict mappings/*.smap`,
		RunE: func(cmd *cobra.Command, args []string) error {
			paths := append(mappings, args...)
			if len(paths) == 0 {
				return errors.New("no mapping files given")
			}

			if nocolor {
				color.NoColor = true //nolint:reassign // intentional override of library global
			}

			return a.runCheck(cmd.OutOrStdout(), paths, strict)
		},
	}

	cmd.Flags().StringArrayVarP(&mappings, "mapping", "m", nil, "mapping file (repeatable)")
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	cmd.Flags().BoolVar(&nocolor, "no-color", false, "disable colored output")

	return cmd
}

func (a *app) runCheck(w io.Writer, paths []string, strict bool) error {
	failed := 0

	for _, path := range paths {
		if !checkFile(w, path, strict) {
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d mapping files: %w", failed, len(paths), errCheckFailed)
	}

	return nil
}

func checkFile(w io.Writer, path string, strict bool) bool {
	file, err := parser.ParseFile(path)
	if err != nil {
		color.New(color.FgRed).Fprintf(w, "%s: %v\n", path, err)
		return false
	}

	config := plan.DefaultConfig()
	config.StrictMode = strict

	p, err := plan.Resolve(file, config)
	if p == nil {
		color.New(color.FgRed).Fprintf(w, "%s: %v\n", path, err)
		return false
	}

	for _, d := range p.Diagnostics.All() {
		printDiagnostic(w, path, d)
	}

	if err != nil {
		color.New(color.FgRed).Fprintf(w, "%s: %v\n", path, err)
		return false
	}

	color.New(color.FgGreen).Fprintf(w, "%s: ok (%s)\n", path, p.Name)

	return true
}

func printDiagnostic(w io.Writer, path string, d diagnostic.Diagnostic) {
	c := color.New(color.FgCyan)

	switch d.Severity {
	case diagnostic.SeverityError:
		c = color.New(color.FgRed)
	case diagnostic.SeverityWarning:
		c = color.New(color.FgYellow)
	case diagnostic.SeverityInfo:
	}

	c.Fprintf(w, "%s: %s: ", path, d.Severity)
	fmt.Fprintln(w, d.String())
}
