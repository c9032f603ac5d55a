package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"schemamap/internal/gen"
)

func compileCmd(a *app) *cobra.Command {
	config := gen.DefaultGeneratorConfig()

	var (
		mappingPath string
		noComments  bool
	)

	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Generate Go source for a mapping file",
		Long: `Compile lowers a mapping file into a standalone Go transformer type plus the
runtime files it needs. The generated package imports nothing from schemamap.

Examples:
  schemamap compile -m orders.smap -o ./orders --package orders
  schemamap compile -m orders.smap --type OrderExport`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			config.GenerateComments = !noComments

			return a.runCompile(cmd, mappingPath, config)
		},
	}

	cmd.Flags().StringVarP(&mappingPath, "mapping", "m", "", "mapping file")
	cmd.Flags().StringVarP(&config.OutputDir, "output", "o", config.OutputDir, "output directory")
	cmd.Flags().StringVar(&config.PackageName, "package", config.PackageName, "generated package name")
	cmd.Flags().StringVar(&config.TypeName, "type", "", "generated type name (default derived from the mapping name)")
	cmd.Flags().BoolVar(&noComments, "no-comments", false, "omit the mapping line comments")

	_ = cmd.MarkFlagRequired("mapping")

	return cmd
}

func (a *app) runCompile(cmd *cobra.Command, mappingPath string, config gen.GeneratorConfig) error {
	tr, err := a.load(mappingPath)
	if err != nil {
		return err
	}

	files, err := gen.Generate(tr.Plan(), config)
	if err != nil {
		return err
	}

	if err := gen.WriteFiles(files, config.OutputDir); err != nil {
		return err
	}

	for _, f := range files {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s/%s\n", config.OutputDir, f.Filename)
	}

	return nil
}
