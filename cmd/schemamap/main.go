// Package main is the schemamap command: it checks mapping files,
// transforms records with them and compiles them into Go source.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"schemamap/internal/config"
	"schemamap/internal/logging"
	"schemamap/transformer"
)

// Set by the linker.
var (
	version = "dev"
	commit  = "none"
)

// app carries what every command shares once flags are parsed.
type app struct {
	configPath string
	config     *config.Config
	log        *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{log: zap.NewNop()}

	rootCmd := &cobra.Command{
		Use:           "schemamap",
		Short:         "Declarative record transformation",
		Long:          `schemamap reshapes JSON and YAML records as described by a .smap mapping file.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.log.Sync()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default is ./schemamap.yaml or $HOME/.config/schemamap/schemamap.yaml)")
	flags.String("log.level", config.DefaultLogLevel, "logging level")
	flags.String("log.path", config.DefaultLogPath, "path to send logs (values: stderr, stdout, path in file system)")
	flags.String("log.filemode", config.DefaultFileMode, "log file write mode (values: append, truncate, rotate)")
	flags.Bool("log.devmode", false, "human readable logs")

	rootCmd.AddCommand(
		transformCmd(a),
		compileCmd(a),
		checkCmd(a),
		planCmd(a),
		verifyCmd(a),
		tokensCmd(),
		astCmd(),
		builtinsCmd(),
		watchCmd(a),
		versionCmd(),
	)

	return rootCmd
}

// configFlags are the flags that override config keys of the same name.
var configFlags = map[string]string{
	"log.level":         "log.level",
	"log.path":          "log.path",
	"log.filemode":      "log.filemode",
	"log.devmode":       "log.devmode",
	"transform.backend": "backend",
	"transform.workers": "workers",
	"output.format":     "format",
	"output.pretty":     "pretty",
}

func (a *app) setup(cmd *cobra.Command) error {
	bound := make(map[string]*pflag.Flag)

	for key, name := range configFlags {
		if f := cmd.Flags().Lookup(name); f != nil {
			bound[key] = f
		}
	}

	cfg, err := config.Load(a.configPath, bound)
	if err != nil {
		return err
	}

	log, err := logging.New(cfg.Logging())
	if err != nil {
		return err
	}

	a.config, a.log = cfg, log

	return nil
}

// backend is the configured transformer backend.
func (a *app) backend() transformer.Backend {
	if a.config.Compiled() {
		return transformer.Compile
	}

	return transformer.Interpret
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "schemamap %s (commit: %s)\n", version, commit)
		},
	}
}
