package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"schemamap/internal/metrics"
	"schemamap/internal/recordio"
)

// settle is how long watch waits after an event before re-running, so an
// editor's write-rename sequence triggers one run.
const settle = 100 * time.Millisecond

func watchCmd(a *app) *cobra.Command {
	var (
		f           transformFlags
		metricsAddr string
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Re-run a transform whenever the mapping or the input changes",
		Long: `Watch runs transform once, then again each time the mapping file or the
input file is written. Failures are logged and watching continues.

Examples:
  schemamap watch -m orders.smap -i orders.json -o out.json
  schemamap watch -m orders.smap -i orders.json -o out.json --metrics-addr :9090`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if f.input == recordio.Stdio {
				return errors.New("watch needs an input file")
			}

			format := a.config.Output.Format
			if !cmd.Flags().Changed("format") && f.output != recordio.Stdio {
				format = string(recordio.DetectFormat(f.output))
			}

			return a.runWatch(cmd, f, format, metricsAddr)
		},
	}

	cmd.Flags().StringVarP(&f.mapping, "mapping", "m", "", "mapping file")
	cmd.Flags().StringVarP(&f.input, "input", "i", "", "input file")
	cmd.Flags().StringVarP(&f.output, "output", "o", recordio.Stdio, "output file, - for stdout")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	addTransformFlags(cmd)
	addOutputFlags(cmd)

	_ = cmd.MarkFlagRequired("mapping")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

func (a *app) runWatch(cmd *cobra.Command, f transformFlags, format, metricsAddr string) error {
	ctx := cmd.Context()

	var m *metrics.Metrics

	if metricsAddr != "" {
		reg := metrics.NewRegistry()
		m = metrics.New(reg)

		stop := serveMetrics(ctx, metricsAddr, metrics.Handler(reg), a.log)
		defer stop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	watched := map[string]bool{}

	for _, path := range []string{f.mapping, f.input} {
		abs, err := filepath.Abs(path)
		if err != nil {
			return err
		}

		watched[abs] = true

		// Directories survive editors that save by rename.
		if err := watcher.Add(filepath.Dir(abs)); err != nil {
			return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
		}
	}

	run := func() {
		if err := a.runTransform(cmd, f, format, m); err != nil {
			a.log.Error("transform failed", zap.Error(err))
			return
		}

		a.log.Info("transform done", zap.String("output", f.output))
	}

	run()

	timer := time.NewTimer(settle)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			abs, _ := filepath.Abs(event.Name)
			if !watched[abs] || event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			a.log.Debug("file changed", zap.String("file", event.Name), zap.Stringer("op", event.Op))
			timer.Reset(settle)
		case <-timer.C:
			run()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			a.log.Error("file watcher error", zap.Error(err))
		}
	}
}

// serveMetrics serves h on addr until the returned function is called.
func serveMetrics(ctx context.Context, addr string, h http.Handler, log *zap.Logger) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", h)

	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("serving metrics", zap.String("addr", addr))

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server", zap.Error(err))
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), time.Second)
		defer cancel()

		_ = srv.Shutdown(shutdownCtx)
	}
}
