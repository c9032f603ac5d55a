package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"schemamap/internal/metrics"
	"schemamap/internal/recordio"
	"schemamap/transformer"
	"schemamap/value"
)

type transformFlags struct {
	mapping string
	input   string
	output  string
	summary bool
}

func transformCmd(a *app) *cobra.Command {
	var f transformFlags

	cmd := &cobra.Command{
		Use:   "transform",
		Short: "Transform records with a mapping file",
		Long: `Transform reads records from a JSON document or array, newline-delimited
JSON or YAML documents, optionally lz4-compressed, and writes the results.

Examples:
  schemamap transform -m orders.smap -i orders.json
  schemamap transform -m orders.smap -i orders.ndjson.lz4 -o out.yaml
  cat orders.json | schemamap transform -m orders.smap --backend compile --workers 8`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format := a.config.Output.Format
			if !cmd.Flags().Changed("format") && f.output != recordio.Stdio {
				format = string(recordio.DetectFormat(f.output))
			}

			return a.runTransform(cmd, f, format, nil)
		},
	}

	cmd.Flags().StringVarP(&f.mapping, "mapping", "m", "", "mapping file")
	cmd.Flags().StringVarP(&f.input, "input", "i", recordio.Stdio, "input file, - for stdin")
	cmd.Flags().StringVarP(&f.output, "output", "o", recordio.Stdio, "output file, - for stdout")
	cmd.Flags().BoolVar(&f.summary, "summary", false, "print a summary to stderr")
	addTransformFlags(cmd)
	addOutputFlags(cmd)

	_ = cmd.MarkFlagRequired("mapping")

	return cmd
}

func addTransformFlags(cmd *cobra.Command) {
	cmd.Flags().String("backend", "interpret", "execution backend (interpret, compile)")
	cmd.Flags().Int("workers", 1, "transform records on this many goroutines")
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().String("format", "json", "output format (json, ndjson, yaml)")
	cmd.Flags().Bool("pretty", false, "indent JSON output")
}

// load builds the transformer for path with the configured backend.
func (a *app) load(path string, opts ...transformer.Option) (*transformer.Transformer, error) {
	opts = append([]transformer.Option{
		transformer.WithBackend(a.backend()),
		transformer.WithLogger(a.log),
	}, opts...)

	return transformer.FromFile(path, opts...)
}

// runTransform runs one transform pass. m may be nil.
func (a *app) runTransform(cmd *cobra.Command, f transformFlags, format string, m *metrics.Metrics) error {
	enc, err := encoder(format, a.config.Output.Pretty)
	if err != nil {
		return err
	}

	tr, err := a.load(f.mapping, transformer.WithMetrics(m))
	if err != nil {
		return err
	}

	records, single, err := readInput(cmd.InOrStdin(), f.input)
	if err != nil {
		return err
	}

	start := time.Now()

	out, err := tr.TransformBatchParallel(cmd.Context(), records, a.config.Transform.Workers)
	if err != nil {
		return err
	}

	elapsed := time.Since(start)

	w, err := createOutput(cmd.OutOrStdout(), f.output)
	if err != nil {
		return err
	}

	cw := &countingWriter{w: w}
	if err := enc.Encode(cw, out, single); err != nil {
		_ = w.Close()
		return err
	}

	if err := w.Close(); err != nil {
		return err
	}

	a.log.Debug("transformed",
		zap.String("mapping", f.mapping),
		zap.Int("records", len(out)),
		zap.Duration("elapsed", elapsed))

	if f.summary {
		fmt.Fprintf(cmd.ErrOrStderr(), "%s records transformed in %s (%s written, %s backend)\n",
			humanize.Comma(int64(len(out))), elapsed.Round(time.Microsecond), humanize.Bytes(cw.n), tr.Backend())
	}

	return nil
}

func encoder(format string, pretty bool) (recordio.Encoder, error) {
	f, err := recordio.ParseFormat(format)
	if err != nil {
		return recordio.Encoder{}, err
	}

	return recordio.Encoder{Format: f, Pretty: pretty}, nil
}

type countingWriter struct {
	w io.Writer
	n uint64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += uint64(n)

	return n, err
}

// readInput reads the records of path. Stdio is read from stdin as JSON or
// newline-delimited JSON.
func readInput(stdin io.Reader, path string) ([]value.Value, bool, error) {
	if path == recordio.Stdio {
		return recordio.Decode(stdin, recordio.JSON)
	}

	return recordio.ReadFile(path)
}

func createOutput(stdout io.Writer, path string) (io.WriteCloser, error) {
	if path == recordio.Stdio {
		return nopCloser{stdout}, nil
	}

	return recordio.Create(path)
}

type nopCloser struct {
	io.Writer
}

func (nopCloser) Close() error { return nil }
