package main

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/google/uuid"
	"github.com/sergi/go-diff/diffmatchpatch"
	"github.com/spf13/cobra"

	"schemamap/transformer"
	"schemamap/value"
)

var errMismatch = errors.New("backends disagree")

func verifyCmd(a *app) *cobra.Command {
	var mappingPath, input string

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that the interpreter and the compiled program agree",
		Long: `Verify transforms the input with both backends, using the same clock and
UUID for both, and prints a line diff of every record they disagree on.

Examples:
  schemamap verify -m orders.smap -i orders.json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runVerify(cmd, mappingPath, input)
		},
	}

	cmd.Flags().StringVarP(&mappingPath, "mapping", "m", "", "mapping file")
	cmd.Flags().StringVarP(&input, "input", "i", "-", "input file, - for stdin")

	_ = cmd.MarkFlagRequired("mapping")

	return cmd
}

func (a *app) runVerify(cmd *cobra.Command, mappingPath, input string) error {
	now, id := time.Now(), uuid.NewString()
	opts := []transformer.Option{
		transformer.WithClock(func() time.Time { return now }),
		transformer.WithUUIDs(func() string { return id }),
	}

	interp, err := a.load(mappingPath, append(opts, transformer.WithBackend(transformer.Interpret))...)
	if err != nil {
		return err
	}

	compiled, err := a.load(mappingPath, append(opts, transformer.WithBackend(transformer.Compile))...)
	if err != nil {
		return err
	}

	records, _, err := readInput(cmd.InOrStdin(), input)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	mismatches := 0

	for i, record := range records {
		want, wantErr := interp.Transform(record)
		got, gotErr := compiled.Transform(record)

		if sameResult(want, wantErr, got, gotErr) {
			continue
		}

		mismatches++

		fmt.Fprintf(w, "record %d:\n", i)
		printDiff(w, render(want, wantErr), render(got, gotErr))
	}

	if mismatches > 0 {
		return fmt.Errorf("%d of %d records: %w", mismatches, len(records), errMismatch)
	}

	color.New(color.FgGreen).Fprintf(w, "%d records: backends agree\n", len(records))

	return nil
}

func sameResult(a value.Value, aErr error, b value.Value, bErr error) bool {
	if aErr != nil || bErr != nil {
		return aErr != nil && bErr != nil && aErr.Error() == bErr.Error()
	}

	return value.Equal(a, b)
}

func render(v value.Value, err error) string {
	if err != nil {
		return "error: " + err.Error() + "\n"
	}

	return string(value.IndentJSON(v)) + "\n"
}

// printDiff writes a line diff of want and got, interpreter side first.
func printDiff(w io.Writer, want, got string) {
	dmp := diffmatchpatch.New()

	a, b, lines := dmp.DiffLinesToChars(want, got)
	diffs := dmp.DiffCharsToLines(dmp.DiffMain(a, b, false), lines)

	for _, d := range diffs {
		prefix, c := "  ", color.New(color.Reset)

		switch d.Type {
		case diffmatchpatch.DiffDelete:
			prefix, c = "- ", color.New(color.FgRed)
		case diffmatchpatch.DiffInsert:
			prefix, c = "+ ", color.New(color.FgGreen)
		case diffmatchpatch.DiffEqual:
		}

		for _, line := range strings.SplitAfter(d.Text, "\n") {
			if line != "" {
				c.Fprint(w, prefix+line)
			}
		}
	}
}
