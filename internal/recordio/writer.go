package recordio

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"

	"schemamap/value"
)

// Create opens path for writing, compressing .lz4 files. Stdio writes to
// standard output. Close flushes the compressor before the file.
func Create(path string) (io.WriteCloser, error) {
	if path == Stdio || path == "" {
		return nopWriteCloser{os.Stdout}, nil
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	if !Compressed(path) {
		return f, nil
	}

	return &lz4File{Writer: lz4.NewWriter(f), file: f}, nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

type lz4File struct {
	*lz4.Writer
	file *os.File
}

func (w *lz4File) Close() error {
	if err := w.Writer.Close(); err != nil {
		_ = w.file.Close()
		return err
	}

	return w.file.Close()
}

// Encoder writes records in one format.
type Encoder struct {
	Format Format
	// Pretty indents JSON output.
	Pretty bool
}

// Encode writes records to w. JSON output is one document when single is
// set and a list otherwise; NDJSON writes one record per line and YAML one
// document per record.
func (e Encoder) Encode(w io.Writer, records []value.Value, single bool) error {
	bw := bufio.NewWriter(w)

	var err error

	switch e.Format {
	case NDJSON:
		for _, r := range records {
			if _, err = bw.Write(append(value.AppendJSON(nil, r), '\n')); err != nil {
				break
			}
		}
	case YAML:
		err = encodeYAML(bw, records)
	default:
		doc := value.SeqOf(records...)
		if single && len(records) == 1 {
			doc = records[0]
		}

		err = e.writeJSON(bw, doc)
	}

	if err != nil {
		return fmt.Errorf("writing %s: %w", e.Format, err)
	}

	return bw.Flush()
}

func (e Encoder) writeJSON(w io.Writer, v value.Value) error {
	var b []byte
	if e.Pretty {
		b = value.IndentJSON(v)
	} else {
		b = value.AppendJSON(nil, v)
	}

	_, err := w.Write(append(b, '\n'))

	return err
}

func encodeYAML(w io.Writer, records []value.Value) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			return err
		}
	}

	return enc.Close()
}
