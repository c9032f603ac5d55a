package recordio

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"

	"schemamap/value"
)

// Stdio is the path naming standard input or output.
const Stdio = "-"

// Open opens path for reading, decompressing .lz4 files. Stdio reads
// standard input.
func Open(path string) (io.ReadCloser, error) {
	if path == Stdio || path == "" {
		return io.NopCloser(os.Stdin), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	if !Compressed(path) {
		return f, nil
	}

	return readCloser{Reader: lz4.NewReader(f), Closer: f}, nil
}

type readCloser struct {
	io.Reader
	io.Closer
}

// Decode reads every record of r. single is set when the input was one
// JSON or YAML document that is not a list; a top-level list is unpacked
// into its elements.
func Decode(r io.Reader, f Format) (records []value.Value, single bool, err error) {
	switch f {
	case YAML:
		records, err = decodeYAML(r)
	default:
		records, err = decodeJSON(r)
	}

	if err != nil {
		return nil, false, err
	}

	if f == NDJSON || len(records) != 1 {
		return records, false, nil
	}

	if seq, ok := records[0].AsSeq(); ok {
		return seq.Elems(), false, nil
	}

	return records, true, nil
}

// ReadFile opens path and decodes it in the format its extension names.
func ReadFile(path string) ([]value.Value, bool, error) {
	rc, err := Open(path)
	if err != nil {
		return nil, false, err
	}
	defer rc.Close()

	records, single, err := Decode(rc, DetectFormat(path))
	if err != nil {
		return nil, false, fmt.Errorf("reading %s: %w", path, err)
	}

	return records, single, nil
}

func decodeJSON(r io.Reader) ([]value.Value, error) {
	dec := value.NewJSONDecoder(r)

	var records []value.Value

	for dec.More() {
		v, err := dec.Decode()
		if errors.Is(err, io.EOF) {
			err = io.ErrUnexpectedEOF
		}

		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(records), err)
		}

		records = append(records, v)
	}

	return records, nil
}

func decodeYAML(r io.Reader) ([]value.Value, error) {
	dec := yaml.NewDecoder(r)

	var records []value.Value

	for {
		var node yaml.Node

		err := dec.Decode(&node)
		if errors.Is(err, io.EOF) {
			return records, nil
		}

		if err != nil {
			return nil, fmt.Errorf("document %d: %w", len(records), err)
		}

		v, err := value.FromYAMLNode(&node)
		if err != nil {
			return nil, fmt.Errorf("document %d: %w", len(records), err)
		}

		records = append(records, v)
	}
}
