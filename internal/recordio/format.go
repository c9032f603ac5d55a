// Package recordio reads and writes record streams: JSON (one document or
// an array of them), newline-delimited JSON and YAML, each optionally
// lz4-compressed.
package recordio

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a record encoding.
type Format string

// Formats.
const (
	JSON   Format = "json"
	NDJSON Format = "ndjson"
	YAML   Format = "yaml"
)

// compressedExt marks lz4 frame compression.
const compressedExt = ".lz4"

// ParseFormat accepts the names of the formats.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case JSON, NDJSON, YAML:
		return f, nil
	case "jsonl":
		return NDJSON, nil
	case "yml":
		return YAML, nil
	default:
		return "", fmt.Errorf("unknown record format %q", s)
	}
}

// DetectFormat guesses the format from the file extension, looking past a
// trailing .lz4. Unknown extensions are JSON.
func DetectFormat(path string) Format {
	ext := strings.ToLower(filepath.Ext(strings.TrimSuffix(path, compressedExt)))

	switch ext {
	case ".ndjson", ".jsonl":
		return NDJSON
	case ".yaml", ".yml":
		return YAML
	default:
		return JSON
	}
}

// Compressed reports whether path names an lz4 stream.
func Compressed(path string) bool {
	return strings.HasSuffix(path, compressedExt)
}
