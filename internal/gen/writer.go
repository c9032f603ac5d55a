package gen

import (
	"fmt"
	"os"
	"path/filepath"
)

// File permission constants.
const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// WriteFiles writes the generated files into outputDir, creating it when
// needed. A debug sidecar left by an earlier failed run is removed once
// its file is written formatted.
func WriteFiles(files []GeneratedFile, outputDir string) error {
	if err := os.MkdirAll(outputDir, dirPerm); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	for _, file := range files {
		outputPath := filepath.Join(outputDir, file.Filename)

		if err := os.WriteFile(outputPath, file.Content, filePerm); err != nil {
			return fmt.Errorf("writing file %s: %w", file.Filename, err)
		}

		if err := os.Remove(debugPath(outputDir, file.Filename)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing stale debug output for %s: %w", file.Filename, err)
		}
	}

	return nil
}
