package gen

import (
	"os"
	"path/filepath"
	"strings"
)

// writeDebugUnformatted writes source that gofmt rejected to a sidecar
// next to the intended output. It is best effort.
func writeDebugUnformatted(outDir, filename string, content []byte) error {
	if outDir == "" || filename == "" {
		return nil
	}

	if err := os.MkdirAll(outDir, dirPerm); err != nil {
		return err
	}

	return os.WriteFile(debugPath(outDir, filename), content, filePerm)
}

// debugPath keeps the .go suffix so editors still highlight the sidecar.
func debugPath(outDir, filename string) string {
	return filepath.Join(outDir, strings.TrimSuffix(filename, ".go")+".unformatted.go")
}
