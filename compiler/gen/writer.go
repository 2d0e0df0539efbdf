package gen

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/tools/imports"
)

// writeSource formats src with goimports (resolving the imports any
// raw source trailer brought in) and writes it to path. On a
// formatting failure the raw source is kept next to the target for
// inspection.
func writeSource(path string, src []byte) error {
	formatted, err := imports.Process(path, src, nil)
	if err != nil {
		debugPath := path + ".error"
		_ = os.MkdirAll(filepath.Dir(debugPath), 0o755)
		_ = os.WriteFile(debugPath, src, 0o644)
		return fmt.Errorf("mosaic: format %s: %w (unformatted written to %s)", path, err, debugPath)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mosaic: create directory for %s: %w", path, err)
	}
	if err := os.WriteFile(path, formatted, 0o644); err != nil {
		return fmt.Errorf("mosaic: write %s: %w", path, err)
	}
	return nil
}

// ShouldRegenerate reports whether the artifact at path is missing or
// older than the newest plugin modification time. The check is purely
// timestamp-based; it never inspects content.
func ShouldRegenerate(path string, latest time.Time) bool {
	info, err := os.Stat(path)
	if err != nil {
		return true
	}
	return info.ModTime().Before(latest)
}
