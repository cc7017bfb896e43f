package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"tailor-form/internal/tailor"
)

// DirPublisher writes tailored documents into a directory
type DirPublisher struct {
	dir string
}

func NewDirPublisher(dir string) *DirPublisher {
	return &DirPublisher{dir: dir}
}

// Publish writes data under the base of name and returns the file path.
// Directory parts in name are dropped so a server-supplied filename cannot
// escape the output directory.
func (p *DirPublisher) Publish(ctx context.Context, name, contentType string, data []byte) (string, error) {
	base := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(name, `\`, "/")))
	if base == "/" || base == "." || base == ".." {
		base = tailor.DefaultFilename
	}

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(p.dir, base)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
