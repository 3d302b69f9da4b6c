package specmatch

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileResolver resolves design references against a directory of design
// artifacts. A reference maps to <dir>/<reference>, with a small set of
// extensions tried when the reference has none.
type FileResolver struct {
	dir        string
	extensions []string
}

// NewFileResolver creates a resolver rooted at dir.
func NewFileResolver(dir string) *FileResolver {
	return &FileResolver{
		dir:        dir,
		extensions: []string{"", ".md", ".yaml", ".yml", ".json", ".txt"},
	}
}

// Resolve implements Resolver.
func (r *FileResolver) Resolve(_ context.Context, designReference string) (string, error) {
	ref := filepath.Clean(designReference)
	if strings.Contains(ref, "..") {
		return "", fmt.Errorf("design reference escapes the design directory: %s", designReference)
	}

	for _, ext := range r.extensions {
		path := filepath.Join(r.dir, ref+ext)
		data, err := os.ReadFile(path)
		if err == nil {
			return string(data), nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("read design %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("design reference not found: %s", designReference)
}

// Verify FileResolver implements Resolver at compile time.
var _ Resolver = (*FileResolver)(nil)
