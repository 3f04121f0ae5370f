package gateway

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// FileStore confines control-surface file operations to a single base
// directory. Relative paths are resolved beneath the base; anything that
// would escape it is rejected before touching the filesystem.
type FileStore struct {
	base string
}

// NewFileStore creates a store rooted at base.
func NewFileStore(base string) *FileStore {
	return &FileStore{base: base}
}

// resolve maps a request path to an absolute path inside the base dir.
func (fs *FileStore) resolve(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("path is required")
	}
	if filepath.IsAbs(name) {
		return "", fmt.Errorf("absolute paths are not allowed: %s", name)
	}

	full := filepath.Join(fs.base, filepath.FromSlash(name))

	rel, err := filepath.Rel(fs.base, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path escapes the data directory: %s", name)
	}
	return full, nil
}

// Read returns the contents of a file beneath the base dir.
func (fs *FileStore) Read(name string) ([]byte, error) {
	full, err := fs.resolve(name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(full)
}

// Write stores contents beneath the base dir, creating parent directories
// as needed.
func (fs *FileStore) Write(name string, data []byte) error {
	full, err := fs.resolve(name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create parent dir: %w", err)
	}
	return os.WriteFile(full, data, 0o644)
}
