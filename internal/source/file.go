package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSource reads a document from the local filesystem.
type FileSource struct {
	path string
}

// NewFile creates a source for a local path.
func NewFile(path string) *FileSource {
	return &FileSource{path: filepath.Clean(path)}
}

func (s *FileSource) Location() string { return s.path }

func (s *FileSource) Type() string { return TypeFile }

// Path returns the cleaned filesystem path, for watching.
func (s *FileSource) Path() string { return s.path }

func (s *FileSource) Fetch(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := os.Stat(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("read %s: %w", s.path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", s.path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("read %s: is a directory", s.path)
	}
	if info.Size() > maxDocumentSize {
		return nil, fmt.Errorf("read %s: document exceeds %d bytes", s.path, maxDocumentSize)
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	return data, nil
}
