// Package codefile implements the CodeSource port over a local text file.
package codefile

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/noisebridge/baron/internal/domain/model"
	"github.com/noisebridge/baron/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.CodeSource = (*Source)(nil)

// Source reads access codes from a file on disk. Its signature is the file's
// modification time and size, so editing the file in place triggers a reload.
type Source struct {
	path string
}

// NewSource creates a Source for path. The file does not need to exist yet.
func NewSource(path string) *Source {
	return &Source{path: path}
}

// Name returns the file path.
func (s *Source) Name() string { return s.path }

// Signature returns "<mtime ns>-<size>" for the file.
func (s *Source) Signature(_ context.Context) (string, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w: %w", s.path, model.ErrSourceUnavailable, err)
	}
	return strconv.FormatInt(info.ModTime().UnixNano(), 10) + "-" + strconv.FormatInt(info.Size(), 10), nil
}

// Open opens the file for reading.
func (s *Source) Open(_ context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w: %w", s.path, model.ErrSourceUnavailable, err)
	}
	return f, nil
}
