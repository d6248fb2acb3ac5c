// Package fsx abstracts file storage behind a small port so domain code never
// touches a concrete filesystem or object store directly.
package fsx

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a path does not exist in the backing store.
var ErrNotFound = errors.New("fsx: file not found")

// FileInfo describes a stored file.
type FileInfo struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// FileReader is the read-only subset of FileSystem.
type FileReader interface {
	ReadFile(ctx context.Context, path string) ([]byte, error)
}

// FileSystem is the storage port. Paths are forward-slash separated and
// relative to the backend's root. WriteFile must be atomic: a concurrent
// reader sees either the previous content or the new content, never a
// partial write.
type FileSystem interface {
	FileReader

	// WriteFile creates or replaces the file at path.
	WriteFile(ctx context.Context, path string, data []byte) error

	// DeleteFile removes a single file. Deleting a missing file is not an error.
	DeleteFile(ctx context.Context, path string) error

	// DeletePrefix removes every file under the given prefix, best-effort.
	DeletePrefix(ctx context.Context, prefix string) error

	// List returns info for every file under the given prefix.
	List(ctx context.Context, prefix string) ([]FileInfo, error)

	// Exists reports whether a file exists at path.
	Exists(ctx context.Context, path string) (bool, error)
}
