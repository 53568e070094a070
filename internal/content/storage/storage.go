// Package storage abstracts where packaged content artifacts live. The
// packagers write through this boundary so tests run against a temp dir and
// production can point anywhere a filesystem mounts.
package storage

import (
	"context"
	"io"
	"time"
)

// FileInfo describes one stored artifact.
type FileInfo struct {
	Size    int64
	ModTime time.Time
}

// Storage is the artifact store boundary.
type Storage interface {
	// Save writes the content under path, replacing any existing file.
	Save(ctx context.Context, path string, r io.Reader) error

	// Open streams a stored artifact. sentinel.ErrNotFound when absent.
	Open(ctx context.Context, path string) (io.ReadCloser, error)

	// Stat returns size and modification time. sentinel.ErrNotFound when
	// absent.
	Stat(ctx context.Context, path string) (FileInfo, error)

	// List returns the file names directly under dir, no recursion.
	List(ctx context.Context, dir string) ([]string, error)

	// Delete removes one artifact; deleting an absent path is not an
	// error.
	Delete(ctx context.Context, path string) error

	// URL renders the public URL for a stored path.
	URL(path string) string
}
