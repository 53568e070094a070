package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"mobile-gateway/pkg/platform/sentinel"
)

// Local stores artifacts under a root directory on disk.
type Local struct {
	root          string
	publicBaseURL string
}

// NewLocal builds a store rooted at root. publicBaseURL prefixes the
// rendered URLs; when empty, URL renders a root-relative path.
func NewLocal(root, publicBaseURL string) *Local {
	return &Local{
		root:          filepath.Clean(root),
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
	}
}

// abs resolves a stored path under the root, refusing escapes.
func (l *Local) abs(path string) (string, error) {
	full := filepath.Join(l.root, filepath.FromSlash(path))
	if full != l.root && !strings.HasPrefix(full, l.root+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes storage root", path)
	}
	return full, nil
}

func (l *Local) Save(_ context.Context, path string, r io.Reader) error {
	full, err := l.abs(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("create artifact directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("create temp artifact: %w", err)
	}
	if _, err := io.Copy(tmp, r); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close artifact: %w", err)
	}
	// Rename so readers never observe a half-written artifact.
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("commit artifact: %w", err)
	}
	return nil
}

func (l *Local) Open(_ context.Context, path string) (io.ReadCloser, error) {
	full, err := l.abs(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("open artifact: %w", err)
	}
	return f, nil
}

func (l *Local) Stat(_ context.Context, path string) (FileInfo, error) {
	full, err := l.abs(path)
	if err != nil {
		return FileInfo{}, err
	}
	info, err := os.Stat(full)
	if errors.Is(err, fs.ErrNotExist) {
		return FileInfo{}, sentinel.ErrNotFound
	}
	if err != nil {
		return FileInfo{}, fmt.Errorf("stat artifact: %w", err)
	}
	return FileInfo{Size: info.Size(), ModTime: info.ModTime()}, nil
}

func (l *Local) List(_ context.Context, dir string) ([]string, error) {
	full, err := l.abs(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(full)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

func (l *Local) Delete(_ context.Context, path string) error {
	full, err := l.abs(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete artifact: %w", err)
	}
	return nil
}

func (l *Local) URL(path string) string {
	return l.publicBaseURL + "/" + strings.TrimLeft(path, "/")
}
