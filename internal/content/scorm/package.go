// Package scorm stores uploaded SCORM packages and tracks the runtime
// values mobile players report back.
package scorm

import (
	"archive/zip"
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"log/slog"

	"mobile-gateway/internal/content/storage"
	"mobile-gateway/pkg/platform/sentinel"
)

// PackageMeta describes one stored SCORM package.
type PackageMeta struct {
	Name        string `json:"name"`
	SHA1        string `json:"sha1"`
	Size        int64  `json:"size"`
	LastUpdated string `json:"last_updated"`
	IndexPage   string `json:"index_page"`
}

// BlockLocation addresses the block a package belongs to.
type BlockLocation struct {
	Org       string
	Course    string
	BlockType string
	BlockID   string
}

// PackageStore persists SCORM zips and extracts them for serving.
type PackageStore struct {
	store storage.Storage
	// extractRoot is the directory packages are unpacked into, one
	// subdirectory per block.
	extractRoot string
	logger      *slog.Logger
}

// NewPackageStore builds a package store extracting under extractRoot.
func NewPackageStore(store storage.Storage, extractRoot string, logger *slog.Logger) *PackageStore {
	return &PackageStore{store: store, extractRoot: extractRoot, logger: logger}
}

// storagePath keys the stored zip by the package content hash so a
// re-upload of identical content lands on the same path.
func storagePath(loc BlockLocation, meta PackageMeta) string {
	ext := filepath.Ext(meta.Name)
	return fmt.Sprintf("%s/%s/%s/%s/%s%s", loc.Org, loc.Course, loc.BlockType, loc.BlockID, meta.SHA1, ext)
}

// Save stores an uploaded package, replacing any prior artifact for the
// block, and extracts it into the serving root.
func (p *PackageStore) Save(ctx context.Context, loc BlockLocation, filename string, r io.Reader) (*PackageMeta, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read scorm upload: %w", err)
	}

	sum := sha1.Sum(content)
	meta := PackageMeta{
		Name: filename,
		SHA1: hex.EncodeToString(sum[:]),
		Size: int64(len(content)),
	}
	path := storagePath(loc, meta)

	if _, err := p.store.Stat(ctx, path); err == nil {
		p.logger.InfoContext(ctx, "removing previously uploaded package", "path", path)
		if err := p.store.Delete(ctx, path); err != nil {
			return nil, err
		}
	} else if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, err
	}

	if err := p.store.Save(ctx, path, bytes.NewReader(content)); err != nil {
		return nil, err
	}

	indexPage, err := p.extract(loc.BlockID, content)
	if err != nil {
		return nil, err
	}
	meta.IndexPage = indexPage

	info, err := p.store.Stat(ctx, path)
	if err != nil {
		return nil, err
	}
	meta.LastUpdated = info.ModTime.UTC().Format("2006-01-02T15:04:05Z")

	if err := p.saveMeta(ctx, loc, meta); err != nil {
		return nil, err
	}

	p.logger.InfoContext(ctx, "scorm package stored",
		"block_id", loc.BlockID,
		"path", path,
		"size", meta.Size,
	)
	return &meta, nil
}

// extract unpacks the zip under extractRoot/blockID, replacing any prior
// extraction, and returns the package's entry page.
func (p *PackageStore) extract(blockID string, content []byte) (string, error) {
	target := filepath.Join(p.extractRoot, blockID)
	if err := os.RemoveAll(target); err != nil {
		return "", fmt.Errorf("clear extraction target: %w", err)
	}
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", fmt.Errorf("create extraction target: %w", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open scorm zip: %w", err)
	}

	indexPage := ""
	for _, file := range zr.File {
		name := filepath.Clean(filepath.FromSlash(file.Name))
		if name == "." || strings.HasPrefix(name, "..") {
			continue
		}
		dest := filepath.Join(target, name)
		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return "", fmt.Errorf("extract directory %s: %w", name, err)
			}
			continue
		}
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return "", fmt.Errorf("extract %s: %w", name, err)
		}
		src, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("extract %s: %w", name, err)
		}
		out, err := os.Create(dest)
		if err != nil {
			src.Close()
			return "", fmt.Errorf("extract %s: %w", name, err)
		}
		if _, err := io.Copy(out, src); err != nil {
			out.Close()
			src.Close()
			return "", fmt.Errorf("extract %s: %w", name, err)
		}
		out.Close()
		src.Close()

		base := filepath.Base(name)
		if base == "index.html" || (indexPage == "" && strings.HasSuffix(base, ".html")) {
			indexPage = filepath.ToSlash(name)
		}
	}
	return indexPage, nil
}

func metaPath(loc BlockLocation) string {
	return fmt.Sprintf("%s/%s/%s/%s/package_meta.json", loc.Org, loc.Course, loc.BlockType, loc.BlockID)
}

func (p *PackageStore) saveMeta(ctx context.Context, loc BlockLocation, meta PackageMeta) error {
	raw, err := json.Marshal(meta)
	if err != nil {
		return fmt.Errorf("encode package meta: %w", err)
	}
	return p.store.Save(ctx, metaPath(loc), bytes.NewReader(raw))
}

// LoadMeta returns the stored package's metadata, sentinel.ErrNotFound when
// no package was uploaded for the block.
func (p *PackageStore) LoadMeta(ctx context.Context, loc BlockLocation) (*PackageMeta, error) {
	r, err := p.store.Open(ctx, metaPath(loc))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	var meta PackageMeta
	if err := json.NewDecoder(r).Decode(&meta); err != nil {
		return nil, fmt.Errorf("decode package meta: %w", err)
	}
	return &meta, nil
}

// StudentViewData reports where the stored package lives and how fresh it
// is. An empty map means no package was uploaded yet.
func (p *PackageStore) StudentViewData(ctx context.Context, loc BlockLocation, meta PackageMeta) (map[string]any, error) {
	if meta.IndexPage == "" {
		return map[string]any{}, nil
	}
	path := storagePath(loc, meta)
	if _, err := p.store.Stat(ctx, path); err != nil {
		return nil, err
	}
	return map[string]any{
		"last_modified": meta.LastUpdated,
		"size":          meta.Size,
		"index_page":    meta.IndexPage,
		"scorm_data":    p.store.URL(path),
	}, nil
}
