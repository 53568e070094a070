// Package htmlblock packages authored HTML blocks for offline viewing:
// static links are rewritten to bundled assets, iframes are replaced with
// plain links, and the result ships as one zip per block.
package htmlblock

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"log/slog"

	"mobile-gateway/internal/content/storage"
	"mobile-gateway/internal/platform/lms"
	"mobile-gateway/pkg/platform/sentinel"
)

// ArchiveName is the packaged artifact's file name.
const ArchiveName = "content_html.zip"

// staticLinkPattern matches platform static asset references in authored
// markup.
var staticLinkPattern = regexp.MustCompile(`/static/[\w+@._-]+`)

// AssetFetcher downloads one static asset of a course.
type AssetFetcher interface {
	FetchAsset(ctx context.Context, courseID, assetPath string) ([]byte, error)
}

// Packager turns authored HTML blocks into offline bundles.
type Packager struct {
	store  storage.Storage
	assets AssetFetcher
	logger *slog.Logger
}

// NewPackager builds a packager writing into store.
func NewPackager(store storage.Storage, assets AssetFetcher, logger *slog.Logger) *Packager {
	return &Packager{store: store, assets: assets, logger: logger}
}

// basePath is where one block's artifacts live.
func basePath(block lms.HTMLBlockSource) string {
	return fmt.Sprintf("%s/%s/%s/%s/", block.Org, block.Course, block.BlockType, block.BlockID)
}

// Repackage rebuilds the offline bundle for a block if the authored content
// is newer than the stored artifact. Absent artifacts always rebuild.
func (p *Packager) Repackage(ctx context.Context, block lms.HTMLBlockSource) error {
	fresh, err := p.isFresh(ctx, block)
	if err != nil {
		return err
	}
	if fresh {
		return nil
	}
	return p.rebuild(ctx, block)
}

func (p *Packager) isFresh(ctx context.Context, block lms.HTMLBlockSource) (bool, error) {
	info, err := p.store.Stat(ctx, basePath(block)+ArchiveName)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !block.PublishedAt.After(info.ModTime), nil
}

func (p *Packager) rebuild(ctx context.Context, block lms.HTMLBlockSource) error {
	base := basePath(block)
	if err := p.removeOldFiles(ctx, base); err != nil {
		return err
	}

	assets := map[string][]byte{}
	data := staticLinkPattern.ReplaceAllStringFunc(block.HTML, func(link string) string {
		filename := strings.TrimPrefix(link, "/static/")
		content, err := p.assets.FetchAsset(ctx, block.CourseID, link)
		if err != nil {
			// Broken references stay rewritten; the authored page was
			// equally broken online.
			p.logger.WarnContext(ctx, "static asset fetch failed",
				"block_id", block.BlockID,
				"asset", link,
				"error", err,
			)
		} else {
			assets[filename] = content
		}
		return "assets/" + filename
	})

	data, err := replaceIframes(data)
	if err != nil {
		return fmt.Errorf("rewrite iframes for block %s: %w", block.BlockID, err)
	}

	for filename, content := range assets {
		if err := p.store.Save(ctx, base+"assets/"+filename, bytes.NewReader(content)); err != nil {
			return err
		}
	}
	if err := p.store.Save(ctx, base+"index.html", strings.NewReader(data)); err != nil {
		return err
	}
	if err := p.writeArchive(ctx, base); err != nil {
		return err
	}
	p.logger.InfoContext(ctx, "html block packaged",
		"block_id", block.BlockID,
		"assets", len(assets),
	)
	return nil
}

func (p *Packager) removeOldFiles(ctx context.Context, base string) error {
	for _, dir := range []string{base, base + "assets/"} {
		names, err := p.store.List(ctx, dir)
		if err != nil {
			return err
		}
		for _, name := range names {
			if err := p.store.Delete(ctx, dir+name); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeArchive zips index.html plus the assets directory into the bundle.
func (p *Packager) writeArchive(ctx context.Context, base string) error {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	addFile := func(storedPath, archivePath string) error {
		r, err := p.store.Open(ctx, storedPath)
		if err != nil {
			return err
		}
		defer r.Close()
		w, err := zw.Create(archivePath)
		if err != nil {
			return err
		}
		_, err = io.Copy(w, r)
		return err
	}

	if err := addFile(base+"index.html", "index.html"); err != nil {
		return fmt.Errorf("archive index.html: %w", err)
	}
	names, err := p.store.List(ctx, base+"assets/")
	if err != nil {
		return err
	}
	for _, name := range names {
		if err := addFile(base+"assets/"+name, "assets/"+name); err != nil {
			return fmt.Errorf("archive asset %s: %w", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return p.store.Save(ctx, base+ArchiveName, &buf)
}

// StudentViewData describes the packaged bundle for API clients.
type StudentViewData struct {
	LastModified time.Time `json:"last_modified"`
	HTMLData     string    `json:"html_data"`
	Size         int64     `json:"size"`
	IndexPage    string    `json:"index_page"`
}

// StudentViewData returns the bundle's location and freshness, packaging it
// first if no artifact exists yet.
func (p *Packager) StudentViewData(ctx context.Context, block lms.HTMLBlockSource) (*StudentViewData, error) {
	path := basePath(block) + ArchiveName
	info, err := p.store.Stat(ctx, path)
	if errors.Is(err, sentinel.ErrNotFound) {
		if err := p.rebuild(ctx, block); err != nil {
			return nil, err
		}
		info, err = p.store.Stat(ctx, path)
	}
	if err != nil {
		return nil, err
	}
	return &StudentViewData{
		LastModified: info.ModTime,
		HTMLData:     p.store.URL(path),
		Size:         info.Size,
		IndexPage:    "index.html",
	}, nil
}

// replaceIframes swaps every iframe for a paragraph holding a plain link,
// titled by the iframe's title attribute when present.
func replaceIframes(data string) (string, error) {
	if !strings.Contains(data, "<iframe") {
		return data, nil
	}
	nodes, err := html.ParseFragment(strings.NewReader(data), &html.Node{
		Type:     html.ElementNode,
		Data:     "body",
		DataAtom: atom.Body,
	})
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	for _, node := range nodes {
		rewriteIframes(node)
		if err := html.Render(&buf, node); err != nil {
			return "", err
		}
	}
	return buf.String(), nil
}

func rewriteIframes(n *html.Node) {
	for child := n.FirstChild; child != nil; {
		next := child.NextSibling
		if child.Type == html.ElementNode && child.Data == "iframe" {
			src := attr(child, "src")
			title := attr(child, "title")
			if title == "" {
				title = src
			}
			link := &html.Node{
				Type: html.ElementNode,
				Data: "a",
				Attr: []html.Attribute{{Key: "href", Val: src}},
			}
			link.AppendChild(&html.Node{Type: html.TextNode, Data: title})
			para := &html.Node{Type: html.ElementNode, Data: "p"}
			para.AppendChild(link)
			n.InsertBefore(para, child)
			n.RemoveChild(child)
		} else {
			rewriteIframes(child)
		}
		child = next
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
