package htmlblock

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"mobile-gateway/internal/content/storage"
	"mobile-gateway/internal/platform/lms"
)

// stubFetcher serves assets from a map and counts fetches.
type stubFetcher struct {
	assets map[string][]byte
	calls  int
}

func (f *stubFetcher) FetchAsset(_ context.Context, _, assetPath string) ([]byte, error) {
	f.calls++
	if content, ok := f.assets[assetPath]; ok {
		return content, nil
	}
	return nil, errors.New("asset not found")
}

type PackagerSuite struct {
	suite.Suite
	store    *storage.Local
	fetcher  *stubFetcher
	packager *Packager
}

func TestPackagerSuite(t *testing.T) {
	suite.Run(t, new(PackagerSuite))
}

func (s *PackagerSuite) SetupTest() {
	s.store = storage.NewLocal(s.T().TempDir(), "https://cdn.example.com/media")
	s.fetcher = &stubFetcher{assets: map[string][]byte{}}
	s.packager = NewPackager(s.store, s.fetcher, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (s *PackagerSuite) block(htmlData string) lms.HTMLBlockSource {
	return lms.HTMLBlockSource{
		CourseID:    "course-v1:Org+Num+Run",
		BlockID:     "block-v1:Org+Num+Run+type@html+block@intro",
		BlockType:   "html",
		Org:         "Org",
		Course:      "Num",
		DisplayName: "Intro",
		HTML:        htmlData,
		PublishedAt: time.Now(),
	}
}

func (s *PackagerSuite) readStored(path string) string {
	rc, err := s.store.Open(context.Background(), path)
	s.Require().NoError(err)
	defer rc.Close()
	data, err := io.ReadAll(rc)
	s.Require().NoError(err)
	return string(data)
}

func (s *PackagerSuite) archiveEntries(block lms.HTMLBlockSource) map[string]string {
	data := s.readStored(basePath(block) + ArchiveName)
	zr, err := zip.NewReader(bytes.NewReader([]byte(data)), int64(len(data)))
	s.Require().NoError(err)

	entries := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		s.Require().NoError(err)
		content, err := io.ReadAll(rc)
		rc.Close()
		s.Require().NoError(err)
		entries[f.Name] = string(content)
	}
	return entries
}

func (s *PackagerSuite) TestRepackage() {
	ctx := context.Background()

	s.Run("rewrites static links and bundles the assets", func() {
		s.fetcher.assets["/static/diagram.png"] = []byte("png-bytes")
		block := s.block(`<p>See <img src="/static/diagram.png"/> here</p>`)

		s.Require().NoError(s.packager.Repackage(ctx, block))

		index := s.readStored(basePath(block) + "index.html")
		s.Contains(index, `src="assets/diagram.png"`)
		s.NotContains(index, "/static/")

		entries := s.archiveEntries(block)
		s.Contains(entries, "index.html")
		s.Equal("png-bytes", entries["assets/diagram.png"])
	})

	s.Run("replaces iframes with plain links", func() {
		block := s.block(`<div><iframe src="https://video.example.com/v1" title="Lecture"></iframe></div>`)
		block.BlockID = "block-iframe"

		s.Require().NoError(s.packager.Repackage(ctx, block))

		index := s.readStored(basePath(block) + "index.html")
		s.NotContains(index, "<iframe")
		s.Contains(index, `<a href="https://video.example.com/v1">Lecture</a>`)
	})

	s.Run("iframe without a title falls back to its src", func() {
		block := s.block(`<iframe src="https://video.example.com/v2"></iframe>`)
		block.BlockID = "block-iframe-untitled"

		s.Require().NoError(s.packager.Repackage(ctx, block))

		index := s.readStored(basePath(block) + "index.html")
		s.Contains(index, `>https://video.example.com/v2</a>`)
	})

	s.Run("a failed asset fetch still rewrites the reference", func() {
		block := s.block(`<img src="/static/missing.png"/>`)
		block.BlockID = "block-broken-asset"

		s.Require().NoError(s.packager.Repackage(ctx, block))

		index := s.readStored(basePath(block) + "index.html")
		s.Contains(index, `assets/missing.png`)

		entries := s.archiveEntries(block)
		s.NotContains(entries, "assets/missing.png")
	})

	s.Run("an up-to-date artifact is not rebuilt", func() {
		s.fetcher.assets["/static/logo.svg"] = []byte("svg")
		block := s.block(`<img src="/static/logo.svg"/>`)
		block.BlockID = "block-fresh"

		s.Require().NoError(s.packager.Repackage(ctx, block))
		fetched := s.fetcher.calls

		// Same published timestamp: nothing to do.
		s.Require().NoError(s.packager.Repackage(ctx, block))
		s.Equal(fetched, s.fetcher.calls)
	})

	s.Run("newer authored content forces a rebuild", func() {
		block := s.block(`<p>v1</p>`)
		block.BlockID = "block-stale"

		s.Require().NoError(s.packager.Repackage(ctx, block))

		block.HTML = `<p>v2</p>`
		block.PublishedAt = time.Now().Add(time.Hour)
		s.Require().NoError(s.packager.Repackage(ctx, block))

		s.Contains(s.readStored(basePath(block)+"index.html"), "v2")
	})
}

func (s *PackagerSuite) TestStudentViewData() {
	ctx := context.Background()
	block := s.block(`<p>content</p>`)

	s.Run("packages on first access", func() {
		data, err := s.packager.StudentViewData(ctx, block)
		s.Require().NoError(err)

		s.Equal("index.html", data.IndexPage)
		s.Positive(data.Size)
		s.False(data.LastModified.IsZero())
		s.Equal("https://cdn.example.com/media/"+basePath(block)+ArchiveName, data.HTMLData)
	})

	s.Run("subsequent access reuses the stored artifact", func() {
		first, err := s.packager.StudentViewData(ctx, block)
		s.Require().NoError(err)
		second, err := s.packager.StudentViewData(ctx, block)
		s.Require().NoError(err)
		s.Equal(first.LastModified, second.LastModified)
	})
}
