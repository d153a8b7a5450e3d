package catalog_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivendb/internal/catalog"
	"rivendb/internal/config"
	"rivendb/internal/faults"
	"rivendb/internal/graph"
	"rivendb/internal/logging"
	"rivendb/internal/testsupport"
)

const testMap = `
groups:
  - symbol: T
    positions:
      - name: gate
        viewpoints:
          - name: "508"
            right: "509"
          - name: "509"
            forward: J/12
  - symbol: J
    viewpoints:
      - name: "12"
`

const testObjects = `
objects:
  - name: trap_book
    references: [T/508, T/600/lever]
`

type recordingWriter struct {
	catalogs []*catalog.Catalog
	err      error
}

func (w *recordingWriter) Write(_ context.Context, cat *catalog.Catalog) error {
	if w.err != nil {
		return w.err
	}
	w.catalogs = append(w.catalogs, cat)
	return nil
}

type fixture struct {
	cfg    *config.Config
	tools  *testsupport.FakeToolkit
	writer *recordingWriter
	assets string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	assets := cfg.AssetRoot()

	testsupport.WritePNG(t, filepath.Join(assets, "tspit", "508_tdome.png"), 608, 392)
	testsupport.WritePNG(t, filepath.Join(assets, "tspit", "508_tfoo.png"), 100, 80)
	testsupport.WritePNG(t, filepath.Join(assets, "tspit", "509_tbridge.png"), 608, 392)
	testsupport.WritePNG(t, filepath.Join(assets, "tspit", "510_tblack.png"), 608, 392)
	testsupport.WritePNG(t, filepath.Join(assets, "jungle", "12_jcave.png"), 608, 392)
	testsupport.WritePNG(t, filepath.Join(assets, "b2_data-MHK", "700_tjunk.png"), 608, 392)
	movie := filepath.Join(assets, "tspit", "600_tlever.mov")
	testsupport.WriteFile(t, movie, "mov")

	testsupport.WriteFile(t, cfg.Paths.MapFile, testMap)
	testsupport.WriteFile(t, cfg.Paths.ObjectsFile, testObjects)

	tools := testsupport.NewFakeToolkit()
	tools.SetDimensions(movie, 608, 392)
	return &fixture{cfg: cfg, tools: tools, writer: &recordingWriter{}, assets: assets}
}

func (f *fixture) build(t *testing.T) (*catalog.Summary, error) {
	t.Helper()
	builder := catalog.NewBuilder(f.cfg, f.tools, f.writer, logging.NewNop())
	return builder.Build(context.Background())
}

func TestBuildProducesCatalog(t *testing.T) {
	f := newFixture(t)

	summary, err := f.build(t)
	require.NoError(t, err)
	require.Len(t, f.writer.catalogs, 1)
	cat := f.writer.catalogs[0]
	g := cat.Graph

	assert.NotEmpty(t, summary.RunID)
	assert.Equal(t, summary.RunID, cat.RunID)
	assert.Equal(t, 2, summary.Groups)
	assert.Equal(t, 1, summary.Positions)
	assert.Equal(t, 4, summary.Viewpoints)
	assert.Equal(t, 2, summary.Edges)
	assert.Equal(t, 4, summary.Images, "black frame and excluded directory are skipped")
	assert.Equal(t, 1, summary.Movies)
	assert.Equal(t, 1, summary.Objects)
	assert.Equal(t, 2, summary.TranscodesWritten)
	assert.Equal(t, 9, summary.Thumbnails.Written)

	dome, ok := g.Viewpoint("T", "508")
	require.True(t, ok)
	bridge, ok := g.Viewpoint("T", "509")
	require.True(t, ok)
	assert.Equal(t, "DVD/tspit/508_thumbnail.png", dome.Thumbnail)
	assert.Equal(t, "DVD/tspit/508_thumbnail2x.png", dome.Thumbnail2x)

	right, ok := g.Neighbor(dome, graph.Right)
	require.True(t, ok)
	assert.Same(t, bridge, right)
	_, ok = g.Neighbor(bridge, graph.Left)
	assert.False(t, ok, "edges are directed")

	lever, ok := g.Viewpoint("T", "600")
	require.True(t, ok, "viewpoints missing from the map are created")
	assert.Equal(t, "DVD/tspit/600_thumbnail.png", lever.Thumbnail)
	assert.Equal(t, 2, f.tools.Count("extract_frame"))
	assert.NoFileExists(t, filepath.Join(f.assets, "tspit", "600_thumbnail.pngthumbnail-large.png"))

	require.Len(t, g.Positions(), 1)
	assert.Equal(t, "DVD/tspit/position_1_thumbnail.gif", g.Positions()[0].Thumbnail)

	movies := g.MoviesOf(lever.ID)
	require.Len(t, movies, 1)
	assert.Equal(t, "DVD/tspit/600_tlever.mov", movies[0].Path)
	assert.Equal(t, "DVD/tspit/600_tlever.gif", movies[0].GIFPath)
	assert.Equal(t, "DVD/tspit/600_tlever.m4v", movies[0].H264Path)
	assert.Equal(t, 608, movies[0].Width)

	images := g.ImagesOf(dome.ID)
	require.Len(t, images, 2)
	assert.Equal(t, "508_tdome.png", images[0].Filename)
	assert.Equal(t, "dome", images[0].Friendly)
	assert.Equal(t, 608, images[0].Width)
	assert.Equal(t, 100, images[1].Width)

	require.Len(t, cat.Objects, 1)
	book := cat.Objects[0]
	assert.Equal(t, "Trap Book", book.Title)
	assert.Equal(t, []int64{images[0].ID}, book.ImageIDs)
	assert.Equal(t, []int64{movies[0].ID}, book.MovieIDs)
	assert.Equal(t, dome.Thumbnail, book.Thumbnail)

	assert.Equal(t, catalog.Globals{ThumbnailWidth: 109, ThumbnailHeight: 70, Thumbnail2xWidth: 218, Thumbnail2xHeight: 141}, cat.Globals)
}

func TestBuildIsIdempotent(t *testing.T) {
	f := newFixture(t)

	_, err := f.build(t)
	require.NoError(t, err)
	scaled, composed := f.tools.Count("scale"), f.tools.Count("compose")
	transcoded := f.tools.Count("transcode_gif") + f.tools.Count("transcode_h264")

	summary, err := f.build(t)
	require.NoError(t, err)
	assert.Equal(t, scaled, f.tools.Count("scale"))
	assert.Equal(t, composed, f.tools.Count("compose"))
	assert.Equal(t, transcoded, f.tools.Count("transcode_gif")+f.tools.Count("transcode_h264"))
	assert.Zero(t, summary.Thumbnails.Written)
	assert.Equal(t, 9, summary.Thumbnails.Reused)
	assert.Zero(t, summary.TranscodesWritten)
	assert.Equal(t, 2, summary.TranscodesReused)

	require.Len(t, f.writer.catalogs, 2)
	first, second := f.writer.catalogs[0], f.writer.catalogs[1]
	assert.NotEqual(t, first.RunID, second.RunID)
	second.RunID = first.RunID
	assert.Equal(t, first, second)
}

func TestMalformedFilenameAbortsBuild(t *testing.T) {
	f := newFixture(t)
	testsupport.WritePNG(t, filepath.Join(f.assets, "tspit", "nounderscore.png"), 10, 10)

	_, err := f.build(t)
	require.Error(t, err)
	assert.True(t, errors.Is(err, faults.ErrNaming))
	assert.Contains(t, err.Error(), "nounderscore.png")
	assert.Empty(t, f.writer.catalogs)
}

func TestDuplicateObjectsAbortBeforePersist(t *testing.T) {
	f := newFixture(t)
	testsupport.WriteFile(t, f.cfg.Paths.ObjectsFile, "objects:\n  - name: book\n  - name: book\n")

	_, err := f.build(t)
	require.Error(t, err)
	assert.True(t, errors.Is(err, faults.ErrDuplicate))
	assert.Empty(t, f.writer.catalogs)
}

func TestUnknownObjectReferenceAbortsBuild(t *testing.T) {
	f := newFixture(t)
	testsupport.WriteFile(t, f.cfg.Paths.ObjectsFile, "objects:\n  - name: book\n    references: [T/508/missing]\n")

	_, err := f.build(t)
	require.Error(t, err)
	assert.True(t, errors.Is(err, faults.ErrReference))
	assert.Empty(t, f.writer.catalogs)
}

func TestMissingDocumentsAreTolerated(t *testing.T) {
	f := newFixture(t)
	f.cfg.Paths.MapFile = filepath.Join(testsupport.BaseDir(f.cfg), "absent.yaml")
	f.cfg.Paths.ObjectsFile = filepath.Join(testsupport.BaseDir(f.cfg), "absent-objects.yaml")

	summary, err := f.build(t)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.Positions)
	assert.Equal(t, 0, summary.Edges)
	assert.Equal(t, 0, summary.Objects)
	assert.Equal(t, 4, summary.Viewpoints)
}

func TestWriteFailureIsReported(t *testing.T) {
	f := newFixture(t)
	f.writer.err = errors.New("disk full")

	_, err := f.build(t)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestConcurrentBuildIsRejected(t *testing.T) {
	f := newFixture(t)
	held := flock.New(f.cfg.Paths.Database + ".lock")
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	t.Cleanup(func() { _ = held.Unlock() })

	_, err = f.build(t)
	require.Error(t, err)
	assert.True(t, errors.Is(err, faults.ErrConfiguration))
	assert.Empty(t, f.tools.Calls(), "no media work before the lock is held")
}

func TestComputeGlobals(t *testing.T) {
	got := catalog.ComputeGlobals(608, 392, 0.18, 0.36)
	assert.Equal(t, catalog.Globals{ThumbnailWidth: 109, ThumbnailHeight: 70, Thumbnail2xWidth: 218, Thumbnail2xHeight: 141}, got)
}
