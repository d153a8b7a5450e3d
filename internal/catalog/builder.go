package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"rivendb/internal/assetname"
	"rivendb/internal/collect"
	"rivendb/internal/config"
	"rivendb/internal/faults"
	"rivendb/internal/fileutil"
	"rivendb/internal/graph"
	"rivendb/internal/logging"
	"rivendb/internal/mapdoc"
	"rivendb/internal/media"
	"rivendb/internal/objects"
	"rivendb/internal/progress"
)

// Option configures a Builder.
type Option func(*Builder)

// WithProgress reports measurement and thumbnail progress.
func WithProgress(opts progress.Options) Option {
	return func(b *Builder) {
		b.progress = opts
		b.reportProgress = true
	}
}

// Builder drives catalog builds for one configuration.
type Builder struct {
	cfg            *config.Config
	tools          media.Toolkit
	writer         Writer
	base           *slog.Logger
	logger         *slog.Logger
	progress       progress.Options
	reportProgress bool
}

// NewBuilder returns a builder that generates media through tools and
// persists through writer.
func NewBuilder(cfg *config.Config, tools media.Toolkit, writer Writer, logger *slog.Logger, opts ...Option) *Builder {
	if logger == nil {
		logger = logging.NewNop()
	}
	b := &Builder{
		cfg:    cfg,
		tools:  tools,
		writer: writer,
		base:   logger,
		logger: logging.NewComponentLogger(logger, "catalog"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// run carries the state of one Build call.
type run struct {
	id      string
	started time.Time
	root    fileutil.Root
	graph   *graph.Graph
	images  *collect.Grouping
	movies  *collect.Grouping
	objects []*objects.Object
	summary Summary
}

// Build runs every stage and writes the catalog. Any error aborts the build
// before anything is persisted.
func (b *Builder) Build(ctx context.Context) (*Summary, error) {
	if b.cfg == nil || b.tools == nil || b.writer == nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "catalog", "build", "builder is missing configuration, toolkit or writer", nil)
	}

	r := &run{id: uuid.NewString(), started: time.Now()}
	r.summary.RunID = r.id
	ctx = logging.WithRunID(ctx, r.id)
	logger := logging.WithContext(ctx, b.logger)

	unlock, err := b.lock()
	if err != nil {
		return nil, err
	}
	defer unlock()

	root, err := fileutil.NewRoot(b.cfg.Paths.ProtectedDir)
	if err != nil {
		return nil, err
	}
	r.root = root
	r.graph = graph.New(graph.NewIDs())

	logger.Info("catalog build started",
		logging.String(logging.FieldEventType, "build_start"),
		logging.String("asset_root", b.cfg.AssetRoot()),
		logging.String("database", b.cfg.Paths.Database),
		logging.Int("workers", b.cfg.WorkerCount()),
	)

	stages := []struct {
		name string
		fn   func(context.Context, *run) error
	}{
		{"collect", b.collect},
		{"map", b.applyMap},
		{"attach", b.attach},
		{"measure", b.measure},
		{"thumbnails", b.thumbnails},
		{"objects", b.resolveObjects},
		{"persist", b.persist},
	}
	for _, stage := range stages {
		if err := b.runStage(ctx, stage.name, r, stage.fn); err != nil {
			return nil, err
		}
	}

	r.summary.Duration = time.Since(r.started)
	logger.Info("catalog build completed",
		logging.String(logging.FieldEventType, "build_complete"),
		logging.Int("viewpoints", r.summary.Viewpoints),
		logging.Int("images", r.summary.Images),
		logging.Int("movies", r.summary.Movies),
		logging.Int("objects", r.summary.Objects),
		logging.Duration("duration", r.summary.Duration),
	)
	return &r.summary, nil
}

func (b *Builder) runStage(ctx context.Context, name string, r *run, fn func(context.Context, *run) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	stageCtx := logging.WithStage(ctx, name)
	logger := logging.WithContext(stageCtx, b.logger)
	started := time.Now()
	logger.Debug("stage started", logging.String(logging.FieldEventType, "stage_start"))

	if err := fn(stageCtx, r); err != nil {
		logger.Error("stage failed",
			logging.String(logging.FieldEventType, "stage_failure"),
			logging.Error(err),
		)
		return err
	}
	logger.Debug("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("duration", time.Since(started)),
	)
	return nil
}

// lock takes the exclusive build lock for the configured database.
func (b *Builder) lock() (func(), error) {
	dbPath := b.cfg.Paths.Database
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "catalog", "prepare lock", dbPath, err)
	}
	lock := flock.New(dbPath + ".lock")
	locked, err := lock.TryLock()
	if err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "catalog", "acquire lock", lock.Path(), err)
	}
	if !locked {
		return nil, faults.Wrap(faults.ErrConfiguration, "catalog", "acquire lock", "another build is writing "+dbPath, nil)
	}
	return func() {
		if err := lock.Unlock(); err != nil {
			b.logger.Warn("release build lock failed", logging.String("path", lock.Path()), logging.Error(err))
		}
	}, nil
}

func (b *Builder) collect(ctx context.Context, r *run) error {
	logger := logging.WithContext(ctx, b.logger)
	overrides, err := assetname.LoadOverrides(b.cfg.Paths.GroupOverridesFile, b.cfg.Catalog.OverrideGroup)
	if err != nil {
		return faults.Wrap(faults.ErrConfiguration, "catalog", "load group overrides", b.cfg.Paths.GroupOverridesFile, err)
	}
	collector := collect.New(assetname.NewParser(overrides), logging.WithContext(ctx, b.base))
	opts := collect.Options{
		Root:         b.cfg.AssetRoot(),
		ExcludedDirs: b.cfg.Catalog.ExcludedDirs,
		Exclude:      collect.ExcludeNames(b.cfg.Catalog.ExcludedNames...),
	}

	opts.Extension = b.cfg.Catalog.ImageExtension
	if r.images, err = collector.Collect(ctx, opts); err != nil {
		return err
	}
	opts.Extension = b.cfg.Catalog.MovieExtension
	if r.movies, err = collector.Collect(ctx, opts); err != nil {
		return err
	}

	logger.Info("assets collected",
		logging.Int("images", r.images.Count()),
		logging.Int("movies", r.movies.Count()),
		logging.Int("overrides", overrides.Len()),
	)
	return nil
}

func (b *Builder) applyMap(ctx context.Context, r *run) error {
	logger := logging.WithContext(ctx, b.logger)
	doc, err := mapdoc.ParseFile(b.cfg.Paths.MapFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logging.WarnWithContext(logger, "map document not found", "map_missing",
			logging.String("path", b.cfg.Paths.MapFile),
			logging.String(logging.FieldImpact, "viewpoints have no positions or neighbors"),
		)
		doc = &mapdoc.Document{}
	case err != nil:
		return fmt.Errorf("load map %s: %w", b.cfg.Paths.MapFile, err)
	}

	summary, err := mapdoc.Apply(r.graph, doc, logging.WithContext(ctx, b.base))
	if err != nil {
		return err
	}
	r.summary.Edges = summary.Edges
	return nil
}

func (b *Builder) resolveObjects(ctx context.Context, r *run) error {
	logger := logging.WithContext(ctx, b.logger)
	doc, err := objects.ParseFile(b.cfg.Paths.ObjectsFile)
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Info("object document not found", logging.String("path", b.cfg.Paths.ObjectsFile))
		doc = &objects.Document{}
	case err != nil:
		return fmt.Errorf("load objects %s: %w", b.cfg.Paths.ObjectsFile, err)
	}

	resolved, err := objects.NewResolver(r.graph, b.cfg.FullSizePixels()).Resolve(doc)
	if err != nil {
		return err
	}
	r.objects = resolved
	logger.Debug("objects resolved", logging.Int("objects", len(resolved)))
	return nil
}

func (b *Builder) persist(ctx context.Context, r *run) error {
	cat := &Catalog{
		RunID:   r.id,
		Graph:   r.graph,
		Objects: r.objects,
		Globals: ComputeGlobals(b.cfg.Media.FullSizeWidth, b.cfg.Media.FullSizeHeight,
			b.cfg.Media.ThumbnailScale, b.cfg.Media.Thumbnail2xScale),
	}
	r.summary.Groups = len(r.graph.Groups())
	r.summary.Positions = len(r.graph.Positions())
	r.summary.Viewpoints = len(r.graph.Viewpoints())
	r.summary.Images = len(r.graph.Images())
	r.summary.Movies = len(r.graph.Movies())
	r.summary.Objects = len(r.objects)

	if err := b.writer.Write(ctx, cat); err != nil {
		return fmt.Errorf("persist catalog: %w", err)
	}
	return nil
}
