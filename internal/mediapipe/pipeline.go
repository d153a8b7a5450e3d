package mediapipe

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"rivendb/internal/fileutil"
	"rivendb/internal/graph"
	"rivendb/internal/logging"
	"rivendb/internal/media"
	"rivendb/internal/progress"
	"rivendb/internal/workpool"
)

// Settings holds the thumbnail constants.
type Settings struct {
	FullSizePixels   int
	ThumbnailScale   float64
	Thumbnail2xScale float64
	Workers          int
}

// ViewpointSources lists the measured assets of one viewpoint, in the order
// source selection should consider them.
type ViewpointSources struct {
	Viewpoint *graph.Viewpoint
	Images    []Source
	Movies    []Source
}

// Stats counts derivative outputs across a pipeline's lifetime.
type Stats struct {
	Written       int
	Reused        int
	WithoutSource int
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithProgress reports per-stage progress.
func WithProgress(opts progress.Options) Option {
	return func(p *Pipeline) {
		p.progress = opts
		p.reportProgress = true
	}
}

// Pipeline generates thumbnails through a media.Toolkit.
type Pipeline struct {
	tools          media.Toolkit
	root           fileutil.Root
	settings       Settings
	logger         *slog.Logger
	progress       progress.Options
	reportProgress bool

	written       atomic.Int64
	reused        atomic.Int64
	withoutSource atomic.Int64
}

// New constructs a pipeline writing below root.
func New(tools media.Toolkit, root fileutil.Root, settings Settings, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		tools:    tools,
		root:     root,
		settings: settings,
		logger:   logging.NewComponentLogger(logger, "mediapipe"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Stats returns the counters accumulated so far.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Written:       int(p.written.Load()),
		Reused:        int(p.reused.Load()),
		WithoutSource: int(p.withoutSource.Load()),
	}
}

// ThumbnailNames returns the standard and high-density thumbnail filenames
// for a viewpoint.
func ThumbnailNames(viewpoint string) (string, string) {
	return viewpoint + "_thumbnail.png", viewpoint + "_thumbnail2x.png"
}

// QualifiedThumbnailNames returns thumbnail filenames that include the group
// symbol, for viewpoints whose plain names are already taken in a directory.
func QualifiedThumbnailNames(symbol, viewpoint string) (string, string) {
	return ThumbnailNames(viewpoint + "_" + strings.ToLower(symbol))
}

// PositionAnimationName returns the animation filename for a position.
func PositionAnimationName(positionID int64) string {
	return fmt.Sprintf("position_%d_thumbnail.gif", positionID)
}

type thumbnailJob struct {
	src   Source
	movie bool
	dst   string
	scale float64
}

// ViewpointThumbnails assigns each viewpoint its thumbnail paths and
// generates the missing files. It returns after every file exists.
func (p *Pipeline) ViewpointThumbnails(ctx context.Context, viewpoints []ViewpointSources) error {
	logger := logging.WithContext(ctx, p.logger)
	var jobs []thumbnailJob
	claimed := make(map[string]string, len(viewpoints))
	for _, vs := range viewpoints {
		src, movie, ok := p.selectSource(vs)
		if !ok {
			p.withoutSource.Add(1)
			if len(vs.Images)+len(vs.Movies) > 0 {
				logging.WarnWithContext(logger, "viewpoint has no full-size source", "thumbnail_source_missing",
					logging.String("viewpoint", vs.Viewpoint.Key()),
					logging.Int("images", len(vs.Images)),
					logging.Int("movies", len(vs.Movies)),
					logging.String(logging.FieldImpact, "viewpoint shown without thumbnail"),
				)
			}
			continue
		}
		dir := filepath.Dir(src.Path)
		std, hi := ThumbnailNames(vs.Viewpoint.Name)
		stdPath, hiPath := filepath.Join(dir, std), filepath.Join(dir, hi)
		if owner, taken := claimed[stdPath]; taken && owner != vs.Viewpoint.Key() {
			std, hi = QualifiedThumbnailNames(vs.Viewpoint.Symbol, vs.Viewpoint.Name)
			stdPath, hiPath = filepath.Join(dir, std), filepath.Join(dir, hi)
			logging.WarnWithContext(logger, "thumbnail name already used in directory", "thumbnail_name_collision",
				logging.String("viewpoint", vs.Viewpoint.Key()),
				logging.String("owner", owner),
				logging.String("thumbnail", stdPath),
				logging.String(logging.FieldImpact, "thumbnail written under a group-qualified name"),
			)
		}
		claimed[stdPath] = vs.Viewpoint.Key()

		var err error
		if vs.Viewpoint.Thumbnail, err = p.root.Unprotect(stdPath); err != nil {
			return err
		}
		if vs.Viewpoint.Thumbnail2x, err = p.root.Unprotect(hiPath); err != nil {
			return err
		}
		jobs = append(jobs,
			thumbnailJob{src: src, movie: movie, dst: stdPath, scale: p.settings.ThumbnailScale},
			thumbnailJob{src: src, movie: movie, dst: hiPath, scale: p.settings.Thumbnail2xScale},
		)
	}

	reporter := p.reporter("Viewpoint thumbnails", len(jobs))
	defer reporter.Finish()
	batch := workpool.NewBatch(ctx, p.settings.Workers)
	for _, job := range jobs {
		batch.Go(func(ctx context.Context) error {
			defer reporter.Increment()
			return p.thumbnail(ctx, job)
		})
	}
	if err := batch.Wait(); err != nil {
		return err
	}
	logger.Debug("viewpoint thumbnails ready", logging.Int("outputs", len(jobs)))
	return nil
}

func (p *Pipeline) selectSource(vs ViewpointSources) (Source, bool, bool) {
	if len(vs.Images) > 0 {
		src, ok := SelectImageSource(vs.Images, p.settings.FullSizePixels)
		return src, false, ok
	}
	src, ok := SelectMovieSource(vs.Movies)
	return src, true, ok
}

func (p *Pipeline) thumbnail(ctx context.Context, job thumbnailJob) error {
	if fileutil.Exists(job.dst) {
		p.reused.Add(1)
		return nil
	}
	src := job.src.Path
	if job.movie {
		// The intermediate name contains "thumbnail" so collectors never pick it up.
		frame := job.dst + "thumbnail-large.png"
		if err := p.tools.ExtractFrame(ctx, job.src.Path, frame); err != nil {
			return err
		}
		defer os.Remove(frame)
		src = frame
	}
	if err := p.tools.ScaleImage(ctx, src, job.dst, job.scale); err != nil {
		return err
	}
	p.written.Add(1)
	return nil
}

// PositionThumbnails assigns each position of g a thumbnail: the single
// member thumbnail, or a looping animation of all member thumbnails in
// declaration order. Run it after ViewpointThumbnails.
func (p *Pipeline) PositionThumbnails(ctx context.Context, g *graph.Graph) error {
	type animationJob struct {
		frames []string
		dst    string
	}
	var jobs []animationJob
	for _, pos := range g.Positions() {
		var frames []string
		var rels []string
		for _, id := range pos.Viewpoints {
			vp, ok := g.ViewpointByID(id)
			if !ok || vp.Thumbnail == "" {
				continue
			}
			abs, err := p.root.Protect(vp.Thumbnail)
			if err != nil {
				return err
			}
			frames = append(frames, abs)
			rels = append(rels, vp.Thumbnail)
		}
		switch len(frames) {
		case 0:
			continue
		case 1:
			pos.Thumbnail = rels[0]
		default:
			dst := filepath.Join(filepath.Dir(frames[0]), PositionAnimationName(pos.ID))
			rel, err := p.root.Unprotect(dst)
			if err != nil {
				return err
			}
			pos.Thumbnail = rel
			jobs = append(jobs, animationJob{frames: frames, dst: dst})
		}
	}

	reporter := p.reporter("Position animations", len(jobs))
	defer reporter.Finish()
	batch := workpool.NewBatch(ctx, p.settings.Workers)
	for _, job := range jobs {
		batch.Go(func(ctx context.Context) error {
			defer reporter.Increment()
			if fileutil.Exists(job.dst) {
				p.reused.Add(1)
				return nil
			}
			if err := p.tools.ComposeAnimation(ctx, job.frames, job.dst); err != nil {
				return err
			}
			p.written.Add(1)
			return nil
		})
	}
	return batch.Wait()
}

func (p *Pipeline) reporter(label string, total int) *progress.Reporter {
	if !p.reportProgress || total == 0 {
		return nil
	}
	opts := p.progress
	if opts.Logger == nil {
		opts.Logger = p.logger
	}
	return progress.New(label, total, opts)
}
