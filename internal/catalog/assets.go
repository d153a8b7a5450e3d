package catalog

import (
	"context"
	"sync/atomic"

	"rivendb/internal/assetname"
	"rivendb/internal/collect"
	"rivendb/internal/fileutil"
	"rivendb/internal/graph"
	"rivendb/internal/logging"
	"rivendb/internal/media"
	"rivendb/internal/mediapipe"
	"rivendb/internal/progress"
	"rivendb/internal/workpool"
)

// attach creates every viewpoint found on disk and hangs its assets off it.
// Groups and viewpoints are visited in sorted order so identifiers do not
// depend on directory enumeration.
func (b *Builder) attach(ctx context.Context, r *run) error {
	for _, grouping := range []*collect.Grouping{r.images, r.movies} {
		movie := grouping == r.movies
		for _, symbol := range grouping.Groups() {
			for _, name := range grouping.Viewpoints(symbol) {
				vp := r.graph.EnsureViewpoint(symbol, name)
				for _, info := range grouping.Files(symbol, name) {
					if err := b.attachFile(r, vp, info, movie); err != nil {
						return err
					}
				}
			}
		}
	}

	logging.WithContext(ctx, b.logger).Debug("assets attached",
		logging.Int("viewpoints", len(r.graph.Viewpoints())),
		logging.Int("images", len(r.graph.Images())),
		logging.Int("movies", len(r.graph.Movies())),
	)
	return nil
}

func (b *Builder) attachFile(r *run, vp *graph.Viewpoint, info assetname.FileInfo, movie bool) error {
	rel, err := r.root.Unprotect(info.Path)
	if err != nil {
		return err
	}
	if !movie {
		r.graph.AddImage(vp, graph.Image{
			Filename: info.CanonicalFilename(),
			Friendly: info.FriendlyName(),
			Path:     rel,
			Source:   info.Path,
		})
		return nil
	}

	gifRel, err := r.root.Unprotect(fileutil.SwapExtension(info.Path, media.GIF.Extension()))
	if err != nil {
		return err
	}
	h264Rel, err := r.root.Unprotect(fileutil.SwapExtension(info.Path, media.H264.Extension()))
	if err != nil {
		return err
	}
	r.graph.AddMovie(vp, graph.Movie{
		Filename: info.CanonicalFilename(),
		Friendly: info.FriendlyName(),
		Path:     rel,
		Source:   info.Path,
		GIFPath:  gifRel,
		H264Path: h264Rel,
	})
	return nil
}

// measure probes every asset and transcodes movies whose outputs are
// missing. It returns once every task has finished.
func (b *Builder) measure(ctx context.Context, r *run) error {
	var written, reused atomic.Int64
	transcode := func(ctx context.Context, mov *graph.Movie, format media.Format) error {
		dst := fileutil.SwapExtension(mov.Source, format.Extension())
		if fileutil.Exists(dst) {
			reused.Add(1)
			return nil
		}
		if err := b.tools.Transcode(ctx, mov.Source, dst, format); err != nil {
			return err
		}
		written.Add(1)
		return nil
	}

	images, movies := r.graph.Images(), r.graph.Movies()
	reporter := b.reporter(ctx, "Measuring assets", len(images)+len(movies))
	defer reporter.Finish()

	batch := workpool.NewBatch(ctx, b.cfg.WorkerCount())
	for _, img := range images {
		batch.Go(func(ctx context.Context) error {
			defer reporter.Increment()
			dims, err := b.tools.MeasureImage(ctx, img.Source)
			if err != nil {
				return err
			}
			img.Width, img.Height = dims.Width, dims.Height
			return nil
		})
	}
	for _, mov := range movies {
		batch.Go(func(ctx context.Context) error {
			defer reporter.Increment()
			dims, err := b.tools.MeasureMovie(ctx, mov.Source)
			if err != nil {
				return err
			}
			mov.Width, mov.Height = dims.Width, dims.Height
			return nil
		})
		batch.Go(func(ctx context.Context) error { return transcode(ctx, mov, media.GIF) })
		batch.Go(func(ctx context.Context) error { return transcode(ctx, mov, media.H264) })
	}
	if err := batch.Wait(); err != nil {
		return err
	}

	r.summary.TranscodesWritten = int(written.Load())
	r.summary.TranscodesReused = int(reused.Load())
	logging.WithContext(ctx, b.logger).Info("assets measured",
		logging.Int("images", len(images)),
		logging.Int("movies", len(movies)),
		logging.Int("transcodes_written", r.summary.TranscodesWritten),
		logging.Int("transcodes_reused", r.summary.TranscodesReused),
	)
	return nil
}

// thumbnails backfills viewpoint thumbnails, then position thumbnails.
func (b *Builder) thumbnails(ctx context.Context, r *run) error {
	var opts []mediapipe.Option
	if b.reportProgress {
		opts = append(opts, mediapipe.WithProgress(b.progressOptions(ctx)))
	}
	pipe := mediapipe.New(b.tools, r.root, mediapipe.Settings{
		FullSizePixels:   b.cfg.FullSizePixels(),
		ThumbnailScale:   b.cfg.Media.ThumbnailScale,
		Thumbnail2xScale: b.cfg.Media.Thumbnail2xScale,
		Workers:          b.cfg.WorkerCount(),
	}, logging.WithContext(ctx, b.base), opts...)

	sources := make([]mediapipe.ViewpointSources, 0, len(r.graph.Viewpoints()))
	for _, vp := range r.graph.Viewpoints() {
		vs := mediapipe.ViewpointSources{Viewpoint: vp}
		for _, img := range r.graph.ImagesOf(vp.ID) {
			vs.Images = append(vs.Images, mediapipe.Source{
				Path:       img.Source,
				Dimensions: media.Dimensions{Width: img.Width, Height: img.Height},
			})
		}
		for _, mov := range r.graph.MoviesOf(vp.ID) {
			vs.Movies = append(vs.Movies, mediapipe.Source{
				Path:       mov.Source,
				Dimensions: media.Dimensions{Width: mov.Width, Height: mov.Height},
			})
		}
		sources = append(sources, vs)
	}

	if err := pipe.ViewpointThumbnails(ctx, sources); err != nil {
		return err
	}
	if err := pipe.PositionThumbnails(ctx, r.graph); err != nil {
		return err
	}
	r.summary.Thumbnails = pipe.Stats()
	return nil
}

func (b *Builder) progressOptions(ctx context.Context) progress.Options {
	opts := b.progress
	if opts.Logger == nil {
		opts.Logger = logging.WithContext(ctx, b.logger)
	}
	return opts
}

func (b *Builder) reporter(ctx context.Context, label string, total int) *progress.Reporter {
	if !b.reportProgress || total == 0 {
		return nil
	}
	return progress.New(label, total, b.progressOptions(ctx))
}
