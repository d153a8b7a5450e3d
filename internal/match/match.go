package match

import (
	"cmp"
	"context"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"rivendb/internal/assetname"
	"rivendb/internal/collect"
	"rivendb/internal/config"
	"rivendb/internal/logging"
	"rivendb/internal/media"
	"rivendb/internal/progress"
	"rivendb/internal/workpool"
)

// Settings holds the search constants.
type Settings struct {
	AssetRoot     string
	Extension     string
	ExcludedDirs  []string
	ExcludedNames []string
	// Crop is the viewport region of a probe screenshot.
	Crop image.Rectangle
	// Size is the standard capture size; other sizes are never compared.
	Size           media.Dimensions
	MaxCandidates  int
	Top            int
	Workers        int
	PHashPrefilter bool
}

// SettingsFromConfig copies the match settings out of cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	m := cfg.Match
	return Settings{
		AssetRoot:      cfg.AssetRoot(),
		Extension:      cfg.Catalog.ImageExtension,
		ExcludedDirs:   cfg.Catalog.ExcludedDirs,
		ExcludedNames:  cfg.Catalog.ExcludedNames,
		Crop:           image.Rect(m.CropLeft, m.CropTop, m.CropLeft+m.CropWidth, m.CropTop+m.CropHeight),
		Size:           media.Dimensions{Width: cfg.Media.FullSizeWidth, Height: cfg.Media.FullSizeHeight},
		MaxCandidates:  m.MaxCandidates,
		Top:            m.Top,
		Workers:        cfg.WorkerCount(),
		PHashPrefilter: m.PHashPrefilter,
	}
}

// Candidate is one capture eligible for comparison.
type Candidate struct {
	Path string
	Info assetname.FileInfo
}

// Result is one scored candidate.
type Result struct {
	Score float64
	Candidate
}

// Report is the outcome of one search.
type Report struct {
	Matches []Result
	// Eligible counts candidates before the cap; Examined counts comparisons.
	Eligible int
	Examined int
	Workers  int
}

// Query selects the probe and an optional group restriction.
type Query struct {
	Probe string
	Group string
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithProgress reports comparison progress.
func WithProgress(opts progress.Options) Option {
	return func(m *Matcher) {
		m.progress = opts
		m.reportProgress = true
	}
}

// WithHashFunc replaces the perceptual hash used by the prefilter.
func WithHashFunc(fn HashFunc) Option {
	return func(m *Matcher) {
		if fn != nil {
			m.hash = fn
		}
	}
}

// Matcher searches the asset root for the captures closest to a probe.
type Matcher struct {
	tools          media.Toolkit
	parser         *assetname.Parser
	settings       Settings
	logger         *slog.Logger
	base           *slog.Logger
	hash           HashFunc
	progress       progress.Options
	reportProgress bool
}

// New constructs a matcher.
func New(tools media.Toolkit, parser *assetname.Parser, settings Settings, logger *slog.Logger, opts ...Option) *Matcher {
	if logger == nil {
		logger = logging.NewNop()
	}
	if settings.Workers <= 0 {
		settings.Workers = max(1, runtime.NumCPU())
	}
	m := &Matcher{
		tools:    tools,
		parser:   parser,
		settings: settings,
		base:     logger,
		logger:   logging.NewComponentLogger(logger, "match"),
		hash:     PerceptualHash,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Match normalizes the probe and ranks every eligible capture against it.
func (m *Matcher) Match(ctx context.Context, q Query) (*Report, error) {
	logger := logging.WithContext(ctx, m.logger)

	tmpDir, err := os.MkdirTemp("", "rivendb-match-")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmpDir)

	probe := filepath.Join(tmpDir, "probe.png")
	if err := m.tools.NormalizeImage(ctx, q.Probe, probe, m.settings.Crop, m.settings.Size); err != nil {
		return nil, err
	}

	candidates, err := m.Candidates(ctx, q.Group)
	if err != nil {
		return nil, err
	}
	report := &Report{Eligible: len(candidates), Workers: m.settings.Workers}

	if limit := m.settings.MaxCandidates; limit > 0 && len(candidates) > limit {
		if m.settings.PHashPrefilter {
			candidates, err = prefilter(ctx, m.hash, probe, candidates, limit, m.settings.Workers)
			if err != nil {
				return nil, err
			}
		} else {
			candidates = candidates[:limit]
		}
		logger.Info("candidate cap applied",
			logging.Int("eligible", report.Eligible),
			logging.Int("kept", len(candidates)),
			logging.Bool("phash_prefilter", m.settings.PHashPrefilter),
		)
	}

	results, err := m.compare(ctx, probe, candidates)
	if err != nil {
		return nil, err
	}
	report.Examined = len(results)
	report.Matches = Rank(results, m.settings.Top)

	attrs := []logging.Attr{
		logging.String("probe", q.Probe),
		logging.String("group", q.Group),
		logging.Int("examined", report.Examined),
		logging.Int("workers", report.Workers),
	}
	if len(report.Matches) > 0 {
		attrs = append(attrs, logging.Float64("best_score", report.Matches[0].Score))
	}
	logger.Info("match completed", logging.Args(attrs...)...)
	return report, nil
}

// Candidates lists the standard-size captures eligible for comparison,
// sorted by path. A non-empty group restricts the search to that group.
func (m *Matcher) Candidates(ctx context.Context, group string) ([]Candidate, error) {
	group = strings.ToUpper(strings.TrimSpace(group))
	excluded := collect.ExcludeNames(m.settings.ExcludedNames...)
	collector := collect.New(m.parser, logging.WithContext(ctx, m.base))
	grouping, err := collector.Collect(ctx, collect.Options{
		Root:         m.settings.AssetRoot,
		Extension:    m.settings.Extension,
		ExcludedDirs: m.settings.ExcludedDirs,
		Exclude: func(info assetname.FileInfo) bool {
			return (group != "" && info.Group != group) || excluded(info)
		},
	})
	if err != nil {
		return nil, err
	}

	files := grouping.All()
	standard := make([]bool, len(files))
	batch := workpool.NewBatch(ctx, m.settings.Workers)
	for i, info := range files {
		batch.Go(func(ctx context.Context) error {
			dims, err := m.tools.MeasureImage(ctx, info.Path)
			if err != nil {
				return err
			}
			standard[i] = dims == m.settings.Size
			return nil
		})
	}
	if err := batch.Wait(); err != nil {
		return nil, err
	}

	var out []Candidate
	for i, info := range files {
		if standard[i] {
			out = append(out, Candidate{Path: info.Path, Info: info})
		}
	}
	slices.SortFunc(out, func(a, b Candidate) int { return cmp.Compare(a.Path, b.Path) })
	return out, nil
}

func (m *Matcher) compare(ctx context.Context, probe string, candidates []Candidate) ([]Result, error) {
	var reporter *progress.Reporter
	if m.reportProgress && len(candidates) > 0 {
		opts := m.progress
		if opts.Logger == nil {
			opts.Logger = m.logger
		}
		reporter = progress.New("Analyzing image", len(candidates), opts)
	}
	defer reporter.Finish()

	var mu sync.Mutex
	results := make([]Result, 0, len(candidates))
	batch := workpool.NewBatch(ctx, m.settings.Workers)
	for _, cand := range candidates {
		batch.Go(func(ctx context.Context) error {
			defer reporter.Increment()
			score, err := m.tools.CompareImages(ctx, probe, cand.Path)
			if err != nil {
				return err
			}
			mu.Lock()
			results = append(results, Result{Score: score, Candidate: cand})
			mu.Unlock()
			return nil
		})
	}
	if err := batch.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Rank orders results by ascending score, breaking ties by path, and keeps
// at most top entries. top <= 0 keeps everything.
func Rank(results []Result, top int) []Result {
	ranked := slices.Clone(results)
	slices.SortStableFunc(ranked, func(a, b Result) int {
		if c := cmp.Compare(a.Score, b.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Path, b.Path)
	})
	if top > 0 && len(ranked) > top {
		ranked = ranked[:top]
	}
	return ranked
}
