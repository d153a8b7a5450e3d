// Package collect walks an asset root and groups parsed captures by spatial
// group and viewpoint.
package collect

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"rivendb/internal/assetname"
	"rivendb/internal/faults"
	"rivendb/internal/logging"
)

// derivativeMarker appears in every pipeline-generated filename.
const derivativeMarker = "thumbnail"

// Options selects which files a walk returns.
type Options struct {
	Root      string
	Extension string
	// ExcludedDirs are directory basenames whose subtrees are skipped.
	ExcludedDirs []string
	// Exclude drops parsed files after naming validation.
	Exclude func(assetname.FileInfo) bool
}

// Collector discovers assets below a root.
type Collector struct {
	parser *assetname.Parser
	logger *slog.Logger
}

// New returns a collector using parser for filename decoding.
func New(parser *assetname.Parser, logger *slog.Logger) *Collector {
	if parser == nil {
		parser = assetname.NewParser(nil)
	}
	return &Collector{parser: parser, logger: logging.NewComponentLogger(logger, "collector")}
}

// ExcludeNames returns a predicate rejecting files whose friendly name is in names.
func ExcludeNames(names ...string) func(assetname.FileInfo) bool {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		set[n] = struct{}{}
	}
	return func(info assetname.FileInfo) bool {
		_, ok := set[info.FriendlyName()]
		return ok
	}
}

// Collect walks opts.Root and returns every matching asset. A file that
// fails to parse aborts the walk.
func (c *Collector) Collect(ctx context.Context, opts Options) (*Grouping, error) {
	root := filepath.Clean(opts.Root)
	ext := "." + strings.ToLower(strings.TrimPrefix(opts.Extension, "."))
	excludedDirs := make(map[string]struct{}, len(opts.ExcludedDirs))
	for _, dir := range opts.ExcludedDirs {
		excludedDirs[dir] = struct{}{}
	}

	grouping := NewGrouping()
	skipped := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() {
			if _, ok := excludedDirs[d.Name()]; ok && path != root {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.ToLower(filepath.Ext(d.Name())) != ext {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if strings.Contains(rel, derivativeMarker) {
			return nil
		}
		info, err := c.parser.Parse(path)
		if err != nil {
			return err
		}
		if opts.Exclude != nil && opts.Exclude(info) {
			skipped++
			return nil
		}
		grouping.Add(info)
		return nil
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if errors.Is(err, faults.ErrNaming) {
			return nil, err
		}
		return nil, faults.Wrap(faults.ErrConfiguration, "collect", "walk asset root", root, err)
	}

	c.logger.Debug("assets collected",
		logging.String("root", root),
		logging.String("extension", ext),
		logging.Int("files", grouping.Count()),
		logging.Int("excluded", skipped),
	)
	return grouping, nil
}

// Grouping maps group code -> viewpoint name -> set of files keyed by path.
// Accessors return sorted slices so callers never see map order.
type Grouping struct {
	groups map[string]map[string]map[string]assetname.FileInfo
	count  int
}

// NewGrouping returns an empty grouping.
func NewGrouping() *Grouping {
	return &Grouping{groups: make(map[string]map[string]map[string]assetname.FileInfo)}
}

// Add inserts info; re-adding the same path is a no-op.
func (g *Grouping) Add(info assetname.FileInfo) {
	viewpoints, ok := g.groups[info.Group]
	if !ok {
		viewpoints = make(map[string]map[string]assetname.FileInfo)
		g.groups[info.Group] = viewpoints
	}
	files, ok := viewpoints[info.Viewpoint]
	if !ok {
		files = make(map[string]assetname.FileInfo)
		viewpoints[info.Viewpoint] = files
	}
	if _, exists := files[info.Path]; exists {
		return
	}
	files[info.Path] = info
	g.count++
}

// Count returns the number of files.
func (g *Grouping) Count() int {
	return g.count
}

// Groups returns the group codes in ascending order.
func (g *Grouping) Groups() []string {
	out := make([]string, 0, len(g.groups))
	for code := range g.groups {
		out = append(out, code)
	}
	slices.Sort(out)
	return out
}

// Viewpoints returns the viewpoint names of group in natural order.
func (g *Grouping) Viewpoints(group string) []string {
	viewpoints := g.groups[group]
	out := make([]string, 0, len(viewpoints))
	for name := range viewpoints {
		out = append(out, name)
	}
	slices.SortFunc(out, assetname.CompareViewpoints)
	return out
}

// Files returns the files of one viewpoint sorted by path.
func (g *Grouping) Files(group, viewpoint string) []assetname.FileInfo {
	files := g.groups[group][viewpoint]
	out := make([]assetname.FileInfo, 0, len(files))
	for _, info := range files {
		out = append(out, info)
	}
	slices.SortFunc(out, func(a, b assetname.FileInfo) int { return strings.Compare(a.Path, b.Path) })
	return out
}

// All returns every file ordered by group, viewpoint, then path.
func (g *Grouping) All() []assetname.FileInfo {
	out := make([]assetname.FileInfo, 0, g.count)
	for _, group := range g.Groups() {
		for _, vp := range g.Viewpoints(group) {
			out = append(out, g.Files(group, vp)...)
		}
	}
	return out
}
