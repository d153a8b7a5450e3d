package testsupport

import (
	"context"
	"fmt"
	"image"
	_ "image/png" // decoder registration
	"os"
	"slices"
	"sync"

	"rivendb/internal/faults"
	"rivendb/internal/media"
)

var _ media.Toolkit = (*FakeToolkit)(nil)

// ToolCall records one FakeToolkit invocation.
type ToolCall struct {
	Op   string
	Args []string
}

// FakeToolkit is an in-process media.Toolkit. Outputs are small placeholder
// files; dimensions and scores come from the maps, falling back to the real
// image header for MeasureImage.
type FakeToolkit struct {
	mu sync.Mutex

	// Dimensions maps absolute paths to measured sizes.
	Dimensions map[string]media.Dimensions
	// Scores maps candidate paths to CompareImages results.
	Scores map[string]float64
	// Failures maps paths to errors returned by any operation touching them.
	Failures map[string]error

	calls []ToolCall
}

// NewFakeToolkit returns an empty fake.
func NewFakeToolkit() *FakeToolkit {
	return &FakeToolkit{
		Dimensions: map[string]media.Dimensions{},
		Scores:     map[string]float64{},
		Failures:   map[string]error{},
	}
}

func (f *FakeToolkit) record(op string, args ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, ToolCall{Op: op, Args: args})
	for _, arg := range args {
		if err, ok := f.Failures[arg]; ok {
			return err
		}
	}
	return nil
}

// Calls returns a copy of the recorded invocations.
func (f *FakeToolkit) Calls() []ToolCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

// Count returns how many times op was invoked.
func (f *FakeToolkit) Count(op string) int {
	n := 0
	for _, call := range f.Calls() {
		if call.Op == op {
			n++
		}
	}
	return n
}

// SetDimensions records a measured size for path.
func (f *FakeToolkit) SetDimensions(path string, width, height int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Dimensions[path] = media.Dimensions{Width: width, Height: height}
}

func (f *FakeToolkit) lookup(path string) (media.Dimensions, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.Dimensions[path]
	return d, ok
}

func (f *FakeToolkit) MeasureImage(_ context.Context, path string) (media.Dimensions, error) {
	if err := f.record("measure_image", path); err != nil {
		return media.Dimensions{}, err
	}
	if d, ok := f.lookup(path); ok {
		return d, nil
	}
	file, err := os.Open(path)
	if err != nil {
		return media.Dimensions{}, faults.Wrap(faults.ErrExternalTool, "fake", "measure image", path, err)
	}
	defer file.Close()
	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return media.Dimensions{}, faults.Wrap(faults.ErrExternalTool, "fake", "measure image", path, err)
	}
	return media.Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

func (f *FakeToolkit) MeasureMovie(_ context.Context, path string) (media.Dimensions, error) {
	if err := f.record("measure_movie", path); err != nil {
		return media.Dimensions{}, err
	}
	if d, ok := f.lookup(path); ok {
		return d, nil
	}
	return media.Dimensions{}, faults.Wrap(faults.ErrExternalTool, "fake", "measure movie", "no dimensions for "+path, nil)
}

func (f *FakeToolkit) ScaleImage(_ context.Context, src, dst string, scale float64) error {
	if err := f.record("scale", src, dst, fmt.Sprint(scale)); err != nil {
		return err
	}
	return touch(dst)
}

func (f *FakeToolkit) ExtractFrame(_ context.Context, movie, dst string) error {
	if err := f.record("extract_frame", movie, dst); err != nil {
		return err
	}
	return touch(dst)
}

func (f *FakeToolkit) ComposeAnimation(_ context.Context, frames []string, dst string) error {
	if err := f.record("compose", append(slices.Clone(frames), dst)...); err != nil {
		return err
	}
	return touch(dst)
}

func (f *FakeToolkit) Transcode(_ context.Context, movie, dst string, format media.Format) error {
	if err := f.record("transcode_"+format.String(), movie, dst); err != nil {
		return err
	}
	return touch(dst)
}

func (f *FakeToolkit) NormalizeImage(_ context.Context, src, dst string, crop image.Rectangle, size media.Dimensions) error {
	if err := f.record("normalize", src, dst, crop.String(), size.String()); err != nil {
		return err
	}
	return touch(dst)
}

func (f *FakeToolkit) CompareImages(_ context.Context, a, b string) (float64, error) {
	if err := f.record("compare", a, b); err != nil {
		return 0, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	score, ok := f.Scores[b]
	if !ok {
		return 0, faults.Wrap(faults.ErrExternalTool, "fake", "compare images", "no score for "+b, nil)
	}
	return score, nil
}

func touch(path string) error {
	return os.WriteFile(path, []byte("derived"), 0o644)
}
