package media

import (
	"context"
	"fmt"
	"image"
)

// Dimensions is a measured frame size in pixels.
type Dimensions struct {
	Width  int
	Height int
}

// Pixels returns Width*Height.
func (d Dimensions) Pixels() int {
	return d.Width * d.Height
}

func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Format selects a movie transcode target.
type Format int

const (
	// GIF is a looping animation.
	GIF Format = iota
	// H264 is web video in an .m4v container.
	H264
)

// Extension returns the file extension written for the format.
func (f Format) Extension() string {
	switch f {
	case H264:
		return "m4v"
	default:
		return "gif"
	}
}

func (f Format) String() string {
	switch f {
	case H264:
		return "h264"
	default:
		return "gif"
	}
}

// Toolkit is every media operation the pipeline and matcher need.
type Toolkit interface {
	MeasureImage(ctx context.Context, path string) (Dimensions, error)
	MeasureMovie(ctx context.Context, path string) (Dimensions, error)
	// ScaleImage writes src resized by scale to dst.
	ScaleImage(ctx context.Context, src, dst string, scale float64) error
	// ExtractFrame writes one representative still of movie to dst.
	ExtractFrame(ctx context.Context, movie, dst string) error
	// ComposeAnimation writes a looping animation of frames to dst.
	ComposeAnimation(ctx context.Context, frames []string, dst string) error
	Transcode(ctx context.Context, movie, dst string, format Format) error
	// NormalizeImage crops src to crop and resizes the result to size.
	NormalizeImage(ctx context.Context, src, dst string, crop image.Rectangle, size Dimensions) error
	// CompareImages returns the difference score of a and b; lower is closer.
	CompareImages(ctx context.Context, a, b string) (float64, error)
}
