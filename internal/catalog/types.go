package catalog

import (
	"context"
	"time"

	"rivendb/internal/graph"
	"rivendb/internal/mediapipe"
	"rivendb/internal/objects"
)

// Globals is the single settings row of a catalog.
type Globals struct {
	ThumbnailWidth    int
	ThumbnailHeight   int
	Thumbnail2xWidth  int
	Thumbnail2xHeight int
}

// ComputeGlobals derives the thumbnail target sizes from the master size.
func ComputeGlobals(width, height int, scale, scale2x float64) Globals {
	return Globals{
		ThumbnailWidth:    int(float64(width) * scale),
		ThumbnailHeight:   int(float64(height) * scale),
		Thumbnail2xWidth:  int(float64(width) * scale2x),
		Thumbnail2xHeight: int(float64(height) * scale2x),
	}
}

// Catalog is the finished entity set of one build.
type Catalog struct {
	RunID   string
	Graph   *graph.Graph
	Objects []*objects.Object
	Globals Globals
}

// Writer persists a finished catalog atomically.
type Writer interface {
	Write(ctx context.Context, cat *Catalog) error
}

// Summary reports what a build produced.
type Summary struct {
	RunID      string
	Groups     int
	Positions  int
	Viewpoints int
	Edges      int
	Images     int
	Movies     int
	Objects    int
	// TranscodesWritten and TranscodesReused count GIF and M4V outputs.
	TranscodesWritten int
	TranscodesReused  int
	Thumbnails        mediapipe.Stats
	Duration          time.Duration
}
