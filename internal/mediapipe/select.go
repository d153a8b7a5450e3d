package mediapipe

import "rivendb/internal/media"

// Source is a measured candidate for thumbnail generation.
type Source struct {
	// Path is absolute.
	Path       string
	Dimensions media.Dimensions
}

// SelectImageSource returns the first image whose pixel count equals
// fullSizePixels.
func SelectImageSource(images []Source, fullSizePixels int) (Source, bool) {
	for _, img := range images {
		if img.Dimensions.Pixels() == fullSizePixels {
			return img, true
		}
	}
	return Source{}, false
}

// SelectMovieSource returns the movie with the largest pixel area. Ties keep
// the earliest candidate.
func SelectMovieSource(movies []Source) (Source, bool) {
	var best Source
	bestArea := 0
	for _, mov := range movies {
		if area := mov.Dimensions.Pixels(); area > bestArea {
			best, bestArea = mov, area
		}
	}
	return best, bestArea > 0
}
