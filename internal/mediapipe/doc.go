// Package mediapipe backfills viewpoint and position thumbnails.
//
// For each viewpoint it picks one canonical source (the first full-size
// image, or the largest movie when the viewpoint has no images), scales it to
// the standard and high-density thumbnail sizes, and composes position
// animations from member thumbnails. Every output is skipped when it already
// exists, so a re-run only produces what is missing. Each stage is one
// bounded batch followed by a barrier.
package mediapipe
