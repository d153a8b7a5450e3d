// Package media defines the narrow capability interface the catalog pipeline
// and the matcher use for image and video work, and the Local adapter that
// implements it.
//
// Local measures and scales stills in-process with imaging and shells out to
// ffmpeg, ffprobe and ImageMagick for everything else. External commands go
// through an Executor so tests can substitute canned output.
package media
