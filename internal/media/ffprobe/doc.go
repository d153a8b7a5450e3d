// Package ffprobe builds ffprobe invocations for movie frame sizes and
// decodes their JSON output. Callers run the binary through their own
// executor.
package ffprobe
