package ffprobe

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Result holds the stream entries ffprobe reports for one movie.
type Result struct {
	Streams []Stream `json:"streams"`
}

// Stream is one stream's codec type and frame size. Audio streams report
// no size.
type Stream struct {
	Index     int    `json:"index"`
	CodecType string `json:"codec_type"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
}

// Args returns the ffprobe arguments that list every stream's type and
// frame size as JSON. The path follows "--" so names starting with a dash
// are not read as options.
func Args(path string) []string {
	return []string{
		"-v", "error",
		"-show_entries", "stream=index,codec_type,width,height",
		"-of", "json",
		"--", path,
	}
}

// Decode parses the JSON printed for Args.
func Decode(output []byte) (Result, error) {
	output = bytes.TrimSpace(output)
	if len(output) == 0 {
		return Result{}, errors.New("ffprobe parse: empty output")
	}
	var result Result
	if err := json.Unmarshal(output, &result); err != nil {
		return Result{}, fmt.Errorf("ffprobe parse: %w", err)
	}
	return result, nil
}

// VideoDimensions returns the frame size of the first video stream that
// reports one.
func (r Result) VideoDimensions() (width, height int, ok bool) {
	for _, s := range r.Streams {
		if s.CodecType == "video" && s.Width > 0 && s.Height > 0 {
			return s.Width, s.Height, true
		}
	}
	return 0, 0, false
}
