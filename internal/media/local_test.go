package media_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivendb/internal/config"
	"rivendb/internal/faults"
	"rivendb/internal/logging"
	"rivendb/internal/media"
)

type call struct {
	binary string
	args   []string
}

type stubExecutor struct {
	mu     sync.Mutex
	calls  []call
	output media.Output
	err    error
	// touchLast creates the final argument as a file, like a tool writing its output.
	touchLast bool
}

func (s *stubExecutor) Run(_ context.Context, binary string, args []string) (media.Output, error) {
	s.mu.Lock()
	s.calls = append(s.calls, call{binary: binary, args: append([]string(nil), args...)})
	s.mu.Unlock()
	if s.touchLast && s.err == nil && s.output.ExitCode == 0 {
		if err := os.WriteFile(args[len(args)-1], []byte("out"), 0o644); err != nil {
			return media.Output{}, err
		}
	}
	return s.output, s.err
}

func newLocal(exec media.Executor) *media.Local {
	cfg := config.Default()
	return media.NewLocal(media.SettingsFromConfig(&cfg), logging.NewNop(), media.WithExecutor(exec))
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()
	img := imaging.New(w, h, color.NRGBA{R: 200, G: 40, B: 40, A: 255})
	require.NoError(t, imaging.Save(img, path))
}

func TestMeasureAndScaleImage(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "508_tdome.png")
	writePNG(t, src, 608, 392)
	local := newLocal(&stubExecutor{})

	dims, err := local.MeasureImage(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, media.Dimensions{Width: 608, Height: 392}, dims)
	assert.Equal(t, 238336, dims.Pixels())

	dst := filepath.Join(dir, "508_thumbnail.png")
	require.NoError(t, local.ScaleImage(context.Background(), src, dst, 0.18))
	scaled, err := local.MeasureImage(context.Background(), dst)
	require.NoError(t, err)
	assert.Equal(t, media.Dimensions{Width: 109, Height: 70}, scaled)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "partial files must not remain")
}

func TestMeasureImageRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "1_tbad.png")
	require.NoError(t, os.WriteFile(path, []byte("not an image"), 0o644))
	_, err := newLocal(&stubExecutor{}).MeasureImage(context.Background(), path)
	assert.True(t, errors.Is(err, faults.ErrExternalTool))
}

func TestNormalizeImageCropsAndResizes(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "probe.png")
	writePNG(t, src, 1504, 1100)
	dst := filepath.Join(dir, "normalized.png")
	local := newLocal(&stubExecutor{})

	crop := image.Rect(144, 184, 144+1216, 184+784)
	require.NoError(t, local.NormalizeImage(context.Background(), src, dst, crop, media.Dimensions{Width: 608, Height: 392}))
	dims, err := local.MeasureImage(context.Background(), dst)
	require.NoError(t, err)
	assert.Equal(t, media.Dimensions{Width: 608, Height: 392}, dims)

	err = local.NormalizeImage(context.Background(), src, dst, image.Rect(5000, 5000, 6000, 6000), dims)
	assert.True(t, errors.Is(err, faults.ErrConfiguration))
}

func TestMeasureMovieUsesFFprobe(t *testing.T) {
	exec := &stubExecutor{output: media.Output{Stdout: []byte(`{"streams":[{"codec_type":"video","width":320,"height":240}]}`)}}
	dims, err := newLocal(exec).MeasureMovie(context.Background(), "/assets/12_jcave.mov")
	require.NoError(t, err)
	assert.Equal(t, media.Dimensions{Width: 320, Height: 240}, dims)
	require.Len(t, exec.calls, 1)
	assert.Equal(t, "ffprobe", exec.calls[0].binary)
	assert.Equal(t, "/assets/12_jcave.mov", exec.calls[0].args[len(exec.calls[0].args)-1])
}

func TestMeasureMovieWithoutVideoStream(t *testing.T) {
	exec := &stubExecutor{output: media.Output{Stdout: []byte(`{"streams":[{"codec_type":"audio"}]}`)}}
	_, err := newLocal(exec).MeasureMovie(context.Background(), "a.mov")
	assert.True(t, errors.Is(err, faults.ErrExternalTool))
}

func TestTranscodeArguments(t *testing.T) {
	dir := t.TempDir()
	exec := &stubExecutor{touchLast: true}
	local := newLocal(exec)

	gif := filepath.Join(dir, "12_jcave.gif")
	m4v := filepath.Join(dir, "12_jcave.m4v")
	require.NoError(t, local.Transcode(context.Background(), "12_jcave.mov", gif, media.GIF))
	require.NoError(t, local.Transcode(context.Background(), "12_jcave.mov", m4v, media.H264))

	assert.FileExists(t, gif)
	assert.FileExists(t, m4v)
	require.Len(t, exec.calls, 2)
	assert.Equal(t, []string{"-loglevel", "error", "-y", "-i", "12_jcave.mov"}, exec.calls[0].args[:5])
	assert.Len(t, exec.calls[0].args, 6)
	h264 := strings.Join(exec.calls[1].args, " ")
	assert.Contains(t, h264, "-an -b:v 200k -bt 240k -vcodec libx264 -crf 23")
}

func TestExtractFrameAndComposeAnimation(t *testing.T) {
	dir := t.TempDir()
	exec := &stubExecutor{touchLast: true}
	local := newLocal(exec)

	frame := filepath.Join(dir, "frame.png")
	require.NoError(t, local.ExtractFrame(context.Background(), "m.mov", frame))
	assert.Contains(t, strings.Join(exec.calls[0].args, " "), "-ss 00:00:01.000 -vframes 1")

	anim := filepath.Join(dir, "position_3_thumbnail.gif")
	require.NoError(t, local.ComposeAnimation(context.Background(), []string{"a.png", "b.png"}, anim))
	assert.Equal(t, "convert", exec.calls[1].binary)
	assert.Equal(t, []string{"-delay", "80", "-loop", "0", "a.png", "b.png"}, exec.calls[1].args[:6])
	assert.FileExists(t, anim)

	err := local.ComposeAnimation(context.Background(), nil, anim)
	assert.True(t, errors.Is(err, faults.ErrExternalTool))
}

func TestFailedToolLeavesNoOutput(t *testing.T) {
	dir := t.TempDir()
	exec := &stubExecutor{output: media.Output{ExitCode: 1, Stderr: []byte("Unknown encoder 'libx264'")}}
	dst := filepath.Join(dir, "12_jcave.m4v")

	err := newLocal(exec).Transcode(context.Background(), "12_jcave.mov", dst, media.H264)
	require.Error(t, err)
	assert.True(t, errors.Is(err, faults.ErrExternalTool))
	assert.Contains(t, err.Error(), "libx264")
	assert.NoFileExists(t, dst)
}

func TestCompareImages(t *testing.T) {
	cases := []struct {
		name    string
		output  media.Output
		want    float64
		wantErr bool
	}{
		{"identical", media.Output{Stderr: []byte("0 (0)")}, 0, false},
		{"different", media.Output{ExitCode: 1, Stderr: []byte("1234.5 (0.0188375)")}, 1234.5, false},
		{"error exit", media.Output{ExitCode: 2, Stderr: []byte("compare: image widths or heights differ")}, 0, true},
		{"unparseable", media.Output{ExitCode: 1, Stderr: []byte("compare: unable to open image")}, 0, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			exec := &stubExecutor{output: tc.output}
			score, err := newLocal(exec).CompareImages(context.Background(), "probe.png", "cand.png")
			if tc.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, faults.ErrExternalTool))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, score)
			assert.Equal(t, []string{"-metric", "RMSE", "-fuzz", "3%", "probe.png", "cand.png", "null:"}, exec.calls[0].args)
		})
	}
}

func TestMissingBinaryIsToolError(t *testing.T) {
	exec := &stubExecutor{err: errors.New("exec: \"ffprobe\": executable file not found in $PATH")}
	_, err := newLocal(exec).MeasureMovie(context.Background(), "a.mov")
	assert.True(t, errors.Is(err, faults.ErrExternalTool))
}
