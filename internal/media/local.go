package media

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"  // decoder registration
	_ "image/jpeg" // decoder registration
	_ "image/png"  // decoder registration
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // decoder registration

	"rivendb/internal/config"
	"rivendb/internal/faults"
	"rivendb/internal/logging"
	"rivendb/internal/media/ffprobe"
)

// Settings holds the tool names and fixed constants Local uses.
type Settings struct {
	FFmpeg          string
	FFprobe         string
	Convert         string
	Compare         string
	FrameOffset     string
	AnimationDelay  int
	VideoBitrate    string
	VideoBufferRate string
	VideoCRF        int
	Fuzz            string
}

// SettingsFromConfig copies the media and match settings out of cfg.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		FFmpeg:          cfg.Media.FFmpegBinary,
		FFprobe:         cfg.Media.FFprobeBinary,
		Convert:         cfg.Media.ConvertBinary,
		Compare:         cfg.Media.CompareBinary,
		FrameOffset:     cfg.Media.FrameOffset,
		AnimationDelay:  cfg.Media.AnimationDelay,
		VideoBitrate:    cfg.Media.VideoBitrate,
		VideoBufferRate: cfg.Media.VideoBufferRate,
		VideoCRF:        cfg.Media.VideoCRF,
		Fuzz:            cfg.Match.Fuzz,
	}
}

// Option configures Local.
type Option func(*Local)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(l *Local) {
		if exec != nil {
			l.exec = exec
		}
	}
}

// Local implements Toolkit with imaging plus external binaries.
type Local struct {
	settings Settings
	exec     Executor
	logger   *slog.Logger
}

// NewLocal constructs a Local toolkit.
func NewLocal(settings Settings, logger *slog.Logger, opts ...Option) *Local {
	l := &Local{
		settings: settings,
		exec:     commandExecutor{},
		logger:   logging.NewComponentLogger(logger, "media"),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// MeasureImage reads only the image header.
func (l *Local) MeasureImage(_ context.Context, path string) (Dimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return Dimensions{}, faults.Wrap(faults.ErrExternalTool, "media", "measure image", path, err)
	}
	defer file.Close()

	cfg, _, err := image.DecodeConfig(file)
	if err != nil {
		return Dimensions{}, faults.Wrap(faults.ErrExternalTool, "media", "measure image", path, err)
	}
	return Dimensions{Width: cfg.Width, Height: cfg.Height}, nil
}

// MeasureMovie asks ffprobe for the first video stream's frame size.
func (l *Local) MeasureMovie(ctx context.Context, path string) (Dimensions, error) {
	out, err := l.run(ctx, "measure movie", l.settings.FFprobe, ffprobe.Args(path))
	if err != nil {
		return Dimensions{}, err
	}
	result, err := ffprobe.Decode(out.Stdout)
	if err != nil {
		return Dimensions{}, faults.Wrap(faults.ErrExternalTool, "media", "measure movie", path, err)
	}
	w, h, ok := result.VideoDimensions()
	if !ok {
		return Dimensions{}, faults.Wrap(faults.ErrExternalTool, "media", "measure movie", "no video stream in "+path, nil)
	}
	return Dimensions{Width: w, Height: h}, nil
}

// ScaleImage resizes with Catmull-Rom (bicubic) resampling.
func (l *Local) ScaleImage(_ context.Context, src, dst string, scale float64) error {
	img, err := imaging.Open(src)
	if err != nil {
		return faults.Wrap(faults.ErrExternalTool, "media", "scale image", src, err)
	}
	bounds := img.Bounds()
	width := int(float64(bounds.Dx()) * scale)
	height := int(float64(bounds.Dy()) * scale)
	if width <= 0 || height <= 0 {
		return faults.Wrap(faults.ErrExternalTool, "media", "scale image",
			fmt.Sprintf("%s scaled by %g is empty", src, scale), nil)
	}
	return l.save(imaging.Resize(img, width, height, imaging.CatmullRom), dst, "scale image")
}

// ExtractFrame grabs one frame at the configured offset.
func (l *Local) ExtractFrame(ctx context.Context, movie, dst string) error {
	return l.produce(ctx, "extract frame", dst, func(tmp string) (string, []string) {
		return l.settings.FFmpeg, []string{"-loglevel", "error", "-y", "-i", movie,
			"-ss", l.settings.FrameOffset, "-vframes", "1", tmp}
	})
}

// ComposeAnimation builds a looping GIF with ImageMagick.
func (l *Local) ComposeAnimation(ctx context.Context, frames []string, dst string) error {
	if len(frames) == 0 {
		return faults.Wrap(faults.ErrExternalTool, "media", "compose animation", "no frames for "+dst, nil)
	}
	return l.produce(ctx, "compose animation", dst, func(tmp string) (string, []string) {
		args := []string{"-delay", strconv.Itoa(l.settings.AnimationDelay), "-loop", "0"}
		args = append(args, frames...)
		return l.settings.Convert, append(args, tmp)
	})
}

// Transcode converts movie to a GIF or H.264 web video.
func (l *Local) Transcode(ctx context.Context, movie, dst string, format Format) error {
	return l.produce(ctx, "transcode "+format.String(), dst, func(tmp string) (string, []string) {
		args := []string{"-loglevel", "error", "-y", "-i", movie}
		if format == H264 {
			args = append(args, "-an", "-b:v", l.settings.VideoBitrate, "-bt", l.settings.VideoBufferRate,
				"-vcodec", "libx264", "-crf", strconv.Itoa(l.settings.VideoCRF))
		}
		return l.settings.FFmpeg, append(args, tmp)
	})
}

// NormalizeImage crops then resizes, clamping crop to the source bounds.
func (l *Local) NormalizeImage(_ context.Context, src, dst string, crop image.Rectangle, size Dimensions) error {
	img, err := imaging.Open(src)
	if err != nil {
		return faults.Wrap(faults.ErrExternalTool, "media", "normalize image", src, err)
	}
	region := crop.Intersect(img.Bounds())
	if region.Empty() {
		return faults.Wrap(faults.ErrConfiguration, "media", "normalize image",
			fmt.Sprintf("crop %v lies outside %s (%v)", crop, src, img.Bounds()), nil)
	}
	cropped := imaging.Crop(img, region)
	return l.save(imaging.Resize(cropped, size.Width, size.Height, imaging.CatmullRom), dst, "normalize image")
}

// CompareImages runs `compare -metric RMSE -fuzz <fuzz>` and parses the score.
// compare exits 1 when images differ, which is not a failure.
func (l *Local) CompareImages(ctx context.Context, a, b string) (float64, error) {
	args := []string{"-metric", "RMSE", "-fuzz", l.settings.Fuzz, a, b, "null:"}
	out, err := l.exec.Run(ctx, l.settings.Compare, args)
	if err != nil {
		return 0, faults.Wrap(faults.ErrExternalTool, "media", "compare images", b, err)
	}
	if out.ExitCode > 1 {
		return 0, faults.Wrap(faults.ErrExternalTool, "media", "compare images",
			fmt.Sprintf("%s exited %d: %s", l.settings.Compare, out.ExitCode, strings.TrimSpace(string(out.Stderr))), nil)
	}
	text := string(out.Stderr)
	if strings.TrimSpace(text) == "" {
		text = string(out.Stdout)
	}
	score, err := ParseCompareOutput(text)
	if err != nil {
		return 0, faults.Wrap(faults.ErrExternalTool, "media", "compare images", b, err)
	}
	return score, nil
}

func (l *Local) run(ctx context.Context, operation, binary string, args []string) (Output, error) {
	l.logger.Debug("running external tool", logging.String("command", binary+" "+strings.Join(args, " ")))
	out, err := l.exec.Run(ctx, binary, args)
	if err != nil {
		return out, faults.Wrap(faults.ErrExternalTool, "media", operation, binary, err)
	}
	if out.ExitCode != 0 {
		return out, faults.Wrap(faults.ErrExternalTool, "media", operation,
			fmt.Sprintf("%s exited %d: %s", binary, out.ExitCode, strings.TrimSpace(string(out.Stderr))), nil)
	}
	return out, nil
}

// produce runs a command that writes to a partial file and renames it into
// place, so an interrupted run never leaves a truncated output behind.
func (l *Local) produce(ctx context.Context, operation, dst string, build func(tmp string) (string, []string)) error {
	tmp := partialPath(dst)
	binary, args := build(tmp)
	if _, err := l.run(ctx, operation, binary, args); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return faults.Wrap(faults.ErrExternalTool, "media", operation, "publish "+dst, err)
	}
	return nil
}

func (l *Local) save(img image.Image, dst, operation string) error {
	tmp := partialPath(dst)
	if err := imaging.Save(img, tmp); err != nil {
		_ = os.Remove(tmp)
		return faults.Wrap(faults.ErrExternalTool, "media", operation, "write "+dst, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return faults.Wrap(faults.ErrExternalTool, "media", operation, "publish "+dst, err)
	}
	return nil
}

// partialPath keeps the extension so encoders pick the right format.
func partialPath(dst string) string {
	dir, base := filepath.Split(dst)
	ext := filepath.Ext(base)
	return filepath.Join(dir, "."+strings.TrimSuffix(base, ext)+".partial"+ext)
}
