package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"rivendb/internal/faults"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains file and directory locations.
type Paths struct {
	ProtectedDir       string `toml:"protected_dir"`
	AssetSubdir        string `toml:"asset_subdir"`
	Database           string `toml:"database"`
	MapFile            string `toml:"map_file"`
	ObjectsFile        string `toml:"objects_file"`
	GroupOverridesFile string `toml:"group_overrides_file"`
	LogDir             string `toml:"log_dir"`
}

// Catalog contains asset discovery settings.
type Catalog struct {
	ImageExtension string   `toml:"image_extension"`
	MovieExtension string   `toml:"movie_extension"`
	ExcludedDirs   []string `toml:"excluded_dirs"`
	ExcludedNames  []string `toml:"excluded_names"`
	OverrideGroup  string   `toml:"override_group"`
	Workers        int      `toml:"workers"`
}

// Media contains derivative media constants and external tool names.
type Media struct {
	FullSizeWidth    int     `toml:"full_size_width"`
	FullSizeHeight   int     `toml:"full_size_height"`
	ThumbnailScale   float64 `toml:"thumbnail_scale"`
	Thumbnail2xScale float64 `toml:"thumbnail2x_scale"`
	FrameOffset      string  `toml:"frame_offset"`
	AnimationDelay   int     `toml:"animation_delay"`
	VideoBitrate     string  `toml:"video_bitrate"`
	VideoBufferRate  string  `toml:"video_buffer_rate"`
	VideoCRF         int     `toml:"video_crf"`
	FFmpegBinary     string  `toml:"ffmpeg_binary"`
	FFprobeBinary    string  `toml:"ffprobe_binary"`
	ConvertBinary    string  `toml:"convert_binary"`
	CompareBinary    string  `toml:"compare_binary"`
}

// Match contains similarity search settings.
type Match struct {
	CropLeft       int    `toml:"crop_left"`
	CropTop        int    `toml:"crop_top"`
	CropWidth      int    `toml:"crop_width"`
	CropHeight     int    `toml:"crop_height"`
	Fuzz           string `toml:"fuzz"`
	MaxCandidates  int    `toml:"max_candidates"`
	Top            int    `toml:"top"`
	PHashPrefilter bool   `toml:"phash_prefilter"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for rivendb.
//
// Configuration sections by subsystem:
//   - Paths: protected storage root, documents, database and logs
//   - Catalog: asset discovery filters and worker count
//   - Media: thumbnail and transcode constants, tool binaries
//   - Match: probe crop rectangle and candidate limits
//   - Logging: log format and level
type Config struct {
	Paths   Paths   `toml:"paths"`
	Catalog Catalog `toml:"catalog"`
	Media   Media   `toml:"media"`
	Match   Match   `toml:"match"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/rivendb/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned
// config has every path expanded to an absolute path. Failures carry
// faults.ErrConfiguration.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, faults.Wrap(faults.ErrConfiguration, "config", "resolve", path, err)
	}

	if exists {
		if err := decodeFile(resolvedPath, &cfg); err != nil {
			return nil, "", false, faults.Wrap(faults.ErrConfiguration, "config", "parse", resolvedPath, err)
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, faults.Wrap(faults.ErrConfiguration, "config", "normalize", resolvedPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, faults.Wrap(faults.ErrConfiguration, "config", "validate", resolvedPath, err)
	}

	return &cfg, resolvedPath, exists, nil
}

// decodeFile rejects unknown keys so a misspelled setting is not silently
// replaced by its default.
func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	return toml.NewDecoder(file).DisallowUnknownFields().Decode(cfg)
}

// resolveConfigPath returns the first existing candidate: the explicit path
// alone when given, otherwise the per-user file then ./rivendb.toml. With
// no file present it returns the first candidate and exists=false.
func resolveConfigPath(path string) (string, bool, error) {
	explicit := strings.TrimSpace(path) != ""
	var candidates []string
	if explicit {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		candidates = append(candidates, expanded)
	} else {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return "", false, err
		}
		projectPath, err := filepath.Abs("rivendb.toml")
		if err != nil {
			return "", false, err
		}
		candidates = append(candidates, defaultPath, projectPath)
	}

	for _, candidate := range candidates {
		info, err := os.Stat(candidate)
		switch {
		case errors.Is(err, os.ErrNotExist):
			continue
		case err != nil:
			return "", false, fmt.Errorf("stat config: %w", err)
		case info.IsDir():
			if explicit {
				return "", false, fmt.Errorf("config path %q is a directory", candidate)
			}
			continue
		}
		return candidate, true, nil
	}
	return candidates[0], false, nil
}

// EnsureDirectories creates the directories rivendb writes into. The protected
// root is never created here: a missing asset tree is a configuration problem.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, filepath.Dir(c.Paths.Database)}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// AssetRoot returns the directory scanned for assets.
func (c *Config) AssetRoot() string {
	if strings.TrimSpace(c.Paths.AssetSubdir) == "" {
		return c.Paths.ProtectedDir
	}
	return filepath.Join(c.Paths.ProtectedDir, c.Paths.AssetSubdir)
}

// WorkerCount returns the configured pool size, falling back to the number of CPUs.
func (c *Config) WorkerCount() int {
	if c.Catalog.Workers > 0 {
		return c.Catalog.Workers
	}
	return max(1, runtime.NumCPU())
}

// FullSizePixels is the pixel count of a full-resolution capture.
func (c *Config) FullSizePixels() int {
	return c.Media.FullSizeWidth * c.Media.FullSizeHeight
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
