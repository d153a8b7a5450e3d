package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeCatalog()
	c.normalizeMedia()
	c.normalizeMatch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	fields := []struct {
		key   string
		value *string
	}{
		{"paths.protected_dir", &c.Paths.ProtectedDir},
		{"paths.database", &c.Paths.Database},
		{"paths.map_file", &c.Paths.MapFile},
		{"paths.objects_file", &c.Paths.ObjectsFile},
		{"paths.group_overrides_file", &c.Paths.GroupOverridesFile},
		{"paths.log_dir", &c.Paths.LogDir},
	}
	for _, field := range fields {
		expanded, err := expandPath(strings.TrimSpace(*field.value))
		if err != nil {
			return fmt.Errorf("%s: %w", field.key, err)
		}
		*field.value = expanded
	}
	c.Paths.AssetSubdir = strings.Trim(strings.TrimSpace(c.Paths.AssetSubdir), "/")
	return nil
}

func (c *Config) normalizeCatalog() {
	c.Catalog.ImageExtension = normalizeExtension(c.Catalog.ImageExtension, defaultImageExtension)
	c.Catalog.MovieExtension = normalizeExtension(c.Catalog.MovieExtension, defaultMovieExtension)
	c.Catalog.ExcludedDirs = trimList(c.Catalog.ExcludedDirs)
	c.Catalog.ExcludedNames = trimList(c.Catalog.ExcludedNames)
	c.Catalog.OverrideGroup = strings.ToUpper(strings.TrimSpace(c.Catalog.OverrideGroup))
	if c.Catalog.OverrideGroup == "" {
		c.Catalog.OverrideGroup = defaultOverrideGroup
	}
	if c.Catalog.Workers < 0 {
		c.Catalog.Workers = 0
	}
}

func (c *Config) normalizeMedia() {
	c.Media.FrameOffset = strings.TrimSpace(c.Media.FrameOffset)
	if c.Media.FrameOffset == "" {
		c.Media.FrameOffset = defaultFrameOffset
	}
	c.Media.VideoBitrate = strings.TrimSpace(c.Media.VideoBitrate)
	if c.Media.VideoBitrate == "" {
		c.Media.VideoBitrate = defaultVideoBitrate
	}
	c.Media.VideoBufferRate = strings.TrimSpace(c.Media.VideoBufferRate)
	if c.Media.VideoBufferRate == "" {
		c.Media.VideoBufferRate = defaultVideoBufferRate
	}
	binaries := []struct {
		value    *string
		fallback string
	}{
		{&c.Media.FFmpegBinary, "ffmpeg"},
		{&c.Media.FFprobeBinary, "ffprobe"},
		{&c.Media.ConvertBinary, "convert"},
		{&c.Media.CompareBinary, "compare"},
	}
	for _, bin := range binaries {
		*bin.value = strings.TrimSpace(*bin.value)
		if *bin.value == "" {
			*bin.value = bin.fallback
		}
	}
}

func (c *Config) normalizeMatch() {
	c.Match.Fuzz = strings.TrimSpace(c.Match.Fuzz)
	if c.Match.Fuzz == "" {
		c.Match.Fuzz = defaultFuzz
	}
	if c.Match.MaxCandidates <= 0 {
		c.Match.MaxCandidates = defaultMaxCandidates
	}
	if c.Match.Top <= 0 {
		c.Match.Top = defaultTop
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

func normalizeExtension(value, fallback string) string {
	value = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(value)), ".")
	if value == "" {
		return fallback
	}
	return value
}

func trimList(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
