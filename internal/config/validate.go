package config

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateCatalog(); err != nil {
		return err
	}
	if err := c.validateMedia(); err != nil {
		return err
	}
	if err := c.validateMatch(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.ProtectedDir) == "" {
		return errors.New("paths.protected_dir must be set")
	}
	if strings.TrimSpace(c.Paths.Database) == "" {
		return errors.New("paths.database must be set")
	}
	if strings.Contains(c.Paths.AssetSubdir, "..") {
		return errors.New("paths.asset_subdir must stay inside paths.protected_dir")
	}
	return nil
}

func (c *Config) validateCatalog() error {
	if c.Catalog.ImageExtension == c.Catalog.MovieExtension {
		return errors.New("catalog.image_extension and catalog.movie_extension must differ")
	}
	if utf8.RuneCountInString(c.Catalog.OverrideGroup) != 1 {
		return fmt.Errorf("catalog.override_group must be a single letter, got %q", c.Catalog.OverrideGroup)
	}
	return nil
}

func (c *Config) validateMedia() error {
	if err := ensurePositiveMap(map[string]int{
		"media.full_size_width":  c.Media.FullSizeWidth,
		"media.full_size_height": c.Media.FullSizeHeight,
		"media.animation_delay":  c.Media.AnimationDelay,
		"media.video_crf":        c.Media.VideoCRF,
	}); err != nil {
		return err
	}
	if c.Media.ThumbnailScale <= 0 || c.Media.ThumbnailScale > 1 {
		return errors.New("media.thumbnail_scale must be in (0, 1]")
	}
	if c.Media.Thumbnail2xScale <= 0 || c.Media.Thumbnail2xScale > 1 {
		return errors.New("media.thumbnail2x_scale must be in (0, 1]")
	}
	return nil
}

func (c *Config) validateMatch() error {
	if err := ensurePositiveMap(map[string]int{
		"match.crop_width":  c.Match.CropWidth,
		"match.crop_height": c.Match.CropHeight,
	}); err != nil {
		return err
	}
	if c.Match.CropLeft < 0 || c.Match.CropTop < 0 {
		return errors.New("match.crop_left and match.crop_top must be >= 0")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
