package config_test

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"rivendb/internal/config"
	"rivendb/internal/faults"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogs := filepath.Join(tempHome, ".local", "share", "rivendb", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if !filepath.IsAbs(cfg.Paths.ProtectedDir) {
		t.Fatalf("expected absolute protected dir, got %q", cfg.Paths.ProtectedDir)
	}
	if got := cfg.AssetRoot(); got != filepath.Join(cfg.Paths.ProtectedDir, "DVD") {
		t.Fatalf("unexpected asset root %q", got)
	}
	if cfg.FullSizePixels() != 238336 {
		t.Fatalf("expected 238336 full-size pixels, got %d", cfg.FullSizePixels())
	}
	if cfg.WorkerCount() < 1 {
		t.Fatalf("expected at least one worker, got %d", cfg.WorkerCount())
	}
	if cfg.Catalog.OverrideGroup != "K" {
		t.Fatalf("unexpected override group %q", cfg.Catalog.OverrideGroup)
	}
}

func TestLoadCustomConfigNormalizesValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rivendb.toml")

	cfg := config.Default()
	cfg.Paths.ProtectedDir = filepath.Join(dir, "protected")
	cfg.Paths.AssetSubdir = "/DVD/"
	cfg.Catalog.ImageExtension = ".PNG"
	cfg.Catalog.ExcludedDirs = []string{" Extras-MHK ", "", "Extras-MHK"}
	cfg.Catalog.OverrideGroup = "k"
	cfg.Catalog.Workers = 3
	cfg.Logging.Format = "JSON"
	cfg.Match.Top = 0

	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	loaded, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected config %q to be used, got %q (exists=%v)", path, resolved, exists)
	}
	if loaded.Paths.AssetSubdir != "DVD" {
		t.Fatalf("expected trimmed asset subdir, got %q", loaded.Paths.AssetSubdir)
	}
	if loaded.Catalog.ImageExtension != "png" {
		t.Fatalf("expected normalized extension, got %q", loaded.Catalog.ImageExtension)
	}
	if len(loaded.Catalog.ExcludedDirs) != 1 || loaded.Catalog.ExcludedDirs[0] != "Extras-MHK" {
		t.Fatalf("unexpected excluded dirs %v", loaded.Catalog.ExcludedDirs)
	}
	if loaded.Catalog.OverrideGroup != "K" {
		t.Fatalf("expected upper-cased override group, got %q", loaded.Catalog.OverrideGroup)
	}
	if loaded.WorkerCount() != 3 {
		t.Fatalf("expected 3 workers, got %d", loaded.WorkerCount())
	}
	if loaded.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", loaded.Logging.Format)
	}
	if loaded.Match.Top != 5 {
		t.Fatalf("expected default top count, got %d", loaded.Match.Top)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"same extensions", func(c *config.Config) { c.Catalog.MovieExtension = c.Catalog.ImageExtension }, "must differ"},
		{"override group", func(c *config.Config) { c.Catalog.OverrideGroup = "KV" }, "single letter"},
		{"scale", func(c *config.Config) { c.Media.ThumbnailScale = 0 }, "thumbnail_scale"},
		{"full size", func(c *config.Config) { c.Media.FullSizeWidth = 0 }, "full_size_width"},
		{"crop", func(c *config.Config) { c.Match.CropLeft = -1 }, "crop_left"},
		{"subdir escape", func(c *config.Config) { c.Paths.AssetSubdir = "../elsewhere" }, "asset_subdir"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %v", tc.want, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample file to be found")
	}
	if cfg.Match.MaxCandidates != 10000 {
		t.Fatalf("unexpected max candidates %d", cfg.Match.MaxCandidates)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rivendb.toml")
	if err := os.WriteFile(path, []byte("[paths]\nprotected_dri = \"/srv\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	_, _, _, err := config.Load(path)
	if !errors.Is(err, faults.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
