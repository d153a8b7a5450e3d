package main

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rivendb/internal/config"
	"rivendb/internal/media"
	"rivendb/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	tools      *testsupport.FakeToolkit
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	configPath := filepath.Join(base, "rivendb.toml")
	writeTestConfig(t, configPath, cfg)

	tools := testsupport.NewFakeToolkit()
	previous := newToolkit
	newToolkit = func(*config.Config, *slog.Logger) media.Toolkit { return tools }
	t.Cleanup(func() { newToolkit = previous })

	return &cliTestEnv{cfg: cfg, tools: tools, configPath: configPath, baseDir: base}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
protected_dir = %q
asset_subdir = %q
database = %q
map_file = %q
objects_file = %q
group_overrides_file = %q
log_dir = %q

[catalog]
workers = 2

[logging]
level = "error"
`,
		cfg.Paths.ProtectedDir,
		cfg.Paths.AssetSubdir,
		cfg.Paths.Database,
		cfg.Paths.MapFile,
		cfg.Paths.ObjectsFile,
		cfg.Paths.GroupOverridesFile,
		cfg.Paths.LogDir,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
