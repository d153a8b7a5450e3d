package logging_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"rivendb/internal/config"
	"rivendb/internal/faults"
	"rivendb/internal/logging"
)

func readLog(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	return string(content)
}

func TestNewFromConfigWritesLogFile(t *testing.T) {
	cfg := config.Default()
	cfg.Paths.LogDir = t.TempDir()

	logger, err := logging.NewFromConfig(&cfg)
	if err != nil {
		t.Fatalf("NewFromConfig returned error: %v", err)
	}
	logger.Info("catalog ready")

	content := readLog(t, filepath.Join(cfg.Paths.LogDir, "rivendb.log"))
	if !strings.Contains(content, "catalog ready") {
		t.Fatalf("expected message in log file, got %q", content)
	}
}

func TestConsoleLoggerOmitsCallerForInfo(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-info.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message without caller")

	if content := readLog(t, logPath); strings.Contains(content, ".go:") {
		t.Fatalf("expected no caller information in info logs, got %q", content)
	}
}

func TestConsoleLoggerIncludesCallerForDebug(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console-debug.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "debug", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("message with caller")

	if content := readLog(t, logPath); !strings.Contains(content, "logger_test.go:") {
		t.Fatalf("expected caller information in debug logs, got %q", content)
	}
}

func TestConsoleLoggerRendersComponentAndContext(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "console.log")
	base, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ctx := logging.WithStage(logging.WithRunID(context.Background(), "run-1"), "media")
	logger := logging.WithContext(ctx, logging.NewComponentLogger(base, "mediapipe"))
	logger.Info("viewpoint thumbnail written", logging.String("viewpoint", "J/42"))

	content := readLog(t, logPath)
	for _, want := range []string{"INFO  mediapipe[media]: viewpoint thumbnail written", "run_id=run-1", "viewpoint=J/42"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
}

func TestConsoleLoggerFlattensGroups(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "groups.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "warning", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logger.Info("filtered by level")
	logger.WithGroup("probe").Warn("odd size", logging.Int("width", 10), logging.String("path", "a b.png"))

	content := readLog(t, logPath)
	if strings.Contains(content, "filtered by level") {
		t.Fatalf("info line should be filtered at warn level: %q", content)
	}
	for _, want := range []string{"WARN  odd size", "probe.width=10", `probe.path="a b.png"`} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in %q", want, content)
		}
	}
}

func TestJSONLoggerIncludesErrorKind(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "json.log")
	logger, err := logging.New(logging.Options{Format: "json", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	failure := faults.Wrap(faults.ErrReference, "map", "resolve neighbor", "unknown viewpoint", errors.New("J/999"))
	logger.Error("build failed", logging.Error(failure))

	line := strings.TrimSpace(readLog(t, logPath))
	var payload map[string]any
	if err := json.Unmarshal([]byte(line), &payload); err != nil {
		t.Fatalf("decode json log line %q: %v", line, err)
	}
	if payload["level"] != "error" {
		t.Fatalf("expected lower-case level, got %v", payload["level"])
	}
	if payload[logging.FieldErrorKind] != "reference" {
		t.Fatalf("expected error kind reference, got %v", payload[logging.FieldErrorKind])
	}
	if _, ok := payload["ts"]; !ok {
		t.Fatalf("expected ts field in %v", payload)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWarnWithContextInjectsDefaults(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "warn.log")
	logger, err := logging.New(logging.Options{Format: "console", Level: "info", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	logging.WarnWithContext(logger, "multiple neighbor targets", "map_multi_target",
		logging.String(logging.FieldImpact, "first target used"))

	content := readLog(t, logPath)
	if !strings.Contains(content, "event_type=map_multi_target") {
		t.Fatalf("expected event type in %q", content)
	}
	if !strings.Contains(content, `impact="first target used"`) {
		t.Fatalf("expected caller-provided impact in %q", content)
	}
}

func TestNopLoggerIsSilent(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), 12) {
		t.Fatal("nop logger should never be enabled")
	}
	logging.NewComponentLogger(nil, "x").Info(fmt.Sprint("ignored"))
}
