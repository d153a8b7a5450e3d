package preflight

import (
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"

	"rivendb/internal/config"
	"rivendb/internal/deps"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckDocument verifies that a declarative document is readable. A missing
// optional document passes with a note.
func CheckDocument(name, path string, optional bool) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) && optional {
			return Result{Name: name, Passed: true, Optional: true, Detail: fmt.Sprintf("%s (not present, skipped)", path)}
		}
		return Result{Name: name, Optional: optional, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	if info.IsDir() {
		return Result{Name: name, Optional: optional, Detail: fmt.Sprintf("%s (error: is a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK); err != nil {
		return Result{Name: name, Optional: optional, Detail: fmt.Sprintf("%s (error: not readable: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Optional: optional, Detail: path}
}

// CheckDatabaseDir verifies that the database can be replaced: its directory
// must exist or be creatable, and be writable.
func CheckDatabaseDir(path string) Result {
	const name = "Database directory"
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (will be created)", dir)}
	}
	return CheckDirectoryAccess(name, dir)
}

// MediaRequirements lists the binaries the local media toolkit invokes.
func MediaRequirements(cfg *config.Config) []deps.Requirement {
	return []deps.Requirement{
		{Name: "FFmpeg", Command: cfg.Media.FFmpegBinary, Description: "Required for frame extraction and transcodes"},
		{Name: "FFprobe", Command: cfg.Media.FFprobeBinary, Description: "Required for movie dimensions"},
		{Name: "ImageMagick convert", Command: cfg.Media.ConvertBinary, Description: "Required for position animations"},
		{Name: "ImageMagick compare", Command: cfg.Media.CompareBinary, Description: "Required for similarity search"},
	}
}

// CheckSystemDeps evaluates the media binaries for the given config.
func CheckSystemDeps(cfg *config.Config) []deps.Status {
	return deps.CheckBinaries(MediaRequirements(cfg))
}
