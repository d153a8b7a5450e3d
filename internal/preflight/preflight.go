package preflight

import (
	"fmt"
	"strings"

	"rivendb/internal/config"
	"rivendb/internal/deps"
	"rivendb/internal/faults"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name     string
	Passed   bool
	Optional bool
	Detail   string
}

// RunAll executes every preflight check for the given config: storage
// paths and documents first, then the media binaries.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return append(storageChecks(cfg), toolChecks(cfg)...)
}

// Failed returns the failing, non-optional results.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed && !r.Optional {
			failed = append(failed, r)
		}
	}
	return failed
}

// Require runs every check. A storage failure is a configuration error and
// takes precedence over a missing binary.
func Require(cfg *config.Config) error {
	if cfg == nil {
		return faults.Wrap(faults.ErrConfiguration, "preflight", "require", "config is nil", nil)
	}
	if failed := Failed(storageChecks(cfg)); len(failed) > 0 {
		return faults.Wrap(faults.ErrConfiguration, "preflight", "storage", describe(failed), nil)
	}
	if failed := Failed(toolChecks(cfg)); len(failed) > 0 {
		return faults.Wrap(faults.ErrExternalTool, "preflight", "tools", describe(failed), nil)
	}
	return nil
}

func storageChecks(cfg *config.Config) []Result {
	return []Result{
		CheckDirectoryAccess("Protected root", cfg.Paths.ProtectedDir),
		CheckDirectoryAccess("Asset root", cfg.AssetRoot()),
		CheckDatabaseDir(cfg.Paths.Database),
		CheckDocument("Map document", cfg.Paths.MapFile, true),
		CheckDocument("Object document", cfg.Paths.ObjectsFile, true),
		CheckDocument("Group overrides", cfg.Paths.GroupOverridesFile, true),
	}
}

func toolChecks(cfg *config.Config) []Result {
	statuses := CheckSystemDeps(cfg)
	results := make([]Result, 0, len(statuses))
	for _, status := range statuses {
		results = append(results, fromStatus(status))
	}
	return results
}

func describe(failed []Result) string {
	parts := make([]string, 0, len(failed))
	for _, r := range failed {
		parts = append(parts, fmt.Sprintf("%s: %s", r.Name, r.Detail))
	}
	return strings.Join(parts, "; ")
}

func fromStatus(status deps.Status) Result {
	result := Result{Name: status.Name, Passed: status.Available, Optional: status.Optional}
	if status.Available {
		result.Detail = status.Path
	} else {
		result.Detail = status.Detail
	}
	return result
}
