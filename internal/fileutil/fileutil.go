// Package fileutil converts between absolute paths and paths stored relative
// to the protected storage root, and holds small file helpers.
package fileutil

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"rivendb/internal/faults"
)

// Root is the protected storage root every stored path is relative to.
type Root struct {
	dir string
}

// NewRoot returns a Root for dir, made absolute.
func NewRoot(dir string) (Root, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Root{}, faults.Wrap(faults.ErrPathSafety, "fileutil", "resolve root", dir, err)
	}
	return Root{dir: filepath.Clean(abs)}, nil
}

// Dir returns the absolute root directory.
func (r Root) Dir() string {
	return r.dir
}

// Protect maps a stored relative path to its absolute location. Absolute
// inputs, inputs already carrying the root, and inputs escaping it are
// rejected.
func (r Root) Protect(rel string) (string, error) {
	if rel == "" || filepath.IsAbs(rel) {
		return "", faults.Wrap(faults.ErrPathSafety, "fileutil", "protect", "not a relative path: "+rel, nil)
	}
	cleaned := filepath.Clean(filepath.FromSlash(rel))
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", faults.Wrap(faults.ErrPathSafety, "fileutil", "protect", "escapes root: "+rel, nil)
	}
	if rootRel := strings.TrimPrefix(r.dir, string(filepath.Separator)); rootRel != "" && (cleaned == rootRel || strings.HasPrefix(cleaned, rootRel+string(filepath.Separator))) {
		return "", faults.Wrap(faults.ErrPathSafety, "fileutil", "protect", "already protected: "+rel, nil)
	}
	return filepath.Join(r.dir, cleaned), nil
}

// Unprotect maps an absolute path below the root to the slash-separated
// relative form that is stored.
func (r Root) Unprotect(abs string) (string, error) {
	if !filepath.IsAbs(abs) {
		return "", faults.Wrap(faults.ErrPathSafety, "fileutil", "unprotect", "not an absolute path: "+abs, nil)
	}
	rel, err := filepath.Rel(r.dir, filepath.Clean(abs))
	if err != nil {
		return "", faults.Wrap(faults.ErrPathSafety, "fileutil", "unprotect", abs, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", faults.Wrap(faults.ErrPathSafety, "fileutil", "unprotect", "outside root "+r.dir+": "+abs, nil)
	}
	return filepath.ToSlash(rel), nil
}

// SwapExtension replaces the extension of path with ext (no leading dot).
func SwapExtension(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + strings.TrimPrefix(ext, ".")
}

// Exists reports whether path exists. Errors other than not-exist count as
// existing so callers never overwrite something they cannot inspect.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil || !errors.Is(err, os.ErrNotExist)
}
