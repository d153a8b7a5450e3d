package assetname

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Overrides is a set of file paths forced into one reserved group.
type Overrides struct {
	group string
	paths map[string]struct{}
}

// NewOverrides builds an override set from literal paths.
func NewOverrides(group string, paths ...string) *Overrides {
	o := &Overrides{group: strings.ToUpper(group), paths: make(map[string]struct{}, len(paths))}
	for _, p := range paths {
		o.add(p)
	}
	return o
}

// LoadOverrides reads one path per line from file. Blank lines and lines
// starting with '#' are ignored. A missing file yields an empty set.
func LoadOverrides(file, group string) (*Overrides, error) {
	f, err := os.Open(file)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return NewOverrides(group), nil
		}
		return nil, fmt.Errorf("open group overrides: %w", err)
	}
	defer f.Close()
	return ReadOverrides(f, group)
}

// ReadOverrides reads an override list from r.
func ReadOverrides(r io.Reader, group string) (*Overrides, error) {
	o := NewOverrides(group)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		o.add(line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read group overrides: %w", err)
	}
	return o, nil
}

func (o *Overrides) add(path string) {
	path = strings.TrimPrefix(filepath.ToSlash(filepath.Clean(path)), "./")
	if path == "" || path == "." {
		return
	}
	o.paths[path] = struct{}{}
}

// Group returns the reserved group code.
func (o *Overrides) Group() string {
	if o == nil {
		return ""
	}
	return o.group
}

// Len returns the number of listed paths.
func (o *Overrides) Len() int {
	if o == nil {
		return 0
	}
	return len(o.paths)
}

// Match reports whether path equals a listed path or ends with one at a
// directory boundary, so relative list entries match absolute walk paths.
func (o *Overrides) Match(path string) bool {
	if o == nil || len(o.paths) == 0 {
		return false
	}
	path = filepath.ToSlash(filepath.Clean(path))
	if _, ok := o.paths[path]; ok {
		return true
	}
	for i := 0; i < len(path); i++ {
		if path[i] != '/' {
			continue
		}
		if _, ok := o.paths[path[i+1:]]; ok {
			return true
		}
	}
	return false
}
