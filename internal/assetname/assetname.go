package assetname

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"rivendb/internal/faults"
)

var filenamePattern = regexp.MustCompile(`^([^_]+)_(.+)\.([^.]+)$`)

// FileInfo is the parsed form of one asset filename.
type FileInfo struct {
	// Path is the location the file was found at, as given to Parse.
	Path      string
	Viewpoint string
	// Group is the upper-case spatial-group code, after overrides.
	Group string
	// Lead is the lower-case leading character of the filename's second
	// field. It differs from Group only for overridden files.
	Lead      string
	Parts     [][]string
	Extension string
}

// JoinedParts re-joins Parts with the same delimiters Parse split on.
func (f FileInfo) JoinedParts() string {
	groups := make([]string, len(f.Parts))
	for i, part := range f.Parts {
		groups[i] = strings.Join(part, "_")
	}
	return strings.Join(groups, ".")
}

// FriendlyName is the human-readable asset name.
func (f FileInfo) FriendlyName() string {
	return f.JoinedParts()
}

// CanonicalFilename rebuilds the base filename the info was parsed from.
func (f FileInfo) CanonicalFilename() string {
	lead := f.Lead
	if lead == "" {
		lead = strings.ToLower(f.Group)
	}
	return fmt.Sprintf("%s_%s%s.%s", f.Viewpoint, lead, f.JoinedParts(), f.Extension)
}

// Key identifies the viewpoint the asset belongs to, e.g. "T/508".
func (f FileInfo) Key() string {
	return f.Group + "/" + f.Viewpoint
}

func (f FileInfo) String() string {
	return fmt.Sprintf("%s-%s: %s.%s", f.Group, f.Viewpoint, f.JoinedParts(), f.Extension)
}

// Parser decodes filenames, consulting an optional override list.
type Parser struct {
	overrides *Overrides
}

// NewParser returns a parser. A nil overrides set disables overriding.
func NewParser(overrides *Overrides) *Parser {
	return &Parser{overrides: overrides}
}

// Parse decodes the base name of path. A name that does not match the
// convention is reported as a naming error with no partial result.
func (p *Parser) Parse(path string) (FileInfo, error) {
	base := filepath.Base(path)
	m := filenamePattern.FindStringSubmatch(base)
	if m == nil {
		return FileInfo{}, faults.Wrap(faults.ErrNaming, "parse", "match filename", path, nil)
	}
	rest := m[2]
	if !isASCIILetter(rest[0]) {
		return FileInfo{}, faults.Wrap(faults.ErrNaming, "parse", "group code", path, nil)
	}
	lead := strings.ToLower(rest[:1])
	info := FileInfo{
		Path:      path,
		Viewpoint: m[1],
		Group:     strings.ToUpper(rest[:1]),
		Lead:      lead,
		Extension: m[3],
	}
	if p != nil && p.overrides.Match(path) {
		info.Group = p.overrides.Group()
	}
	for _, group := range strings.Split(rest[1:], ".") {
		info.Parts = append(info.Parts, strings.Split(group, "_"))
	}
	return info, nil
}

func isASCIILetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// CompareViewpoints orders viewpoint names numerically when both are
// integers and lexically otherwise; numeric names sort first.
func CompareViewpoints(a, b string) int {
	ai, aerr := strconv.Atoi(a)
	bi, berr := strconv.Atoi(b)
	switch {
	case aerr == nil && berr == nil:
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return strings.Compare(a, b)
	case aerr == nil:
		return -1
	case berr == nil:
		return 1
	}
	return strings.Compare(a, b)
}
