package assetname_test

import (
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivendb/internal/assetname"
	"rivendb/internal/faults"
)

func TestParseSplitsParts(t *testing.T) {
	info, err := assetname.NewParser(nil).Parse("DVD/tspit/508_text_foo.4500_s1_odo_lu.png")
	require.NoError(t, err)

	assert.Equal(t, "508", info.Viewpoint)
	assert.Equal(t, "T", info.Group)
	assert.Equal(t, "png", info.Extension)
	assert.Equal(t, [][]string{{"ext", "foo"}, {"4500", "s1", "odo", "lu"}}, info.Parts)
	assert.Equal(t, "ext_foo.4500_s1_odo_lu", info.FriendlyName())
	assert.Equal(t, "T/508", info.Key())
}

func TestParseRoundTrips(t *testing.T) {
	names := []string{
		"508_text_foo.4500_s1_odo_lu.png",
		"12_jcave.mov",
		"7_b.png",
		"300_gdome_up.1.2.png",
		"a1_Rfoo__bar.png",
	}
	parser := assetname.NewParser(nil)
	for _, name := range names {
		info, err := parser.Parse(name)
		require.NoError(t, err, name)
		want := name
		// group code is case-normalized on output
		idx := strings.Index(want, "_") + 1
		want = want[:idx] + strings.ToLower(want[idx:idx+1]) + want[idx+1:]
		assert.Equal(t, want, info.CanonicalFilename())
	}
}

func TestParseRejectsMalformedNames(t *testing.T) {
	parser := assetname.NewParser(nil)
	for _, name := range []string{"noseparator.png", "508_tfoo", "_tfoo.png", "508_.png", "508_édome.png", "508_1dome.png"} {
		_, err := parser.Parse(filepath.Join("DVD", name))
		require.Error(t, err, name)
		assert.True(t, errors.Is(err, faults.ErrNaming), "expected naming error for %s, got %v", name, err)
		assert.Contains(t, err.Error(), name)
	}
}

func TestParseAppliesOverrides(t *testing.T) {
	overrides := assetname.NewOverrides("k", "DVD/bspit/44_bfoo.png")
	parser := assetname.NewParser(overrides)

	info, err := parser.Parse("/srv/riven/protected/DVD/bspit/44_bfoo.png")
	require.NoError(t, err)
	assert.Equal(t, "K", info.Group)
	assert.Equal(t, "44_bfoo.png", info.CanonicalFilename())

	other, err := parser.Parse("/srv/riven/protected/DVD/bspit/45_bfoo.png")
	require.NoError(t, err)
	assert.Equal(t, "B", other.Group)

	// suffix matching only happens on directory boundaries
	assert.False(t, overrides.Match("/srv/XDVD/bspit/44_bfoo.png"))
}

func TestReadOverridesSkipsCommentsAndBlanks(t *testing.T) {
	input := "# K'veer captures\n\nDVD/kspit/1_bdome.png\n  DVD/kspit/2_bdome.png  \n"
	overrides, err := assetname.ReadOverrides(strings.NewReader(input), "K")
	require.NoError(t, err)
	assert.Equal(t, 2, overrides.Len())
	assert.True(t, overrides.Match("DVD/kspit/2_bdome.png"))
}

func TestLoadOverridesMissingFileIsEmpty(t *testing.T) {
	overrides, err := assetname.LoadOverrides(filepath.Join(t.TempDir(), "absent.txt"), "K")
	require.NoError(t, err)
	assert.Equal(t, 0, overrides.Len())
	assert.Equal(t, "K", overrides.Group())
}

func TestCompareViewpoints(t *testing.T) {
	names := []string{"10", "9", "b", "100", "a", "09"}
	slices.SortFunc(names, assetname.CompareViewpoints)
	assert.Equal(t, []string{"09", "9", "10", "100", "a", "b"}, names)
}
