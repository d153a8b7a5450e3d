package mediapipe_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivendb/internal/faults"
	"rivendb/internal/mediapipe"
	"rivendb/internal/testsupport"
)

func TestLoadExtractJobsResolvesRelativePaths(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "extraction_data.json")
	testsupport.WriteFile(t, manifest, `[
  {"infile": "game/dome.png", "outfile": "site/img/dome.png", "scale": 0.5},
  {"infile": "/abs/book.png", "outfile": "/abs/out/book.png", "scale": 1}
]`)

	jobs, err := mediapipe.LoadExtractJobs(manifest)
	require.NoError(t, err)
	require.Len(t, jobs, 2)
	assert.Equal(t, filepath.Join(dir, "game", "dome.png"), jobs[0].In)
	assert.Equal(t, filepath.Join(dir, "site", "img", "dome.png"), jobs[0].Out)
	assert.Equal(t, 0.5, jobs[0].Scale)
	assert.Equal(t, "/abs/book.png", jobs[1].In)
}

func TestLoadExtractJobsRejectsBadEntries(t *testing.T) {
	dir := t.TempDir()
	for name, body := range map[string]string{
		"syntax":  `[{`,
		"missing": `[{"infile": "a.png", "scale": 1}]`,
		"scale":   `[{"infile": "a.png", "outfile": "b.png", "scale": 0}]`,
	} {
		t.Run(name, func(t *testing.T) {
			manifest := filepath.Join(dir, name+".json")
			testsupport.WriteFile(t, manifest, body)
			_, err := mediapipe.LoadExtractJobs(manifest)
			require.Error(t, err)
			assert.True(t, errors.Is(err, faults.ErrConfiguration))
		})
	}

	_, err := mediapipe.LoadExtractJobs(filepath.Join(dir, "absent.json"))
	assert.True(t, errors.Is(err, faults.ErrConfiguration))
}

func TestExtractCreatesDirectoriesAndAlwaysRescales(t *testing.T) {
	f := newFixture(t)
	out := filepath.Join(f.dir, "site", "nested", "dome.png")
	jobs := []mediapipe.ExtractJob{{In: filepath.Join(f.dir, "dome.png"), Out: out, Scale: 0.5}}

	require.NoError(t, f.pipe.Extract(context.Background(), jobs))
	assert.FileExists(t, out)
	require.NoError(t, f.pipe.Extract(context.Background(), jobs))
	assert.Equal(t, 2, f.tools.Count("scale"))
	assert.Equal(t, 2, f.pipe.Stats().Written)
}

func TestExtractStopsOnToolFailure(t *testing.T) {
	f := newFixture(t)
	in := filepath.Join(f.dir, "broken.png")
	f.tools.Failures[in] = faults.Wrap(faults.ErrExternalTool, "fake", "scale", in, nil)

	err := f.pipe.Extract(context.Background(), []mediapipe.ExtractJob{
		{In: in, Out: filepath.Join(f.dir, "out", "broken.png"), Scale: 1},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, faults.ErrExternalTool))
}
