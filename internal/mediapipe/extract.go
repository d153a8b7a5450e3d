package mediapipe

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"rivendb/internal/faults"
	"rivendb/internal/logging"
	"rivendb/internal/workpool"
)

// ExtractJob scales one game image into the website tree.
type ExtractJob struct {
	In    string  `json:"infile"`
	Out   string  `json:"outfile"`
	Scale float64 `json:"scale"`
}

// LoadExtractJobs reads a JSON manifest of extraction jobs. Relative paths
// resolve against the manifest's directory.
func LoadExtractJobs(path string) ([]ExtractJob, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "extract", "read manifest", path, err)
	}
	var jobs []ExtractJob
	if err := json.Unmarshal(data, &jobs); err != nil {
		return nil, faults.Wrap(faults.ErrConfiguration, "extract", "parse manifest", path, err)
	}
	dir := filepath.Dir(path)
	for i, job := range jobs {
		if job.In == "" || job.Out == "" {
			return nil, faults.Wrap(faults.ErrConfiguration, "extract", "parse manifest",
				fmt.Sprintf("entry %d needs infile and outfile", i), nil)
		}
		if job.Scale <= 0 {
			return nil, faults.Wrap(faults.ErrConfiguration, "extract", "parse manifest",
				fmt.Sprintf("entry %d has non-positive scale %v", i, job.Scale), nil)
		}
		if !filepath.IsAbs(job.In) {
			jobs[i].In = filepath.Join(dir, job.In)
		}
		if !filepath.IsAbs(job.Out) {
			jobs[i].Out = filepath.Join(dir, job.Out)
		}
	}
	return jobs, nil
}

// Extract scales every job, creating output directories as needed. Unlike
// thumbnails, outputs are always regenerated.
func (p *Pipeline) Extract(ctx context.Context, jobs []ExtractJob) error {
	reporter := p.reporter("Extracting images", len(jobs))
	defer reporter.Finish()

	batch := workpool.NewBatch(ctx, p.settings.Workers)
	for _, job := range jobs {
		batch.Go(func(ctx context.Context) error {
			defer reporter.Increment()
			if err := os.MkdirAll(filepath.Dir(job.Out), 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}
			if err := p.tools.ScaleImage(ctx, job.In, job.Out, job.Scale); err != nil {
				return err
			}
			p.written.Add(1)
			return nil
		})
	}
	if err := batch.Wait(); err != nil {
		return err
	}

	logging.WithContext(ctx, p.logger).Info("images extracted", logging.Int("count", len(jobs)))
	return nil
}
