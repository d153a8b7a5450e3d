package match

import (
	"cmp"
	"context"
	"slices"

	"github.com/ajdnik/imghash"
	"github.com/ajdnik/imghash/hashtype"
	"github.com/ajdnik/imghash/similarity"
	"github.com/disintegration/imaging"

	"rivendb/internal/faults"
	"rivendb/internal/workpool"
)

// HashFunc computes a binary perceptual hash of the image at path.
type HashFunc func(path string) (hashtype.Binary, error)

// PerceptualHash decodes path and returns its pHash.
func PerceptualHash(path string) (hashtype.Binary, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, faults.Wrap(faults.ErrExternalTool, "match", "perceptual hash", path, err)
	}
	ph := imghash.NewPHash()
	return ph.Calculate(img), nil
}

// prefilter keeps the limit candidates whose pHash is nearest the probe's.
// Ties keep path order.
func prefilter(ctx context.Context, hash HashFunc, probe string, candidates []Candidate, limit, workers int) ([]Candidate, error) {
	probeHash, err := hash(probe)
	if err != nil {
		return nil, err
	}

	distances := make([]similarity.Distance, len(candidates))
	batch := workpool.NewBatch(ctx, workers)
	for i, cand := range candidates {
		batch.Go(func(context.Context) error {
			h, err := hash(cand.Path)
			if err != nil {
				return err
			}
			distances[i] = similarity.Hamming(h, probeHash)
			return nil
		})
	}
	if err := batch.Wait(); err != nil {
		return nil, err
	}

	order := make([]int, len(candidates))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int { return cmp.Compare(distances[a], distances[b]) })

	kept := make([]Candidate, 0, limit)
	for _, idx := range order[:limit] {
		kept = append(kept, candidates[idx])
	}
	slices.SortFunc(kept, func(a, b Candidate) int { return cmp.Compare(a.Path, b.Path) })
	return kept, nil
}
