// Package workpool runs fan-out batches on a bounded number of goroutines
// and blocks at a barrier until every task of the batch has finished.
package workpool

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Batch is one fan-out/fan-in stage. The first task error cancels the
// batch context and is returned by Wait.
type Batch struct {
	group *errgroup.Group
	ctx   context.Context
	size  int
}

// NewBatch starts a batch running at most workers tasks at once. A
// non-positive workers uses one per CPU.
func NewBatch(ctx context.Context, workers int) *Batch {
	if workers <= 0 {
		workers = max(1, runtime.NumCPU())
	}
	group, gctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	return &Batch{group: group, ctx: gctx, size: workers}
}

// Go submits task, blocking while all workers are busy. Once a task has
// failed, later submissions are skipped.
func (b *Batch) Go(task func(ctx context.Context) error) {
	b.group.Go(func() error {
		if err := b.ctx.Err(); err != nil {
			return err
		}
		return task(b.ctx)
	})
}

// Wait is the barrier: it returns after every submitted task has finished.
func (b *Batch) Wait() error {
	return b.group.Wait()
}

// Workers reports the concurrency limit.
func (b *Batch) Workers() int {
	return b.size
}
