package workpool_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rivendb/internal/workpool"
)

func TestBatchRespectsLimitAndWaits(t *testing.T) {
	batch := workpool.NewBatch(context.Background(), 2)
	var running, peak, done atomic.Int32
	for range 10 {
		batch.Go(func(context.Context) error {
			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
			done.Add(1)
			return nil
		})
	}
	require.NoError(t, batch.Wait())
	assert.Equal(t, int32(10), done.Load())
	assert.LessOrEqual(t, peak.Load(), int32(2))
	assert.Equal(t, 2, batch.Workers())
}

func TestBatchReturnsFirstError(t *testing.T) {
	batch := workpool.NewBatch(context.Background(), 1)
	boom := errors.New("boom")
	var after atomic.Int32
	batch.Go(func(context.Context) error { return boom })
	for range 3 {
		batch.Go(func(context.Context) error {
			after.Add(1)
			return nil
		})
	}
	assert.ErrorIs(t, batch.Wait(), boom)
	assert.Zero(t, after.Load(), "tasks submitted after a failure are skipped")
}

func TestBatchDefaultsToCPUCount(t *testing.T) {
	batch := workpool.NewBatch(context.Background(), 0)
	assert.GreaterOrEqual(t, batch.Workers(), 1)
	require.NoError(t, batch.Wait())
}
