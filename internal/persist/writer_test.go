package persist

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shardfall/server/internal/config"
	"github.com/shardfall/server/internal/core/ecs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type memStore struct {
	mu      sync.Mutex
	records []Record
	batches int
	fail    bool
}

func (m *memStore) SaveBatch(_ context.Context, records []Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return errors.New("db down")
	}
	m.batches++
	m.records = append(m.records, records...)
	return nil
}

func (m *memStore) snapshot() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Record(nil), m.records...)
}

func TestWriterFlushesOnShutdown(t *testing.T) {
	store := &memStore{}
	w := NewWriter(store, config.DatabaseConfig{QueueSize: 16, FlushInterval: time.Hour}, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)

	w.SaveCheckpoint(ecs.NewEntity(3, 1), 1, 2, 10)
	w.SaveLevel(1, "completed", 2, 41.5, 11)
	cancel()
	w.Wait()

	recs := store.snapshot()
	require.Len(t, recs, 2)
	assert.Equal(t, KindCheckpoint, recs[0].Kind)
	assert.Equal(t, uint64(ecs.NewEntity(3, 1)), recs[0].Player)
	assert.Equal(t, KindLevel, recs[1].Kind)
	assert.Equal(t, "completed", recs[1].Status)
	for _, r := range recs {
		assert.Equal(t, w.Session(), r.Session)
		assert.False(t, r.At.IsZero())
	}
	assert.Equal(t, int64(2), w.Written())
}

func TestWriterFlushesFullBatches(t *testing.T) {
	store := &memStore{}
	w := NewWriter(store, config.DatabaseConfig{QueueSize: 4, FlushInterval: time.Hour}, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	for i := 0; i < 4; i++ {
		w.SaveLevel(uint32(i), "completed", 1, 1, uint64(i))
	}
	require.Eventually(t, func() bool { return len(store.snapshot()) == 4 }, time.Second, 5*time.Millisecond)
	cancel()
	w.Wait()
}

func TestWriterDropsWhenFull(t *testing.T) {
	store := &memStore{}
	w := NewWriter(store, config.DatabaseConfig{QueueSize: 2}, zaptest.NewLogger(t))
	// Run not started: nothing drains the queue.
	for i := 0; i < 5; i++ {
		w.SaveCheckpoint(ecs.Null, 1, uint32(i), 0)
	}
	assert.Equal(t, int64(3), w.Dropped())
}

func TestWriterCountsFailures(t *testing.T) {
	store := &memStore{fail: true}
	w := NewWriter(store, config.DatabaseConfig{QueueSize: 8, FlushInterval: time.Hour}, zaptest.NewLogger(t))
	ctx, cancel := context.WithCancel(context.Background())
	go w.Run(ctx)
	w.SaveLevel(1, "completed", 1, 1, 1)
	cancel()
	w.Wait()
	assert.Equal(t, int64(1), w.Failed())
	assert.Zero(t, w.Written())
}
