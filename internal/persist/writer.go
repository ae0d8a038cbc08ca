package persist

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/shardfall/server/internal/config"
	"github.com/shardfall/server/internal/core/ecs"
	"go.uber.org/zap"
)

// Writer is the save collaborator handed to the simulation. Saves are
// queued without blocking the tick and flushed to the Store in batches
// from Run's goroutine.
type Writer struct {
	store    Store
	log      *zap.Logger
	session  uuid.UUID
	queue    chan Record
	interval time.Duration
	maxBatch int

	written atomic.Int64
	dropped atomic.Int64
	failed  atomic.Int64

	done chan struct{}
}

func NewWriter(store Store, cfg config.DatabaseConfig, log *zap.Logger) *Writer {
	size := max(cfg.QueueSize, 1)
	interval := cfg.FlushInterval
	if interval <= 0 {
		interval = time.Second
	}
	return &Writer{
		store:    store,
		log:      log,
		session:  uuid.New(),
		queue:    make(chan Record, size),
		interval: interval,
		maxBatch: size,
		done:     make(chan struct{}),
	}
}

// Session identifies this process run on every stored row.
func (w *Writer) Session() uuid.UUID { return w.session }

func (w *Writer) Written() int64 { return w.written.Load() }
func (w *Writer) Dropped() int64 { return w.dropped.Load() }
func (w *Writer) Failed() int64  { return w.failed.Load() }

func (w *Writer) SaveCheckpoint(player ecs.Entity, levelID, checkpointID uint32, frame uint64) {
	w.enqueue(Record{
		Kind:         KindCheckpoint,
		Player:       uint64(player),
		LevelID:      levelID,
		CheckpointID: checkpointID,
		Frame:        frame,
	})
}

func (w *Writer) SaveLevel(levelID uint32, status string, attempts uint16, elapsed float32, frame uint64) {
	w.enqueue(Record{
		Kind:     KindLevel,
		LevelID:  levelID,
		Status:   status,
		Attempts: attempts,
		Elapsed:  elapsed,
		Frame:    frame,
	})
}

func (w *Writer) enqueue(rec Record) {
	rec.Session = w.session
	rec.At = time.Now()
	select {
	case w.queue <- rec:
	default:
		// queue full: the tick never waits on the database
		if w.dropped.Add(1) == 1 {
			w.log.Warn("progress queue full, dropping saves", zap.Int("capacity", cap(w.queue)))
		}
	}
}

// Run flushes queued saves every interval until ctx is cancelled, then
// drains what is left and returns.
func (w *Writer) Run(ctx context.Context) {
	defer close(w.done)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	batch := make([]Record, 0, w.maxBatch)
	for {
		select {
		case rec := <-w.queue:
			batch = append(batch, rec)
			if len(batch) >= w.maxBatch {
				batch = w.flush(ctx, batch)
			}
		case <-ticker.C:
			batch = w.flush(ctx, batch)
		case <-ctx.Done():
			batch = w.drain(batch)
			finalCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			w.flush(finalCtx, batch)
			cancel()
			return
		}
	}
}

func (w *Writer) drain(batch []Record) []Record {
	for {
		select {
		case rec := <-w.queue:
			batch = append(batch, rec)
		default:
			return batch
		}
	}
}

// Wait blocks until Run has returned.
func (w *Writer) Wait() {
	<-w.done
}

func (w *Writer) flush(ctx context.Context, batch []Record) []Record {
	if len(batch) == 0 {
		return batch
	}
	if err := w.store.SaveBatch(ctx, batch); err != nil {
		w.failed.Add(int64(len(batch)))
		w.log.Error("progress flush failed", zap.Int("records", len(batch)), zap.Error(err))
	} else {
		w.written.Add(int64(len(batch)))
		w.log.Debug("progress flushed", zap.Int("records", len(batch)))
	}
	return batch[:0]
}
