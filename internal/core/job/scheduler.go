package job

import (
	"cmp"
	"context"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/shardfall/server/internal/core/ecs"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

// EntityFunc processes one matched entity. It may read through v and must
// route every mutation through cb.
type EntityFunc func(e ecs.Entity, v ecs.View, cb *ecs.CommandBuffer)

// Func is a single-threaded job body.
type Func func(v ecs.View, cb *ecs.CommandBuffer)

// SortKey combines a job sequence number and a partition index. Keys are
// unique within one playback and do not depend on worker timing.
func SortKey(job, partition uint32) uint64 {
	return uint64(job)<<32 | uint64(partition)
}

// Scheduler runs jobs on a bounded worker pool and collects the command
// buffer shards they produce for the next playback.
//
// Schedule and ScheduleParallel must be called from one goroutine (the tick
// loop); job bodies run concurrently.
type Scheduler struct {
	workers int
	batch   int
	log     *zap.Logger
	sem     *semaphore.Weighted
	buffers sync.Pool

	nextJob uint32
	handles []Handle

	mu      sync.Mutex
	pending []*ecs.CommandBuffer

	failures atomic.Int64
}

// NewScheduler creates a scheduler. workers <= 0 means GOMAXPROCS;
// batch <= 0 means 64 entities per partition.
func NewScheduler(workers, batch int, log *zap.Logger) *Scheduler {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if batch <= 0 {
		batch = 64
	}
	s := &Scheduler{
		workers: workers,
		batch:   batch,
		log:     log,
		sem:     semaphore.NewWeighted(int64(workers)),
	}
	s.buffers.New = func() any { return ecs.NewCommandBuffer(0) }
	return s
}

func (s *Scheduler) Workers() int   { return s.workers }
func (s *Scheduler) BatchSize() int { return s.batch }

// Failures counts entity closures that panicked since the scheduler was
// created.
func (s *Scheduler) Failures() int64 { return s.failures.Load() }

func (s *Scheduler) buffer(key uint64) *ecs.CommandBuffer {
	cb := s.buffers.Get().(*ecs.CommandBuffer)
	cb.Reset(key)
	return cb
}

// ScheduleParallel partitions snap into batches and runs fn for every
// entity once deps completes. Each partition writes to its own shard keyed
// by SortKey(job, partition). An empty snapshot schedules nothing and
// returns deps.
func (s *Scheduler) ScheduleParallel(name string, v ecs.View, snap ecs.Snapshot, deps Handle, fn EntityFunc) Handle {
	if snap.IsEmpty() {
		return deps
	}
	id := s.nextJob
	s.nextJob++

	parts := (snap.Len() + s.batch - 1) / s.batch
	shards := make([]*ecs.CommandBuffer, parts)
	for p := range shards {
		shards[p] = s.buffer(SortKey(id, uint32(p)))
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		deps.Complete()

		var g errgroup.Group
		g.SetLimit(s.workers)
		for p := 0; p < parts; p++ {
			lo := p * s.batch
			hi := min(lo+s.batch, snap.Len())
			part, cb := snap.Slice(lo, hi), shards[p]
			g.Go(func() error {
				if err := s.sem.Acquire(context.Background(), 1); err != nil {
					return err
				}
				defer s.sem.Release(1)
				for i := 0; i < part.Len(); i++ {
					e := part.At(i)
					s.Guard(name, e, cb, func() { fn(e, v, cb) })
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			s.log.Error("job partitions aborted", zap.String("job", name), zap.Error(err))
		}
		s.enqueue(shards)
	}()

	h := Handle{done: done}
	s.handles = append(s.handles, h)
	return h
}

// Schedule runs fn once, on one worker, after deps completes.
func (s *Scheduler) Schedule(name string, v ecs.View, deps Handle, fn Func) Handle {
	id := s.nextJob
	s.nextJob++
	cb := s.buffer(SortKey(id, 0))

	done := make(chan struct{})
	go func() {
		defer close(done)
		deps.Complete()
		if err := s.sem.Acquire(context.Background(), 1); err != nil {
			s.log.Error("job aborted", zap.String("job", name), zap.Error(err))
			s.enqueue([]*ecs.CommandBuffer{cb})
			return
		}
		s.Guard(name, ecs.Null, cb, func() { fn(v, cb) })
		s.sem.Release(1)
		s.enqueue([]*ecs.CommandBuffer{cb})
	}()

	h := Handle{done: done}
	s.handles = append(s.handles, h)
	return h
}

// Guard runs fn as one unit of work against cb. If fn panics, everything it
// appended to cb is rolled back, the failure is logged, and false is
// returned; the caller moves on to the next entity.
func (s *Scheduler) Guard(name string, e ecs.Entity, cb *ecs.CommandBuffer, fn func()) (ok bool) {
	mark := cb.Mark()
	defer func() {
		if r := recover(); r != nil {
			cb.Rollback(mark)
			s.failures.Add(1)
			s.log.Error("job closure failed",
				zap.String("job", name),
				zap.Stringer("entity", e),
				zap.Any("panic", r))
			ok = false
		}
	}()
	fn()
	return true
}

func (s *Scheduler) enqueue(shards []*ecs.CommandBuffer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cb := range shards {
		if cb.Len() == 0 {
			s.buffers.Put(cb)
			continue
		}
		s.pending = append(s.pending, cb)
	}
}

// Complete waits for every job scheduled since the last Drain.
func (s *Scheduler) Complete() {
	for _, h := range s.handles {
		h.Complete()
	}
}

// Drain waits for all outstanding jobs and returns their non-empty shards
// in sort-key order. Job numbering restarts, so keys are only comparable
// within one drain.
func (s *Scheduler) Drain() []*ecs.CommandBuffer {
	s.Complete()
	s.handles = s.handles[:0]
	s.nextJob = 0

	s.mu.Lock()
	out := s.pending
	s.pending = nil
	s.mu.Unlock()

	slices.SortFunc(out, func(a, b *ecs.CommandBuffer) int {
		return cmp.Compare(a.SortKey(), b.SortKey())
	})
	return out
}

// Release returns played-back shards to the buffer pool.
func (s *Scheduler) Release(shards []*ecs.CommandBuffer) {
	for _, cb := range shards {
		cb.Reset(0)
		s.buffers.Put(cb)
	}
}
