package event

import (
	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/job"
	"github.com/shardfall/server/internal/core/system"
	"github.com/shardfall/server/internal/invariant"
)

// Handler processes one event. It reads through v and writes through cb;
// it must not destroy ev itself.
type Handler[T any] func(ev ecs.Entity, payload T, v ecs.View, cb *ecs.CommandBuffer)

// Consumer is the destroying side of an event type, obtained from Claim.
type Consumer[T any] struct {
	system string
	query  ecs.Query
}

// System names the claiming system.
func (c *Consumer[T]) System() string { return c.system }

// Process runs fn over every pending T event in parallel and schedules each
// event's destruction afterwards, whether fn returned early or panicked.
// With no pending events nothing is scheduled.
func (c *Consumer[T]) Process(t *system.Tick, fn Handler[T]) job.Handle {
	invariant.Assert(t.Name() == c.system, "%s processed by %q, claimed by %q", ecs.TypeOf[T]().Name(), t.Name(), c.system)
	return t.ForEach(c.query, func(ev ecs.Entity, v ecs.View, cb *ecs.CommandBuffer) {
		if payload, ok := ecs.Get[T](v, ev); ok {
			t.Guard(ev, cb, func() { fn(ev, payload, v, cb) })
		}
		cb.Destroy(ev)
	})
}

// ProcessSerial is Process on a single job, in snapshot order. Handlers
// that fold several events into the same component need it: a parallel
// closure only sees the phase view, not its siblings' writes.
func (c *Consumer[T]) ProcessSerial(t *system.Tick, fn Handler[T]) job.Handle {
	if t.View.Query(c.query).IsEmpty() {
		return t.Deps
	}
	return t.Run(func(v ecs.View, cb *ecs.CommandBuffer) {
		c.Drain(t, v, cb, fn)
	})
}

// Drain consumes every pending T event inline on the calling job and
// returns how many it destroyed. Use it from a Tick.Run job that handles
// several related event types against shared state.
func (c *Consumer[T]) Drain(t *system.Tick, v ecs.View, cb *ecs.CommandBuffer, fn Handler[T]) int {
	invariant.Assert(t.Name() == c.system, "%s drained by %q, claimed by %q", ecs.TypeOf[T]().Name(), t.Name(), c.system)
	snap := v.Query(c.query)
	for i := 0; i < snap.Len(); i++ {
		ev := snap.At(i)
		if payload, ok := ecs.Get[T](v, ev); ok {
			t.Guard(ev, cb, func() { fn(ev, payload, v, cb) })
		}
		cb.Destroy(ev)
	}
	return snap.Len()
}

// Observer is the read-only side of an event type, obtained from Watch.
type Observer[T any] struct {
	system string
	query  ecs.Query
}

// Observe runs fn over every pending T event without destroying it.
func (o *Observer[T]) Observe(t *system.Tick, fn Handler[T]) job.Handle {
	return t.ForEach(o.query, func(ev ecs.Entity, v ecs.View, cb *ecs.CommandBuffer) {
		if payload, ok := ecs.Get[T](v, ev); ok {
			fn(ev, payload, v, cb)
		}
	})
}

// Scan runs fn inline over every pending T event in snapshot order without
// destroying any. It is the observing counterpart of Drain.
func (o *Observer[T]) Scan(t *system.Tick, v ecs.View, cb *ecs.CommandBuffer, fn Handler[T]) int {
	invariant.Assert(t.Name() == o.system, "%s scanned by %q, watched by %q", ecs.TypeOf[T]().Name(), t.Name(), o.system)
	snap := v.Query(o.query)
	for i := 0; i < snap.Len(); i++ {
		ev := snap.At(i)
		if payload, ok := ecs.Get[T](v, ev); ok {
			t.Guard(ev, cb, func() { fn(ev, payload, v, cb) })
		}
	}
	return snap.Len()
}

// Pending reports how many T events the tick's view holds.
func Pending[T any](t *system.Tick) int {
	return t.View.Query(Of[T]()).Len()
}
