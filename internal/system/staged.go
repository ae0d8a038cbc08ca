package system

import (
	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/event"
)

// staged carries component writes made earlier in the same serial job so
// that later events in that job read them instead of the phase view.
// Writes of the running handler stay pending until it returns; a handler
// that panics has its buffered commands rolled back, and its pending
// writes are dropped with them.
type staged[T any] struct {
	committed map[ecs.Entity]T
	pending   map[ecs.Entity]T
}

func newStaged[T any]() *staged[T] {
	return &staged[T]{committed: make(map[ecs.Entity]T), pending: make(map[ecs.Entity]T)}
}

func (s *staged[T]) get(v ecs.View, e ecs.Entity) (T, bool) {
	if c, ok := s.pending[e]; ok {
		return c, true
	}
	if c, ok := s.committed[e]; ok {
		return c, true
	}
	return ecs.Get[T](v, e)
}

// put queues c as an upsert on cb and remembers it.
func (s *staged[T]) put(cb *ecs.CommandBuffer, e ecs.Entity, c T) {
	ecs.AddComponent(cb, e, c)
	s.pending[e] = c
}

func (s *staged[T]) begin() { clear(s.pending) }

func (s *staged[T]) commit() {
	for e, c := range s.pending {
		s.committed[e] = c
	}
	clear(s.pending)
}

type stagedUnit interface {
	begin()
	commit()
}

// atomically wraps fn so that the overlays in units only keep what fn
// wrote once it returns normally.
func atomically[T any](fn event.Handler[T], units ...stagedUnit) event.Handler[T] {
	return func(ev ecs.Entity, payload T, v ecs.View, cb *ecs.CommandBuffer) {
		for _, u := range units {
			u.begin()
		}
		fn(ev, payload, v, cb)
		for _, u := range units {
			u.commit()
		}
	}
}
