// Package event implements event entities: short-lived entities that carry
// one payload component from a producer system to exactly one consuming
// system, which destroys them in the same tick.
package event

import "github.com/shardfall/server/internal/core/ecs"

// Meta marks an entity as an event entity and records the frame that
// emitted it.
type Meta struct {
	Frame uint64
}

// Emit queues a new event entity carrying payload on cb.
func Emit[T any](cb *ecs.CommandBuffer, frame uint64, payload T) ecs.DeferredEntity {
	ev := cb.CreateEntity()
	ecs.AddComponent(cb, ev, Meta{Frame: frame})
	ecs.AddComponent(cb, ev, payload)
	return ev
}

// Spawn creates an event entity directly. It is for bootstrap code and
// tests that run outside a tick.
func Spawn[T any](w *ecs.World, frame uint64, payload T) ecs.Entity {
	ev := w.Create()
	ecs.Set(w, ev, Meta{Frame: frame})
	ecs.Set(w, ev, payload)
	return ev
}

// All matches every live event entity.
func All() ecs.Query {
	return ecs.Q(ecs.With[Meta]())
}

// Of matches event entities carrying a T payload.
func Of[T any]() ecs.Query {
	return ecs.Q(ecs.With[Meta](), ecs.With[T]())
}
