package system

import (
	"github.com/shardfall/server/internal/component"
	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/event"
	"github.com/shardfall/server/internal/core/job"
	coresys "github.com/shardfall/server/internal/core/system"
)

// CollisionSystem consumes CollisionEvent. Each live participant records
// the contact; presentation gets an animation mirror. Phase: Simulation.
type CollisionSystem struct {
	events *event.Consumer[component.CollisionEvent]
}

func NewCollisionSystem(deps *Deps) (*CollisionSystem, error) {
	c, err := event.Claim[component.CollisionEvent](deps.Events, NameCollision)
	if err != nil {
		return nil, err
	}
	return &CollisionSystem{events: c}, nil
}

func (s *CollisionSystem) Spec() coresys.Spec {
	return coresys.Spec{Name: NameCollision, Phase: coresys.PhaseSimulation}
}

func (s *CollisionSystem) Update(t *coresys.Tick) job.Handle {
	return s.events.Process(t, func(_ ecs.Entity, ev component.CollisionEvent, v ecs.View, cb *ecs.CommandBuffer) {
		touch := func(self, other ecs.Entity) {
			if v.Exists(self) {
				ecs.AddComponent(cb, self, component.LastCollision{
					Other:   other,
					Point:   ev.Point,
					Impulse: ev.Impulse,
					Frame:   t.Frame,
				})
			}
		}
		touch(ev.A, ev.B)
		touch(ev.B, ev.A)
		event.Emit(cb, t.Frame, component.CollisionUIAnimationEvent{
			A: ev.A, B: ev.B, Point: ev.Point, Impulse: ev.Impulse,
		})
	})
}
