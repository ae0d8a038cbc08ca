package system

import (
	"github.com/shardfall/server/internal/component"
	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/event"
	"github.com/shardfall/server/internal/core/job"
	coresys "github.com/shardfall/server/internal/core/system"
)

// relay consumes one presentation event type and republishes each payload
// on the bus.
type relay interface {
	pending(t *coresys.Tick) int
	drain(t *coresys.Tick, v ecs.View, cb *ecs.CommandBuffer) int
}

type relayOf[T any] struct {
	events *event.Consumer[T]
	bus    *event.Bus
}

func claimRelay[T any](deps *Deps) (relay, error) {
	c, err := event.Claim[T](deps.Events, NameUI)
	if err != nil {
		return nil, err
	}
	return relayOf[T]{events: c, bus: deps.Bus}, nil
}

func (r relayOf[T]) pending(t *coresys.Tick) int { return event.Pending[T](t) }

func (r relayOf[T]) drain(t *coresys.Tick, v ecs.View, cb *ecs.CommandBuffer) int {
	return r.events.Drain(t, v, cb, func(_ ecs.Entity, payload T, _ ecs.View, _ *ecs.CommandBuffer) {
		event.Publish(r.bus, payload)
	})
}

// UISystem is the presentation bridge: it consumes every feedback, UI
// update and UI animation event and hands the payloads to presenters
// subscribed on the bus. Publishing happens on one job in a fixed type
// order. Phase: Presentation.
type UISystem struct {
	relays []relay
}

func NewUISystem(deps *Deps) (*UISystem, error) {
	claims := []func(*Deps) (relay, error){
		claimRelay[component.DamageFeedbackEvent],
		claimRelay[component.DeathUIAnimationEvent],
		claimRelay[component.CollisionUIAnimationEvent],
		claimRelay[component.ObjectiveUIUpdateEvent],
		claimRelay[component.MissionUIUpdateEvent],
		claimRelay[component.LevelUIUpdateEvent],
		claimRelay[component.FragmentUIUpdateEvent],
		claimRelay[component.FragmentResonanceUIAnimationEvent],
		claimRelay[component.CheckpointUIUpdateEvent],
	}
	s := &UISystem{relays: make([]relay, 0, len(claims))}
	for _, claim := range claims {
		r, err := claim(deps)
		if err != nil {
			return nil, err
		}
		s.relays = append(s.relays, r)
	}
	return s, nil
}

func (s *UISystem) Spec() coresys.Spec {
	return coresys.Spec{Name: NameUI, Phase: coresys.PhasePresentation}
}

func (s *UISystem) Update(t *coresys.Tick) job.Handle {
	n := 0
	for _, r := range s.relays {
		n += r.pending(t)
	}
	if n == 0 {
		return t.Deps
	}
	return t.Run(func(v ecs.View, cb *ecs.CommandBuffer) {
		for _, r := range s.relays {
			r.drain(t, v, cb)
		}
	})
}
