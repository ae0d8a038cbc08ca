// Package presentation holds the presentation collaborators: they subscribe
// to the event bus at startup and only ever read what the simulation hands
// them.
package presentation

import (
	"github.com/shardfall/server/internal/component"
	"github.com/shardfall/server/internal/core/event"
)

// Wire names of the presentation events.
const (
	KindDamage     = "damage"
	KindDeath      = "death"
	KindCollision  = "collision"
	KindObjective  = "objective"
	KindMission    = "mission"
	KindLevel      = "level"
	KindFragment   = "fragment"
	KindResonance  = "resonance"
	KindCheckpoint = "checkpoint"
)

// Sink receives every presentation event with its wire name.
type Sink interface {
	Present(kind string, payload any)
}

func forward[T any](b *event.Bus, s Sink, kind string) {
	event.Subscribe(b, func(ev T) { s.Present(kind, ev) })
}

// Attach subscribes s to every presentation event type on b.
func Attach(b *event.Bus, s Sink) {
	forward[component.DamageFeedbackEvent](b, s, KindDamage)
	forward[component.DeathUIAnimationEvent](b, s, KindDeath)
	forward[component.CollisionUIAnimationEvent](b, s, KindCollision)
	forward[component.ObjectiveUIUpdateEvent](b, s, KindObjective)
	forward[component.MissionUIUpdateEvent](b, s, KindMission)
	forward[component.LevelUIUpdateEvent](b, s, KindLevel)
	forward[component.FragmentUIUpdateEvent](b, s, KindFragment)
	forward[component.FragmentResonanceUIAnimationEvent](b, s, KindResonance)
	forward[component.CheckpointUIUpdateEvent](b, s, KindCheckpoint)
}
