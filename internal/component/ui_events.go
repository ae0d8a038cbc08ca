package component

import "github.com/shardfall/server/internal/core/ecs"

// Presentation-facing mirrors. Simulation emits these; presentation
// collaborators only ever read them.

// DamageFeedbackEvent carries the post-mitigation damage actually applied.
type DamageFeedbackEvent struct {
	Target     ecs.Entity
	Source     ecs.Entity
	Amount     float32
	Type       DamageType
	IsCritical bool
	HitPoint   Vec3
	Lethal     bool
}

type DeathUIAnimationEvent struct {
	Dead   ecs.Entity
	Killer ecs.Entity
}

type CollisionUIAnimationEvent struct {
	A       ecs.Entity
	B       ecs.Entity
	Point   Vec3
	Impulse float32
}

type ObjectiveUIUpdateEvent struct {
	Mission     ecs.Entity
	ObjectiveID uint32
	Status      ObjectiveStatus
	Progress    float32
	Target      float32
}

type MissionUIUpdateEvent struct {
	Mission   ecs.Entity
	MissionID uint32
	Completed uint16
	Required  uint16
	Done      bool
}

type LevelUIUpdateEvent struct {
	Level    ecs.Entity
	LevelID  uint32
	Status   LevelStatus
	Attempts uint16
	Time     float32
}

type FragmentUIUpdateEvent struct {
	Collector ecs.Entity
	Collected uint16
	Total     uint16
}

type FragmentResonanceUIAnimationEvent struct {
	Collector ecs.Entity
	Count     uint16
}

type CheckpointUIUpdateEvent struct {
	Player       ecs.Entity
	CheckpointID uint32
	Activations  uint16
}
