package component

import "github.com/shardfall/server/internal/core/ecs"

// Domain events. Every payload is a fixed-shape record stored inline on its
// event entity.

type DamageEvent struct {
	Target     ecs.Entity
	Source     ecs.Entity
	Amount     float32
	Type       DamageType
	IsCritical bool
	HitPoint   Vec3
}

type DeathEvent struct {
	Dead   ecs.Entity
	Killer ecs.Entity
}

// CollisionEvent is produced by the physics collaborator. The core only
// guarantees it is matched, processed and destroyed once.
type CollisionEvent struct {
	A       ecs.Entity
	B       ecs.Entity
	Point   Vec3
	Impulse float32
}

type ObjectiveCompletedEvent struct {
	Mission     ecs.Entity
	ObjectiveID uint32
	Player      ecs.Entity
}

type ObjectiveFailedEvent struct {
	Mission     ecs.Entity
	ObjectiveID uint32
	Reason      uint8
}

type ObjectiveUpdatedEvent struct {
	Mission     ecs.Entity
	ObjectiveID uint32
	Progress    float32
	Target      float32
}

type MissionCompletedEvent struct {
	Mission   ecs.Entity
	MissionID uint32
}

type LevelStartEvent struct {
	Level   ecs.Entity
	LevelID uint32
}

type LevelCompletedEvent struct {
	Level   ecs.Entity
	LevelID uint32
	Time    float32
}

type LevelFailedEvent struct {
	Level   ecs.Entity
	LevelID uint32
	Reason  uint8
}

type FragmentCollectedEvent struct {
	Collector  ecs.Entity
	FragmentID uint32
}

type FragmentResonanceEvent struct {
	Collector ecs.Entity
	Count     uint16
}

type CheckpointActivatedEvent struct {
	Player       ecs.Entity
	LevelID      uint32
	CheckpointID uint32
	Position     Vec3
}
