package component

import "github.com/shardfall/server/internal/core/ecs"

// Vec3 is a world-space point.
type Vec3 struct {
	X, Y, Z float32
}

// DamageType selects which resistance applies.
type DamageType uint8

const (
	DamagePhysical DamageType = iota
	DamageElemental
	DamageEnergy
)

func (t DamageType) String() string {
	switch t {
	case DamagePhysical:
		return "physical"
	case DamageElemental:
		return "elemental"
	case DamageEnergy:
		return "energy"
	default:
		return "unknown"
	}
}

// ParseDamageType maps a name to a DamageType, defaulting to physical.
func ParseDamageType(s string) DamageType {
	switch s {
	case "elemental":
		return DamageElemental
	case "energy":
		return DamageEnergy
	default:
		return DamagePhysical
	}
}

// Health is hit points. Current never drops below zero. IsDead is set by
// the damage handler on the lethal hit and guards against a second death.
type Health struct {
	Current float32
	Max     float32
	IsDead  bool
}

// Defense holds resistances in percent, one per damage type.
type Defense struct {
	Physical  float32
	Elemental float32
	Energy    float32
}

// Resistance returns the percentage for t.
func (d Defense) Resistance(t DamageType) float32 {
	switch t {
	case DamageElemental:
		return d.Elemental
	case DamageEnergy:
		return d.Energy
	default:
		return d.Physical
	}
}

// KillCount tallies kills credited to an entity.
type KillCount struct {
	Kills uint32
	Last  ecs.Entity
}

// LastCollision remembers the most recent contact of an entity.
type LastCollision struct {
	Other   ecs.Entity
	Point   Vec3
	Impulse float32
	Frame   uint64
}
