package world

import (
	"github.com/shardfall/server/internal/component"
	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/data"
)

// Spawning mutates the World directly and is only valid outside a tick.

// SpawnLevel creates the level entity for def with its progress counters
// and records it in s.
func (s *State) SpawnLevel(w *ecs.World, def *data.LevelDef) ecs.Entity {
	e := w.Create()
	ecs.Set(w, e, component.LevelState{LevelID: def.ID, Status: component.LevelIdle})
	ecs.Set(w, e, component.MissionProgress{MissionID: def.ID, Required: def.RequiredObjectives})
	s.AddLevel(def.ID, e)
	s.Name(def.Name, e)
	return e
}

// SpawnPlayer creates the player in slot. With a level def the fragment
// inventory is sized for that level.
func (s *State) SpawnPlayer(w *ecs.World, slot uint8, hp float32, def *data.LevelDef) ecs.Entity {
	e := w.Create()
	ecs.Set(w, e, component.Player{Slot: slot})
	ecs.Set(w, e, component.Health{Current: hp, Max: hp})
	ecs.Set(w, e, component.KillCount{})
	ecs.Set(w, e, component.CheckpointState{})
	inv := component.FragmentInventory{}
	if def != nil {
		inv.Total = def.Fragments
		inv.Threshold = def.ResonanceThreshold
	}
	ecs.Set(w, e, inv)
	s.AddPlayer(slot, e)
	return e
}

// SpawnCombatant creates a damageable entity. A zero defense attaches no
// Defense component. name may be empty.
func (s *State) SpawnCombatant(w *ecs.World, name string, hp float32, def component.Defense) ecs.Entity {
	e := w.Create()
	ecs.Set(w, e, component.Health{Current: hp, Max: hp})
	if def != (component.Defense{}) {
		ecs.Set(w, e, def)
	}
	s.Name(name, e)
	return e
}

// Bootstrap spawns one level entity per definition in tbl.
func (s *State) Bootstrap(w *ecs.World, tbl *data.LevelTable) int {
	n := 0
	for _, id := range tbl.IDs() {
		s.SpawnLevel(w, tbl.Get(id))
		n++
	}
	return n
}
