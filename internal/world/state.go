// Package world bootstraps gameplay entities and keeps the directory that
// maps level and player identifiers to the entities standing for them.
package world

import (
	"sort"
	"sync"

	"github.com/shardfall/server/internal/core/ecs"
)

// State is the directory of long-lived gameplay entities. Collaborators
// resolve ids through it instead of searching the store.
//
// Writes happen at bootstrap or from the single script job; reads may come
// from any job, hence the lock.
type State struct {
	mu      sync.RWMutex
	levels  map[uint32]ecs.Entity
	players map[uint8]ecs.Entity
	actors  map[string]ecs.Entity
}

func NewState() *State {
	return &State{
		levels:  make(map[uint32]ecs.Entity),
		players: make(map[uint8]ecs.Entity),
		actors:  make(map[string]ecs.Entity),
	}
}

// AddLevel records the entity for levelID.
func (s *State) AddLevel(levelID uint32, e ecs.Entity) {
	s.mu.Lock()
	s.levels[levelID] = e
	s.mu.Unlock()
}

// Level returns the entity for levelID, or Null.
func (s *State) Level(levelID uint32) ecs.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.levels[levelID]
}

// AddPlayer records the entity for slot.
func (s *State) AddPlayer(slot uint8, e ecs.Entity) {
	s.mu.Lock()
	s.players[slot] = e
	s.mu.Unlock()
}

// Player returns the entity in slot, or Null.
func (s *State) Player(slot uint8) ecs.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.players[slot]
}

// Name binds a script-visible name to e. An empty name is ignored.
func (s *State) Name(name string, e ecs.Entity) {
	if name == "" {
		return
	}
	s.mu.Lock()
	s.actors[name] = e
	s.mu.Unlock()
}

// Named returns the entity bound to name, or Null.
func (s *State) Named(name string) ecs.Entity {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actors[name]
}

// LevelIDs returns every registered level id in ascending order.
func (s *State) LevelIDs() []uint32 {
	s.mu.RLock()
	ids := make([]uint32, 0, len(s.levels))
	for id := range s.levels {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// PlayerCount returns the number of registered players.
func (s *State) PlayerCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.players)
}
