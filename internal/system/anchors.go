package system

import (
	"sync"

	"github.com/shardfall/server/internal/core/ecs"
)

// UIAnchors maps objectives and missions to the entities presentation
// anchors its widgets on. Presenters register at startup; a lookup that
// finds nothing leaves the UI untouched.
type UIAnchors struct {
	mu         sync.RWMutex
	objectives map[uint32]ecs.Entity
	missions   map[ecs.Entity]ecs.Entity
}

func NewUIAnchors() *UIAnchors {
	return &UIAnchors{
		objectives: make(map[uint32]ecs.Entity),
		missions:   make(map[ecs.Entity]ecs.Entity),
	}
}

func (a *UIAnchors) RegisterObjective(objectiveID uint32, anchor ecs.Entity) {
	a.mu.Lock()
	a.objectives[objectiveID] = anchor
	a.mu.Unlock()
}

func (a *UIAnchors) RegisterMission(mission, anchor ecs.Entity) {
	a.mu.Lock()
	a.missions[mission] = anchor
	a.mu.Unlock()
}

// Objective resolves the anchor for objectiveID.
func (a *UIAnchors) Objective(objectiveID uint32) (ecs.Entity, bool) {
	if a == nil {
		return ecs.Null, false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	e, ok := a.objectives[objectiveID]
	return e, ok
}

// Mission resolves the anchor for a mission entity.
func (a *UIAnchors) Mission(mission ecs.Entity) (ecs.Entity, bool) {
	if a == nil {
		return ecs.Null, false
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	e, ok := a.missions[mission]
	return e, ok
}
