package system

import (
	"github.com/shardfall/server/internal/config"
	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/event"
	"github.com/shardfall/server/internal/data"
	"github.com/shardfall/server/internal/world"
	"go.uber.org/zap"
)

// Deps is everything the gameplay systems share. Optional collaborators
// may be nil; the systems that need them are then not installed.
type Deps struct {
	Log     *zap.Logger
	Events  *event.Registry
	Bus     *event.Bus
	Combat  config.CombatConfig
	Levels  *data.LevelTable
	State   *world.State
	Anchors *UIAnchors

	// Progress receives checkpoint and level-completion saves.
	Progress ProgressSink
	// Script produces this tick's events from outside the store.
	Script ScriptSource
}

// ProgressSink is the save collaborator. Calls may arrive from several
// workers at once and must not block.
type ProgressSink interface {
	SaveCheckpoint(player ecs.Entity, levelID, checkpointID uint32, frame uint64)
	SaveLevel(levelID uint32, status string, attempts uint16, elapsed float32, frame uint64)
}

// ScriptSource is the gameplay-logic collaborator driven once per tick.
type ScriptSource interface {
	OnTick(frame uint64, v ecs.View, cb *ecs.CommandBuffer) error
}
