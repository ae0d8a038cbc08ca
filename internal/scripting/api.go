package scripting

import (
	"github.com/shardfall/server/internal/component"
	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/event"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

const entityType = "entity"

// register installs the Go API as Lua globals.
func (e *Engine) register() {
	mt := e.vm.NewTypeMetatable(entityType)
	e.vm.SetField(mt, "__tostring", e.vm.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(e.checkEntity(L, 1).String()))
		return 1
	}))
	e.vm.SetField(mt, "__eq", e.vm.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LBool(e.checkEntity(L, 1) == e.checkEntity(L, 2)))
		return 1
	}))

	api := map[string]lua.LGFunction{
		// setup only
		"spawn":        e.luaSpawn,
		"spawn_level":  e.luaSpawnLevel,
		"spawn_player": e.luaSpawnPlayer,

		// lookups, setup or tick
		"level":  e.luaLevel,
		"player": e.luaPlayer,
		"named":  e.luaNamed,
		"exists": e.luaExists,
		"health": e.luaHealth,
		"log":    e.luaLog,

		// event producers, tick only
		"damage":              e.luaDamage,
		"collide":             e.luaCollide,
		"objective_completed": e.luaObjectiveCompleted,
		"objective_failed":    e.luaObjectiveFailed,
		"objective_updated":   e.luaObjectiveUpdated,
		"level_start":         e.luaLevelStart,
		"level_completed":     e.luaLevelCompleted,
		"level_failed":        e.luaLevelFailed,
		"fragment_collected":  e.luaFragmentCollected,
		"checkpoint":          e.luaCheckpoint,
	}
	for name, fn := range api {
		e.vm.SetGlobal(name, e.vm.NewFunction(fn))
	}
}

// --- argument helpers ---

func (e *Engine) pushEntity(L *lua.LState, ent ecs.Entity) {
	if ent.IsNull() {
		L.Push(lua.LNil)
		return
	}
	ud := L.NewUserData()
	ud.Value = ent
	L.SetMetatable(ud, L.GetTypeMetatable(entityType))
	L.Push(ud)
}

// checkEntity reads argument n as an entity; nil reads as Null.
func (e *Engine) checkEntity(L *lua.LState, n int) ecs.Entity {
	switch v := L.Get(n).(type) {
	case *lua.LNilType:
		return ecs.Null
	case *lua.LUserData:
		if ent, ok := v.Value.(ecs.Entity); ok {
			return ent
		}
	}
	L.ArgError(n, "entity expected")
	return ecs.Null
}

// checkMission accepts a level entity or a level id.
func (e *Engine) checkMission(L *lua.LState, n int) ecs.Entity {
	if id, ok := L.Get(n).(lua.LNumber); ok {
		return e.state.Level(uint32(id))
	}
	return e.checkEntity(L, n)
}

func (e *Engine) reader() ecs.Reader {
	if e.ticking {
		return e.view
	}
	if e.world != nil {
		return e.world
	}
	return nil
}

func (e *Engine) requireWorld(L *lua.LState, name string) bool {
	if e.world == nil {
		L.RaiseError("%s is only callable from setup", name)
		return false
	}
	return true
}

func emit[T any](e *Engine, L *lua.LState, name string, payload T) int {
	if !e.ticking {
		L.RaiseError("%s: %v", name, ErrOutsideTick)
		return 0
	}
	event.Emit(e.cb, e.frame, payload)
	e.emitted++
	return 0
}

func vec(L *lua.LState, n int) component.Vec3 {
	t, ok := L.Get(n).(*lua.LTable)
	if !ok {
		return component.Vec3{}
	}
	return component.Vec3{
		X: float32(lua.LVAsNumber(t.RawGetInt(1))),
		Y: float32(lua.LVAsNumber(t.RawGetInt(2))),
		Z: float32(lua.LVAsNumber(t.RawGetInt(3))),
	}
}

// --- spawning ---

// spawn(name, hp, physical, elemental, energy) -> entity
func (e *Engine) luaSpawn(L *lua.LState) int {
	if !e.requireWorld(L, "spawn") {
		return 0
	}
	def := component.Defense{
		Physical:  float32(L.OptNumber(3, 0)),
		Elemental: float32(L.OptNumber(4, 0)),
		Energy:    float32(L.OptNumber(5, 0)),
	}
	e.pushEntity(L, e.state.SpawnCombatant(e.world, L.OptString(1, ""), float32(L.CheckNumber(2)), def))
	return 1
}

// spawn_level(id) -> entity; an already bootstrapped level is returned as is.
func (e *Engine) luaSpawnLevel(L *lua.LState) int {
	if !e.requireWorld(L, "spawn_level") {
		return 0
	}
	id := uint32(L.CheckNumber(1))
	if ent := e.state.Level(id); e.world.Exists(ent) {
		e.pushEntity(L, ent)
		return 1
	}
	def := e.levels.Get(id)
	if def == nil {
		L.ArgError(1, "unknown level")
		return 0
	}
	e.pushEntity(L, e.state.SpawnLevel(e.world, def))
	return 1
}

// spawn_player(slot, hp [, level_id]) -> entity
func (e *Engine) luaSpawnPlayer(L *lua.LState) int {
	if !e.requireWorld(L, "spawn_player") {
		return 0
	}
	def := e.levels.Get(uint32(L.OptNumber(3, 0)))
	e.pushEntity(L, e.state.SpawnPlayer(e.world, uint8(L.CheckNumber(1)), float32(L.CheckNumber(2)), def))
	return 1
}

// --- lookups ---

func (e *Engine) luaLevel(L *lua.LState) int {
	e.pushEntity(L, e.state.Level(uint32(L.CheckNumber(1))))
	return 1
}

func (e *Engine) luaPlayer(L *lua.LState) int {
	e.pushEntity(L, e.state.Player(uint8(L.CheckNumber(1))))
	return 1
}

func (e *Engine) luaNamed(L *lua.LState) int {
	e.pushEntity(L, e.state.Named(L.CheckString(1)))
	return 1
}

func (e *Engine) luaExists(L *lua.LState) int {
	ent := e.checkEntity(L, 1)
	switch r := e.reader().(type) {
	case ecs.View:
		L.Push(lua.LBool(r.Exists(ent)))
	case *ecs.World:
		L.Push(lua.LBool(r.Exists(ent)))
	default:
		L.Push(lua.LFalse)
	}
	return 1
}

// health(e) -> current, max, dead | nil
func (e *Engine) luaHealth(L *lua.LState) int {
	ent := e.checkEntity(L, 1)
	r := e.reader()
	if r == nil {
		L.Push(lua.LNil)
		return 1
	}
	h, ok := ecs.Get[component.Health](r, ent)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	L.Push(lua.LNumber(h.Current))
	L.Push(lua.LNumber(h.Max))
	L.Push(lua.LBool(h.IsDead))
	return 3
}

func (e *Engine) luaLog(L *lua.LState) int {
	e.log.Info("lua", zap.String("msg", L.CheckString(1)), zap.Uint64("frame", e.frame))
	return 0
}

// --- producers ---

// damage(target, source, amount [, type [, critical [, {x,y,z}]]])
func (e *Engine) luaDamage(L *lua.LState) int {
	return emit(e, L, "damage", component.DamageEvent{
		Target:     e.checkEntity(L, 1),
		Source:     e.checkEntity(L, 2),
		Amount:     float32(L.CheckNumber(3)),
		Type:       component.ParseDamageType(L.OptString(4, "physical")),
		IsCritical: L.OptBool(5, false),
		HitPoint:   vec(L, 6),
	})
}

// collide(a, b [, impulse [, {x,y,z}]])
func (e *Engine) luaCollide(L *lua.LState) int {
	return emit(e, L, "collide", component.CollisionEvent{
		A:       e.checkEntity(L, 1),
		B:       e.checkEntity(L, 2),
		Impulse: float32(L.OptNumber(3, 0)),
		Point:   vec(L, 4),
	})
}

// objective_completed(mission, objective_id [, player])
func (e *Engine) luaObjectiveCompleted(L *lua.LState) int {
	return emit(e, L, "objective_completed", component.ObjectiveCompletedEvent{
		Mission:     e.checkMission(L, 1),
		ObjectiveID: uint32(L.CheckNumber(2)),
		Player:      e.checkEntity(L, 3),
	})
}

// objective_failed(mission, objective_id [, reason])
func (e *Engine) luaObjectiveFailed(L *lua.LState) int {
	return emit(e, L, "objective_failed", component.ObjectiveFailedEvent{
		Mission:     e.checkMission(L, 1),
		ObjectiveID: uint32(L.CheckNumber(2)),
		Reason:      uint8(L.OptNumber(3, 0)),
	})
}

// objective_updated(mission, objective_id, progress [, target])
func (e *Engine) luaObjectiveUpdated(L *lua.LState) int {
	return emit(e, L, "objective_updated", component.ObjectiveUpdatedEvent{
		Mission:     e.checkMission(L, 1),
		ObjectiveID: uint32(L.CheckNumber(2)),
		Progress:    float32(L.CheckNumber(3)),
		Target:      float32(L.OptNumber(4, 0)),
	})
}

// level_start(level_id)
func (e *Engine) luaLevelStart(L *lua.LState) int {
	id := uint32(L.CheckNumber(1))
	return emit(e, L, "level_start", component.LevelStartEvent{Level: e.state.Level(id), LevelID: id})
}

// level_completed(level_id [, seconds])
func (e *Engine) luaLevelCompleted(L *lua.LState) int {
	id := uint32(L.CheckNumber(1))
	return emit(e, L, "level_completed", component.LevelCompletedEvent{
		Level:   e.state.Level(id),
		LevelID: id,
		Time:    float32(L.OptNumber(2, 0)),
	})
}

// level_failed(level_id [, reason])
func (e *Engine) luaLevelFailed(L *lua.LState) int {
	id := uint32(L.CheckNumber(1))
	return emit(e, L, "level_failed", component.LevelFailedEvent{
		Level:   e.state.Level(id),
		LevelID: id,
		Reason:  uint8(L.OptNumber(2, 0)),
	})
}

// fragment_collected(collector, fragment_id)
func (e *Engine) luaFragmentCollected(L *lua.LState) int {
	return emit(e, L, "fragment_collected", component.FragmentCollectedEvent{
		Collector:  e.checkEntity(L, 1),
		FragmentID: uint32(L.CheckNumber(2)),
	})
}

// checkpoint(player, level_id, checkpoint_id [, {x,y,z}])
func (e *Engine) luaCheckpoint(L *lua.LState) int {
	return emit(e, L, "checkpoint", component.CheckpointActivatedEvent{
		Player:       e.checkEntity(L, 1),
		LevelID:      uint32(L.CheckNumber(2)),
		CheckpointID: uint32(L.CheckNumber(3)),
		Position:     vec(L, 4),
	})
}
