package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shardfall/server/internal/component"
	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/event"
	"github.com/shardfall/server/internal/data"
	"github.com/shardfall/server/internal/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var levels = data.NewLevelTable([]data.LevelDef{{ID: 1, Name: "gate", Fragments: 3}})

func newEngine(t *testing.T, src string) (*Engine, *world.State) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "scenario"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scenario", "test.lua"), []byte(src), 0o644))
	st := world.NewState()
	e, err := NewEngine(dir, st, levels, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e, st
}

const scenario = `
function setup()
  spawn_level(1)
  spawn_player(0, 100, 1)
  spawn("golem", 40, 80, 0, 0)
end

function on_tick(frame)
  local p = player(0)
  if frame == 1 then
    damage(named("golem"), p, 40, "physical")
    collide(p, named("golem"), 2.5, {1, 2, 3})
    level_start(1)
    objective_completed(1, 101, p)
    objective_updated(level(1), 102, 0.5, 1)
    fragment_collected(p, 9)
    checkpoint(p, 1, 2, {4, 5, 6})
  end
  if frame == 2 then
    local cur, max, dead = health(p)
    if cur == 100 and not dead and exists(p) then
      level_completed(1, 33)
    end
  end
end
`

func TestSetupSpawnsThroughState(t *testing.T) {
	e, st := newEngine(t, scenario)
	w := ecs.NewWorld(16)
	require.NoError(t, e.Setup(w))

	assert.Equal(t, 3, w.Len())
	golem := st.Named("golem")
	def, ok := ecs.Get[component.Defense](w, golem)
	require.True(t, ok)
	assert.Equal(t, float32(80), def.Physical)
	inv, ok := ecs.Get[component.FragmentInventory](w, st.Player(0))
	require.True(t, ok)
	assert.Equal(t, uint16(3), inv.Total)
	assert.True(t, w.Exists(st.Level(1)))
}

func TestOnTickEmitsEvents(t *testing.T) {
	e, st := newEngine(t, scenario)
	w := ecs.NewWorld(16)
	require.NoError(t, e.Setup(w))

	cb := ecs.NewCommandBuffer(0)
	require.NoError(t, e.OnTick(1, w.View(), cb))
	ecs.Playback(w, cb)
	assert.Equal(t, 7, e.Emitted())
	assert.Equal(t, 7, w.View().Query(event.All()).Len())

	v := w.View()
	dmg := v.Query(event.Of[component.DamageEvent]())
	require.Equal(t, 1, dmg.Len())
	ev, _ := ecs.Get[component.DamageEvent](v, dmg.At(0))
	assert.Equal(t, st.Named("golem"), ev.Target)
	assert.Equal(t, st.Player(0), ev.Source)
	assert.Equal(t, float32(40), ev.Amount)

	col := v.Query(event.Of[component.CollisionEvent]())
	require.Equal(t, 1, col.Len())
	c, _ := ecs.Get[component.CollisionEvent](v, col.At(0))
	assert.Equal(t, component.Vec3{X: 1, Y: 2, Z: 3}, c.Point)

	oc := v.Query(event.Of[component.ObjectiveCompletedEvent]())
	require.Equal(t, 1, oc.Len())
	o, _ := ecs.Get[component.ObjectiveCompletedEvent](v, oc.At(0))
	assert.Equal(t, st.Level(1), o.Mission, "level id resolves to the level entity")

	cp := v.Query(event.Of[component.CheckpointActivatedEvent]())
	require.Equal(t, 1, cp.Len())
	ca, _ := ecs.Get[component.CheckpointActivatedEvent](v, cp.At(0))
	assert.Equal(t, uint32(2), ca.CheckpointID)

	cb2 := ecs.NewCommandBuffer(0)
	require.NoError(t, e.OnTick(2, w.View(), cb2))
	ecs.Playback(w, cb2)
	assert.Equal(t, 1, w.View().Query(event.Of[component.LevelCompletedEvent]()).Len())
}

func TestProducersOutsideTickFail(t *testing.T) {
	e, _ := newEngine(t, `function setup() damage(nil, nil, 1) end`)
	err := e.Setup(ecs.NewWorld(4))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "on_tick")

	e2, _ := newEngine(t, `function on_tick() spawn("x", 1) end`)
	err = e2.OnTick(1, ecs.NewWorld(4).View(), ecs.NewCommandBuffer(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "setup")
}

func TestMissingHooksAreNoOps(t *testing.T) {
	e, _ := newEngine(t, `x = 1`)
	assert.NoError(t, e.Setup(ecs.NewWorld(4)))
	assert.NoError(t, e.OnTick(1, ecs.NewWorld(4).View(), ecs.NewCommandBuffer(0)))
	assert.Zero(t, e.Emitted())
}

func TestBadScriptFailsToLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.lua"), []byte("function ("), 0o644))
	_, err := NewEngine(dir, world.NewState(), levels, zaptest.NewLogger(t))
	assert.Error(t, err)
}

func TestSpawnLevelReusesBootstrappedLevel(t *testing.T) {
	e, st := newEngine(t, `function setup() first = spawn_level(1); second = spawn_level(1) end`)
	w := ecs.NewWorld(8)
	boot := st.SpawnLevel(w, levels.Get(1))
	require.NoError(t, e.Setup(w))

	assert.Equal(t, 1, w.Len())
	assert.Equal(t, boot, st.Level(1))
	require.NoError(t, e.LoadString(`assert(first == second)`))
}
