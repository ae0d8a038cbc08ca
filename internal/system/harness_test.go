package system

import (
	"sync"
	"testing"
	"time"

	"github.com/shardfall/server/internal/component"
	"github.com/shardfall/server/internal/config"
	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/event"
	"github.com/shardfall/server/internal/core/job"
	coresys "github.com/shardfall/server/internal/core/system"
	"github.com/shardfall/server/internal/data"
	"github.com/shardfall/server/internal/world"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

// recorder collects everything the UI bridge publishes.
type recorder struct {
	mu          sync.Mutex
	feedback    []component.DamageFeedbackEvent
	deaths      []component.DeathUIAnimationEvent
	collisions  []component.CollisionUIAnimationEvent
	objectives  []component.ObjectiveUIUpdateEvent
	missions    []component.MissionUIUpdateEvent
	levels      []component.LevelUIUpdateEvent
	fragments   []component.FragmentUIUpdateEvent
	resonances  []component.FragmentResonanceUIAnimationEvent
	checkpoints []component.CheckpointUIUpdateEvent
}

func record[T any](b *event.Bus, mu *sync.Mutex, dst *[]T) {
	event.Subscribe(b, func(ev T) {
		mu.Lock()
		*dst = append(*dst, ev)
		mu.Unlock()
	})
}

func (r *recorder) subscribe(b *event.Bus) {
	record(b, &r.mu, &r.feedback)
	record(b, &r.mu, &r.deaths)
	record(b, &r.mu, &r.collisions)
	record(b, &r.mu, &r.objectives)
	record(b, &r.mu, &r.missions)
	record(b, &r.mu, &r.levels)
	record(b, &r.mu, &r.fragments)
	record(b, &r.mu, &r.resonances)
	record(b, &r.mu, &r.checkpoints)
}

type savedCheckpoint struct {
	player       ecs.Entity
	level, point uint32
}

type savedLevel struct {
	level    uint32
	status   string
	attempts uint16
}

type memorySink struct {
	mu          sync.Mutex
	checkpoints []savedCheckpoint
	levels      []savedLevel
}

func (m *memorySink) SaveCheckpoint(player ecs.Entity, levelID, checkpointID uint32, _ uint64) {
	m.mu.Lock()
	m.checkpoints = append(m.checkpoints, savedCheckpoint{player, levelID, checkpointID})
	m.mu.Unlock()
}

func (m *memorySink) SaveLevel(levelID uint32, status string, attempts uint16, _ float32, _ uint64) {
	m.mu.Lock()
	m.levels = append(m.levels, savedLevel{levelID, status, attempts})
	m.mu.Unlock()
}

type harness struct {
	t      *testing.T
	runner *coresys.Runner
	world  *ecs.World
	deps   *Deps
	guard  *LeakGuard
	sched  *job.Scheduler
	ui     *recorder
	last   coresys.TickStats
}

type option func(*Deps)

func withSink(s ProgressSink) option   { return func(d *Deps) { d.Progress = s } }
func withScript(s ScriptSource) option { return func(d *Deps) { d.Script = s } }
func withLog(l *zap.Logger) option     { return func(d *Deps) { d.Log = l } }

var testLevels = data.NewLevelTable([]data.LevelDef{{
	ID:                 1,
	Name:               "gate",
	RequiredObjectives: 2,
	Fragments:          4,
	ResonanceThreshold: 3,
	Objectives:         []data.ObjectiveDef{{ID: 11, Target: 1}, {ID: 12, Target: 5}, {ID: 13, Target: 1}},
	Checkpoints:        []data.CheckpointDef{{ID: 7, Position: [3]float32{4, 0, 2}}},
}})

func newHarness(t *testing.T, opts ...option) *harness {
	t.Helper()
	w := ecs.NewWorld(256)
	deps := &Deps{
		Log:     zaptest.NewLogger(t),
		Events:  event.NewRegistry(),
		Bus:     event.NewBus(),
		Combat:  config.CombatConfig{MaxResistance: 0.75, CriticalMultiplier: 1.5},
		Levels:  testLevels,
		State:   world.NewState(),
		Anchors: NewUIAnchors(),
	}
	for _, o := range opts {
		o(deps)
	}
	sched := job.NewScheduler(4, 3, deps.Log)
	h := &harness{t: t, world: w, deps: deps, sched: sched, ui: &recorder{}}
	h.ui.subscribe(deps.Bus)
	h.runner = coresys.NewRunner(w, sched, deps.Log)
	guard, err := Install(h.runner, deps)
	require.NoError(t, err)
	h.guard = guard
	return h
}

func (h *harness) tick() coresys.TickStats {
	h.t.Helper()
	stats, err := h.runner.Tick(16 * time.Millisecond)
	require.NoError(h.t, err)
	require.True(h.t, h.world.View().Query(event.All()).IsEmpty(), "event survived tick %d", stats.Frame)
	h.last = stats
	return stats
}

func (h *harness) health(e ecs.Entity) component.Health {
	h.t.Helper()
	hp, ok := ecs.Get[component.Health](h.world, e)
	require.True(h.t, ok)
	return hp
}

func spawn[T any](h *harness, payload T) ecs.Entity {
	return event.Spawn(h.world, h.runner.Frame(), payload)
}
