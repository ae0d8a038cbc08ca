package system

import (
	"github.com/shardfall/server/internal/component"
	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/event"
	"github.com/shardfall/server/internal/core/job"
	coresys "github.com/shardfall/server/internal/core/system"
)

// SaveSystem observes checkpoint activations and level completions and
// forwards them to the save collaborator. It never consumes them. Level
// starts and completions are replayed in the order LevelSystem applies
// them so that only the completion that actually lands is saved.
// Phase: Simulation.
type SaveSystem struct {
	sink        ProgressSink
	checkpoints *event.Observer[component.CheckpointActivatedEvent]
	starts      *event.Observer[component.LevelStartEvent]
	levels      *event.Observer[component.LevelCompletedEvent]
}

func NewSaveSystem(deps *Deps) *SaveSystem {
	return &SaveSystem{
		sink:        deps.Progress,
		checkpoints: event.Watch[component.CheckpointActivatedEvent](deps.Events, NameSave),
		starts:      event.Watch[component.LevelStartEvent](deps.Events, NameSave),
		levels:      event.Watch[component.LevelCompletedEvent](deps.Events, NameSave),
	}
}

func (s *SaveSystem) Spec() coresys.Spec {
	return coresys.Spec{Name: NameSave, Phase: coresys.PhaseSimulation}
}

func (s *SaveSystem) Update(t *coresys.Tick) job.Handle {
	cp := s.checkpoints.Observe(t, func(_ ecs.Entity, ev component.CheckpointActivatedEvent, v ecs.View, _ *ecs.CommandBuffer) {
		if v.Exists(ev.Player) {
			s.sink.SaveCheckpoint(ev.Player, ev.LevelID, ev.CheckpointID, t.Frame)
		}
	})
	if event.Pending[component.LevelCompletedEvent](t) == 0 {
		return cp
	}
	lv := t.Run(func(v ecs.View, cb *ecs.CommandBuffer) {
		states := map[ecs.Entity]component.LevelState{}
		lookup := func(e ecs.Entity) (component.LevelState, bool) {
			if st, ok := states[e]; ok {
				return st, true
			}
			return ecs.Get[component.LevelState](v, e)
		}
		s.starts.Scan(t, v, cb, func(_ ecs.Entity, ev component.LevelStartEvent, _ ecs.View, _ *ecs.CommandBuffer) {
			if st, ok := lookup(ev.Level); ok {
				if st, ok = startLevel(st); ok {
					states[ev.Level] = st
				}
			}
		})
		s.levels.Scan(t, v, cb, func(_ ecs.Entity, ev component.LevelCompletedEvent, _ ecs.View, _ *ecs.CommandBuffer) {
			st, ok := lookup(ev.Level)
			if !ok {
				return
			}
			if st, ok = completeLevel(st, ev.Time); !ok {
				return
			}
			states[ev.Level] = st
			s.sink.SaveLevel(ev.LevelID, component.LevelCompleted.String(), st.Attempts, ev.Time, t.Frame)
		})
	})
	return job.Combine(cp, lv)
}
