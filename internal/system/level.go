package system

import (
	"github.com/shardfall/server/internal/component"
	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/event"
	"github.com/shardfall/server/internal/core/job"
	coresys "github.com/shardfall/server/internal/core/system"
	"go.uber.org/zap"
)

// LevelSystem consumes level start, completion and failure, driving the
// LevelState of the level entity. Phase: Simulation.
type LevelSystem struct {
	deps      *Deps
	start     *event.Consumer[component.LevelStartEvent]
	completed *event.Consumer[component.LevelCompletedEvent]
	failed    *event.Consumer[component.LevelFailedEvent]
}

func NewLevelSystem(deps *Deps) (*LevelSystem, error) {
	s := &LevelSystem{deps: deps}
	var err error
	if s.start, err = event.Claim[component.LevelStartEvent](deps.Events, NameLevel); err != nil {
		return nil, err
	}
	if s.completed, err = event.Claim[component.LevelCompletedEvent](deps.Events, NameLevel); err != nil {
		return nil, err
	}
	if s.failed, err = event.Claim[component.LevelFailedEvent](deps.Events, NameLevel); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *LevelSystem) Spec() coresys.Spec {
	return coresys.Spec{Name: NameLevel, Phase: coresys.PhaseSimulation}
}

func (s *LevelSystem) Update(t *coresys.Tick) job.Handle {
	if event.Pending[component.LevelStartEvent](t)+
		event.Pending[component.LevelCompletedEvent](t)+
		event.Pending[component.LevelFailedEvent](t) == 0 {
		return t.Deps
	}
	return t.Run(func(v ecs.View, cb *ecs.CommandBuffer) {
		states := newStaged[component.LevelState]()
		s.start.Drain(t, v, cb, atomically(func(_ ecs.Entity, ev component.LevelStartEvent, v ecs.View, cb *ecs.CommandBuffer) {
			st, ok := states.get(v, ev.Level)
			if !ok {
				return
			}
			if s.deps.Levels.Get(ev.LevelID) == nil {
				s.deps.Log.Warn("level start for unknown level", zap.Uint32("level", ev.LevelID))
			}
			if st, ok = startLevel(st); !ok {
				s.deps.Log.Debug("level start ignored, already completed", zap.Uint32("level", ev.LevelID))
				return
			}
			states.put(cb, ev.Level, st)
			s.mirror(t, cb, ev.Level, st, 0)
		}, states))
		s.completed.Drain(t, v, cb, atomically(func(_ ecs.Entity, ev component.LevelCompletedEvent, v ecs.View, cb *ecs.CommandBuffer) {
			st, ok := states.get(v, ev.Level)
			if !ok {
				return
			}
			if st, ok = completeLevel(st, ev.Time); !ok {
				return
			}
			states.put(cb, ev.Level, st)
			s.mirror(t, cb, ev.Level, st, ev.Time)
		}, states))
		s.failed.Drain(t, v, cb, atomically(func(_ ecs.Entity, ev component.LevelFailedEvent, v ecs.View, cb *ecs.CommandBuffer) {
			st, ok := states.get(v, ev.Level)
			if !ok || st.Status != component.LevelRunning {
				return
			}
			st.Status = component.LevelFailed
			states.put(cb, ev.Level, st)
			s.mirror(t, cb, ev.Level, st, 0)
		}, states))
	})
}

func (s *LevelSystem) mirror(t *coresys.Tick, cb *ecs.CommandBuffer, level ecs.Entity, st component.LevelState, elapsed float32) {
	event.Emit(cb, t.Frame, component.LevelUIUpdateEvent{
		Level:    level,
		LevelID:  st.LevelID,
		Status:   st.Status,
		Attempts: st.Attempts,
		Time:     elapsed,
	})
}

// startLevel begins a new attempt. A completed level stays completed.
func startLevel(st component.LevelState) (component.LevelState, bool) {
	if st.Status == component.LevelCompleted {
		return st, false
	}
	st.Status = component.LevelRunning
	st.Attempts++
	return st, true
}

// completeLevel accepts completion from any status but Completed. A level
// completed without a start on record counts as one attempt.
func completeLevel(st component.LevelState, elapsed float32) (component.LevelState, bool) {
	if st.Status == component.LevelCompleted {
		return st, false
	}
	st.Status = component.LevelCompleted
	if st.Attempts == 0 {
		st.Attempts = 1
	}
	if elapsed > 0 && (st.BestTime == 0 || elapsed < st.BestTime) {
		st.BestTime = elapsed
	}
	return st, true
}
