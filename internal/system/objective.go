package system

import (
	"github.com/shardfall/server/internal/component"
	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/event"
	"github.com/shardfall/server/internal/core/job"
	coresys "github.com/shardfall/server/internal/core/system"
	"go.uber.org/zap"
)

// ObjectiveSystem consumes the three objective events. The first outcome of
// each objective is folded into the mission's MissionProgress; once enough objectives are
// complete a single MissionCompletedEvent follows. Phase: Simulation.
type ObjectiveSystem struct {
	deps      *Deps
	completed *event.Consumer[component.ObjectiveCompletedEvent]
	failed    *event.Consumer[component.ObjectiveFailedEvent]
	updated   *event.Consumer[component.ObjectiveUpdatedEvent]
}

func NewObjectiveSystem(deps *Deps) (*ObjectiveSystem, error) {
	s := &ObjectiveSystem{deps: deps}
	var err error
	if s.completed, err = event.Claim[component.ObjectiveCompletedEvent](deps.Events, NameObjective); err != nil {
		return nil, err
	}
	if s.failed, err = event.Claim[component.ObjectiveFailedEvent](deps.Events, NameObjective); err != nil {
		return nil, err
	}
	if s.updated, err = event.Claim[component.ObjectiveUpdatedEvent](deps.Events, NameObjective); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *ObjectiveSystem) Spec() coresys.Spec {
	return coresys.Spec{Name: NameObjective, Phase: coresys.PhaseSimulation}
}

func (s *ObjectiveSystem) Update(t *coresys.Tick) job.Handle {
	if event.Pending[component.ObjectiveCompletedEvent](t)+
		event.Pending[component.ObjectiveFailedEvent](t)+
		event.Pending[component.ObjectiveUpdatedEvent](t) == 0 {
		return t.Deps
	}
	return t.Run(func(v ecs.View, cb *ecs.CommandBuffer) {
		progress := newStaged[component.MissionProgress]()
		s.updated.Drain(t, v, cb, atomically(func(_ ecs.Entity, ev component.ObjectiveUpdatedEvent, v ecs.View, cb *ecs.CommandBuffer) {
			mp, ok := progress.get(v, ev.Mission)
			if !ok {
				return
			}
			if _, settled := mp.Outcome(ev.ObjectiveID); settled {
				return
			}
			target := ev.Target
			if target <= 0 {
				target = s.objectiveTarget(mp.MissionID, ev.ObjectiveID)
			}
			mp.LastObjective = ev.ObjectiveID
			mp.LastProgress = ev.Progress
			progress.put(cb, ev.Mission, mp)
			s.mirror(t, v, cb, ev.Mission, ev.ObjectiveID, component.ObjectiveActive, ev.Progress, target)
		}, progress))
		s.completed.Drain(t, v, cb, atomically(func(_ ecs.Entity, ev component.ObjectiveCompletedEvent, v ecs.View, cb *ecs.CommandBuffer) {
			mp, ok := progress.get(v, ev.Mission)
			if !ok || !s.settle(&mp, ev.Mission, ev.ObjectiveID, component.ObjectiveComplete) {
				return
			}
			if !mp.Done && mp.Required > 0 && mp.Completed >= mp.Required {
				mp.Done = true
				event.Emit(cb, t.Frame, component.MissionCompletedEvent{Mission: ev.Mission, MissionID: mp.MissionID})
			}
			progress.put(cb, ev.Mission, mp)
			target := s.objectiveTarget(mp.MissionID, ev.ObjectiveID)
			s.mirror(t, v, cb, ev.Mission, ev.ObjectiveID, component.ObjectiveComplete, target, target)
		}, progress))
		s.failed.Drain(t, v, cb, atomically(func(_ ecs.Entity, ev component.ObjectiveFailedEvent, v ecs.View, cb *ecs.CommandBuffer) {
			mp, ok := progress.get(v, ev.Mission)
			if !ok || !s.settle(&mp, ev.Mission, ev.ObjectiveID, component.ObjectiveFailed) {
				return
			}
			progress.put(cb, ev.Mission, mp)
			s.mirror(t, v, cb, ev.Mission, ev.ObjectiveID, component.ObjectiveFailed, mp.LastProgress, s.objectiveTarget(mp.MissionID, ev.ObjectiveID))
		}, progress))
	})
}

// settle records the first outcome of an objective. Repeats and late
// outcomes for an objective that already completed or failed are dropped.
func (s *ObjectiveSystem) settle(mp *component.MissionProgress, mission ecs.Entity, objectiveID uint32, status component.ObjectiveStatus) bool {
	if mp.Settle(objectiveID, status) {
		return true
	}
	if _, settled := mp.Outcome(objectiveID); !settled {
		s.deps.Log.Warn("objective outcome dropped, mission tracks too many objectives",
			zap.Stringer("mission", mission),
			zap.Uint32("objective", objectiveID),
			zap.Int("max", component.MaxObjectives))
	}
	return false
}

func (s *ObjectiveSystem) objectiveTarget(missionID, objectiveID uint32) float32 {
	if o := s.deps.Levels.Get(missionID).Objective(objectiveID); o != nil {
		return o.Target
	}
	return 1
}

// mirror emits the UI update and, when presentation registered an anchor
// for the objective, refreshes its marker.
func (s *ObjectiveSystem) mirror(t *coresys.Tick, v ecs.View, cb *ecs.CommandBuffer, mission ecs.Entity, objectiveID uint32, status component.ObjectiveStatus, progress, target float32) {
	event.Emit(cb, t.Frame, component.ObjectiveUIUpdateEvent{
		Mission:     mission,
		ObjectiveID: objectiveID,
		Status:      status,
		Progress:    progress,
		Target:      target,
	})
	if anchor, ok := s.deps.Anchors.Objective(objectiveID); ok && v.Exists(anchor) {
		ecs.AddComponent(cb, anchor, component.ObjectiveMarker{
			ObjectiveID: objectiveID,
			Status:      status,
			Progress:    progress,
		})
	}
}
