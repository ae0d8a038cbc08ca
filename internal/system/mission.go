package system

import (
	"github.com/shardfall/server/internal/component"
	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/event"
	"github.com/shardfall/server/internal/core/job"
	coresys "github.com/shardfall/server/internal/core/system"
)

// MissionSystem consumes MissionCompletedEvent. Phase: LateSimulation.
type MissionSystem struct {
	deps   *Deps
	events *event.Consumer[component.MissionCompletedEvent]
}

func NewMissionSystem(deps *Deps) (*MissionSystem, error) {
	c, err := event.Claim[component.MissionCompletedEvent](deps.Events, NameMission)
	if err != nil {
		return nil, err
	}
	return &MissionSystem{deps: deps, events: c}, nil
}

func (s *MissionSystem) Spec() coresys.Spec {
	return coresys.Spec{Name: NameMission, Phase: coresys.PhaseLateSimulation}
}

func (s *MissionSystem) Update(t *coresys.Tick) job.Handle {
	return s.events.Process(t, func(_ ecs.Entity, ev component.MissionCompletedEvent, v ecs.View, cb *ecs.CommandBuffer) {
		mp, _ := ecs.Get[component.MissionProgress](v, ev.Mission)
		event.Emit(cb, t.Frame, component.MissionUIUpdateEvent{
			Mission:   ev.Mission,
			MissionID: ev.MissionID,
			Completed: mp.Completed,
			Required:  mp.Required,
			Done:      true,
		})
		if anchor, ok := s.deps.Anchors.Mission(ev.Mission); ok && v.Exists(anchor) {
			ecs.AddComponent(cb, anchor, component.ObjectiveMarker{
				ObjectiveID: ev.MissionID,
				Status:      component.ObjectiveComplete,
				Progress:    1,
			})
		}
	})
}
