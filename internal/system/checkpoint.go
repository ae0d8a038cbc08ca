package system

import (
	"github.com/shardfall/server/internal/component"
	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/event"
	"github.com/shardfall/server/internal/core/job"
	coresys "github.com/shardfall/server/internal/core/system"
)

// CheckpointSystem consumes CheckpointActivatedEvent. Phase: Simulation.
type CheckpointSystem struct {
	deps   *Deps
	events *event.Consumer[component.CheckpointActivatedEvent]
}

func NewCheckpointSystem(deps *Deps) (*CheckpointSystem, error) {
	c, err := event.Claim[component.CheckpointActivatedEvent](deps.Events, NameCheckpoint)
	if err != nil {
		return nil, err
	}
	return &CheckpointSystem{deps: deps, events: c}, nil
}

func (s *CheckpointSystem) Spec() coresys.Spec {
	return coresys.Spec{Name: NameCheckpoint, Phase: coresys.PhaseSimulation}
}

func (s *CheckpointSystem) Update(t *coresys.Tick) job.Handle {
	states := newStaged[component.CheckpointState]()
	return s.events.ProcessSerial(t, atomically(func(_ ecs.Entity, ev component.CheckpointActivatedEvent, v ecs.View, cb *ecs.CommandBuffer) {
		st, ok := states.get(v, ev.Player)
		if !ok {
			return
		}
		pos := ev.Position
		if pos == (component.Vec3{}) {
			if cp := s.deps.Levels.Get(ev.LevelID).Checkpoint(ev.CheckpointID); cp != nil {
				pos = component.Vec3{X: cp.Position[0], Y: cp.Position[1], Z: cp.Position[2]}
			}
		}
		st.CheckpointID = ev.CheckpointID
		st.Position = pos
		st.Activations++
		states.put(cb, ev.Player, st)
		event.Emit(cb, t.Frame, component.CheckpointUIUpdateEvent{
			Player:       ev.Player,
			CheckpointID: ev.CheckpointID,
			Activations:  st.Activations,
		})
	}, states))
}
