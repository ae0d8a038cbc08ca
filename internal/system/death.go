package system

import (
	"github.com/shardfall/server/internal/component"
	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/event"
	"github.com/shardfall/server/internal/core/job"
	coresys "github.com/shardfall/server/internal/core/system"
	"github.com/shardfall/server/internal/invariant"
	"go.uber.org/zap"
)

// DeathSystem consumes DeathEvent: credits the killer and hands the death
// to presentation. Phase: LateSimulation.
type DeathSystem struct {
	deps   *Deps
	events *event.Consumer[component.DeathEvent]
}

func NewDeathSystem(deps *Deps) (*DeathSystem, error) {
	c, err := event.Claim[component.DeathEvent](deps.Events, NameDeath)
	if err != nil {
		return nil, err
	}
	return &DeathSystem{deps: deps, events: c}, nil
}

func (s *DeathSystem) Spec() coresys.Spec {
	return coresys.Spec{Name: NameDeath, Phase: coresys.PhaseLateSimulation}
}

func (s *DeathSystem) Update(t *coresys.Tick) job.Handle {
	kills := newStaged[component.KillCount]()
	return s.events.ProcessSerial(t, atomically(func(_ ecs.Entity, ev component.DeathEvent, v ecs.View, cb *ecs.CommandBuffer) {
		if h, ok := ecs.Get[component.Health](v, ev.Dead); ok {
			invariant.Assert(h.IsDead && h.Current == 0, "death of %s with health %v dead=%t", ev.Dead, h.Current, h.IsDead)
		}
		if v.Exists(ev.Killer) {
			kc, _ := kills.get(v, ev.Killer)
			kc.Kills++
			kc.Last = ev.Dead
			kills.put(cb, ev.Killer, kc)
		}
		s.deps.Log.Debug("entity died",
			zap.Stringer("dead", ev.Dead),
			zap.Stringer("killer", ev.Killer),
			zap.Uint64("frame", t.Frame))
		event.Emit(cb, t.Frame, component.DeathUIAnimationEvent{Dead: ev.Dead, Killer: ev.Killer})
	}, kills))
}
