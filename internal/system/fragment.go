package system

import (
	"github.com/shardfall/server/internal/component"
	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/event"
	"github.com/shardfall/server/internal/core/job"
	coresys "github.com/shardfall/server/internal/core/system"
)

// FragmentSystem consumes FragmentCollectedEvent. A fragment id already
// held by the collector is ignored. When a collector reaches
// its resonance threshold a single FragmentResonanceEvent follows.
// Phase: Simulation.
type FragmentSystem struct {
	events *event.Consumer[component.FragmentCollectedEvent]
}

func NewFragmentSystem(deps *Deps) (*FragmentSystem, error) {
	c, err := event.Claim[component.FragmentCollectedEvent](deps.Events, NameFragment)
	if err != nil {
		return nil, err
	}
	return &FragmentSystem{events: c}, nil
}

func (s *FragmentSystem) Spec() coresys.Spec {
	return coresys.Spec{Name: NameFragment, Phase: coresys.PhaseSimulation}
}

func (s *FragmentSystem) Update(t *coresys.Tick) job.Handle {
	inventory := newStaged[component.FragmentInventory]()
	return s.events.ProcessSerial(t, atomically(func(_ ecs.Entity, ev component.FragmentCollectedEvent, v ecs.View, cb *ecs.CommandBuffer) {
		inv, ok := inventory.get(v, ev.Collector)
		if !ok || inv.Has(ev.FragmentID) {
			return
		}
		// Past capacity the count holds and the update is still sent.
		inv.Add(ev.FragmentID)
		if !inv.Resonant && inv.Threshold > 0 && inv.Collected >= inv.Threshold {
			inv.Resonant = true
			event.Emit(cb, t.Frame, component.FragmentResonanceEvent{Collector: ev.Collector, Count: inv.Collected})
		}
		inventory.put(cb, ev.Collector, inv)
		event.Emit(cb, t.Frame, component.FragmentUIUpdateEvent{
			Collector: ev.Collector,
			Collected: inv.Collected,
			Total:     inv.Total,
		})
	}, inventory))
}

// ResonanceSystem consumes FragmentResonanceEvent. Phase: LateSimulation.
type ResonanceSystem struct {
	events *event.Consumer[component.FragmentResonanceEvent]
}

func NewResonanceSystem(deps *Deps) (*ResonanceSystem, error) {
	c, err := event.Claim[component.FragmentResonanceEvent](deps.Events, NameResonance)
	if err != nil {
		return nil, err
	}
	return &ResonanceSystem{events: c}, nil
}

func (s *ResonanceSystem) Spec() coresys.Spec {
	return coresys.Spec{Name: NameResonance, Phase: coresys.PhaseLateSimulation}
}

func (s *ResonanceSystem) Update(t *coresys.Tick) job.Handle {
	return s.events.Process(t, func(_ ecs.Entity, ev component.FragmentResonanceEvent, _ ecs.View, cb *ecs.CommandBuffer) {
		event.Emit(cb, t.Frame, component.FragmentResonanceUIAnimationEvent{Collector: ev.Collector, Count: ev.Count})
	})
}
