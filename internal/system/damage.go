package system

import (
	"math"

	"github.com/shardfall/server/internal/component"
	"github.com/shardfall/server/internal/config"
	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/event"
	"github.com/shardfall/server/internal/core/job"
	coresys "github.com/shardfall/server/internal/core/system"
	"github.com/shardfall/server/internal/invariant"
)

// MinMultiplier is the smallest fraction of incoming damage that survives
// mitigation: resistance can absorb at most 75%.
const MinMultiplier = 0.25

// EffectiveMultiplier turns a resistance percentage into the fraction of
// damage applied. maxResistance is the configured absorption cap and is
// itself bounded so the result stays within [MinMultiplier, 1].
func EffectiveMultiplier(resistance, maxResistance float32) float32 {
	maxResistance = invariant.Clamp(maxResistance, 0, 1-MinMultiplier, "max resistance")
	m := 1 - resistance/100
	if math.IsNaN(float64(m)) || m > 1 {
		m = 1
	}
	if floor := 1 - maxResistance; m < floor {
		m = floor
	}
	invariant.Assert(m >= MinMultiplier && m <= 1, "damage multiplier %v outside [%v, 1]", m, MinMultiplier)
	return m
}

// Mitigate returns the damage left after resistance and the critical bonus.
// Negative or NaN amounts deal nothing.
func Mitigate(ev component.DamageEvent, def component.Defense, cfg config.CombatConfig) float32 {
	amount := ev.Amount
	if !(amount > 0) {
		return 0
	}
	if ev.IsCritical {
		amount *= cfg.CriticalMultiplier
	}
	return amount * EffectiveMultiplier(def.Resistance(ev.Type), cfg.MaxResistance)
}

// ApplyDamage subtracts amount from h, flooring at zero. Negative or NaN
// amounts remove nothing and NaN health reads as zero. It returns the
// updated health, the damage actually removed, and whether this hit killed.
// A hit only kills when health crosses from above zero to zero and the
// IsDead flag is still clear.
func ApplyDamage(h component.Health, amount float32) (component.Health, float32, bool) {
	if !(amount > 0) {
		amount = 0
	}
	before := invariant.Clamp(h.Current, 0, float32(math.MaxFloat32), "health")
	after := max(before-amount, 0)
	h.Current = after
	lethal := before > 0 && after == 0 && !h.IsDead
	if lethal {
		h.IsDead = true
	}
	return h, before - after, lethal
}

// DamageSystem consumes DamageEvent. Phase: Simulation.
type DamageSystem struct {
	deps   *Deps
	events *event.Consumer[component.DamageEvent]
}

func NewDamageSystem(deps *Deps) (*DamageSystem, error) {
	c, err := event.Claim[component.DamageEvent](deps.Events, NameDamage)
	if err != nil {
		return nil, err
	}
	return &DamageSystem{deps: deps, events: c}, nil
}

func (s *DamageSystem) Spec() coresys.Spec {
	return coresys.Spec{Name: NameDamage, Phase: coresys.PhaseSimulation}
}

// Update folds every hit of the tick serially, so two hits on one target
// both land and only the first lethal one reports a death.
func (s *DamageSystem) Update(t *coresys.Tick) job.Handle {
	health := newStaged[component.Health]()
	return s.events.ProcessSerial(t, atomically(func(_ ecs.Entity, ev component.DamageEvent, v ecs.View, cb *ecs.CommandBuffer) {
		if !v.Exists(ev.Target) {
			return
		}
		def, _ := ecs.Get[component.Defense](v, ev.Target)
		dealt := Mitigate(ev, def, s.deps.Combat)

		lethal := false
		if h, ok := health.get(v, ev.Target); ok {
			h, dealt, lethal = ApplyDamage(h, dealt)
			health.put(cb, ev.Target, h)
			if lethal {
				event.Emit(cb, t.Frame, component.DeathEvent{Dead: ev.Target, Killer: ev.Source})
			}
		}

		event.Emit(cb, t.Frame, component.DamageFeedbackEvent{
			Target:     ev.Target,
			Source:     ev.Source,
			Amount:     dealt,
			Type:       ev.Type,
			IsCritical: ev.IsCritical,
			HitPoint:   ev.HitPoint,
			Lethal:     lethal,
		})
	}, health))
}
