package system

import (
	"fmt"

	coresys "github.com/shardfall/server/internal/core/system"
	"go.uber.org/zap"
)

// System names double as event consumer identities.
const (
	NameScript     = "script"
	NameDamage     = "damage"
	NameCollision  = "collision"
	NameObjective  = "objective"
	NameLevel      = "level"
	NameFragment   = "fragment"
	NameCheckpoint = "checkpoint"
	NameSave       = "save"
	NameDeath      = "death"
	NameMission    = "mission"
	NameResonance  = "resonance"
	NameUI         = "ui"
	NameLeakGuard  = "leakguard"
)

// Install registers every gameplay system on r, validates the event schema
// against the registered names and builds the execution order. The script
// and save systems are only installed when their collaborator is set.
func Install(r *coresys.Runner, deps *Deps) (*LeakGuard, error) {
	if deps.Script != nil {
		r.Register(NewScriptSystem(deps))
	}

	ctors := []func(*Deps) (coresys.System, error){
		func(d *Deps) (coresys.System, error) { return NewDamageSystem(d) },
		func(d *Deps) (coresys.System, error) { return NewCollisionSystem(d) },
		func(d *Deps) (coresys.System, error) { return NewObjectiveSystem(d) },
		func(d *Deps) (coresys.System, error) { return NewLevelSystem(d) },
		func(d *Deps) (coresys.System, error) { return NewFragmentSystem(d) },
		func(d *Deps) (coresys.System, error) { return NewCheckpointSystem(d) },
		func(d *Deps) (coresys.System, error) { return NewDeathSystem(d) },
		func(d *Deps) (coresys.System, error) { return NewMissionSystem(d) },
		func(d *Deps) (coresys.System, error) { return NewResonanceSystem(d) },
		func(d *Deps) (coresys.System, error) { return NewUISystem(d) },
	}
	for _, ctor := range ctors {
		s, err := ctor(deps)
		if err != nil {
			return nil, fmt.Errorf("install systems: %w", err)
		}
		r.Register(s)
	}
	if deps.Progress != nil {
		r.Register(NewSaveSystem(deps))
	}
	guard := NewLeakGuard()
	r.Register(guard)

	if err := deps.Events.Validate(r.Names()); err != nil {
		return nil, fmt.Errorf("validate event schema: %w", err)
	}
	if err := r.Build(); err != nil {
		return nil, err
	}
	for _, line := range deps.Events.Describe() {
		deps.Log.Debug("event route", zap.String("route", line))
	}
	deps.Log.Info("systems installed", zap.Strings("order", r.Order()))
	return guard, nil
}
