package system

import (
	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/job"
	coresys "github.com/shardfall/server/internal/core/system"
	"go.uber.org/zap"
)

// ScriptSystem drives the script collaborator once per tick on a single
// job. Everything it emits becomes visible to Simulation after the
// Initialization playback. Phase: Initialization.
type ScriptSystem struct {
	src ScriptSource
}

func NewScriptSystem(deps *Deps) *ScriptSystem {
	return &ScriptSystem{src: deps.Script}
}

func (s *ScriptSystem) Spec() coresys.Spec {
	return coresys.Spec{Name: NameScript, Phase: coresys.PhaseInitialization}
}

func (s *ScriptSystem) Update(t *coresys.Tick) job.Handle {
	return t.Run(func(v ecs.View, cb *ecs.CommandBuffer) {
		if err := s.src.OnTick(t.Frame, v, cb); err != nil {
			t.Log.Error("script tick failed", zap.Uint64("frame", t.Frame), zap.Error(err))
		}
	})
}
