package system

import (
	"sync/atomic"

	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/event"
	"github.com/shardfall/server/internal/core/job"
	coresys "github.com/shardfall/server/internal/core/system"
	"go.uber.org/zap"
)

// LeakGuard destroys event entities still alive at the end of the tick.
// Every event has a consumer in an earlier phase, so anything found here
// is a wiring bug; it is logged and removed so the next tick starts clean.
// Phase: Cleanup.
type LeakGuard struct {
	leaked atomic.Int64
}

func NewLeakGuard() *LeakGuard {
	return &LeakGuard{}
}

// Leaked returns how many event entities have been force-destroyed.
func (s *LeakGuard) Leaked() int64 { return s.leaked.Load() }

func (s *LeakGuard) Spec() coresys.Spec {
	return coresys.Spec{Name: NameLeakGuard, Phase: coresys.PhaseCleanup}
}

func (s *LeakGuard) Update(t *coresys.Tick) job.Handle {
	snap := t.View.Query(event.All())
	if snap.IsEmpty() {
		return t.Deps
	}
	return t.Run(func(v ecs.View, cb *ecs.CommandBuffer) {
		oldest := t.Frame
		for i := 0; i < snap.Len(); i++ {
			e := snap.At(i)
			if m, ok := ecs.Get[event.Meta](v, e); ok && m.Frame < oldest {
				oldest = m.Frame
			}
			cb.Destroy(e)
		}
		s.leaked.Add(int64(snap.Len()))
		t.Log.Warn("event entities outlived their tick",
			zap.Int("count", snap.Len()),
			zap.Uint64("frame", t.Frame),
			zap.Uint64("oldest_frame", oldest))
	})
}
