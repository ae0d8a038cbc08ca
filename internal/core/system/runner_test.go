package system

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/job"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

type marker struct{ By string }

type funcSystem struct {
	spec   Spec
	update func(t *Tick) job.Handle
}

func (s funcSystem) Spec() Spec                { return s.spec }
func (s funcSystem) Update(t *Tick) job.Handle { return s.update(t) }

func newRunner(t *testing.T) *Runner {
	w := ecs.NewWorld(64)
	return NewRunner(w, job.NewScheduler(4, 8, zap.NewNop()), zaptest.NewLogger(t))
}

func TestRunnerPhaseBoundaryMakesChangesVisible(t *testing.T) {
	r := newRunner(t)
	var sameSeen, laterSeen atomic.Int64

	r.Register(funcSystem{
		spec: Spec{Name: "producer", Phase: PhaseInitialization},
		update: func(t *Tick) job.Handle {
			return t.Run(func(_ ecs.View, cb *ecs.CommandBuffer) {
				ecs.AddComponent(cb, cb.CreateEntity(), marker{By: "producer"})
			})
		},
	})
	r.Register(funcSystem{
		spec: Spec{Name: "same-phase", Phase: PhaseInitialization, After: []string{"producer"}},
		update: func(t *Tick) job.Handle {
			sameSeen.Store(int64(t.View.Query(ecs.Q(ecs.With[marker]())).Len()))
			return t.Deps
		},
	})
	r.Register(funcSystem{
		spec: Spec{Name: "consumer", Phase: PhaseSimulation},
		update: func(t *Tick) job.Handle {
			laterSeen.Store(int64(t.View.Query(ecs.Q(ecs.With[marker]())).Len()))
			return t.ForEach(ecs.Q(ecs.With[marker]()), func(e ecs.Entity, _ ecs.View, cb *ecs.CommandBuffer) {
				cb.Destroy(e)
			})
		},
	})

	stats, err := r.Tick(16 * time.Millisecond)
	require.NoError(t, err)
	assert.Zero(t, sameSeen.Load(), "same-phase systems never see this phase's buffers")
	assert.Equal(t, int64(1), laterSeen.Load())
	assert.Equal(t, 1, stats.Playback[PhaseInitialization].Created)
	assert.Equal(t, 1, stats.Playback[PhaseSimulation].Destroyed)
	assert.Zero(t, r.World().Len())
	assert.Equal(t, uint64(1), r.Frame())
}

func TestRunnerPassesPredecessorHandles(t *testing.T) {
	r := newRunner(t)
	w := r.World()
	for i := 0; i < 100; i++ {
		ecs.Set(w, w.Create(), marker{})
	}

	var first atomic.Int64
	var early atomic.Int64
	r.Register(funcSystem{
		spec: Spec{Name: "second", Phase: PhaseSimulation, After: []string{"first"}},
		update: func(t *Tick) job.Handle {
			return t.ForEach(ecs.Q(ecs.With[marker]()), func(ecs.Entity, ecs.View, *ecs.CommandBuffer) {
				if first.Load() < 100 {
					early.Add(1)
				}
			})
		},
	})
	r.Register(funcSystem{
		spec: Spec{Name: "first", Phase: PhaseSimulation},
		update: func(t *Tick) job.Handle {
			return t.ForEach(ecs.Q(ecs.With[marker]()), func(ecs.Entity, ecs.View, *ecs.CommandBuffer) {
				time.Sleep(50 * time.Microsecond)
				first.Add(1)
			})
		},
	})

	_, err := r.Tick(time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second"}, r.Order())
	assert.Zero(t, early.Load())
}

func TestRunnerSurvivesPanickingUpdate(t *testing.T) {
	r := newRunner(t)
	var ran atomic.Bool
	r.Register(funcSystem{
		spec:   Spec{Name: "broken", Phase: PhaseSimulation},
		update: func(*Tick) job.Handle { panic("bad update") },
	})
	r.Register(funcSystem{
		spec: Spec{Name: "fine", Phase: PhaseSimulation, After: []string{"broken"}},
		update: func(t *Tick) job.Handle {
			ran.Store(true)
			return t.Deps
		},
	})
	_, err := r.Tick(time.Millisecond)
	require.NoError(t, err)
	assert.True(t, ran.Load())
}

func TestRunnerReportsGraphErrors(t *testing.T) {
	r := newRunner(t)
	r.Register(funcSystem{spec: Spec{Name: "a", Phase: PhaseSimulation, After: []string{"b"}}})
	r.Register(funcSystem{spec: Spec{Name: "b", Phase: PhaseSimulation, After: []string{"a"}}})
	_, err := r.Tick(time.Millisecond)
	assert.ErrorIs(t, err, ErrCycle)
	assert.Zero(t, r.Frame())
}
