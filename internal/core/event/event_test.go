package event

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/job"
	"github.com/shardfall/server/internal/core/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type ping struct{ N int }

type pong struct{ N int }

type stage struct {
	spec   system.Spec
	update func(t *system.Tick) job.Handle
}

func (s stage) Spec() system.Spec                { return s.spec }
func (s stage) Update(t *system.Tick) job.Handle { return s.update(t) }

func newRunner() *system.Runner {
	return system.NewRunner(ecs.NewWorld(64), job.NewScheduler(4, 4, zap.NewNop()), zap.NewNop())
}

func TestProcessConsumesAndEmitsFollowOn(t *testing.T) {
	reg := NewRegistry()
	pings, err := Claim[ping](reg, "pinger")
	require.NoError(t, err)
	pongs, err := Claim[pong](reg, "ponger")
	require.NoError(t, err)

	r := newRunner()
	for i := 0; i < 10; i++ {
		Spawn(r.World(), 0, ping{N: i})
	}
	var got atomic.Int64
	r.Register(stage{
		spec: system.Spec{Name: "pinger", Phase: system.PhaseSimulation},
		update: func(t *system.Tick) job.Handle {
			return pings.Process(t, func(_ ecs.Entity, p ping, _ ecs.View, cb *ecs.CommandBuffer) {
				Emit(cb, t.Frame, pong{N: p.N * 2})
			})
		},
	})
	r.Register(stage{
		spec: system.Spec{Name: "ponger", Phase: system.PhasePresentation},
		update: func(t *system.Tick) job.Handle {
			return pongs.Process(t, func(_ ecs.Entity, p pong, _ ecs.View, _ *ecs.CommandBuffer) {
				got.Add(int64(p.N))
			})
		},
	})
	require.NoError(t, reg.Validate(r.Names()))

	_, err = r.Tick(time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(90), got.Load())
	assert.Zero(t, r.World().Len(), "every event destroyed within its tick")
}

func TestProcessDestroysOnPanicAndEarlyReturn(t *testing.T) {
	reg := NewRegistry()
	pings, err := Claim[ping](reg, "pinger")
	require.NoError(t, err)

	r := newRunner()
	for i := 0; i < 6; i++ {
		Spawn(r.World(), 0, ping{N: i})
	}
	r.Register(stage{
		spec: system.Spec{Name: "pinger", Phase: system.PhaseSimulation},
		update: func(t *system.Tick) job.Handle {
			return pings.Process(t, func(_ ecs.Entity, p ping, _ ecs.View, cb *ecs.CommandBuffer) {
				switch {
				case p.N%3 == 0:
					return
				case p.N%3 == 1:
					Emit(cb, t.Frame, pong{})
					panic("handler failure")
				}
				Emit(cb, t.Frame, pong{})
			})
		},
	})
	_, err = r.Tick(time.Millisecond)
	require.NoError(t, err)

	v := r.World().View()
	assert.True(t, v.Query(Of[ping]()).IsEmpty())
	assert.Equal(t, 2, v.Query(Of[pong]()).Len(), "panicking handler output is rolled back")
}

func TestObserverDoesNotDestroy(t *testing.T) {
	reg := NewRegistry()
	watch := Watch[ping](reg, "watcher")

	r := newRunner()
	Spawn(r.World(), 0, ping{N: 1})
	var seen atomic.Int64
	r.Register(stage{
		spec: system.Spec{Name: "watcher", Phase: system.PhaseSimulation},
		update: func(t *system.Tick) job.Handle {
			return watch.Observe(t, func(ecs.Entity, ping, ecs.View, *ecs.CommandBuffer) { seen.Add(1) })
		},
	})
	_, err := r.Tick(time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, int64(1), seen.Load())
	assert.Equal(t, 1, r.World().Len())
	assert.ErrorIs(t, reg.Validate(r.Names()), ErrNoConsumer)
}

func TestScanKeepsSnapshotOrder(t *testing.T) {
	reg := NewRegistry()
	pings, err := Claim[ping](reg, "consumer")
	require.NoError(t, err)
	watch := Watch[ping](reg, "watcher")

	r := newRunner()
	for i := 1; i <= 5; i++ {
		Spawn(r.World(), 0, ping{N: i})
	}
	var order []int
	r.Register(stage{
		spec: system.Spec{Name: "watcher", Phase: system.PhaseSimulation},
		update: func(t *system.Tick) job.Handle {
			return t.Run(func(v ecs.View, cb *ecs.CommandBuffer) {
				watch.Scan(t, v, cb, func(_ ecs.Entity, p ping, _ ecs.View, _ *ecs.CommandBuffer) {
					order = append(order, p.N)
				})
			})
		},
	})
	r.Register(stage{
		spec: system.Spec{Name: "consumer", Phase: system.PhaseLateSimulation},
		update: func(t *system.Tick) job.Handle {
			return pings.Process(t, func(ecs.Entity, ping, ecs.View, *ecs.CommandBuffer) {})
		},
	})
	require.NoError(t, reg.Validate(r.Names()))

	_, err = r.Tick(time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, order)
	assert.Zero(t, r.World().Len(), "scan leaves destruction to the consumer")
}

func TestClaimIsExclusive(t *testing.T) {
	reg := NewRegistry()
	_, err := Claim[ping](reg, "a")
	require.NoError(t, err)
	_, err = Claim[ping](reg, "b")
	assert.ErrorIs(t, err, ErrConsumerConflict)

	owner, ok := reg.Owner(ecs.TypeOf[ping]())
	assert.True(t, ok)
	assert.Equal(t, "a", owner)
}

func TestValidateUnknownSystems(t *testing.T) {
	reg := NewRegistry()
	_, err := Claim[ping](reg, "ghost")
	require.NoError(t, err)
	Declare[pong](reg)

	err = reg.Validate([]string{"real"})
	assert.ErrorIs(t, err, ErrUnknownConsumer)
	assert.ErrorIs(t, err, ErrNoConsumer)
	assert.Len(t, reg.Describe(), 2)
}

func TestBusDeliversByType(t *testing.T) {
	b := NewBus()
	var pings, pongs int
	Subscribe(b, func(p ping) { pings += p.N })
	Subscribe(b, func(p ping) { pings += p.N })
	Subscribe(b, func(p pong) { pongs += p.N })

	assert.Equal(t, 2, Publish(b, ping{N: 3}))
	assert.Equal(t, 1, Publish(b, pong{N: 4}))
	assert.Equal(t, 0, Publish(b, "unrelated"))
	assert.Equal(t, 6, pings)
	assert.Equal(t, 4, pongs)
	assert.True(t, Subscribed[ping](b))
	assert.False(t, Subscribed[string](b))
}

type tally struct{ Sum int }

func TestProcessSerialFoldsIntoOneComponent(t *testing.T) {
	reg := NewRegistry()
	pings, err := Claim[ping](reg, "folder")
	require.NoError(t, err)

	r := newRunner()
	w := r.World()
	acc := w.Create()
	ecs.Set(w, acc, tally{})
	for i := 1; i <= 20; i++ {
		Spawn(w, 0, ping{N: i})
	}
	r.Register(stage{
		spec: system.Spec{Name: "folder", Phase: system.PhaseSimulation},
		update: func(t *system.Tick) job.Handle {
			sum := 0
			return pings.ProcessSerial(t, func(_ ecs.Entity, p ping, v ecs.View, cb *ecs.CommandBuffer) {
				cur, _ := ecs.Get[tally](v, acc)
				sum += p.N
				ecs.SetComponent(cb, acc, tally{Sum: cur.Sum + sum})
			})
		},
	})

	_, err = r.Tick(time.Millisecond)
	require.NoError(t, err)
	got, ok := ecs.Get[tally](w, acc)
	require.True(t, ok)
	assert.Equal(t, 210, got.Sum)
	assert.Equal(t, 1, w.Len())
}
