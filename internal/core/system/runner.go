package system

import (
	"fmt"
	"time"

	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/job"
	"go.uber.org/zap"
)

// TickStats reports what one Tick did.
type TickStats struct {
	Frame    uint64
	Playback [phaseCount]ecs.PlaybackStats
	Elapsed  time.Duration
}

// Total sums playback stats over every phase.
func (s TickStats) Total() ecs.PlaybackStats {
	var out ecs.PlaybackStats
	for _, p := range s.Playback {
		out.Merge(p)
	}
	return out
}

// Runner executes systems in phase and dependency order each tick and owns
// the only path by which the World is mutated during a tick.
type Runner struct {
	world   *ecs.World
	sched   *job.Scheduler
	log     *zap.Logger
	systems []System
	specs   []Spec
	graph   *graph
	frame   uint64
}

func NewRunner(world *ecs.World, sched *job.Scheduler, log *zap.Logger) *Runner {
	return &Runner{
		world:   world,
		sched:   sched,
		log:     log,
		systems: make([]System, 0, 16),
	}
}

// Register adds s. The order is rebuilt before the next tick.
func (r *Runner) Register(s System) {
	r.systems = append(r.systems, s)
	r.specs = append(r.specs, s.Spec())
	r.graph = nil
}

// Build validates the dependency graph and caches the execution order.
func (r *Runner) Build() error {
	g, err := buildGraph(r.specs)
	if err != nil {
		return fmt.Errorf("build system graph: %w", err)
	}
	r.graph = g
	return nil
}

// Order returns system names in execution order.
func (r *Runner) Order() []string {
	if r.graph == nil {
		return nil
	}
	var out []string
	for _, ids := range r.graph.order {
		for _, i := range ids {
			out = append(out, r.specs[i].Name)
		}
	}
	return out
}

// Names returns every registered system name in registration order.
func (r *Runner) Names() []string {
	out := make([]string, len(r.specs))
	for i, s := range r.specs {
		out[i] = s.Name
	}
	return out
}

// Frame returns the number of the last completed tick.
func (r *Runner) Frame() uint64 { return r.frame }

// World returns the store the runner drives. Only bootstrap code may mutate
// it directly, and never while a tick is running.
func (r *Runner) World() *ecs.World { return r.world }

// Tick runs one frame: each phase schedules its systems against a fresh
// view, waits for their jobs, and plays back their command buffers.
func (r *Runner) Tick(dt time.Duration) (TickStats, error) {
	if r.graph == nil {
		if err := r.Build(); err != nil {
			return TickStats{}, err
		}
	}
	start := time.Now()
	r.frame++
	stats := TickStats{Frame: r.frame}

	handles := make([]job.Handle, len(r.systems))
	for phase, ids := range r.graph.order {
		if len(ids) == 0 {
			continue
		}
		view := r.world.View()
		for _, i := range ids {
			deps := make([]job.Handle, 0, len(r.graph.preds[i]))
			for _, p := range r.graph.preds[i] {
				deps = append(deps, handles[p])
			}
			t := &Tick{
				Frame: r.frame,
				DT:    dt,
				View:  view,
				Deps:  job.Combine(deps...),
				Log:   r.log,
				name:  r.specs[i].Name,
				sched: r.sched,
			}
			handles[i] = r.update(i, t)
		}

		shards := r.sched.Drain()
		stats.Playback[phase] = ecs.Playback(r.world, shards...)
		r.sched.Release(shards)
	}
	stats.Elapsed = time.Since(start)
	return stats, nil
}

func (r *Runner) update(i int, t *Tick) (h job.Handle) {
	defer func() {
		if p := recover(); p != nil {
			r.log.Error("system update failed",
				zap.String("system", r.specs[i].Name),
				zap.Uint64("frame", t.Frame),
				zap.Any("panic", p))
			h = t.Deps
		}
	}()
	return r.systems[i].Update(t)
}
