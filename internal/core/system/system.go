package system

import (
	"time"

	"github.com/shardfall/server/internal/core/ecs"
	"github.com/shardfall/server/internal/core/job"
	"go.uber.org/zap"
)

// Phase defines execution ordering within a single tick. Every phase ends
// with a playback, so a phase observes the command buffers of all earlier
// phases and none of its own.
type Phase int

const (
	PhaseInitialization Phase = iota // 0: producers emit this tick's events
	PhaseSimulation                  // 1: damage, collision, progression handlers
	PhaseLateSimulation              // 2: follow-on domain events (death, mission, resonance)
	PhasePresentation                // 3: UI mirrors handed to presentation collaborators
	PhaseCleanup                     // 4: leak guard

	phaseCount = int(PhaseCleanup) + 1
)

func (p Phase) String() string {
	switch p {
	case PhaseInitialization:
		return "initialization"
	case PhaseSimulation:
		return "simulation"
	case PhaseLateSimulation:
		return "late-simulation"
	case PhasePresentation:
		return "presentation"
	case PhaseCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// Spec declares a system's identity and ordering. After and Before name
// other systems; references into an earlier (After) or later (Before)
// phase are already satisfied by phase order.
type Spec struct {
	Name   string
	Phase  Phase
	After  []string
	Before []string
}

// System is the interface every ECS system implements. Update schedules the
// system's work for this tick and returns its completion handle; it must
// not block on it.
type System interface {
	Spec() Spec
	Update(t *Tick) job.Handle
}

// Tick is the explicit context handed to System.Update.
type Tick struct {
	Frame uint64
	DT    time.Duration
	// View is the phase's read-only snapshot of the store.
	View ecs.View
	// Deps completes when every same-phase predecessor has finished.
	Deps job.Handle
	Log  *zap.Logger

	name  string
	sched *job.Scheduler
}

// Name is the running system's name.
func (t *Tick) Name() string { return t.name }

// ForEach runs fn in parallel over the entities matching q.
func (t *Tick) ForEach(q ecs.Query, fn job.EntityFunc) job.Handle {
	return t.ForSnapshot(t.View.Query(q), fn)
}

// ForSnapshot runs fn in parallel over snap.
func (t *Tick) ForSnapshot(snap ecs.Snapshot, fn job.EntityFunc) job.Handle {
	return t.sched.ScheduleParallel(t.name, t.View, snap, t.Deps, fn)
}

// Run schedules fn as a single-threaded job.
func (t *Tick) Run(fn job.Func) job.Handle {
	return t.sched.Schedule(t.name, t.View, t.Deps, fn)
}

// Guard runs fn as one isolated unit of work against cb.
func (t *Tick) Guard(e ecs.Entity, cb *ecs.CommandBuffer, fn func()) bool {
	return t.sched.Guard(t.name, e, cb, fn)
}
