package presentation

import (
	"sync"

	"github.com/shardfall/server/internal/component"
	"go.uber.org/zap"
)

// LogPresenter writes presentation events to the log: milestones at Info,
// per-hit feedback at Debug. It keeps per-kind counts for the shutdown
// summary.
type LogPresenter struct {
	log    *zap.Logger
	mu     sync.Mutex
	counts map[string]int
}

func NewLogPresenter(log *zap.Logger) *LogPresenter {
	return &LogPresenter{log: log.Named("ui"), counts: make(map[string]int)}
}

func (p *LogPresenter) Present(kind string, payload any) {
	p.mu.Lock()
	p.counts[kind]++
	p.mu.Unlock()

	switch ev := payload.(type) {
	case component.DamageFeedbackEvent:
		p.log.Debug("damage",
			zap.Stringer("target", ev.Target),
			zap.Float32("amount", ev.Amount),
			zap.Stringer("type", ev.Type),
			zap.Bool("critical", ev.IsCritical),
			zap.Bool("lethal", ev.Lethal))
	case component.DeathUIAnimationEvent:
		p.log.Info("death", zap.Stringer("dead", ev.Dead), zap.Stringer("killer", ev.Killer))
	case component.MissionUIUpdateEvent:
		p.log.Info("mission complete", zap.Uint32("mission", ev.MissionID),
			zap.Uint16("completed", ev.Completed), zap.Uint16("required", ev.Required))
	case component.LevelUIUpdateEvent:
		p.log.Info("level", zap.Uint32("level", ev.LevelID), zap.Stringer("status", ev.Status),
			zap.Uint16("attempts", ev.Attempts), zap.Float32("time", ev.Time))
	case component.FragmentResonanceUIAnimationEvent:
		p.log.Info("fragment resonance", zap.Stringer("collector", ev.Collector), zap.Uint16("count", ev.Count))
	case component.CheckpointUIUpdateEvent:
		p.log.Info("checkpoint", zap.Stringer("player", ev.Player), zap.Uint32("checkpoint", ev.CheckpointID))
	default:
		p.log.Debug(kind, zap.Any("event", payload))
	}
}

// Counts returns a copy of the per-kind totals.
func (p *LogPresenter) Counts() map[string]int {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make(map[string]int, len(p.counts))
	for k, v := range p.counts {
		out[k] = v
	}
	return out
}
