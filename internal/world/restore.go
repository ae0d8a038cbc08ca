package world

import (
	"context"
	"fmt"

	"github.com/shardfall/server/internal/component"
	"github.com/shardfall/server/internal/core/ecs"
)

// BestTimeSource looks up the fastest recorded completion of a level.
type BestTimeSource interface {
	BestTime(ctx context.Context, levelID uint32) (float32, error)
}

// RestoreBestTimes seeds LevelState.BestTime of every registered level
// from src and returns how many levels had a record. Like spawning it
// writes the World directly and must run before the first tick.
func (s *State) RestoreBestTimes(ctx context.Context, w *ecs.World, src BestTimeSource) (int, error) {
	n := 0
	for _, id := range s.LevelIDs() {
		e := s.Level(id)
		st, ok := ecs.Get[component.LevelState](w, e)
		if !ok {
			continue
		}
		best, err := src.BestTime(ctx, id)
		if err != nil {
			return n, fmt.Errorf("restore best time of level %d: %w", id, err)
		}
		if best <= 0 {
			continue
		}
		st.BestTime = best
		ecs.Set(w, e, st)
		n++
	}
	return n, nil
}
