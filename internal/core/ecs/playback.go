package ecs

import (
	"cmp"
	"slices"
)

// PlaybackStats summarises one playback pass.
type PlaybackStats struct {
	Shards    int
	Commands  int
	Created   int
	Destroyed int
	// Skipped counts commands whose target was gone, stale, unresolvable,
	// or (for set/remove) missing the component.
	Skipped int
}

// Merge accumulates o into s.
func (s *PlaybackStats) Merge(o PlaybackStats) {
	s.Shards += o.Shards
	s.Commands += o.Commands
	s.Created += o.Created
	s.Destroyed += o.Destroyed
	s.Skipped += o.Skipped
}

// Playback applies shards to w in (sort key, emission order). It is the
// only place structural changes happen during a tick and must run on a
// single goroutine with no outstanding readers.
//
// Operations on entities destroyed earlier in the same pass are no-ops.
func Playback(w *World, shards ...*CommandBuffer) PlaybackStats {
	ordered := make([]*CommandBuffer, 0, len(shards))
	for _, s := range shards {
		if s != nil {
			ordered = append(ordered, s)
		}
	}
	slices.SortStableFunc(ordered, func(a, b *CommandBuffer) int {
		return cmp.Compare(a.sortKey, b.sortKey)
	})

	var stats PlaybackStats
	for _, shard := range ordered {
		stats.Merge(playShard(w, shard))
	}
	return stats
}

func playShard(w *World, b *CommandBuffer) PlaybackStats {
	stats := PlaybackStats{Shards: 1, Commands: len(b.cmds)}
	locals := make([]Entity, b.created)

	resolve := func(r ref) Entity {
		if r.local == 0 {
			return r.entity
		}
		if r.owner != b.id || int(r.local) > len(locals) {
			return Null
		}
		return locals[r.local-1]
	}

	for _, c := range b.cmds {
		switch c.kind {
		case opCreate:
			locals[c.target.local-1] = w.Create()
			stats.Created++
		case opAdd:
			if !w.setType(resolve(c.target), c.typ, c.value) {
				stats.Skipped++
			}
		case opSet:
			e := resolve(c.target)
			if !w.hasType(e, c.typ) {
				stats.Skipped++
				continue
			}
			w.setType(e, c.typ, c.value)
		case opRemove:
			if !w.removeType(resolve(c.target), c.typ) {
				stats.Skipped++
			}
		case opDestroy:
			if w.Destroy(resolve(c.target)) {
				stats.Destroyed++
			} else {
				stats.Skipped++
			}
		}
	}
	return stats
}
