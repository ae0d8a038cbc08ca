package ecs

import (
	"encoding/binary"
	"sync"

	"github.com/cespare/xxhash/v2"
)

// Term is one include or exclude clause of a Query.
type Term struct {
	typ     ComponentType
	exclude bool
}

// With requires T on matching entities.
func With[T any]() Term { return Term{typ: TypeOf[T]()} }

// Without rejects entities carrying T.
func Without[T any]() Term { return Term{typ: TypeOf[T](), exclude: true} }

// Query is an include/exclude filter over component types. Queries are
// values: cheap to build, comparable, and re-evaluated on every View.
type Query struct {
	include Mask
	exclude Mask
	order   []ComponentType
}

// Q builds a Query from terms.
//
//	q := ecs.Q(ecs.With[Health](), ecs.Without[Dead]())
func Q(terms ...Term) Query {
	var q Query
	for _, t := range terms {
		if t.exclude {
			q.exclude.set(t.typ)
			continue
		}
		if !q.include.Has(t.typ) {
			q.order = append(q.order, t.typ)
		}
		q.include.set(t.typ)
	}
	return q
}

// Include returns the required types.
func (q Query) Include() Mask { return q.include }

// Exclude returns the rejected types.
func (q Query) Exclude() Mask { return q.exclude }

// Matches reports whether an entity with archetype mask m passes q.
func (q Query) Matches(m Mask) bool {
	return m.Contains(q.include) && !m.Intersects(q.exclude)
}

// Key fingerprints the filter. Two queries with the same include and
// exclude sets share a key regardless of term order.
func (q Query) Key() uint64 {
	var buf [64]byte
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint64(buf[i*8:], q.include[i])
		binary.LittleEndian.PutUint64(buf[32+i*8:], q.exclude[i])
	}
	return xxhash.Sum64(buf[:])
}

// Snapshot is the read-only result of evaluating a Query against a View.
type Snapshot struct {
	entities []Entity
}

// Entities returns a copy of the matched entities in storage order.
func (s Snapshot) Entities() []Entity {
	out := make([]Entity, len(s.entities))
	copy(out, s.entities)
	return out
}

func (s Snapshot) Len() int      { return len(s.entities) }
func (s Snapshot) IsEmpty() bool { return len(s.entities) == 0 }

// At returns the i-th matched entity.
func (s Snapshot) At(i int) Entity { return s.entities[i] }

// Slice returns the sub-snapshot [from, to).
func (s Snapshot) Slice(from, to int) Snapshot {
	return Snapshot{entities: s.entities[from:to:to]}
}

// evaluate walks the smallest included store and filters through the slot
// masks. Queries with no include terms scan the entity pool.
func evaluate(w *World, q Query) Snapshot {
	var candidates []Entity
	if len(q.order) == 0 {
		candidates = make([]Entity, 0, w.Len())
		w.pool.each(func(e Entity) { candidates = append(candidates, e) })
	} else {
		smallest := -1
		for _, t := range q.order {
			s := w.registry.store(t)
			if s == nil || s.Len() == 0 {
				return Snapshot{}
			}
			if smallest < 0 || s.Len() < smallest {
				smallest = s.Len()
				candidates = s.entities()
			}
		}
	}

	out := make([]Entity, 0, len(candidates))
	for _, e := range candidates {
		if q.Matches(w.masks[e.Index()]) {
			out = append(out, e)
		}
	}
	return Snapshot{entities: out}
}

type cachedSnapshot struct {
	include, exclude Mask
	snap             Snapshot
}

type snapshotCache struct {
	mu      sync.Mutex
	entries map[uint64]cachedSnapshot
}

func newSnapshotCache() *snapshotCache {
	return &snapshotCache{entries: make(map[uint64]cachedSnapshot, 16)}
}

func (c *snapshotCache) get(q Query, eval func() Snapshot) Snapshot {
	if c == nil {
		return eval()
	}
	key := q.Key()
	c.mu.Lock()
	defer c.mu.Unlock()
	if hit, ok := c.entries[key]; ok {
		if hit.include == q.include && hit.exclude == q.exclude {
			return hit.snap
		}
		return eval()
	}
	s := eval()
	c.entries[key] = cachedSnapshot{include: q.include, exclude: q.exclude, snap: s}
	return s
}
