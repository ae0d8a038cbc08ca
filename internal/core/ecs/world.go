package ecs

import "github.com/shardfall/server/internal/invariant"

// World is the Entity Store. It owns the entity pool, every component store
// and the per-slot archetype masks.
//
// Mutating entry points (Create, Destroy, Set, Remove, Add) are only for the
// single-threaded playback phase and for bootstrap code. Systems read through
// a View and mutate through a CommandBuffer.
type World struct {
	pool     *EntityPool
	registry *Registry
	masks    []Mask
	version  uint64
}

func NewWorld(capacity int) *World {
	if capacity <= 0 {
		capacity = 1024
	}
	return &World{
		pool:     NewEntityPool(capacity),
		registry: NewRegistry(),
		masks:    make([]Mask, 0, capacity),
	}
}

func (w *World) world() *World { return w }

// Create issues a new entity with no components.
func (w *World) Create() Entity {
	e := w.pool.Create()
	idx := int(e.Index())
	for len(w.masks) <= idx {
		w.masks = append(w.masks, Mask{})
	}
	w.masks[idx] = Mask{}
	w.version++
	return e
}

// Destroy removes e and all of its components. It reports false if e was
// already gone, which callers treat as a harmless duplicate.
func (w *World) Destroy(e Entity) bool {
	if !w.pool.Alive(e) {
		return false
	}
	idx := e.Index()
	w.registry.RemoveAll(e, w.masks[idx])
	w.masks[idx] = Mask{}
	w.pool.Destroy(e)
	w.version++
	return true
}

func (w *World) Exists(e Entity) bool {
	return w.pool.Alive(e)
}

// Len returns the number of live entities.
func (w *World) Len() int {
	return w.pool.Len()
}

// Version changes on every structural or data mutation.
func (w *World) Version() uint64 {
	return w.version
}

// View returns a read-only view of the current state. A view must not be
// used after the World is mutated again.
func (w *World) View() View {
	return View{w: w, version: w.version, cache: newSnapshotCache()}
}

func (w *World) mask(e Entity) (Mask, bool) {
	if !w.pool.Alive(e) {
		return Mask{}, false
	}
	return w.masks[e.Index()], true
}

// setType attaches or overwrites component t on e.
func (w *World) setType(e Entity, t ComponentType, v any) bool {
	if !w.pool.Alive(e) {
		return false
	}
	w.registry.ensure(t).setAny(e, v)
	w.masks[e.Index()].set(t)
	w.version++
	return true
}

func (w *World) hasType(e Entity, t ComponentType) bool {
	m, ok := w.mask(e)
	return ok && m.Has(t)
}

func (w *World) removeType(e Entity, t ComponentType) bool {
	if !w.hasType(e, t) {
		return false
	}
	w.registry.store(t).Remove(e)
	w.masks[e.Index()].unset(t)
	w.version++
	return true
}

// Reader is satisfied by *World and View. Generic accessors take a Reader so
// the same call works in bootstrap code and inside job closures.
type Reader interface {
	world() *World
}

// Get returns a copy of e's T component. The second result is false when e
// does not exist, is stale, or has no T.
func Get[T any](r Reader, e Entity) (T, bool) {
	w := r.world()
	t := TypeOf[T]()
	if !w.hasType(e, t) {
		var zero T
		return zero, false
	}
	return w.registry.store(t).(*Store[T]).Get(e)
}

// Has reports whether e exists and carries a T.
func Has[T any](r Reader, e Entity) bool {
	return r.world().hasType(e, TypeOf[T]())
}

// Set attaches or overwrites e's T component. It reports false when e does
// not exist.
func Set[T any](w *World, e Entity, c T) bool {
	return w.setType(e, TypeOf[T](), c)
}

// Remove detaches e's T component, reporting whether one was present.
func Remove[T any](w *World, e Entity) bool {
	return w.removeType(e, TypeOf[T]())
}

// View is the read-only store handle passed to job closures. It exposes no
// mutation, so a closure can only change state by appending to its
// CommandBuffer.
type View struct {
	w       *World
	version uint64
	cache   *snapshotCache
}

func (v View) world() *World {
	invariant.Assert(v.w != nil, "use of zero View")
	invariant.Assert(v.w.version == v.version, "view used after world mutation (view %d, world %d)", v.version, v.w.version)
	return v.w
}

func (v View) Exists(e Entity) bool {
	return v.world().Exists(e)
}

// Len returns the number of live entities.
func (v View) Len() int {
	return v.world().Len()
}

// Query returns the snapshot of entities matching q. Snapshots are cached
// per view by query key.
func (v View) Query(q Query) Snapshot {
	return v.cache.get(q, func() Snapshot { return evaluate(v.world(), q) })
}
