package ecs

import (
	"fmt"
	"reflect"
	"sync"
)

// MaxComponentTypes bounds the number of distinct component types per process.
const MaxComponentTypes = 256

// ComponentType is the process-wide id of a registered component type.
type ComponentType uint16

var types = struct {
	mu     sync.RWMutex
	byType map[reflect.Type]ComponentType
	names  []string
	makers []func() Removable
}{
	byType: make(map[reflect.Type]ComponentType, 64),
}

// TypeOf registers T on first use and returns its id. Ids are assigned in
// registration order, so register component types at startup for stable ids.
func TypeOf[T any]() ComponentType {
	rt := reflect.TypeOf((*T)(nil)).Elem()

	types.mu.RLock()
	id, ok := types.byType[rt]
	types.mu.RUnlock()
	if ok {
		return id
	}

	types.mu.Lock()
	defer types.mu.Unlock()
	if id, ok := types.byType[rt]; ok {
		return id
	}
	if len(types.names) >= MaxComponentTypes {
		panic(fmt.Sprintf("ecs: cannot register %s: limit of %d component types reached", rt, MaxComponentTypes))
	}
	id = ComponentType(len(types.names))
	types.byType[rt] = id
	types.names = append(types.names, rt.String())
	types.makers = append(types.makers, func() Removable { return newStore[T]() })
	return id
}

// Name returns the Go type name registered under t.
func (t ComponentType) Name() string {
	types.mu.RLock()
	defer types.mu.RUnlock()
	if int(t) >= len(types.names) {
		return fmt.Sprintf("component(%d)", t)
	}
	return types.names[t]
}

func makerFor(t ComponentType) func() Removable {
	types.mu.RLock()
	defer types.mu.RUnlock()
	return types.makers[t]
}

// Registry tracks the component stores of one World and supports bulk
// cleanup on entity destroy.
type Registry struct {
	stores [MaxComponentTypes]Removable
	used   []ComponentType
}

func NewRegistry() *Registry {
	return &Registry{used: make([]ComponentType, 0, 16)}
}

// store returns the store for t, or nil if nothing of type t was ever set.
func (r *Registry) store(t ComponentType) Removable {
	return r.stores[t]
}

// ensure returns the store for t, creating it on first use.
func (r *Registry) ensure(t ComponentType) Removable {
	if s := r.stores[t]; s != nil {
		return s
	}
	s := makerFor(t)()
	r.stores[t] = s
	r.used = append(r.used, t)
	return s
}

// RemoveAll clears the given entity from every store named in mask.
func (r *Registry) RemoveAll(e Entity, mask Mask) {
	for _, t := range r.used {
		if mask.Has(t) {
			r.stores[t].Remove(e)
		}
	}
}
