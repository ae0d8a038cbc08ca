package event

import (
	"reflect"
	"sync"
)

// Bus is how collaborators outside the store (presentation, audio, save)
// register with the core at startup. Systems publish to it from
// single-threaded jobs; handlers run synchronously on the publishing
// goroutine.
type Bus struct {
	mu       sync.RWMutex
	handlers map[reflect.Type][]func(any)
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[reflect.Type][]func(any)),
	}
}

// Subscribe registers a typed handler for events of type T.
func Subscribe[T any](b *Bus, fn func(T)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.handlers[t] = append(b.handlers[t], func(v any) { fn(v.(T)) })
}

// Publish delivers ev to every handler subscribed to T and returns how many
// received it.
func Publish[T any](b *Bus, ev T) int {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b.mu.RLock()
	handlers := b.handlers[t]
	b.mu.RUnlock()
	for _, h := range handlers {
		h(ev)
	}
	return len(handlers)
}

// Subscribed reports whether anything listens for T.
func Subscribed[T any](b *Bus) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[reflect.TypeOf((*T)(nil)).Elem()]) > 0
}
