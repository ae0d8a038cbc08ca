package event

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"

	"github.com/shardfall/server/internal/core/ecs"
)

var (
	ErrNoConsumer       = errors.New("event type has no consumer")
	ErrConsumerConflict = errors.New("event type already has a consumer")
	ErrUnknownConsumer  = errors.New("event consumer is not a registered system")
)

// Registry is the event schema: every declared event type names exactly one
// consuming system, the only one allowed to destroy it. Other systems may
// observe the type read-only.
type Registry struct {
	mu        sync.Mutex
	declared  []ecs.ComponentType
	owners    map[ecs.ComponentType]string
	observers map[ecs.ComponentType][]string
}

func NewRegistry() *Registry {
	return &Registry{
		owners:    make(map[ecs.ComponentType]string),
		observers: make(map[ecs.ComponentType][]string),
	}
}

func (r *Registry) declare(t ecs.ComponentType) {
	if !slices.Contains(r.declared, t) {
		r.declared = append(r.declared, t)
	}
}

// Declare adds T to the schema without naming its consumer.
func Declare[T any](r *Registry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.declare(ecs.TypeOf[T]())
}

// Claim makes system the canonical consumer of T.
func Claim[T any](r *Registry, system string) (*Consumer[T], error) {
	t := ecs.TypeOf[T]()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.declare(t)
	if owner, ok := r.owners[t]; ok {
		return nil, fmt.Errorf("%w: %s is consumed by %q, %q cannot claim it", ErrConsumerConflict, t.Name(), owner, system)
	}
	r.owners[t] = system
	return &Consumer[T]{system: system, query: Of[T]()}, nil
}

// Watch registers system as a read-only observer of T.
func Watch[T any](r *Registry, system string) *Observer[T] {
	t := ecs.TypeOf[T]()
	r.mu.Lock()
	defer r.mu.Unlock()
	r.declare(t)
	r.observers[t] = append(r.observers[t], system)
	return &Observer[T]{system: system, query: Of[T]()}
}

// Owner returns the consuming system of event type t.
func (r *Registry) Owner(t ecs.ComponentType) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	name, ok := r.owners[t]
	return name, ok
}

// Validate checks that every declared type has a consumer and that every
// consumer and observer is one of systems.
func (r *Registry) Validate(systems []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	known := make(map[string]bool, len(systems))
	for _, s := range systems {
		known[s] = true
	}

	var errs []error
	for _, t := range r.declared {
		owner, ok := r.owners[t]
		if !ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrNoConsumer, t.Name()))
			continue
		}
		if !known[owner] {
			errs = append(errs, fmt.Errorf("%w: %s claims %s", ErrUnknownConsumer, owner, t.Name()))
		}
		for _, o := range r.observers[t] {
			if !known[o] {
				errs = append(errs, fmt.Errorf("%w: %s observes %s", ErrUnknownConsumer, o, t.Name()))
			}
		}
	}
	return errors.Join(errs...)
}

// Describe lists "type -> consumer" lines, sorted, for startup logging.
func (r *Registry) Describe() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.declared))
	for _, t := range r.declared {
		line := t.Name() + " -> " + r.owners[t]
		if obs := r.observers[t]; len(obs) > 0 {
			line += " (observed by " + strings.Join(obs, ", ") + ")"
		}
		out = append(out, line)
	}
	sort.Strings(out)
	return out
}
