package ecs

// Removable is implemented by all component stores so the Registry can
// bulk-remove an entity's data from every store on destroy.
type Removable interface {
	Remove(e Entity) bool
	Has(e Entity) bool
	Len() int
	setAny(e Entity, v any)
	entities() []Entity
}

// Store is a sparse-set component store. Dense arrays keep insertion order
// until a removal swaps the last element into the hole.
type Store[T any] struct {
	dense  []T
	owners []Entity
	sparse map[uint32]int
}

func newStore[T any]() *Store[T] {
	return &Store[T]{
		dense:  make([]T, 0, 64),
		owners: make([]Entity, 0, 64),
		sparse: make(map[uint32]int, 64),
	}
}

func (s *Store[T]) Set(e Entity, c T) {
	if i, ok := s.sparse[e.Index()]; ok {
		s.dense[i] = c
		s.owners[i] = e
		return
	}
	s.sparse[e.Index()] = len(s.dense)
	s.dense = append(s.dense, c)
	s.owners = append(s.owners, e)
}

func (s *Store[T]) Get(e Entity) (T, bool) {
	i, ok := s.sparse[e.Index()]
	if !ok || s.owners[i] != e {
		var zero T
		return zero, false
	}
	return s.dense[i], true
}

func (s *Store[T]) Remove(e Entity) bool {
	i, ok := s.sparse[e.Index()]
	if !ok || s.owners[i] != e {
		return false
	}
	last := len(s.dense) - 1
	if i != last {
		s.dense[i] = s.dense[last]
		s.owners[i] = s.owners[last]
		s.sparse[s.owners[i].Index()] = i
	}
	var zero T
	s.dense[last] = zero
	s.dense = s.dense[:last]
	s.owners = s.owners[:last]
	delete(s.sparse, e.Index())
	return true
}

func (s *Store[T]) Has(e Entity) bool {
	i, ok := s.sparse[e.Index()]
	return ok && s.owners[i] == e
}

func (s *Store[T]) Len() int {
	return len(s.dense)
}

func (s *Store[T]) setAny(e Entity, v any) {
	s.Set(e, v.(T))
}

func (s *Store[T]) entities() []Entity {
	return s.owners
}
