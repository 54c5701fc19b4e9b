package ecs

// SparseSet stores values keyed by entity index with a dense backing array
// for iteration. Dense order is insertion order; Remove shifts the tail down
// instead of swapping so iteration order survives removals.
type SparseSet[T any] struct {
	denseEntities []Entity
	denseValues   []T
	sparse        []int
}

// Has reports whether e is stored. A stale handle whose slot was reused by a
// newer generation does not match.
func (s *SparseSet[T]) Has(e Entity) bool {
	idx, ok := s.index(e)
	return ok && s.denseEntities[idx] == e
}

// Get returns the value stored for e.
func (s *SparseSet[T]) Get(e Entity) (T, bool) {
	var zero T
	if !s.Has(e) {
		return zero, false
	}
	return s.denseValues[s.sparse[e.Index()-1]], true
}

// Set inserts or updates the value for e. It reports whether e was newly
// inserted.
func (s *SparseSet[T]) Set(e Entity, v T) bool {
	if s == nil || !e.Valid() {
		return false
	}
	id := e.Index()
	for id-1 >= len(s.sparse) {
		s.sparse = append(s.sparse, -1)
	}
	if idx := s.sparse[id-1]; idx >= 0 && idx < len(s.denseEntities) && s.denseEntities[idx] == e {
		s.denseValues[idx] = v
		return false
	}
	s.denseEntities = append(s.denseEntities, e)
	s.denseValues = append(s.denseValues, v)
	s.sparse[id-1] = len(s.denseEntities) - 1
	return true
}

// Remove deletes e and reports whether it was present.
func (s *SparseSet[T]) Remove(e Entity) bool {
	if !s.Has(e) {
		return false
	}
	idx := s.sparse[e.Index()-1]

	copy(s.denseEntities[idx:], s.denseEntities[idx+1:])
	copy(s.denseValues[idx:], s.denseValues[idx+1:])
	last := len(s.denseEntities) - 1
	var zero T
	s.denseValues[last] = zero
	s.denseEntities = s.denseEntities[:last]
	s.denseValues = s.denseValues[:last]

	for i := idx; i < len(s.denseEntities); i++ {
		s.sparse[s.denseEntities[i].Index()-1] = i
	}
	s.sparse[e.Index()-1] = -1
	return true
}

// Clear drops every entry but keeps the allocated capacity.
func (s *SparseSet[T]) Clear() {
	if s == nil {
		return
	}
	for _, e := range s.denseEntities {
		s.sparse[e.Index()-1] = -1
	}
	var zero T
	for i := range s.denseValues {
		s.denseValues[i] = zero
	}
	s.denseEntities = s.denseEntities[:0]
	s.denseValues = s.denseValues[:0]
}

// Len returns the number of stored entries.
func (s *SparseSet[T]) Len() int {
	if s == nil {
		return 0
	}
	return len(s.denseEntities)
}

// Entities returns the dense entity list. Callers must not modify it.
func (s *SparseSet[T]) Entities() []Entity {
	if s == nil {
		return nil
	}
	return s.denseEntities
}

// Values returns the dense value list. Callers must not modify it.
func (s *SparseSet[T]) Values() []T {
	if s == nil {
		return nil
	}
	return s.denseValues
}

func (s *SparseSet[T]) index(e Entity) (int, bool) {
	if s == nil || !e.Valid() {
		return 0, false
	}
	id := e.Index()
	if id <= 0 || id-1 >= len(s.sparse) {
		return 0, false
	}
	idx := s.sparse[id-1]
	return idx, idx >= 0 && idx < len(s.denseEntities)
}
