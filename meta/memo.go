package meta

// Memo is a lazily computed, generation-stamped cache cell. An accessor
// compares the cell's stamp against the owning document's build generation
// and recomputes on mismatch, so incremental rebuilds invalidate derived
// state without recreating the object graph.
type Memo[T any] struct {
	value      T
	generation uint64
	valid      bool
}

// Get returns the cached value, recomputing via compute when the cell is
// empty or stamped with an older generation.
func (m *Memo[T]) Get(generation uint64, compute func() T) T {
	if !m.valid || m.generation != generation {
		m.value = compute()
		m.generation = generation
		m.valid = true
	}
	return m.value
}

// Reset clears the cell without recomputing
func (m *Memo[T]) Reset() {
	var zero T
	m.value = zero
	m.valid = false
}

// Valid reports whether the cell holds a value for the given generation
func (m *Memo[T]) Valid(generation uint64) bool {
	return m.valid && m.generation == generation
}
