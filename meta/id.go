package meta

import "fmt"

// ElementID is a process-unique, monotonic element identifier. IDs are
// assigned at element creation and never reused, so they serve as stable
// cache and equality keys across incremental rebuilds even when element
// objects are mutated in place.
type ElementID uint64

func (id ElementID) String() string { return fmt.Sprintf("#%d", id) }

// IDAllocator hands out element identifiers. One allocator is owned by each
// workspace and injected into construction, which keeps identifier streams
// deterministic in tests.
type IDAllocator struct {
	next ElementID
}

// NewIDAllocator creates an allocator starting at 1; 0 is reserved as the
// zero/unassigned value.
func NewIDAllocator() *IDAllocator {
	return &IDAllocator{next: 1}
}

// Next returns a fresh identifier
func (a *IDAllocator) Next() ElementID {
	id := a.next
	a.next++
	return id
}

// Allocated returns how many identifiers have been handed out
func (a *IDAllocator) Allocated() uint64 {
	return uint64(a.next - 1)
}
