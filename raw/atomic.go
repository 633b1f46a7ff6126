package raw

import "sync/atomic"

// Atomic is the atomic-counter variant of a raw ID type, used by an
// archetype's entity allocator gauge. Values start at 1 so that 0 remains
// available as the "new, unallocated" sentinel.
type Atomic[T ID] struct {
	v atomic.Uint64
}

// NewAtomic creates a gauge starting at 1.
func NewAtomic[T ID]() *Atomic[T] {
	a := &Atomic[T]{}
	a.v.Store(1)
	return a
}

// FetchAdd atomically advances the gauge by delta and returns the value it
// held before the advance (the newly allocated ID, when delta == 1).
func (a *Atomic[T]) FetchAdd(delta uint64) T {
	next := a.v.Add(delta)
	return T(next - delta)
}

// Load atomically reads the gauge's current value.
func (a *Atomic[T]) Load() T {
	return T(a.v.Load())
}

// LoadMut reads the gauge's current value under exclusive access (no
// workers active). Exposed separately from Load so callers document which
// access mode they are relying on, even though both compile to the same
// atomic load.
func (a *Atomic[T]) LoadMut() T {
	return T(a.v.Load())
}
