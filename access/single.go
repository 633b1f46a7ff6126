package access

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
	"github.com/archonkit/archon/ealloc"
	"github.com/archonkit/archon/raw"
	"github.com/archonkit/archon/storage"
)

// MustAbsentError reports a Get on a must-be-present component that is
// absent for the given entity. The only legitimate trigger is reading a
// not-yet-initialized, newly created entity, which is an input
// precondition violation rather than a recoverable condition.
type MustAbsentError struct {
	Archetype, Component string
	ID                   uint64
}

func (e MustAbsentError) Error() string {
	return fmt.Sprintf("must-be-present component %s/%s absent for entity %d", e.Archetype, e.Component, e.ID)
}

// AccessSingle wraps a single storage.Partition[T], either a whole simple
// component storage for one archetype, or one isotope discriminant's
// storage. Go has no borrow checker to scope an accessor's validity, so
// callers simply hold the backing lock for as long as the accessor lives.
type AccessSingle[T any] struct {
	archetype, component string
	part                 storage.Partition[T]
	must                 bool
}

// NewAccessSingle builds an accessor over a full storage.
func NewAccessSingle[T any](archetype, component string, s storage.Storage[T], must bool) *AccessSingle[T] {
	return &AccessSingle[T]{archetype: archetype, component: component, part: s.Partition(), must: must}
}

// newFromPartition builds an accessor directly over an existing partition,
// used internally by SplitAt.
func newFromPartition[T any](archetype, component string, part storage.Partition[T], must bool) *AccessSingle[T] {
	return &AccessSingle[T]{archetype: archetype, component: component, part: part, must: must}
}

// TryGet returns the component for entity, or ok == false if absent.
func (a *AccessSingle[T]) TryGet(id uint64) (*T, bool) {
	return a.part.Get(id)
}

// Get returns the component for entity. Panics if the component type is
// must-be-present but absent.
func (a *AccessSingle[T]) Get(id uint64) *T {
	v, ok := a.TryGet(id)
	if !ok {
		if a.must {
			panic(bark.AddTrace(MustAbsentError{Archetype: a.archetype, Component: a.component, ID: id}))
		}
		return nil
	}
	return v
}

// Set writes or removes the component for entity. Passing nil removes it.
func (a *AccessSingle[T]) Set(id uint64, v *T) {
	a.part.Set(id, v)
}

// Iter visits present entries in ascending id order.
func (a *AccessSingle[T]) Iter(yield func(id uint64, v *T) bool) {
	a.part.IterChunks(func(c storage.Chunk[T]) bool {
		for i := range c.Slice {
			if !yield(c.Start+uint64(i), &c.Slice[i]) {
				return false
			}
		}
		return true
	})
}

// GetChunk returns the slice of components backing [start, end). Panics
// if the range is not one completely filled chunk.
func (a *AccessSingle[T]) GetChunk(start, end uint64) []T {
	var out []T
	a.part.IterChunks(func(c storage.Chunk[T]) bool {
		if c.Start == start && c.Start+uint64(len(c.Slice)) == end {
			out = c.Slice
			return false
		}
		return true
	})
	if out == nil {
		panic(bark.AddTrace(fmt.Errorf("chunk [%d, %d) of %s/%s is not completely filled", start, end, a.archetype, a.component)))
	}
	return out
}

// AsPartition returns the accessor itself: it is already partition-backed,
// so SplitAt is always available without a separate conversion step.
func (a *AccessSingle[T]) AsPartition() *AccessSingle[T] { return a }

// SplitAt splits the accessor into [lo, id) and [id, hi) sub-accessors,
// consuming the receiver's partition. This is the primitive that lets a
// system hand off disjoint mutable sub-ranges to concurrent iteration.
func (a *AccessSingle[T]) SplitAt(id uint64) (left, right *AccessSingle[T]) {
	l, r := a.part.PartitionAt(id)
	return newFromPartition(a.archetype, a.component, l, a.must),
		newFromPartition(a.archetype, a.component, r, a.must)
}

// Range reports the accessor's own half-open id bounds.
func (a *AccessSingle[T]) Range() (lo, hi uint64) { return a.part.Range() }

// splitCutoff is the minimum alive-id count below which a parallel split
// candidate is iterated serially instead of halved further; exposed as a
// var so a per-archetype override can shadow it without forking the
// package.
var splitCutoff = 8

// SplitCutoff returns the minimum alive-id count a parallel split candidate
// must have to be worth halving further.
func SplitCutoff() int { return splitCutoff }

// SetSplitCutoff overrides the global parallel-split cutoff; intended for
// tests and per-archetype tuning at world-build time.
func SetSplitCutoff(n int) { splitCutoff = n }

// ParIter walks the accessor's full range in parallel, guided by snap: the
// work-splitter recursively halves the (partition, snapshot-slice) pair at
// the snapshot's approximate alive-id midpoint until the slice's alive
// count drops below SplitCutoff, then iterates each leaf serially on its
// own goroutine. fn is called once per (id, component) in ascending id
// order within each leaf, but leaves themselves run concurrently, so
// ordering across leaves is not guaranteed.
func ParIter[E raw.ID, T any](a *AccessSingle[T], snap ealloc.Snapshot[E], fn func(id uint64, v *T)) {
	lo, hi := a.Range()
	// A full-storage accessor's own range extends to the backend's
	// sentinel upper bound, not the archetype's actual entity count, so
	// the snapshot's gauge is the real bound to iterate up to.
	if snapHi := raw.ToPrimitive(snap.Gauge); hi > snapHi {
		hi = snapHi
	}
	parIterRange(a, snap, E(lo), E(hi), fn)
}

func parIterRange[E raw.ID, T any](a *AccessSingle[T], snap ealloc.Snapshot[E], lo, hi E, fn func(id uint64, v *T)) {
	count := snap.CountAliveBetween(lo, hi)
	if count < splitCutoff || raw.Sub(hi, lo) < 2 {
		iterSerialRange(a, raw.ToPrimitive(lo), raw.ToPrimitive(hi), fn)
		return
	}

	mid := raw.ApproxMidpoint(lo, hi)
	left, right := a.SplitAt(raw.ToPrimitive(mid))

	done := make(chan struct{})
	go func() {
		parIterRange(right, snap, mid, hi, fn)
		close(done)
	}()
	parIterRange(left, snap, lo, mid, fn)
	<-done
}

func iterSerialRange[T any](a *AccessSingle[T], lo, hi uint64, fn func(id uint64, v *T)) {
	a.part.IterChunks(func(c storage.Chunk[T]) bool {
		for i := range c.Slice {
			id := c.Start + uint64(i)
			if id < lo || id >= hi {
				continue
			}
			fn(id, &c.Slice[i])
		}
		return true
	})
}
