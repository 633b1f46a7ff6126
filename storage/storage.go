package storage

import "fmt"

// OutOfRangeError reports a partition access outside its own half-open
// range. It is always wrapped with bark.AddTrace before being panicked, so
// a stack trace survives to whoever recovers at the tick boundary.
type OutOfRangeError struct {
	Lo, Hi, ID uint64
}

func (e OutOfRangeError) Error() string {
	return fmt.Sprintf("id %d outside partition range [%d, %d)", e.ID, e.Lo, e.Hi)
}

// SplitOutOfRangeError reports an attempt to split a partition at a point
// outside its own range.
type SplitOutOfRangeError struct {
	Lo, Hi, At uint64
}

func (e SplitOutOfRangeError) Error() string {
	return fmt.Sprintf("split point %d outside partition range [%d, %d]", e.At, e.Lo, e.Hi)
}

// Chunk is a maximal contiguous run of present entries starting at Start.
// Slice aliases the backing storage directly; mutating it mutates the
// storage in place. Tree-backed storages only ever produce length-1 chunks.
type Chunk[T any] struct {
	Start uint64
	Slice []T
}

// Storage is a per-component container indexed by raw entity ID. It does
// not itself track which IDs are alive; that is the archetype's job. A
// present entry and "the entity doesn't have this component yet" are
// distinguished by the ok return of Get.
type Storage[T any] interface {
	// Get returns the entry at id, or ok == false if absent.
	Get(id uint64) (v *T, ok bool)
	// Set installs v at id. Set(id, nil) removes the entry.
	Set(id uint64, v *T)
	// Len reports how many entries are currently present.
	Len() int
	// Iter visits present entries in ascending id order, stopping early if
	// yield returns false.
	Iter(yield func(id uint64, v *T) bool)
	// IterChunks visits maximal contiguous present runs in ascending order.
	IterChunks(yield func(Chunk[T]) bool)
	// Partition returns a partition spanning the storage's full domain.
	Partition() Partition[T]
}

// Partition is a recursively splittable view over a Storage, used by the
// scheduler to hand disjoint, non-overlapping slices of one component to
// concurrently running systems. Every access is range-checked against the
// partition's own [Lo, Hi) bounds; violating it is a programmer error in
// the partitioning logic, not a recoverable runtime condition, so accessors
// panic rather than return an error.
type Partition[T any] interface {
	// Range reports the partition's own half-open id bounds.
	Range() (lo, hi uint64)
	// Get returns the entry at id, or ok == false if absent. Panics if id
	// is outside the partition's range.
	Get(id uint64) (v *T, ok bool)
	// GetMut returns a mutable pointer to the entry at id, or nil if
	// absent. Panics if id is outside the partition's range.
	GetMut(id uint64) *T
	// Set installs v at id, or removes it when v is nil. Panics if id is
	// outside the partition's range.
	Set(id uint64, v *T)
	// PartitionAt splits the partition at id into [lo, id) and [id, hi),
	// consuming it. Panics if id is outside [lo, hi].
	PartitionAt(id uint64) (left, right Partition[T])
	// IterChunks visits maximal contiguous present runs within the
	// partition's own range, in ascending order.
	IterChunks(yield func(Chunk[T]) bool)
}
