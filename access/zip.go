package access

import (
	"github.com/archonkit/archon/ealloc"
	"github.com/archonkit/archon/raw"
)

// Zip represents a heterogeneous tuple of per-entity accessors vertically
// split in lockstep, so that consuming one entity at a time never needs to
// re-scan the whole underlying storage. Go's lack of variadic generics
// collapses the tuple into a slice of homogeneously typed members (each
// producing `any`), which callers assemble with a type switch or
// assertion; that is the price of doing this without a code generator.
type Zip interface {
	// Split vertically partitions the zip at offset, returning the right
	// half and mutating the receiver in place to become the left half.
	Split(offset uint64) Zip
	// Get projects the zip to the per-entity values at id. Valid only for
	// a zip whose range covers id.
	Get(id uint64) []any
}

// SingleZip adapts one AccessSingle into a Zip member.
type SingleZip[T any] struct {
	Acc *AccessSingle[T]
}

func (z *SingleZip[T]) Split(offset uint64) Zip {
	left, right := z.Acc.SplitAt(offset)
	z.Acc = left
	return &SingleZip[T]{Acc: right}
}

func (z *SingleZip[T]) Get(id uint64) []any {
	return []any{z.Acc.Get(id)}
}

// TryZip wraps a Zip member so Get never panics on an absent optional
// component, yielding (value, ok) instead.
type TryZip[T any] struct {
	Acc *AccessSingle[T]
}

func (z *TryZip[T]) Split(offset uint64) Zip {
	left, right := z.Acc.SplitAt(offset)
	z.Acc = left
	return &TryZip[T]{Acc: right}
}

func (z *TryZip[T]) Get(id uint64) []any {
	v, ok := z.Acc.TryGet(id)
	return []any{v, ok}
}

// Tuple composes several Zip members into one, flattening their Get
// results in member order.
type Tuple []Zip

func (t Tuple) Split(offset uint64) Zip {
	right := make(Tuple, len(t))
	for i, z := range t {
		right[i] = z.Split(offset)
	}
	return right
}

func (t Tuple) Get(id uint64) []any {
	var out []any
	for _, z := range t {
		out = append(out, z.Get(id)...)
	}
	return out
}

// EntityIterator consumes an allocator snapshot to drive offline, ordered
// traversal of an archetype's live entities.
type EntityIterator[E raw.ID] struct {
	snap ealloc.Snapshot[E]
}

// NewEntityIterator builds an iterator over the given tick-start snapshot.
func NewEntityIterator[E raw.ID](snap ealloc.Snapshot[E]) *EntityIterator[E] {
	return &EntityIterator[E]{snap: snap}
}

// Entities visits every live id in ascending order.
func (it *EntityIterator[E]) Entities(yield func(id uint64) bool) {
	cont := true
	it.snap.IterAliveRanges(func(lo, hi E) bool {
		for v := raw.ToPrimitive(lo); v < raw.ToPrimitive(hi); v++ {
			if !yield(v) {
				cont = false
				return false
			}
		}
		return true
	})
	_ = cont
}

// Chunks visits every maximal contiguous alive range in ascending order.
func (it *EntityIterator[E]) Chunks(yield func(lo, hi uint64) bool) {
	it.snap.IterAliveRanges(func(lo, hi E) bool {
		return yield(raw.ToPrimitive(lo), raw.ToPrimitive(hi))
	})
}

// EntitiesWith advances zip via repeated splits at each live id + 1,
// yielding (id, projected values) pairs so each entity is processed by a
// fresh, non-overlapping sub-accessor.
func (it *EntityIterator[E]) EntitiesWith(zip Zip, yield func(id uint64, values []any) bool) {
	it.Entities(func(id uint64) bool {
		right := zip.Split(id + 1)
		values := zip.Get(id)
		zip = right
		return yield(id, values)
	})
}

// ChunksWith is EntitiesWith's chunkwise counterpart: zip is split at each
// chunk boundary instead of every id, so chunk-typed Zip members (e.g. a
// slice-returning SingleZip) can batch their projection.
func (it *EntityIterator[E]) ChunksWith(zip Zip, yield func(lo, hi uint64, values []any) bool) {
	it.Chunks(func(lo, hi uint64) bool {
		right := zip.Split(hi)
		values := zip.Get(lo)
		zip = right
		return yield(lo, hi, values)
	})
}
