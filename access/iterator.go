package access

// RawIterator drives offline, ordered traversal of an archetype's live
// entities from a type-erased uint64 alive-range source. Unlike
// EntityIterator[E], which owns a concrete ealloc.Snapshot[E], a RawIterator
// is built from the closure shape world's lifecycle interface already
// exposes once an archetype's concrete raw id type has been erased behind
// the World boundary.
type RawIterator struct {
	iterAlive func(yield func(lo, hi uint64) bool)
}

// NewRawIterator builds an iterator over the given tick-start alive-range
// source.
func NewRawIterator(iterAlive func(yield func(lo, hi uint64) bool)) *RawIterator {
	return &RawIterator{iterAlive: iterAlive}
}

// Entities visits every live id in ascending order.
func (it *RawIterator) Entities(yield func(id uint64) bool) {
	it.iterAlive(func(lo, hi uint64) bool {
		for v := lo; v < hi; v++ {
			if !yield(v) {
				return false
			}
		}
		return true
	})
}

// Chunks visits every maximal contiguous alive range in ascending order.
func (it *RawIterator) Chunks(yield func(lo, hi uint64) bool) {
	it.iterAlive(yield)
}

// EntitiesWith advances zip via repeated splits at each live id + 1,
// yielding (id, projected values) pairs so each entity is processed by a
// fresh, non-overlapping sub-accessor.
func (it *RawIterator) EntitiesWith(zip Zip, yield func(id uint64, values []any) bool) {
	it.Entities(func(id uint64) bool {
		right := zip.Split(id + 1)
		values := zip.Get(id)
		zip = right
		return yield(id, values)
	})
}

// ChunksWith is EntitiesWith's chunkwise counterpart.
func (it *RawIterator) ChunksWith(zip Zip, yield func(lo, hi uint64, values []any) bool) {
	it.Chunks(func(lo, hi uint64) bool {
		right := zip.Split(hi)
		values := zip.Get(lo)
		zip = right
		return yield(lo, hi, values)
	})
}
