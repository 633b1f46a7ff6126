package isotope

// linearIndex is an O(n)-lookup, O(1)-insert strategy appropriate for
// small, unbounded discriminant domains where a handful of discriminants
// are actually used per entity.
type linearIndex[D Discrim] struct {
	keys []D
}

// NewLinear creates a Map using the linear-scan index strategy.
func NewLinear[D Discrim, T any](newStorage NewStorageFunc[T]) *Map[D, T] {
	return newMap[D, T](&linearIndex[D]{}, newStorage)
}

func (b *linearIndex[D]) find(d D) (int, bool) {
	for i, k := range b.keys {
		if k == d {
			return i, true
		}
	}
	return 0, false
}

func (b *linearIndex[D]) insert(d D) int {
	b.keys = append(b.keys, d)
	return len(b.keys) - 1
}

func (b *linearIndex[D]) forEach(yield func(slot int, d D) bool) {
	for i, k := range b.keys {
		if !yield(i, k) {
			return
		}
	}
}
