package isotope

// denseIndex indexes discriminants directly by ToIndex(), for bounded
// small-integer domains where most indices in the range are actually
// used. Unlike fixedArrayIndex it grows on demand instead of being
// pre-sized, so sparse use still works, just with an O(1)-lookup slice
// that can grow past what's strictly needed.
type denseIndex[D Discrim] struct {
	present []bool
	keys    []D // keys[i] valid iff present[i]
}

// NewDense creates a Map using the dense-vector index strategy.
func NewDense[D Discrim, T any](newStorage NewStorageFunc[T]) *Map[D, T] {
	return newMap[D, T](&denseIndex[D]{}, newStorage)
}

func (b *denseIndex[D]) find(d D) (int, bool) {
	i := d.ToIndex()
	if i < 0 || i >= len(b.present) || !b.present[i] {
		return 0, false
	}
	return i, true
}

func (b *denseIndex[D]) insert(d D) int {
	i := d.ToIndex()
	if i >= len(b.present) {
		grownPresent := make([]bool, i+1)
		copy(grownPresent, b.present)
		b.present = grownPresent
		grownKeys := make([]D, i+1)
		copy(grownKeys, b.keys)
		b.keys = grownKeys
	}
	b.present[i] = true
	b.keys[i] = d
	return i
}

func (b *denseIndex[D]) forEach(yield func(slot int, d D) bool) {
	for i, ok := range b.present {
		if ok && !yield(i, b.keys[i]) {
			return
		}
	}
}
