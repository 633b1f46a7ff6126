package isotope

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
)

// IndexOutOfBoundsError reports a discriminant whose ToIndex() falls
// outside a fixed-array backend's declared size.
type IndexOutOfBoundsError struct {
	Index, Size int
}

func (e IndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("discriminant index %d out of bounds for fixed-size array of %d", e.Index, e.Size)
}

// fixedArrayIndex is the bounded variant of denseIndex: the discriminant
// domain is known in full at construction time and never grows, so every
// slot is pre-allocated and out-of-range indices are a configuration
// error rather than an opportunity to resize.
type fixedArrayIndex[D Discrim] struct {
	present []bool
	keys    []D
}

// NewArray creates a Map using the fixed-size-array index strategy. size
// must be at least one more than the largest ToIndex() any discriminant
// of this type ever produces.
func NewArray[D Discrim, T any](size int, newStorage NewStorageFunc[T]) *Map[D, T] {
	return newMap[D, T](&fixedArrayIndex[D]{
		present: make([]bool, size),
		keys:    make([]D, size),
	}, newStorage)
}

func (b *fixedArrayIndex[D]) find(d D) (int, bool) {
	i := d.ToIndex()
	if i < 0 || i >= len(b.present) || !b.present[i] {
		return 0, false
	}
	return i, true
}

func (b *fixedArrayIndex[D]) insert(d D) int {
	i := d.ToIndex()
	if i < 0 || i >= len(b.present) {
		panic(bark.AddTrace(IndexOutOfBoundsError{Index: i, Size: len(b.present)}))
	}
	b.present[i] = true
	b.keys[i] = d
	return i
}

func (b *fixedArrayIndex[D]) forEach(yield func(slot int, d D) bool) {
	for i, ok := range b.present {
		if ok && !yield(i, b.keys[i]) {
			return
		}
	}
}
