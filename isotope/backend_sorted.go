package isotope

import "sort"

// sortedIndex is an O(log n)-lookup strategy ordered by discriminant index,
// appropriate for large unbounded discriminant domains with rare inserts
// (binary search dominates the occasional O(n) insertion shift).
type sortedIndex[D Discrim] struct {
	keys []D // kept sorted by ToIndex()
	// slotOf[i] is the storage slot assigned to keys[i]; slots are stable
	// across re-sorts of keys on insert (new keys always get the next
	// slot number, never reusing or renumbering existing ones).
	slotOf []int
	next   int
}

// NewSorted creates a Map using the sorted-vector index strategy.
func NewSorted[D Discrim, T any](newStorage NewStorageFunc[T]) *Map[D, T] {
	return newMap[D, T](&sortedIndex[D]{}, newStorage)
}

func (b *sortedIndex[D]) search(d D) int {
	target := d.ToIndex()
	return sort.Search(len(b.keys), func(i int) bool { return b.keys[i].ToIndex() >= target })
}

func (b *sortedIndex[D]) find(d D) (int, bool) {
	i := b.search(d)
	if i < len(b.keys) && b.keys[i] == d {
		return b.slotOf[i], true
	}
	return 0, false
}

func (b *sortedIndex[D]) insert(d D) int {
	i := b.search(d)
	slot := b.next
	b.next++
	b.keys = append(b.keys, d)
	copy(b.keys[i+1:], b.keys[i:len(b.keys)-1])
	b.keys[i] = d
	b.slotOf = append(b.slotOf, slot)
	copy(b.slotOf[i+1:], b.slotOf[i:len(b.slotOf)-1])
	b.slotOf[i] = slot
	return slot
}

func (b *sortedIndex[D]) forEach(yield func(slot int, d D) bool) {
	for i, k := range b.keys {
		if !yield(b.slotOf[i], k) {
			return
		}
	}
}
