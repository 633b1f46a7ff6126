package ealloc

import (
	"github.com/archonkit/archon/raw"
	"github.com/google/btree"
)

// Recycler holds ids returned for reuse and polls one back out on demand.
// The hint type lets more sophisticated recyclers take a locality
// preference into account.
type Recycler[E raw.ID, H any] interface {
	Len() int
	Poll(hint H) (E, bool)
	Extend(ids []E)
}

// StackRecycler is a FILO recycler: the most recently freed id is the
// first handed back out. It needs no hint.
type StackRecycler[E raw.ID] struct {
	ids []E
}

func NewStackRecycler[E raw.ID]() *StackRecycler[E] { return &StackRecycler[E]{} }

func (s *StackRecycler[E]) Len() int { return len(s.ids) }

func (s *StackRecycler[E]) Poll(struct{}) (E, bool) {
	if len(s.ids) == 0 {
		var zero E
		return zero, false
	}
	last := s.ids[len(s.ids)-1]
	s.ids = s.ids[:len(s.ids)-1]
	return last, true
}

func (s *StackRecycler[E]) Extend(ids []E) { s.ids = append(s.ids, ids...) }

// BTreeHint requests an id as close as possible to Near. A nil Near
// requests the smallest available id.
type BTreeHint[E raw.ID] struct {
	Near *E
}

// BTreeRecycler is a sorted-set recycler backed by github.com/google/btree,
// supporting near-value polling: the allocator can bias reused ids toward
// spatial/temporal locality instead of handing back an arbitrary one.
type BTreeRecycler[E raw.ID] struct {
	t *btree.BTreeG[E]
}

func NewBTreeRecycler[E raw.ID]() *BTreeRecycler[E] {
	return &BTreeRecycler[E]{t: btree.NewG(32, func(a, b E) bool { return a < b })}
}

func (r *BTreeRecycler[E]) Len() int { return r.t.Len() }

func (r *BTreeRecycler[E]) Poll(hint BTreeHint[E]) (E, bool) {
	if hint.Near == nil {
		item, ok := r.t.Min()
		if !ok {
			var zero E
			return zero, false
		}
		r.t.Delete(item)
		return item, true
	}

	near := *hint.Near
	var left, right E
	var haveLeft, haveRight bool

	// The left candidate is strictly below near; near itself, if
	// recyclable, surfaces as the right candidate at distance zero.
	r.t.DescendLessOrEqual(near, func(item E) bool {
		if item == near {
			return true
		}
		left, haveLeft = item, true
		return false
	})
	r.t.AscendGreaterOrEqual(near, func(item E) bool {
		right, haveRight = item, true
		return false
	})

	switch {
	case haveLeft && haveRight:
		selected := left
		if raw.Sub(right, near) < raw.Sub(near, left) {
			selected = right
		}
		r.t.Delete(selected)
		return selected, true
	case haveLeft:
		r.t.Delete(left)
		return left, true
	case haveRight:
		r.t.Delete(right)
		return right, true
	default:
		var zero E
		return zero, false
	}
}

func (r *BTreeRecycler[E]) Extend(ids []E) {
	for _, id := range ids {
		r.t.ReplaceOrInsert(id)
	}
}
