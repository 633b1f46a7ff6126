package storage

import (
	"github.com/TheBitDrifter/bark"
	"github.com/google/btree"
)

// treeEntry boxes the component in a one-element slice rather than
// holding it inline: the B-tree hands entries back by value, and the
// shared backing array is what lets Get/Iter/IterChunks return pointers
// and slices that alias the stored component instead of a copy.
type treeEntry[T any] struct {
	id uint64
	v  []T
}

func treeLess[T any](a, b treeEntry[T]) bool { return a.id < b.id }

// treeDegree is not performance sensitive for the id counts archetypes
// deal in.
const treeDegree = 32

// Tree is an ordered-map component storage, appropriate for archetypes
// whose live ids are sparse relative to their maximum value (so a Dense
// storage would waste memory on unset slots).
type Tree[T any] struct {
	t *btree.BTreeG[treeEntry[T]]
}

// NewTree creates an empty tree storage.
func NewTree[T any]() *Tree[T] {
	return &Tree[T]{t: btree.NewG(treeDegree, treeLess[T])}
}

// Get returns the entry at id, or ok == false if absent. The returned
// pointer aliases the stored component; writes through it persist.
func (t *Tree[T]) Get(id uint64) (*T, bool) {
	e, ok := t.t.Get(treeEntry[T]{id: id})
	if !ok {
		return nil, false
	}
	return &e.v[0], true
}

// Set installs v at id, or removes the entry when v is nil. Overwriting
// an existing id writes through the entry's backing array, so pointers
// and chunks previously handed out observe the new value.
func (t *Tree[T]) Set(id uint64, v *T) {
	if v == nil {
		t.t.Delete(treeEntry[T]{id: id})
		return
	}
	if e, ok := t.t.Get(treeEntry[T]{id: id}); ok {
		e.v[0] = *v
		return
	}
	t.t.ReplaceOrInsert(treeEntry[T]{id: id, v: []T{*v}})
}

// Len reports how many entries are currently present.
func (t *Tree[T]) Len() int { return t.t.Len() }

// Iter visits present entries in ascending id order.
func (t *Tree[T]) Iter(yield func(id uint64, v *T) bool) {
	t.t.Ascend(func(e treeEntry[T]) bool {
		return yield(e.id, &e.v[0])
	})
}

// IterChunks visits entries as length-1 chunks, since a tree storage has
// no notion of contiguity between keys. Each chunk aliases the entry's
// backing array, so mutation through it is visible to the storage.
func (t *Tree[T]) IterChunks(yield func(Chunk[T]) bool) {
	t.t.Ascend(func(e treeEntry[T]) bool {
		return yield(Chunk[T]{Start: e.id, Slice: e.v})
	})
}

// Partition returns a partition spanning the storage's full id domain.
func (t *Tree[T]) Partition() Partition[T] {
	return &treePartition[T]{t: t, lo: 0, hi: ^uint64(0)}
}

type treePartition[T any] struct {
	t      *Tree[T]
	lo, hi uint64
}

func (p *treePartition[T]) checkRange(id uint64) {
	if id < p.lo || id >= p.hi {
		panic(bark.AddTrace(OutOfRangeError{Lo: p.lo, Hi: p.hi, ID: id}))
	}
}

func (p *treePartition[T]) Range() (uint64, uint64) { return p.lo, p.hi }

func (p *treePartition[T]) Get(id uint64) (*T, bool) {
	p.checkRange(id)
	return p.t.Get(id)
}

func (p *treePartition[T]) GetMut(id uint64) *T {
	p.checkRange(id)
	v, ok := p.t.Get(id)
	if !ok {
		return nil
	}
	return v
}

func (p *treePartition[T]) Set(id uint64, v *T) {
	p.checkRange(id)
	p.t.Set(id, v)
}

func (p *treePartition[T]) PartitionAt(id uint64) (Partition[T], Partition[T]) {
	if id < p.lo || id > p.hi {
		panic(bark.AddTrace(SplitOutOfRangeError{Lo: p.lo, Hi: p.hi, At: id}))
	}
	return &treePartition[T]{t: p.t, lo: p.lo, hi: id}, &treePartition[T]{t: p.t, lo: id, hi: p.hi}
}

func (p *treePartition[T]) IterChunks(yield func(Chunk[T]) bool) {
	p.t.t.AscendRange(treeEntry[T]{id: p.lo}, treeEntry[T]{id: p.hi}, func(e treeEntry[T]) bool {
		return yield(Chunk[T]{Start: e.id, Slice: e.v})
	})
}
