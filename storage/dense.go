package storage

import (
	"github.com/TheBitDrifter/bark"
	"github.com/bits-and-blooms/bitset"
)

// Dense is a bitset-indexed component storage. It is appropriate for
// archetypes whose live id range stays small relative to the number of
// distinct ids ever allocated, since the backing slice grows to the
// highest id ever set and never shrinks.
type Dense[T any] struct {
	present *bitset.BitSet
	data    []T
}

// NewDense creates an empty dense storage.
func NewDense[T any]() *Dense[T] {
	return &Dense[T]{present: bitset.New(0)}
}

func (d *Dense[T]) grow(id uint64) {
	if id >= uint64(len(d.data)) {
		grown := make([]T, id+1)
		copy(grown, d.data)
		d.data = grown
	}
}

// Get returns the entry at id, or ok == false if absent.
func (d *Dense[T]) Get(id uint64) (*T, bool) {
	if id >= uint64(len(d.data)) || !d.present.Test(uint(id)) {
		return nil, false
	}
	return &d.data[id], true
}

// Set installs v at id, or removes the entry when v is nil.
func (d *Dense[T]) Set(id uint64, v *T) {
	if v == nil {
		if id < uint64(len(d.data)) {
			d.present.Clear(uint(id))
			var zero T
			d.data[id] = zero
		}
		return
	}
	d.grow(id)
	d.data[id] = *v
	d.present.Set(uint(id))
}

// Len reports how many entries are currently present.
func (d *Dense[T]) Len() int {
	return int(d.present.Count())
}

// Iter visits present entries in ascending id order.
func (d *Dense[T]) Iter(yield func(id uint64, v *T) bool) {
	for i, ok := d.present.NextSet(0); ok; i, ok = d.present.NextSet(i + 1) {
		if !yield(uint64(i), &d.data[i]) {
			return
		}
	}
}

// IterChunks visits maximal contiguous present runs in ascending order.
func (d *Dense[T]) IterChunks(yield func(Chunk[T]) bool) {
	iterChunksInRange(d, 0, uint64(len(d.data)), yield)
}

// Partition returns a partition spanning the storage's full id domain.
func (d *Dense[T]) Partition() Partition[T] {
	return &densePartition[T]{d: d, lo: 0, hi: ^uint64(0)}
}

// iterChunksInRange walks present bits in [lo, hi), slicing the backing
// array at every run boundary so each chunk aliases live storage memory.
func iterChunksInRange[T any](d *Dense[T], lo, hi uint64, yield func(Chunk[T]) bool) {
	if hi > uint64(len(d.data)) {
		hi = uint64(len(d.data))
	}
	if lo >= hi {
		return
	}
	cur, ok := d.present.NextSet(uint(lo))
	for ok && uint64(cur) < hi {
		start := uint64(cur)
		end := start
		for {
			next, ok2 := d.present.NextClear(uint(end))
			if !ok2 || uint64(next) > hi {
				end = hi
				break
			}
			end = uint64(next)
			break
		}
		if end > hi {
			end = hi
		}
		if !yield(Chunk[T]{Start: start, Slice: d.data[start:end]}) {
			return
		}
		cur, ok = d.present.NextSet(uint(end))
	}
}

type densePartition[T any] struct {
	d      *Dense[T]
	lo, hi uint64
}

func (p *densePartition[T]) checkRange(id uint64) {
	if id < p.lo || id >= p.hi {
		panic(bark.AddTrace(OutOfRangeError{Lo: p.lo, Hi: p.hi, ID: id}))
	}
}

func (p *densePartition[T]) Range() (uint64, uint64) { return p.lo, p.hi }

func (p *densePartition[T]) Get(id uint64) (*T, bool) {
	p.checkRange(id)
	return p.d.Get(id)
}

func (p *densePartition[T]) GetMut(id uint64) *T {
	p.checkRange(id)
	v, ok := p.d.Get(id)
	if !ok {
		return nil
	}
	return v
}

func (p *densePartition[T]) Set(id uint64, v *T) {
	p.checkRange(id)
	p.d.Set(id, v)
}

func (p *densePartition[T]) PartitionAt(id uint64) (Partition[T], Partition[T]) {
	if id < p.lo || id > p.hi {
		panic(bark.AddTrace(SplitOutOfRangeError{Lo: p.lo, Hi: p.hi, At: id}))
	}
	return &densePartition[T]{d: p.d, lo: p.lo, hi: id}, &densePartition[T]{d: p.d, lo: id, hi: p.hi}
}

func (p *densePartition[T]) IterChunks(yield func(Chunk[T]) bool) {
	iterChunksInRange(p.d, p.lo, p.hi, yield)
}
