package ealloc

import (
	"sort"

	"github.com/archonkit/archon/raw"
	"github.com/google/btree"
)

// Recycling is the default allocator: a global atomic gauge hands out
// brand-new ids, and a set of per-worker recycler shards hand out
// deallocated ones without any cross-shard locking during a tick.
type Recycling[E raw.ID, H any, R Recycler[E, H]] struct {
	globalGauge *raw.Atomic[E]
	// recyclable mirrors every id currently sitting in some shard's
	// recycler, kept for Snapshot's benefit; touched only during Flush.
	recyclable *btree.BTreeG[E]

	recyclerShards   []R
	reuseQueueShards [][]E
	shardAssigner    ShardAssigner
	newRecycler      func() R

	flushMark    bool
	deallocQueue []E
}

// NewRecycling creates a Recycling allocator with numShards shards, each
// built via newRecycler.
func NewRecycling[E raw.ID, H any, R Recycler[E, H]](numShards int, assigner ShardAssigner, newRecycler func() R) *Recycling[E, H, R] {
	shards := make([]R, numShards)
	reuse := make([][]E, numShards)
	for i := range shards {
		shards[i] = newRecycler()
	}
	return &Recycling[E, H, R]{
		globalGauge:      raw.NewAtomic[E](),
		recyclable:       btree.NewG(32, func(a, b E) bool { return a < b }),
		recyclerShards:   shards,
		reuseQueueShards: reuse,
		shardAssigner:    assigner,
		newRecycler:      newRecycler,
	}
}

// recyclingShard is the Shard handed to one worker for the duration of a
// tick: a pointer into this allocator's slices for one index, plus the
// global gauge for fallback fresh allocation.
type recyclingShard[E raw.ID, H any, R Recycler[E, H]] struct {
	gauge      *raw.Atomic[E]
	recycler   R
	reuseQueue *[]E
}

func (s *recyclingShard[E, H, R]) Allocate(hint H) E {
	if id, ok := s.recycler.Poll(hint); ok {
		*s.reuseQueue = append(*s.reuseQueue, id)
		return id
	}
	return s.gauge.FetchAdd(1)
}

// Shards returns one Shard per configured shard, shuffled by the
// allocator's ShardAssigner so no worker is statically bound to a shard
// across ticks.
func (r *Recycling[E, H, R]) Shards() []Shard[E, H] {
	out := make([]Shard[E, H], len(r.recyclerShards))
	for i := range r.recyclerShards {
		out[i] = &recyclingShard[E, H, R]{
			gauge:      r.globalGauge,
			recycler:   r.recyclerShards[i],
			reuseQueue: &r.reuseQueueShards[i],
		}
	}
	r.shardAssigner.ShuffleShards(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	return out
}

// Snapshot captures the allocator's tick-stable state: the gauge value and
// the set of currently-recyclable ids, safe to iterate concurrently with
// further allocation because neither is mutated again until the next
// Flush.
func (r *Recycling[E, H, R]) Snapshot() Snapshot[E] {
	return Snapshot[E]{Gauge: r.globalGauge.Load(), Recyclable: r.recyclable.Clone()}
}

// ShardSizes reports each shard recycler's current length, in shard
// index order. Used by tests to check Flush's redistribution invariants.
func (r *Recycling[E, H, R]) ShardSizes() []int {
	sizes := make([]int, len(r.recyclerShards))
	for i, s := range r.recyclerShards {
		sizes[i] = s.Len()
	}
	return sizes
}

// Allocate performs an offline (outside-a-tick) allocation, picking a
// shard via the ShardAssigner. A recycled id still goes through the
// shard's reuse queue so the next Flush removes it from the central
// recyclable set.
func (r *Recycling[E, H, R]) Allocate(hint H) E {
	shardID := r.shardAssigner.SelectForOfflineAllocation(len(r.recyclerShards))
	shard := &recyclingShard[E, H, R]{
		gauge:      r.globalGauge,
		recycler:   r.recyclerShards[shardID],
		reuseQueue: &r.reuseQueueShards[shardID],
	}
	return shard.Allocate(hint)
}

// QueueDeallocate marks id for recycling; it only takes effect at the
// next Flush.
func (r *Recycling[E, H, R]) QueueDeallocate(id E) {
	r.deallocQueue = append(r.deallocQueue, id)
}

// MarkNeedFlush records that a flush is owed before the next tick starts.
func (r *Recycling[E, H, R]) MarkNeedFlush() { r.flushMark = true }

// FlushIfMarked flushes only if MarkNeedFlush was called since the last
// flush.
func (r *Recycling[E, H, R]) FlushIfMarked() {
	if r.flushMark {
		r.Flush()
	}
}

// Flush reconciles this tick's deallocations into the shard recyclers,
// redistributing them so shard sizes stay as close to equal as possible.
// Must only be called with no shard checked out to a worker.
func (r *Recycling[E, H, R]) Flush() {
	r.flushMark = false

	for _, id := range r.deallocQueue {
		r.recyclable.ReplaceOrInsert(id)
	}
	for i, queue := range r.reuseQueueShards {
		for _, id := range queue {
			r.recyclable.Delete(id)
		}
		r.reuseQueueShards[i] = queue[:0]
	}

	ids := r.deallocQueue
	order := make([]int, len(r.recyclerShards))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return r.recyclerShards[order[a]].Len() < r.recyclerShards[order[b]].Len()
	})

	targetSizes := make([]int, len(order))
	for i, idx := range order {
		targetSizes[i] = r.recyclerShards[idx].Len()
	}
	distributeSorted(targetSizes, len(ids))

	for i, idx := range order {
		take := targetSizes[i] - r.recyclerShards[idx].Len()
		if take < 0 {
			take = 0
		}
		if take > len(ids) {
			take = len(ids)
		}
		r.recyclerShards[idx].Extend(ids[:take])
		ids = ids[take:]
	}

	r.deallocQueue = r.deallocQueue[:0]
}

// distributeSorted grows the ascending-sorted shard sizes in sizes to
// absorb total additional ids as evenly as possible: shards that are
// currently smallest get filled up to match their neighbors before any
// shard gets more than one extra over another. sizes must already be
// sorted ascending; on return every entry is the shard's new target size.
func distributeSorted(sizes []int, total int) {
	added := 0
	target := 0
	shardsUsed := 0

	for i, size := range sizes {
		delta := (size - target) * i
		if added+delta >= total {
			break
		}
		added += delta
		target = size
		shardsUsed++
	}
	if shardsUsed == 0 {
		return
	}

	deficit := total - added
	target += deficit / shardsUsed
	remainder := deficit % shardsUsed

	boundary := shardsUsed - remainder
	for i := 0; i < boundary; i++ {
		sizes[i] = target
	}
	for i := boundary; i < shardsUsed; i++ {
		sizes[i] = target + 1
	}
}
