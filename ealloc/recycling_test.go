package ealloc_test

import (
	"testing"

	"github.com/archonkit/archon/ealloc"
	"github.com/stretchr/testify/require"
)

type eid = uint32

func newTestAllocator(numShards int, assigner ealloc.ShardAssigner) *ealloc.Recycling[eid, struct{}, *ealloc.StackRecycler[eid]] {
	return ealloc.NewRecycling[eid, struct{}](numShards, assigner, func() *ealloc.StackRecycler[eid] {
		return ealloc.NewStackRecycler[eid]()
	})
}

func TestAllocateGrowsGaugeWhenNothingRecyclable(t *testing.T) {
	a := newTestAllocator(2, ealloc.StaticShardAssigner{AllocatingShard: 0})
	first := a.Allocate(struct{}{})
	second := a.Allocate(struct{}{})
	require.Equal(t, eid(1), first)
	require.Equal(t, eid(2), second)
}

func TestDeallocateThenFlushMakesIDReusable(t *testing.T) {
	a := newTestAllocator(1, ealloc.StaticShardAssigner{AllocatingShard: 0})
	id := a.Allocate(struct{}{})
	a.QueueDeallocate(id)
	a.Flush()

	reused := a.Allocate(struct{}{})
	require.Equal(t, id, reused)
}

func TestFlushRedistributesAcrossShardsEvenly(t *testing.T) {
	a := newTestAllocator(4, ealloc.RandomShardAssigner{})
	var ids []eid
	for i := 0; i < 40; i++ {
		ids = append(ids, a.Allocate(struct{}{}))
	}
	for _, id := range ids {
		a.QueueDeallocate(id)
	}
	a.Flush()

	sizes := a.ShardSizes()
	total := 0
	min, max := sizes[0], sizes[0]
	for _, sz := range sizes {
		total += sz
		if sz < min {
			min = sz
		}
		if sz > max {
			max = sz
		}
	}
	require.Equal(t, 40, total)
	require.LessOrEqual(t, max-min, 1, "shard sizes should differ by at most one after redistribution")
}

func TestMarkNeedFlushOnlyFlushesWhenMarked(t *testing.T) {
	a := newTestAllocator(1, ealloc.StaticShardAssigner{AllocatingShard: 0})
	id := a.Allocate(struct{}{})
	a.QueueDeallocate(id)
	a.FlushIfMarked()

	other := a.Allocate(struct{}{})
	require.NotEqual(t, id, other, "flush should not have happened without MarkNeedFlush")

	a.MarkNeedFlush()
	a.FlushIfMarked()
	reused := a.Allocate(struct{}{})
	require.Equal(t, id, reused)
}

func TestSnapshotIterAliveRangesSkipsRecycled(t *testing.T) {
	a := newTestAllocator(1, ealloc.StaticShardAssigner{AllocatingShard: 0})
	for i := 0; i < 5; i++ {
		a.Allocate(struct{}{})
	}
	a.QueueDeallocate(3)
	a.Flush()

	snap := a.Snapshot()
	var ranges [][2]eid
	snap.IterAliveRanges(func(lo, hi eid) bool {
		ranges = append(ranges, [2]eid{lo, hi})
		return true
	})
	require.Equal(t, [][2]eid{{1, 3}, {4, 6}}, ranges)
}

// pickShardAssigner routes every offline allocation to one chosen shard,
// switchable mid-test.
type pickShardAssigner struct{ shard int }

func (p *pickShardAssigner) SelectForOfflineAllocation(int) int { return p.shard }
func (p *pickShardAssigner) ShuffleShards(int, func(i, j int))  {}

func TestFlushSortedFillWorkedExample(t *testing.T) {
	assigner := &pickShardAssigner{shard: 0}
	a := ealloc.NewRecycling[eid, ealloc.BTreeHint[eid]](3, assigner, ealloc.NewBTreeRecycler[eid])

	var ids []eid
	for i := 0; i < 5; i++ {
		ids = append(ids, a.Allocate(ealloc.BTreeHint[eid]{}))
	}
	require.Equal(t, []eid{1, 2, 3, 4, 5}, ids)

	for _, id := range ids {
		a.QueueDeallocate(id)
	}
	a.Flush()
	require.Equal(t, []int{1, 2, 2}, a.ShardSizes())

	assigner.shard = 1
	var again []eid
	for i := 0; i < 5; i++ {
		again = append(again, a.Allocate(ealloc.BTreeHint[eid]{}))
	}
	// First two come from shard 1's recycler in ascending order, the rest
	// are fresh from the gauge.
	require.Equal(t, []eid{2, 3, 6, 7, 8}, again)
}

func TestSnapshotEmptyAllocatorHasNoAliveRanges(t *testing.T) {
	a := newTestAllocator(1, ealloc.StaticShardAssigner{})
	snap := a.Snapshot()
	snap.IterAliveRanges(func(lo, hi eid) bool {
		t.Fatalf("unexpected alive range [%d, %d)", lo, hi)
		return false
	})
}
