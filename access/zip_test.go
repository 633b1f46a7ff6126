package access_test

import (
	"testing"

	"github.com/archonkit/archon/access"
	"github.com/archonkit/archon/storage"
	"github.com/stretchr/testify/require"
)

func TestEntityIteratorEntitiesVisitsAliveRangesInOrder(t *testing.T) {
	snap := snapshotAllAlive(6)
	snap.Recyclable.ReplaceOrInsert(3)

	it := access.NewEntityIterator(snap)
	var ids []uint64
	it.Entities(func(id uint64) bool {
		ids = append(ids, id)
		return true
	})
	require.Equal(t, []uint64{1, 2, 4, 5}, ids)
}

func TestEntityIteratorChunksVisitsMaximalRuns(t *testing.T) {
	snap := snapshotAllAlive(6)
	snap.Recyclable.ReplaceOrInsert(3)

	it := access.NewEntityIterator(snap)
	type rng struct{ lo, hi uint64 }
	var got []rng
	it.Chunks(func(lo, hi uint64) bool {
		got = append(got, rng{lo, hi})
		return true
	})
	require.Equal(t, []rng{{1, 3}, {4, 6}}, got)
}

func TestEntitiesWithProjectsZipPerEntity(t *testing.T) {
	s := storage.NewDense[int]()
	for i := uint64(1); i < 4; i++ {
		v := int(i) * 100
		s.Set(i, &v)
	}
	acc := access.NewAccessSingle("arch", "comp", s, false)
	zip := &access.SingleZip[int]{Acc: acc}

	snap := snapshotAllAlive(4)
	it := access.NewEntityIterator(snap)

	got := make(map[uint64]int)
	it.EntitiesWith(zip, func(id uint64, values []any) bool {
		got[id] = *(values[0].(*int))
		return true
	})

	require.Equal(t, map[uint64]int{1: 100, 2: 200, 3: 300}, got)
}

func TestTupleZipFlattensMemberValues(t *testing.T) {
	a := storage.NewDense[int]()
	b := storage.NewDense[string]()
	av, bv := 1, "x"
	a.Set(0, &av)
	b.Set(0, &bv)

	tuple := access.Tuple{
		&access.SingleZip[int]{Acc: access.NewAccessSingle("arch", "a", a, false)},
		&access.SingleZip[string]{Acc: access.NewAccessSingle("arch", "b", b, false)},
	}

	values := tuple.Get(0)
	require.Len(t, values, 2)
	require.Equal(t, 1, *(values[0].(*int)))
	require.Equal(t, "x", *(values[1].(*string)))
}
