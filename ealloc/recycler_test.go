package ealloc_test

import (
	"testing"

	"github.com/archonkit/archon/ealloc"
	"github.com/stretchr/testify/require"
)

func TestStackRecyclerIsLIFO(t *testing.T) {
	r := ealloc.NewStackRecycler[eid]()
	r.Extend([]eid{1, 2, 3})
	got, ok := r.Poll(struct{}{})
	require.True(t, ok)
	require.Equal(t, eid(3), got)
	require.Equal(t, 2, r.Len())
}

func TestStackRecyclerEmptyPoll(t *testing.T) {
	r := ealloc.NewStackRecycler[eid]()
	_, ok := r.Poll(struct{}{})
	require.False(t, ok)
}

func TestBTreeRecyclerPollsSmallestWithNoHint(t *testing.T) {
	r := ealloc.NewBTreeRecycler[eid]()
	r.Extend([]eid{10, 2, 7})
	got, ok := r.Poll(ealloc.BTreeHint[eid]{})
	require.True(t, ok)
	require.Equal(t, eid(2), got)
}

func TestBTreeRecyclerPollsNearestToHint(t *testing.T) {
	r := ealloc.NewBTreeRecycler[eid]()
	r.Extend([]eid{10, 20, 30})
	near := eid(22)
	got, ok := r.Poll(ealloc.BTreeHint[eid]{Near: &near})
	require.True(t, ok)
	require.Equal(t, eid(20), got)
	require.Equal(t, 2, r.Len())
}

func TestBTreeRecyclerNearExactMatchReturnsIt(t *testing.T) {
	r := ealloc.NewBTreeRecycler[eid]()
	r.Extend([]eid{10, 20, 30})
	near := eid(20)
	got, ok := r.Poll(ealloc.BTreeHint[eid]{Near: &near})
	require.True(t, ok)
	require.Equal(t, eid(20), got)
	require.Equal(t, 2, r.Len())
}

func TestBTreeRecyclerEquidistantTieBreaksLow(t *testing.T) {
	r := ealloc.NewBTreeRecycler[eid]()
	r.Extend([]eid{10, 30})
	near := eid(20)
	got, ok := r.Poll(ealloc.BTreeHint[eid]{Near: &near})
	require.True(t, ok)
	require.Equal(t, eid(10), got)
}
