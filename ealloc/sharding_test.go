package ealloc_test

import (
	"testing"

	"github.com/archonkit/archon/ealloc"
	"github.com/stretchr/testify/require"
)

func TestStaticShardAssignerNeverShuffles(t *testing.T) {
	s := ealloc.StaticShardAssigner{AllocatingShard: 2}
	require.Equal(t, 2, s.SelectForOfflineAllocation(5))
	require.Equal(t, 2, s.SelectForOfflineAllocation(5))

	order := []int{0, 1, 2}
	s.ShuffleShards(len(order), func(i, j int) { order[i], order[j] = order[j], order[i] })
	require.Equal(t, []int{0, 1, 2}, order)
}

func TestRandomShardAssignerStaysInBounds(t *testing.T) {
	s := ealloc.RandomShardAssigner{}
	for i := 0; i < 50; i++ {
		got := s.SelectForOfflineAllocation(4)
		require.GreaterOrEqual(t, got, 0)
		require.Less(t, got, 4)
	}
}
