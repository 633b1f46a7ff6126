package raw_test

import (
	"testing"

	"github.com/archonkit/archon/raw"
	"github.com/stretchr/testify/require"
)

type eid = uint32

func TestRoundTrip(t *testing.T) {
	for _, v := range []eid{1, 2, 5, 1000, 1 << 20} {
		got := raw.FromPrimitive[eid](raw.ToPrimitive(v))
		require.Equal(t, v, got)
	}
}

func TestAddSub(t *testing.T) {
	var v eid = 10
	added := raw.Add(v, 5)
	require.Equal(t, eid(15), added)
	require.Equal(t, uint64(5), raw.Sub(added, v))
}

func TestApproxMidpoint(t *testing.T) {
	require.Equal(t, eid(5), raw.ApproxMidpoint(eid(1), eid(9)))
	require.Equal(t, eid(5), raw.ApproxMidpoint(eid(9), eid(1)))
	require.Equal(t, eid(1), raw.ApproxMidpoint(eid(1), eid(1)))
}

func TestAtomicStartsAtOne(t *testing.T) {
	a := raw.NewAtomic[eid]()
	require.Equal(t, eid(1), a.Load())
	first := a.FetchAdd(1)
	require.Equal(t, eid(1), first)
	require.Equal(t, eid(2), a.Load())
}

func TestRange(t *testing.T) {
	got := raw.Range(eid(2), eid(5))
	require.Equal(t, []eid{2, 3, 4}, got)
	require.Nil(t, raw.Range(eid(5), eid(5)))
}
