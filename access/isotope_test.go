package access_test

import (
	"testing"

	"github.com/archonkit/archon/access"
	"github.com/archonkit/archon/isotope"
	"github.com/archonkit/archon/storage"
	"github.com/stretchr/testify/require"
)

type slot int

func (s slot) ToIndex() int { return int(s) }

func newSlotMap() *isotope.Map[slot, int] {
	return isotope.NewLinear[slot](func() storage.Storage[int] { return storage.NewDense[int]() })
}

func TestAccessIsotopeTryGetWithoutDefault(t *testing.T) {
	a := access.NewAccessIsotope[slot, int]("arch", "comp", newSlotMap(), true, nil)
	_, ok := a.TryGet(0, 1)
	require.False(t, ok)

	a.Set(0, 1, ptr(5))
	v, ok := a.TryGet(0, 1)
	require.True(t, ok)
	require.Equal(t, 5, v)
}

func TestAccessIsotopeDefaultOnReadDoesNotMutateStorage(t *testing.T) {
	m := newSlotMap()
	a := access.NewAccessIsotope[slot, int]("arch", "comp", m, true, func() int { return 42 })

	v, ok := a.TryGet(0, 9)
	require.True(t, ok)
	require.Equal(t, 42, v)

	_, exists := m.GetBy(9)
	require.False(t, exists, "TryGet must not materialize a storage for an unseen discriminant")
}

func TestAccessIsotopeGetOrInsertMutMaterializesDefault(t *testing.T) {
	m := newSlotMap()
	a := access.NewAccessIsotope[slot, int]("arch", "comp", m, true, func() int { return 7 })

	got := a.GetOrInsertMut(3, 2)
	require.Equal(t, 7, *got)

	s, exists := m.GetBy(2)
	require.True(t, exists)
	v, ok := s.Get(3)
	require.True(t, ok)
	require.Equal(t, 7, *v)
}

func TestAccessIsotopeSetPanicsWhenNotMutable(t *testing.T) {
	a := access.NewAccessIsotope[slot, int]("arch", "comp", newSlotMap(), false, nil)
	require.Panics(t, func() { a.Set(0, 1, ptr(1)) })
	require.Panics(t, func() { a.GetOrInsertMut(0, 1) })
}

func TestAccessIsotopeSplitReturnsDisjointAccessors(t *testing.T) {
	m := newSlotMap()
	a := access.NewAccessIsotope[slot, int]("arch", "comp", m, true, nil)
	a.Set(0, 1, ptr(10))
	a.Set(0, 2, ptr(20))

	accessors := a.Split([]slot{1, 2})
	require.Len(t, accessors, 2)
	require.Equal(t, 10, *accessors[0].Get(0))
	require.Equal(t, 20, *accessors[1].Get(0))
}

func TestAccessIsotopeSplitPanicsOnDuplicateKeys(t *testing.T) {
	m := newSlotMap()
	a := access.NewAccessIsotope[slot, int]("arch", "comp", m, true, nil)
	a.Set(0, 1, ptr(10))
	require.Panics(t, func() { a.Split([]slot{1, 1}) })
}

func TestAccessIsotopeKnownDiscrimsVisitsEveryAllocatedSlot(t *testing.T) {
	m := newSlotMap()
	a := access.NewAccessIsotope[slot, int]("arch", "comp", m, true, nil)
	a.Set(0, 5, ptr(1))
	a.Set(0, 1, ptr(2))

	seen := make(map[slot]bool)
	a.KnownDiscrims(func(k slot) bool {
		seen[k] = true
		return true
	})
	require.Len(t, seen, 2)
	require.True(t, seen[5] && seen[1])
}

func ptr[T any](v T) *T { return &v }
