package registry_test

import (
	"testing"

	"github.com/archonkit/archon/registry"
	"github.com/stretchr/testify/require"
)

func TestCacheRegisterAndLookup(t *testing.T) {
	c := registry.NewCache[string]()

	idx, err := c.Register("position", "Position component")
	require.NoError(t, err)
	require.Equal(t, 0, idx)

	got, ok := c.GetIndex("position")
	require.True(t, ok)
	require.Equal(t, idx, got)
	require.Equal(t, "Position component", *c.GetItem(idx))
	require.Equal(t, 1, c.Len())
}

func TestCacheRegisterDuplicateKeyErrors(t *testing.T) {
	c := registry.NewCache[int]()
	_, err := c.Register("velocity", 1)
	require.NoError(t, err)

	_, err = c.Register("velocity", 2)
	require.Error(t, err)
	require.IsType(t, registry.DuplicateKeyError{}, err)
}

func TestCacheEachVisitsEveryEntry(t *testing.T) {
	c := registry.NewCache[int]()
	c.Register("a", 1)
	c.Register("b", 2)

	seen := make(map[string]int)
	c.Each(func(key string, idx int, item *int) bool {
		seen[key] = *item
		return true
	})
	require.Equal(t, map[string]int{"a": 1, "b": 2}, seen)
}
