package offline_test

import (
	"testing"

	"github.com/archonkit/archon/offline"
	"github.com/stretchr/testify/assert"
)

func TestDrainRunsCreatesBeforeDeletes(t *testing.T) {
	buf := offline.NewBuffer(2)
	var order []string

	buf.Shards[0].QueueDelete(func() { order = append(order, "delete-0") })
	buf.Shards[0].QueueCreate(func() { order = append(order, "create-0") })
	buf.Shards[1].QueueCreate(func() { order = append(order, "create-1") })
	buf.Shards[1].QueueDelete(func() { order = append(order, "delete-1") })

	buf.Drain()

	assert.Equal(t, []string{"create-0", "create-1", "delete-0", "delete-1"}, order)
}

func TestDrainClearsBufferForNextTick(t *testing.T) {
	buf := offline.NewBuffer(1)
	calls := 0
	buf.Shards[0].QueueCreate(func() { calls++ })

	buf.Drain()
	buf.Drain()

	assert.Equal(t, 1, calls)
}
