package ealloc

import "math/rand/v2"

// Shard is one worker's private view of an allocator for the duration of
// one tick. Shards are reassigned to workers between ticks; within a
// tick, only the worker holding a shard touches it, so Allocate needs no
// internal locking.
type Shard[E any, H any] interface {
	Allocate(hint H) E
}

// ShardAssigner provides the randomness (or determinism, for tests)
// behind shard-to-worker dispatch.
type ShardAssigner interface {
	// SelectForOfflineAllocation picks a shard index for an allocation
	// made outside a tick (e.g. world setup), given the shard count.
	SelectForOfflineAllocation(numShards int) int
	// ShuffleShards reorders a tick's shard slice before handing shards
	// out to workers, so no worker is statically bound to one shard.
	ShuffleShards(n int, swap func(i, j int))
}

// RandomShardAssigner is the default ShardAssigner, using math/rand/v2.
type RandomShardAssigner struct{}

func (RandomShardAssigner) SelectForOfflineAllocation(numShards int) int {
	return rand.IntN(numShards)
}

func (RandomShardAssigner) ShuffleShards(n int, swap func(i, j int)) {
	rand.Shuffle(n, swap)
}

// StaticShardAssigner always selects the same shard and never shuffles.
// It exists for deterministic tests: the reference implementation's test
// suite relies on controlling exactly which shard an allocation lands in.
type StaticShardAssigner struct {
	AllocatingShard int
}

func (s StaticShardAssigner) SelectForOfflineAllocation(int) int { return s.AllocatingShard }

func (StaticShardAssigner) ShuffleShards(int, func(i, j int)) {}
