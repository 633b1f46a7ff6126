// Package ealloc implements the sharded entity ID allocator: a global
// atomic gauge for brand-new ids, a set of per-worker recycler shards that
// hand out deallocated ids without contending on a shared lock during a
// tick, and a flush step that redistributes a tick's deallocations evenly
// across shards once all workers have joined.
package ealloc
