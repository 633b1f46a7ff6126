package offline

// Operation is a deferred action queued during a tick and executed once
// every system has completed. Closures close over the concrete storages and
// component bundles they need, which stands in for the original's
// `Box<dyn Operation>` trait object.
type Operation func()

// Shard is one worker's private queue of deferred operations for the
// duration of one tick. Only the worker holding the shard appends to it, so
// Queue needs no locking; draining happens single-threaded at tick end.
type Shard struct {
	creates []Operation
	deletes []Operation
}

// QueueCreate defers an entity-creation operation. Create operations run
// before any delete operation when the buffer drains, so auto-initializers
// always see a fully populated storage before finalizer/deletion logic
// walks it.
func (s *Shard) QueueCreate(op Operation) {
	s.creates = append(s.creates, op)
}

// QueueDelete defers an entity-deletion operation.
func (s *Shard) QueueDelete(op Operation) {
	s.deletes = append(s.deletes, op)
}

// Buffer is the full per-tick set of shards. The caller picks the count;
// world.Execute creates one shard per system, matching how it hands out
// ealloc shards, so two systems never share a buffer during a tick.
type Buffer struct {
	Shards []*Shard
}

// NewBuffer creates a Buffer with n shards, pre-allocated so Shards[i] is
// always valid.
func NewBuffer(n int) *Buffer {
	b := &Buffer{Shards: make([]*Shard, n)}
	for i := range b.Shards {
		b.Shards[i] = &Shard{}
	}
	return b
}

// Drain runs every queued creation across every shard, then every queued
// deletion across every shard, then clears the buffer for the next tick.
// Must only be called with no shard checked out to a worker.
func (b *Buffer) Drain() {
	for _, s := range b.Shards {
		for _, op := range s.creates {
			op()
		}
	}
	for _, s := range b.Shards {
		for _, op := range s.deletes {
			op()
		}
	}
	for _, s := range b.Shards {
		s.creates = s.creates[:0]
		s.deletes = s.deletes[:0]
	}
}
