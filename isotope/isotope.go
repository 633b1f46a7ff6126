package isotope

import (
	"fmt"
	"sync"

	"github.com/TheBitDrifter/bark"
	"github.com/archonkit/archon/storage"
)

// Discrim constrains the types usable as an isotope discriminant: an
// injective mapping to a small non-negative integer, so the dense and
// fixed-array backends can index it directly.
type Discrim interface {
	comparable
	// ToIndex returns the discriminant's usize-equivalent index.
	ToIndex() int
}

// DuplicateKeyError reports that GetMutArrayBy was called with two keys
// that resolve to the same underlying storage.
type DuplicateKeyError[D Discrim] struct {
	Key D
}

func (e DuplicateKeyError[D]) Error() string {
	return fmt.Sprintf("duplicate discriminant key in split access: %v", e.Key)
}

// NewStorageFunc constructs a fresh, empty storage for a newly observed
// discriminant.
type NewStorageFunc[T any] func() storage.Storage[T]

// index is the pluggable discriminant-to-slot strategy a Map delegates to.
// Implementations never see T; they only resolve a Discrim to a stable
// integer slot, allocating one on first insert.
type index[D Discrim] interface {
	find(d D) (slot int, ok bool)
	insert(d D) (slot int)
	forEach(yield func(slot int, d D) bool)
}

// Map is the discriminant → storage lookup for one isotope component type
// on one archetype. The outer mutex protects the index (which
// discriminants exist and which slot they occupy); each slot's storage is
// Go-level safe to mutate concurrently with other slots once resolved,
// matching the "outer lock only guards the index" contract.
type Map[D Discrim, T any] struct {
	mu         sync.RWMutex
	idx        index[D]
	storages   []storage.Storage[T]
	newStorage NewStorageFunc[T]
}

func newMap[D Discrim, T any](idx index[D], newStorage NewStorageFunc[T]) *Map[D, T] {
	return &Map[D, T]{idx: idx, newStorage: newStorage}
}

// GetBy returns the storage for key, or ok == false if no entity has ever
// stored a component at that discriminant.
func (m *Map[D, T]) GetBy(key D) (storage.Storage[T], bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getLocked(key)
}

func (m *Map[D, T]) getLocked(key D) (storage.Storage[T], bool) {
	slot, ok := m.idx.find(key)
	if !ok {
		return nil, false
	}
	return m.storages[slot], true
}

// GetMutBy is GetBy's mutable-access counterpart. Storage.Set already
// takes pointer receivers internally, so this is identical to GetBy; it
// is kept as a distinct name to mirror the read/write accessor split the
// rest of the package (and spec) uses.
func (m *Map[D, T]) GetMutBy(key D) (storage.Storage[T], bool) {
	return m.GetBy(key)
}

// GetOrInsert returns the storage for key, lazily creating one via the
// map's NewStorageFunc if this is the first time key has been seen.
func (m *Map[D, T]) GetOrInsert(key D) storage.Storage[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getOrInsertLocked(key)
}

func (m *Map[D, T]) getOrInsertLocked(key D) storage.Storage[T] {
	if s, ok := m.getLocked(key); ok {
		return s
	}
	slot := m.idx.insert(key)
	if slot >= len(m.storages) {
		grown := make([]storage.Storage[T], slot+1)
		copy(grown, m.storages)
		m.storages = grown
	}
	s := m.newStorage()
	m.storages[slot] = s
	return s
}

// GetOrInsertArray is GetOrInsert applied to every key in order.
func (m *Map[D, T]) GetOrInsertArray(keys []D) []storage.Storage[T] {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]storage.Storage[T], len(keys))
	for i, k := range keys {
		out[i] = m.getOrInsertLocked(k)
	}
	return out
}

// GetMutArrayBy resolves every key to its storage and returns them in
// order, panicking if any two keys resolve to the same slot. This is the
// primitive behind split isotope access: the caller promises distinct
// keys and receives disjoint mutable references to mutate concurrently.
func (m *Map[D, T]) GetMutArrayBy(keys []D) []storage.Storage[T] {
	m.mu.RLock()
	defer m.mu.RUnlock()

	slots := make([]int, len(keys))
	seen := make(map[int]D, len(keys))
	for i, k := range keys {
		slot, ok := m.idx.find(k)
		if !ok {
			panic(bark.AddTrace(fmt.Errorf("no storage for discriminant key %v", k)))
		}
		if dup, exists := seen[slot]; exists {
			_ = dup
			panic(bark.AddTrace(DuplicateKeyError[D]{Key: k}))
		}
		seen[slot] = k
		slots[i] = slot
	}

	out := make([]storage.Storage[T], len(keys))
	for i, slot := range slots {
		out[i] = m.storages[slot]
	}
	return out
}

// Iter visits every (discriminant, storage) pair currently allocated.
// Cross-discriminant ordering is backend-defined and not guaranteed.
func (m *Map[D, T]) Iter(yield func(discrim D, s storage.Storage[T]) bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	m.idx.forEach(func(slot int, d D) bool {
		return yield(d, m.storages[slot])
	})
}

// Len reports how many distinct discriminants currently have storage.
func (m *Map[D, T]) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := 0
	m.idx.forEach(func(int, D) bool {
		n++
		return true
	})
	return n
}
