package world

import (
	"fmt"
	"sort"
	"sync"

	"github.com/TheBitDrifter/bark"
	"github.com/TheBitDrifter/mask"
	"github.com/archonkit/archon/access"
	"github.com/archonkit/archon/ealloc"
	"github.com/archonkit/archon/isotope"
	"github.com/archonkit/archon/raw"
	"github.com/archonkit/archon/referrer"
	"github.com/archonkit/archon/storage"
	"github.com/bits-and-blooms/bitset"
)

// lifecycle is the type-erased entity allocator for one archetype. World
// deals in raw uint64 ids everywhere above this boundary (matching
// system.RunContext's Creators/Deleters signatures); lifecycle is the
// seam where that uint64 gets translated to and from the archetype's own
// raw.ID type, hint type, and recycler implementation, letting a single
// World hold archetypes with different E/H/R without itself being
// generic over them.
type lifecycle interface {
	AllocateOffline() uint64
	QueueDeallocate(id uint64)
	Shards() []uint64Shard
	Snapshot() (gauge uint64, iterAlive func(yield func(lo, hi uint64) bool))
	Flush()
}

// uint64Shard is one system's private allocation shard for the duration
// of a tick; world.go assigns exactly one per system.
type uint64Shard interface {
	Allocate() uint64
}

type recyclingAdapter[E raw.ID, H any, R ealloc.Recycler[E, H]] struct {
	hint H
	r    *ealloc.Recycling[E, H, R]
}

func (a *recyclingAdapter[E, H, R]) AllocateOffline() uint64 {
	return raw.ToPrimitive(a.r.Allocate(a.hint))
}

func (a *recyclingAdapter[E, H, R]) QueueDeallocate(id uint64) {
	a.r.QueueDeallocate(raw.FromPrimitive[E](id))
}

func (a *recyclingAdapter[E, H, R]) Flush() { a.r.Flush() }

func (a *recyclingAdapter[E, H, R]) Shards() []uint64Shard {
	shards := a.r.Shards()
	out := make([]uint64Shard, len(shards))
	for i, sh := range shards {
		out[i] = shardAdapter[E, H]{sh: sh, hint: a.hint}
	}
	return out
}

func (a *recyclingAdapter[E, H, R]) Snapshot() (uint64, func(yield func(lo, hi uint64) bool)) {
	snap := a.r.Snapshot()
	return raw.ToPrimitive(snap.Gauge), func(yield func(lo, hi uint64) bool) {
		snap.IterAliveRanges(func(lo, hi E) bool {
			return yield(raw.ToPrimitive(lo), raw.ToPrimitive(hi))
		})
	}
}

type shardAdapter[E raw.ID, H any] struct {
	sh   ealloc.Shard[E, H]
	hint H
}

func (s shardAdapter[E, H]) Allocate() uint64 { return raw.ToPrimitive(s.sh.Allocate(s.hint)) }

// simpleEntry is one registered simple component: the type-erased
// storage plus the closures RegisterSimple captured at registration time
// to bridge the `any`-boxed world API to the concrete storage.Storage[T].
type simpleEntry struct {
	mu sync.RWMutex
	// name and bit identify this entry for the archetype's compact
	// write-lock mask (see archetypeState.locks below); bit is assigned by
	// assignLockBits at Build time.
	name       string
	bit        uint32
	present    func(id uint64) bool
	set        func(id uint64, v any)
	remove     func(id uint64)
	referrable func(id uint64) referrer.Referrable
	// makeAccessor builds a fresh *access.AccessSingle[T] (boxed as any)
	// over this entry's storage. mutable has no bearing on AccessSingle's
	// shape (it exposes Set unconditionally, per access/single.go's
	// doc comment); it is threaded through only so callers building
	// RunContext.Simples from a SimpleRequest don't need a type switch
	// to decide whether to keep it.
	makeAccessor func(mutable bool) any

	// getAny returns the component at id boxed as *T (any), or nil if
	// absent, for auto-initializers reading a sibling component.
	getAny func(id uint64) any
	// initReads names the other simple components this entry's
	// auto-initializer reads; used to topologically sort initializers at
	// Build time.
	initReads []string
	// runInit invokes the auto-initializer for id, returning whether it
	// wrote a value. nil means the component has no auto-initializer.
	runInit func(id uint64, lookup func(name string) any) bool
}

// RegisterSimple adds a simple component column of type T to an
// archetype under construction. required marks the component
// must-be-present; toReferrable may be nil for component types with no
// entity-reference fields. The concrete storage.Storage[T] is erased
// behind closures captured here, once, rather than behind a
// per-component vtable.
func RegisterSimple[T any](b *ArchetypeBuilder, name string, s storage.Storage[T], required, finalizer bool, toReferrable func(*T) referrer.Referrable) *SimpleHandle[T] {
	entry := &simpleEntry{name: name}
	entry.makeAccessor = func(mutable bool) any {
		return access.NewAccessSingle[T](b.name, name, s, required)
	}
	entry.present = func(id uint64) bool {
		v, ok := s.Get(id)
		return ok && v != nil
	}
	entry.getAny = func(id uint64) any {
		v, ok := s.Get(id)
		if !ok {
			return nil
		}
		return v
	}
	entry.set = func(id uint64, v any) {
		if v == nil {
			s.Set(id, nil)
			return
		}
		tv, ok := v.(*T)
		if !ok {
			panic(fmt.Sprintf("archon: component %q/%q: expected %T, got %T", b.name, name, tv, v))
		}
		s.Set(id, tv)
	}
	entry.remove = func(id uint64) { s.Set(id, nil) }
	if toReferrable != nil {
		entry.referrable = func(id uint64) referrer.Referrable {
			v, ok := s.Get(id)
			if !ok || v == nil {
				return referrer.None{}
			}
			return toReferrable(v)
		}
	} else {
		entry.referrable = func(uint64) referrer.Referrable { return referrer.None{} }
	}

	if finalizer {
		b.finalizerNames = append(b.finalizerNames, name)
	}
	b.simples[name] = entry
	return &SimpleHandle[T]{entry: entry}
}

// SimpleHandle is returned by RegisterSimple so callers can chain
// WithInit to declare an auto-initializer without widening
// RegisterSimple's own parameter list for the common no-initializer case.
type SimpleHandle[T any] struct {
	entry *simpleEntry
}

// WithInit declares an auto-initializer: reads names the other simple
// components (of the same archetype) this initializer consults, and init
// computes the value given a lookup of an already-initialized sibling's
// current value (boxed as *U any; the caller type-asserts). Returning
// ok == false leaves the component absent. Initializers are topologically
// sorted by their reads at Build time; a cycle panics as a
// configuration error.
func (h *SimpleHandle[T]) WithInit(reads []string, init func(id uint64, lookup func(name string) any) (T, bool)) *SimpleHandle[T] {
	h.entry.initReads = reads
	h.entry.runInit = func(id uint64, lookup func(name string) any) bool {
		v, ok := init(id, lookup)
		if !ok {
			return false
		}
		h.entry.set(id, &v)
		return true
	}
	return h
}

// isotopeEntry is one registered isotope component family.
type isotopeEntry struct {
	mu sync.RWMutex
	// name and bit mirror simpleEntry's: identity for the archetype's
	// compact write-lock mask.
	name       string
	bit        uint32
	referrable func(id uint64) referrer.Referrable
	// makeAccessor builds either a full-map *access.AccessIsotope[D, T]
	// (discrim == nil means every discriminant) or, for a partial
	// request, the []*access.AccessSingle[T] produced by splitting the
	// full accessor at exactly the requested discriminant indices.
	makeAccessor func(mutable bool, discrim []int) any
	// clearAll removes id's component at every discriminant currently
	// allocated, used by the offline delete path.
	clearAll func(id uint64)
}

// isotopeReferrable composes one entity's values across every known
// discriminant of an isotope map into a single Referrable, so the world's
// full dangling-reference scan can treat it exactly like a simple
// component's single value.
type isotopeReferrable[D isotope.Discrim, T any] struct {
	m            *isotope.Map[D, T]
	id           uint64
	toReferrable func(*T) referrer.Referrable
}

func (r isotopeReferrable[D, T]) VisitReferrers(v referrer.Visitor) {
	r.m.Iter(func(_ D, s storage.Storage[T]) bool {
		if val, ok := s.Get(r.id); ok && val != nil {
			r.toReferrable(val).VisitReferrers(v)
		}
		return true
	})
}

// RegisterIsotope adds an isotope component family to an archetype under
// construction. fromIndex converts a discriminant's usize index (as
// carried by system.IsotopeRequest.Discrim) back to a concrete D, and is
// only ever invoked for a partial (discriminant-subset) request. def
// configures the default-on-read init strategy; nil means no
// default-on-read behavior. toReferrable may be nil for component types
// with no entity-reference fields.
func RegisterIsotope[D isotope.Discrim, T any](b *ArchetypeBuilder, name string, m *isotope.Map[D, T], fromIndex func(int) D, def access.DefaultFactory[T], toReferrable func(*T) referrer.Referrable) {
	entry := &isotopeEntry{name: name}
	entry.makeAccessor = func(mutable bool, discrim []int) any {
		full := access.NewAccessIsotope[D, T](b.name, name, m, mutable, def)
		if discrim == nil {
			return full
		}
		keys := make([]D, len(discrim))
		for i, idx := range discrim {
			keys[i] = fromIndex(idx)
		}
		// Requested storages are lazily created before the split so a
		// discriminant no entity has touched yet still resolves.
		m.GetOrInsertArray(keys)
		return full.Split(keys)
	}
	entry.clearAll = func(id uint64) {
		m.Iter(func(_ D, s storage.Storage[T]) bool {
			s.Set(id, nil)
			return true
		})
	}
	if toReferrable != nil {
		entry.referrable = func(id uint64) referrer.Referrable {
			return isotopeReferrable[D, T]{m: m, id: id, toReferrable: toReferrable}
		}
	} else {
		entry.referrable = func(uint64) referrer.Referrable { return referrer.None{} }
	}
	b.isotopes[name] = entry
}

// ArchetypeBuilder accumulates one archetype's component columns and
// allocator configuration before Build assembles the World.
type ArchetypeBuilder struct {
	name           string
	buildLifecycle func(numShards int) lifecycle
	simples        map[string]*simpleEntry
	isotopes       map[string]*isotopeEntry
	finalizerNames []string
}

// WithRecycling configures the archetype's entity allocator. E is the
// archetype's raw entity id type, H the recycler's hint type, and R the
// recycler implementation, each chosen per archetype. A package-level
// function rather than a method because Go methods cannot introduce
// their own type parameters.
func WithRecycling[E raw.ID, H any, R ealloc.Recycler[E, H]](b *ArchetypeBuilder, assigner ealloc.ShardAssigner, newRecycler func() R) *ArchetypeBuilder {
	var hint H
	b.buildLifecycle = func(numShards int) lifecycle {
		return &recyclingAdapter[E, H, R]{
			hint: hint,
			r:    ealloc.NewRecycling[E, H, R](numShards, assigner, newRecycler),
		}
	}
	return b
}

// archetypeState is the built, immutable-shape runtime counterpart of an
// ArchetypeBuilder, held by World after Build.
type archetypeState struct {
	name           string
	lifecycle      lifecycle
	simples        map[string]*simpleEntry
	isotopes       map[string]*isotopeEntry
	finalizerNames []string
	// initOrder is the topologically sorted list of simple component
	// names carrying an auto-initializer, each guaranteed to run after
	// every component it reads.
	initOrder []string

	createMu sync.Mutex

	// deletionMu guards deletion, the per-archetype bitset marking
	// entities scheduled for deletion. An entity is only physically freed
	// once its bit is set and no finalizer component remains.
	deletionMu sync.Mutex
	deletion   *bitset.BitSet

	// lockMu/locks is the compact record of which simple/isotope component
	// bits currently hold a write lock. It backs acquireSimple/
	// acquireIsotope's scheduler-bug diagnostic and the
	// 256-component-per-archetype budget assignLockBits enforces.
	lockMu sync.Mutex
	locks  mask.Mask256
}

// assignLockBits gives every simple and isotope component entry of one
// archetype a stable bit index into archetypeState.locks, iterating in
// sorted-name order so bit assignment (and therefore any diagnostic
// referencing it) is deterministic across builds. Panics if an archetype
// declares more lockable components than Mask256 can address.
func assignLockBits(archetype string, simples map[string]*simpleEntry, isotopes map[string]*isotopeEntry) {
	names := make([]string, 0, len(simples))
	for n := range simples {
		names = append(names, n)
	}
	sort.Strings(names)
	isoNames := make([]string, 0, len(isotopes))
	for n := range isotopes {
		isoNames = append(isoNames, n)
	}
	sort.Strings(isoNames)

	if total := len(names) + len(isoNames); total > 256 {
		panic(bark.AddTrace(fmt.Errorf("archon: archetype %q declares %d lockable components, exceeding the 256-bit lock mask budget", archetype, total)))
	}

	var bit uint32
	for _, n := range names {
		simples[n].bit = bit
		bit++
	}
	for _, n := range isoNames {
		isotopes[n].bit = bit
		bit++
	}
}

// acquireSimple acquires e's reader-writer lock in the direction mutable
// demands, non-blocking: the scheduler's exclusion edges guarantee a
// conflicting acquisition never happens, so a failed TryLock/TryRLock here
// means the topology under-constrained this system and is a scheduler
// bug, not a contention condition to wait out. Returns the matching
// release function. Marks/unmarks e's bit in a.locks around a write
// acquisition only; concurrent readers never contend for the bit.
func (a *archetypeState) acquireSimple(e *simpleEntry, mutable bool) func() {
	if mutable {
		if !e.mu.TryLock() {
			panic(bark.AddTrace(fmt.Errorf("archon: scheduler bug: simple component %q/%q is already locked", a.name, e.name)))
		}
		a.markBit(e.bit)
		return func() { a.unmarkBit(e.bit); e.mu.Unlock() }
	}
	if !e.mu.TryRLock() {
		panic(bark.AddTrace(fmt.Errorf("archon: scheduler bug: simple component %q/%q is already locked", a.name, e.name)))
	}
	return e.mu.RUnlock
}

// acquireIsotope is acquireSimple's isotope-entry counterpart: the lock
// guards the isotope map's outer index, not any individual discriminant's
// storage, which is why one bit per isotope component (not per
// discriminant) is sufficient.
func (a *archetypeState) acquireIsotope(e *isotopeEntry, mutable bool) func() {
	if mutable {
		if !e.mu.TryLock() {
			panic(bark.AddTrace(fmt.Errorf("archon: scheduler bug: isotope component %q/%q is already locked", a.name, e.name)))
		}
		a.markBit(e.bit)
		return func() { a.unmarkBit(e.bit); e.mu.Unlock() }
	}
	if !e.mu.TryRLock() {
		panic(bark.AddTrace(fmt.Errorf("archon: scheduler bug: isotope component %q/%q is already locked", a.name, e.name)))
	}
	return e.mu.RUnlock
}

func (a *archetypeState) markBit(bit uint32) {
	a.lockMu.Lock()
	defer a.lockMu.Unlock()
	a.locks.Mark(bit)
}

func (a *archetypeState) unmarkBit(bit uint32) {
	a.lockMu.Lock()
	defer a.lockMu.Unlock()
	a.locks.Unmark(bit)
}

// Locked reports whether any simple or isotope component of this archetype
// currently holds a write lock.
func (a *archetypeState) Locked() bool {
	a.lockMu.Lock()
	defer a.lockMu.Unlock()
	return !a.locks.IsEmpty()
}

// markQueuedForDeletion sets id's deletion bit, growing the bitset on
// demand. Bit i is addressed directly by raw id, not by a compacted
// index, mirroring how a Dense storage's own presence bitset is indexed.
func (a *archetypeState) markQueuedForDeletion(id uint64) {
	a.deletionMu.Lock()
	defer a.deletionMu.Unlock()
	if a.deletion == nil {
		a.deletion = bitset.New(uint(id) + 1)
	}
	a.deletion.Set(uint(id))
}

func (a *archetypeState) isQueuedForDeletion(id uint64) bool {
	a.deletionMu.Lock()
	defer a.deletionMu.Unlock()
	return a.deletion != nil && a.deletion.Test(uint(id))
}

func (a *archetypeState) clearQueuedForDeletion(id uint64) {
	a.deletionMu.Lock()
	defer a.deletionMu.Unlock()
	if a.deletion != nil {
		a.deletion.Clear(uint(id))
	}
}

// hasFinalizer reports whether any finalizer-flagged component is still
// present for id, which gates physical deletion.
func (a *archetypeState) hasFinalizer(id uint64) bool {
	for _, name := range a.finalizerNames {
		if a.simples[name].present(id) {
			return true
		}
	}
	return false
}

// clearAllComponents removes every simple and isotope entry for id, the
// last step before the id is queued back to the allocator.
func (a *archetypeState) clearAllComponents(id uint64) {
	for _, s := range a.simples {
		s.remove(id)
	}
	for _, iso := range a.isotopes {
		iso.clearAll(id)
	}
}
