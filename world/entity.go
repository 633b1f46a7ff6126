package world

import "sync"

// StrongHandle is an owning reference to one entity. It is a plain value
// with no reference count: Delete finalizes an entity whether or not copies
// of its StrongHandle still exist, and only strong references held inside
// component or global values are seen by the dangling-reference scan.
type StrongHandle struct {
	Archetype string
	ID        uint64
}

// WeakHandle is a non-owning (archetype, raw, generation) reference used
// to detect dangling references to an id that has since been recycled and
// reallocated.
type WeakHandle struct {
	Archetype  string
	ID         uint64
	Generation uint32
}

// TempHandle is a borrowed reference used inside iteration to avoid
// ownership bookkeeping. Since Go has no borrow checker, this is the same
// shape as StrongHandle; it exists as a distinct type so call sites
// document which flavor of reference they hold.
type TempHandle struct {
	Archetype string
	ID        uint64
}

// generations tracks, per archetype, how many times each raw id slot has
// been finalized: a growable slice indexed by raw id, bumped on every
// finalized deletion so a stale WeakHandle's generation no longer matches.
type generations struct {
	mu  sync.Mutex
	gen []uint32
}

func (g *generations) get(id uint64) uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if int(id) >= len(g.gen) {
		return 0
	}
	return g.gen[id]
}

func (g *generations) bump(id uint64) uint32 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if int(id) >= len(g.gen) {
		grown := make([]uint32, id+1)
		copy(grown, g.gen)
		g.gen = grown
	}
	g.gen[id]++
	return g.gen[id]
}

// Weak downgrades a StrongHandle to a WeakHandle, stamping it with the
// id's current generation.
func (w *World) Weak(h StrongHandle) WeakHandle {
	return WeakHandle{Archetype: h.Archetype, ID: h.ID, Generation: w.generations(h.Archetype).get(h.ID)}
}

// IsLive reports whether a WeakHandle still refers to a currently
// allocated entity: the id must belong to a known archetype and its
// generation must match the current one. An entity queued for deletion but
// held back by a finalizer component is still allocated and reports live;
// its generation is bumped only when it is finalized.
func (w *World) IsLive(h WeakHandle) bool {
	if _, ok := w.archetypes[h.Archetype]; !ok {
		return false
	}
	return w.generations(h.Archetype).get(h.ID) == h.Generation
}

func (w *World) generations(archetype string) *generations {
	w.genMu.Lock()
	defer w.genMu.Unlock()
	g, ok := w.gens[archetype]
	if !ok {
		g = &generations{}
		w.gens[archetype] = g
	}
	return g
}
