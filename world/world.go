package world

import (
	"fmt"
	"sync"

	"github.com/TheBitDrifter/bark"
	"github.com/archonkit/archon/access"
	"github.com/archonkit/archon/executor"
	"github.com/archonkit/archon/offline"
	"github.com/archonkit/archon/referrer"
	"github.com/archonkit/archon/system"
	"github.com/archonkit/archon/topology"
	"github.com/archonkit/archon/tracing"
)

// World is the single handle a generated application binds against: every
// archetype, global, and system a Builder accumulated, plus the scheduler
// topology Build computed once from them. Component types are erased once,
// at RegisterSimple/RegisterIsotope time, instead of on every access.
type World struct {
	archetypes map[string]*archetypeState
	globals    map[string]*globalEntry

	sendSystems   []system.Spec
	unsendSystems []system.Spec

	topo    *topology.Topology
	initial topology.InitialState
	exec    *executor.Executor

	scanDangling bool

	genMu sync.Mutex
	gens  map[string]*generations
}

// DeletionStatus reports what Delete actually did to the entity.
type DeletionStatus int

const (
	// Deleted means the entity's components were cleared immediately and
	// its id returned to the allocator.
	Deleted DeletionStatus = iota
	// QueuedForFinalizer means the entity's deletion bit was set but at
	// least one finalizer-flagged component is still present, so physical
	// cleanup is deferred until every finalizer has removed itself.
	QueuedForFinalizer
)

func (w *World) mustArchetype(name string) *archetypeState {
	a, ok := w.archetypes[name]
	if !ok {
		panic(bark.AddTrace(fmt.Errorf("archon: archetype %q is not registered", name)))
	}
	return a
}

func (w *World) mustSimple(archetype, component string) *simpleEntry {
	a := w.mustArchetype(archetype)
	e, ok := a.simples[component]
	if !ok {
		panic(bark.AddTrace(fmt.Errorf("archon: archetype %q has no simple component %q", archetype, component)))
	}
	return e
}

func (w *World) mustIsotope(archetype, component string) *isotopeEntry {
	a := w.mustArchetype(archetype)
	e, ok := a.isotopes[component]
	if !ok {
		panic(bark.AddTrace(fmt.Errorf("archon: archetype %q has no isotope component %q", archetype, component)))
	}
	return e
}

// applyCreate populates id's component bundle and runs every auto-
// initializer in topological order, skipping any component the bundle
// already supplied.
func (w *World) applyCreate(a *archetypeState, id uint64, components map[string]any) {
	for name, v := range components {
		e, ok := a.simples[name]
		if !ok {
			panic(bark.AddTrace(fmt.Errorf("archon: archetype %q has no simple component %q", a.name, name)))
		}
		e.set(id, v)
	}
	for _, name := range a.initOrder {
		e := a.simples[name]
		if e.present(id) {
			continue
		}
		e.runInit(id, func(dep string) any {
			d, ok := a.simples[dep]
			if !ok {
				return nil
			}
			return d.getAny(id)
		})
	}
}

// Create allocates a new entity of the named archetype outside of a tick,
// applies components, and runs auto-initializers.
func (w *World) Create(archetype string, components map[string]any) StrongHandle {
	a := w.mustArchetype(archetype)
	a.createMu.Lock()
	defer a.createMu.Unlock()
	id := a.lifecycle.AllocateOffline()
	w.applyCreate(a, id, components)
	return StrongHandle{Archetype: archetype, ID: id}
}

// Delete queues an entity for deletion outside of a tick. If no
// finalizer-flagged component remains present, the entity is finalized
// immediately; otherwise QueuedForFinalizer is returned and finalization
// happens the next time a deletion path observes every finalizer
// component removed; the owning system re-issues deletion once its
// finalizer condition clears.
func (w *World) Delete(h StrongHandle) DeletionStatus {
	a := w.mustArchetype(h.Archetype)
	a.markQueuedForDeletion(h.ID)
	if a.hasFinalizer(h.ID) {
		return QueuedForFinalizer
	}
	w.finalize(a, h.Archetype, h.ID)
	return Deleted
}

// finalizeIfReady re-checks the finalizer gate and, if clear, finalizes.
// Used by the offline-buffer delete path, where the finalizer gate may
// have cleared during the tick that queued the deletion.
func (w *World) finalizeIfReady(a *archetypeState, archetype string, id uint64) {
	if a.hasFinalizer(id) {
		return
	}
	w.finalize(a, archetype, id)
}

// finalize runs the dangling-reference scan (if enabled), clears every
// component, returns the id to the allocator, and bumps its generation so
// any WeakHandle still pointing at it reports dead.
func (w *World) finalize(a *archetypeState, archetype string, id uint64) {
	if w.scanDangling {
		violations := referrer.Scan(w.referrerSources(archetype, id), archetype, id, "")
		if len(violations) > 0 {
			panic(bark.AddTrace(violations[0]))
		}
	}
	a.clearAllComponents(id)
	a.clearQueuedForDeletion(id)
	a.lifecycle.QueueDeallocate(id)
	w.generations(archetype).bump(id)
}

// referrerSources builds the full (location -> Referrable) set a dangling-
// reference scan walks: every live entity's simple and isotope components
// across every archetype, plus every global, excluding the entity about to
// be deleted itself. This is O(live entities) per deletion; callers enable
// it via Builder.WithDanglingRefScan knowing that cost.
func (w *World) referrerSources(excludeArchetype string, excludeID uint64) map[string]referrer.Referrable {
	sources := make(map[string]referrer.Referrable)
	for archName, a := range w.archetypes {
		_, iterAlive := a.lifecycle.Snapshot()
		for name, e := range a.simples {
			e := e
			loc := archName + "/" + name
			iterAlive(func(lo, hi uint64) bool {
				for id := lo; id < hi; id++ {
					if archName == excludeArchetype && id == excludeID {
						continue
					}
					sources[fmt.Sprintf("%s#%d", loc, id)] = e.referrable(id)
				}
				return true
			})
		}
		for name, e := range a.isotopes {
			e := e
			loc := archName + "/" + name
			iterAlive(func(lo, hi uint64) bool {
				for id := lo; id < hi; id++ {
					if archName == excludeArchetype && id == excludeID {
						continue
					}
					sources[fmt.Sprintf("%s#%d", loc, id)] = e.referrable(id)
				}
				return true
			})
		}
	}
	for name, g := range w.globals {
		sources["global/"+name] = g.referrable()
	}
	return sources
}

// GetSimpleStorage returns a fresh accessor over one archetype's simple
// component storage for offline (outside-a-tick) use.
func (w *World) GetSimpleStorage(archetype, component string, mutable bool) any {
	return w.mustSimple(archetype, component).makeAccessor(mutable)
}

// GetIsotopeStorage returns a fresh accessor over one archetype's isotope
// component family for offline use. A nil discrim requests every
// discriminant; otherwise the returned value is the []*access.AccessSingle
// produced by splitting at exactly the requested indices.
func (w *World) GetIsotopeStorage(archetype, component string, discrim []int, mutable bool) any {
	return w.mustIsotope(archetype, component).makeAccessor(mutable, discrim)
}

// Execute drives one full tick: builds the per-system accessor context for
// every thread-safe and thread-unsafe system, runs them through the
// topology-ordered steal/complete protocol, then drains the offline
// buffer and flushes every archetype's entity allocator. tracer may be nil,
// in which case every event is discarded (tracing.Noop).
func (w *World) Execute(tracer tracing.Tracer) {
	if tracer == nil {
		tracer = tracing.Noop{}
	}
	threadOf := func(worker int) tracing.Thread {
		if worker == executor.MainWorker {
			return tracing.MainThread
		}
		return tracing.WorkerThread(worker)
	}

	cycleCtx := tracer.StartCycle()
	defer tracer.EndCycle(cycleCtx)

	shardCtx := tracer.StartPrepareEallocShards()
	archShards := make(map[string][]uint64Shard, len(w.archetypes))
	for name, a := range w.archetypes {
		archShards[name] = a.lifecycle.Shards()
	}
	tracer.EndPrepareEallocShards(shardCtx)

	total := len(w.sendSystems) + len(w.unsendSystems)
	buf := offline.NewBuffer(total)

	hooks := executor.Hooks{
		RunSend: func(worker, idx int) {
			spec := w.sendSystems[idx]
			node := topology.Node{Kind: topology.SendSystem, Index: idx}
			thread := threadOf(worker)
			ctx := tracer.StartRunSend(thread, node, spec.DebugName)
			w.runSystem(spec, idx, archShards, buf.Shards[idx])
			tracer.EndRunSend(ctx, thread, node, spec.DebugName)
		},
		RunUnsend: func(idx int) {
			spec := w.unsendSystems[idx]
			node := topology.Node{Kind: topology.UnsendSystem, Index: idx}
			shardIdx := len(w.sendSystems) + idx
			ctx := tracer.StartRunUnsend(tracing.MainThread, node, spec.DebugName)
			w.runSystem(spec, shardIdx, archShards, buf.Shards[shardIdx])
			tracer.EndRunUnsend(ctx, tracing.MainThread, node, spec.DebugName)
		},
		OnStealPending:  func(worker int) { tracer.StealReturnPending(threadOf(worker)) },
		OnStealComplete: func(worker int) { tracer.StealReturnComplete(threadOf(worker)) },
		OnMarkRunnable:  tracer.MarkRunnable,
		OnComplete:      tracer.CompleteSystem,
		AfterCycle: func() {
			buf.Drain()
			for name, a := range w.archetypes {
				fCtx := tracer.StartFlushEalloc(name)
				a.lifecycle.Flush()
				tracer.EndFlushEalloc(fCtx, name)
			}
		},
	}

	w.exec.ExecuteTick(w.topo, w.initial, hooks)
}

// runSystem acquires every lock spec declared, builds the RunContext, runs
// the system body, and releases the locks. shardIdx addresses both this
// system's entity-allocator shard and its offline-buffer shard: the
// allocators get one shard per system at Build time and Execute creates the
// buffer with one shard per system, so the same index serves both without
// needing a goroutine-local worker identity.
func (w *World) runSystem(spec system.Spec, shardIdx int, archShards map[string][]uint64Shard, bufShard *offline.Shard) {
	ctx := &system.RunContext{
		Globals:  make(map[string]any),
		Simples:  make(map[system.ResourceKey]any),
		Isotopes: make(map[system.ResourceKey]any),
		Creators: make(map[string]func(archetype string, components map[string]any) uint64),
		Deleters: make(map[string]func(id uint64)),
		Entities: make(map[string]*access.RawIterator),
	}

	var unlock []func()
	defer func() {
		for i := len(unlock) - 1; i >= 0; i-- {
			unlock[i]()
		}
	}()

	for _, g := range spec.GlobalRequests {
		ge := w.globalEntry(g.Type)
		// Non-blocking: the topology's exclusion edges guarantee a
		// conflicting acquisition never actually happens, so a failed
		// TryLock/TryRLock here is a scheduler bug, not contention to wait
		// out.
		if g.Mutable {
			if !ge.mu.TryLock() {
				panic(bark.AddTrace(fmt.Errorf("archon: scheduler bug: global %q is already locked", g.Type)))
			}
			unlock = append(unlock, ge.mu.Unlock)
		} else {
			if !ge.mu.TryRLock() {
				panic(bark.AddTrace(fmt.Errorf("archon: scheduler bug: global %q is already locked", g.Type)))
			}
			unlock = append(unlock, ge.mu.RUnlock)
		}
		if ge.value == nil && g.Initial != nil {
			ge.value = g.Initial()
		}
		ctx.Globals[g.Type] = ge.value
	}

	for _, s := range spec.SimpleRequests {
		arch := w.mustArchetype(s.Archetype)
		e := w.mustSimple(s.Archetype, s.Component)
		unlock = append(unlock, arch.acquireSimple(e, s.Mutable))
		ctx.Simples[system.SimpleKey(s.Archetype, s.Component)] = e.makeAccessor(s.Mutable)
	}

	for _, iso := range spec.IsotopeRequests {
		arch := w.mustArchetype(iso.Archetype)
		e := w.mustIsotope(iso.Archetype, iso.Component)
		// A partial request only needs the outer lock to resolve (and
		// lazily create) its storages; disjoint-discriminant writers then
		// work through their own inner storages, so the duration-of-system
		// hold is a read hold even when the request is mutable. Full-map
		// access takes the lock in the direction the request declares.
		partial := iso.Discrim != nil
		unlock = append(unlock, arch.acquireIsotope(e, iso.Mutable && !partial))
		ctx.Isotopes[system.SimpleKey(iso.Archetype, iso.Component)] = e.makeAccessor(iso.Mutable, iso.Discrim)
	}

	for _, c := range spec.EntityCreatorRequests {
		archetype := c.Archetype
		a := w.archetypes[archetype]
		shard := archShards[archetype][shardIdx]
		ctx.Creators[archetype] = func(_ string, components map[string]any) uint64 {
			id := shard.Allocate()
			bufShard.QueueCreate(func() { w.applyCreate(a, id, components) })
			return id
		}
	}

	for _, d := range spec.EntityDeleterRequests {
		archetype := d.Archetype
		a := w.archetypes[archetype]
		ctx.Deleters[archetype] = func(id uint64) {
			a.markQueuedForDeletion(id)
			bufShard.QueueDelete(func() { w.finalizeIfReady(a, archetype, id) })
		}
	}

	for _, it := range spec.EntityIteratorRequests {
		a := w.archetypes[it.Archetype]
		_, iterAlive := a.lifecycle.Snapshot()
		ctx.Entities[it.Archetype] = access.NewRawIterator(iterAlive)
	}

	spec.Run(ctx)
}
