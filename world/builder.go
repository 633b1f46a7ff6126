package world

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
	"github.com/archonkit/archon/executor"
	"github.com/archonkit/archon/registry"
	"github.com/archonkit/archon/system"
	"github.com/archonkit/archon/topology"
)

// Builder accumulates archetypes, globals, and systems before Build
// assembles the scheduler topology once and hands back a ready World.
// Archetypes, components, and resources are identified by string keys,
// the same identity style every other package in this module uses.
type Builder struct {
	concurrency   int
	deadlockCheck bool
	scanDangling  bool

	archetypes map[string]*ArchetypeBuilder
	globals    map[string]*globalEntry

	sendSystems   []system.Spec
	unsendSystems []system.Spec

	partitions *registry.Partitions
}

// NewBuilder creates an empty Builder configured to run with concurrency
// background worker goroutines (0 runs every system on the calling
// goroutine).
func NewBuilder(concurrency int) *Builder {
	return &Builder{
		concurrency: concurrency,
		archetypes:  make(map[string]*ArchetypeBuilder),
		globals:     make(map[string]*globalEntry),
		partitions:  registry.NewPartitions(),
	}
}

// WithDeadlockCheck enables the executor's debug-only all-idle guard.
func (b *Builder) WithDeadlockCheck(enabled bool) *Builder {
	b.deadlockCheck = enabled
	return b
}

// WithDanglingRefScan enables the end-of-tick referrer-graph scan for
// surviving strong references into a just-deleted entity. Disabled by
// default since the scan walks every registered storage and global on
// every deletion.
func (b *Builder) WithDanglingRefScan(enabled bool) *Builder {
	b.scanDangling = enabled
	return b
}

// Archetype returns the ArchetypeBuilder for name, creating it on first
// use. Archetype declarations and system registration may interleave
// freely; nothing about an archetype's shape is finalized until Build.
func (b *Builder) Archetype(name string) *ArchetypeBuilder {
	if ab, ok := b.archetypes[name]; ok {
		return ab
	}
	ab := &ArchetypeBuilder{
		name:     name,
		simples:  make(map[string]*simpleEntry),
		isotopes: make(map[string]*isotopeEntry),
	}
	b.archetypes[name] = ab
	return ab
}

// creationPartition returns the stable partition tag standing in for
// "archetype name's entity-creation barrier", the target of the implicit
// strong-ref edges. Interned through the same registry.Partitions table
// a user's own Dependency.Partition values flow through, so it composes
// with the ordinary before/after machinery without a special case in
// topology.
func creationPartition(archetype string) any {
	return fmt.Sprintf("__create__:%s", archetype)
}

// AddSystem registers one system descriptor. The scheduling-relevant
// fields of spec (ThreadSafe, Dependencies, the resource requests) are
// fixed at this point; Run is invoked fresh every tick. A system
// requesting an unsync global is always placed on the main thread, no
// matter what its ThreadSafe flag claims.
func (b *Builder) AddSystem(spec system.Spec) *Builder {
	threadSafe := spec.ThreadSafe
	for _, g := range spec.GlobalRequests {
		if !g.Sync {
			threadSafe = false
		}
	}
	if threadSafe {
		b.sendSystems = append(b.sendSystems, spec)
	} else {
		b.unsendSystems = append(b.unsendSystems, spec)
	}
	return b
}

// Build finalizes the archetype allocators and assembles the scheduler
// topology, panicking on any configuration error: a request for an
// archetype that was never declared, or a cyclic system/partition
// dependency.
func (b *Builder) Build() *World {
	numSystems := len(b.sendSystems) + len(b.unsendSystems)
	// Every archetype's allocator and the offline buffer get one shard per
	// system, but offline Create/Delete is usable with no systems
	// registered at all and still needs somewhere to allocate from, so
	// there is always at least one shard even with zero systems.
	numShards := numSystems
	if numShards == 0 {
		numShards = 1
	}

	archetypes := make(map[string]*archetypeState, len(b.archetypes))
	for name, ab := range b.archetypes {
		if ab.buildLifecycle == nil {
			panic(bark.AddTrace(fmt.Errorf("archon: archetype %q has no allocator configured (call WithRecycling)", name)))
		}
		assignLockBits(name, ab.simples, ab.isotopes)
		archetypes[name] = &archetypeState{
			name:           name,
			lifecycle:      ab.buildLifecycle(numShards),
			simples:        ab.simples,
			isotopes:       ab.isotopes,
			finalizerNames: ab.finalizerNames,
			initOrder:      sortInitializers(name, ab.simples),
		}
	}

	var edges []topology.Edge
	resources := make(map[string]map[topology.Node]topology.ResourceAccess)

	addEdge := func(before, after topology.Node) { edges = append(edges, topology.Edge{Before: before, After: after}) }

	partitionNode := func(p any) topology.Node {
		idx, err := b.partitions.Intern(p)
		if err != nil {
			panic(bark.AddTrace(err))
		}
		return topology.Node{Kind: topology.Partition, Index: idx}
	}

	requireArchetype := func(name string) {
		if _, ok := archetypes[name]; !ok {
			panic(bark.AddTrace(fmt.Errorf("archon: system requests archetype %q, which was never declared", name)))
		}
	}

	wireSystem := func(node topology.Node, spec system.Spec) {
		for _, dep := range spec.Dependencies {
			p := partitionNode(dep.Partition)
			if dep.Order == system.Before {
				addEdge(node, p)
			} else {
				addEdge(p, node)
			}
		}

		useResource := func(key string, access topology.ResourceAccess) {
			if resources[key] == nil {
				resources[key] = make(map[topology.Node]topology.ResourceAccess)
			}
			// One system naming the same resource twice is fine only if
			// the two requests could run concurrently; a system cannot
			// hold exclusive and shared access to one resource at once.
			if prev, ok := resources[key][node]; ok {
				if prev.ConflictsWith(access) {
					panic(bark.AddTrace(fmt.Errorf(
						"archon: system %q requests conflicting access to %s twice", spec.DebugName, key)))
				}
				return
			}
			resources[key][node] = access
		}
		addStrongRefEdges := func(refs map[string]struct{}) {
			for archetype := range refs {
				requireArchetype(archetype)
				addEdge(node, partitionNode(creationPartition(archetype)))
			}
		}

		for _, g := range spec.GlobalRequests {
			useResource("global:"+g.Type, topology.SimpleAccess{Mutable: g.Mutable})
			addStrongRefEdges(g.StrongRefs)
		}
		for _, s := range spec.SimpleRequests {
			requireArchetype(s.Archetype)
			key := system.SimpleKey(s.Archetype, s.Component)
			useResource("simple:"+key.Archetype+"/"+key.Component, topology.SimpleAccess{Mutable: s.Mutable})
			addStrongRefEdges(s.StrongRefs)
		}
		for _, iso := range spec.IsotopeRequests {
			requireArchetype(iso.Archetype)
			key := system.SimpleKey(iso.Archetype, iso.Component)
			useResource("isotope:"+key.Archetype+"/"+key.Component, topology.IsotopeAccess{Discrim: iso.Discrim, Mutable: iso.Mutable})
			addStrongRefEdges(iso.StrongRefs)
		}
		for _, c := range spec.EntityCreatorRequests {
			requireArchetype(c.Archetype)
			if !c.NoPartition {
				addEdge(partitionNode(creationPartition(c.Archetype)), node)
			}
		}
		for _, d := range spec.EntityDeleterRequests {
			requireArchetype(d.Archetype)
		}
		for _, it := range spec.EntityIteratorRequests {
			requireArchetype(it.Archetype)
		}
	}

	for i, spec := range b.sendSystems {
		wireSystem(topology.Node{Kind: topology.SendSystem, Index: i}, spec)
	}
	for i, spec := range b.unsendSystems {
		wireSystem(topology.Node{Kind: topology.UnsendSystem, Index: i}, spec)
	}

	describeNode := func(n topology.Node) string {
		switch n.Kind {
		case topology.SendSystem:
			return fmt.Sprintf("thread-safe system #%d (%s)", n.Index, b.sendSystems[n.Index].DebugName)
		case topology.UnsendSystem:
			return fmt.Sprintf("thread-unsafe system #%d (%s)", n.Index, b.unsendSystems[n.Index].DebugName)
		default:
			return fmt.Sprintf("partition #%d (%v)", n.Index, b.partitions.Value(n.Index))
		}
	}

	topo, initial := topology.Init(len(b.sendSystems), len(b.unsendSystems), b.partitions.Len(), edges, resources, describeNode)

	globals := make(map[string]*globalEntry, len(b.globals))
	for name, g := range b.globals {
		globals[name] = g
	}

	return &World{
		archetypes:    archetypes,
		globals:       globals,
		sendSystems:   append([]system.Spec(nil), b.sendSystems...),
		unsendSystems: append([]system.Spec(nil), b.unsendSystems...),
		topo:          topo,
		initial:       initial,
		exec:          executor.New(executor.Config{Concurrency: b.concurrency, DeadlockCheck: b.deadlockCheck}),
		scanDangling:  b.scanDangling,
		gens:          make(map[string]*generations),
	}
}
