package system

import "github.com/archonkit/archon/access"

// Order indicates which side of a partition a Dependency places a system on.
type Order int

const (
	// Before requires the system to run before every other system
	// touching the named partition.
	Before Order = iota
	// After requires the system to run after every other system
	// touching the named partition.
	After
)

// Dependency is a single before/after partition edge declared by a system.
// The partition itself is an opaque, comparable value:
// callers typically use a small string or int constant as the partition
// tag, interned by registry.Partitions when the topology is built.
type Dependency struct {
	Partition any
	Order     Order
}

// DependsBefore builds a Dependency requiring the system to run before p.
func DependsBefore(p any) Dependency { return Dependency{Partition: p, Order: Before} }

// DependsAfter builds a Dependency requiring the system to run after p.
func DependsAfter(p any) Dependency { return Dependency{Partition: p, Order: After} }

// GlobalRequest declares a system's use of one piece of shared global
// state. Sync distinguishes a global safe to read/write from worker
// threads from one that must only ever be touched on the main thread.
type GlobalRequest struct {
	Type       string
	Sync       bool
	Mutable    bool
	Initial    func() any
	StrongRefs map[string]struct{}
}

// SimpleRequest declares a system's use of one simple component storage
// on one archetype.
type SimpleRequest struct {
	Archetype  string
	Component  string
	Mutable    bool
	StrongRefs map[string]struct{}
}

// IsotopeRequest declares a system's use of one isotope component family
// on one archetype. A nil Discrim means the system may observe every
// discriminant; a non-nil Discrim restricts it to exactly that subset,
// which the topology's exclusion computation uses to allow two systems
// to run concurrently over disjoint discriminants.
type IsotopeRequest struct {
	Archetype  string
	Component  string
	Discrim    []int
	Mutable    bool
	StrongRefs map[string]struct{}
}

// EntityCreatorRequest declares that a system may create entities of the
// named archetype. By default this adds an implicit dependency on the
// archetype's entity-creation partition so creations are ordered
// relative to the rest of the tick; NoPartition suppresses that edge for
// systems that only ever queue creations without caring when they land.
type EntityCreatorRequest struct {
	Archetype   string
	NoPartition bool
}

// EntityDeleterRequest declares that a system may delete entities of the
// named archetype.
type EntityDeleterRequest struct {
	Archetype string
}

// EntityIteratorRequest declares that a system drives an offline,
// ordered traversal over the named archetype's live entities.
type EntityIteratorRequest struct {
	Archetype string
}

// Spec describes one system: its scheduling metadata plus every resource
// it touches. Requests are plain struct literals; Go has no way to derive
// a StrongRefs set from a type parameter at compile time, so callers
// populate it explicitly, the same way referrer.Referrable is implemented
// by hand.
type Spec struct {
	DebugName  string
	ThreadSafe bool

	Dependencies []Dependency

	GlobalRequests         []GlobalRequest
	SimpleRequests         []SimpleRequest
	IsotopeRequests        []IsotopeRequest
	EntityCreatorRequests  []EntityCreatorRequest
	EntityDeleterRequests  []EntityDeleterRequest
	EntityIteratorRequests []EntityIteratorRequest

	// Run is the user-authored system body. The executor builds the
	// accessor set described by the requests above and passes it in.
	Run func(ctx *RunContext)
}

// RunContext is the accessor bundle a system's Run function receives.
// The executor populates it from the locks it holds for the system's
// entire duration. Concrete accessor retrieval
// is by (archetype, component) key, matching how the requests above
// identify their resources.
type RunContext struct {
	Globals  map[string]any
	Simples  map[ResourceKey]any
	Isotopes map[ResourceKey]any
	Creators map[string]func(archetype string, components map[string]any) uint64
	Deleters map[string]func(id uint64)
	// Entities holds one offline alive-entity iterator per archetype the
	// system declared an EntityIteratorRequest for.
	Entities map[string]*access.RawIterator
}

// ResourceKey identifies a (archetype, component) resource, the lookup
// key a RunContext's Simples/Isotopes maps are indexed by.
type ResourceKey struct {
	Archetype, Component string
}

// SimpleKey builds the lookup key for a simple or isotope resource.
func SimpleKey(archetype, component string) ResourceKey {
	return ResourceKey{Archetype: archetype, Component: component}
}
