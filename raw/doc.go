// Package raw implements the primitive entity ID operations shared across
// archetypes: generic add/sub/midpoint/conversion helpers and an atomic
// gauge variant used by the entity allocator.
//
// A raw ID is a small unsigned integer uniquely identifying an entity within
// one archetype. Values start at 1; 0 is reserved as the sentinel for "no
// entity yet" (e.g. a freshly allocated but uninitialized handle). Ordering
// is the natural integer ordering, so ToPrimitive is always monotone.
package raw
