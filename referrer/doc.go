// Package referrer implements the entity-reference visitor graph: every
// storage, global, and local state exposes a way to visit the strong/weak
// entity-reference fields it holds. This backs dangling strong-reference
// detection at deletion time, and (designed for but not yet driven by any
// caller) entity-id remapping for archetype permutation.
package referrer
