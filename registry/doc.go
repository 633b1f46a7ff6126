// Package registry provides the generic interning cache the rest of the
// runtime uses to turn repeated declarations (partitions, component
// descriptors) into stable, comparable identities. Rather than encoding
// archetype/component identity in the Go type system (which would force
// every package up the stack to be generic over archetype and component
// types simultaneously), identities are opaque strings or interned values
// resolved at a single indirection point.
package registry
