// Package storage implements the per-archetype, per-component containers
// that back both simple and (per-discriminant) isotope components: a dense,
// bitset-indexed backend for bounded small-integer domains and a
// tree-ordered backend for sparse or unbounded ones. Both expose the same
// ascending-order iteration, chunked slice access, and recursively
// splittable partition contract.
package storage
