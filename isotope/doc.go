// Package isotope implements the discriminant-keyed storage map backing
// isotope components: per-entity families of components of the same Go
// type distinguished by a user-defined discriminant. Each discriminant
// lazily gets its own storage.Storage; the map itself is organized by one
// of four interchangeable index strategies (linear scan, sorted, dense
// array, fixed array), chosen per component type to match how bounded and
// how frequently-inserted its discriminant domain is.
package isotope
