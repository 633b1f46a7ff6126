// Package access implements the per-tick component accessors systems
// operate through: AccessSingle for one simple component or isotope
// discriminant, AccessIsotope for a whole isotope family, and Zip pairs
// for projecting several accessors to the same entity or the same
// contiguous chunk in lockstep. Every accessor is built from the already
// range-partitioned storage.Partition a system was handed by the
// scheduler, so reads and writes here never need their own locking.
package access
