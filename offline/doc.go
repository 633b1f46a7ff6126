// Package offline implements the per-tick deferred operation buffer:
// entity creation and deletion requested from inside a system are queued
// here instead of applied immediately, since the storages a creation
// would populate are locked for the tick and a deletion may still need
// to wait on finalizer components.
package offline
