// Package world ties every other package in this module into the single
// handle a generated application binds against: Builder registers
// archetypes and systems, Build constructs the scheduler topology once
// and for all, and World exposes the create/delete/execute/get-storage
// surface. Component identity is string-keyed and `any`-erased, the same
// style system.RunContext already uses at the scheduler boundary.
package world
