// Package topology builds the static per-tick dependency and exclusion
// graph: a depth-first cycle check over the before/after partition
// edges, pairwise resource-conflict exclusion edges (with the
// finer-grained isotope discriminant-subset rule), depless-partition
// elision, and the initial wakeup-state assignment the planner resets
// from every tick.
package topology
