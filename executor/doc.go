// Package executor drives one tick: it resets the planner from the
// topology, runs a fixed worker pool plus the main thread through the
// steal/complete loop, then drains the offline buffer, flushes every
// entity allocator, and scans for dangling strong references.
package executor
