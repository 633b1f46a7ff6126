// Package planner implements the tick-local wakeup-state machine: a
// mutex-guarded steal/complete protocol over the topology's dependency
// and exclusion graph.
package planner
