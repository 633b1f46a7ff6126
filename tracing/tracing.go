// Package tracing instruments one tick of execution the way a profiler or
// a debug overlay would: every phase a cycle passes through calls a Start
// method before and an End method after, plus a handful of one-shot
// notifications for scheduling events that have no duration of their own.
//
// Every Start method returns an opaque context the matching End method
// later consumes; for the bundled implementations that context is just
// the wall-clock instant the phase began.
package tracing

import "github.com/archonkit/archon/topology"

// Thread identifies which goroutine a tick-scoped event happened on: the
// main goroutine, or one of the executor's numbered worker goroutines.
type Thread struct {
	Main  bool
	Index int
}

// MainThread is the Thread value for the driving goroutine.
var MainThread = Thread{Main: true}

// WorkerThread names one of the executor's background worker goroutines.
func WorkerThread(index int) Thread { return Thread{Index: index} }

// Tracer receives every instrumentation event a World emits while running
// Execute. Implementations must be safe for concurrent use: worker
// goroutines call the Run* methods directly.
type Tracer interface {
	StartCycle() any
	EndCycle(ctx any)

	StartPrepareEallocShards() any
	EndPrepareEallocShards(ctx any)

	StartFlushEalloc(archetype string) any
	EndFlushEalloc(ctx any, archetype string)

	StartRunSend(thread Thread, node topology.Node, debugName string) any
	EndRunSend(ctx any, thread Thread, node topology.Node, debugName string)

	StartRunUnsend(thread Thread, node topology.Node, debugName string) any
	EndRunUnsend(ctx any, thread Thread, node topology.Node, debugName string)

	// MarkRunnable/CompleteSystem report planner-internal wakeup
	// bookkeeping: a blocked system returning to the runnable pool, and a
	// system node completing.
	MarkRunnable(node topology.Node)
	CompleteSystem(node topology.Node)

	// StealReturnPending/StealReturnComplete report the other two steal
	// outcomes a worker can observe: no runnable system while systems
	// remain, and cycle completion.
	StealReturnPending(thread Thread)
	StealReturnComplete(thread Thread)
}
