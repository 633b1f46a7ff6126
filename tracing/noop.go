package tracing

import "github.com/archonkit/archon/topology"

// Noop discards every event. It is the default Tracer a World runs with
// when none is supplied to Execute.
type Noop struct{}

func (Noop) StartCycle() any { return nil }
func (Noop) EndCycle(any)    {}

func (Noop) StartPrepareEallocShards() any { return nil }
func (Noop) EndPrepareEallocShards(any)    {}

func (Noop) StartFlushEalloc(string) any { return nil }
func (Noop) EndFlushEalloc(any, string)  {}

func (Noop) StartRunSend(Thread, topology.Node, string) any { return nil }
func (Noop) EndRunSend(any, Thread, topology.Node, string)  {}

func (Noop) StartRunUnsend(Thread, topology.Node, string) any { return nil }
func (Noop) EndRunUnsend(any, Thread, topology.Node, string)  {}

func (Noop) MarkRunnable(topology.Node)   {}
func (Noop) CompleteSystem(topology.Node) {}

func (Noop) StealReturnPending(Thread)  {}
func (Noop) StealReturnComplete(Thread) {}
