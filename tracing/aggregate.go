package tracing

import "github.com/archonkit/archon/topology"

// Aggregate fans every event out to a fixed list of Tracers. Each
// child's own Start context is kept (as a []any bundle) rather than
// discarded, so a Log tracer nested inside an Aggregate still reports
// accurate elapsed durations.
type Aggregate []Tracer

func (a Aggregate) StartCycle() any {
	ctxs := make([]any, len(a))
	for i, t := range a {
		ctxs[i] = t.StartCycle()
	}
	return ctxs
}

func (a Aggregate) EndCycle(ctx any) {
	ctxs, _ := ctx.([]any)
	for i, t := range a {
		t.EndCycle(childCtx(ctxs, i))
	}
}

func (a Aggregate) StartPrepareEallocShards() any {
	ctxs := make([]any, len(a))
	for i, t := range a {
		ctxs[i] = t.StartPrepareEallocShards()
	}
	return ctxs
}

func (a Aggregate) EndPrepareEallocShards(ctx any) {
	ctxs, _ := ctx.([]any)
	for i, t := range a {
		t.EndPrepareEallocShards(childCtx(ctxs, i))
	}
}

func (a Aggregate) StartFlushEalloc(archetype string) any {
	ctxs := make([]any, len(a))
	for i, t := range a {
		ctxs[i] = t.StartFlushEalloc(archetype)
	}
	return ctxs
}

func (a Aggregate) EndFlushEalloc(ctx any, archetype string) {
	ctxs, _ := ctx.([]any)
	for i, t := range a {
		t.EndFlushEalloc(childCtx(ctxs, i), archetype)
	}
}

func (a Aggregate) StartRunSend(thread Thread, node topology.Node, debugName string) any {
	ctxs := make([]any, len(a))
	for i, t := range a {
		ctxs[i] = t.StartRunSend(thread, node, debugName)
	}
	return ctxs
}

func (a Aggregate) EndRunSend(ctx any, thread Thread, node topology.Node, debugName string) {
	ctxs, _ := ctx.([]any)
	for i, t := range a {
		t.EndRunSend(childCtx(ctxs, i), thread, node, debugName)
	}
}

func (a Aggregate) StartRunUnsend(thread Thread, node topology.Node, debugName string) any {
	ctxs := make([]any, len(a))
	for i, t := range a {
		ctxs[i] = t.StartRunUnsend(thread, node, debugName)
	}
	return ctxs
}

func (a Aggregate) EndRunUnsend(ctx any, thread Thread, node topology.Node, debugName string) {
	ctxs, _ := ctx.([]any)
	for i, t := range a {
		t.EndRunUnsend(childCtx(ctxs, i), thread, node, debugName)
	}
}

func (a Aggregate) MarkRunnable(node topology.Node) {
	for _, t := range a {
		t.MarkRunnable(node)
	}
}

func (a Aggregate) CompleteSystem(node topology.Node) {
	for _, t := range a {
		t.CompleteSystem(node)
	}
}

func (a Aggregate) StealReturnPending(thread Thread) {
	for _, t := range a {
		t.StealReturnPending(thread)
	}
}

func (a Aggregate) StealReturnComplete(thread Thread) {
	for _, t := range a {
		t.StealReturnComplete(thread)
	}
}

func childCtx(ctxs []any, i int) any {
	if i >= len(ctxs) {
		return nil
	}
	return ctxs[i]
}
