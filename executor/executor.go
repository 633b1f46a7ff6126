package executor

import (
	"sync/atomic"

	"github.com/archonkit/archon/planner"
	"github.com/archonkit/archon/topology"
	"golang.org/x/sync/errgroup"
)

// MainWorker is the worker identity reported for the main loop in the
// scheduling-event hooks below; background workers report their index.
const MainWorker = -1

// Hooks wires the executor to the rest of the world: RunSend/RunUnsend
// execute one system's body given its index within its own node-kind
// space, and AfterCycle runs single-threaded once every system has
// completed (draining the offline buffer, flushing entity allocators,
// scanning for dangling strong references). The On* hooks report
// scheduling events for tracing; any of them may be nil. OnStealPending,
// OnStealComplete, OnMarkRunnable, and OnComplete are invoked with the
// planner lock held, so they must not call back into the executor.
type Hooks struct {
	RunSend    func(worker, idx int)
	RunUnsend  func(idx int)
	AfterCycle func()

	// OnStealPending reports a steal attempt that found systems remaining
	// but none currently runnable.
	OnStealPending func(worker int)
	// OnStealComplete reports a steal attempt that observed cycle
	// completion.
	OnStealComplete func(worker int)
	// OnMarkRunnable reports a blocked system returning to the runnable
	// pool.
	OnMarkRunnable func(node topology.Node)
	// OnComplete reports one system node's completion.
	OnComplete func(node topology.Node)
}

// Config tunes one Executor instance.
type Config struct {
	// Concurrency is the number of worker goroutines. 0 is valid: every
	// system then runs on the calling goroutine.
	Concurrency int
	// DeadlockCheck enables the all-idle panic guard, a debug aid that
	// callers typically wire to a runtimeconfig flag disabled in
	// production builds.
	DeadlockCheck bool
}

// Executor drives one tick end to end: resets the planner, runs the
// worker pool and main loop through the steal/complete protocol, and
// invokes the post-cycle hook.
type Executor struct {
	cfg Config
}

// New builds an Executor with the given configuration.
func New(cfg Config) *Executor { return &Executor{cfg: cfg} }

// ExecuteTick runs one full cycle over topo, seeded from initial.
func (e *Executor) ExecuteTick(topo *topology.Topology, initial topology.InitialState, hooks Hooks) {
	p := planner.New(topo, initial)
	p.OnMarkRunnable = hooks.OnMarkRunnable
	dl := newDeadlockCounter(e.cfg.Concurrency+1, e.cfg.DeadlockCheck)

	var g errgroup.Group
	for i := 0; i < e.cfg.Concurrency; i++ {
		g.Go(func() error {
			e.workerLoop(p, i, hooks, dl)
			return nil
		})
	}

	e.mainLoop(p, hooks, dl)
	_ = g.Wait() // workerLoop never returns a non-nil error

	if hooks.AfterCycle != nil {
		hooks.AfterCycle()
	}
}

// workerLoop is a background worker: it only ever steals send systems.
func (e *Executor) workerLoop(p *planner.Planner, worker int, hooks Hooks, dl *deadlockCounter) {
	p.Lock()
	defer p.Unlock()

	for {
		r := p.StealSend()
		switch r.Kind {
		case planner.CycleComplete:
			if hooks.OnStealComplete != nil {
				hooks.OnStealComplete(worker)
			}
			return
		case planner.Pending:
			if hooks.OnStealPending != nil {
				hooks.OnStealPending(worker)
			}
			dl.startWait()
			p.Wait()
			dl.endWait()
		case planner.Ready:
			p.Unlock()
			hooks.RunSend(worker, r.Index)
			p.Lock()
			node := topology.Node{Kind: topology.SendSystem, Index: r.Index}
			p.Complete(node)
			if hooks.OnComplete != nil {
				hooks.OnComplete(node)
			}
		}
	}
}

// mainLoop is the main-thread driver: it prefers thread-local systems,
// and additionally polls send systems whenever there are no background
// workers at all to run them.
func (e *Executor) mainLoop(p *planner.Planner, hooks Hooks, dl *deadlockCounter) {
	pollSend := e.cfg.Concurrency == 0

	p.Lock()
	defer p.Unlock()

	for {
		r := p.StealUnsend()
		switch r.Kind {
		case planner.CycleComplete:
			if hooks.OnStealComplete != nil {
				hooks.OnStealComplete(MainWorker)
			}
			return
		case planner.Pending:
			if pollSend {
				if e.pollSendOnce(p, hooks, dl) {
					return
				}
				continue
			}
			if hooks.OnStealPending != nil {
				hooks.OnStealPending(MainWorker)
			}
			dl.startWait()
			p.Wait()
			dl.endWait()
		case planner.Ready:
			p.Unlock()
			hooks.RunUnsend(r.Index)
			p.Lock()
			node := topology.Node{Kind: topology.UnsendSystem, Index: r.Index}
			p.Complete(node)
			if hooks.OnComplete != nil {
				hooks.OnComplete(node)
			}
		}
	}
}

// pollSendOnce attempts one send-system steal from within the main loop.
// Returns true if the cycle is complete and the caller should exit.
func (e *Executor) pollSendOnce(p *planner.Planner, hooks Hooks, dl *deadlockCounter) bool {
	r := p.StealSend()
	switch r.Kind {
	case planner.CycleComplete:
		if hooks.OnStealComplete != nil {
			hooks.OnStealComplete(MainWorker)
		}
		return true
	case planner.Pending:
		if hooks.OnStealPending != nil {
			hooks.OnStealPending(MainWorker)
		}
		dl.startWait()
		p.Wait()
		dl.endWait()
	case planner.Ready:
		p.Unlock()
		hooks.RunSend(MainWorker, r.Index)
		p.Lock()
		node := topology.Node{Kind: topology.SendSystem, Index: r.Index}
		p.Complete(node)
		if hooks.OnComplete != nil {
			hooks.OnComplete(node)
		}
	}
	return false
}

// deadlockCounter is a debug-only guard against every worker and the
// main thread simultaneously waiting with systems still outstanding.
// The bookkeeping leans on one invariant: a goroutine calling endWait
// always just woke from its own Wait, so it always returns exactly one
// unit of concurrency.
type deadlockCounter struct {
	enabled bool
	active  atomic.Int64
}

func newDeadlockCounter(total int, enabled bool) *deadlockCounter {
	d := &deadlockCounter{enabled: enabled}
	d.active.Store(int64(total))
	return d
}

func (d *deadlockCounter) startWait() {
	if !d.enabled {
		return
	}
	if d.active.Add(-1) == 0 {
		panic("deadlock detected: all workers and the main thread are waiting for tasks")
	}
}

func (d *deadlockCounter) endWait() {
	if !d.enabled {
		return
	}
	d.active.Add(1)
}
