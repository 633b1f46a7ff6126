package planner

import (
	"fmt"
	"sort"
	"sync"

	"github.com/archonkit/archon/topology"
)

// ResultKind is the discriminant of StealResult.
type ResultKind int

const (
	// Ready reports a stolen, now-Started node at Index.
	Ready ResultKind = iota
	// Pending reports that the pool was empty but systems remain.
	Pending
	// CycleComplete reports that every system in the tick has finished.
	CycleComplete
)

// StealResult is the outcome of a steal attempt.
type StealResult struct {
	Kind  ResultKind
	Index int
}

// Planner is the tick-local wakeup-state machine. Every method requires
// the caller to hold the planner's lock except New; Wait
// atomically releases the lock while blocking and reacquires it before
// returning, mirroring a condition variable wait under a mutex guard.
type Planner struct {
	mu   sync.Mutex
	cond *sync.Cond

	// OnMarkRunnable, if non-nil, is invoked (with the planner's lock
	// held) whenever a blocked system returns to the runnable pool. Set
	// once before the first steal; the executor wires it to the tracer.
	OnMarkRunnable func(node topology.Node)

	topo *topology.Topology

	wakeup         map[topology.Node]topology.WakeupState
	sendRunnable   []int
	unsendRunnable []int
	remaining      int
}

// New builds a Planner for one tick, copying topo's initial wakeup state
// so repeated ticks never mutate the topology's cached snapshot.
func New(topo *topology.Topology, initial topology.InitialState) *Planner {
	p := &Planner{
		topo:           topo,
		wakeup:         make(map[topology.Node]topology.WakeupState, len(initial.WakeupState)),
		sendRunnable:   append([]int(nil), initial.SendRunnable...),
		unsendRunnable: append([]int(nil), initial.UnsendRunnable...),
		remaining:      initial.RemainingSystems,
	}
	for k, v := range initial.WakeupState {
		p.wakeup[k] = v
	}
	p.cond = sync.NewCond(&p.mu)
	return p
}

// Lock acquires the planner's mutex. Every steal/complete/wait call below
// must happen while the caller holds it.
func (p *Planner) Lock() { p.mu.Lock() }

// Unlock releases the planner's mutex.
func (p *Planner) Unlock() { p.mu.Unlock() }

// Wait blocks on the planner's condition variable, atomically releasing
// the lock while waiting and reacquiring it before returning. Callers
// re-check steal results in a loop after Wait returns, since a wakeup may
// be spurious relative to the specific pool they care about.
func (p *Planner) Wait() { p.cond.Wait() }

// Remaining reports how many systems have not yet completed this tick.
func (p *Planner) Remaining() int { return p.remaining }

// StealSend attempts to steal a send system.
func (p *Planner) StealSend() StealResult {
	return p.steal(&p.sendRunnable, func(i int) topology.Node {
		return topology.Node{Kind: topology.SendSystem, Index: i}
	})
}

// StealUnsend attempts to steal a thread-local system.
func (p *Planner) StealUnsend() StealResult {
	return p.steal(&p.unsendRunnable, func(i int) topology.Node {
		return topology.Node{Kind: topology.UnsendSystem, Index: i}
	})
}

func (p *Planner) steal(pool *[]int, toNode func(int) topology.Node) StealResult {
	if p.remaining == 0 {
		return StealResult{Kind: CycleComplete}
	}
	if len(*pool) == 0 {
		return StealResult{Kind: Pending}
	}

	idx := (*pool)[0]
	*pool = (*pool)[1:]
	node := toNode(idx)

	state := p.wakeup[node]
	if state.Kind != topology.Pending {
		panic(fmt.Sprintf("node %v is in runnable queue but state is %v instead of Pending", node, state))
	}
	p.wakeup[node] = topology.WakeupState{Kind: topology.Started}

	for _, excl := range p.topo.ExclusionsOf(node) {
		s := p.wakeup[excl]
		switch s.Kind {
		case topology.Pending:
			p.wakeup[excl] = topology.WakeupState{Kind: topology.Blocked, Count: 1}
			p.removeFromRunnable(excl)
		case topology.Blocked:
			p.wakeup[excl] = topology.WakeupState{Kind: topology.Blocked, Count: s.Count + 1}
		case topology.Started:
			panic(fmt.Sprintf("started node %v should not be in the runnable pool", excl))
		case topology.Completed:
			// Completed nodes carry no blockers.
		}
	}

	return StealResult{Kind: Ready, Index: idx}
}

func (p *Planner) removeFromRunnable(node topology.Node) {
	var pool *[]int
	switch node.Kind {
	case topology.SendSystem:
		pool = &p.sendRunnable
	case topology.UnsendSystem:
		pool = &p.unsendRunnable
	default:
		panic("partitions are not exclusive with other nodes")
	}
	for i, v := range *pool {
		if v == node.Index {
			*pool = append((*pool)[:i], (*pool)[i+1:]...)
			return
		}
	}
	panic(fmt.Sprintf("pending node %v should be in runnable pool", node))
}

// Complete marks node as finished, wakes its dependents and exclusion
// neighbors whose blocker count has reached zero, and broadcasts to any
// workers waiting in Wait. Only called for system nodes; partitions
// complete in place inside removeOneBlock.
func (p *Planner) Complete(node topology.Node) {
	state := p.wakeup[node]
	if state.Kind != topology.Started {
		panic(fmt.Sprintf("cannot mark a %v node as completed", state))
	}
	p.wakeup[node] = topology.WakeupState{Kind: topology.Completed}

	p.removeOneBlock(p.topo.DependentsOf(node))
	p.removeOneBlock(p.topo.ExclusionsOf(node))

	p.remaining--
	p.cond.Broadcast()
}

func (p *Planner) removeOneBlock(seed []topology.Node) {
	queue := append([]topology.Node(nil), seed...)
	for len(queue) > 0 {
		node := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		state := p.wakeup[node]
		switch {
		case state.Kind == topology.Blocked && state.Count > 1:
			p.wakeup[node] = topology.WakeupState{Kind: topology.Blocked, Count: state.Count - 1}
		case state.Kind == topology.Blocked && state.Count == 1:
			switch node.Kind {
			case topology.SendSystem:
				p.wakeup[node] = topology.WakeupState{Kind: topology.Pending}
				p.sendRunnable = insertSorted(p.sendRunnable, node.Index)
				if p.OnMarkRunnable != nil {
					p.OnMarkRunnable(node)
				}
			case topology.UnsendSystem:
				p.wakeup[node] = topology.WakeupState{Kind: topology.Pending}
				p.unsendRunnable = insertSorted(p.unsendRunnable, node.Index)
				if p.OnMarkRunnable != nil {
					p.OnMarkRunnable(node)
				}
			case topology.Partition:
				p.wakeup[node] = topology.WakeupState{Kind: topology.Completed}
				queue = append(queue, p.topo.DependentsOf(node)...)
			}
		case state.Kind == topology.Completed:
			// No exclusion edges from completed nodes.
		default:
			panic(fmt.Sprintf("node %v in state %v should not have blockers", node, state))
		}
	}
}

func insertSorted(s []int, v int) []int {
	i := sort.SearchInts(s, v)
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}
