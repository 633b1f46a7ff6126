package planner_test

import (
	"testing"

	"github.com/archonkit/archon/planner"
	"github.com/archonkit/archon/topology"
	"github.com/stretchr/testify/require"
)

func describe(n topology.Node) string { return n.String() }

func send(i int) topology.Node { return topology.Node{Kind: topology.SendSystem, Index: i} }

func TestStealSendReturnsReadyThenCycleComplete(t *testing.T) {
	top, initial := topology.Init(1, 0, 0, nil, nil, describe)
	p := planner.New(top, initial)

	p.Lock()
	defer p.Unlock()

	r := p.StealSend()
	require.Equal(t, planner.Ready, r.Kind)
	require.Equal(t, 0, r.Index)

	empty := p.StealSend()
	require.Equal(t, planner.Pending, empty.Kind)

	p.Complete(send(0))
	require.Equal(t, 0, p.Remaining())

	done := p.StealSend()
	require.Equal(t, planner.CycleComplete, done.Kind)
}

func TestCompleteUnblocksDependentSystem(t *testing.T) {
	edges := []topology.Edge{{Before: send(0), After: send(1)}}
	top, initial := topology.Init(2, 0, 0, edges, nil, describe)
	p := planner.New(top, initial)

	p.Lock()
	defer p.Unlock()

	pending := p.StealSend()
	require.Equal(t, planner.Ready, pending.Kind)
	require.Equal(t, 0, pending.Index)

	blocked := p.StealSend()
	require.Equal(t, planner.Pending, blocked.Kind)

	p.Complete(send(0))

	ready := p.StealSend()
	require.Equal(t, planner.Ready, ready.Kind)
	require.Equal(t, 1, ready.Index)
}

func TestStealBlocksExclusionNeighborUntilComplete(t *testing.T) {
	resources := map[string]map[topology.Node]topology.ResourceAccess{
		"Player/Position": {
			send(0): topology.SimpleAccess{Mutable: true},
			send(1): topology.SimpleAccess{Mutable: true},
		},
	}
	top, initial := topology.Init(2, 0, 0, nil, resources, describe)
	p := planner.New(top, initial)

	p.Lock()
	defer p.Unlock()

	first := p.StealSend()
	require.Equal(t, planner.Ready, first.Kind)

	// node 1 is exclusion-blocked by node 0's start, regardless of which
	// index was stolen first.
	blocked := p.StealSend()
	require.Equal(t, planner.Pending, blocked.Kind)

	p.Complete(send(first.Index))

	second := p.StealSend()
	require.Equal(t, planner.Ready, second.Kind)
}
