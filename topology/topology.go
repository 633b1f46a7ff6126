package topology

import (
	"fmt"
	"sort"
)

// Kind distinguishes the three node categories in the schedule graph.
type Kind int

const (
	SendSystem Kind = iota
	UnsendSystem
	Partition
)

// Node identifies one graph node: a send system, a thread-local
// ("unsend") system, or a partition, each addressed by its own index
// space.
type Node struct {
	Kind  Kind
	Index int
}

func (n Node) String() string {
	switch n.Kind {
	case SendSystem:
		return fmt.Sprintf("send-system#%d", n.Index)
	case UnsendSystem:
		return fmt.Sprintf("unsend-system#%d", n.Index)
	default:
		return fmt.Sprintf("partition#%d", n.Index)
	}
}

// StateKind is the discriminant of WakeupState.
type StateKind int

const (
	Pending StateKind = iota
	Started
	Completed
	Blocked
)

// WakeupState is a node's tick-local scheduling state. Count is only
// meaningful when Kind is Blocked: the number of outstanding blockers
// (dependency or exclusion) preventing the node from becoming Pending.
type WakeupState struct {
	Kind  StateKind
	Count int
}

// Edge is a before/after partition dependency: Before must complete
// before After may run.
type Edge struct {
	Before, After Node
}

// ResourceAccess describes one node's access to one resource, used to
// compute exclusion edges. Concrete implementations are SimpleAccess and
// IsotopeAccess.
type ResourceAccess interface {
	// ConflictsWith reports whether this access and other cannot safely
	// run concurrently.
	ConflictsWith(other ResourceAccess) bool
}

// SimpleAccess is the conflict rule for a plain component or global:
// conflict iff at least one side is mutable.
type SimpleAccess struct {
	Mutable bool
}

func (a SimpleAccess) ConflictsWith(other ResourceAccess) bool {
	o, ok := other.(SimpleAccess)
	if !ok {
		return true
	}
	return a.Mutable || o.Mutable
}

// IsotopeAccess is the conflict rule for an isotope component family,
// refining the base mutability rule with discriminant-subset narrowing:
// Discrim == nil means "all discriminants"; a non-nil slice restricts
// the access to just those.
type IsotopeAccess struct {
	Discrim []int
	Mutable bool
}

func (a IsotopeAccess) ConflictsWith(other ResourceAccess) bool {
	o, ok := other.(IsotopeAccess)
	if !ok {
		return true
	}
	if !a.Mutable && !o.Mutable {
		return false
	}
	if a.Discrim != nil && o.Discrim != nil {
		return discrimSetsIntersect(a.Discrim, o.Discrim)
	}
	return true
}

func discrimSetsIntersect(a, b []int) bool {
	small, big := a, b
	if len(big) < len(small) {
		small, big = big, small
	}
	set := make(map[int]struct{}, len(big))
	for _, v := range big {
		set[v] = struct{}{}
	}
	for _, v := range small {
		if _, ok := set[v]; ok {
			return true
		}
	}
	return false
}

// InitialState is the wakeup-state snapshot the planner clones at the
// start of every tick.
type InitialState struct {
	WakeupState      map[Node]WakeupState
	SendRunnable     []int
	UnsendRunnable   []int
	RemainingSystems int
}

// Topology is the static per-tick dependency and exclusion graph.
type Topology struct {
	dependents        map[Node][]Node
	exclusions        map[Node][]Node
	DeplessPartitions []int
}

// DependentsOf returns the nodes that become wakeup candidates when node
// completes.
func (t *Topology) DependentsOf(node Node) []Node { return t.dependents[node] }

// ExclusionsOf returns the nodes that must not run concurrently with node.
func (t *Topology) ExclusionsOf(node Node) []Node { return t.exclusions[node] }

// Init builds a Topology and its InitialState from the raw schedule
// inputs: system counts, partition count, before/after edges, and a
// per-resource-per-node access map. describeNode renders a node for the
// cycle-detection panic message.
func Init(
	sendCount, unsendCount, partitionCount int,
	edges []Edge,
	resources map[string]map[Node]ResourceAccess,
	describeNode func(Node) string,
) (*Topology, InitialState) {
	nodes := allNodes(sendCount, unsendCount, partitionCount)

	dependents := buildDependents(nodes, edges)
	scanCycles(dependents, describeNode)

	initial, depless := buildInitials(nodes, edges, dependents)
	exclusions := buildExclusions(nodes, resources)

	return &Topology{dependents: dependents, exclusions: exclusions, DeplessPartitions: depless}, initial
}

func allNodes(sendCount, unsendCount, partitionCount int) []Node {
	nodes := make([]Node, 0, sendCount+unsendCount+partitionCount)
	for i := 0; i < sendCount; i++ {
		nodes = append(nodes, Node{Kind: SendSystem, Index: i})
	}
	for i := 0; i < unsendCount; i++ {
		nodes = append(nodes, Node{Kind: UnsendSystem, Index: i})
	}
	for i := 0; i < partitionCount; i++ {
		nodes = append(nodes, Node{Kind: Partition, Index: i})
	}
	return nodes
}

func buildDependents(nodes []Node, edges []Edge) map[Node][]Node {
	dependents := make(map[Node][]Node, len(nodes))
	for _, n := range nodes {
		dependents[n] = nil
	}
	for _, e := range edges {
		dependents[e.Before] = append(dependents[e.Before], e.After)
	}
	return dependents
}

func scanCycles(dependents map[Node][]Node, describeNode func(Node) string) {
	remaining := make(map[Node]bool, len(dependents))
	for n := range dependents {
		remaining[n] = true
	}
	exited := make(map[Node]bool, len(dependents))
	var stack []Node

	// Deterministic start order keeps cycle-detection panic messages
	// reproducible across runs.
	ordered := make([]Node, 0, len(dependents))
	for n := range dependents {
		ordered = append(ordered, n)
	}
	sort.Slice(ordered, func(i, j int) bool { return nodeLess(ordered[i], ordered[j]) })

	for _, n := range ordered {
		if remaining[n] {
			scanCyclesFrom(dependents, n, remaining, exited, &stack, describeNode)
		}
	}
}

func scanCyclesFrom(
	dependents map[Node][]Node,
	node Node,
	remaining, exited map[Node]bool,
	stack *[]Node,
	describeNode func(Node) string,
) {
	if exited[node] {
		return
	}
	if !remaining[node] {
		skip := true
		msg := ""
		for _, ancestor := range *stack {
			if ancestor == node {
				skip = false
			}
			if !skip {
				msg += describeNode(ancestor) + " -> "
			}
		}
		msg += describeNode(node)
		panic(fmt.Sprintf("scheduled systems have a cyclic dependency: %s", msg))
	}
	delete(remaining, node)

	*stack = append(*stack, node)
	for _, dep := range dependents[node] {
		scanCyclesFrom(dependents, dep, remaining, exited, stack, describeNode)
	}
	*stack = (*stack)[:len(*stack)-1]

	exited[node] = true
}

func nodeLess(a, b Node) bool {
	if a.Kind != b.Kind {
		return a.Kind < b.Kind
	}
	return a.Index < b.Index
}

func buildInitials(nodes []Node, edges []Edge, dependents map[Node][]Node) (InitialState, []int) {
	counts := make(map[Node]int, len(nodes))
	for _, n := range nodes {
		counts[n] = 0
	}
	for _, e := range edges {
		counts[e.After]++
	}

	var depless []int
	for _, n := range nodes {
		if n.Kind == Partition && counts[n] == 0 {
			depless = append(depless, n.Index)
		}
	}

	queue := append([]int(nil), depless...)
	for len(queue) > 0 {
		idx := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		par := Node{Kind: Partition, Index: idx}
		for _, dep := range dependents[par] {
			counts[dep]--
			if counts[dep] < 0 {
				panic(fmt.Sprintf("dependent %v of partition %v should not go below zero dependencies", dep, par))
			}
			if dep.Kind == Partition && counts[dep] == 0 {
				queue = append(queue, dep.Index)
			}
		}
	}

	var sendRunnable, unsendRunnable []int
	wakeup := make(map[Node]WakeupState, len(nodes))
	remainingSystems := 0
	for _, n := range nodes {
		count := counts[n]
		switch {
		case count > 0:
			wakeup[n] = WakeupState{Kind: Blocked, Count: count}
		case n.Kind == Partition:
			wakeup[n] = WakeupState{Kind: Completed}
		default:
			wakeup[n] = WakeupState{Kind: Pending}
			if n.Kind == SendSystem {
				sendRunnable = append(sendRunnable, n.Index)
			} else {
				unsendRunnable = append(unsendRunnable, n.Index)
			}
		}
		if n.Kind == SendSystem || n.Kind == UnsendSystem {
			remainingSystems++
		}
	}
	sort.Ints(sendRunnable)
	sort.Ints(unsendRunnable)

	return InitialState{
		WakeupState:      wakeup,
		SendRunnable:     sendRunnable,
		UnsendRunnable:   unsendRunnable,
		RemainingSystems: remainingSystems,
	}, depless
}

func buildExclusions(nodes []Node, resources map[string]map[Node]ResourceAccess) map[Node][]Node {
	exclusions := make(map[Node]map[Node]struct{}, len(nodes))
	for _, n := range nodes {
		exclusions[n] = make(map[Node]struct{})
	}

	for _, byNode := range resources {
		for n1, a1 := range byNode {
			for n2, a2 := range byNode {
				if n1 == n2 {
					continue
				}
				if a1.ConflictsWith(a2) {
					exclusions[n1][n2] = struct{}{}
				}
			}
		}
	}

	out := make(map[Node][]Node, len(nodes))
	for n, set := range exclusions {
		list := make([]Node, 0, len(set))
		for o := range set {
			list = append(list, o)
		}
		sort.Slice(list, func(i, j int) bool { return nodeLess(list[i], list[j]) })
		out[n] = list
	}
	return out
}
