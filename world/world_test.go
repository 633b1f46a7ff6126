package world_test

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/archonkit/archon/access"
	"github.com/archonkit/archon/ealloc"
	"github.com/archonkit/archon/isotope"
	"github.com/archonkit/archon/referrer"
	"github.com/archonkit/archon/storage"
	"github.com/archonkit/archon/system"
	"github.com/archonkit/archon/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type position struct{ X, Y int }
type health struct{ HP int }
type maxHealth struct{ Max int }

func newTestBuilder() (*world.Builder, *world.ArchetypeBuilder) {
	b := world.NewBuilder(0)
	ab := b.Archetype("unit")
	world.WithRecycling[uint32, struct{}, *ealloc.StackRecycler[uint32]](
		ab, ealloc.RandomShardAssigner{}, ealloc.NewStackRecycler[uint32],
	)
	return b, ab
}

func TestCreateAppliesComponentsAndInitializers(t *testing.T) {
	b, ab := newTestBuilder()
	world.RegisterSimple[position](ab, "position", storage.NewDense[position](), false, false, nil)
	world.RegisterSimple[maxHealth](ab, "maxHealth", storage.NewDense[maxHealth](), false, false, nil)
	world.RegisterSimple[health](ab, "health", storage.NewDense[health](), false, false, nil).
		WithInit([]string{"maxHealth"}, func(id uint64, lookup func(string) any) (health, bool) {
			mh, ok := lookup("maxHealth").(*maxHealth)
			if !ok {
				return health{}, false
			}
			return health{HP: mh.Max}, true
		})

	w := b.Build()
	h := w.Create("unit", map[string]any{
		"position":  &position{X: 1, Y: 2},
		"maxHealth": &maxHealth{Max: 50},
	})

	pos := w.GetSimpleStorage("unit", "position", false).(*access.AccessSingle[position])
	v, ok := pos.TryGet(h.ID)
	require.True(t, ok)
	assert.Equal(t, position{X: 1, Y: 2}, *v)

	hp := w.GetSimpleStorage("unit", "health", false).(*access.AccessSingle[health])
	v2, ok := hp.TryGet(h.ID)
	require.True(t, ok)
	assert.Equal(t, health{HP: 50}, *v2)
}

func TestInitializerCycleOnBuild(t *testing.T) {
	b, ab := newTestBuilder()
	a := world.RegisterSimple[position](ab, "a", storage.NewDense[position](), false, false, nil)
	bb := world.RegisterSimple[position](ab, "b", storage.NewDense[position](), false, false, nil)

	noop := func(id uint64, lookup func(string) any) (position, bool) { return position{}, false }
	a.WithInit([]string{"b"}, noop)
	bb.WithInit([]string{"a"}, noop)

	assert.Panics(t, func() { b.Build() })
}

func TestDeleteImmediateWhenNoFinalizer(t *testing.T) {
	b, ab := newTestBuilder()
	world.RegisterSimple[position](ab, "position", storage.NewDense[position](), false, false, nil)
	w := b.Build()

	h := w.Create("unit", map[string]any{"position": &position{X: 1}})
	status := w.Delete(h)
	assert.Equal(t, world.Deleted, status)

	pos := w.GetSimpleStorage("unit", "position", false).(*access.AccessSingle[position])
	_, ok := pos.TryGet(h.ID)
	assert.False(t, ok)
}

func TestDeleteQueuedWhileFinalizerPresent(t *testing.T) {
	b, ab := newTestBuilder()
	world.RegisterSimple[health](ab, "health", storage.NewDense[health](), false, true, nil)
	w := b.Build()

	h := w.Create("unit", map[string]any{"health": &health{HP: 1}})
	status := w.Delete(h)
	assert.Equal(t, world.QueuedForFinalizer, status)

	weak := w.Weak(h)
	assert.True(t, w.IsLive(weak))
}

func TestWeakHandleDiesAfterFinalization(t *testing.T) {
	b, ab := newTestBuilder()
	world.RegisterSimple[position](ab, "position", storage.NewDense[position](), false, false, nil)
	w := b.Build()

	h := w.Create("unit", map[string]any{"position": &position{}})
	weak := w.Weak(h)
	require.True(t, w.IsLive(weak))

	w.Delete(h)
	assert.False(t, w.IsLive(weak))
}

type ref struct{ Target uint64 }

func (r ref) VisitReferrers(v referrer.Visitor) { v.VisitStrong("unit", r.Target) }

func TestDanglingRefScanPanicsOnSurvivingStrongReference(t *testing.T) {
	b, ab := newTestBuilder()
	world.RegisterSimple[ref](ab, "ref", storage.NewDense[ref](), false, false, func(r *ref) referrer.Referrable { return *r })
	b.WithDanglingRefScan(true)
	w := b.Build()

	target := w.Create("unit", nil)
	w.Create("unit", map[string]any{"ref": &ref{Target: target.ID}})

	assert.Panics(t, func() { w.Delete(target) })
}

func TestExecuteRunsSystemsAndDrainsOfflineCreates(t *testing.T) {
	b, ab := newTestBuilder()
	world.RegisterSimple[health](ab, "health", storage.NewDense[health](), false, false, nil)

	var created uint64
	b.AddSystem(system.Spec{
		DebugName:  "spawner",
		ThreadSafe: true,
		EntityCreatorRequests: []system.EntityCreatorRequest{
			{Archetype: "unit"},
		},
		Run: func(ctx *system.RunContext) {
			created = ctx.Creators["unit"]("unit", map[string]any{"health": &health{HP: 9}})
		},
	})

	w := b.Build()
	w.Execute(nil)

	hp := w.GetSimpleStorage("unit", "health", false).(*access.AccessSingle[health])
	v, ok := hp.TryGet(created)
	require.True(t, ok)
	assert.Equal(t, health{HP: 9}, *v)
}

type slot int

func (s slot) ToIndex() int { return int(s) }

func TestIsotopeComponentRegistrationAndAccess(t *testing.T) {
	b, ab := newTestBuilder()
	world.RegisterSimple[position](ab, "position", storage.NewDense[position](), false, false, nil)

	m := isotope.NewDense[slot, int](func() storage.Storage[int] { return storage.NewDense[int]() })
	world.RegisterIsotope[slot, int](ab, "slots", m, func(i int) slot { return slot(i) }, nil, nil)

	w := b.Build()
	h := w.Create("unit", map[string]any{"position": &position{}})

	iso := w.GetIsotopeStorage("unit", "slots", nil, true).(*access.AccessIsotope[slot, int])
	iso.Set(h.ID, slot(0), intPtr(7))
	v, ok := iso.TryGet(h.ID, slot(0))
	require.True(t, ok)
	assert.Equal(t, 7, v)
}

func intPtr(v int) *int { return &v }

func TestPartitionOrderingAcrossTicks(t *testing.T) {
	b, _ := newTestBuilder()

	var order []string
	b.AddSystem(system.Spec{
		DebugName:    "late",
		ThreadSafe:   true,
		Dependencies: []system.Dependency{system.DependsAfter("p0")},
		Run:          func(*system.RunContext) { order = append(order, "late") },
	})
	b.AddSystem(system.Spec{
		DebugName:    "early",
		ThreadSafe:   true,
		Dependencies: []system.Dependency{system.DependsBefore("p0")},
		Run:          func(*system.RunContext) { order = append(order, "early") },
	})

	w := b.Build()
	for tick := 0; tick < 10; tick++ {
		order = order[:0]
		w.Execute(nil)
		require.Equal(t, []string{"early", "late"}, order, "tick %d", tick)
	}
}

func TestSelfCyclicPartitionDependencyPanicsAtBuild(t *testing.T) {
	b, _ := newTestBuilder()
	b.AddSystem(system.Spec{
		DebugName:  "twisted",
		ThreadSafe: true,
		Dependencies: []system.Dependency{
			system.DependsBefore("p"),
			system.DependsAfter("p"),
		},
		Run: func(*system.RunContext) {},
	})
	assert.Panics(t, func() { b.Build() })
}

// isotopeConflictWorld builds a two-worker world with two systems holding
// exclusive partial access to the given discriminant subsets, each body
// tracking how many system bodies were in flight at once.
func isotopeConflictWorld(t *testing.T, discrimA, discrimB []int) (*world.World, *atomic.Int32) {
	t.Helper()
	b := world.NewBuilder(2)
	ab := b.Archetype("unit")
	world.WithRecycling[uint32, struct{}, *ealloc.StackRecycler[uint32]](
		ab, ealloc.RandomShardAssigner{}, ealloc.NewStackRecycler[uint32],
	)
	m := isotope.NewDense[slot, int](func() storage.Storage[int] { return storage.NewDense[int]() })
	world.RegisterIsotope[slot, int](ab, "slots", m, func(i int) slot { return slot(i) }, nil, nil)

	var active atomic.Int32
	maxActive := &atomic.Int32{}
	body := func(*system.RunContext) {
		cur := active.Add(1)
		for {
			prev := maxActive.Load()
			if cur <= prev || maxActive.CompareAndSwap(prev, cur) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		active.Add(-1)
	}
	for i, discrim := range [][]int{discrimA, discrimB} {
		b.AddSystem(system.Spec{
			DebugName:  fmt.Sprintf("writer-%d", i),
			ThreadSafe: true,
			IsotopeRequests: []system.IsotopeRequest{
				{Archetype: "unit", Component: "slots", Discrim: discrim, Mutable: true},
			},
			Run: body,
		})
	}
	return b.Build(), maxActive
}

func TestOverlappingIsotopeWritersNeverRunConcurrently(t *testing.T) {
	w, maxActive := isotopeConflictWorld(t, []int{1, 2}, []int{2, 3})
	for tick := 0; tick < 20; tick++ {
		w.Execute(nil)
	}
	assert.Equal(t, int32(1), maxActive.Load())
}

func TestDisjointIsotopeWritersMayRunConcurrently(t *testing.T) {
	w, maxActive := isotopeConflictWorld(t, []int{1, 2}, []int{3, 4})
	for tick := 0; tick < 50 && maxActive.Load() < 2; tick++ {
		w.Execute(nil)
	}
	assert.Equal(t, int32(2), maxActive.Load())
}

func TestSelfConflictingResourceRequestPanicsAtBuild(t *testing.T) {
	b, ab := newTestBuilder()
	world.RegisterSimple[position](ab, "position", storage.NewDense[position](), false, false, nil)
	b.AddSystem(system.Spec{
		DebugName:  "greedy",
		ThreadSafe: true,
		SimpleRequests: []system.SimpleRequest{
			{Archetype: "unit", Component: "position", Mutable: true},
			{Archetype: "unit", Component: "position", Mutable: false},
		},
		Run: func(*system.RunContext) {},
	})
	assert.Panics(t, func() { b.Build() })
}

type frameState struct{ n int }

func TestUnsyncGlobalForcesMainThread(t *testing.T) {
	b := world.NewBuilder(2)
	ab := b.Archetype("unit")
	world.WithRecycling[uint32, struct{}, *ealloc.StackRecycler[uint32]](
		ab, ealloc.RandomShardAssigner{}, ealloc.NewStackRecycler[uint32],
	)
	b.RegisterGlobal("frame", false, &frameState{}, nil)

	ran := false
	b.AddSystem(system.Spec{
		DebugName:  "ui",
		ThreadSafe: true, // overridden: an unsync global pins the system to the main thread
		GlobalRequests: []system.GlobalRequest{
			{Type: "frame", Sync: false, Mutable: true},
		},
		Run: func(ctx *system.RunContext) {
			ctx.Globals["frame"].(*frameState).n++
			ran = true
		},
	})

	w := b.Build()
	w.Execute(nil)
	require.True(t, ran)
	require.Equal(t, 1, w.GetGlobal("frame").(*frameState).n)
}

func TestExecuteWithZeroSystemsCompletesImmediately(t *testing.T) {
	b, _ := newTestBuilder()
	w := b.Build()
	w.Execute(nil)
}
