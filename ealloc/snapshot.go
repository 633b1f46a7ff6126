package ealloc

import (
	"github.com/archonkit/archon/raw"
	"github.com/google/btree"
)

// Snapshot is a tick-stable view of an allocator: the gauge value and the
// recyclable-id set as they stood at the moment the snapshot was taken.
// Both fields are safe to read concurrently with further allocation,
// since neither changes again until the next Flush.
type Snapshot[E raw.ID] struct {
	Gauge      E
	Recyclable *btree.BTreeG[E]
}

// IterAliveRanges visits the maximal contiguous ranges of ids that were
// allocated but not recycled at snapshot time, in ascending order. This is
// what drives offline (single-threaded, outside-a-tick) iteration over an
// archetype's live entities without walking every id one at a time.
func (s Snapshot[E]) IterAliveRanges(yield func(lo, hi E) bool) {
	start := E(1)
	cont := true
	s.Recyclable.Ascend(func(item E) bool {
		if start != item {
			if !yield(start, item) {
				cont = false
				return false
			}
		}
		start = raw.Add(item, 1)
		return true
	})
	if cont && start != s.Gauge {
		yield(start, s.Gauge)
	}
}

// IterAliveRangesBetween is IterAliveRanges clipped to [lo, hi), so a
// caller can walk one slice of the id space without visiting the whole
// archetype.
func (s Snapshot[E]) IterAliveRangesBetween(lo, hi E, yield func(lo, hi E) bool) {
	if hi <= lo {
		return
	}
	start := lo
	cont := true
	s.Recyclable.AscendRange(lo, hi, func(item E) bool {
		if start != item {
			if !yield(start, item) {
				cont = false
				return false
			}
		}
		start = raw.Add(item, 1)
		return true
	})
	if cont && start != hi {
		yield(start, hi)
	}
}

// CountAliveBetween reports how many ids in [lo, hi) are allocated and not
// recycled, without materializing the ranges. Used to decide whether a
// parallel-split candidate slice is still worth subdividing further.
func (s Snapshot[E]) CountAliveBetween(lo, hi E) int {
	if hi <= lo {
		return 0
	}
	total := int(raw.Sub(hi, lo))
	recycled := 0
	s.Recyclable.AscendRange(lo, hi, func(E) bool {
		recycled++
		return true
	})
	return total - recycled
}
