package referrer

import "fmt"

// Visitor is invoked once per entity-reference field encountered while
// walking a storage, global, or local state's contents. Archetype is the
// registry key (the same string used everywhere else in the runtime to
// identify an archetype) the referenced raw id belongs to.
type Visitor interface {
	VisitStrong(archetype string, raw uint64)
	VisitWeak(archetype string, raw uint64, generation uint32)
}

// Referrable is implemented by every component, global, and local state
// type that transitively owns entity reference fields. Types with no
// entity references implement it with an empty body; the cost of visiting
// is only paid on deletion and permutation, never during normal system
// execution.
type Referrable interface {
	VisitReferrers(v Visitor)
}

// Remapper is an additional capability a Referrable can implement to
// support in-place entity-id rewriting. Spec.md §4.7 explicitly defers
// implementing the permutation pass that would call this, but requires the
// visitor graph to be designed so a future pass can route through it
// without reshaping every component type again.
type Remapper interface {
	RemapReferrers(archetype string, remap func(old uint64) uint64)
}

// Violation names one location holding a strong reference that survived
// past its target entity's deletion.
type Violation struct {
	Location  string
	Archetype string
	ID        uint64
}

func (v Violation) Error() string {
	return fmt.Sprintf("dangling strong reference to %s entity %d held by %s", v.Archetype, v.ID, v.Location)
}

// searchVisitor records every strong reference to one (archetype, id) pair
// encountered while walking a single location's Referrable tree. Weak
// references are never a leak, so they are ignored.
type searchVisitor struct {
	archetype string
	id        uint64
	found     int
}

func (s *searchVisitor) VisitStrong(archetype string, raw uint64) {
	if archetype == s.archetype && raw == s.id {
		s.found++
	}
}

func (s *searchVisitor) VisitWeak(string, uint64, uint32) {}

// Scan walks every (location, Referrable) pair in sources except
// excludeLocation, reporting one Violation per location that holds a
// surviving strong reference to (archetype, id). Called at tick end for
// every entity that was queued for deletion.
func Scan(sources map[string]Referrable, archetype string, id uint64, excludeLocation string) []Violation {
	var out []Violation
	for loc, r := range sources {
		if loc == excludeLocation || r == nil {
			continue
		}
		sv := &searchVisitor{archetype: archetype, id: id}
		r.VisitReferrers(sv)
		if sv.found > 0 {
			out = append(out, Violation{Location: loc, Archetype: archetype, ID: id})
		}
	}
	return out
}

// None is the zero-cost Referrable for component/global types that hold no
// entity reference fields at all.
type None struct{}

func (None) VisitReferrers(Visitor) {}
