package raw

import "golang.org/x/exp/constraints"

// ID constrains the primitive types usable as an archetype's raw entity ID.
// Any unsigned integer width is accepted; archetypes pick the width that
// bounds their expected entity count.
type ID interface {
	constraints.Unsigned
}

// Add returns v shifted forward by delta. It never mutates v.
func Add[T ID](v T, delta uint64) T {
	return v + T(delta)
}

// Sub returns the distance from other to v, i.e. v - other. The subtraction
// is unsigned: if other > v the result wraps around instead of panicking.
func Sub[T ID](v, other T) uint64 {
	return uint64(v) - uint64(other)
}

// ApproxMidpoint returns an approximate midpoint between v and other. The
// result need not be exact: it only has to land strictly between the two
// endpoints often enough to make range-splitting converge, which integer
// truncation always satisfies.
func ApproxMidpoint[T ID](v, other T) T {
	a, b := uint64(v), uint64(other)
	if a > b {
		a, b = b, a
	}
	return T(a + (b-a)/2)
}

// FromPrimitive converts a primitive scalar back into a raw ID. The caller
// must only pass values previously produced by ToPrimitive.
func FromPrimitive[T ID](p uint64) T {
	return T(p)
}

// ToPrimitive converts a raw ID to its primitive scalar form. The result is
// monotone with respect to the ID's ordering.
func ToPrimitive[T ID](v T) uint64 {
	return uint64(v)
}

// Range returns the half-open sequence [from, to) as a slice of raw IDs.
func Range[T ID](from, to T) []T {
	if to <= from {
		return nil
	}
	out := make([]T, 0, to-from)
	for v := from; v < to; v++ {
		out = append(out, v)
	}
	return out
}
