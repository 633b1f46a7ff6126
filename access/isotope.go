package access

import (
	"fmt"

	"github.com/TheBitDrifter/bark"
	"github.com/archonkit/archon/isotope"
	"github.com/archonkit/archon/storage"
)

// ReadOnlyWriteError reports an attempt to mutate through an accessor that
// was constructed without write access.
type ReadOnlyWriteError struct {
	Archetype, Component string
}

func (e ReadOnlyWriteError) Error() string {
	return fmt.Sprintf("write attempted on read-only isotope accessor %s/%s", e.Archetype, e.Component)
}

// DefaultFactory produces the value a default-on-read isotope component
// materializes for a discriminant that has never been written. A nil
// factory means the component type has no init strategy and try-get style
// reads simply return ok == false.
type DefaultFactory[T any] func() T

// AccessIsotope wraps an isotope.Map view: read-only mode, full-map write
// mode, or partial write mode over a fixed discriminant subset. Read-only
// and full-write share this type, distinguished by the mutable flag;
// partial access is obtained through Split, which hands back one
// AccessSingle per requested discriminant.
type AccessIsotope[D isotope.Discrim, T any] struct {
	archetype, component string
	m                    *isotope.Map[D, T]
	mutable              bool
	def                  DefaultFactory[T]
}

// NewAccessIsotope builds a full-map accessor: reads may lazily observe any
// discriminant, and in mutable mode GetOrInsert creates storages on demand.
func NewAccessIsotope[D isotope.Discrim, T any](archetype, component string, m *isotope.Map[D, T], mutable bool, def DefaultFactory[T]) *AccessIsotope[D, T] {
	return &AccessIsotope[D, T]{archetype: archetype, component: component, m: m, mutable: mutable, def: def}
}

// TryGet returns the component at (entity, key), or ok == false if absent
// and the isotope has no default-on-read initializer.
func (a *AccessIsotope[D, T]) TryGet(id uint64, key D) (T, bool) {
	s, ok := a.m.GetBy(key)
	if ok {
		if v, present := s.Get(id); present {
			return *v, true
		}
	}
	if a.def != nil {
		return a.def(), true
	}
	var zero T
	return zero, false
}

// Get is TryGet's panicking variant for must-be-present isotopes (those with
// a default-on-read initializer configured).
func (a *AccessIsotope[D, T]) Get(id uint64, key D) T {
	v, ok := a.TryGet(id, key)
	if !ok {
		panic(bark.AddTrace(MustAbsentError{Archetype: a.archetype, Component: a.component, ID: id}))
	}
	return v
}

// GetAll yields every (discriminant, component) present on entity, across
// every discriminant storage currently allocated. The default-on-read
// initializer is never invoked here: synthesized defaults only surface
// through a keyed TryGet/Get, not bulk iteration.
func (a *AccessIsotope[D, T]) GetAll(id uint64, yield func(key D, v *T) bool) {
	a.m.Iter(func(key D, s storage.Storage[T]) bool {
		if v, ok := s.Get(id); ok {
			return yield(key, v)
		}
		return true
	})
}

// GetOrInsertMut returns a mutable pointer to the component at (entity,
// key), inserting the default value (if one is configured) when absent.
// Unlike TryGet's read path, this always materializes and stores the
// value, so the returned pointer is backed by the storage.
func (a *AccessIsotope[D, T]) GetOrInsertMut(id uint64, key D) *T {
	a.requireMutable()
	s := a.m.GetOrInsert(key)
	if v, ok := s.Get(id); ok {
		return v
	}
	var v T
	if a.def != nil {
		v = a.def()
	}
	s.Set(id, &v)
	nv, _ := s.Get(id)
	return nv
}

// Set writes or removes the component at (entity, key). Passing nil
// removes it. Only valid on a mutable accessor.
func (a *AccessIsotope[D, T]) Set(id uint64, key D, v *T) {
	a.requireMutable()
	s := a.m.GetOrInsert(key)
	s.Set(id, v)
}

func (a *AccessIsotope[D, T]) requireMutable() {
	if !a.mutable {
		panic(bark.AddTrace(ReadOnlyWriteError{Archetype: a.archetype, Component: a.component}))
	}
}

// Split resolves keys to disjoint AccessSingle accessors, one per
// discriminant, panicking (via isotope.Map.GetMutArrayBy) if any two keys
// resolve to the same storage. This is the primitive behind split isotope
// access: a single system can hold simultaneous mutable access to several
// discriminants of the same component type, provided they do not overlap.
func (a *AccessIsotope[D, T]) Split(keys []D) []*AccessSingle[T] {
	storages := a.m.GetMutArrayBy(keys)
	out := make([]*AccessSingle[T], len(keys))
	for i, s := range storages {
		out[i] = NewAccessSingle(a.archetype, a.component, s, false)
	}
	return out
}

// KnownDiscrims visits every discriminant that currently has a storage
// allocated. Cross-discriminant ordering is not guaranteed.
func (a *AccessIsotope[D, T]) KnownDiscrims(yield func(D) bool) {
	a.m.Iter(func(key D, _ storage.Storage[T]) bool { return yield(key) })
}
