package world

import (
	"fmt"
	"sync"

	"github.com/archonkit/archon/referrer"
)

// globalEntry is one registered global state value. Sync globals are
// protected by mu and may be locked from worker threads; unsync globals
// are only ever touched on the main thread, so the scheduler is
// responsible for placing any system that requests one there.
// globalEntry itself does not enforce that; it only records the flag for
// Builder's validation pass.
type globalEntry struct {
	mu         sync.RWMutex
	sync       bool
	value      any
	referrable func() referrer.Referrable
}

// RegisterGlobal adds a preset or lazily-initialized global value. value
// may be nil if every system requesting this global supplies its own
// GlobalRequest.Initial factory.
func (b *Builder) RegisterGlobal(name string, sync bool, value any, toReferrable func() referrer.Referrable) *Builder {
	entry := &globalEntry{sync: sync, value: value}
	if toReferrable != nil {
		entry.referrable = toReferrable
	} else {
		entry.referrable = func() referrer.Referrable { return referrer.None{} }
	}
	b.globals[name] = entry
	return b
}

func (w *World) globalEntry(name string) *globalEntry {
	g, ok := w.globals[name]
	if !ok {
		panic(fmt.Sprintf("archon: global %q is not registered", name))
	}
	return g
}

// GetGlobal returns the current value of a registered global, for offline
// (outside-a-tick) access. Callers type-assert the result to the concrete
// global type.
func (w *World) GetGlobal(name string) any {
	g := w.globalEntry(name)
	return g.value
}

// SetGlobal overwrites a registered global's value, for offline access.
func (w *World) SetGlobal(name string, value any) {
	g := w.globalEntry(name)
	g.value = value
}
