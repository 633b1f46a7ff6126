package world

import (
	"fmt"
	"sort"
	"strings"

	"github.com/TheBitDrifter/bark"
)

// InitializerCycleError reports a cyclic auto-initializer dependency
// detected while sorting one archetype's simple components at Build
// time, a configuration error.
type InitializerCycleError struct {
	Archetype string
	Cycle     []string
}

func (e InitializerCycleError) Error() string {
	return fmt.Sprintf("archon: archetype %q has a cyclic auto-initializer dependency: %s",
		e.Archetype, strings.Join(e.Cycle, " -> "))
}

// sortInitializers topologically orders the simple components carrying an
// auto-initializer so each runs after every component named in its reads
// list. Components with no initializer never participate as a node (they
// have nothing to schedule) but may still appear as a dependency target;
// a dependency on a non-initializer component imposes no ordering
// constraint, since that component's presence is already fixed by the
// caller-supplied bundle before any initializer runs. Iteration is over a
// sorted key slice so the result (and any cycle diagnostic) is
// deterministic across runs.
func sortInitializers(archetype string, simples map[string]*simpleEntry) []string {
	names := make([]string, 0, len(simples))
	for name, e := range simples {
		if e.runInit != nil {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(names))
	var order []string
	var stack []string

	var visit func(name string)
	visit = func(name string) {
		switch color[name] {
		case black:
			return
		case gray:
			cycle := append(append([]string(nil), stack...), name)
			panic(bark.AddTrace(InitializerCycleError{Archetype: archetype, Cycle: cycle}))
		}
		color[name] = gray
		stack = append(stack, name)
		for _, dep := range simples[name].initReads {
			if simples[dep] != nil && simples[dep].runInit != nil {
				visit(dep)
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = black
		order = append(order, name)
	}
	for _, name := range names {
		visit(name)
	}
	return order
}
