package registry

import "fmt"

// NotComparableError reports a partition value whose dynamic type does not
// support == (e.g. a slice or map), which the registry requires to key its
// interning table.
type NotComparableError struct {
	Value any
}

func (e NotComparableError) Error() string {
	return fmt.Sprintf("registry: partition value %#v is not comparable", e.Value)
}

// Partitions interns user-supplied partition values: two values of identical
// type and equal by == are treated as the same topology node. Go's
// native map equality on an `any` key already implements
// exactly this rule, so interning is a thin wrapper that also catches the
// non-comparable case with a clear error instead of a runtime panic deep in
// map access.
type Partitions struct {
	indices map[any]int
	values  []any
}

// NewPartitions creates an empty partition interning table.
func NewPartitions() *Partitions {
	return &Partitions{indices: make(map[any]int)}
}

// Intern returns the stable index for p, registering it on first sight.
func (p *Partitions) Intern(value any) (idx int, err error) {
	defer func() {
		if r := recover(); r != nil {
			idx, err = -1, NotComparableError{Value: value}
		}
	}()
	if existing, ok := p.indices[value]; ok {
		return existing, nil
	}
	idx = len(p.values)
	p.indices[value] = idx
	p.values = append(p.values, value)
	return idx, nil
}

// Value returns the partition value registered at idx.
func (p *Partitions) Value(idx int) any { return p.values[idx] }

// Len reports how many distinct partitions have been interned.
func (p *Partitions) Len() int { return len(p.values) }
