package schema

import "slices"

// Parent is the capability of a collection entity: it owns an ordered
// sequence of child entities of type C.
type Parent[C any] interface {
	Entity
	// Items returns the current children.
	Items() []C
	// Replace swaps the children for items, stamping the parent identity.
	Replace(items []C)
}

// Members is an embeddable collection entity. It keeps every child's
// ParentID equal to its own ID across all mutations:
//
//   - children added or set take the collection's ID;
//   - children removed or replaced get InvalidID;
//   - SetID re-stamps every current child.
//
// While the collection is transient its children carry InvalidID; the
// cascading save stamps the generated identity.
type Members[C Entity] struct {
	Record
	items []C
}

// SetID implements Entity and re-stamps every child.
func (m *Members[C]) SetID(id int64) {
	m.Record.SetID(id)
	for _, c := range m.items {
		c.SetParentID(id)
	}
}

// Items returns a copy of the current children.
func (m *Members[C]) Items() []C {
	return slices.Clone(m.items)
}

// Len returns the number of children.
func (m *Members[C]) Len() int {
	return len(m.items)
}

// At returns the child at index i.
func (m *Members[C]) At(i int) C {
	return m.items[i]
}

// Add appends children.
func (m *Members[C]) Add(children ...C) {
	for _, c := range children {
		c.SetParentID(m.ID())
	}
	m.items = append(m.items, children...)
}

// Insert inserts children at index i.
func (m *Members[C]) Insert(i int, children ...C) {
	for _, c := range children {
		c.SetParentID(m.ID())
	}
	m.items = slices.Insert(m.items, i, children...)
}

// Set replaces the child at index i and returns the previous one, detached.
func (m *Members[C]) Set(i int, child C) C {
	prev := m.items[i]
	prev.SetParentID(InvalidID)
	child.SetParentID(m.ID())
	m.items[i] = child
	return prev
}

// RemoveAt removes and returns the child at index i, detached.
func (m *Members[C]) RemoveAt(i int) C {
	c := m.items[i]
	c.SetParentID(InvalidID)
	m.items = slices.Delete(m.items, i, i+1)
	return c
}

// Remove removes child if present and reports whether it was found.
// Children are matched by identity of the value, not by ID.
func (m *Members[C]) Remove(child C) bool {
	i := slices.IndexFunc(m.items, func(c C) bool { return any(c) == any(child) })
	if i < 0 {
		return false
	}
	m.RemoveAt(i)
	return true
}

// Clear detaches every child.
func (m *Members[C]) Clear() {
	for _, c := range m.items {
		c.SetParentID(InvalidID)
	}
	m.items = nil
}

// Replace implements Parent.
func (m *Members[C]) Replace(items []C) {
	m.Clear()
	m.Add(items...)
}
