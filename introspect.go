package bsm

import "slices"

// Inspector is the read-only introspection surface of a machine, independent
// of its context type. Visualization and discovery tooling consumes this
// interface; nothing behind it mutates the machine.
type Inspector interface {
	ID() string
	StateIDs() []string
	CurrentID() string
	PreviousID() string
	TransitionInfo(from string) []TransitionInfo
}

// TransitionInfo is a plain snapshot of one transition for tooling: the
// endpoints by identifier, the priority, the fire counter, and the optional
// descriptive metadata attached at build time.
type TransitionInfo struct {
	From              string
	To                string
	Priority          int
	Fired             uint64
	GuardDescription  string
	ActionDescription string
}

// StateIDs returns the registered state identifiers in sorted order.
func (m *Machine[T]) StateIDs() []string {
	ids := make([]string, 0, len(m.states))
	for id := range m.states {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// CurrentID returns the identifier of the current state, empty if none.
func (m *Machine[T]) CurrentID() string {
	return m.idOf(m.current)
}

// PreviousID returns the identifier of the previous state, empty if none.
func (m *Machine[T]) PreviousID() string {
	return m.idOf(m.previous)
}

// TransitionInfo returns snapshots of the outgoing transitions of the state
// registered under from, in evaluation order. Unlike Transitions it never
// panics; an unknown identifier has no transitions.
func (m *Machine[T]) TransitionInfo(from string) []TransitionInfo {
	list := m.transitions[from]
	infos := make([]TransitionInfo, 0, len(list))
	for _, t := range list {
		infos = append(infos, TransitionInfo{
			From:              from,
			To:                t.targetID,
			Priority:          t.priority,
			Fired:             t.fired,
			GuardDescription:  t.guardDesc,
			ActionDescription: t.actionDesc,
		})
	}
	return infos
}
