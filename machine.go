package bsm

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"
)

// Trace is an optional hook observing machine steps. It is called at the
// start of a step with the step name and the identifiers involved, and the
// function it returns is called when the step completes. pkg/telemetry
// provides an OpenTelemetry-backed implementation.
type Trace func(step string, ids ...string) func(...any)

// Machine orchestrates a set of registered states sharing one context of
// type T. It owns the identifier table, each state's outgoing transition
// list, the current and previous state, and a state-changed notification.
//
// A machine is single-threaded by contract: all operations mutate state
// synchronously on the calling thread of control and the machine provides no
// internal locking. The host drives it by calling Tick once per logical frame
// and FixedTick once per logical physics step.
type Machine[T any] struct {
	id          string
	context     T
	states      map[string]State[T]
	ids         map[State[T]]string
	transitions map[string][]*Transition[T]
	current     State[T]
	previous    State[T]
	listeners   []listener[T]
	listenerSeq int
	trace       Trace
}

type listener[T any] struct {
	id int
	fn func(old, new State[T])
}

// New creates a machine with no states around the given shared context. The
// context is injected into every state at registration and outlives all of
// them.
func New[T any](context T) *Machine[T] {
	return &Machine[T]{
		id:          uuid.NewString(),
		context:     context,
		states:      map[string]State[T]{},
		ids:         map[State[T]]string{},
		transitions: map[string][]*Transition[T]{},
	}
}

// WithTrace installs a trace hook and returns the machine.
func WithTrace[T any](machine *Machine[T], trace Trace) *Machine[T] {
	machine.trace = trace
	return machine
}

// ID returns the machine's opaque instance identifier.
func (m *Machine[T]) ID() string {
	return m.id
}

// Context returns the shared context.
func (m *Machine[T]) Context() T {
	return m.context
}

// RegisterState registers state under id, binds it to this machine and its
// context, initializes its transition list, and returns it. Registering an
// identifier twice, or the same state under two identifiers, panics with
// ErrDuplicateState and leaves the machine unchanged.
func (m *Machine[T]) RegisterState(id string, state State[T]) State[T] {
	if _, ok := m.states[id]; ok {
		slog.Error("state identifier already registered", "machine", m.id, "state", id)
		panic(fmt.Errorf("%w: %q", ErrDuplicateState, id))
	}
	if existing, ok := m.ids[state]; ok {
		slog.Error("state already registered under another identifier", "machine", m.id, "state", id, "existing", existing)
		panic(fmt.Errorf("%w: state is already registered as %q", ErrDuplicateState, existing))
	}
	m.states[id] = state
	m.ids[state] = id
	m.transitions[id] = []*Transition[T]{}
	state.Bind(m, m.context)
	return state
}

// GetState returns the state registered under id, panicking with
// ErrUnknownState if there is none.
func (m *Machine[T]) GetState(id string) State[T] {
	state, ok := m.states[id]
	if !ok {
		slog.Error("unknown state identifier", "machine", m.id, "state", id)
		panic(fmt.Errorf("%w: %q", ErrUnknownState, id))
	}
	return state
}

// AddTransition creates a transition from the state registered as from to the
// state registered as to, guarded by guard, carrying an optional action (nil
// for none) and a priority, and inserts it into from's transition list. The
// list stays sorted by descending priority with ties kept in insertion order.
// Both endpoints must already be registered and the guard must be non-nil;
// violations panic and nothing is added.
func (m *Machine[T]) AddTransition(from, to string, guard GuardFunc, action ActionFunc, priority int) *Transition[T] {
	if _, ok := m.states[from]; !ok {
		slog.Error("transition source is not registered", "machine", m.id, "from", from, "to", to)
		panic(fmt.Errorf("%w: transition source %q", ErrUnknownState, from))
	}
	target := m.GetState(to)
	if guard == nil {
		slog.Error("transition has no guard", "machine", m.id, "from", from, "to", to)
		panic(fmt.Errorf("%w: transition %q -> %q needs a guard", ErrIncompleteTransition, from, to))
	}
	transition := &Transition[T]{
		target:   target,
		targetID: to,
		guard:    guard,
		action:   action,
		priority: priority,
	}
	m.insertTransition(from, transition)
	return transition
}

// From starts a fluent transition definition originating at the state
// registered under id.
func (m *Machine[T]) From(id string) *TransitionBuilder[T] {
	if _, ok := m.states[id]; !ok {
		slog.Error("transition source is not registered", "machine", m.id, "from", id)
		panic(fmt.Errorf("%w: transition source %q", ErrUnknownState, id))
	}
	return &TransitionBuilder[T]{machine: m, fromID: id}
}

func (m *Machine[T]) insertTransition(fromID string, transition *Transition[T]) {
	list := append(m.transitions[fromID], transition)
	slices.SortStableFunc(list, func(a, b *Transition[T]) int {
		return cmp.Compare(b.priority, a.priority)
	})
	m.transitions[fromID] = list
}

// Transitions returns a copy of the outgoing transition list of the state
// registered under from, in evaluation order.
func (m *Machine[T]) Transitions(from string) []*Transition[T] {
	if _, ok := m.states[from]; !ok {
		slog.Error("unknown state identifier", "machine", m.id, "state", from)
		panic(fmt.Errorf("%w: %q", ErrUnknownState, from))
	}
	return slices.Clone(m.transitions[from])
}

// SetInitialState makes the state registered under id current and enters it.
// On the very first call there is nothing current, so no Exit runs. A
// repeated call is deliberately routed through the same exit/enter sequence
// as ChangeState rather than skipping the outgoing state's Exit.
func (m *Machine[T]) SetInitialState(id string) {
	m.changeTo(m.GetState(id), id)
}

// ChangeState transitions to the state registered under id: the previous
// state is recorded, the outgoing state exits, the target becomes current and
// enters, and state-changed listeners run. This happens unconditionally even
// when the target is already current; re-entering a state exits and
// re-enters it.
func (m *Machine[T]) ChangeState(id string) {
	m.changeTo(m.GetState(id), id)
}

func (m *Machine[T]) changeTo(target State[T], id string) {
	if m.trace != nil {
		defer m.trace("changeState", m.idOf(m.current), id)()
	}
	old := m.current
	m.previous = m.current
	if m.current != nil {
		m.current.Exit()
	}
	m.current = target
	m.current.Enter()
	for _, l := range slices.Clone(m.listeners) {
		l.fn(old, target)
	}
}

// RevertToPreviousState changes back to the state that was current before the
// last change. This is not a history stack: the revert itself records a new
// previous state, so two consecutive reverts oscillate between two states.
func (m *Machine[T]) RevertToPreviousState() {
	if m.previous == nil {
		return
	}
	m.changeTo(m.previous, m.ids[m.previous])
}

// Tick drives one logical frame: the current state's transitions are
// evaluated in priority order and the first whose guard holds performs its
// action and changes state — at most one transition fires per tick — then the
// (possibly new) current state's Update hook runs. Without a current state
// Tick is a no-op.
func (m *Machine[T]) Tick() {
	if m.current == nil {
		return
	}
	if m.trace != nil {
		defer m.trace("tick", m.idOf(m.current))()
	}
	for _, transition := range m.transitions[m.ids[m.current]] {
		if transition.ShouldFire() {
			transition.PerformAction()
			m.changeTo(transition.target, transition.targetID)
			break
		}
	}
	m.current.Update()
}

// FixedTick drives one logical physics step: only the current state's
// FixedUpdate hook runs; transitions are not evaluated here. Without a
// current state FixedTick is a no-op.
func (m *Machine[T]) FixedTick() {
	if m.current == nil {
		return
	}
	if m.trace != nil {
		defer m.trace("fixedTick", m.idOf(m.current))()
	}
	m.current.FixedUpdate()
}

// OnStateChange registers a listener invoked synchronously, in registration
// order, after every state change with the outgoing and incoming state. The
// outgoing state is nil for the initial change. The returned function removes
// the listener.
func (m *Machine[T]) OnStateChange(fn func(old, new State[T])) func() {
	m.listenerSeq++
	id := m.listenerSeq
	m.listeners = append(m.listeners, listener[T]{id: id, fn: fn})
	return func() {
		m.listeners = slices.DeleteFunc(m.listeners, func(l listener[T]) bool {
			return l.id == id
		})
	}
}

// Current returns the current state, nil before any initial state is set.
func (m *Machine[T]) Current() State[T] {
	return m.current
}

// Previous returns the state that was current immediately before the last
// change, nil if there has been none.
func (m *Machine[T]) Previous() State[T] {
	return m.previous
}

func (m *Machine[T]) idOf(state State[T]) string {
	if state == nil {
		return ""
	}
	return m.ids[state]
}
