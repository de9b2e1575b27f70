package bsm

import (
	"fmt"
	"log/slog"
)

// GuardFunc is a zero-argument predicate deciding whether a transition may
// fire.
type GuardFunc func() bool

// ActionFunc is an optional side effect run when a transition fires, before
// the state change.
type ActionFunc func()

// Transition is a guarded, prioritized edge from one registered state to
// another. Transitions are owned by their source state's transition list and
// point at the target by shared reference; they are created through
// Machine.AddTransition or a TransitionBuilder and never removed.
type Transition[T any] struct {
	target     State[T]
	targetID   string
	guard      GuardFunc
	action     ActionFunc
	priority   int
	fired      uint64
	guardDesc  string
	actionDesc string
}

// ShouldFire evaluates the guard. Evaluation and counting are fused: every
// truthy evaluation increments the fire counter before returning, including
// evaluations done purely for introspection.
func (t *Transition[T]) ShouldFire() bool {
	if !t.guard() {
		return false
	}
	t.fired++
	return true
}

// PerformAction runs the transition's action if one is configured.
func (t *Transition[T]) PerformAction() {
	if t.action != nil {
		t.action()
	}
}

// Target returns the target state.
func (t *Transition[T]) Target() State[T] {
	return t.target
}

// TargetID returns the identifier the target state was registered under.
func (t *Transition[T]) TargetID() string {
	return t.targetID
}

// Priority returns the transition's priority; higher evaluates first.
func (t *Transition[T]) Priority() int {
	return t.priority
}

// Fired returns how many times the guard has evaluated true.
func (t *Transition[T]) Fired() uint64 {
	return t.fired
}

// GuardDescription returns the optional human-readable guard description.
func (t *Transition[T]) GuardDescription() string {
	return t.guardDesc
}

// ActionDescription returns the optional human-readable action description.
func (t *Transition[T]) ActionDescription() string {
	return t.actionDesc
}

/******* TransitionBuilder *******/

// TransitionBuilder accumulates an outgoing transition for the state it was
// created from via Machine.From. Build validates that both a target and a
// guard were supplied, registers the transition onto the machine, and returns
// it; an incomplete configuration fails fast at Build rather than surfacing
// later during evaluation.
type TransitionBuilder[T any] struct {
	machine    *Machine[T]
	fromID     string
	target     State[T]
	targetID   string
	hasTarget  bool
	guard      GuardFunc
	action     ActionFunc
	priority   int
	guardDesc  string
	actionDesc string
}

// To targets the state registered under id. The id must already be known to
// the machine.
func (b *TransitionBuilder[T]) To(id string) *TransitionBuilder[T] {
	b.target = b.machine.GetState(id)
	b.targetID = id
	b.hasTarget = true
	return b
}

// ToState targets a state by reference. The state must already be registered
// with the machine.
func (b *TransitionBuilder[T]) ToState(state State[T]) *TransitionBuilder[T] {
	id, ok := b.machine.ids[state]
	if !ok {
		slog.Error("transition target is not registered", "from", b.fromID)
		panic(fmt.Errorf("%w: transition target from %q is not registered", ErrUnknownState, b.fromID))
	}
	b.target = state
	b.targetID = id
	b.hasTarget = true
	return b
}

// When sets the guard predicate.
func (b *TransitionBuilder[T]) When(guard GuardFunc) *TransitionBuilder[T] {
	b.guard = guard
	return b
}

// Do sets the optional action.
func (b *TransitionBuilder[T]) Do(action ActionFunc) *TransitionBuilder[T] {
	b.action = action
	return b
}

// WithPriority sets the evaluation priority; higher goes first. Defaults to
// zero.
func (b *TransitionBuilder[T]) WithPriority(priority int) *TransitionBuilder[T] {
	b.priority = priority
	return b
}

// DescribeGuard attaches a human-readable guard description for tooling.
func (b *TransitionBuilder[T]) DescribeGuard(desc string) *TransitionBuilder[T] {
	b.guardDesc = desc
	return b
}

// DescribeAction attaches a human-readable action description for tooling.
func (b *TransitionBuilder[T]) DescribeAction(desc string) *TransitionBuilder[T] {
	b.actionDesc = desc
	return b
}

// Build validates the configuration, registers the transition under the
// originating state and returns it.
func (b *TransitionBuilder[T]) Build() *Transition[T] {
	if !b.hasTarget || b.guard == nil {
		slog.Error("transition is missing a target or a guard", "from", b.fromID)
		panic(fmt.Errorf("%w: transition from %q needs both a target and a guard", ErrIncompleteTransition, b.fromID))
	}
	transition := &Transition[T]{
		target:     b.target,
		targetID:   b.targetID,
		guard:      b.guard,
		action:     b.action,
		priority:   b.priority,
		guardDesc:  b.guardDesc,
		actionDesc: b.actionDesc,
	}
	b.machine.insertTransition(b.fromID, transition)
	return transition
}
