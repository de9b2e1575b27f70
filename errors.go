package bsm

import "errors"

// Structural misuse of the machine is a programmer error: it is raised
// synchronously at the offending call as a panic wrapping one of these
// sentinels, and the machine is left unchanged. recover and errors.Is can be
// used by embedders that prefer catch-and-log over crashing.
var (
	// ErrDuplicateState marks registration of an identifier already in use.
	ErrDuplicateState = errors.New("bsm: duplicate state")
	// ErrUnknownState marks a lookup, transition or registration against an
	// identifier never registered.
	ErrUnknownState = errors.New("bsm: unknown state")
	// ErrIncompleteTransition marks building a transition without both a
	// target and a guard.
	ErrIncompleteTransition = errors.New("bsm: incomplete transition")
)
