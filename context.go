package bsm

// Context is the reactive half of a machine's shared data. Domain code embeds
// it in an aggregate holding the actual fields, and mutates those fields
// through Set so that interested parties are notified without polling:
//
//	type Blackboard struct {
//		bsm.Context
//		Moving bool
//		Speed  float64
//	}
//
//	func (b *Blackboard) SetMoving(v bool) bool {
//		return bsm.Set(&b.Context, &b.Moving, v, "moving")
//	}
//
// Field names are open-world: nothing is pre-declared, and writing a field
// nobody subscribed to is silent. Observers cannot be removed once
// subscribed; the container favors simplicity over leak-proofing, and its
// lifetime is the machine's lifetime anyway.
//
// The zero value is ready to use.
type Context struct {
	observers map[string][]func()
}

// Subscribe registers an observer for a named field and returns the context
// for chaining. Subscribing the same field repeatedly accumulates observers;
// they run synchronously, in registration order, each time Set actually
// changes the field.
func (c *Context) Subscribe(field string, observer func()) *Context {
	if c.observers == nil {
		c.observers = map[string][]func(){}
	}
	c.observers[field] = append(c.observers[field], observer)
	return c
}

func (c *Context) notify(field string) {
	for _, observer := range c.observers[field] {
		observer()
	}
}

// Set assigns value to the field backed by slot and notifies observers of
// field, returning true. If the field already holds an equal value nothing
// happens and Set returns false, so a redundant write never re-triggers
// observers.
func Set[T comparable](c *Context, slot *T, value T, field string) bool {
	if *slot == value {
		return false
	}
	*slot = value
	c.notify(field)
	return true
}
