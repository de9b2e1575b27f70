// Package registry is an opt-in side table of live machines for introspection
// tooling. The core never touches it: an embedding application that wants its
// machines discoverable adds them here under an identifier of its choosing,
// and a debug UI looks them up read-only through bsm.Inspector. Machines work
// identically whether or not they are registered.
package registry

import (
	"sync"

	bsm "github.com/statecraft/go-bsm"
)

// Registry maps opaque string keys to live machines. Safe for concurrent use
// so tooling may read from outside the machine's own thread of control.
type Registry struct {
	machines sync.Map
}

// Default is the process-wide registry most applications share.
var Default = &Registry{}

// New creates an empty registry for applications that want isolation from
// Default.
func New() *Registry {
	return &Registry{}
}

// Add registers machine under key, replacing any prior entry with that key.
func (r *Registry) Add(key string, machine bsm.Inspector) {
	r.machines.Store(key, machine)
}

// AddMachine registers machine under its own instance identifier and returns
// the key used.
func (r *Registry) AddMachine(machine bsm.Inspector) string {
	key := machine.ID()
	r.machines.Store(key, machine)
	return key
}

// Remove drops the entry under key, if any.
func (r *Registry) Remove(key string) {
	r.machines.Delete(key)
}

// Get returns the machine registered under key.
func (r *Registry) Get(key string) (bsm.Inspector, bool) {
	value, ok := r.machines.Load(key)
	if !ok {
		return nil, false
	}
	return value.(bsm.Inspector), true
}

// Range calls fn for each registered machine until fn returns false.
func (r *Registry) Range(fn func(key string, machine bsm.Inspector) bool) {
	r.machines.Range(func(key, value any) bool {
		return fn(key.(string), value.(bsm.Inspector))
	})
}

// Keys returns the keys of all registered machines in no particular order.
func (r *Registry) Keys() []string {
	var keys []string
	r.machines.Range(func(key, _ any) bool {
		keys = append(keys, key.(string))
		return true
	})
	return keys
}
