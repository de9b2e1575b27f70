// Package blueprint loads declarative machine definitions from YAML and
// applies them to a machine. States and transitions name their callbacks;
// the caller supplies a Library mapping those names to functions, so data
// files stay free of code while behavior stays compiled.
//
// Definitions are external input, so everything here returns errors instead
// of panicking, and Apply validates the whole definition before touching the
// machine.
package blueprint

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"slices"

	"gopkg.in/yaml.v3"

	bsm "github.com/statecraft/go-bsm"
)

// ErrInvalidDefinition marks a definition that fails validation.
var ErrInvalidDefinition = errors.New("blueprint: invalid definition")

// Definition is the YAML shape of one machine.
type Definition struct {
	Name        string          `yaml:"name"`
	Initial     string          `yaml:"initial"`
	States      []StateDef      `yaml:"states"`
	Transitions []TransitionDef `yaml:"transitions"`
}

// StateDef declares a state and the names of its optional lifecycle hooks.
type StateDef struct {
	ID            string `yaml:"id"`
	OnEnter       string `yaml:"on_enter"`
	OnExit        string `yaml:"on_exit"`
	OnUpdate      string `yaml:"on_update"`
	OnFixedUpdate string `yaml:"on_fixed_update"`
}

// TransitionDef declares a guarded edge between two declared states.
type TransitionDef struct {
	From              string `yaml:"from"`
	To                string `yaml:"to"`
	Guard             string `yaml:"guard"`
	Action            string `yaml:"action"`
	Priority          int    `yaml:"priority"`
	GuardDescription  string `yaml:"guard_description"`
	ActionDescription string `yaml:"action_description"`
}

// Library resolves the names a definition refers to. Hooks feed state
// lifecycle callbacks, Guards and Actions feed transitions.
type Library struct {
	Hooks   map[string]func()
	Guards  map[string]func() bool
	Actions map[string]func()
}

// Load decodes a definition from r and validates it.
func Load(r io.Reader) (*Definition, error) {
	var definition Definition
	if err := yaml.NewDecoder(r).Decode(&definition); err != nil {
		return nil, fmt.Errorf("blueprint: decode: %w", err)
	}
	if err := definition.validate(); err != nil {
		return nil, err
	}
	return &definition, nil
}

func (d *Definition) validate() error {
	if len(d.States) == 0 {
		return fmt.Errorf("%w: no states declared", ErrInvalidDefinition)
	}
	declared := map[string]bool{}
	for _, state := range d.States {
		if state.ID == "" {
			return fmt.Errorf("%w: state with empty id", ErrInvalidDefinition)
		}
		if declared[state.ID] {
			return fmt.Errorf("%w: state %q declared twice", ErrInvalidDefinition, state.ID)
		}
		declared[state.ID] = true
	}
	for _, transition := range d.Transitions {
		if !declared[transition.From] {
			return fmt.Errorf("%w: transition from undeclared state %q", ErrInvalidDefinition, transition.From)
		}
		if !declared[transition.To] {
			return fmt.Errorf("%w: transition to undeclared state %q", ErrInvalidDefinition, transition.To)
		}
		if transition.Guard == "" {
			return fmt.Errorf("%w: transition %q -> %q has no guard", ErrInvalidDefinition, transition.From, transition.To)
		}
	}
	if d.Initial != "" && !declared[d.Initial] {
		return fmt.Errorf("%w: initial state %q is not declared", ErrInvalidDefinition, d.Initial)
	}
	return nil
}

// Apply registers the definition's states and transitions onto machine,
// resolving callback names through library, and sets the initial state if the
// definition names one. All names are resolved before the machine is touched,
// so a bad definition leaves it unchanged. The machine must not already hold
// any of the definition's state identifiers.
func Apply[T any](definition *Definition, machine *bsm.Machine[T], library Library) error {
	if err := definition.validate(); err != nil {
		return err
	}
	existing := machine.StateIDs()
	states := make(map[string]*bsm.FuncState[T], len(definition.States))
	for _, def := range definition.States {
		if slices.Contains(existing, def.ID) {
			return fmt.Errorf("%w: state %q already registered on machine", ErrInvalidDefinition, def.ID)
		}
		builder := bsm.NewStateBuilder[T]().Named(def.ID)
		for _, hook := range []struct {
			name string
			bind func(func()) *bsm.StateBuilder[T]
		}{
			{def.OnEnter, builder.OnEnter},
			{def.OnExit, builder.OnExit},
			{def.OnUpdate, builder.OnUpdate},
			{def.OnFixedUpdate, builder.OnFixedUpdate},
		} {
			if hook.name == "" {
				continue
			}
			fn, ok := library.Hooks[hook.name]
			if !ok {
				return fmt.Errorf("%w: state %q references unknown hook %q", ErrInvalidDefinition, def.ID, hook.name)
			}
			hook.bind(fn)
		}
		states[def.ID] = builder.Build()
	}
	guards := make([]bsm.GuardFunc, len(definition.Transitions))
	actions := make([]bsm.ActionFunc, len(definition.Transitions))
	for i, def := range definition.Transitions {
		guard, ok := library.Guards[def.Guard]
		if !ok {
			return fmt.Errorf("%w: transition %q -> %q references unknown guard %q", ErrInvalidDefinition, def.From, def.To, def.Guard)
		}
		guards[i] = guard
		if def.Action != "" {
			action, ok := library.Actions[def.Action]
			if !ok {
				return fmt.Errorf("%w: transition %q -> %q references unknown action %q", ErrInvalidDefinition, def.From, def.To, def.Action)
			}
			actions[i] = action
		}
	}
	for _, def := range definition.States {
		machine.RegisterState(def.ID, states[def.ID])
	}
	for i, def := range definition.Transitions {
		builder := machine.From(def.From).
			To(def.To).
			When(guards[i]).
			WithPriority(def.Priority).
			DescribeGuard(cmp.Or(def.GuardDescription, def.Guard)).
			DescribeAction(cmp.Or(def.ActionDescription, def.Action))
		if actions[i] != nil {
			builder.Do(actions[i])
		}
		builder.Build()
	}
	if definition.Initial != "" {
		machine.SetInitialState(definition.Initial)
	}
	return nil
}
