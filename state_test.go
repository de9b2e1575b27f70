package bsm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bsm "github.com/statecraft/go-bsm"
)

// patrol exercises the subclassable variant.
type patrol struct {
	bsm.BaseState[*blackboard]
	entered int
	exited  int
	updated int
	fixed   int
}

func (p *patrol) Enter()       { p.entered++ }
func (p *patrol) Exit()        { p.exited++ }
func (p *patrol) Update()      { p.updated++ }
func (p *patrol) FixedUpdate() { p.fixed++ }

func TestBaseStateBindOnRegistration(t *testing.T) {
	board := &blackboard{}
	machine := bsm.New(board)
	state := &patrol{}

	returned := machine.RegisterState("patrol", state)

	assert.Same(t, state, returned)
	assert.Same(t, machine, state.Machine)
	assert.Same(t, board, state.Context)
}

func TestBaseStateHooksDefaultToNoops(t *testing.T) {
	machine := bsm.New(&blackboard{})
	machine.RegisterState("inert", &bsm.BaseState[*blackboard]{})
	machine.SetInitialState("inert")
	machine.Tick()
	machine.FixedTick()
	assert.Equal(t, "inert", machine.CurrentID())
}

func TestFuncStateOmittedCallbacksAreNoops(t *testing.T) {
	state := bsm.NewStateBuilder[*blackboard]().Build()
	machine := bsm.New(&blackboard{})
	machine.RegisterState("empty", state)
	machine.SetInitialState("empty")
	machine.Tick()
	machine.FixedTick()
	assert.Empty(t, state.Name())
}

func TestFuncStateCallbacks(t *testing.T) {
	var calls []string
	record := func(name string) func() {
		return func() { calls = append(calls, name) }
	}
	state := bsm.NewStateBuilder[*blackboard]().
		Named("idle").
		OnEnter(record("enter")).
		OnExit(record("exit")).
		OnUpdate(record("update")).
		OnFixedUpdate(record("fixedUpdate")).
		Build()

	require.Equal(t, "idle", state.Name())
	state.Enter()
	state.Update()
	state.FixedUpdate()
	state.Exit()
	assert.Equal(t, []string{"enter", "update", "fixedUpdate", "exit"}, calls)
}

func TestStateBuilderRetainsConfigurationAcrossBuilds(t *testing.T) {
	entered := 0
	builder := bsm.NewStateBuilder[*blackboard]().
		Named("one").
		OnEnter(func() { entered++ })

	first := builder.Build()
	second := builder.Named("two").Build()

	// Distinct instances, but the second reflects the builder's latest
	// configuration, including callbacks set before the first Build.
	require.NotSame(t, first, second)
	assert.Equal(t, "one", first.Name())
	assert.Equal(t, "two", second.Name())
	second.Enter()
	assert.Equal(t, 1, entered)
}
