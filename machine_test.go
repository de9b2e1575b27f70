package bsm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	bsm "github.com/statecraft/go-bsm"
)

func requirePanicIs(t *testing.T, target error, fn func()) {
	t.Helper()
	defer func() {
		t.Helper()
		recovered := recover()
		require.NotNil(t, recovered, "expected a panic")
		err, ok := recovered.(error)
		require.True(t, ok, "panic value should be an error, got %v", recovered)
		require.ErrorIs(t, err, target)
	}()
	fn()
}

func TestMachineStartsUninitialized(t *testing.T) {
	machine := bsm.New(&blackboard{})
	assert.Nil(t, machine.Current())
	assert.Nil(t, machine.Previous())
	assert.Empty(t, machine.CurrentID())
	machine.Tick()
	machine.FixedTick()
}

func TestRegisterStateDuplicateIdentifierRejected(t *testing.T) {
	machine := bsm.New(&blackboard{})
	first := machine.RegisterState("idle", &patrol{})

	requirePanicIs(t, bsm.ErrDuplicateState, func() {
		machine.RegisterState("idle", &patrol{})
	})
	assert.Same(t, first, machine.GetState("idle"), "first registration stays intact")
}

func TestRegisterStateSameStateTwiceRejected(t *testing.T) {
	machine := bsm.New(&blackboard{})
	state := &patrol{}
	machine.RegisterState("a", state)
	requirePanicIs(t, bsm.ErrDuplicateState, func() {
		machine.RegisterState("b", state)
	})
}

func TestGetStateUnknownIdentifierRejected(t *testing.T) {
	machine := bsm.New(&blackboard{})
	requirePanicIs(t, bsm.ErrUnknownState, func() {
		machine.GetState("nope")
	})
}

func TestAddTransitionUnregisteredSourceRejected(t *testing.T) {
	machine, _ := twoStates(t)
	requirePanicIs(t, bsm.ErrUnknownState, func() {
		machine.AddTransition("walk", "run", func() bool { return true }, nil, 0)
	})
	assert.Empty(t, machine.Transitions("idle"))
	assert.Empty(t, machine.Transitions("run"))
}

func TestAddTransitionUnregisteredTargetRejected(t *testing.T) {
	machine, _ := twoStates(t)
	requirePanicIs(t, bsm.ErrUnknownState, func() {
		machine.AddTransition("idle", "walk", func() bool { return true }, nil, 0)
	})
	assert.Empty(t, machine.Transitions("idle"))
}

func TestTransitionListSortedByDescendingPriority(t *testing.T) {
	machine, _ := twoStates(t)
	guard := func() bool { return false }
	five := machine.AddTransition("idle", "run", guard, nil, 5)
	ten := machine.AddTransition("idle", "run", guard, nil, 10)
	one := machine.AddTransition("idle", "run", guard, nil, 1)

	list := machine.Transitions("idle")
	require.Len(t, list, 3)
	assert.Same(t, ten, list[0])
	assert.Same(t, five, list[1])
	assert.Same(t, one, list[2])
}

func TestTransitionListTiesKeepInsertionOrder(t *testing.T) {
	machine, _ := twoStates(t)
	guard := func() bool { return false }
	first := machine.AddTransition("idle", "run", guard, nil, 3)
	second := machine.AddTransition("idle", "run", guard, nil, 3)
	third := machine.AddTransition("idle", "run", guard, nil, 3)

	list := machine.Transitions("idle")
	assert.Same(t, first, list[0])
	assert.Same(t, second, list[1])
	assert.Same(t, third, list[2])
}

func TestEnterExitPairing(t *testing.T) {
	machine := bsm.New(&blackboard{})
	a := &patrol{}
	b := &patrol{}
	machine.RegisterState("a", a)
	machine.RegisterState("b", b)

	machine.SetInitialState("a")
	require.Equal(t, 1, a.entered)
	require.Equal(t, 0, a.exited, "no exit on the very first state")

	machine.ChangeState("b")
	assert.Equal(t, 1, a.exited)
	assert.Equal(t, 1, b.entered)
	assert.Equal(t, "b", machine.CurrentID())
	assert.Equal(t, "a", machine.PreviousID())
}

func TestChangeStateToCurrentReenters(t *testing.T) {
	machine := bsm.New(&blackboard{})
	a := &patrol{}
	machine.RegisterState("a", a)
	machine.SetInitialState("a")

	machine.ChangeState("a")
	assert.Equal(t, 2, a.entered)
	assert.Equal(t, 1, a.exited)
	assert.Equal(t, "a", machine.PreviousID())
}

func TestRepeatedSetInitialStateExitsOutgoingState(t *testing.T) {
	machine := bsm.New(&blackboard{})
	a := &patrol{}
	b := &patrol{}
	machine.RegisterState("a", a)
	machine.RegisterState("b", b)

	machine.SetInitialState("a")
	machine.SetInitialState("b")
	assert.Equal(t, 1, a.exited, "second initial-state call runs the full exit/enter sequence")
	assert.Equal(t, 1, b.entered)
}

func TestRevertToPreviousStateOscillates(t *testing.T) {
	machine := bsm.New(&blackboard{})
	machine.RegisterState("a", &patrol{})
	machine.RegisterState("b", &patrol{})
	machine.SetInitialState("a")
	machine.ChangeState("b")

	machine.RevertToPreviousState()
	assert.Equal(t, "a", machine.CurrentID())

	machine.RevertToPreviousState()
	assert.Equal(t, "b", machine.CurrentID(), "revert is not a history stack")
}

func TestRevertWithoutPreviousIsNoop(t *testing.T) {
	machine := bsm.New(&blackboard{})
	machine.RegisterState("a", &patrol{})
	machine.SetInitialState("a")
	machine.RevertToPreviousState()
	assert.Equal(t, "a", machine.CurrentID())
}

func TestTickFiresAtMostOneTransition(t *testing.T) {
	machine := bsm.New(&blackboard{})
	machine.RegisterState("idle", &patrol{})
	machine.RegisterState("run", &patrol{})
	machine.RegisterState("flee", &patrol{})

	var fired []string
	machine.AddTransition("idle", "run", func() bool { return true }, func() { fired = append(fired, "run") }, 1)
	machine.AddTransition("idle", "flee", func() bool { return true }, func() { fired = append(fired, "flee") }, 10)

	machine.SetInitialState("idle")
	machine.Tick()

	assert.Equal(t, []string{"flee"}, fired, "only the higher-priority transition fires")
	assert.Equal(t, "flee", machine.CurrentID())
}

func TestTickEvaluatesInPriorityOrder(t *testing.T) {
	machine := bsm.New(&blackboard{})
	machine.RegisterState("idle", &patrol{})
	machine.RegisterState("run", &patrol{})

	var evaluated []int
	guard := func(priority int, result bool) bsm.GuardFunc {
		return func() bool {
			evaluated = append(evaluated, priority)
			return result
		}
	}
	machine.AddTransition("idle", "run", guard(5, false), nil, 5)
	machine.AddTransition("idle", "run", guard(10, false), nil, 10)
	machine.AddTransition("idle", "run", guard(1, false), nil, 1)

	machine.SetInitialState("idle")
	machine.Tick()
	assert.Equal(t, []int{10, 5, 1}, evaluated)
}

func TestTickUpdatesNewStateAfterTransition(t *testing.T) {
	machine := bsm.New(&blackboard{})
	idle := &patrol{}
	run := &patrol{}
	machine.RegisterState("idle", idle)
	machine.RegisterState("run", run)
	machine.AddTransition("idle", "run", func() bool { return true }, nil, 0)

	machine.SetInitialState("idle")
	machine.Tick()

	assert.Equal(t, 0, idle.updated)
	assert.Equal(t, 1, run.updated, "update runs on the state installed by the transition")
}

func TestTickSelfTransitionReenters(t *testing.T) {
	machine, board := twoStates(t)
	reentered := 0
	idle := bsm.NewStateBuilder[*blackboard]().OnEnter(func() { reentered++ }).Build()
	machine.RegisterState("restless", idle)
	machine.From("restless").To("restless").When(func() bool { return board.moving }).Build()

	machine.SetInitialState("restless")
	require.Equal(t, 1, reentered)
	board.setMoving(true)
	machine.Tick()
	assert.Equal(t, 2, reentered, "self transition exits and re-enters per changeState semantics")
}

func TestFixedTickSkipsTransitions(t *testing.T) {
	machine := bsm.New(&blackboard{})
	idle := &patrol{}
	machine.RegisterState("idle", idle)
	machine.RegisterState("run", &patrol{})
	machine.AddTransition("idle", "run", func() bool { return true }, nil, 0)

	machine.SetInitialState("idle")
	machine.FixedTick()

	assert.Equal(t, "idle", machine.CurrentID(), "fixedTick never evaluates transitions")
	assert.Equal(t, 1, idle.fixed)
	assert.Equal(t, 0, idle.updated)
}

func TestFireCounterAcrossTicks(t *testing.T) {
	machine, board := twoStates(t)
	transition := machine.From("idle").To("run").
		When(func() bool { return board.moving }).
		Build()
	back := machine.From("run").To("idle").
		When(func() bool { return !board.moving }).
		Build()

	machine.SetInitialState("idle")
	results := []bool{true, false, true, false, true}
	for _, moving := range results {
		board.moving = moving
		machine.Tick() // idle->run when moving
		machine.Tick() // run->idle when stopped, next loop flips again
	}
	assert.Equal(t, uint64(3), transition.Fired())
	assert.Equal(t, uint64(2), back.Fired())
}

func TestStateChangeListeners(t *testing.T) {
	machine := bsm.New(&blackboard{})
	a := machine.RegisterState("a", &patrol{})
	b := machine.RegisterState("b", &patrol{})

	type change struct{ old, new bsm.State[*blackboard] }
	var first, second []change
	machine.OnStateChange(func(old, new bsm.State[*blackboard]) {
		// The new state is already installed when listeners run.
		assert.Same(t, new, machine.Current())
		first = append(first, change{old, new})
	})
	remove := machine.OnStateChange(func(old, new bsm.State[*blackboard]) {
		second = append(second, change{old, new})
	})

	machine.SetInitialState("a")
	machine.ChangeState("b")
	require.Len(t, first, 2)
	assert.Nil(t, first[0].old)
	assert.Same(t, a, first[0].new)
	assert.Same(t, a, first[1].old)
	assert.Same(t, b, first[1].new)
	require.Len(t, second, 2)

	remove()
	machine.ChangeState("a")
	assert.Len(t, first, 3)
	assert.Len(t, second, 2, "removed listener no longer fires")
}

func TestTraceHookObservesSteps(t *testing.T) {
	var steps []string
	machine := bsm.WithTrace(bsm.New(&blackboard{}), func(step string, ids ...string) func(...any) {
		steps = append(steps, step)
		return func(...any) {}
	})
	machine.RegisterState("a", &patrol{})
	machine.SetInitialState("a")
	machine.Tick()
	machine.FixedTick()
	assert.Equal(t, []string{"changeState", "tick", "fixedTick"}, steps)
}

func TestEndToEndIdleToRun(t *testing.T) {
	board := &blackboard{}
	machine := bsm.New(board)

	machine.RegisterState("idle", bsm.NewStateBuilder[*blackboard]().Named("idle").Build())
	running := bsm.NewStateBuilder[*blackboard]().Named("run").
		OnUpdate(func() { board.setSpeed(board.speed + 1) }).
		Build()
	machine.RegisterState("run", running)

	machine.From("idle").To("run").
		When(func() bool { return board.moving }).
		WithPriority(1).
		DescribeGuard("moving flag true").
		Build()

	changes := 0
	machine.OnStateChange(func(old, new bsm.State[*blackboard]) {
		if old != nil {
			changes++
		}
	})

	machine.SetInitialState("idle")
	board.setMoving(true)
	machine.Tick()

	assert.Equal(t, "run", machine.CurrentID())
	assert.Equal(t, "idle", machine.PreviousID())
	assert.Equal(t, 1, changes, "listener fired once for idle -> run")
	assert.Equal(t, 1.0, board.speed, "run state updated on the same tick")
}

func TestInspectorSurface(t *testing.T) {
	machine, board := twoStates(t)
	machine.From("idle").To("run").
		When(func() bool { return board.moving }).
		WithPriority(2).
		DescribeGuard("moving").
		DescribeAction("none").
		Build()
	machine.SetInitialState("idle")
	board.setMoving(true)
	machine.Tick()

	var inspector bsm.Inspector = machine
	assert.NotEmpty(t, inspector.ID())
	assert.Equal(t, []string{"idle", "run"}, inspector.StateIDs())
	assert.Equal(t, "run", inspector.CurrentID())
	assert.Equal(t, "idle", inspector.PreviousID())

	infos := inspector.TransitionInfo("idle")
	require.Len(t, infos, 1)
	assert.Equal(t, bsm.TransitionInfo{
		From:              "idle",
		To:                "run",
		Priority:          2,
		Fired:             1,
		GuardDescription:  "moving",
		ActionDescription: "none",
	}, infos[0])
	assert.Empty(t, inspector.TransitionInfo("missing"))
}
