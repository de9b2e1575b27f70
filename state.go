package bsm

// State is the capability contract every behavioral unit fulfills. A state is
// constructed independently of any machine and becomes bound exactly once, at
// registration, when the machine hands it a back-reference to itself and the
// shared context. The lifecycle hooks take no arguments; a state reads and
// writes the world through the context it was bound with.
type State[T any] interface {
	// Bind is called once by the machine during registration.
	Bind(machine *Machine[T], context T)
	Enter()
	Exit()
	Update()
	FixedUpdate()
}

/******* BaseState *******/

// BaseState is the subclassable variant: embed it in a concrete behavior and
// override the hooks you need. The bound Machine and Context fields are
// exported so embedding types can reach them.
//
//	type Patrol struct {
//		bsm.BaseState[*Blackboard]
//	}
//
//	func (p *Patrol) Update() { p.Context.SetMoving(true) }
type BaseState[T any] struct {
	Machine *Machine[T]
	Context T
}

func (s *BaseState[T]) Bind(machine *Machine[T], context T) {
	s.Machine = machine
	s.Context = context
}

func (s *BaseState[T]) Enter()       {}
func (s *BaseState[T]) Exit()        {}
func (s *BaseState[T]) Update()      {}
func (s *BaseState[T]) FixedUpdate() {}

/******* FuncState *******/

// FuncState is the closure-configured variant: four independently optional
// zero-argument callbacks plus an optional display name used purely for
// diagnostics. Construct via NewStateBuilder.
type FuncState[T any] struct {
	BaseState[T]
	name        string
	enter       func()
	exit        func()
	update      func()
	fixedUpdate func()
}

// Name returns the diagnostic display name, which may be empty.
func (s *FuncState[T]) Name() string {
	return s.name
}

func (s *FuncState[T]) Enter() {
	if s.enter != nil {
		s.enter()
	}
}

func (s *FuncState[T]) Exit() {
	if s.exit != nil {
		s.exit()
	}
}

func (s *FuncState[T]) Update() {
	if s.update != nil {
		s.update()
	}
}

func (s *FuncState[T]) FixedUpdate() {
	if s.fixedUpdate != nil {
		s.fixedUpdate()
	}
}

/******* StateBuilder *******/

// StateBuilder accumulates the callbacks and name for a FuncState. The
// builder keeps its fields after Build: calling Build again after further
// configuration produces another instance reflecting the latest state of the
// builder, not a fresh one. Callers wanting independent defaults per state
// must use one builder per state.
type StateBuilder[T any] struct {
	name        string
	enter       func()
	exit        func()
	update      func()
	fixedUpdate func()
}

func NewStateBuilder[T any]() *StateBuilder[T] {
	return &StateBuilder[T]{}
}

// Named sets the diagnostic display name.
func (b *StateBuilder[T]) Named(name string) *StateBuilder[T] {
	b.name = name
	return b
}

func (b *StateBuilder[T]) OnEnter(fn func()) *StateBuilder[T] {
	b.enter = fn
	return b
}

func (b *StateBuilder[T]) OnExit(fn func()) *StateBuilder[T] {
	b.exit = fn
	return b
}

func (b *StateBuilder[T]) OnUpdate(fn func()) *StateBuilder[T] {
	b.update = fn
	return b
}

func (b *StateBuilder[T]) OnFixedUpdate(fn func()) *StateBuilder[T] {
	b.fixedUpdate = fn
	return b
}

// Build produces a new FuncState from the builder's current configuration.
func (b *StateBuilder[T]) Build() *FuncState[T] {
	return &FuncState[T]{
		name:        b.name,
		enter:       b.enter,
		exit:        b.exit,
		update:      b.update,
		fixedUpdate: b.fixedUpdate,
	}
}
