package statemachine

import (
	"sync"
)

// StateFn is a state in Rob Pike's state-function pattern: executing the
// state returns the next state, or nil to terminate.
type StateFn[T any] func(*T) StateFn[T]

// StateMachine drives an entity through StateFn transitions. It is safe for
// concurrent use, though callers that mutate the entity inside state
// functions must provide their own serialization.
type StateMachine[T any] struct {
	entity  *T
	stateFn StateFn[T]
	mu      sync.RWMutex
}

// New creates a state machine positioned at initial.
func New[T any](entity *T, initial StateFn[T]) *StateMachine[T] {
	return &StateMachine[T]{
		entity:  entity,
		stateFn: initial,
	}
}

// Dispatch moves the machine to stateFn, executes it once, and stores the
// state it returns. A nil stateFn terminates the machine.
func (sm *StateMachine[T]) Dispatch(stateFn StateFn[T]) {
	sm.mu.Lock()
	sm.stateFn = stateFn
	sm.mu.Unlock()

	if stateFn == nil {
		return
	}

	next := stateFn(sm.entity)

	sm.mu.Lock()
	sm.stateFn = next
	sm.mu.Unlock()
}

// Step executes the current state function once.
func (sm *StateMachine[T]) Step() {
	sm.Dispatch(sm.Current())
}

// Current returns the current state function. A nil return means the
// machine has terminated.
func (sm *StateMachine[T]) Current() StateFn[T] {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.stateFn
}

// SetState repositions the machine without executing anything.
func (sm *StateMachine[T]) SetState(stateFn StateFn[T]) {
	sm.mu.Lock()
	sm.stateFn = stateFn
	sm.mu.Unlock()
}
