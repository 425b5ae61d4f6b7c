package transfer

import (
	"fmt"
	"slices"
)

type StateTransition[S ~string] struct {
	From S
	To   S
}

// StateMachine tracks the current state of one entity and refuses the transitions that were not declared.
type StateMachine[S ~string] struct {
	current     S
	declared    []StateTransition[S]
	transitions map[S][]S
}

func NewStateMachine[S ~string](initialState S, transitions []StateTransition[S]) *StateMachine[S] {
	sm := &StateMachine[S]{
		current:     initialState,
		declared:    transitions,
		transitions: make(map[S][]S, len(transitions)),
	}

	for _, t := range transitions {
		sm.transitions[t.From] = append(sm.transitions[t.From], t.To)
	}

	return sm
}

func (sm *StateMachine[S]) Current() S {
	return sm.current
}

func (sm *StateMachine[S]) CanTransitionTo(targetState S) bool {
	return slices.Contains(sm.transitions[sm.current], targetState)
}

func (sm *StateMachine[S]) TransitionTo(targetState S) error {
	if !sm.CanTransitionTo(targetState) {
		return fmt.Errorf("cannot transition from %s to %s", sm.current, targetState)
	}
	sm.current = targetState
	return nil
}

// Sources returns the states from which targetState can be reached, in declaration order.
func (sm *StateMachine[S]) Sources(targetState S) []S {
	sources := []S{}
	for _, t := range sm.declared {
		if t.To == targetState && !slices.Contains(sources, t.From) {
			sources = append(sources, t.From)
		}
	}
	return sources
}
