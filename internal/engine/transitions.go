package engine

import (
	"github.com/kode4food/seqexec/pkg/api"
	"github.com/kode4food/seqexec/pkg/util"
)

// StateTransitions maps states to their set of valid next states
//
// Generic state transition tables are used to validate sequence and action
// status changes
type StateTransitions[T comparable] map[T]util.Set[T]

var (
	sequenceTransitions = StateTransitions[api.SequenceStatus]{
		api.SequenceIdle: util.SetOf(
			api.SequenceRunning,
		),
		api.SequenceRunning: util.SetOf(
			api.SequencePaused,
			api.SequenceStopped,
			api.SequenceCompleted,
			api.SequenceFailed,
		),
		api.SequencePaused: util.SetOf(
			api.SequenceRunning,
			api.SequenceStopped,
		),
		api.SequenceStopped: util.SetOf(
			api.SequenceRunning,
		),
		api.SequenceFailed: util.SetOf(
			api.SequenceRunning,
		),
		api.SequenceCompleted: {},
	}

	actionTransitions = StateTransitions[api.ActionStatus]{
		api.ActionPending: util.SetOf(
			api.ActionStarted,
		),
		api.ActionStarted: util.SetOf(
			api.ActionPaused,
			api.ActionCompleted,
			api.ActionFailed,
		),
		api.ActionPaused: util.SetOf(
			api.ActionStarted,
			api.ActionCompleted,
			api.ActionFailed,
		),
		api.ActionFailed: util.SetOf(
			api.ActionPending,
		),
		api.ActionCompleted: {},
	}
)

// CanTransition returns whether transition from one state to another is valid
func (t StateTransitions[T]) CanTransition(from, to T) bool {
	allowed, ok := t[from]
	if !ok {
		return false
	}
	return allowed.Contains(to)
}

// IsTerminal returns true if the state has no valid transitions
func (t StateTransitions[T]) IsTerminal(state T) bool {
	allowed, ok := t[state]
	return ok && allowed.IsEmpty()
}
