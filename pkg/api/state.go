package api

import (
	"maps"
	"slices"
)

type (
	// QueueName is a caller-supplied execution queue key
	QueueName string

	// ExecutionQueue is an ordered list of sequences awaiting promotion
	ExecutionQueue struct {
		Sequences []SequenceID `json:"sequences"`
		Running   bool         `json:"running,omitempty"`
	}

	// EngineMetadata is the global data shared by all sequences
	EngineMetadata struct {
		Queues     map[QueueName]*ExecutionQueue `json:"queues"`
		Operator   string                        `json:"operator,omitempty"`
		Conditions Conditions                    `json:"conditions"`
	}

	// EngineState is the full snapshot of every loaded sequence and the
	// global metadata. Values are never modified in place; every change
	// produces a new EngineState
	EngineState struct {
		Sequences map[SequenceID]*SequenceState `json:"sequences"`
		Metadata  EngineMetadata                `json:"metadata"`
	}
)

// NewEngineState returns an empty engine state with default conditions
func NewEngineState() *EngineState {
	return &EngineState{
		Sequences: map[SequenceID]*SequenceState{},
		Metadata: EngineMetadata{
			Queues:     map[QueueName]*ExecutionQueue{},
			Conditions: DefaultConditions(),
		},
	}
}

// SequenceIDs returns the loaded sequence IDs in sorted order
func (st *EngineState) SequenceIDs() []SequenceID {
	return slices.Sorted(maps.Keys(st.Sequences))
}

// QueueNames returns the queue names in sorted order
func (st *EngineState) QueueNames() []QueueName {
	return slices.Sorted(maps.Keys(st.Metadata.Queues))
}

// Queue returns the named queue, or nil if it does not exist
func (st *EngineState) Queue(name QueueName) *ExecutionQueue {
	return st.Metadata.Queues[name]
}

// QueueOf returns the name of the queue holding the sequence
func (st *EngineState) QueueOf(id SequenceID) (QueueName, bool) {
	for name, q := range st.Metadata.Queues {
		if q.Contains(id) {
			return name, true
		}
	}
	return "", false
}

// SetSequence returns a new EngineState with the sequence state replaced
func (st *EngineState) SetSequence(
	id SequenceID, seq *SequenceState,
) *EngineState {
	res := *st
	res.Sequences = maps.Clone(st.Sequences)
	if res.Sequences == nil {
		res.Sequences = map[SequenceID]*SequenceState{}
	}
	res.Sequences[id] = seq
	return &res
}

// DeleteSequence returns a new EngineState without the sequence
func (st *EngineState) DeleteSequence(id SequenceID) *EngineState {
	res := *st
	res.Sequences = maps.Clone(st.Sequences)
	delete(res.Sequences, id)
	return &res
}

// SetOperator returns a new EngineState with the active operator set
func (st *EngineState) SetOperator(name string) *EngineState {
	res := *st
	res.Metadata.Operator = name
	return &res
}

// SetConditions returns a new EngineState with the conditions replaced
func (st *EngineState) SetConditions(c Conditions) *EngineState {
	res := *st
	res.Metadata.Conditions = c
	return &res
}

// SetQueue returns a new EngineState with the named queue replaced
func (st *EngineState) SetQueue(
	name QueueName, q *ExecutionQueue,
) *EngineState {
	res := *st
	res.Metadata.Queues = maps.Clone(st.Metadata.Queues)
	if res.Metadata.Queues == nil {
		res.Metadata.Queues = map[QueueName]*ExecutionQueue{}
	}
	res.Metadata.Queues[name] = q
	return &res
}

// Contains reports whether the sequence is in the queue
func (q *ExecutionQueue) Contains(id SequenceID) bool {
	return slices.Contains(q.Sequences, id)
}

// IndexOf returns the position of the sequence in the queue, or -1
func (q *ExecutionQueue) IndexOf(id SequenceID) int {
	return slices.Index(q.Sequences, id)
}

// SetSequences returns a new ExecutionQueue with the given order
func (q *ExecutionQueue) SetSequences(ids []SequenceID) *ExecutionQueue {
	res := *q
	res.Sequences = ids
	return &res
}

// SetRunning returns a new ExecutionQueue with the running flag set
func (q *ExecutionQueue) SetRunning(on bool) *ExecutionQueue {
	res := *q
	res.Running = on
	return &res
}
