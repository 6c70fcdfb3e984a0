package engine

import (
	"errors"
	"fmt"

	"github.com/kode4food/seqexec/pkg/api"
	"github.com/kode4food/seqexec/pkg/util"
)

var ErrInvariantViolation = errors.New("engine invariant violated")

// CheckInvariants verifies the properties every reachable engine state
// must have. A failure means the reducer is broken, and the state must not
// be published
func CheckInvariants(st *api.EngineState) error {
	if err := checkQueues(st); err != nil {
		return err
	}
	return checkSequences(st)
}

func checkQueues(st *api.EngineState) error {
	seen := map[api.SequenceID]api.QueueName{}
	for _, name := range st.QueueNames() {
		q := st.Queue(name)
		if q.Running && len(q.Sequences) == 0 {
			return violation("queue %s is running but empty", name)
		}
		for _, id := range q.Sequences {
			if other, ok := seen[id]; ok {
				return violation("sequence %s queued in %s and %s",
					id, other, name)
			}
			seen[id] = name

			seq, ok := st.Sequences[id]
			if !ok {
				return violation("queue %s holds unknown sequence %s",
					name, id)
			}
			if !isQueueable(seq.Status) {
				return violation("sequence %s is %s while queued in %s",
					id, seq.Status, name)
			}
		}
	}
	return nil
}

func checkSequences(st *api.EngineState) error {
	owners := map[api.Resource]api.SequenceID{}
	for _, id := range st.SequenceIDs() {
		seq := st.Sequences[id]
		if seq.Sequence == nil || seq.ID() != id {
			return violation("sequence %s is not keyed by its id", id)
		}
		steps := seq.Sequence.Steps
		if seq.StepIndex < 0 || seq.StepIndex > len(steps) {
			return violation("sequence %s step index %d out of range",
				id, seq.StepIndex)
		}
		if err := checkInFlight(seq); err != nil {
			return err
		}
		for r := range heldResources(seq) {
			if other, ok := owners[r]; ok {
				return violation("resource %s held by %s and %s",
					r, other, id)
			}
			owners[r] = id
		}
	}
	return nil
}

func checkInFlight(seq *api.SequenceState) error {
	for si, step := range seq.Sequence.Steps {
		var groups int
		for _, ex := range step.Executions {
			if err := checkGroup(ex); err != nil {
				return violation("sequence %s step %d: %s",
					seq.ID(), si, err)
			}
			if ex.IsInFlight() {
				groups++
			}
		}
		if groups == 0 {
			continue
		}
		if si != seq.StepIndex || groups > 1 {
			return violation("sequence %s executing outside step %d",
				seq.ID(), seq.StepIndex)
		}
	}
	return nil
}

func checkGroup(ex api.Execution) error {
	res := util.Set[api.Resource]{}
	for _, a := range ex {
		if res.Contains(a.Resource) {
			return ErrSharedResource
		}
		res.Add(a.Resource)
	}
	return nil
}

func violation(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvariantViolation},
		args...)...)
}
