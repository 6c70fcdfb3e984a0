package engine

import (
	"slices"

	"github.com/kode4food/seqexec/pkg/api"
	"github.com/kode4food/seqexec/pkg/util"
)

// AddToQueue appends a sequence to the named queue, creating the queue if
// needed. Unknown, Running or Completed sequences, and sequences already
// held by any queue, leave the state unchanged
func AddToQueue(
	st *api.EngineState, name api.QueueName, id api.SequenceID,
) *api.EngineState {
	seq, ok := st.Sequences[id]
	if !ok || !isQueueable(seq.Status) {
		return st
	}
	if _, queued := st.QueueOf(id); queued {
		return st
	}
	q := st.Queue(name)
	if q == nil {
		q = &api.ExecutionQueue{}
	}
	ids := append(slices.Clip(q.Sequences), id)
	return st.SetQueue(name, q.SetSequences(ids))
}

// RemoveFromQueue removes a sequence from the named queue if it is present
// and not Running
func RemoveFromQueue(
	st *api.EngineState, name api.QueueName, id api.SequenceID,
) *api.EngineState {
	q := st.Queue(name)
	if q == nil {
		return st
	}
	idx := q.IndexOf(id)
	if idx < 0 {
		return st
	}
	if seq, ok := st.Sequences[id]; ok && seq.Status == api.SequenceRunning {
		return st
	}
	return st.SetQueue(name, q.SetSequences(slices.Delete(
		slices.Clone(q.Sequences), idx, idx+1,
	)))
}

// MoveInQueue shifts a sequence by delta positions within the named queue.
// The target position is clamped to the bounds of the queue
func MoveInQueue(
	st *api.EngineState, name api.QueueName, id api.SequenceID, delta int,
) *api.EngineState {
	q := st.Queue(name)
	if q == nil {
		return st
	}
	from := q.IndexOf(id)
	if from < 0 {
		return st
	}
	to := from + max(min(delta, len(q.Sequences)-1-from), -from)
	if to == from {
		return st
	}
	ids := slices.Delete(slices.Clone(q.Sequences), from, from+1)
	ids = slices.Insert(ids, to, id)
	return st.SetQueue(name, q.SetSequences(ids))
}

// ClearQueue removes every sequence from the named queue and stops it
func ClearQueue(st *api.EngineState, name api.QueueName) *api.EngineState {
	q := st.Queue(name)
	if q == nil || (len(q.Sequences) == 0 && !q.Running) {
		return st
	}
	return st.SetQueue(name, &api.ExecutionQueue{})
}

// StartQueue marks a non-empty queue as running, making its sequences
// eligible for promotion
func StartQueue(st *api.EngineState, name api.QueueName) *api.EngineState {
	q := st.Queue(name)
	if q == nil || q.Running || len(q.Sequences) == 0 {
		return st
	}
	return st.SetQueue(name, q.SetRunning(true))
}

// StopQueue stops promoting the sequences of a queue. Sequences that were
// already promoted keep running
func StopQueue(st *api.EngineState, name api.QueueName) *api.EngineState {
	q := st.Queue(name)
	if q == nil || !q.Running {
		return st
	}
	return st.SetQueue(name, q.SetRunning(false))
}

// dequeue removes a sequence from whichever queue holds it
func dequeue(st *api.EngineState, id api.SequenceID) *api.EngineState {
	name, ok := st.QueueOf(id)
	if !ok {
		return st
	}
	q := st.Queue(name)
	idx := q.IndexOf(id)
	return st.SetQueue(name, q.SetSequences(slices.Delete(
		slices.Clone(q.Sequences), idx, idx+1,
	)))
}

// promotable returns the sequences of a running queue that may start now.
// A sequence is promotable when its full resource set is disjoint from
// every Running sequence and from every sequence ahead of it in the queue
// that cannot start
func promotable(st *api.EngineState, name api.QueueName) []api.SequenceID {
	q := st.Queue(name)
	if q == nil || !q.Running {
		return nil
	}

	busy := util.Set[api.Resource]{}
	for _, seq := range st.Sequences {
		if seq.Status == api.SequenceRunning {
			busy.AddAll(seq.Sequence.Resources())
		}
	}

	var res []api.SequenceID
	for _, id := range q.Sequences {
		seq, ok := st.Sequences[id]
		if !ok {
			continue
		}
		required := seq.Sequence.Resources()
		if isStartable(seq.Status) && !required.Intersects(busy) {
			res = append(res, id)
		}
		busy.AddAll(required)
	}
	return res
}

func isQueueable(s api.SequenceStatus) bool {
	return s != api.SequenceRunning && s != api.SequenceCompleted
}

func isStartable(s api.SequenceStatus) bool {
	return s == api.SequenceIdle || s == api.SequenceStopped
}
