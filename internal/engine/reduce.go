package engine

import "github.com/kode4food/seqexec/pkg/api"

type (
	// Effect describes work the runtime performs after a reduction. Effects
	// never describe state changes; those are carried by the new state
	Effect interface {
		isEffect()
	}

	// StartAction asks the runtime to perform an action that the reduction
	// marked Started. Work is the action as it was started, while the
	// embedded coordinates locate it
	StartAction struct {
		api.ActionCoord
		Work       api.Action
		Instrument api.Resource
	}

	reducer struct {
		st      *api.EngineState
		effects []Effect
	}
)

func (StartAction) isEffect() {}

// Reduce applies one event to an engine state, returning the next state
// and the effects the runtime must perform. It is a pure function of its
// arguments: the input state is never modified, and invalid commands
// return the input state unchanged
func Reduce(st *api.EngineState, ev api.Event) (*api.EngineState, []Effect) {
	r := &reducer{st: st}
	r.apply(ev)
	r.reschedule()
	return r.st, r.effects
}

func (r *reducer) apply(ev api.Event) {
	switch ev := ev.(type) {
	case api.LoadSequenceEvent:
		r.load(ev.Sequence)
	case api.UnloadSequenceEvent:
		r.unload(ev.SequenceID)
	case api.StartEvent:
		r.start(ev.SequenceID)
	case api.PauseEvent:
		r.pause(ev.SequenceID)
	case api.CancelPauseEvent:
		r.cancelPause(ev.SequenceID)
	case api.ContinueEvent:
		r.resume(ev.SequenceID)
	case api.StopEvent:
		r.stop(ev.SequenceID)
	case api.RetryEvent:
		r.retry(ev.SequenceID)
	case api.SetBreakpointEvent:
		r.editStep(ev.SequenceID, ev.Step, func(s *api.Step) *api.Step {
			return s.SetBreakpoint(ev.Set)
		})
	case api.SetSkipMarkEvent:
		r.editStep(ev.SequenceID, ev.Step, func(s *api.Step) *api.Step {
			return s.SetSkip(ev.Set)
		})
	case api.SetObserverEvent:
		r.setObserver(ev.SequenceID, ev.Observer)
	case api.SetOperatorEvent:
		r.st = r.st.SetOperator(ev.Operator)
	case api.SetConditionEvent:
		if c, ok := r.st.Metadata.Conditions.Set(ev.Kind, ev.Value); ok {
			r.st = r.st.SetConditions(c)
		}
	case api.AddSequenceToQueueEvent:
		r.st = AddToQueue(r.st, ev.Queue, ev.SequenceID)
	case api.RemoveSequenceFromQueueEvent:
		r.st = RemoveFromQueue(r.st, ev.Queue, ev.SequenceID)
	case api.MoveSequenceInQueueEvent:
		r.st = MoveInQueue(r.st, ev.Queue, ev.SequenceID, ev.Delta)
	case api.ClearQueueEvent:
		r.st = ClearQueue(r.st, ev.Queue)
	case api.StartQueueEvent:
		r.st = StartQueue(r.st, ev.Queue)
	case api.StopQueueEvent:
		r.st = StopQueue(r.st, ev.Queue)
	case api.ActionStartedEvent:
		r.actionStarted(ev.ActionCoord)
	case api.ActionPartialResultEvent:
		r.actionPartial(ev.ActionCoord, ev.Partial)
	case api.ActionPausedEvent:
		r.actionPaused(ev.ActionCoord, ev.Context)
	case api.ActionResumedEvent:
		r.actionResumed(ev.ActionCoord)
	case api.ActionCompletedEvent:
		r.actionCompleted(ev.ActionCoord, ev.Result)
	case api.ActionFailedEvent:
		r.actionFailed(ev.ActionCoord, ev.Error)
	}
}

// reschedule advances every Running sequence as far as it can go, then
// promotes queued sequences until no further promotion is possible
func (r *reducer) reschedule() {
	for {
		for _, id := range r.st.SequenceIDs() {
			r.advance(id)
		}
		if !r.promote() {
			r.stopIdleQueues()
			return
		}
	}
}

func (r *reducer) promote() bool {
	var promoted bool
	for _, name := range r.st.QueueNames() {
		for _, id := range promotable(r.st, name) {
			r.start(id)
			promoted = true
		}
	}
	return promoted
}

func (r *reducer) stopIdleQueues() {
	for _, name := range r.st.QueueNames() {
		q := r.st.Queue(name)
		if q.Running && len(q.Sequences) == 0 {
			r.st = r.st.SetQueue(name, q.SetRunning(false))
		}
	}
}

func (r *reducer) sequence(id api.SequenceID) (*api.SequenceState, bool) {
	seq, ok := r.st.Sequences[id]
	return seq, ok
}

func (r *reducer) setSequence(seq *api.SequenceState) {
	r.st = r.st.SetSequence(seq.ID(), seq)
}

func (r *reducer) emit(eff Effect) {
	r.effects = append(r.effects, eff)
}
