package engine

import (
	"slices"

	"github.com/kode4food/seqexec/pkg/api"
)

func (r *reducer) load(seq *api.Sequence) {
	if ValidateSequence(seq) != nil {
		return
	}
	run := 1
	if prev, ok := r.sequence(seq.ID); ok {
		if prev.Status == api.SequenceRunning || prev.IsInFlight() {
			return
		}
		run = prev.Run + 1
	}

	loaded := prepareSequence(seq)
	r.setSequence(&api.SequenceState{
		Sequence:  loaded,
		Status:    api.SequenceIdle,
		StepIndex: firstIncompleteStep(loaded),
		Run:       run,
	})
}

func (r *reducer) unload(id api.SequenceID) {
	seq, ok := r.sequence(id)
	if !ok || seq.Status == api.SequenceRunning || seq.IsInFlight() {
		return
	}
	r.st = dequeue(r.st, id).DeleteSequence(id)
}

func (r *reducer) start(id api.SequenceID) {
	seq, ok := r.sequence(id)
	if !ok || !isStartable(seq.Status) {
		return
	}
	step := seq.CurrentStep()
	r.st = dequeue(r.st, id)
	r.setSequence(seq.
		SetStatus(api.SequenceRunning).
		SetError("").
		ClearRequests().
		SetPassBreakpoint(step != nil && !step.IsStarted()),
	)
}

func (r *reducer) pause(id api.SequenceID) {
	seq, ok := r.sequence(id)
	if !ok || seq.Status != api.SequenceRunning || seq.PauseRequested {
		return
	}
	r.setSequence(seq.SetPauseRequested(true))
}

func (r *reducer) cancelPause(id api.SequenceID) {
	seq, ok := r.sequence(id)
	if !ok || seq.Status != api.SequenceRunning || !seq.PauseRequested {
		return
	}
	r.setSequence(seq.SetPauseRequested(false))
}

func (r *reducer) resume(id api.SequenceID) {
	seq, ok := r.sequence(id)
	if !ok || seq.Status != api.SequencePaused {
		return
	}
	r.setSequence(seq.
		SetStatus(api.SequenceRunning).
		ClearRequests().
		SetPassBreakpoint(true),
	)
}

func (r *reducer) stop(id api.SequenceID) {
	seq, ok := r.sequence(id)
	if !ok ||
		!sequenceTransitions.CanTransition(seq.Status, api.SequenceStopped) {
		return
	}
	switch seq.Status {
	case api.SequencePaused:
		r.setSequence(seq.SetStatus(api.SequenceStopped).ClearRequests())
	case api.SequenceRunning:
		if !seq.StopRequested {
			r.setSequence(seq.SetStopRequested(true))
		}
	}
}

func (r *reducer) retry(id api.SequenceID) {
	seq, ok := r.sequence(id)
	if !ok || seq.Status != api.SequenceFailed {
		return
	}
	res := seq.SetStatus(api.SequenceRunning).SetError("").ClearRequests()
	if step := seq.CurrentStep(); step != nil {
		if g := step.Executions.Current(); g >= 0 {
			execs := step.Executions.MapExecution(g,
				func(a api.Action) api.Action {
					if a.State.Status == api.ActionFailed {
						return a.Reset()
					}
					return a
				},
			)
			res = res.SetStep(res.StepIndex, step.SetExecutions(execs))
		}
	}
	r.setSequence(res)
}

func (r *reducer) editStep(
	id api.SequenceID, idx int, fn func(*api.Step) *api.Step,
) {
	seq, ok := r.sequence(id)
	if !ok || idx < 0 || idx >= len(seq.Sequence.Steps) {
		return
	}
	step := &seq.Sequence.Steps[idx]
	if step.IsStarted() {
		return
	}
	r.setSequence(seq.SetStep(idx, fn(step)))
}

func (r *reducer) setObserver(id api.SequenceID, name string) {
	seq, ok := r.sequence(id)
	if !ok || seq.Sequence.Metadata.Observer == name {
		return
	}
	r.setSequence(seq.SetSequence(seq.Sequence.SetObserver(name)))
}

// advance moves a Running sequence forward until it has to wait for an
// action, a resource, or an operator
func (r *reducer) advance(id api.SequenceID) {
	for {
		seq, ok := r.sequence(id)
		if !ok || seq.Status != api.SequenceRunning {
			return
		}
		next, ok := r.nextState(seq)
		if !ok {
			return
		}
		r.setSequence(next)
	}
}

func (r *reducer) nextState(
	seq *api.SequenceState,
) (*api.SequenceState, bool) {
	step := seq.CurrentStep()
	if step == nil {
		return seq.
			SetStatus(api.SequenceCompleted).
			ClearRequests().
			SetPassBreakpoint(false), true
	}
	if step.IsCompleted() || (step.Skip && !step.IsStarted()) {
		return seq.
			SetStepIndex(seq.StepIndex + 1).
			SetPassBreakpoint(false), true
	}

	g := step.Executions.Current()
	group := step.Executions[g]
	switch {
	case group.IsInFlight():
		return nil, false
	case group.HasStatus(api.ActionFailed):
		return seq.SetStatus(api.SequenceFailed).ClearRequests(), true
	case seq.StopRequested:
		return seq.SetStatus(api.SequenceStopped).ClearRequests(), true
	case g == 0 && !step.IsStarted() && step.Breakpoint &&
		!seq.PassBreakpoint:
		return seq.SetStatus(api.SequencePaused).ClearRequests(), true
	case seq.PauseRequested:
		return seq.SetStatus(api.SequencePaused).ClearRequests(), true
	}
	return r.startGroup(seq, step, g)
}

func (r *reducer) startGroup(
	seq *api.SequenceState, step *api.Step, g int,
) (*api.SequenceState, bool) {
	group := step.Executions[g]
	var pending []int
	for i, a := range group {
		if a.State.Status == api.ActionPending {
			pending = append(pending, i)
		}
	}
	if len(pending) == 0 {
		return nil, false
	}

	if !CanStart(r.st, seq.ID(), group.Resources()) {
		return nil, false
	}

	execs := step.Executions.MapExecution(g, func(a api.Action) api.Action {
		if a.State.Status == api.ActionPending {
			return a.SetStatus(api.ActionStarted)
		}
		return a
	})
	for _, i := range pending {
		r.emit(StartAction{
			ActionCoord: api.ActionCoord{
				SequenceID: seq.ID(),
				Run:        seq.Run,
				Step:       seq.StepIndex,
				Group:      g,
				Action:     i,
			},
			Work:       execs[g][i],
			Instrument: seq.Sequence.Metadata.Instrument,
		})
	}
	return seq.SetStep(seq.StepIndex, step.SetExecutions(execs)), true
}

// prepareSequence copies a sequence for installation, returning every
// action that has not completed to Pending
func prepareSequence(seq *api.Sequence) *api.Sequence {
	res := *seq
	res.Steps = make([]api.Step, len(seq.Steps))
	for si, step := range seq.Steps {
		execs := make(api.Executions, len(step.Executions))
		for gi, ex := range step.Executions {
			group := slices.Clone(ex)
			for ai, a := range group {
				if a.State.Status != api.ActionCompleted {
					group[ai] = a.Reset()
				}
			}
			execs[gi] = group
		}
		res.Steps[si] = *step.SetExecutions(execs)
	}
	return &res
}

func firstIncompleteStep(seq *api.Sequence) int {
	for i := range seq.Steps {
		if !seq.Steps[i].IsCompleted() {
			return i
		}
	}
	return len(seq.Steps)
}
