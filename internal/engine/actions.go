package engine

import "github.com/kode4food/seqexec/pkg/api"

type actionRef struct {
	seq   *api.SequenceState
	step  *api.Step
	coord api.ActionCoord
	act   api.Action
}

// actionStarted accepts the executor's confirmation. Actions are already
// marked Started by the reduction that emitted them
func (r *reducer) actionStarted(api.ActionCoord) {}

func (r *reducer) actionPartial(c api.ActionCoord, p api.PartialResult) {
	ref, ok := r.action(c)
	if !ok || !ref.act.State.Status.IsInFlight() {
		return
	}
	r.setAction(ref, ref.act.AddPartial(p))
}

func (r *reducer) actionPaused(c api.ActionCoord, ctx string) {
	ref, ok := r.action(c)
	if !ok || !r.canTransition(ref, api.ActionPaused) {
		return
	}
	r.setAction(ref, ref.act.SetStatus(api.ActionPaused).SetContext(ctx))
}

func (r *reducer) actionResumed(c api.ActionCoord) {
	ref, ok := r.action(c)
	if !ok || ref.act.State.Status != api.ActionPaused {
		return
	}
	r.setAction(ref, ref.act.SetStatus(api.ActionStarted).SetContext(""))
}

func (r *reducer) actionCompleted(c api.ActionCoord, res api.Args) {
	ref, ok := r.action(c)
	if !ok || !r.canTransition(ref, api.ActionCompleted) {
		return
	}
	r.setAction(ref, ref.act.
		SetStatus(api.ActionCompleted).
		SetContext("").
		SetResult(res),
	)
}

func (r *reducer) actionFailed(c api.ActionCoord, msg string) {
	ref, ok := r.action(c)
	if !ok || !r.canTransition(ref, api.ActionFailed) {
		return
	}
	r.setAction(ref, ref.act.
		SetStatus(api.ActionFailed).
		SetContext("").
		SetError(msg),
	)

	seq, _ := r.sequence(c.SequenceID)
	if seq.Status == api.SequenceRunning {
		r.setSequence(seq.
			SetStatus(api.SequenceFailed).
			SetError(msg).
			ClearRequests(),
		)
	}
}

// action resolves the coordinates of an executor report. Reports from an
// earlier load of the sequence, or for positions that do not exist, do not
// resolve
func (r *reducer) action(c api.ActionCoord) (*actionRef, bool) {
	seq, ok := r.sequence(c.SequenceID)
	if !ok || seq.Run != c.Run {
		return nil, false
	}
	steps := seq.Sequence.Steps
	if c.Step < 0 || c.Step >= len(steps) {
		return nil, false
	}
	step := &steps[c.Step]
	if c.Group < 0 || c.Group >= len(step.Executions) {
		return nil, false
	}
	group := step.Executions[c.Group]
	if c.Action < 0 || c.Action >= len(group) {
		return nil, false
	}
	return &actionRef{
		seq:   seq,
		step:  step,
		coord: c,
		act:   group[c.Action],
	}, true
}

func (r *reducer) canTransition(ref *actionRef, to api.ActionStatus) bool {
	return actionTransitions.CanTransition(ref.act.State.Status, to)
}

func (r *reducer) setAction(ref *actionRef, a api.Action) {
	c := ref.coord
	execs := ref.step.Executions.SetAction(c.Group, c.Action, a)
	r.setSequence(ref.seq.SetStep(c.Step, ref.step.SetExecutions(execs)))
}
