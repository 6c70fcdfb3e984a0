package status

import "github.com/kode4food/seqexec/pkg/api"

// Step reports the display status of the step at idx of a tracked sequence
func Step(st *api.SequenceState, idx int) StepStatus {
	if idx < 0 || idx >= len(st.Sequence.Steps) {
		return StepPending
	}
	step := &st.Sequence.Steps[idx]

	switch {
	case step.Skip && !step.IsStarted():
		return StepSkipped
	case step.IsCompleted():
		return StepCompleted
	}

	var running, paused bool
	for _, a := range step.Executions.Flatten() {
		switch a.State.Status {
		case api.ActionFailed:
			return StepFailed
		case api.ActionPaused:
			paused = true
		case api.ActionStarted:
			running = true
		}
	}

	switch {
	case paused:
		return StepPaused
	case running:
		return StepRunning
	case idx == st.StepIndex && st.Status == api.SequencePaused:
		return StepPaused
	default:
		return StepPending
	}
}
