package api

import (
	"slices"

	"github.com/kode4food/seqexec/pkg/util"
)

type (
	// SequenceID uniquely identifies a loaded sequence
	SequenceID string

	// SequenceStatus is the lifecycle status of a sequence
	SequenceStatus string

	// Metadata carries free-form descriptive values
	Metadata map[string]string

	// Step is an ordered list of parallel action sets. Steps are addressed
	// by their position within the sequence
	Step struct {
		Metadata   Metadata   `json:"metadata,omitempty"`
		Executions Executions `json:"executions"`
		Breakpoint bool       `json:"breakpoint,omitempty"`
		Skip       bool       `json:"skip,omitempty"`
	}

	// SequenceMetadata describes a sequence for operators
	SequenceMetadata struct {
		Instrument Resource `json:"instrument"`
		Name       string   `json:"name,omitempty"`
		Observer   string   `json:"observer,omitempty"`
		Target     string   `json:"target,omitempty"`
	}

	// Sequence is an ordered list of steps that an operator loads, queues
	// and runs
	Sequence struct {
		ID       SequenceID       `json:"id"`
		Metadata SequenceMetadata `json:"metadata"`
		Steps    []Step           `json:"steps"`
	}

	// SequenceState tracks the progress of a loaded sequence
	SequenceState struct {
		Sequence       *Sequence      `json:"sequence"`
		Status         SequenceStatus `json:"status"`
		Error          string         `json:"error,omitempty"`
		StepIndex      int            `json:"step_index"`
		Run            int            `json:"run"`
		PauseRequested bool           `json:"pause_requested,omitempty"`
		StopRequested  bool           `json:"stop_requested,omitempty"`
		PassBreakpoint bool           `json:"pass_breakpoint,omitempty"`
	}
)

const (
	SequenceIdle      SequenceStatus = "idle"
	SequenceRunning   SequenceStatus = "running"
	SequencePaused    SequenceStatus = "paused"
	SequenceStopped   SequenceStatus = "stopped"
	SequenceCompleted SequenceStatus = "completed"
	SequenceFailed    SequenceStatus = "failed"
)

// IsStarted reports whether any action of the Step has left pending
func (s *Step) IsStarted() bool {
	for _, a := range s.Executions.Flatten() {
		if a.State.Status != ActionPending {
			return true
		}
	}
	return false
}

// IsCompleted reports whether every action of the Step completed
func (s *Step) IsCompleted() bool {
	return s.Executions.Current() == -1
}

// SetExecutions returns a new Step with the executions replaced
func (s *Step) SetExecutions(e Executions) *Step {
	res := *s
	res.Executions = e
	return &res
}

// SetBreakpoint returns a new Step with the breakpoint flag set
func (s *Step) SetBreakpoint(on bool) *Step {
	res := *s
	res.Breakpoint = on
	return &res
}

// SetSkip returns a new Step with the skip flag set
func (s *Step) SetSkip(on bool) *Step {
	res := *s
	res.Skip = on
	return &res
}

// Resources returns every resource referenced by any step of the Sequence
func (s *Sequence) Resources() util.Set[Resource] {
	res := util.Set[Resource]{}
	for _, st := range s.Steps {
		res.AddAll(st.Executions.Resources())
	}
	return res
}

// SetStep returns a new Sequence with the step at idx replaced
func (s *Sequence) SetStep(idx int, step *Step) *Sequence {
	res := *s
	res.Steps = slices.Clone(s.Steps)
	res.Steps[idx] = *step
	return &res
}

// SetObserver returns a new Sequence with the observer set
func (s *Sequence) SetObserver(name string) *Sequence {
	res := *s
	res.Metadata.Observer = name
	return &res
}

// ID returns the identifier of the tracked sequence
func (st *SequenceState) ID() SequenceID {
	return st.Sequence.ID
}

// CurrentStep returns the step at the current index, or nil when the index
// has moved past the last step
func (st *SequenceState) CurrentStep() *Step {
	if st.StepIndex < 0 || st.StepIndex >= len(st.Sequence.Steps) {
		return nil
	}
	return &st.Sequence.Steps[st.StepIndex]
}

// IsInFlight reports whether any action of the current step is executing
func (st *SequenceState) IsInFlight() bool {
	step := st.CurrentStep()
	if step == nil {
		return false
	}
	for _, ex := range step.Executions {
		if ex.IsInFlight() {
			return true
		}
	}
	return false
}

// SetSequence returns a new SequenceState tracking the given sequence
func (st *SequenceState) SetSequence(s *Sequence) *SequenceState {
	res := *st
	res.Sequence = s
	return &res
}

// SetStep returns a new SequenceState with the step at idx replaced
func (st *SequenceState) SetStep(idx int, step *Step) *SequenceState {
	return st.SetSequence(st.Sequence.SetStep(idx, step))
}

// SetStatus returns a new SequenceState with the updated status
func (st *SequenceState) SetStatus(s SequenceStatus) *SequenceState {
	res := *st
	res.Status = s
	return &res
}

// SetStepIndex returns a new SequenceState positioned at the given step
func (st *SequenceState) SetStepIndex(idx int) *SequenceState {
	res := *st
	res.StepIndex = idx
	return &res
}

// SetError returns a new SequenceState with the error message set
func (st *SequenceState) SetError(err string) *SequenceState {
	res := *st
	res.Error = err
	return &res
}

// SetPauseRequested returns a new SequenceState with the user stop flag set
func (st *SequenceState) SetPauseRequested(on bool) *SequenceState {
	res := *st
	res.PauseRequested = on
	return &res
}

// SetStopRequested returns a new SequenceState with the stop flag set
func (st *SequenceState) SetStopRequested(on bool) *SequenceState {
	res := *st
	res.StopRequested = on
	return &res
}

// SetPassBreakpoint returns a new SequenceState that will or will not honor
// the breakpoint of the current step
func (st *SequenceState) SetPassBreakpoint(on bool) *SequenceState {
	res := *st
	res.PassBreakpoint = on
	return &res
}

// ClearRequests returns a new SequenceState with no pending pause or stop
func (st *SequenceState) ClearRequests() *SequenceState {
	res := *st
	res.PauseRequested = false
	res.StopRequested = false
	return &res
}
