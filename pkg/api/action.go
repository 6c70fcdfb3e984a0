package api

import (
	"maps"
	"slices"

	"github.com/kode4food/seqexec/pkg/util"
)

type (
	// ActionKind identifies what an action does
	ActionKind string

	// ActionStatus is the raw execution state of a single action
	ActionStatus string

	// PartialKind identifies the kind of a partial result
	PartialKind string

	// Args carries the named values produced by a completed action
	Args map[string]any

	// Action is the smallest unit of executable work. Configure actions
	// name the resource they configure; Observe actions name the
	// instrument that takes the exposure
	Action struct {
		Kind     ActionKind  `json:"kind"`
		Resource Resource    `json:"resource"`
		State    ActionState `json:"state"`
	}

	// ActionState is the replaceable execution state of an action
	ActionState struct {
		Status   ActionStatus    `json:"status"`
		Partials []PartialResult `json:"partials,omitempty"`
		Result   Args            `json:"result,omitempty"`
		Context  string          `json:"context,omitempty"`
		Error    string          `json:"error,omitempty"`
	}

	// PartialResult is a value signaled by an action before it completes
	PartialResult struct {
		Kind  PartialKind `json:"kind"`
		Value string      `json:"value"`
	}

	// Execution is a set of actions that run in parallel. Its actions
	// reference disjoint resources
	Execution []Action

	// Executions is the ordered list of parallel sets making up a step
	Executions []Execution
)

const (
	ActionConfigure ActionKind = "configure"
	ActionObserve   ActionKind = "observe"
)

const (
	ActionPending   ActionStatus = "pending"
	ActionStarted   ActionStatus = "started"
	ActionPaused    ActionStatus = "paused"
	ActionCompleted ActionStatus = "completed"
	ActionFailed    ActionStatus = "failed"
)

const (
	PartialFileID   PartialKind = "file_id"
	PartialProgress PartialKind = "progress"
)

// Configure returns a pending action configuring the given resource
func Configure(r Resource) Action {
	return Action{
		Kind:     ActionConfigure,
		Resource: r,
		State:    ActionState{Status: ActionPending},
	}
}

// Observe returns a pending observe action on the given instrument
func Observe(instrument Resource) Action {
	return Action{
		Kind:     ActionObserve,
		Resource: instrument,
		State:    ActionState{Status: ActionPending},
	}
}

// IsInFlight reports whether the action is executing (started or paused)
func (s ActionStatus) IsInFlight() bool {
	return s == ActionStarted || s == ActionPaused
}

// IsTerminal reports whether the action has completed or failed
func (s ActionStatus) IsTerminal() bool {
	return s == ActionCompleted || s == ActionFailed
}

// SetStatus returns a copy of the Action with the updated status
func (a Action) SetStatus(s ActionStatus) Action {
	a.State.Status = s
	return a
}

// SetContext returns a copy of the Action with the pause context set
func (a Action) SetContext(ctx string) Action {
	a.State.Context = ctx
	return a
}

// SetResult returns a copy of the Action with the completion result set
func (a Action) SetResult(res Args) Action {
	a.State.Result = maps.Clone(res)
	return a
}

// SetError returns a copy of the Action with the error message set
func (a Action) SetError(err string) Action {
	a.State.Error = err
	return a
}

// AddPartial returns a copy of the Action with a partial result appended
func (a Action) AddPartial(p PartialResult) Action {
	a.State.Partials = append(slices.Clip(a.State.Partials), p)
	return a
}

// Reset returns a copy of the Action back in the pending state
func (a Action) Reset() Action {
	a.State = ActionState{Status: ActionPending}
	return a
}

// Resources returns the set of resources referenced by the Execution
func (e Execution) Resources() util.Set[Resource] {
	res := make(util.Set[Resource], len(e))
	for _, a := range e {
		res.Add(a.Resource)
	}
	return res
}

// IsCompleted reports whether every action in the Execution completed
func (e Execution) IsCompleted() bool {
	for _, a := range e {
		if a.State.Status != ActionCompleted {
			return false
		}
	}
	return true
}

// HasStatus reports whether any action in the Execution has the status
func (e Execution) HasStatus(s ActionStatus) bool {
	for _, a := range e {
		if a.State.Status == s {
			return true
		}
	}
	return false
}

// IsInFlight reports whether any action in the Execution is executing
func (e Execution) IsInFlight() bool {
	for _, a := range e {
		if a.State.Status.IsInFlight() {
			return true
		}
	}
	return false
}

// Current returns the index of the first Execution that is not completed,
// or -1 if all of them are
func (e Executions) Current() int {
	for i, ex := range e {
		if !ex.IsCompleted() {
			return i
		}
	}
	return -1
}

// Flatten returns every action of the Executions in order
func (e Executions) Flatten() []Action {
	var res []Action
	for _, ex := range e {
		res = append(res, ex...)
	}
	return res
}

// Resources returns the set of resources referenced by any action
func (e Executions) Resources() util.Set[Resource] {
	res := util.Set[Resource]{}
	for _, ex := range e {
		res.AddAll(ex.Resources())
	}
	return res
}

// SetAction returns a copy of the Executions with one action replaced
func (e Executions) SetAction(group, idx int, a Action) Executions {
	res := slices.Clone(e)
	res[group] = slices.Clone(e[group])
	res[group][idx] = a
	return res
}

// MapExecution returns a copy of the Executions with one group rewritten
// action by action
func (e Executions) MapExecution(group int, fn func(Action) Action) Executions {
	res := slices.Clone(e)
	ex := make(Execution, len(e[group]))
	for i, a := range e[group] {
		ex[i] = fn(a)
	}
	res[group] = ex
	return res
}
