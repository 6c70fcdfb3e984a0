// Package status projects raw action state into display-level progress
//
// Every function here is a pure function of an execution history; nothing
// is cached, so projections are safe to recompute on every read
package status

import "github.com/kode4food/seqexec/pkg/api"

type (
	// ActionStatus is the display status of a resource or an observation
	ActionStatus string

	// StepStatus is the display status of a step
	StepStatus string

	// ResourceStatus pairs a resource with its configuration status
	ResourceStatus struct {
		Resource api.Resource `json:"resource"`
		Status   ActionStatus `json:"status"`
	}

	// ResourceStatuses is an ordered mapping of resources to statuses, in
	// canonical resource order
	ResourceStatuses []ResourceStatus
)

const (
	Pending   ActionStatus = "pending"
	Running   ActionStatus = "running"
	Paused    ActionStatus = "paused"
	Completed ActionStatus = "completed"
	Failed    ActionStatus = "failed"
)

const (
	StepPending   StepStatus = "pending"
	StepRunning   StepStatus = "running"
	StepPaused    StepStatus = "paused"
	StepCompleted StepStatus = "completed"
	StepFailed    StepStatus = "failed"
	StepSkipped   StepStatus = "skipped"
)

var actionStatuses = map[api.ActionStatus]ActionStatus{
	api.ActionPending:   Pending,
	api.ActionStarted:   Running,
	api.ActionPaused:    Paused,
	api.ActionCompleted: Completed,
	api.ActionFailed:    Failed,
}

// FromAction maps a raw action status to its display status
func FromAction(s api.ActionStatus) ActionStatus {
	if res, ok := actionStatuses[s]; ok {
		return res
	}
	return Pending
}

// ConfigStatus reports how far configuration has progressed for every
// resource configured anywhere in the executions. Groups are walked in
// order and the walk stops after the first group that is not completed, so
// resources first configured in later groups remain pending
func ConfigStatus(execs api.Executions) ResourceStatuses {
	res := PendingConfigStatus(execs)
	idx := make(map[api.Resource]int, len(res))
	for i, rs := range res {
		idx[rs.Resource] = i
	}

	for _, ex := range execs {
		for _, a := range ex {
			if a.Kind != api.ActionConfigure {
				continue
			}
			if a.State.Status == api.ActionPending {
				continue
			}
			res[idx[a.Resource]].Status = FromAction(a.State.Status)
		}
		if !ex.IsCompleted() {
			break
		}
	}
	return res
}

// PendingConfigStatus reports every resource configured anywhere in the
// executions as pending, regardless of action state
func PendingConfigStatus(execs api.Executions) ResourceStatuses {
	seen := map[api.Resource]bool{}
	var resources []api.Resource
	for _, a := range execs.Flatten() {
		if a.Kind != api.ActionConfigure || seen[a.Resource] {
			continue
		}
		seen[a.Resource] = true
		resources = append(resources, a.Resource)
	}
	api.SortResources(resources)

	res := make(ResourceStatuses, len(resources))
	for i, r := range resources {
		res[i] = ResourceStatus{Resource: r, Status: Pending}
	}
	return res
}

// ObserveStatus reports the status of the observation in the executions.
// A paused observation wins over a completed one, which wins over a
// running one; otherwise the status is pending. A failed observation is
// reported by Step
func ObserveStatus(execs api.Executions) ActionStatus {
	var completed, running bool
	for _, a := range execs.Flatten() {
		if a.Kind != api.ActionObserve {
			continue
		}
		switch a.State.Status {
		case api.ActionPaused:
			return Paused
		case api.ActionCompleted:
			completed = true
		case api.ActionStarted:
			running = true
		}
	}

	switch {
	case completed:
		return Completed
	case running:
		return Running
	default:
		return Pending
	}
}

// FileID returns the most recent file identifier allocated by an
// observation in the executions
func FileID(execs api.Executions) (string, bool) {
	var res string
	var ok bool
	for _, a := range execs.Flatten() {
		if a.Kind != api.ActionObserve {
			continue
		}
		for _, p := range a.State.Partials {
			if p.Kind == api.PartialFileID {
				res, ok = p.Value, true
			}
		}
	}
	return res, ok
}

// Get returns the status recorded for a resource
func (r ResourceStatuses) Get(res api.Resource) (ActionStatus, bool) {
	for _, rs := range r {
		if rs.Resource == res {
			return rs.Status, true
		}
	}
	return "", false
}

// Resources returns the resources in canonical order
func (r ResourceStatuses) Resources() []api.Resource {
	res := make([]api.Resource, len(r))
	for i, rs := range r {
		res[i] = rs.Resource
	}
	return res
}
