package engine

import (
	"github.com/kode4food/seqexec/pkg/api"
	"github.com/kode4food/seqexec/pkg/util"
)

// CanStart reports whether a sequence may start actions that require the
// given resources. Ownership is derived from the state at the instant of
// the check: a sequence owns every resource of its current execution group
// while any action of that group is executing
func CanStart(
	st *api.EngineState, id api.SequenceID, required util.Set[api.Resource],
) bool {
	if required.IsEmpty() {
		return true
	}
	return !OwnedResources(st, id).Intersects(required)
}

// OwnedResources returns the union of resources held by the executing
// groups of every sequence other than the excluded one
func OwnedResources(
	st *api.EngineState, exclude api.SequenceID,
) util.Set[api.Resource] {
	res := util.Set[api.Resource]{}
	for id, seq := range st.Sequences {
		if id == exclude {
			continue
		}
		res.AddAll(heldResources(seq))
	}
	return res
}

func heldResources(seq *api.SequenceState) util.Set[api.Resource] {
	step := seq.CurrentStep()
	if step == nil {
		return nil
	}
	for _, ex := range step.Executions {
		if ex.IsInFlight() {
			return ex.Resources()
		}
	}
	return nil
}
