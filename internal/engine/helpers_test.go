package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kode4food/seqexec/internal/engine"
	"github.com/kode4food/seqexec/pkg/api"
)

func sequence(id api.SequenceID, steps ...api.Step) *api.Sequence {
	return &api.Sequence{
		ID: id,
		Metadata: api.SequenceMetadata{
			Instrument: api.ResourceGmosN,
			Name:       string(id),
		},
		Steps: steps,
	}
}

func step(groups ...api.Execution) api.Step {
	return api.Step{Executions: groups}
}

func group(actions ...api.Action) api.Execution {
	return actions
}

func configure(resources ...api.Resource) api.Step {
	var g api.Execution
	for _, r := range resources {
		g = append(g, api.Configure(r))
	}
	return step(g)
}

// reduce applies events in order, checking invariants after each one, and
// returns the final state with every effect produced along the way
func reduce(
	t *testing.T, st *api.EngineState, evs ...api.Event,
) (*api.EngineState, []engine.StartAction) {
	t.Helper()
	var res []engine.StartAction
	for _, ev := range evs {
		var effects []engine.Effect
		st, effects = engine.Reduce(st, ev)
		require.NoError(t, engine.CheckInvariants(st), "after %s", ev.Type())
		for _, eff := range effects {
			start, ok := eff.(engine.StartAction)
			require.True(t, ok)
			res = append(res, start)
		}
	}
	return st, res
}

func completed(starts ...engine.StartAction) []api.Event {
	res := make([]api.Event, len(starts))
	for i, s := range starts {
		res[i] = api.ActionCompletedEvent{ActionCoord: s.ActionCoord}
	}
	return res
}

func load(seqs ...*api.Sequence) []api.Event {
	res := make([]api.Event, len(seqs))
	for i, s := range seqs {
		res[i] = api.LoadSequenceEvent{Sequence: s}
	}
	return res
}

func loaded(t *testing.T, seqs ...*api.Sequence) *api.EngineState {
	t.Helper()
	st, effects := reduce(t, api.NewEngineState(), load(seqs...)...)
	require.Empty(t, effects)
	return st
}

func seqStatus(st *api.EngineState, id api.SequenceID) api.SequenceStatus {
	return st.Sequences[id].Status
}

func actionAt(
	st *api.EngineState, id api.SequenceID, s, g, a int,
) api.Action {
	return st.Sequences[id].Sequence.Steps[s].Executions[g][a]
}
