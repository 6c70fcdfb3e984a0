package engine_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/seqexec/internal/engine"
	"github.com/kode4food/seqexec/pkg/api"
)

func queued(t *testing.T, ids ...api.SequenceID) *api.EngineState {
	t.Helper()
	var seqs []*api.Sequence
	for _, id := range ids {
		seqs = append(seqs, sequence(id, configure(api.ResourceGcal)))
	}
	st := loaded(t, seqs...)
	for _, id := range ids {
		st = engine.AddToQueue(st, "night", id)
	}
	return st
}

func TestAddToQueue(t *testing.T) {
	st := queued(t, "A", "B")
	assert.Equal(t,
		[]api.SequenceID{"A", "B"}, st.Queue("night").Sequences,
	)

	assert.Same(t, st, engine.AddToQueue(st, "night", "A"))
	assert.Same(t, st, engine.AddToQueue(st, "cal", "A"))
	assert.Same(t, st, engine.AddToQueue(st, "night", "missing"))
}

func TestAddRunningOrCompleted(t *testing.T) {
	st := loaded(t,
		sequence("R", configure(api.ResourceTCS)),
		sequence("C"),
	)
	st, _ = reduce(t, st,
		api.StartEvent{SequenceID: "R"},
		api.StartEvent{SequenceID: "C"},
	)
	require.Equal(t, api.SequenceRunning, seqStatus(st, "R"))
	require.Equal(t, api.SequenceCompleted, seqStatus(st, "C"))

	assert.Same(t, st, engine.AddToQueue(st, "night", "R"))
	assert.Same(t, st, engine.AddToQueue(st, "night", "C"))
}

func TestRemoveFromQueue(t *testing.T) {
	st := queued(t, "A", "B", "C")

	st = engine.RemoveFromQueue(st, "night", "B")
	assert.Equal(t, []api.SequenceID{"A", "C"}, st.Queue("night").Sequences)

	assert.Same(t, st, engine.RemoveFromQueue(st, "night", "B"))
	assert.Same(t, st, engine.RemoveFromQueue(st, "other", "A"))
}

func TestMoveInQueue(t *testing.T) {
	st := queued(t, "A", "B", "C", "D")

	tests := []struct {
		id       api.SequenceID
		delta    int
		expected []api.SequenceID
	}{
		{"B", 1, []api.SequenceID{"A", "C", "B", "D"}},
		{"B", -1, []api.SequenceID{"B", "A", "C", "D"}},
		{"C", -10, []api.SequenceID{"C", "A", "B", "D"}},
		{"A", 10, []api.SequenceID{"B", "C", "D", "A"}},
		{"D", -3, []api.SequenceID{"D", "A", "B", "C"}},
		{"B", 0, []api.SequenceID{"A", "B", "C", "D"}},
	}

	for _, tc := range tests {
		res := engine.MoveInQueue(st, "night", tc.id, tc.delta)
		assert.Equal(t, tc.expected, res.Queue("night").Sequences)
	}
	assert.Equal(t,
		[]api.SequenceID{"A", "B", "C", "D"}, st.Queue("night").Sequences,
	)
}

func TestMoveAtBoundaries(t *testing.T) {
	st := queued(t, "A", "B", "C")

	assert.Same(t, st, engine.MoveInQueue(st, "night", "A", -1))
	assert.Same(t, st, engine.MoveInQueue(st, "night", "C", 1))
	assert.Same(t, st, engine.MoveInQueue(st, "night", "missing", 1))
	assert.Same(t, st, engine.MoveInQueue(st, "other", "A", 1))

	assert.Same(t, st, engine.MoveInQueue(st, "night", "C", math.MaxInt))
	assert.Same(t, st, engine.MoveInQueue(st, "night", "A", math.MinInt))

	res := engine.MoveInQueue(st, "night", "B", math.MaxInt)
	assert.Equal(t,
		[]api.SequenceID{"A", "C", "B"}, res.Queue("night").Sequences,
	)
	res = engine.MoveInQueue(st, "night", "B", math.MinInt)
	assert.Equal(t,
		[]api.SequenceID{"B", "A", "C"}, res.Queue("night").Sequences,
	)
}

func TestClearQueue(t *testing.T) {
	st := queued(t, "A", "B")
	st = engine.ClearQueue(st, "night")
	assert.Empty(t, st.Queue("night").Sequences)
	assert.False(t, st.Queue("night").Running)
	assert.Same(t, st, engine.ClearQueue(st, "night"))
}

func TestStartStopQueue(t *testing.T) {
	st := queued(t, "A")
	st = engine.StartQueue(st, "night")
	assert.True(t, st.Queue("night").Running)
	assert.Same(t, st, engine.StartQueue(st, "night"))

	st = engine.StopQueue(st, "night")
	assert.False(t, st.Queue("night").Running)
	assert.Same(t, st, engine.StopQueue(st, "night"))

	st = engine.ClearQueue(st, "night")
	assert.Same(t, st, engine.StartQueue(st, "night"))
}

func TestQueueOperationsKeepInvariants(t *testing.T) {
	ids := []api.SequenceID{"A", "B", "C", "D", "E"}
	queues := []api.QueueName{"cal", "night"}
	var seqs []*api.Sequence
	for i, id := range ids {
		res := []api.Resource{
			api.ResourceGcal, api.ResourceGmosS, api.ResourceGnirs,
		}[i%3]
		seqs = append(seqs, sequence(id, configure(res)))
	}
	st := loaded(t, seqs...)
	st, _ = reduce(t, st, api.StartEvent{SequenceID: "E"})

	rng := rand.New(rand.NewPCG(7, 11))
	for range 500 {
		id := ids[rng.IntN(len(ids))]
		name := queues[rng.IntN(len(queues))]
		switch rng.IntN(3) {
		case 0:
			st = engine.AddToQueue(st, name, id)
		case 1:
			st = engine.RemoveFromQueue(st, name, id)
		default:
			st = engine.MoveInQueue(st, name, id, rng.IntN(7)-3)
		}

		require.NoError(t, engine.CheckInvariants(st))
		for _, qn := range st.QueueNames() {
			seen := map[api.SequenceID]bool{}
			for _, qid := range st.Queue(qn).Sequences {
				assert.False(t, seen[qid])
				seen[qid] = true
				assert.NotEqual(t, api.SequenceRunning, seqStatus(st, qid))
				assert.NotEqual(t, api.SequenceCompleted, seqStatus(st, qid))
			}
		}
	}
}

func TestQueuePromotion(t *testing.T) {
	st := loaded(t,
		sequence("S1", configure(api.ResourceTCS, api.ResourceGmosN)),
		sequence("S2", configure(api.ResourceTCS)),
		sequence("S3", configure(api.ResourceGcal)),
	)

	st, starts := reduce(t, st,
		api.AddSequenceToQueueEvent{Queue: "night", SequenceID: "S1"},
		api.AddSequenceToQueueEvent{Queue: "night", SequenceID: "S2"},
		api.AddSequenceToQueueEvent{Queue: "night", SequenceID: "S3"},
	)
	assert.Empty(t, starts)

	st, starts = reduce(t, st, api.StartQueueEvent{Queue: "night"})
	require.Len(t, starts, 3)
	assert.Equal(t, api.SequenceRunning, seqStatus(st, "S1"))
	assert.Equal(t, api.SequenceIdle, seqStatus(st, "S2"))
	assert.Equal(t, api.SequenceRunning, seqStatus(st, "S3"))
	assert.Equal(t, []api.SequenceID{"S2"}, st.Queue("night").Sequences)
	assert.True(t, st.Queue("night").Running)

	var s1 []engine.StartAction
	for _, s := range starts {
		if s.SequenceID == "S1" {
			s1 = append(s1, s)
		}
	}
	st, next := reduce(t, st, completed(s1...)...)
	require.Len(t, next, 1)
	assert.Equal(t, api.SequenceID("S2"), next[0].SequenceID)
	assert.Equal(t, api.SequenceRunning, seqStatus(st, "S2"))
	assert.Empty(t, st.Queue("night").Sequences)
	assert.False(t, st.Queue("night").Running)
}

func TestQueueKeepsOrderBehindBlockedSequence(t *testing.T) {
	st := loaded(t,
		sequence("R", configure(api.ResourceTCS)),
		sequence("Q1", configure(api.ResourceTCS, api.ResourceGcal)),
		sequence("Q2", configure(api.ResourceGcal)),
	)

	st, _ = reduce(t, st,
		api.StartEvent{SequenceID: "R"},
		api.AddSequenceToQueueEvent{Queue: "night", SequenceID: "Q1"},
		api.AddSequenceToQueueEvent{Queue: "night", SequenceID: "Q2"},
		api.StartQueueEvent{Queue: "night"},
	)
	assert.Equal(t, api.SequenceIdle, seqStatus(st, "Q1"))
	assert.Equal(t, api.SequenceIdle, seqStatus(st, "Q2"))

	st, _ = reduce(t, st, api.StopQueueEvent{Queue: "night"})
	assert.False(t, st.Queue("night").Running)
}
