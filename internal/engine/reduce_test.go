package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kode4food/seqexec/internal/engine"
	"github.com/kode4food/seqexec/pkg/api"
	"github.com/kode4food/seqexec/pkg/status"
	"github.com/kode4food/seqexec/pkg/util"
)

func TestSingleActionSequence(t *testing.T) {
	st := loaded(t, sequence("S1", configure(api.ResourceTCS)))
	assert.Equal(t, api.SequenceIdle, seqStatus(st, "S1"))
	assert.Equal(t, 1, st.Sequences["S1"].Run)

	st, starts := reduce(t, st, api.StartEvent{SequenceID: "S1"})
	require.Len(t, starts, 1)
	assert.Equal(t, api.ActionCoord{SequenceID: "S1", Run: 1},
		starts[0].ActionCoord)
	assert.Equal(t, api.ResourceGmosN, starts[0].Instrument)
	assert.Equal(t, api.SequenceRunning, seqStatus(st, "S1"))
	assert.Equal(t,
		api.ActionStarted, actionAt(st, "S1", 0, 0, 0).State.Status,
	)

	st, starts = reduce(t, st,
		api.ActionStartedEvent{ActionCoord: starts[0].ActionCoord},
		completed(starts[0])[0],
	)
	assert.Empty(t, starts)
	assert.Equal(t, api.SequenceCompleted, seqStatus(st, "S1"))

	execs := st.Sequences["S1"].Sequence.Steps[0].Executions
	assert.Equal(t, status.ResourceStatuses{
		{Resource: api.ResourceTCS, Status: status.Completed},
	}, status.ConfigStatus(execs))
}

func TestGroupsRunInOrder(t *testing.T) {
	st := loaded(t, sequence("S1", step(
		group(api.Configure(api.ResourceTCS), api.Configure(api.ResourceGmosN)),
		group(api.Observe(api.ResourceGmosN)),
	)))

	st, starts := reduce(t, st, api.StartEvent{SequenceID: "S1"})
	require.Len(t, starts, 2)
	assert.Equal(t, 0, starts[0].Action)
	assert.Equal(t, 1, starts[1].Action)
	assert.Equal(t, api.ResourceGmosN, starts[1].Work.Resource)

	st, next := reduce(t, st, completed(starts[1])...)
	assert.Empty(t, next)
	assert.Equal(t,
		api.ActionPending, actionAt(st, "S1", 0, 1, 0).State.Status,
	)

	st, next = reduce(t, st, completed(starts[0])...)
	require.Len(t, next, 1)
	assert.Equal(t, 1, next[0].Group)
	assert.Equal(t, api.ActionObserve, next[0].Work.Kind)

	st, next = reduce(t, st, completed(next...)...)
	assert.Empty(t, next)
	assert.Equal(t, api.SequenceCompleted, seqStatus(st, "S1"))
}

func TestResourceContention(t *testing.T) {
	st := loaded(t,
		sequence("S1", configure(api.ResourceTCS)),
		sequence("S2", configure(api.ResourceTCS)),
	)

	st, first := reduce(t, st, api.StartEvent{SequenceID: "S1"})
	require.Len(t, first, 1)

	st, second := reduce(t, st, api.StartEvent{SequenceID: "S2"})
	assert.Empty(t, second)
	assert.Equal(t, api.SequenceRunning, seqStatus(st, "S2"))
	assert.Equal(t,
		api.ActionPending, actionAt(st, "S2", 0, 0, 0).State.Status,
	)
	assert.False(t, engine.CanStart(st, "S2", util.SetOf(api.ResourceTCS)))
	assert.True(t, engine.CanStart(st, "S1", util.SetOf(api.ResourceTCS)))

	st, second = reduce(t, st, completed(first...)...)
	require.Len(t, second, 1)
	assert.Equal(t, api.SequenceID("S2"), second[0].SequenceID)
	assert.Equal(t, api.SequenceCompleted, seqStatus(st, "S1"))
	assert.Equal(t,
		api.ActionStarted, actionAt(st, "S2", 0, 0, 0).State.Status,
	)
}

func TestDisjointSequencesRunTogether(t *testing.T) {
	st := loaded(t,
		sequence("S1", configure(api.ResourceTCS)),
		sequence("S2", configure(api.ResourceGcal)),
	)

	_, starts := reduce(t, st,
		api.StartEvent{SequenceID: "S1"},
		api.StartEvent{SequenceID: "S2"},
	)
	assert.Len(t, starts, 2)
}

func TestPauseAtCheckpoint(t *testing.T) {
	st := loaded(t, sequence("S1",
		configure(api.ResourceTCS), configure(api.ResourceGcal),
	))

	st, starts := reduce(t, st,
		api.StartEvent{SequenceID: "S1"},
		api.PauseEvent{SequenceID: "S1"},
	)
	require.Len(t, starts, 1)
	assert.Equal(t, api.SequenceRunning, seqStatus(st, "S1"))
	assert.True(t, st.Sequences["S1"].PauseRequested)

	st, next := reduce(t, st, completed(starts...)...)
	assert.Empty(t, next)
	assert.Equal(t, api.SequencePaused, seqStatus(st, "S1"))
	assert.False(t, st.Sequences["S1"].PauseRequested)
	assert.Equal(t, 1, st.Sequences["S1"].StepIndex)

	st, next = reduce(t, st, api.ContinueEvent{SequenceID: "S1"})
	require.Len(t, next, 1)
	assert.Equal(t, 1, next[0].Step)
	assert.Equal(t, api.SequenceRunning, seqStatus(st, "S1"))
}

func TestPauseWhileParked(t *testing.T) {
	st := loaded(t,
		sequence("S1", configure(api.ResourceTCS)),
		sequence("S2", configure(api.ResourceTCS)),
	)

	st, _ = reduce(t, st,
		api.StartEvent{SequenceID: "S1"},
		api.StartEvent{SequenceID: "S2"},
		api.PauseEvent{SequenceID: "S2"},
	)
	assert.Equal(t, api.SequencePaused, seqStatus(st, "S2"))
}

func TestCancelPause(t *testing.T) {
	st := loaded(t, sequence("S1",
		configure(api.ResourceTCS), configure(api.ResourceGcal),
	))

	st, starts := reduce(t, st,
		api.StartEvent{SequenceID: "S1"},
		api.PauseEvent{SequenceID: "S1"},
		api.CancelPauseEvent{SequenceID: "S1"},
	)
	assert.False(t, st.Sequences["S1"].PauseRequested)

	st, next := reduce(t, st, completed(starts...)...)
	require.Len(t, next, 1)
	assert.Equal(t, api.SequenceRunning, seqStatus(st, "S1"))
}

func TestBreakpoint(t *testing.T) {
	second := configure(api.ResourceGcal)
	second.Breakpoint = true
	st := loaded(t, sequence("S1", configure(api.ResourceTCS), second))

	st, starts := reduce(t, st, api.StartEvent{SequenceID: "S1"})
	st, next := reduce(t, st, completed(starts...)...)
	assert.Empty(t, next)
	assert.Equal(t, api.SequencePaused, seqStatus(st, "S1"))
	assert.Equal(t, status.StepPaused, status.Step(st.Sequences["S1"], 1))

	st, next = reduce(t, st, api.ContinueEvent{SequenceID: "S1"})
	require.Len(t, next, 1)
	assert.Equal(t, 1, next[0].Step)

	st, _ = reduce(t, st, completed(next...)...)
	assert.Equal(t, api.SequenceCompleted, seqStatus(st, "S1"))
}

func TestStartAtBreakpoint(t *testing.T) {
	first := configure(api.ResourceTCS)
	first.Breakpoint = true
	st := loaded(t, sequence("S1", first))

	st, starts := reduce(t, st, api.StartEvent{SequenceID: "S1"})
	assert.Len(t, starts, 1)
	assert.Equal(t, api.SequenceRunning, seqStatus(st, "S1"))
}

func TestSkipMarkedStep(t *testing.T) {
	st := loaded(t, sequence("S1",
		configure(api.ResourceTCS), configure(api.ResourceGcal),
	))

	st, starts := reduce(t, st,
		api.SetSkipMarkEvent{SequenceID: "S1", Step: 0, Set: true},
		api.StartEvent{SequenceID: "S1"},
	)
	require.Len(t, starts, 1)
	assert.Equal(t, 1, starts[0].Step)
	assert.Equal(t, status.StepSkipped, status.Step(st.Sequences["S1"], 0))

	st, _ = reduce(t, st, completed(starts...)...)
	assert.Equal(t, api.SequenceCompleted, seqStatus(st, "S1"))
}

func TestStepMarksRequireUnstartedStep(t *testing.T) {
	st := loaded(t, sequence("S1",
		configure(api.ResourceTCS), configure(api.ResourceGcal),
	))
	st, _ = reduce(t, st, api.StartEvent{SequenceID: "S1"})

	next, _ := reduce(t, st,
		api.SetBreakpointEvent{SequenceID: "S1", Step: 0, Set: true},
		api.SetSkipMarkEvent{SequenceID: "S1", Step: 0, Set: true},
		api.SetBreakpointEvent{SequenceID: "S1", Step: 5, Set: true},
	)
	assert.Equal(t, st, next)

	next, _ = reduce(t, st,
		api.SetBreakpointEvent{SequenceID: "S1", Step: 1, Set: true},
	)
	assert.True(t, next.Sequences["S1"].Sequence.Steps[1].Breakpoint)
}

func TestStop(t *testing.T) {
	st := loaded(t, sequence("S1",
		configure(api.ResourceTCS), configure(api.ResourceGcal),
	))

	st, starts := reduce(t, st,
		api.StartEvent{SequenceID: "S1"},
		api.StopEvent{SequenceID: "S1"},
	)
	assert.Equal(t, api.SequenceRunning, seqStatus(st, "S1"))
	assert.True(t, st.Sequences["S1"].StopRequested)

	st, next := reduce(t, st, completed(starts...)...)
	assert.Empty(t, next)
	assert.Equal(t, api.SequenceStopped, seqStatus(st, "S1"))
	assert.Equal(t, 1, st.Sequences["S1"].StepIndex)

	st, next = reduce(t, st, api.StartEvent{SequenceID: "S1"})
	require.Len(t, next, 1)
	assert.Equal(t, 1, next[0].Step)
	assert.Equal(t, api.SequenceRunning, seqStatus(st, "S1"))
}

func TestStopWhilePaused(t *testing.T) {
	first := configure(api.ResourceTCS)
	first.Breakpoint = true
	st := loaded(t, sequence("S1", configure(api.ResourceGcal), first))

	st, starts := reduce(t, st, api.StartEvent{SequenceID: "S1"})
	st, _ = reduce(t, st, completed(starts...)...)
	require.Equal(t, api.SequencePaused, seqStatus(st, "S1"))

	st, _ = reduce(t, st, api.StopEvent{SequenceID: "S1"})
	assert.Equal(t, api.SequenceStopped, seqStatus(st, "S1"))
}

func TestActionFailureAndRetry(t *testing.T) {
	st := loaded(t, sequence("S1", step(
		group(api.Configure(api.ResourceTCS), api.Configure(api.ResourceGcal)),
	)))

	st, starts := reduce(t, st, api.StartEvent{SequenceID: "S1"})
	require.Len(t, starts, 2)

	st, next := reduce(t, st, api.ActionFailedEvent{
		ActionCoord: starts[0].ActionCoord,
		Error:       "mount fault",
	})
	assert.Empty(t, next)
	assert.Equal(t, api.SequenceFailed, seqStatus(st, "S1"))
	assert.Equal(t, "mount fault", st.Sequences["S1"].Error)

	st, next = reduce(t, st, completed(starts[1])...)
	assert.Empty(t, next)
	assert.Equal(t, api.SequenceFailed, seqStatus(st, "S1"))
	assert.Equal(t,
		api.ActionCompleted, actionAt(st, "S1", 0, 0, 1).State.Status,
	)

	st, next = reduce(t, st, api.RetryEvent{SequenceID: "S1"})
	require.Len(t, next, 1)
	assert.Equal(t, 0, next[0].Action)
	assert.Equal(t, api.ResourceTCS, next[0].Work.Resource)
	assert.Equal(t, api.SequenceRunning, seqStatus(st, "S1"))
	assert.Empty(t, st.Sequences["S1"].Error)

	st, _ = reduce(t, st, completed(next...)...)
	assert.Equal(t, api.SequenceCompleted, seqStatus(st, "S1"))
}

func TestHardwarePause(t *testing.T) {
	st := loaded(t, sequence("S1", step(group(api.Observe(api.ResourceGmosN)))))
	st, starts := reduce(t, st, api.StartEvent{SequenceID: "S1"})
	c := starts[0].ActionCoord

	st, _ = reduce(t, st,
		api.ActionPartialResultEvent{
			ActionCoord: c,
			Partial: api.PartialResult{
				Kind: api.PartialFileID, Value: "N20261015S0042",
			},
		},
		api.ActionPausedEvent{ActionCoord: c, Context: "shutter"},
	)
	a := actionAt(st, "S1", 0, 0, 0)
	assert.Equal(t, api.ActionPaused, a.State.Status)
	assert.Equal(t, "shutter", a.State.Context)
	execs := st.Sequences["S1"].Sequence.Steps[0].Executions
	assert.Equal(t, status.Paused, status.ObserveStatus(execs))

	st, _ = reduce(t, st, api.ActionResumedEvent{ActionCoord: c})
	a = actionAt(st, "S1", 0, 0, 0)
	assert.Equal(t, api.ActionStarted, a.State.Status)
	assert.Empty(t, a.State.Context)

	st, _ = reduce(t, st, api.ActionCompletedEvent{
		ActionCoord: c,
		Result:      api.Args{"exposure": 30},
	})
	a = actionAt(st, "S1", 0, 0, 0)
	assert.Equal(t, api.Args{"exposure": 30}, a.State.Result)
	id, ok := status.FileID(st.Sequences["S1"].Sequence.Steps[0].Executions)
	assert.True(t, ok)
	assert.Equal(t, "N20261015S0042", id)
}

func TestReloadIgnoresStaleReports(t *testing.T) {
	st := loaded(t, sequence("S1", configure(api.ResourceTCS)))
	st, starts := reduce(t, st, api.StartEvent{SequenceID: "S1"})
	stale := starts[0].ActionCoord

	st, _ = reduce(t, st, api.ActionFailedEvent{
		ActionCoord: stale, Error: "timeout",
	})
	st, _ = reduce(t, st, load(sequence("S1", configure(api.ResourceTCS)))...)
	assert.Equal(t, 2, st.Sequences["S1"].Run)
	assert.Equal(t, api.SequenceIdle, seqStatus(st, "S1"))

	next, _ := reduce(t, st,
		api.ActionCompletedEvent{ActionCoord: stale},
		api.ActionPartialResultEvent{ActionCoord: stale},
	)
	assert.Equal(t, st, next)
}

func TestLoadResumesAtFirstIncompleteStep(t *testing.T) {
	done := api.Configure(api.ResourceTCS).SetStatus(api.ActionCompleted)
	stale := api.Configure(api.ResourceGcal).SetStatus(api.ActionStarted)
	st := loaded(t, sequence("S1",
		step(group(done)),
		step(group(done, stale)),
	))

	seq := st.Sequences["S1"]
	assert.Equal(t, 1, seq.StepIndex)
	assert.Equal(t,
		api.ActionCompleted, actionAt(st, "S1", 1, 0, 0).State.Status,
	)
	assert.Equal(t,
		api.ActionPending, actionAt(st, "S1", 1, 0, 1).State.Status,
	)
}

func TestLoadRefusedWhileRunning(t *testing.T) {
	st := loaded(t, sequence("S1", configure(api.ResourceTCS)))
	st, _ = reduce(t, st, api.StartEvent{SequenceID: "S1"})

	next, _ := reduce(t, st,
		load(sequence("S1", configure(api.ResourceGcal)))...,
	)
	assert.Equal(t, st, next)
}

func TestLoadRejectsSharedResource(t *testing.T) {
	st, _ := reduce(t, api.NewEngineState(), load(sequence("S1", step(
		group(api.Configure(api.ResourceTCS), api.Configure(api.ResourceTCS)),
	)))...)
	assert.Empty(t, st.Sequences)
}

func TestUnload(t *testing.T) {
	st := loaded(t,
		sequence("S1", configure(api.ResourceTCS)),
		sequence("S2", configure(api.ResourceGcal)),
	)
	st, _ = reduce(t, st,
		api.AddSequenceToQueueEvent{Queue: "cal", SequenceID: "S1"},
		api.StartEvent{SequenceID: "S2"},
		api.UnloadSequenceEvent{SequenceID: "S1"},
		api.UnloadSequenceEvent{SequenceID: "S2"},
	)

	assert.NotContains(t, st.Sequences, api.SequenceID("S1"))
	assert.Empty(t, st.Queue("cal").Sequences)
	assert.Contains(t, st.Sequences, api.SequenceID("S2"))
}

func TestEmptySequenceCompletesOnStart(t *testing.T) {
	st := loaded(t, sequence("S1"))
	st, starts := reduce(t, st, api.StartEvent{SequenceID: "S1"})
	assert.Empty(t, starts)
	assert.Equal(t, api.SequenceCompleted, seqStatus(st, "S1"))
}

func TestMetadataEvents(t *testing.T) {
	st := loaded(t, sequence("S1", configure(api.ResourceTCS)))
	st, _ = reduce(t, st,
		api.SetOperatorEvent{Operator: "Vera"},
		api.SetObserverEvent{SequenceID: "S1", Observer: "Rubin"},
		api.SetConditionEvent{
			Kind: api.ConditionCloudCover, Value: string(api.CloudCover70),
		},
	)

	assert.Equal(t, "Vera", st.Metadata.Operator)
	assert.Equal(t, "Rubin", st.Sequences["S1"].Sequence.Metadata.Observer)
	assert.Equal(t, api.CloudCover70, st.Metadata.Conditions.CloudCover)

	next, _ := reduce(t, st, api.SetConditionEvent{
		Kind: api.ConditionCloudCover, Value: "overcast",
	})
	assert.Equal(t, st, next)
}

func TestInvalidCommandsAreNoOps(t *testing.T) {
	st := loaded(t, sequence("S1", configure(api.ResourceTCS)))

	next, starts := reduce(t, st,
		api.StartEvent{SequenceID: "missing"},
		api.PauseEvent{SequenceID: "S1"},
		api.CancelPauseEvent{SequenceID: "S1"},
		api.ContinueEvent{SequenceID: "S1"},
		api.StopEvent{SequenceID: "S1"},
		api.RetryEvent{SequenceID: "S1"},
		api.UnloadSequenceEvent{SequenceID: "missing"},
		api.SetObserverEvent{SequenceID: "missing", Observer: "x"},
		api.AddSequenceToQueueEvent{Queue: "q", SequenceID: "missing"},
		api.RemoveSequenceFromQueueEvent{Queue: "q", SequenceID: "S1"},
		api.MoveSequenceInQueueEvent{Queue: "q", SequenceID: "S1", Delta: 1},
		api.StartQueueEvent{Queue: "q"},
		api.StopQueueEvent{Queue: "q"},
		api.ClearQueueEvent{Queue: "q"},
		api.ActionCompletedEvent{
			ActionCoord: api.ActionCoord{SequenceID: "S1", Run: 1},
		},
		api.ActionFailedEvent{
			ActionCoord: api.ActionCoord{SequenceID: "S1", Run: 1, Step: 3},
		},
	)
	assert.Empty(t, starts)
	assert.Equal(t, st, next)
}

func TestReduceDoesNotModifyInput(t *testing.T) {
	st := loaded(t, sequence("S1",
		configure(api.ResourceTCS), configure(api.ResourceGcal),
	))
	before := st.Sequences["S1"]

	next, _ := reduce(t, st, api.StartEvent{SequenceID: "S1"})
	assert.Equal(t, api.SequenceIdle, before.Status)
	assert.Equal(t,
		api.ActionPending,
		before.Sequence.Steps[0].Executions[0][0].State.Status,
	)
	assert.NotSame(t, st, next)
	assert.Same(t, st.Sequences["S1"], before)
}
