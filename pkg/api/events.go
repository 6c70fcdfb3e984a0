package api

type (
	// EventType names an event the engine accepts
	EventType string

	// Event is the closed set of events the engine reduces. Only the types
	// declared in this package implement it
	Event interface {
		Type() EventType
		isEvent()
	}

	// ActionCoord locates an action within a specific load of a sequence
	ActionCoord struct {
		SequenceID SequenceID `json:"sequence_id"`
		Run        int        `json:"run"`
		Step       int        `json:"step"`
		Group      int        `json:"group"`
		Action     int        `json:"action"`
	}

	// LoadSequenceEvent installs or replaces a sequence
	LoadSequenceEvent struct {
		Sequence *Sequence `json:"sequence"`
	}

	// UnloadSequenceEvent removes a sequence that is not running
	UnloadSequenceEvent struct {
		SequenceID SequenceID `json:"sequence_id"`
	}

	// StartEvent starts an idle or stopped sequence
	StartEvent struct {
		SequenceID SequenceID `json:"sequence_id"`
	}

	// PauseEvent requests a running sequence to pause at its next
	// checkpoint
	PauseEvent struct {
		SequenceID SequenceID `json:"sequence_id"`
	}

	// CancelPauseEvent withdraws a pending pause request
	CancelPauseEvent struct {
		SequenceID SequenceID `json:"sequence_id"`
	}

	// ContinueEvent resumes a paused sequence
	ContinueEvent struct {
		SequenceID SequenceID `json:"sequence_id"`
	}

	// StopEvent stops a sequence at its next checkpoint, or immediately if
	// nothing is executing
	StopEvent struct {
		SequenceID SequenceID `json:"sequence_id"`
	}

	// RetryEvent re-attempts the failed actions of a failed sequence
	RetryEvent struct {
		SequenceID SequenceID `json:"sequence_id"`
	}

	// SetBreakpointEvent sets or clears the breakpoint of a step
	SetBreakpointEvent struct {
		SequenceID SequenceID `json:"sequence_id"`
		Step       int        `json:"step"`
		Set        bool       `json:"set"`
	}

	// SetSkipMarkEvent sets or clears the skip mark of a step
	SetSkipMarkEvent struct {
		SequenceID SequenceID `json:"sequence_id"`
		Step       int        `json:"step"`
		Set        bool       `json:"set"`
	}

	// SetObserverEvent names the observer of a sequence
	SetObserverEvent struct {
		SequenceID SequenceID `json:"sequence_id"`
		Observer   string     `json:"observer"`
	}

	// SetOperatorEvent names the active operator
	SetOperatorEvent struct {
		Operator string `json:"operator"`
	}

	// SetConditionEvent updates one environmental condition
	SetConditionEvent struct {
		Kind  ConditionKind `json:"kind"`
		Value string        `json:"value"`
	}

	// AddSequenceToQueueEvent appends a sequence to a queue
	AddSequenceToQueueEvent struct {
		Queue      QueueName  `json:"queue"`
		SequenceID SequenceID `json:"sequence_id"`
	}

	// RemoveSequenceFromQueueEvent removes a sequence from a queue
	RemoveSequenceFromQueueEvent struct {
		Queue      QueueName  `json:"queue"`
		SequenceID SequenceID `json:"sequence_id"`
	}

	// MoveSequenceInQueueEvent shifts a sequence within a queue
	MoveSequenceInQueueEvent struct {
		Queue      QueueName  `json:"queue"`
		SequenceID SequenceID `json:"sequence_id"`
		Delta      int        `json:"delta"`
	}

	// ClearQueueEvent removes every sequence from a queue
	ClearQueueEvent struct {
		Queue QueueName `json:"queue"`
	}

	// StartQueueEvent begins promoting the sequences of a queue
	StartQueueEvent struct {
		Queue QueueName `json:"queue"`
	}

	// StopQueueEvent stops promoting the sequences of a queue
	StopQueueEvent struct {
		Queue QueueName `json:"queue"`
	}

	// ActionStartedEvent is raised by an executor as it begins an action
	ActionStartedEvent struct {
		ActionCoord
	}

	// ActionPartialResultEvent is raised by an executor when an action
	// signals an intermediate value
	ActionPartialResultEvent struct {
		ActionCoord
		Partial PartialResult `json:"partial"`
	}

	// ActionPausedEvent is raised when hardware pauses an action
	ActionPausedEvent struct {
		ActionCoord
		Context string `json:"context,omitempty"`
	}

	// ActionResumedEvent is raised when hardware resumes a paused action
	ActionResumedEvent struct {
		ActionCoord
	}

	// ActionCompletedEvent is raised by an executor when an action succeeds
	ActionCompletedEvent struct {
		ActionCoord
		Result Args `json:"result,omitempty"`
	}

	// ActionFailedEvent is raised by an executor when an action fails
	ActionFailedEvent struct {
		ActionCoord
		Error string `json:"error"`
	}
)

const (
	EventTypeLoadSequence            EventType = "load_sequence"
	EventTypeUnloadSequence          EventType = "unload_sequence"
	EventTypeStart                   EventType = "start"
	EventTypePause                   EventType = "pause"
	EventTypeCancelPause             EventType = "cancel_pause"
	EventTypeContinue                EventType = "continue"
	EventTypeStop                    EventType = "stop"
	EventTypeRetry                   EventType = "retry"
	EventTypeSetBreakpoint           EventType = "set_breakpoint"
	EventTypeSetSkipMark             EventType = "set_skip_mark"
	EventTypeSetObserver             EventType = "set_observer"
	EventTypeSetOperator             EventType = "set_operator"
	EventTypeSetCondition            EventType = "set_condition"
	EventTypeAddSequenceToQueue      EventType = "add_sequence_to_queue"
	EventTypeRemoveSequenceFromQueue EventType = "remove_sequence_from_queue"
	EventTypeMoveSequenceInQueue     EventType = "move_sequence_in_queue"
	EventTypeClearQueue              EventType = "clear_queue"
	EventTypeStartQueue              EventType = "start_queue"
	EventTypeStopQueue               EventType = "stop_queue"
	EventTypeActionStarted           EventType = "action_started"
	EventTypeActionPartialResult     EventType = "action_partial_result"
	EventTypeActionPaused            EventType = "action_paused"
	EventTypeActionResumed           EventType = "action_resumed"
	EventTypeActionCompleted         EventType = "action_completed"
	EventTypeActionFailed            EventType = "action_failed"
)

func (LoadSequenceEvent) Type() EventType { return EventTypeLoadSequence }

func (UnloadSequenceEvent) Type() EventType { return EventTypeUnloadSequence }

func (StartEvent) Type() EventType { return EventTypeStart }

func (PauseEvent) Type() EventType { return EventTypePause }

func (CancelPauseEvent) Type() EventType { return EventTypeCancelPause }

func (ContinueEvent) Type() EventType { return EventTypeContinue }

func (StopEvent) Type() EventType { return EventTypeStop }

func (RetryEvent) Type() EventType { return EventTypeRetry }

func (SetBreakpointEvent) Type() EventType { return EventTypeSetBreakpoint }

func (SetSkipMarkEvent) Type() EventType { return EventTypeSetSkipMark }

func (SetObserverEvent) Type() EventType { return EventTypeSetObserver }

func (SetOperatorEvent) Type() EventType { return EventTypeSetOperator }

func (SetConditionEvent) Type() EventType { return EventTypeSetCondition }

func (AddSequenceToQueueEvent) Type() EventType {
	return EventTypeAddSequenceToQueue
}

func (RemoveSequenceFromQueueEvent) Type() EventType {
	return EventTypeRemoveSequenceFromQueue
}

func (MoveSequenceInQueueEvent) Type() EventType {
	return EventTypeMoveSequenceInQueue
}

func (ClearQueueEvent) Type() EventType { return EventTypeClearQueue }

func (StartQueueEvent) Type() EventType { return EventTypeStartQueue }

func (StopQueueEvent) Type() EventType { return EventTypeStopQueue }

func (ActionStartedEvent) Type() EventType { return EventTypeActionStarted }

func (ActionPartialResultEvent) Type() EventType {
	return EventTypeActionPartialResult
}

func (ActionPausedEvent) Type() EventType { return EventTypeActionPaused }

func (ActionResumedEvent) Type() EventType { return EventTypeActionResumed }

func (ActionCompletedEvent) Type() EventType { return EventTypeActionCompleted }

func (ActionFailedEvent) Type() EventType { return EventTypeActionFailed }

func (LoadSequenceEvent) isEvent()            {}
func (UnloadSequenceEvent) isEvent()          {}
func (StartEvent) isEvent()                   {}
func (PauseEvent) isEvent()                   {}
func (CancelPauseEvent) isEvent()             {}
func (ContinueEvent) isEvent()                {}
func (StopEvent) isEvent()                    {}
func (RetryEvent) isEvent()                   {}
func (SetBreakpointEvent) isEvent()           {}
func (SetSkipMarkEvent) isEvent()             {}
func (SetObserverEvent) isEvent()             {}
func (SetOperatorEvent) isEvent()             {}
func (SetConditionEvent) isEvent()            {}
func (AddSequenceToQueueEvent) isEvent()      {}
func (RemoveSequenceFromQueueEvent) isEvent() {}
func (MoveSequenceInQueueEvent) isEvent()     {}
func (ClearQueueEvent) isEvent()              {}
func (StartQueueEvent) isEvent()              {}
func (StopQueueEvent) isEvent()               {}
func (ActionStartedEvent) isEvent()           {}
func (ActionPartialResultEvent) isEvent()     {}
func (ActionPausedEvent) isEvent()            {}
func (ActionResumedEvent) isEvent()           {}
func (ActionCompletedEvent) isEvent()         {}
func (ActionFailedEvent) isEvent()            {}
