package api

import (
	"encoding/json"
	"errors"
	"fmt"
)

type eventDecoder func(json.RawMessage) (Event, error)

var (
	ErrUnknownEvent = errors.New("unknown event type")
	ErrDecodeEvent  = errors.New("failed to decode event")
)

var eventDecoders = map[EventType]eventDecoder{
	EventTypeLoadSequence:            decodeAs[LoadSequenceEvent],
	EventTypeUnloadSequence:          decodeAs[UnloadSequenceEvent],
	EventTypeStart:                   decodeAs[StartEvent],
	EventTypePause:                   decodeAs[PauseEvent],
	EventTypeCancelPause:             decodeAs[CancelPauseEvent],
	EventTypeContinue:                decodeAs[ContinueEvent],
	EventTypeStop:                    decodeAs[StopEvent],
	EventTypeRetry:                   decodeAs[RetryEvent],
	EventTypeSetBreakpoint:           decodeAs[SetBreakpointEvent],
	EventTypeSetSkipMark:             decodeAs[SetSkipMarkEvent],
	EventTypeSetObserver:             decodeAs[SetObserverEvent],
	EventTypeSetOperator:             decodeAs[SetOperatorEvent],
	EventTypeSetCondition:            decodeAs[SetConditionEvent],
	EventTypeAddSequenceToQueue:      decodeAs[AddSequenceToQueueEvent],
	EventTypeRemoveSequenceFromQueue: decodeAs[RemoveSequenceFromQueueEvent],
	EventTypeMoveSequenceInQueue:     decodeAs[MoveSequenceInQueueEvent],
	EventTypeClearQueue:              decodeAs[ClearQueueEvent],
	EventTypeStartQueue:              decodeAs[StartQueueEvent],
	EventTypeStopQueue:               decodeAs[StopQueueEvent],
	EventTypeActionStarted:           decodeAs[ActionStartedEvent],
	EventTypeActionPartialResult:     decodeAs[ActionPartialResultEvent],
	EventTypeActionPaused:            decodeAs[ActionPausedEvent],
	EventTypeActionResumed:           decodeAs[ActionResumedEvent],
	EventTypeActionCompleted:         decodeAs[ActionCompletedEvent],
	EventTypeActionFailed:            decodeAs[ActionFailedEvent],
}

var actionEvents = map[EventType]bool{
	EventTypeActionStarted:       true,
	EventTypeActionPartialResult: true,
	EventTypeActionPaused:        true,
	EventTypeActionResumed:       true,
	EventTypeActionCompleted:     true,
	EventTypeActionFailed:        true,
}

// DecodeEvent decodes the JSON payload of an event of the given type
func DecodeEvent(typ EventType, data json.RawMessage) (Event, error) {
	dec, ok := eventDecoders[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, typ)
	}
	return dec(data)
}

// IsActionEvent reports whether the event type is raised by executors
// rather than submitted as a command
func IsActionEvent(typ EventType) bool {
	return actionEvents[typ]
}

func decodeAs[T Event](data json.RawMessage) (Event, error) {
	var ev T
	if len(data) == 0 {
		return ev, nil
	}
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecodeEvent, err)
	}
	return ev, nil
}
