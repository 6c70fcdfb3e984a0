package api

import "encoding/json"

type (
	// Ack acknowledges that an event was accepted for processing
	Ack struct {
		EventID string `json:"event_id"`
	}

	// Snapshot is the engine state emitted after processing one event
	Snapshot struct {
		State   *EngineState `json:"state"`
		Event   Event        `json:"event"`
		EventID string       `json:"event_id,omitempty"`
		Type    EventType    `json:"type"`
		Seq     int64        `json:"seq"`
	}

	// CommandRequest is the wire form of a submitted event
	CommandRequest struct {
		Type EventType       `json:"type"`
		Data json.RawMessage `json:"data,omitempty"`
	}

	// ErrorResponse is returned by the HTTP API on failure
	ErrorResponse struct {
		Error  string `json:"error"`
		Status int    `json:"status"`
	}

	// HealthResponse reports the health of the executor process
	HealthResponse struct {
		Service string `json:"service"`
		Version string `json:"version"`
		Status  string `json:"status"`
		Halted  bool   `json:"halted,omitempty"`
	}
)
