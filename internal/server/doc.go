// Package server exposes the sequence executor over HTTP
//
// It provides endpoints for submitting commands, reading engine and
// sequence state, and a WebSocket stream of engine snapshots
package server
