// Package api defines the core data types of the sequence executor
//
// This package contains the shared types used across the executor,
// including resources, actions, steps, sequences, engine state, the closed
// set of events the engine accepts, and the snapshots it emits
package api
