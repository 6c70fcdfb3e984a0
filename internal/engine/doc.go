// Package engine implements the sequence execution engine. Reduce is the
// pure state transition function; Engine feeds it from a single ordered
// event queue and runs the actions it starts
package engine
