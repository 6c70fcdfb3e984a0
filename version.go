// Package seqexec is the observatory sequence executor
package seqexec

const (
	// Name is the service name reported in logs
	Name = "seqexec"

	// Version is the service version reported in logs
	Version = "0.1.0"
)
