package engine

import (
	"context"

	"github.com/kode4food/seqexec/pkg/api"
)

type (
	// Performer carries out actions on hardware. Perform blocks until the
	// action completes or fails, and must honor cancellation of ctx
	Performer interface {
		Perform(context.Context, StartAction, Reporter) (api.Args, error)
	}

	// Reporter lets a Performer signal progress while an action executes
	Reporter interface {
		Partial(api.PartialResult)
		Paused(ctx string)
		Resumed()
	}

	// PerformerFunc adapts a function to the Performer interface
	PerformerFunc func(context.Context, StartAction, Reporter) (api.Args, error)
)

// Perform calls the wrapped function
func (f PerformerFunc) Perform(
	ctx context.Context, a StartAction, r Reporter,
) (api.Args, error) {
	return f(ctx, a, r)
}
