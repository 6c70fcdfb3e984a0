package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/kode4food/seqexec/pkg/api"
	"github.com/kode4food/seqexec/pkg/log"
)

type (
	actionExec struct {
		*Engine
		work     StartAction
		finished atomic.Bool
	}

	result struct {
		args api.Args
		err  error
	}
)

func (e *Engine) perform(eff Effect) {
	switch eff := eff.(type) {
	case StartAction:
		e.execMu.Lock()
		defer e.execMu.Unlock()
		if e.stopped {
			slog.Warn("Action not started during shutdown",
				log.SequenceID(eff.SequenceID),
				log.Step(eff.Step),
				log.Resource(eff.Work.Resource))
			return
		}
		ex := &actionExec{Engine: e, work: eff}
		e.execWG.Go(ex.run)
	}
}

func (x *actionExec) run() {
	w := x.work
	x.raise(api.ActionStartedEvent{ActionCoord: w.ActionCoord})

	ctx, cancel := context.WithTimeout(x.ctx, x.config.ActionTimeout)
	defer cancel()

	res := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				res <- result{err: fmt.Errorf("performer panicked: %v", r)}
			}
		}()
		args, err := x.performer.Perform(ctx, w, x)
		res <- result{args: args, err: err}
	}()

	var out result
	select {
	case out = <-res:
	case <-ctx.Done():
		out = result{err: x.contextError()}
	}
	x.finished.Store(true)

	if out.err != nil {
		slog.Error("Action failed",
			log.SequenceID(w.SequenceID),
			log.Step(w.Step),
			log.Resource(w.Work.Resource),
			log.Error(out.err))
		x.raise(api.ActionFailedEvent{
			ActionCoord: w.ActionCoord,
			Error:       out.err.Error(),
		})
		return
	}
	x.raise(api.ActionCompletedEvent{
		ActionCoord: w.ActionCoord,
		Result:      out.args,
	})
}

func (x *actionExec) contextError() error {
	if x.ctx.Err() != nil {
		return ErrEngineStopped
	}
	return fmt.Errorf("%w after %s", ErrActionTimeout, x.config.ActionTimeout)
}

// Partial reports an intermediate result of the action
func (x *actionExec) Partial(p api.PartialResult) {
	if x.finished.Load() {
		return
	}
	x.raise(api.ActionPartialResultEvent{
		ActionCoord: x.work.ActionCoord,
		Partial:     p,
	})
}

// Paused reports that hardware paused the action
func (x *actionExec) Paused(ctx string) {
	if x.finished.Load() {
		return
	}
	x.raise(api.ActionPausedEvent{
		ActionCoord: x.work.ActionCoord,
		Context:     ctx,
	})
}

// Resumed reports that hardware resumed the action
func (x *actionExec) Resumed() {
	if x.finished.Load() {
		return
	}
	x.raise(api.ActionResumedEvent{ActionCoord: x.work.ActionCoord})
}
