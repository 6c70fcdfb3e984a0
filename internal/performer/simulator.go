// Package performer provides the collaborators that carry out actions on
// behalf of the engine: a simulator for development and an MQTT bridge to
// the telescope and instrument control systems
package performer

import (
	"context"
	"fmt"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/kode4food/seqexec/internal/engine"
	"github.com/kode4food/seqexec/pkg/api"
)

// Simulator performs actions by waiting. Observe actions allocate a file
// identifier and report exposure progress along the way
type Simulator struct {
	ConfigureDelay time.Duration
	ObserveDelay   time.Duration
	ProgressSteps  int

	files atomic.Int64
}

const (
	DefaultConfigureDelay = 2 * time.Second
	DefaultObserveDelay   = 10 * time.Second
	DefaultProgressSteps  = 4
)

var _ engine.Performer = (*Simulator)(nil)

// NewSimulator returns a Simulator with default delays
func NewSimulator() *Simulator {
	return &Simulator{
		ConfigureDelay: DefaultConfigureDelay,
		ObserveDelay:   DefaultObserveDelay,
		ProgressSteps:  DefaultProgressSteps,
	}
}

// Perform simulates the action, returning early if ctx is canceled
func (s *Simulator) Perform(
	ctx context.Context, a engine.StartAction, r engine.Reporter,
) (api.Args, error) {
	switch a.Work.Kind {
	case api.ActionConfigure:
		if err := sleep(ctx, s.ConfigureDelay); err != nil {
			return nil, err
		}
		return api.Args{"resource": string(a.Work.Resource)}, nil
	case api.ActionObserve:
		return s.observe(ctx, a, r)
	default:
		return nil, fmt.Errorf("%w: %s", engine.ErrUnknownKind, a.Work.Kind)
	}
}

func (s *Simulator) observe(
	ctx context.Context, a engine.StartAction, r engine.Reporter,
) (api.Args, error) {
	fileID := s.nextFileID(a)
	r.Partial(api.PartialResult{Kind: api.PartialFileID, Value: fileID})

	steps := max(s.ProgressSteps, 1)
	slice := s.ObserveDelay / time.Duration(steps)
	for i := 1; i <= steps; i++ {
		if err := sleep(ctx, slice); err != nil {
			return nil, err
		}
		if i < steps {
			r.Partial(api.PartialResult{
				Kind:  api.PartialProgress,
				Value: strconv.Itoa(i * 100 / steps),
			})
		}
	}
	return api.Args{"file_id": fileID}, nil
}

func (s *Simulator) nextFileID(a engine.StartAction) string {
	n := s.files.Add(1)
	return fmt.Sprintf("%s-%s-%04d", a.Work.Resource, a.SequenceID, n)
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
