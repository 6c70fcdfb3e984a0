package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/kode4food/caravan"
	"github.com/kode4food/caravan/message"
	"github.com/kode4food/caravan/topic"

	"github.com/kode4food/seqexec/internal/config"
	"github.com/kode4food/seqexec/internal/engine/event"
	"github.com/kode4food/seqexec/pkg/api"
	"github.com/kode4food/seqexec/pkg/log"
)

// Engine is the sequence execution engine runtime. It owns the single
// reducer loop, the action executors, and the snapshot stream
type Engine struct {
	config    *config.Config
	performer Performer
	queue     *event.Queue
	snapshots topic.Topic[*api.Snapshot]
	snapProd  topic.Producer[*api.Snapshot]
	current   atomic.Pointer[api.Snapshot]
	halted    atomic.Bool
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	execMu    sync.Mutex
	execWG    sync.WaitGroup
	stopped   bool
}

var (
	ErrQueueFull       = event.ErrQueueFull
	ErrEngineHalted    = errors.New("engine halted")
	ErrEngineStopped   = errors.New("engine stopped")
	ErrShutdownTimeout = errors.New("shutdown timeout exceeded")
	ErrActionTimeout   = errors.New("action timed out")
	ErrReducerPanicked = errors.New("reducer panicked")
)

// New creates an engine with an empty state that performs actions with the
// given Performer
func New(cfg *config.Config, p Performer) *Engine {
	return NewWithState(cfg, p, api.NewEngineState())
}

// NewWithState creates an engine starting from an existing state
func NewWithState(
	cfg *config.Config, p Performer, st *api.EngineState,
) *Engine {
	ctx, cancel := context.WithCancel(context.Background())
	snapshots := caravan.NewTopic[*api.Snapshot]()
	e := &Engine{
		config:    cfg,
		performer: p,
		snapshots: snapshots,
		snapProd:  snapshots.NewProducer(),
		ctx:       ctx,
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	e.current.Store(&api.Snapshot{State: st})
	e.queue = event.NewQueue(
		e.handleEvents, cfg.EventQueueSize, cfg.EventBatchSize,
	)
	return e
}

// Start begins processing submitted events
func (e *Engine) Start() {
	slog.Info("Engine starting",
		slog.Int("queue_size", e.config.EventQueueSize),
		slog.Duration("action_timeout", e.config.ActionTimeout))
	e.queue.Start()
}

// Stop refuses further submissions, waits for executing actions up to the
// shutdown timeout, then drains the event queue and ends every
// subscription
func (e *Engine) Stop() error {
	e.execMu.Lock()
	if e.stopped {
		e.execMu.Unlock()
		return nil
	}
	e.stopped = true
	e.execMu.Unlock()

	idle := make(chan struct{})
	go func() {
		e.execWG.Wait()
		close(idle)
	}()

	var err error
	select {
	case <-idle:
	case <-time.After(e.config.ShutdownTimeout):
		err = ErrShutdownTimeout
	}
	e.cancel()
	<-idle

	e.queue.Flush()
	close(e.done)
	e.snapProd.Close()
	slog.Info("Engine stopped")
	return err
}

// Submit enqueues an event for processing, returning the acknowledgement
// that identifies it in the snapshot stream. It fails with ErrQueueFull
// when the bounded queue is saturated
func (e *Engine) Submit(ev api.Event) (api.Ack, error) {
	if ev == nil {
		return api.Ack{}, api.ErrUnknownEvent
	}
	if e.halted.Load() {
		return api.Ack{}, ErrEngineHalted
	}
	if e.isStopped() {
		return api.Ack{}, ErrEngineStopped
	}
	if ld, ok := ev.(api.LoadSequenceEvent); ok {
		if err := ValidateSequence(ld.Sequence); err != nil {
			return api.Ack{}, err
		}
	}

	id := uuid.NewString()
	if err := e.queue.Offer(event.Event{ID: id, Data: ev}); err != nil {
		if errors.Is(err, event.ErrQueueClosed) {
			return api.Ack{}, ErrEngineStopped
		}
		return api.Ack{}, err
	}
	return api.Ack{EventID: id}, nil
}

// Snapshot returns the most recently published snapshot. Its State and Seq
// always belong together
func (e *Engine) Snapshot() *api.Snapshot {
	return e.current.Load()
}

// GetState returns the most recently published engine state
func (e *Engine) GetState() *api.EngineState {
	return e.Snapshot().State
}

// GetSequence returns the most recently published state of one sequence
func (e *Engine) GetSequence(id api.SequenceID) (*api.SequenceState, bool) {
	seq, ok := e.GetState().Sequences[id]
	return seq, ok
}

// Seq returns the sequence number of the most recent snapshot
func (e *Engine) Seq() int64 {
	return e.Snapshot().Seq
}

// IsHalted reports whether an invariant violation stopped the engine
func (e *Engine) IsHalted() bool {
	return e.halted.Load()
}

// Subscribe returns a stream of the snapshots published after this call
func (e *Engine) Subscribe() *Subscription {
	cons := e.snapshots.NewConsumer()
	initial := e.Snapshot()
	return &Subscription{
		cons:    cons,
		done:    e.done,
		initial: initial,
		after:   initial.Seq,
	}
}

func (e *Engine) handleEvents(batch []event.Event) error {
	for _, ev := range batch {
		if e.halted.Load() {
			return ErrEngineHalted
		}
		if err := e.process(ev); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) process(ev event.Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrReducerPanicked, r)
			e.halt(ev, err)
		}
	}()

	prev := e.Snapshot()
	next, effects := Reduce(prev.State, ev.Data)
	if err := CheckInvariants(next); err != nil {
		e.halt(ev, err)
		return err
	}

	snap := &api.Snapshot{
		State:   next,
		Event:   ev.Data,
		EventID: ev.ID,
		Type:    ev.Data.Type(),
		Seq:     prev.Seq + 1,
	}
	e.current.Store(snap)
	message.Send(e.snapProd, snap)

	for _, eff := range effects {
		e.perform(eff)
	}
	return nil
}

func (e *Engine) halt(ev event.Event, err error) {
	e.halted.Store(true)
	slog.Error("Engine halted",
		log.EventType(ev.Data.Type()),
		slog.String("event_id", ev.ID),
		log.Error(err))
}

// raise enqueues an event on behalf of the engine itself. Executor reports
// bypass the submission bound
func (e *Engine) raise(ev api.Event) {
	err := e.queue.Enqueue(event.Event{ID: uuid.NewString(), Data: ev})
	if err != nil {
		slog.Warn("Dropped engine event",
			log.EventType(ev.Type()),
			log.Error(err))
	}
}

func (e *Engine) isStopped() bool {
	e.execMu.Lock()
	defer e.execMu.Unlock()
	return e.stopped
}
