package event

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/kode4food/caravan"
	"github.com/kode4food/caravan/message"
	"github.com/kode4food/caravan/topic"

	"github.com/kode4food/seqexec/pkg/api"
	"github.com/kode4food/seqexec/pkg/log"
)

type (
	// Queue delivers engine events to a single handler strictly in the
	// order they were enqueued, in bounded batches
	Queue struct {
		prod        topic.Producer[Event]
		cons        topic.Consumer[Event]
		handler     Handler
		stop        chan struct{}
		capacity    int64
		batchSize   int
		pending     atomic.Int64
		mu          sync.RWMutex
		closed      bool
		wg          sync.WaitGroup
		startOnce   sync.Once
		stopOnce    sync.Once
		cleanupOnce sync.Once
	}

	// Handler processes a batch of engine events in a single execution
	Handler func([]Event) error

	// Event is an engine event envelope
	Event struct {
		ID   string
		Data api.Event
	}
)

var (
	ErrHandlerPanicked = errors.New("event handler panicked")
	ErrQueueFull       = errors.New("event queue full")
	ErrQueueClosed     = errors.New("event queue closed")
)

// NewQueue creates a new engine event queue. Offer refuses events once
// capacity events are waiting; batchSize bounds each handler invocation
func NewQueue(handler Handler, capacity, batchSize int) *Queue {
	queue := caravan.NewTopic[Event]()
	return &Queue{
		prod:      queue.NewProducer(),
		cons:      queue.NewConsumer(),
		handler:   handler,
		stop:      make(chan struct{}),
		capacity:  int64(capacity),
		batchSize: max(batchSize, 1),
	}
}

// Start begins processing queued engine events
func (q *Queue) Start() {
	q.startOnce.Do(func() {
		q.wg.Go(func() {
			for {
				select {
				case <-q.stop:
					return
				case ev, ok := <-q.cons.Receive():
					if !ok {
						return
					}
					q.handleBatch(q.collectBatch(ev))
				}
			}
		})
	})
}

// Offer adds an event to the queue unless the queue is saturated
func (q *Queue) Offer(ev Event) error {
	for {
		n := q.pending.Load()
		if n >= q.capacity {
			return ErrQueueFull
		}
		if q.pending.CompareAndSwap(n, n+1) {
			break
		}
	}
	if err := q.send(ev); err != nil {
		q.pending.Add(-1)
		return err
	}
	return nil
}

// Enqueue adds an event to the queue regardless of its capacity. It is
// reserved for events raised by the engine itself, which must never be
// dropped
func (q *Queue) Enqueue(ev Event) error {
	q.pending.Add(1)
	if err := q.send(ev); err != nil {
		q.pending.Add(-1)
		return err
	}
	return nil
}

// Len returns the number of events waiting to be handled
func (q *Queue) Len() int {
	return int(q.pending.Load())
}

// Flush stops the queue once every queued event, including any enqueued
// while draining, has been handled
func (q *Queue) Flush() {
	q.stopOnce.Do(func() {
		close(q.stop)
	})
	q.wg.Wait()
	q.cleanupOnce.Do(q.flush)
}

// Cancel immediately stops the queue without processing remaining events
func (q *Queue) Cancel() {
	q.stopOnce.Do(func() {
		close(q.stop)
	})
	q.wg.Wait()
	q.cleanupOnce.Do(q.close)
}

func (q *Queue) send(ev Event) error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	if q.closed {
		return ErrQueueClosed
	}
	message.Send(q.prod, ev)
	return nil
}

func (q *Queue) collectBatch(first Event) []Event {
	batch := []Event{first}
	for len(batch) < q.batchSize {
		select {
		case ev, ok := <-q.cons.Receive():
			if !ok {
				return batch
			}
			batch = append(batch, ev)
		default:
			return batch
		}
	}
	return batch
}

func (q *Queue) flush() {
	defer q.close()
	for q.pending.Load() > 0 {
		ev, ok := <-q.cons.Receive()
		if !ok {
			return
		}
		q.handleBatch(q.collectBatch(ev))
	}
}

func (q *Queue) close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.prod.Close()
	q.cons.Close()
}

func (q *Queue) handleBatch(batch []Event) {
	defer q.pending.Add(-int64(len(batch)))
	if err := q.tryHandleBatch(batch); err != nil {
		slog.Error("Engine event batch failed",
			slog.Int("batch_size", len(batch)),
			log.Error(err))
	}
}

func (q *Queue) tryHandleBatch(batch []Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrHandlerPanicked, r)
		}
	}()
	return q.handler(batch)
}
