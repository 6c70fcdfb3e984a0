package engine

import (
	"context"
	"errors"
	"iter"

	"github.com/kode4food/caravan/topic"

	"github.com/kode4food/seqexec/pkg/api"
)

// Subscription is a lazy stream of engine snapshots. Each subscriber reads
// at its own pace, and only sees snapshots published after it subscribed
type Subscription struct {
	cons    topic.Consumer[*api.Snapshot]
	done    <-chan struct{}
	initial *api.Snapshot
	after   int64
}

var ErrSubscriptionClosed = errors.New("subscription closed")

// Initial returns the snapshot that was current when the subscription was
// made. The stream continues from the snapshot that follows it
func (s *Subscription) Initial() *api.Snapshot {
	return s.initial
}

// Next blocks until the next snapshot is available, the context is done,
// or the engine stops
func (s *Subscription) Next(ctx context.Context) (*api.Snapshot, error) {
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-s.done:
			return nil, ErrSubscriptionClosed
		case snap, ok := <-s.cons.Receive():
			if !ok {
				return nil, ErrSubscriptionClosed
			}
			if snap.Seq <= s.after {
				continue
			}
			s.after = snap.Seq
			return snap, nil
		}
	}
}

// All returns an iterator over the remaining snapshots. Iteration ends when
// the context is done or the engine stops
func (s *Subscription) All(ctx context.Context) iter.Seq[*api.Snapshot] {
	return func(yield func(*api.Snapshot) bool) {
		for {
			snap, err := s.Next(ctx)
			if err != nil || !yield(snap) {
				return
			}
		}
	}
}

// Close releases the subscription
func (s *Subscription) Close() {
	s.cons.Close()
}
