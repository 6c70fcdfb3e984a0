package performer_test

import (
	"sync"

	"github.com/kode4food/seqexec/internal/engine"
	"github.com/kode4food/seqexec/internal/performer"
	"github.com/kode4food/seqexec/pkg/api"
)

type (
	message struct {
		topic   string
		payload []byte
	}

	fakeBroker struct {
		published chan message
		handlers  map[string]performer.MessageHandler
		subErr    error
		mu        sync.Mutex
	}

	recorder struct {
		partials []api.PartialResult
		paused   []string
		resumed  int
		mu       sync.Mutex
	}
)

var _ performer.Broker = (*fakeBroker)(nil)

func newFakeBroker() *fakeBroker {
	return &fakeBroker{
		published: make(chan message, 16),
		handlers:  map[string]performer.MessageHandler{},
	}
}

func (b *fakeBroker) Publish(topic string, payload []byte) error {
	b.published <- message{topic: topic, payload: payload}
	return nil
}

func (b *fakeBroker) Subscribe(
	topic string, handler performer.MessageHandler,
) error {
	if b.subErr != nil {
		return b.subErr
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = handler
	return nil
}

func (b *fakeBroker) Close() error {
	return nil
}

func (b *fakeBroker) deliver(filter, topic, payload string) {
	b.mu.Lock()
	h := b.handlers[filter]
	b.mu.Unlock()
	h(topic, []byte(payload))
}

func (r *recorder) Partial(p api.PartialResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.partials = append(r.partials, p)
}

func (r *recorder) Paused(ctx string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paused = append(r.paused, ctx)
}

func (r *recorder) Resumed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.resumed++
}

func (r *recorder) snapshot() ([]api.PartialResult, []string, int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]api.PartialResult(nil), r.partials...),
		append([]string(nil), r.paused...), r.resumed
}

func startAction(a api.Action) engine.StartAction {
	return engine.StartAction{
		ActionCoord: api.ActionCoord{
			SequenceID: "S1",
			Run:        1,
			Step:       2,
			Group:      0,
			Action:     1,
		},
		Work:       a,
		Instrument: api.ResourceGmosS,
	}
}
