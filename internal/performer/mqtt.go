package performer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"

	"github.com/kode4food/seqexec/internal/engine"
	"github.com/kode4food/seqexec/pkg/api"
	"github.com/kode4food/seqexec/pkg/log"
)

type (
	// MQTT performs actions by publishing commands to the control system of
	// the action's resource and waiting for correlated replies. Commands go
	// to <prefix>/command/<resource>, aborts to <prefix>/abort/<resource>,
	// and replies arrive on <prefix>/reply/<resource>
	MQTT struct {
		broker Broker
		prefix string
		calls  map[string]*call
		mu     sync.Mutex
	}

	// Command is the payload published to start an action
	Command struct {
		CorrelationID string `json:"correlation_id"`
		api.ActionCoord
		Kind       api.ActionKind `json:"kind"`
		Resource   api.Resource   `json:"resource"`
		Instrument api.Resource   `json:"instrument"`
	}

	// Abort is the payload published when an action is abandoned
	Abort struct {
		CorrelationID string `json:"correlation_id"`
	}

	call struct {
		reporter engine.Reporter
		done     chan outcome
	}

	outcome struct {
		args api.Args
		err  error
	}
)

const (
	ReplyPartial   = "partial"
	ReplyPaused    = "paused"
	ReplyResumed   = "resumed"
	ReplyCompleted = "completed"
	ReplyFailed    = "failed"
)

var (
	ErrActionFailed = errors.New("action failed")
	ErrInvalidReply = errors.New("invalid reply")
)

var _ engine.Performer = (*MQTT)(nil)

// NewMQTT subscribes to the reply topics under prefix and returns a bridge
// ready to perform actions
func NewMQTT(b Broker, prefix string) (*MQTT, error) {
	m := &MQTT{
		broker: b,
		prefix: prefix,
		calls:  map[string]*call{},
	}
	if err := b.Subscribe(prefix+"/reply/#", m.handleReply); err != nil {
		return nil, err
	}
	return m, nil
}

// Perform publishes the command for an action and blocks until the control
// system reports completion or failure, or ctx ends
func (m *MQTT) Perform(
	ctx context.Context, a engine.StartAction, r engine.Reporter,
) (api.Args, error) {
	id := uuid.NewString()
	c := &call{reporter: r, done: make(chan outcome, 1)}
	m.register(id, c)
	defer m.unregister(id)

	payload, err := json.Marshal(Command{
		CorrelationID: id,
		ActionCoord:   a.ActionCoord,
		Kind:          a.Work.Kind,
		Resource:      a.Work.Resource,
		Instrument:    a.Instrument,
	})
	if err != nil {
		return nil, err
	}
	topic := m.topic("command", a.Work.Resource)
	if err := m.broker.Publish(topic, payload); err != nil {
		return nil, err
	}

	select {
	case out := <-c.done:
		return out.args, out.err
	case <-ctx.Done():
		m.abort(id, a.Work.Resource)
		return nil, ctx.Err()
	}
}

// Pending returns the number of commands awaiting a final reply
func (m *MQTT) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *MQTT) handleReply(topic string, payload []byte) {
	if !gjson.ValidBytes(payload) {
		slog.Warn("Malformed MQTT reply",
			slog.String("topic", topic),
			log.Error(ErrInvalidReply))
		return
	}

	res := gjson.GetManyBytes(payload, "correlation_id", "type")
	id, typ := res[0].String(), res[1].String()
	c, ok := m.lookup(id)
	if !ok {
		slog.Debug("Reply for unknown command",
			slog.String("topic", topic),
			slog.String("correlation_id", id))
		return
	}

	switch typ {
	case ReplyPartial:
		p := gjson.GetManyBytes(payload, "partial.kind", "partial.value")
		c.reporter.Partial(api.PartialResult{
			Kind:  api.PartialKind(p[0].String()),
			Value: p[1].String(),
		})
	case ReplyPaused:
		c.reporter.Paused(gjson.GetBytes(payload, "context").String())
	case ReplyResumed:
		c.reporter.Resumed()
	case ReplyCompleted:
		c.finish(outcome{args: resultArgs(payload)})
	case ReplyFailed:
		msg := gjson.GetBytes(payload, "error").String()
		c.finish(outcome{err: fmt.Errorf("%w: %s", ErrActionFailed, msg)})
	default:
		slog.Warn("Unknown MQTT reply type",
			slog.String("topic", topic),
			slog.String("type", typ))
	}
}

func (m *MQTT) abort(id string, res api.Resource) {
	payload, _ := json.Marshal(Abort{CorrelationID: id})
	if err := m.broker.Publish(m.topic("abort", res), payload); err != nil {
		slog.Warn("Failed to publish abort",
			log.Resource(res),
			log.Error(err))
	}
}

func (m *MQTT) topic(kind string, res api.Resource) string {
	return fmt.Sprintf("%s/%s/%s", m.prefix, kind, res)
}

func (m *MQTT) register(id string, c *call) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[id] = c
}

func (m *MQTT) unregister(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.calls, id)
}

func (m *MQTT) lookup(id string) (*call, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.calls[id]
	return c, ok
}

func (c *call) finish(out outcome) {
	select {
	case c.done <- out:
	default:
	}
}

func resultArgs(payload []byte) api.Args {
	res := gjson.GetBytes(payload, "result")
	if v, ok := res.Value().(map[string]any); ok {
		return v
	}
	return api.Args{}
}
