package performer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/kode4food/seqexec/internal/config"
	"github.com/kode4food/seqexec/pkg/log"
)

type (
	// Broker is the message transport used by the MQTT bridge
	Broker interface {
		Publish(topic string, payload []byte) error
		Subscribe(topic string, handler MessageHandler) error
		Close() error
	}

	// MessageHandler receives messages delivered on a subscribed topic
	MessageHandler func(topic string, payload []byte)

	// PahoBroker is a Broker backed by an Eclipse Paho MQTT client.
	// Subscriptions are restored when the client reconnects
	PahoBroker struct {
		client pahomqtt.Client
		subs   map[string]MessageHandler
		mu     sync.RWMutex
	}
)

const (
	qos              = 1
	connectTimeout   = 10 * time.Second
	operationTimeout = 5 * time.Second
	keepAlive        = 60 * time.Second
	maxReconnect     = 30 * time.Second
	disconnectQuiet  = 1000 // milliseconds
)

var (
	ErrConnectionFailed = errors.New("mqtt connection failed")
	ErrPublishFailed    = errors.New("mqtt publish failed")
	ErrSubscribeFailed  = errors.New("mqtt subscribe failed")
)

var _ Broker = (*PahoBroker)(nil)

// Connect dials the configured broker and waits for the connection
func Connect(cfg config.MQTTConfig) (*PahoBroker, error) {
	b := &PahoBroker{subs: map[string]MessageHandler{}}

	opts := pahomqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID)
	opts.SetCleanSession(true)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetMaxReconnectInterval(maxReconnect)
	opts.SetConnectTimeout(connectTimeout)
	opts.SetKeepAlive(keepAlive)
	opts.SetOnConnectHandler(func(pahomqtt.Client) {
		b.restore()
	})
	opts.SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
		slog.Warn("MQTT connection lost", log.Error(err))
	})

	b.client = pahomqtt.NewClient(opts)
	token := b.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return nil, fmt.Errorf("%w: timeout after %s",
			ErrConnectionFailed, connectTimeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	return b, nil
}

// Publish sends a payload to the topic, waiting for the broker to accept it
func (b *PahoBroker) Publish(topic string, payload []byte) error {
	token := b.client.Publish(topic, qos, false, payload)
	if !token.WaitTimeout(operationTimeout) {
		return fmt.Errorf("%w: timeout after %s",
			ErrPublishFailed, operationTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("%w: %w", ErrPublishFailed, err)
	}
	return nil
}

// Subscribe registers a handler for a topic filter
func (b *PahoBroker) Subscribe(topic string, handler MessageHandler) error {
	b.mu.Lock()
	b.subs[topic] = handler
	b.mu.Unlock()

	token := b.client.Subscribe(topic, qos, wrap(handler))
	if !token.WaitTimeout(operationTimeout) {
		b.forget(topic)
		return fmt.Errorf("%w: timeout after %s",
			ErrSubscribeFailed, operationTimeout)
	}
	if err := token.Error(); err != nil {
		b.forget(topic)
		return fmt.Errorf("%w: %w", ErrSubscribeFailed, err)
	}
	return nil
}

// Close disconnects from the broker
func (b *PahoBroker) Close() error {
	b.client.Disconnect(disconnectQuiet)
	return nil
}

func (b *PahoBroker) restore() {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for topic, handler := range b.subs {
		b.client.Subscribe(topic, qos, wrap(handler))
	}
}

func (b *PahoBroker) forget(topic string) {
	b.mu.Lock()
	delete(b.subs, topic)
	b.mu.Unlock()
}

func wrap(handler MessageHandler) pahomqtt.MessageHandler {
	return func(_ pahomqtt.Client, msg pahomqtt.Message) {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("MQTT handler panicked",
					slog.String("topic", msg.Topic()),
					slog.Any("panic", r))
			}
		}()
		handler(msg.Topic(), msg.Payload())
	}
}
