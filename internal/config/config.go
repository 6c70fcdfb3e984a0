package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

type (
	// Config holds configuration settings for the sequence executor
	Config struct {
		// API Server
		APIHost  string
		APIPort  int
		LogLevel string

		// Engine
		EventQueueSize  int
		EventBatchSize  int
		ActionTimeout   time.Duration
		ShutdownTimeout time.Duration

		// Sequences & Performers
		SequenceDir string
		Performer   string
		MQTT        MQTTConfig
	}

	// MQTTConfig configures the bridge to the hardware control systems
	MQTTConfig struct {
		Broker      string
		ClientID    string
		TopicPrefix string
	}
)

const (
	PerformerSimulator = "simulator"
	PerformerMQTT      = "mqtt"
)

const (
	DefaultAPIPort = 8080
	DefaultAPIHost = "0.0.0.0"
	MaxTCPPort     = 65535

	DefaultEventQueueSize  = 1024
	DefaultEventBatchSize  = 32
	DefaultActionTimeout   = 10 * time.Minute
	DefaultShutdownTimeout = 10 * time.Second

	DefaultMQTTBroker      = "tcp://localhost:1883"
	DefaultMQTTClientID    = "seqexec"
	DefaultMQTTTopicPrefix = "seqexec"

	MaxEventQueueSize = 1_000_000
	MaxEventBatchSize = 10_000
	MaxActionTimeout  = 24 * time.Hour
	MaxShutdown       = time.Hour
)

var (
	ErrInvalidAPIPort         = errors.New("invalid API port")
	ErrInvalidEventQueueSize  = errors.New("event queue size must be positive")
	ErrInvalidEventBatchSize  = errors.New("event batch size must be positive")
	ErrInvalidActionTimeout   = errors.New("action timeout must be positive")
	ErrInvalidShutdownTimeout = errors.New(
		"shutdown timeout must be positive",
	)
	ErrInvalidPerformer  = errors.New("invalid performer")
	ErrMissingMQTTBroker = errors.New("mqtt performer requires a broker")
)

// NewDefaultConfig creates a configuration with sensible defaults for the
// server, the engine, and the simulated performer
func NewDefaultConfig() *Config {
	return &Config{
		APIPort:         DefaultAPIPort,
		APIHost:         DefaultAPIHost,
		LogLevel:        "info",
		EventQueueSize:  DefaultEventQueueSize,
		EventBatchSize:  DefaultEventBatchSize,
		ActionTimeout:   DefaultActionTimeout,
		ShutdownTimeout: DefaultShutdownTimeout,
		Performer:       PerformerSimulator,
		MQTT: MQTTConfig{
			Broker:      DefaultMQTTBroker,
			ClientID:    DefaultMQTTClientID,
			TopicPrefix: DefaultMQTTTopicPrefix,
		},
	}
}

// LoadFromEnv populates configuration values from environment variables.
// Returns an error if any env var cannot be parsed
func (c *Config) LoadFromEnv() error {
	loadEnvString("API_HOST", &c.APIHost)
	loadEnvString("LOG_LEVEL", &c.LogLevel)
	loadEnvString("SEQUENCE_DIR", &c.SequenceDir)
	loadEnvString("PERFORMER", &c.Performer)
	loadEnvString("MQTT_BROKER", &c.MQTT.Broker)
	loadEnvString("MQTT_CLIENT_ID", &c.MQTT.ClientID)
	loadEnvString("MQTT_TOPIC_PREFIX", &c.MQTT.TopicPrefix)

	if err := loadEnvInt("API_PORT", &c.APIPort, 0, MaxTCPPort); err != nil {
		return err
	}
	if err := loadEnvInt(
		"EVENT_QUEUE_SIZE", &c.EventQueueSize, 0, MaxEventQueueSize,
	); err != nil {
		return err
	}
	if err := loadEnvInt(
		"EVENT_BATCH_SIZE", &c.EventBatchSize, 0, MaxEventBatchSize,
	); err != nil {
		return err
	}
	if err := loadEnvMillis(
		"ACTION_TIMEOUT", &c.ActionTimeout, MaxActionTimeout,
	); err != nil {
		return err
	}
	return loadEnvMillis(
		"SHUTDOWN_TIMEOUT", &c.ShutdownTimeout, MaxShutdown,
	)
}

// Validate checks that all configuration values are valid
func (c *Config) Validate() error {
	if c.APIPort <= 0 || c.APIPort > MaxTCPPort {
		return fmt.Errorf("%w: %d", ErrInvalidAPIPort, c.APIPort)
	}

	if c.EventQueueSize <= 0 {
		return ErrInvalidEventQueueSize
	}

	if c.EventBatchSize <= 0 {
		return ErrInvalidEventBatchSize
	}

	if c.ActionTimeout <= 0 {
		return ErrInvalidActionTimeout
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	switch c.Performer {
	case PerformerSimulator:
	case PerformerMQTT:
		if c.MQTT.Broker == "" {
			return ErrMissingMQTTBroker
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidPerformer, c.Performer)
	}

	return nil
}

func loadEnvString(key string, dst *string) {
	if s := os.Getenv(key); s != "" {
		*dst = s
	}
}

// loadEnvMillis reads a millisecond count from the environment into a
// duration, bounded by max
func loadEnvMillis(key string, dst *time.Duration, max time.Duration) error {
	ms := dst.Milliseconds()
	if err := loadEnvInt(key, &ms, 0, max.Milliseconds()); err != nil {
		return err
	}
	*dst = time.Duration(ms) * time.Millisecond
	return nil
}

// loadEnvInt reads key from the environment, parses it as an integer, and
// sets *dst if the value is in the range (min, max]. Returns an error if
// the value cannot be parsed or falls outside the valid range
func loadEnvInt[T ~int | ~int64](key string, dst *T, min, max T) error {
	s := os.Getenv(key)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid %s: %q", key, s)
	}
	tv := T(v)
	if tv <= min || tv > max {
		return fmt.Errorf("invalid %s: %d out of range [%d, %d]",
			key, tv, min+1, max)
	}
	*dst = tv
	return nil
}
