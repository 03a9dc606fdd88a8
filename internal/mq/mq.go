package mq

import (
	"context"
	"errors"
	"fmt"

	"github.com/lecturehub/apiserver/config"
)

// ErrDisabled is returned by Subscribe when no broker is configured.
var ErrDisabled = errors.New("message queue disabled")

// Message represents a broker-agnostic payload delivered to subscribers.
type Message struct {
	ID         string
	Data       []byte
	Attributes map[string]string
}

// Handler processes a message. Return an error to signal a retry/nack.
type Handler func(ctx context.Context, msg Message) error

// Backend defines the broker-agnostic operations used by the app.
type Backend interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
	Subscribe(ctx context.Context, channel string, handler Handler) error
	Close() error
}

// MQ wraps a backend with a stable API.
type MQ struct {
	backend Backend
}

// New constructs an MQ wrapper for the provided backend.
func New(backend Backend) *MQ {
	return &MQ{backend: backend}
}

// Open connects to the configured broker. MQ_BACKEND=none yields an MQ
// that drops published messages.
func Open(ctx context.Context, cfg config.MQConfig) (*MQ, error) {
	switch cfg.Kind {
	case config.MQRabbitMQ:
		backend, err := NewRabbitMQClient(cfg.RabbitMQ)
		if err != nil {
			return nil, fmt.Errorf("rabbitmq: %w", err)
		}
		return New(backend), nil
	case config.MQPubSub:
		backend, err := NewPubSubClient(ctx, cfg.PubSub)
		if err != nil {
			return nil, fmt.Errorf("pubsub: %w", err)
		}
		return New(backend), nil
	case config.MQNone, "":
		return New(noopBackend{}), nil
	default:
		return nil, fmt.Errorf("unknown MQ_BACKEND %q", cfg.Kind)
	}
}

// Enabled reports whether messages reach a broker.
func (m *MQ) Enabled() bool {
	_, noop := m.backend.(noopBackend)
	return !noop
}

// Publish sends a message to the named channel.
func (m *MQ) Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	return m.backend.Publish(ctx, channel, data, attrs)
}

// Subscribe consumes messages from the named channel.
func (m *MQ) Subscribe(ctx context.Context, channel string, handler Handler) error {
	return m.backend.Subscribe(ctx, channel, handler)
}

// Close closes the underlying backend.
func (m *MQ) Close() error {
	return m.backend.Close()
}

type noopBackend struct{}

func (noopBackend) Publish(context.Context, string, []byte, map[string]string) (string, error) {
	return "", nil
}

func (noopBackend) Subscribe(context.Context, string, Handler) error {
	return ErrDisabled
}

func (noopBackend) Close() error {
	return nil
}
