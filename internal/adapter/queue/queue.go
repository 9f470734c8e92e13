package queue

import (
	"fmt"

	"go.uber.org/zap"
)

// MessageQueue defines the interface for a message queue adapter
type MessageQueue interface {
	Publish(subject string, data []byte) error
	Subscribe(subject string, handler func(data []byte) error) error
	Close() error
}

// New builds a MessageQueue for the configured provider. Supported
// providers are "nats" and "rabbitmq".
func New(provider, url string, log *zap.Logger) (MessageQueue, error) {
	switch provider {
	case "nats":
		return NewNATSQueue(url, log)
	case "rabbitmq":
		return NewRabbitMQQueue(url, log)
	default:
		return nil, fmt.Errorf("unknown queue provider: %q", provider)
	}
}
