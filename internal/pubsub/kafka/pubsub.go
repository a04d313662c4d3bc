package kafka

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/billingsim/billingsim/internal/config"
	"github.com/billingsim/billingsim/internal/kafka"
	"github.com/billingsim/billingsim/internal/logger"
	"github.com/billingsim/billingsim/internal/pubsub"
)

type PubSub struct {
	producer *kafka.Producer
	consumer *kafka.Consumer
	config   *config.Configuration
	logger   *logger.Logger
}

// NewPubSub creates a new kafka-based pubsub
func NewPubSub(
	config *config.Configuration,
	logger *logger.Logger,
	producer *kafka.Producer,
	consumer *kafka.Consumer,
) pubsub.PubSub {
	return &PubSub{
		producer: producer,
		consumer: consumer,
		config:   config,
		logger:   logger,
	}
}

// Publish publishes a notification event
func (p *PubSub) Publish(ctx context.Context, topic string, msg *message.Message) error {
	return p.producer.Publish(topic, msg)
}

// Subscribe starts consuming notification events
func (p *PubSub) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return p.consumer.Subscribe(topic)
}

// Close closes the pubsub
func (p *PubSub) Close() error {
	p.producer.Close()
	p.consumer.Close()

	return nil
}
