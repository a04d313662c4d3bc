package publisher

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/billingsim/billingsim/internal/config"
	"github.com/billingsim/billingsim/internal/logger"
	"github.com/billingsim/billingsim/internal/pubsub"
	"github.com/billingsim/billingsim/internal/types"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// NotificationPublisher interface for producing developer notifications
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, notification *types.DeveloperNotification) error
	Close() error
}

type notificationPublisher struct {
	pubSub pubsub.PubSub
	config *config.Notification
	logger *logger.Logger
}

// NewPublisher creates a new notification publisher on top of the
// configured pubsub backend
func NewPublisher(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	logger *logger.Logger,
) (NotificationPublisher, error) {
	return &notificationPublisher{
		pubSub: pubSub,
		config: &cfg.Notification,
		logger: logger,
	}, nil
}

func (p *notificationPublisher) PublishNotification(ctx context.Context, notification *types.DeveloperNotification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	messageID := types.GenerateUUIDWithPrefix(types.UUID_PREFIX_NOTIFICATION)

	msg := message.NewMessage(messageID, payload)
	msg.Metadata.Set("package_name", notification.PackageName)

	p.logger.Debugw("publishing developer notification",
		"message_id", messageID,
		"package_name", notification.PackageName,
		"event_time_millis", notification.EventTimeMillis,
		"topic", p.config.Topic,
		"payload", string(payload),
	)

	if err := p.pubSub.Publish(ctx, p.config.Topic, msg); err != nil {
		p.logger.Errorw("failed to publish developer notification",
			"error", err,
			"message_id", messageID,
			"package_name", notification.PackageName,
		)
		return err
	}

	p.logger.Infow("successfully published developer notification",
		"message_id", messageID,
		"package_name", notification.PackageName,
	)

	return nil
}

// Close closes the publisher
func (p *notificationPublisher) Close() error {
	return p.pubSub.Close()
}
