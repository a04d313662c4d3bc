package rtdn

import (
	"github.com/billingsim/billingsim/internal/config"
	"github.com/billingsim/billingsim/internal/kafka"
	"github.com/billingsim/billingsim/internal/logger"
	"github.com/billingsim/billingsim/internal/pubsub"
	kafkaPubSub "github.com/billingsim/billingsim/internal/pubsub/kafka"
	"github.com/billingsim/billingsim/internal/pubsub/memory"
	"github.com/billingsim/billingsim/internal/rtdn/handler"
	"github.com/billingsim/billingsim/internal/rtdn/publisher"
	"github.com/billingsim/billingsim/internal/types"
	"go.uber.org/fx"
)

// Module provides all notification dispatch dependencies
var Module = fx.Options(
	fx.Provide(
		// PubSub transport for developer notifications
		providePubSub,
	),

	fx.Provide(
		// Publisher for producing developer notifications
		publisher.NewPublisher,

		// Handler for delivering notifications to push endpoints
		handler.NewHandler,

		// Main dispatch service
		NewDispatchService,
	),
)

func providePubSub(
	cfg *config.Configuration,
	logger *logger.Logger,
) (pubsub.PubSub, error) {
	switch cfg.Notification.PubSub {
	case types.MemoryPubSub:
		return memory.NewPubSub(cfg, logger), nil
	case types.KafkaPubSub:
		producer, err := kafka.NewProducer(cfg)
		if err != nil {
			return nil, err
		}
		consumer, err := kafka.NewConsumer(cfg)
		if err != nil {
			return nil, err
		}
		return kafkaPubSub.NewPubSub(cfg, logger, producer, consumer), nil
	}
	panic("unsupported pubsub type")
}
