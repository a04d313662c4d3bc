package handler

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/billingsim/billingsim/internal/config"
	"github.com/billingsim/billingsim/internal/httpclient"
	"github.com/billingsim/billingsim/internal/logger"
	"github.com/billingsim/billingsim/internal/pubsub"
	pubsubRouter "github.com/billingsim/billingsim/internal/pubsub/router"
	"github.com/billingsim/billingsim/internal/types"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Handler interface for processing developer notifications
type Handler interface {
	RegisterHandler(router *pubsubRouter.Router)
}

type handler struct {
	pubSub pubsub.PubSub
	config *config.Notification
	client httpclient.Client
	logger *logger.Logger
}

// NewHandler creates a new notification handler
func NewHandler(
	pubSub pubsub.PubSub,
	cfg *config.Configuration,
	client httpclient.Client,
	logger *logger.Logger,
) (Handler, error) {
	return &handler{
		pubSub: pubSub,
		config: &cfg.Notification,
		client: client,
		logger: logger,
	}, nil
}

func (h *handler) RegisterHandler(router *pubsubRouter.Router) {
	router.AddNoPublishHandler(
		"notification_handler",
		h.config.Topic,
		h.pubSub,
		h.processMessage,
	)
}

// processMessage delivers a single developer notification to every
// enabled push endpoint
func (h *handler) processMessage(msg *message.Message) error {
	ctx := msg.Context()

	var notification types.DeveloperNotification
	if err := json.Unmarshal(msg.Payload, &notification); err != nil {
		h.logger.Errorw("failed to unmarshal developer notification",
			"error", err,
			"message_uuid", msg.UUID,
		)
		return nil // Don't retry on unmarshal errors
	}

	endpoints := h.enabledEndpoints()
	if len(endpoints) == 0 {
		h.logger.Debugw("no push endpoints configured, notification consumed",
			"message_uuid", msg.UUID,
			"package_name", notification.PackageName,
		)
		return nil
	}

	for _, endpoint := range endpoints {
		if err := h.deliver(ctx, endpoint, msg.Payload, msg.UUID); err != nil {
			return err
		}
	}

	return nil
}

func (h *handler) deliver(ctx context.Context, endpoint config.EndpointConfig, payload []byte, messageUUID string) error {
	req := &httpclient.Request{
		Method:  "POST",
		URL:     endpoint.URL,
		Headers: endpoint.Headers,
		Body:    payload,
	}

	resp, err := h.client.Send(ctx, req)
	if err != nil {
		h.logger.Errorw("failed to deliver notification",
			"error", err,
			"message_uuid", messageUUID,
			"endpoint", endpoint.URL,
		)
		return err
	}

	h.logger.Infow("notification delivered",
		"message_uuid", messageUUID,
		"endpoint", endpoint.URL,
		"status_code", resp.StatusCode,
	)

	return nil
}

func (h *handler) enabledEndpoints() []config.EndpointConfig {
	var endpoints []config.EndpointConfig
	for _, e := range h.config.Endpoints {
		if e.Enabled {
			endpoints = append(endpoints, e)
		}
	}
	return endpoints
}
