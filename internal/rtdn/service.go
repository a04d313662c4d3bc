package rtdn

import (
	"fmt"

	"github.com/billingsim/billingsim/internal/config"
	"github.com/billingsim/billingsim/internal/logger"
	pubsubRouter "github.com/billingsim/billingsim/internal/pubsub/router"
	"github.com/billingsim/billingsim/internal/rtdn/handler"
	"github.com/billingsim/billingsim/internal/rtdn/publisher"
)

// DispatchService orchestrates developer notification dispatch
type DispatchService struct {
	config    *config.Configuration
	publisher publisher.NotificationPublisher
	handler   handler.Handler
	logger    *logger.Logger
}

// NewDispatchService creates a new notification dispatch service
func NewDispatchService(
	cfg *config.Configuration,
	publisher publisher.NotificationPublisher,
	h handler.Handler,
	l *logger.Logger,
) *DispatchService {
	return &DispatchService{
		config:    cfg,
		publisher: publisher,
		handler:   h,
		logger:    l,
	}
}

// RegisterHandler wires the notification consumer onto the message router
func (s *DispatchService) RegisterHandler(router *pubsubRouter.Router) {
	if !s.config.Notification.Enabled {
		s.logger.Info("notification dispatch disabled")
		return
	}

	s.handler.RegisterHandler(router)
	s.logger.Info("notification dispatch handler registered")
}

// Stop stops the dispatch service
func (s *DispatchService) Stop() error {
	s.logger.Debug("stopping notification dispatch service")

	if err := s.publisher.Close(); err != nil {
		s.logger.Errorw("failed to close notification publisher", "error", err)
		return fmt.Errorf("failed to close notification publisher: %w", err)
	}

	s.logger.Info("notification dispatch service stopped")
	return nil
}
