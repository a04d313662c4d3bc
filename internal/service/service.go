package service

import (
	"context"

	"github.com/billingsim/billingsim/internal/logger"
	"github.com/billingsim/billingsim/internal/rtdn/publisher"
	"github.com/billingsim/billingsim/internal/types"
)

// Protocol-visible messages for identity and routing mismatches.
// Callers depend on the exact text, each mismatch keeps its own message.
const (
	msgSubscriptionPackageMismatch = "The subscription does not exist for this package."
	msgSubscriptionProductMismatch = "The subscription does not exist for this product."
	msgOrderNotFound               = "The order was not found."
	msgOrderPackageMismatch        = "The order does not exist for this package."
	msgPurchaseTokenNotFound       = "The purchase token was not found."
)

// publishNotification sends a developer notification after a committed
// state transition. Delivery failures are logged and never propagated:
// the command that produced the event has already succeeded.
func publishNotification(
	ctx context.Context,
	pub publisher.NotificationPublisher,
	log *logger.Logger,
	notification *types.DeveloperNotification,
) {
	if pub == nil || notification == nil {
		return
	}

	if err := pub.PublishNotification(ctx, notification); err != nil {
		log.Errorw("failed to publish developer notification",
			"error", err,
			"package_name", notification.PackageName,
			"event_time_millis", notification.EventTimeMillis,
		)
	}
}
