package service

import (
	"context"

	"github.com/billingsim/billingsim/internal/clock"
	"github.com/billingsim/billingsim/internal/domain/purchase"
	"github.com/billingsim/billingsim/internal/domain/subscription"
	ierr "github.com/billingsim/billingsim/internal/errors"
	"github.com/billingsim/billingsim/internal/logger"
	"github.com/billingsim/billingsim/internal/rtdn/publisher"
	"github.com/billingsim/billingsim/internal/types"
)

// OrderService refunds by order id. Order ids index into both stores:
// subscriptions are checked first, then one-time purchases. Only the
// current order of a subscription is refundable; orders from earlier
// renewal cycles dangle on purpose.
type OrderService interface {
	RefundOrder(ctx context.Context, packageName, orderID string, revoke bool) error
}

type orderService struct {
	subscriptions subscription.Repository
	purchases     purchase.Repository
	clock         clock.Clock
	publisher     publisher.NotificationPublisher
	logger        *logger.Logger
}

func NewOrderService(
	subscriptions subscription.Repository,
	purchases purchase.Repository,
	clk clock.Clock,
	pub publisher.NotificationPublisher,
	log *logger.Logger,
) OrderService {
	return &orderService{
		subscriptions: subscriptions,
		purchases:     purchases,
		clock:         clk,
		publisher:     pub,
		logger:        log,
	}
}

func (s *orderService) RefundOrder(ctx context.Context, packageName, orderID string, revoke bool) error {
	sub, err := s.subscriptions.GetByOrderID(ctx, orderID)
	if err == nil {
		return s.refundSubscriptionOrder(ctx, packageName, sub)
	}
	if !ierr.IsNotFound(err) {
		return err
	}

	p, err := s.purchases.GetByOrderID(ctx, orderID)
	if err == nil {
		return s.refundPurchaseOrder(ctx, packageName, p)
	}
	if !ierr.IsNotFound(err) {
		return err
	}

	return ierr.NewError("order not found").
		WithHint(msgOrderNotFound).
		WithReportableDetails(map[string]any{
			"order_id": orderID,
		}).
		Mark(ierr.ErrNotFound)
}

// refundSubscriptionOrder revokes the subscription the order belongs to.
// Refunding an already revoked subscription is a no-op.
func (s *orderService) refundSubscriptionOrder(ctx context.Context, packageName string, sub *subscription.Subscription) error {
	if sub.PackageName != packageName {
		return orderPackageMismatchError(packageName)
	}
	if sub.State == types.SubscriptionStateRevoked {
		return nil
	}

	nowMillis := s.clock.NowMillis()

	var notification *types.DeveloperNotification
	err := s.subscriptions.Mutate(ctx, sub.Token, func(sub *subscription.Subscription) error {
		if sub.State == types.SubscriptionStateRevoked {
			return nil
		}
		if sub.State.IsTerminal() {
			return terminalStateError(sub.State)
		}
		applyRevoke(sub, nowMillis)
		notification = types.NewSubscriptionNotification(sub.PackageName, nowMillis, types.NotificationTypeRevoked, sub.Token, sub.SubscriptionID)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Infow("subscription order refunded",
		"token", sub.Token,
		"order_id", sub.OrderID,
	)

	publishNotification(ctx, s.publisher, s.logger, notification)
	return nil
}

// refundPurchaseOrder cancels the one-time purchase the order belongs
// to. No notification is emitted for refunds.
func (s *orderService) refundPurchaseOrder(ctx context.Context, packageName string, p *purchase.Purchase) error {
	if p.PackageName != packageName {
		return orderPackageMismatchError(packageName)
	}
	if p.PurchaseState == types.PurchaseStateCanceled {
		return nil
	}

	err := s.purchases.Mutate(ctx, p.Token, func(p *purchase.Purchase) error {
		p.PurchaseState = types.PurchaseStateCanceled
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Infow("purchase order refunded",
		"token", p.Token,
		"order_id", p.OrderID,
	)
	return nil
}

func orderPackageMismatchError(packageName string) error {
	return ierr.NewError("order package mismatch").
		WithHint(msgOrderPackageMismatch).
		WithReportableDetails(map[string]any{
			"package_name": packageName,
		}).
		Mark(ierr.ErrNotFound)
}
