package service

import (
	"testing"

	"github.com/billingsim/billingsim/internal/api/dto"
	ierr "github.com/billingsim/billingsim/internal/errors"
	"github.com/billingsim/billingsim/internal/testutil"
	"github.com/billingsim/billingsim/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

type OrderServiceSuite struct {
	testutil.BaseServiceTestSuite
	service       OrderService
	subscriptions SubscriptionService
	purchases     PurchaseService
}

func TestOrderService(t *testing.T) {
	suite.Run(t, new(OrderServiceSuite))
}

func (s *OrderServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	stores := s.GetStores()
	s.service = NewOrderService(
		stores.SubscriptionRepo,
		stores.PurchaseRepo,
		s.GetClock(),
		s.GetPublisher(),
		s.GetLogger(),
	)
	s.subscriptions = NewSubscriptionService(
		stores.SubscriptionRepo,
		stores.CatalogRepo,
		s.GetClock(),
		s.GetPublisher(),
		s.GetConfig(),
		s.GetLogger(),
	)
	s.purchases = NewPurchaseService(
		stores.PurchaseRepo,
		stores.CatalogRepo,
		s.GetClock(),
		s.GetPublisher(),
		s.GetConfig(),
		s.GetLogger(),
	)
}

func (s *OrderServiceSuite) TestRefundSubscriptionOrder() {
	created, err := s.subscriptions.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		SubscriptionID: "premium_monthly",
		UserID:         "user-1",
	})
	s.NoError(err)

	s.NoError(s.service.RefundOrder(s.GetContext(), "com.example.app", created.OrderID, true))

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), created.Token)
	s.NoError(err)
	s.Equal(types.SubscriptionStateRevoked, sub.State)

	events := s.GetPublisher().SubscriptionEvents()
	s.Equal(types.NotificationTypeRevoked, events[len(events)-1])

	// Refunding the same order again is a no-op
	s.NoError(s.service.RefundOrder(s.GetContext(), "com.example.app", created.OrderID, true))
	s.Len(s.GetPublisher().SubscriptionEvents(), len(events))
}

func (s *OrderServiceSuite) TestRefundRoutesToCurrentOrderOnly() {
	created, err := s.subscriptions.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		SubscriptionID: "premium_monthly",
		UserID:         "user-1",
	})
	s.NoError(err)

	// Renewal mints a new order id; the old one no longer routes
	s.NoError(s.subscriptions.RenewSubscription(s.GetContext(), created.Token))

	err = s.service.RefundOrder(s.GetContext(), "com.example.app", created.OrderID, false)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
	s.Contains(errors.GetAllHints(err), msgOrderNotFound)

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), created.Token)
	s.NoError(err)
	s.NoError(s.service.RefundOrder(s.GetContext(), "com.example.app", sub.OrderID, false))

	sub, err = s.GetStores().SubscriptionRepo.Get(s.GetContext(), created.Token)
	s.NoError(err)
	s.Equal(types.SubscriptionStateRevoked, sub.State)
}

func (s *OrderServiceSuite) TestRefundPurchaseOrder() {
	created, err := s.purchases.CreatePurchase(s.GetContext(), dto.CreatePurchaseRequest{
		ProductID: "coins_100",
		UserID:    "user-1",
	})
	s.NoError(err)
	eventCount := len(s.GetPublisher().Notifications())

	s.NoError(s.service.RefundOrder(s.GetContext(), "com.example.app", created.OrderID, false))

	p, err := s.GetStores().PurchaseRepo.Get(s.GetContext(), created.Token)
	s.NoError(err)
	s.Equal(types.PurchaseStateCanceled, p.PurchaseState)

	// Purchase refunds emit no notification, and repeats are no-ops
	s.Len(s.GetPublisher().Notifications(), eventCount)
	s.NoError(s.service.RefundOrder(s.GetContext(), "com.example.app", created.OrderID, false))
}

func (s *OrderServiceSuite) TestRefundOrderNotFound() {
	err := s.service.RefundOrder(s.GetContext(), "com.example.app", "GPA.0000-0000-0000-0000", false)
	s.Error(err)
	s.True(ierr.IsNotFound(err))
	s.Contains(errors.GetAllHints(err), msgOrderNotFound)
}

func (s *OrderServiceSuite) TestRefundOrderPackageMismatch() {
	created, err := s.subscriptions.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		SubscriptionID: "premium_monthly",
		UserID:         "user-1",
	})
	s.NoError(err)

	err = s.service.RefundOrder(s.GetContext(), "com.other.app", created.OrderID, false)
	s.Error(err)
	s.True(ierr.IsNotFound(err))

	// Mismatch carries its own message, distinct from the unknown-order one
	hints := errors.GetAllHints(err)
	s.Contains(hints, msgOrderPackageMismatch)
	s.NotContains(hints, msgOrderNotFound)

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), created.Token)
	s.NoError(err)
	s.Equal(types.SubscriptionStateActive, sub.State)
}
