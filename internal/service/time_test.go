package service

import (
	"testing"

	"github.com/billingsim/billingsim/internal/api/dto"
	ierr "github.com/billingsim/billingsim/internal/errors"
	"github.com/billingsim/billingsim/internal/testutil"
	"github.com/billingsim/billingsim/internal/types"
	"github.com/stretchr/testify/suite"
)

type TimeServiceSuite struct {
	testutil.BaseServiceTestSuite
	service       TimeService
	subscriptions SubscriptionService
}

func TestTimeService(t *testing.T) {
	suite.Run(t, new(TimeServiceSuite))
}

func (s *TimeServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	stores := s.GetStores()
	s.service = NewTimeService(
		s.GetClock(),
		stores.SubscriptionRepo,
		stores.PurchaseRepo,
		s.GetPublisher(),
		s.GetConfig(),
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
}

func (s *TimeServiceSuite) create(subscriptionID string) *dto.CreateSubscriptionResponse {
	resp, err := s.subscriptions.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		SubscriptionID: subscriptionID,
		UserID:         "user-1",
	})
	s.NoError(err)
	return resp
}

func (s *TimeServiceSuite) advanceDays(days int) *dto.AdvanceTimeResponse {
	resp, err := s.service.AdvanceTime(s.GetContext(), dto.AdvanceTimeRequest{Days: days})
	s.NoError(err)
	return resp
}

func (s *TimeServiceSuite) TestAdvanceTimeValidation() {
	testCases := []struct {
		name  string
		input dto.AdvanceTimeRequest
	}{
		{name: "zero_advance", input: dto.AdvanceTimeRequest{}},
		{name: "negative_days", input: dto.AdvanceTimeRequest{Days: -1}},
		{name: "negative_hours", input: dto.AdvanceTimeRequest{Hours: -2}},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.service.AdvanceTime(s.GetContext(), tc.input)
			s.Error(err)
			s.True(ierr.IsInvalidArgument(err))
		})
	}
}

func (s *TimeServiceSuite) TestAdvanceProcessesMultipleRenewals() {
	created := s.create("premium_monthly")
	s.GetPublisher().Reset()

	resp := s.advanceDays(95)

	// 30-day months: boundaries at day 30, 60 and 90
	s.Equal(3, resp.RenewalsProcessed)
	s.Equal(0, resp.ExpirationsProcessed)
	s.Equal(3, resp.EventsPublished)

	notifications := s.GetPublisher().Notifications()
	s.Len(notifications, 3)
	for i, n := range notifications {
		s.Equal(types.NotificationTypeRenewed, n.SubscriptionNotification.NotificationType)
		s.Equal(created.ExpiryTimeMillis+int64(i)*30*types.MillisPerDay, n.EventTimeMillis)
	}

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), created.Token)
	s.NoError(err)
	s.Equal(3, sub.RenewalCount)
	s.Equal(types.SubscriptionStateActive, sub.State)
	s.Equal(testutil.TestEpochMillis+120*types.MillisPerDay, sub.ExpiryTimeMillis)
	s.NotEqual(created.OrderID, sub.OrderID)
}

func (s *TimeServiceSuite) TestAdvanceYearlyPlanSingleRenewal() {
	s.create("premium_yearly")
	s.GetPublisher().Reset()

	resp := s.advanceDays(366)

	// A fixed 365-day year crosses exactly one boundary in 366 days
	s.Equal(1, resp.RenewalsProcessed)
	s.Equal(0, resp.ExpirationsProcessed)
}

func (s *TimeServiceSuite) TestAdvanceExpiresCancelPending() {
	created := s.create("premium_monthly")
	s.NoError(s.subscriptions.CancelSubscription(s.GetContext(), created.Token, false))
	s.GetPublisher().Reset()

	resp := s.advanceDays(31)

	s.Equal(0, resp.RenewalsProcessed)
	s.Equal(1, resp.ExpirationsProcessed)

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), created.Token)
	s.NoError(err)
	s.Equal(types.SubscriptionStateExpired, sub.State)
	s.Equal(created.ExpiryTimeMillis, sub.ExpiryTimeMillis)

	notifications := s.GetPublisher().Notifications()
	s.Len(notifications, 1)
	s.Equal(created.ExpiryTimeMillis, notifications[0].EventTimeMillis)
}

func (s *TimeServiceSuite) TestAdvanceMovesGracePeriodToOnHold() {
	created := s.create("premium_monthly")
	s.NoError(s.subscriptions.PaymentFailed(s.GetContext(), created.Token))
	s.GetPublisher().Reset()

	deadline := s.GetClock().NowMillis() + 7*types.MillisPerDay
	s.advanceDays(10)

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), created.Token)
	s.NoError(err)
	s.Equal(types.SubscriptionStateOnHold, sub.State)
	s.Nil(sub.GracePeriodDeadlineMillis)
	s.NotNil(sub.AccountHoldStartMillis)
	s.Equal(deadline, *sub.AccountHoldStartMillis)

	events := s.GetPublisher().SubscriptionEvents()
	s.Equal([]types.NotificationType{types.NotificationTypeOnHold}, events)

	// On hold has no further boundary; more time changes nothing
	s.GetPublisher().Reset()
	s.advanceDays(60)
	s.Empty(s.GetPublisher().SubscriptionEvents())
}

func (s *TimeServiceSuite) TestAdvanceSkipsPausedSubscription() {
	created := s.create("premium_monthly")
	s.NoError(s.subscriptions.PauseSubscription(s.GetContext(), created.Token, dto.PauseSubscriptionRequest{}))
	s.GetPublisher().Reset()

	s.advanceDays(90)

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), created.Token)
	s.NoError(err)
	s.Equal(types.SubscriptionStatePaused, sub.State)
	s.Equal(created.ExpiryTimeMillis, sub.ExpiryTimeMillis)
	s.Empty(s.GetPublisher().SubscriptionEvents())
}

func (s *TimeServiceSuite) TestTrialConvertsOnFirstBoundary() {
	resp, err := s.subscriptions.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		SubscriptionID: "premium_monthly",
		UserID:         "user-1",
		StartTrial:     true,
	})
	s.NoError(err)
	s.GetPublisher().Reset()

	s.advanceDays(8)

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), resp.Token)
	s.NoError(err)
	s.False(sub.InTrial)
	s.Nil(sub.TrialExpiryMillis)
	s.Equal(types.PaymentStateReceived, sub.PaymentState)

	// Paid period starts at the trial boundary, not at the advance time
	s.Equal(resp.ExpiryTimeMillis+30*types.MillisPerDay, sub.ExpiryTimeMillis)

	events := s.GetPublisher().SubscriptionEvents()
	s.Equal([]types.NotificationType{types.NotificationTypeRenewed}, events)
}

func (s *TimeServiceSuite) TestSetTime() {
	s.create("premium_monthly")
	s.GetPublisher().Reset()

	target := testutil.TestEpochMillis + 65*types.MillisPerDay
	resp, err := s.service.SetTime(s.GetContext(), dto.SetTimeRequest{TimeMillis: target})
	s.NoError(err)
	s.Equal(target, resp.CurrentTimeMillis)
	s.Equal(2, resp.RenewalsProcessed)

	// The clock never moves backwards
	_, err = s.service.SetTime(s.GetContext(), dto.SetTimeRequest{TimeMillis: testutil.TestEpochMillis})
	s.Error(err)
	s.True(ierr.IsInvalidArgument(err))
}

func (s *TimeServiceSuite) TestResetTime() {
	s.advanceDays(5)

	resp, err := s.service.ResetTime(s.GetContext())
	s.NoError(err)
	s.Equal(testutil.TestEpochMillis+5*types.MillisPerDay, resp.PreviousTimeMillis)
	s.Equal(testutil.TestEpochMillis, resp.CurrentTimeMillis)
}

func (s *TimeServiceSuite) TestResetState() {
	s.create("premium_monthly")
	s.advanceDays(5)

	resp, err := s.service.ResetState(s.GetContext())
	s.NoError(err)
	s.Equal(1, resp.SubscriptionsDeleted)
	s.Equal(0, resp.PurchasesDeleted)
	s.True(resp.TimeReset)

	count, err := s.GetStores().SubscriptionRepo.Count(s.GetContext())
	s.NoError(err)
	s.Zero(count)
	s.Equal(testutil.TestEpochMillis, s.GetClock().NowMillis())
}

func (s *TimeServiceSuite) TestStatus() {
	s.create("premium_monthly")

	resp, err := s.service.Status(s.GetContext())
	s.NoError(err)
	s.Equal("ok", resp.Status)
	s.Equal(testutil.TestEpochMillis, resp.CurrentTimeMillis)
	s.Equal(testutil.TestEpochMillis, resp.EpochMillis)
	s.Equal(1, resp.Statistics["subscriptions"])
	s.Equal(1, resp.Statistics["active_subscriptions"])
}
