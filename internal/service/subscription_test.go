package service

import (
	"strconv"
	"testing"

	"github.com/billingsim/billingsim/internal/api/dto"
	ierr "github.com/billingsim/billingsim/internal/errors"
	"github.com/billingsim/billingsim/internal/testutil"
	"github.com/billingsim/billingsim/internal/types"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/suite"
)

func deferRequest(expected, desired int64) dto.DeferSubscriptionRequest {
	return dto.DeferSubscriptionRequest{
		DeferralInfo: dto.DeferralInfo{
			ExpectedExpiryTimeMillis: formatMillis(expected),
			DesiredExpiryTimeMillis:  formatMillis(desired),
		},
	}
}

func formatMillis(millis int64) string {
	return strconv.FormatInt(millis, 10)
}

type SubscriptionServiceSuite struct {
	testutil.BaseServiceTestSuite
	service SubscriptionService
}

func TestSubscriptionService(t *testing.T) {
	suite.Run(t, new(SubscriptionServiceSuite))
}

func (s *SubscriptionServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	stores := s.GetStores()
	s.service = NewSubscriptionService(
		stores.SubscriptionRepo,
		stores.CatalogRepo,
		s.GetClock(),
		s.GetPublisher(),
		s.GetConfig(),
		s.GetLogger(),
	)
}

func (s *SubscriptionServiceSuite) create(subscriptionID, userID string) *dto.CreateSubscriptionResponse {
	resp, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		SubscriptionID: subscriptionID,
		UserID:         userID,
	})
	s.NoError(err)
	return resp
}

func (s *SubscriptionServiceSuite) TestCreateSubscription() {
	resp := s.create("premium_monthly", "user-1")

	s.NotEmpty(resp.Token)
	s.NotEmpty(resp.OrderID)
	s.Equal("premium_monthly", resp.SubscriptionID)
	s.Equal(testutil.TestEpochMillis, resp.StartTimeMillis)
	s.Equal(testutil.TestEpochMillis+30*types.MillisPerDay, resp.ExpiryTimeMillis)
	s.False(resp.InTrial)

	events := s.GetPublisher().SubscriptionEvents()
	s.Equal([]types.NotificationType{types.NotificationTypePurchased}, events)
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionWithTrial() {
	resp, err := s.service.CreateSubscription(s.GetContext(), dto.CreateSubscriptionRequest{
		SubscriptionID: "premium_monthly",
		UserID:         "user-1",
		StartTrial:     true,
	})
	s.NoError(err)

	s.True(resp.InTrial)
	s.Equal(testutil.TestEpochMillis+7*types.MillisPerDay, resp.ExpiryTimeMillis)

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), resp.Token)
	s.NoError(err)
	s.Equal(types.PaymentStateFreeTrial, sub.PaymentState)
	s.NotNil(sub.TrialExpiryMillis)
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionIdempotent() {
	first := s.create("premium_monthly", "user-1")
	second := s.create("premium_monthly", "user-1")

	s.Equal(first.Token, second.Token)
	s.Equal(first.OrderID, second.OrderID)

	// Only the first creation produces an event
	s.Len(s.GetPublisher().SubscriptionEvents(), 1)
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionNewTokenAfterExpiry() {
	first := s.create("premium_monthly", "user-1")

	s.NoError(s.service.CancelSubscription(s.GetContext(), first.Token, true))

	second := s.create("premium_monthly", "user-1")
	s.NotEqual(first.Token, second.Token)
}

func (s *SubscriptionServiceSuite) TestCreateSubscriptionErrors() {
	testCases := []struct {
		name  string
		input dto.CreateSubscriptionRequest
		check func(err error) bool
	}{
		{
			name:  "unknown_plan",
			input: dto.CreateSubscriptionRequest{SubscriptionID: "no_such_plan", UserID: "user-1"},
			check: ierr.IsNotFound,
		},
		{
			name:  "missing_user_id",
			input: dto.CreateSubscriptionRequest{SubscriptionID: "premium_monthly"},
			check: ierr.IsValidation,
		},
		{
			name:  "missing_subscription_id",
			input: dto.CreateSubscriptionRequest{UserID: "user-1"},
			check: ierr.IsValidation,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.service.CreateSubscription(s.GetContext(), tc.input)
			s.Error(err)
			s.True(tc.check(err))
		})
	}
}

func (s *SubscriptionServiceSuite) TestGetSubscription() {
	created := s.create("premium_monthly", "user-1")

	resp, err := s.service.GetSubscription(s.GetContext(), "com.example.app", "premium_monthly", created.Token)
	s.NoError(err)
	s.Equal("androidpublisher#subscriptionPurchase", resp.Kind)
	s.Equal(created.Token, resp.PurchaseToken)
	s.True(resp.AutoRenewing)
}

func (s *SubscriptionServiceSuite) TestGetSubscriptionIdentityMismatch() {
	created := s.create("premium_monthly", "user-1")

	testCases := []struct {
		name           string
		packageName    string
		subscriptionID string
		token          string
		hint           string
	}{
		{
			name:           "unknown_token",
			packageName:    "com.example.app",
			subscriptionID: "premium_monthly",
			token:          "no-such-token",
			hint:           "The subscription token was not found.",
		},
		{
			name:           "package_mismatch",
			packageName:    "com.other.app",
			subscriptionID: "premium_monthly",
			token:          created.Token,
			hint:           msgSubscriptionPackageMismatch,
		},
		{
			name:           "product_mismatch",
			packageName:    "com.example.app",
			subscriptionID: "premium_yearly",
			token:          created.Token,
			hint:           msgSubscriptionProductMismatch,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.service.GetSubscription(s.GetContext(), tc.packageName, tc.subscriptionID, tc.token)
			s.Error(err)
			s.True(ierr.IsNotFound(err))
			s.Contains(errors.GetAllHints(err), tc.hint)
		})
	}
}

func (s *SubscriptionServiceSuite) TestCancelSubscriptionDeferred() {
	created := s.create("premium_monthly", "user-1")

	s.NoError(s.service.CancelSubscription(s.GetContext(), created.Token, false))

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), created.Token)
	s.NoError(err)
	s.Equal(types.SubscriptionStateCancelPending, sub.State)
	s.False(sub.AutoRenewing)
	s.Equal(created.ExpiryTimeMillis, sub.ExpiryTimeMillis)
	s.NotNil(sub.CancelReason)
	s.Equal(types.CancelReasonUser, *sub.CancelReason)

	events := s.GetPublisher().SubscriptionEvents()
	s.Equal(types.NotificationTypeCanceled, events[len(events)-1])

	// A second deferred cancel is an invalid transition
	err = s.service.CancelSubscription(s.GetContext(), created.Token, false)
	s.True(ierr.IsInvalidState(err))
}

func (s *SubscriptionServiceSuite) TestCancelSubscriptionImmediate() {
	created := s.create("premium_monthly", "user-1")

	s.NoError(s.service.CancelSubscription(s.GetContext(), created.Token, true))

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), created.Token)
	s.NoError(err)
	s.Equal(types.SubscriptionStateExpired, sub.State)
	s.Equal(s.GetClock().NowMillis(), sub.ExpiryTimeMillis)

	events := s.GetPublisher().SubscriptionEvents()
	s.Equal(types.NotificationTypeExpired, events[len(events)-1])
}

func (s *SubscriptionServiceSuite) TestCancelPendingThenImmediate() {
	created := s.create("premium_monthly", "user-1")

	s.NoError(s.service.CancelSubscription(s.GetContext(), created.Token, false))
	s.NoError(s.service.CancelSubscription(s.GetContext(), created.Token, true))

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), created.Token)
	s.NoError(err)
	s.Equal(types.SubscriptionStateExpired, sub.State)
}

func (s *SubscriptionServiceSuite) TestTerminalStateRejectsCommands() {
	created := s.create("premium_monthly", "user-1")
	s.NoError(s.service.CancelSubscription(s.GetContext(), created.Token, true))

	s.True(ierr.IsInvalidState(s.service.CancelSubscription(s.GetContext(), created.Token, false)))
	s.True(ierr.IsInvalidState(s.service.PaymentFailed(s.GetContext(), created.Token)))
	s.True(ierr.IsInvalidState(s.service.PauseSubscription(s.GetContext(), created.Token, dto.PauseSubscriptionRequest{})))
	s.True(ierr.IsInvalidState(s.service.ResumeSubscription(s.GetContext(), created.Token)))
	s.True(ierr.IsInvalidState(s.service.RenewSubscription(s.GetContext(), created.Token)))
	s.True(ierr.IsInvalidState(s.service.RevokeSubscription(s.GetContext(), created.Token)))
}

func (s *SubscriptionServiceSuite) TestPaymentFailedAndRecovered() {
	created := s.create("premium_monthly", "user-1")

	s.NoError(s.service.PaymentFailed(s.GetContext(), created.Token))

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), created.Token)
	s.NoError(err)
	s.Equal(types.SubscriptionStateGracePeriod, sub.State)
	s.Equal(types.PaymentStatePending, sub.PaymentState)
	s.NotNil(sub.GracePeriodDeadlineMillis)
	s.Equal(s.GetClock().NowMillis()+7*types.MillisPerDay, *sub.GracePeriodDeadlineMillis)

	s.NoError(s.service.PaymentRecovered(s.GetContext(), created.Token))

	sub, err = s.GetStores().SubscriptionRepo.Get(s.GetContext(), created.Token)
	s.NoError(err)
	s.Equal(types.SubscriptionStateActive, sub.State)
	s.Equal(types.PaymentStateReceived, sub.PaymentState)
	s.Nil(sub.GracePeriodDeadlineMillis)

	// Recovery does not extend the original expiry
	s.Equal(created.ExpiryTimeMillis, sub.ExpiryTimeMillis)

	events := s.GetPublisher().SubscriptionEvents()
	s.Equal([]types.NotificationType{
		types.NotificationTypePurchased,
		types.NotificationTypeInGracePeriod,
		types.NotificationTypeRecovered,
	}, events)
}

func (s *SubscriptionServiceSuite) TestPaymentFailedWithoutGracePeriod() {
	created := s.create("basic_weekly", "user-1")

	err := s.service.PaymentFailed(s.GetContext(), created.Token)
	s.Error(err)
	s.True(ierr.IsInvalidArgument(err))
}

func (s *SubscriptionServiceSuite) TestPauseAndResume() {
	created := s.create("premium_monthly", "user-1")

	s.NoError(s.service.PauseSubscription(s.GetContext(), created.Token, dto.PauseSubscriptionRequest{PauseDurationDays: 10}))

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), created.Token)
	s.NoError(err)
	s.Equal(types.SubscriptionStatePaused, sub.State)
	s.False(sub.AutoRenewing)
	s.NotNil(sub.PauseStartMillis)
	s.NotNil(sub.PauseResumeMillis)

	// Expiry does not move while paused
	s.Equal(created.ExpiryTimeMillis, sub.ExpiryTimeMillis)

	s.NoError(s.service.ResumeSubscription(s.GetContext(), created.Token))

	sub, err = s.GetStores().SubscriptionRepo.Get(s.GetContext(), created.Token)
	s.NoError(err)
	s.Equal(types.SubscriptionStateActive, sub.State)
	s.True(sub.AutoRenewing)
	s.Nil(sub.PauseStartMillis)
	s.Nil(sub.PauseResumeMillis)

	events := s.GetPublisher().SubscriptionEvents()
	s.Equal([]types.NotificationType{
		types.NotificationTypePurchased,
		types.NotificationTypePaused,
		types.NotificationTypeRestarted,
	}, events)
}

func (s *SubscriptionServiceSuite) TestPauseRequiresActive() {
	created := s.create("premium_monthly", "user-1")
	s.NoError(s.service.PaymentFailed(s.GetContext(), created.Token))

	err := s.service.PauseSubscription(s.GetContext(), created.Token, dto.PauseSubscriptionRequest{})
	s.True(ierr.IsInvalidState(err))
}

func (s *SubscriptionServiceSuite) TestDeferSubscription() {
	created := s.create("premium_monthly", "user-1")
	desired := created.ExpiryTimeMillis + 15*types.MillisPerDay

	resp, err := s.service.DeferSubscription(s.GetContext(), created.Token, deferRequest(created.ExpiryTimeMillis, desired))
	s.NoError(err)
	s.Equal(formatMillis(desired), resp.NewExpiryTimeMillis)

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), created.Token)
	s.NoError(err)
	s.Equal(desired, sub.ExpiryTimeMillis)

	events := s.GetPublisher().SubscriptionEvents()
	s.Equal(types.NotificationTypeDeferred, events[len(events)-1])
}

func (s *SubscriptionServiceSuite) TestDeferSubscriptionErrors() {
	created := s.create("premium_monthly", "user-1")

	testCases := []struct {
		name     string
		expected int64
		desired  int64
	}{
		{
			name:     "expected_mismatch",
			expected: created.ExpiryTimeMillis + 1,
			desired:  created.ExpiryTimeMillis + types.MillisPerDay,
		},
		{
			name:     "desired_not_after_current",
			expected: created.ExpiryTimeMillis,
			desired:  created.ExpiryTimeMillis,
		},
		{
			name:     "desired_before_current",
			expected: created.ExpiryTimeMillis,
			desired:  created.ExpiryTimeMillis - types.MillisPerDay,
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			_, err := s.service.DeferSubscription(s.GetContext(), created.Token, deferRequest(tc.expected, tc.desired))
			s.Error(err)
			s.True(ierr.IsInvalidArgument(err))
		})
	}
}

func (s *SubscriptionServiceSuite) TestRevokeSubscription() {
	created := s.create("premium_monthly", "user-1")

	s.NoError(s.service.RevokeSubscription(s.GetContext(), created.Token))

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), created.Token)
	s.NoError(err)
	s.Equal(types.SubscriptionStateRevoked, sub.State)
	s.Equal(s.GetClock().NowMillis(), sub.ExpiryTimeMillis)
	s.NotNil(sub.CancelReason)
	s.Equal(types.CancelReasonSystem, *sub.CancelReason)

	events := s.GetPublisher().SubscriptionEvents()
	s.Equal(types.NotificationTypeRevoked, events[len(events)-1])

	s.True(ierr.IsInvalidState(s.service.RevokeSubscription(s.GetContext(), created.Token)))
}

func (s *SubscriptionServiceSuite) TestRenewSubscription() {
	created := s.create("premium_monthly", "user-1")

	s.NoError(s.service.RenewSubscription(s.GetContext(), created.Token))

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), created.Token)
	s.NoError(err)
	s.Equal(1, sub.RenewalCount)
	s.NotEqual(created.OrderID, sub.OrderID)
	s.Equal(created.ExpiryTimeMillis+30*types.MillisPerDay, sub.ExpiryTimeMillis)
}

func (s *SubscriptionServiceSuite) TestRenewReactivatesCancelPending() {
	created := s.create("premium_monthly", "user-1")
	s.NoError(s.service.CancelSubscription(s.GetContext(), created.Token, false))

	s.NoError(s.service.RenewSubscription(s.GetContext(), created.Token))

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), created.Token)
	s.NoError(err)
	s.Equal(types.SubscriptionStateActive, sub.State)
	s.True(sub.AutoRenewing)
	s.Nil(sub.CancelReason)
	s.Nil(sub.CanceledTimeMillis)
}

func (s *SubscriptionServiceSuite) TestRenewRequiresAutoRenew() {
	created := s.create("premium_monthly", "user-1")
	s.NoError(s.service.PauseSubscription(s.GetContext(), created.Token, dto.PauseSubscriptionRequest{}))

	err := s.service.RenewSubscription(s.GetContext(), created.Token)
	s.True(ierr.IsInvalidState(err))
}

func (s *SubscriptionServiceSuite) TestAcknowledgeSubscriptionIdempotent() {
	created := s.create("premium_monthly", "user-1")

	s.NoError(s.service.AcknowledgeSubscription(s.GetContext(), "com.example.app", "premium_monthly", created.Token))
	s.NoError(s.service.AcknowledgeSubscription(s.GetContext(), "com.example.app", "premium_monthly", created.Token))

	sub, err := s.GetStores().SubscriptionRepo.Get(s.GetContext(), created.Token)
	s.NoError(err)
	s.Equal(types.AcknowledgementStateAcknowledged, sub.AcknowledgementState)

	// Acknowledge emits no notification
	s.Len(s.GetPublisher().SubscriptionEvents(), 1)

	// Identity mismatch still fails
	err = s.service.AcknowledgeSubscription(s.GetContext(), "com.other.app", "premium_monthly", created.Token)
	s.True(ierr.IsNotFound(err))
}
