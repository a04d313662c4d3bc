package service

import (
	"context"
	"strconv"

	"github.com/billingsim/billingsim/internal/api/dto"
	"github.com/billingsim/billingsim/internal/clock"
	"github.com/billingsim/billingsim/internal/config"
	"github.com/billingsim/billingsim/internal/domain/catalog"
	"github.com/billingsim/billingsim/internal/domain/subscription"
	ierr "github.com/billingsim/billingsim/internal/errors"
	"github.com/billingsim/billingsim/internal/logger"
	"github.com/billingsim/billingsim/internal/rtdn/publisher"
	"github.com/billingsim/billingsim/internal/types"
)

// SubscriptionService drives the subscription lifecycle state machine.
// Commands mutate the store atomically per token and publish the
// resulting developer notification after the commit.
type SubscriptionService interface {
	CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.CreateSubscriptionResponse, error)
	GetSubscription(ctx context.Context, packageName, subscriptionID, token string) (*dto.SubscriptionPurchaseResponse, error)
	CancelSubscription(ctx context.Context, token string, immediate bool) error
	RevokeSubscription(ctx context.Context, token string) error
	DeferSubscription(ctx context.Context, token string, req dto.DeferSubscriptionRequest) (*dto.DeferSubscriptionResponse, error)
	AcknowledgeSubscription(ctx context.Context, packageName, subscriptionID, token string) error
	PaymentFailed(ctx context.Context, token string) error
	PaymentRecovered(ctx context.Context, token string) error
	PauseSubscription(ctx context.Context, token string, req dto.PauseSubscriptionRequest) error
	ResumeSubscription(ctx context.Context, token string) error
	RenewSubscription(ctx context.Context, token string) error
	ListSubscriptions(ctx context.Context) (*dto.ListSubscriptionsResponse, error)
}

type subscriptionService struct {
	repo      subscription.Repository
	catalog   catalog.Repository
	clock     clock.Clock
	publisher publisher.NotificationPublisher
	config    *config.Configuration
	logger    *logger.Logger
}

func NewSubscriptionService(
	repo subscription.Repository,
	catalogRepo catalog.Repository,
	clk clock.Clock,
	pub publisher.NotificationPublisher,
	cfg *config.Configuration,
	log *logger.Logger,
) SubscriptionService {
	return &subscriptionService{
		repo:      repo,
		catalog:   catalogRepo,
		clock:     clk,
		publisher: pub,
		config:    cfg,
		logger:    log,
	}
}

func (s *subscriptionService) CreateSubscription(ctx context.Context, req dto.CreateSubscriptionRequest) (*dto.CreateSubscriptionResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	packageName := req.PackageName
	if packageName == "" {
		packageName = s.config.Emulator.DefaultPackageName
	}

	plan, err := s.catalog.GetSubscriptionPlan(ctx, req.SubscriptionID)
	if err != nil {
		return nil, err
	}

	// Re-creation for a live identity is idempotent: hand back the
	// existing subscription instead of minting a second one.
	if existing, err := s.repo.FindByIdentity(ctx, packageName, req.SubscriptionID, req.UserID); err == nil && !existing.State.IsTerminal() {
		s.logger.Debugw("subscription already exists for identity",
			"token", existing.Token,
			"subscription_id", existing.SubscriptionID,
			"user_id", existing.UserID,
		)
		return newCreateSubscriptionResponse(existing), nil
	}

	nowMillis := s.clock.NowMillis()

	sub := &subscription.Subscription{
		Token:              types.GenerateSubscriptionToken(s.config.Emulator.TokenPrefix, nowMillis),
		OrderID:            types.GenerateOrderID(),
		PackageName:        packageName,
		SubscriptionID:     req.SubscriptionID,
		UserID:             req.UserID,
		State:              types.SubscriptionStateActive,
		StartTimeMillis:    nowMillis,
		PurchaseTimeMillis: nowMillis,
		AutoRenewing:       true,
		PaymentState:       types.PaymentStateReceived,
		BillingPeriod:      plan.BillingPeriod,
		GracePeriod:        plan.GracePeriod,
		PriceAmountMicros:  plan.PriceAmountMicros,
		PriceCurrencyCode:  plan.PriceCurrencyCode,
	}

	if req.StartTrial && plan.HasTrial() {
		trialMillis, err := plan.TrialPeriod.Millis()
		if err != nil {
			return nil, err
		}
		trialExpiry := nowMillis + trialMillis
		sub.InTrial = true
		sub.TrialExpiryMillis = &trialExpiry
		sub.ExpiryTimeMillis = trialExpiry
		sub.PaymentState = types.PaymentStateFreeTrial
	} else {
		periodMillis, err := plan.BillingPeriod.Millis()
		if err != nil {
			return nil, err
		}
		sub.ExpiryTimeMillis = nowMillis + periodMillis
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Infow("subscription created",
		"token", sub.Token,
		"subscription_id", sub.SubscriptionID,
		"user_id", sub.UserID,
		"package_name", sub.PackageName,
		"in_trial", sub.InTrial,
		"expiry_millis", sub.ExpiryTimeMillis,
	)

	publishNotification(ctx, s.publisher, s.logger,
		types.NewSubscriptionNotification(sub.PackageName, nowMillis, types.NotificationTypePurchased, sub.Token, sub.SubscriptionID))

	return newCreateSubscriptionResponse(sub), nil
}

func (s *subscriptionService) GetSubscription(ctx context.Context, packageName, subscriptionID, token string) (*dto.SubscriptionPurchaseResponse, error) {
	sub, err := s.getVerified(ctx, packageName, subscriptionID, token)
	if err != nil {
		return nil, err
	}
	return dto.NewSubscriptionPurchaseResponse(sub), nil
}

func (s *subscriptionService) CancelSubscription(ctx context.Context, token string, immediate bool) error {
	nowMillis := s.clock.NowMillis()

	var notification *types.DeveloperNotification
	err := s.repo.Mutate(ctx, token, func(sub *subscription.Subscription) error {
		if sub.State.IsTerminal() {
			return terminalStateError(sub.State)
		}

		if immediate {
			if sub.State != types.SubscriptionStateActive && sub.State != types.SubscriptionStateCancelPending {
				return invalidTransitionError("cancel", sub.State)
			}
			reason := types.CancelReasonUser
			sub.State = types.SubscriptionStateExpired
			sub.AutoRenewing = false
			sub.CancelReason = &reason
			sub.CanceledTimeMillis = &nowMillis
			sub.ExpiryTimeMillis = nowMillis
			notification = types.NewSubscriptionNotification(sub.PackageName, nowMillis, types.NotificationTypeExpired, sub.Token, sub.SubscriptionID)
			return nil
		}

		if sub.State != types.SubscriptionStateActive {
			return invalidTransitionError("cancel", sub.State)
		}
		reason := types.CancelReasonUser
		sub.State = types.SubscriptionStateCancelPending
		sub.AutoRenewing = false
		sub.CancelReason = &reason
		sub.CanceledTimeMillis = &nowMillis
		notification = types.NewSubscriptionNotification(sub.PackageName, nowMillis, types.NotificationTypeCanceled, sub.Token, sub.SubscriptionID)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Infow("subscription canceled",
		"token", token,
		"immediate", immediate,
	)

	publishNotification(ctx, s.publisher, s.logger, notification)
	return nil
}

func (s *subscriptionService) RevokeSubscription(ctx context.Context, token string) error {
	nowMillis := s.clock.NowMillis()

	var notification *types.DeveloperNotification
	err := s.repo.Mutate(ctx, token, func(sub *subscription.Subscription) error {
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

	s.logger.Infow("subscription revoked", "token", token)

	publishNotification(ctx, s.publisher, s.logger, notification)
	return nil
}

func (s *subscriptionService) DeferSubscription(ctx context.Context, token string, req dto.DeferSubscriptionRequest) (*dto.DeferSubscriptionResponse, error) {
	expected, desired, err := req.Millis()
	if err != nil {
		return nil, err
	}

	nowMillis := s.clock.NowMillis()

	var notification *types.DeveloperNotification
	var newExpiry int64
	err = s.repo.Mutate(ctx, token, func(sub *subscription.Subscription) error {
		if sub.State.IsTerminal() {
			return terminalStateError(sub.State)
		}
		if sub.State != types.SubscriptionStateActive {
			return invalidTransitionError("defer", sub.State)
		}
		if expected != sub.ExpiryTimeMillis {
			return ierr.NewError("expected expiry mismatch").
				WithHint("The expected expiry time does not match the current expiry time").
				WithReportableDetails(map[string]any{
					"expected_expiry_millis": expected,
					"current_expiry_millis":  sub.ExpiryTimeMillis,
				}).
				Mark(ierr.ErrInvalidArgument)
		}
		if desired <= sub.ExpiryTimeMillis {
			return ierr.NewError("desired expiry not after current expiry").
				WithHint("The desired expiry time must be after the current expiry time").
				WithReportableDetails(map[string]any{
					"desired_expiry_millis": desired,
					"current_expiry_millis": sub.ExpiryTimeMillis,
				}).
				Mark(ierr.ErrInvalidArgument)
		}

		sub.ExpiryTimeMillis = desired
		newExpiry = desired
		notification = types.NewSubscriptionNotification(sub.PackageName, nowMillis, types.NotificationTypeDeferred, sub.Token, sub.SubscriptionID)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("subscription deferred",
		"token", token,
		"new_expiry_millis", newExpiry,
	)

	publishNotification(ctx, s.publisher, s.logger, notification)

	return &dto.DeferSubscriptionResponse{
		NewExpiryTimeMillis: strconv.FormatInt(newExpiry, 10),
	}, nil
}

// AcknowledgeSubscription is idempotent: repeated calls succeed and leave
// the subscription acknowledged. It fails only on identity mismatch.
func (s *subscriptionService) AcknowledgeSubscription(ctx context.Context, packageName, subscriptionID, token string) error {
	if _, err := s.getVerified(ctx, packageName, subscriptionID, token); err != nil {
		return err
	}

	return s.repo.Mutate(ctx, token, func(sub *subscription.Subscription) error {
		sub.AcknowledgementState = types.AcknowledgementStateAcknowledged
		return nil
	})
}

func (s *subscriptionService) PaymentFailed(ctx context.Context, token string) error {
	nowMillis := s.clock.NowMillis()

	var notification *types.DeveloperNotification
	err := s.repo.Mutate(ctx, token, func(sub *subscription.Subscription) error {
		if sub.State.IsTerminal() {
			return terminalStateError(sub.State)
		}
		if sub.State != types.SubscriptionStateActive {
			return invalidTransitionError("fail a payment for", sub.State)
		}
		if sub.GracePeriod == "" {
			return ierr.NewError("no grace period configured").
				WithHint("The subscription's plan has no grace period configured").
				Mark(ierr.ErrInvalidArgument)
		}

		graceMillis, err := sub.GracePeriod.Millis()
		if err != nil {
			return err
		}
		deadline := nowMillis + graceMillis

		sub.State = types.SubscriptionStateGracePeriod
		sub.GracePeriodDeadlineMillis = &deadline
		sub.PaymentState = types.PaymentStatePending
		notification = types.NewSubscriptionNotification(sub.PackageName, nowMillis, types.NotificationTypeInGracePeriod, sub.Token, sub.SubscriptionID)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Infow("subscription entered grace period", "token", token)

	publishNotification(ctx, s.publisher, s.logger, notification)
	return nil
}

func (s *subscriptionService) PaymentRecovered(ctx context.Context, token string) error {
	nowMillis := s.clock.NowMillis()

	var notification *types.DeveloperNotification
	err := s.repo.Mutate(ctx, token, func(sub *subscription.Subscription) error {
		if sub.State.IsTerminal() {
			return terminalStateError(sub.State)
		}
		if sub.State != types.SubscriptionStateGracePeriod && sub.State != types.SubscriptionStateOnHold {
			return invalidTransitionError("recover a payment for", sub.State)
		}

		sub.State = types.SubscriptionStateActive
		sub.PaymentState = types.PaymentStateReceived
		sub.GracePeriodDeadlineMillis = nil
		sub.AccountHoldStartMillis = nil
		notification = types.NewSubscriptionNotification(sub.PackageName, nowMillis, types.NotificationTypeRecovered, sub.Token, sub.SubscriptionID)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Infow("subscription recovered", "token", token)

	publishNotification(ctx, s.publisher, s.logger, notification)
	return nil
}

// PauseSubscription freezes the subscription: auto-renew is disabled and
// the expiry time stops advancing until an explicit resume.
func (s *subscriptionService) PauseSubscription(ctx context.Context, token string, req dto.PauseSubscriptionRequest) error {
	if req.PauseDurationDays < 0 {
		return ierr.NewError("negative pause duration").
			WithHint("Pause duration must be positive").
			Mark(ierr.ErrInvalidArgument)
	}

	nowMillis := s.clock.NowMillis()

	var notification *types.DeveloperNotification
	err := s.repo.Mutate(ctx, token, func(sub *subscription.Subscription) error {
		if sub.State.IsTerminal() {
			return terminalStateError(sub.State)
		}
		if sub.State != types.SubscriptionStateActive {
			return invalidTransitionError("pause", sub.State)
		}

		sub.State = types.SubscriptionStatePaused
		sub.AutoRenewing = false
		sub.PauseStartMillis = &nowMillis
		if req.PauseDurationDays > 0 {
			resume := nowMillis + int64(req.PauseDurationDays)*types.MillisPerDay
			sub.PauseResumeMillis = &resume
		}
		notification = types.NewSubscriptionNotification(sub.PackageName, nowMillis, types.NotificationTypePaused, sub.Token, sub.SubscriptionID)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Infow("subscription paused", "token", token)

	publishNotification(ctx, s.publisher, s.logger, notification)
	return nil
}

func (s *subscriptionService) ResumeSubscription(ctx context.Context, token string) error {
	nowMillis := s.clock.NowMillis()

	var notification *types.DeveloperNotification
	err := s.repo.Mutate(ctx, token, func(sub *subscription.Subscription) error {
		if sub.State.IsTerminal() {
			return terminalStateError(sub.State)
		}
		if sub.State != types.SubscriptionStatePaused {
			return invalidTransitionError("resume", sub.State)
		}

		sub.State = types.SubscriptionStateActive
		sub.AutoRenewing = true
		sub.PauseStartMillis = nil
		sub.PauseResumeMillis = nil
		notification = types.NewSubscriptionNotification(sub.PackageName, nowMillis, types.NotificationTypeRestarted, sub.Token, sub.SubscriptionID)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Infow("subscription resumed", "token", token)

	publishNotification(ctx, s.publisher, s.logger, notification)
	return nil
}

// RenewSubscription applies one explicit renewal cycle. A cancel-pending
// subscription renewed this way is reactivated.
func (s *subscriptionService) RenewSubscription(ctx context.Context, token string) error {
	nowMillis := s.clock.NowMillis()

	var notification *types.DeveloperNotification
	err := s.repo.Mutate(ctx, token, func(sub *subscription.Subscription) error {
		if sub.State.IsTerminal() {
			return terminalStateError(sub.State)
		}
		if sub.State != types.SubscriptionStateActive && sub.State != types.SubscriptionStateCancelPending {
			return invalidTransitionError("renew", sub.State)
		}
		if sub.State == types.SubscriptionStateActive && !sub.AutoRenewing {
			return ierr.NewError("auto-renew disabled").
				WithHint("Cannot renew a subscription with auto-renew disabled").
				Mark(ierr.ErrInvalidState)
		}

		if err := applyRenewal(sub, sub.ExpiryTimeMillis); err != nil {
			return err
		}

		if sub.State == types.SubscriptionStateCancelPending {
			sub.State = types.SubscriptionStateActive
			sub.AutoRenewing = true
			sub.CancelReason = nil
			sub.CanceledTimeMillis = nil
		}

		notification = types.NewSubscriptionNotification(sub.PackageName, nowMillis, types.NotificationTypeRenewed, sub.Token, sub.SubscriptionID)
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Infow("subscription renewed", "token", token)

	publishNotification(ctx, s.publisher, s.logger, notification)
	return nil
}

func (s *subscriptionService) ListSubscriptions(ctx context.Context) (*dto.ListSubscriptionsResponse, error) {
	subs, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.ListSubscriptionsResponse{
		Subscriptions: subs,
		Total:         len(subs),
	}, nil
}

// getVerified resolves a subscription by token and validates the path
// identity. Unknown tokens and identity mismatches each surface their
// own NotFound message.
func (s *subscriptionService) getVerified(ctx context.Context, packageName, subscriptionID, token string) (*subscription.Subscription, error) {
	sub, err := s.repo.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if sub.PackageName != packageName {
		return nil, ierr.NewError("package mismatch").
			WithHint(msgSubscriptionPackageMismatch).
			WithReportableDetails(map[string]any{
				"package_name": packageName,
			}).
			Mark(ierr.ErrNotFound)
	}
	if sub.SubscriptionID != subscriptionID {
		return nil, ierr.NewError("subscription id mismatch").
			WithHint(msgSubscriptionProductMismatch).
			WithReportableDetails(map[string]any{
				"subscription_id": subscriptionID,
			}).
			Mark(ierr.ErrNotFound)
	}

	return sub, nil
}

func newCreateSubscriptionResponse(sub *subscription.Subscription) *dto.CreateSubscriptionResponse {
	return &dto.CreateSubscriptionResponse{
		Token:            sub.Token,
		SubscriptionID:   sub.SubscriptionID,
		UserID:           sub.UserID,
		OrderID:          sub.OrderID,
		StartTimeMillis:  sub.StartTimeMillis,
		ExpiryTimeMillis: sub.ExpiryTimeMillis,
		InTrial:          sub.InTrial,
	}
}

// applyRenewal advances the subscription one billing period from
// renewalTimeMillis, minting a new order id. Trials convert to paid on
// their first renewal.
func applyRenewal(sub *subscription.Subscription, renewalTimeMillis int64) error {
	periodMillis, err := sub.BillingPeriod.Millis()
	if err != nil {
		return err
	}

	sub.OrderID = types.GenerateOrderID()
	sub.ExpiryTimeMillis = renewalTimeMillis + periodMillis
	sub.RenewalCount++

	if sub.InTrial {
		sub.InTrial = false
		sub.TrialExpiryMillis = nil
	}
	sub.PaymentState = types.PaymentStateReceived

	return nil
}

// applyRevoke terminates the subscription immediately. Access ends at
// revokeTimeMillis and no further command may mutate the entity.
func applyRevoke(sub *subscription.Subscription, revokeTimeMillis int64) {
	reason := types.CancelReasonSystem

	sub.State = types.SubscriptionStateRevoked
	sub.AutoRenewing = false
	sub.CancelReason = &reason
	sub.CanceledTimeMillis = &revokeTimeMillis
	sub.ExpiryTimeMillis = revokeTimeMillis
	sub.GracePeriodDeadlineMillis = nil
	sub.AccountHoldStartMillis = nil
	sub.PauseStartMillis = nil
	sub.PauseResumeMillis = nil
}

func terminalStateError(state types.SubscriptionState) error {
	return ierr.NewError("subscription is in a terminal state").
		WithHintf("No changes are allowed in the %s state", state).
		Mark(ierr.ErrInvalidState)
}

func invalidTransitionError(trigger string, state types.SubscriptionState) error {
	return ierr.NewError("invalid state for trigger").
		WithHintf("Cannot %s a subscription in the %s state", trigger, state).
		Mark(ierr.ErrInvalidState)
}
