package service

import (
	"context"
	"strings"

	"github.com/billingsim/billingsim/internal/api/dto"
	"github.com/billingsim/billingsim/internal/clock"
	"github.com/billingsim/billingsim/internal/config"
	"github.com/billingsim/billingsim/internal/domain/purchase"
	"github.com/billingsim/billingsim/internal/domain/subscription"
	"github.com/billingsim/billingsim/internal/logger"
	"github.com/billingsim/billingsim/internal/rtdn/publisher"
	"github.com/billingsim/billingsim/internal/types"
)

// TimeService owns the virtual clock and the boundary sweep that runs
// after every clock movement. A single jump may cross many billing and
// grace boundaries per subscription; each is processed at its own
// boundary time, in order, with one event per crossing.
type TimeService interface {
	AdvanceTime(ctx context.Context, req dto.AdvanceTimeRequest) (*dto.AdvanceTimeResponse, error)
	SetTime(ctx context.Context, req dto.SetTimeRequest) (*dto.SetTimeResponse, error)
	ResetTime(ctx context.Context) (*dto.ResetTimeResponse, error)
	ResetState(ctx context.Context) (*dto.ResetResponse, error)
	Status(ctx context.Context) (*dto.StatusResponse, error)
}

type timeService struct {
	clock         *clock.VirtualClock
	subscriptions subscription.Repository
	purchases     purchase.Repository
	publisher     publisher.NotificationPublisher
	config        *config.Configuration
	logger        *logger.Logger
}

func NewTimeService(
	clk *clock.VirtualClock,
	subscriptions subscription.Repository,
	purchases purchase.Repository,
	pub publisher.NotificationPublisher,
	cfg *config.Configuration,
	log *logger.Logger,
) TimeService {
	return &timeService{
		clock:         clk,
		subscriptions: subscriptions,
		purchases:     purchases,
		publisher:     pub,
		config:        cfg,
		logger:        log,
	}
}

// sweepResult aggregates the lifecycle work one clock movement triggered
type sweepResult struct {
	renewals    int
	expirations int
	events      int
}

func (s *timeService) AdvanceTime(ctx context.Context, req dto.AdvanceTimeRequest) (*dto.AdvanceTimeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	previousMillis := s.clock.NowMillis()
	if _, err := s.clock.Advance(req.Duration()); err != nil {
		return nil, err
	}
	currentMillis := s.clock.NowMillis()

	result := s.sweep(ctx, currentMillis)

	s.logger.Infow("virtual time advanced",
		"previous_millis", previousMillis,
		"current_millis", currentMillis,
		"renewals", result.renewals,
		"expirations", result.expirations,
		"events", result.events,
	)

	return &dto.AdvanceTimeResponse{
		PreviousTimeMillis:   previousMillis,
		CurrentTimeMillis:    currentMillis,
		AdvancedByMillis:     currentMillis - previousMillis,
		RenewalsProcessed:    result.renewals,
		ExpirationsProcessed: result.expirations,
		EventsPublished:      result.events,
	}, nil
}

func (s *timeService) SetTime(ctx context.Context, req dto.SetTimeRequest) (*dto.SetTimeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	previousMillis := s.clock.NowMillis()
	if _, err := s.clock.SetTime(req.TimeMillis); err != nil {
		return nil, err
	}
	currentMillis := s.clock.NowMillis()

	result := s.sweep(ctx, currentMillis)

	s.logger.Infow("virtual time set",
		"previous_millis", previousMillis,
		"current_millis", currentMillis,
		"renewals", result.renewals,
		"expirations", result.expirations,
		"events", result.events,
	)

	return &dto.SetTimeResponse{
		PreviousTimeMillis:   previousMillis,
		CurrentTimeMillis:    currentMillis,
		RenewalsProcessed:    result.renewals,
		ExpirationsProcessed: result.expirations,
		EventsPublished:      result.events,
	}, nil
}

// ResetTime returns the clock to its epoch without touching any stored
// entity. State that outran the clock simply sits in the future.
func (s *timeService) ResetTime(ctx context.Context) (*dto.ResetTimeResponse, error) {
	previousMillis := s.clock.NowMillis()
	s.clock.Reset()

	s.logger.Infow("virtual time reset",
		"previous_millis", previousMillis,
		"current_millis", s.clock.NowMillis(),
	)

	return &dto.ResetTimeResponse{
		PreviousTimeMillis: previousMillis,
		CurrentTimeMillis:  s.clock.NowMillis(),
	}, nil
}

// ResetState wipes both stores and returns the clock to its epoch
func (s *timeService) ResetState(ctx context.Context) (*dto.ResetResponse, error) {
	subCount, err := s.subscriptions.Count(ctx)
	if err != nil {
		return nil, err
	}
	purchaseCount, err := s.purchases.Count(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.subscriptions.Clear(ctx); err != nil {
		return nil, err
	}
	if err := s.purchases.Clear(ctx); err != nil {
		return nil, err
	}
	s.clock.Reset()

	s.logger.Infow("emulator state reset",
		"subscriptions_deleted", subCount,
		"purchases_deleted", purchaseCount,
	)

	return &dto.ResetResponse{
		SubscriptionsDeleted: subCount,
		PurchasesDeleted:     purchaseCount,
		TimeReset:            true,
	}, nil
}

func (s *timeService) Status(ctx context.Context) (*dto.StatusResponse, error) {
	subs, err := s.subscriptions.List(ctx)
	if err != nil {
		return nil, err
	}
	purchaseCount, err := s.purchases.Count(ctx)
	if err != nil {
		return nil, err
	}

	stats := map[string]int{
		"subscriptions": len(subs),
		"purchases":     purchaseCount,
	}
	for _, sub := range subs {
		stats[strings.ToLower(sub.State.String())+"_subscriptions"]++
	}

	return &dto.StatusResponse{
		Status:            "ok",
		CurrentTimeMillis: s.clock.NowMillis(),
		CurrentTime:       s.clock.Now().Format("2006-01-02T15:04:05Z07:00"),
		EpochMillis:       s.clock.EpochMillis(),
		Statistics:        stats,
	}, nil
}

// sweep walks every subscription in token order and processes each
// boundary at or before targetMillis. Transitions are applied inside the
// store mutation; events are stamped with their boundary time and
// published only after the mutation commits, so a retried mutation never
// double-publishes.
func (s *timeService) sweep(ctx context.Context, targetMillis int64) sweepResult {
	var result sweepResult

	tokens, err := s.subscriptions.Tokens(ctx)
	if err != nil {
		s.logger.Errorw("failed to list subscription tokens for sweep", "error", err)
		return result
	}

	for _, token := range tokens {
		var events []*types.DeveloperNotification

		err := s.subscriptions.Mutate(ctx, token, func(sub *subscription.Subscription) error {
			events = events[:0]

			boundary, ok := sub.NextBoundaryMillis()
			for ok && boundary <= targetMillis {
				if event := s.crossBoundary(sub, boundary); event != nil {
					events = append(events, event)
				}
				boundary, ok = sub.NextBoundaryMillis()
			}
			return nil
		})
		if err != nil {
			s.logger.Errorw("boundary sweep failed for subscription",
				"error", err,
				"token", token,
			)
			continue
		}

		for _, event := range events {
			publishNotification(ctx, s.publisher, s.logger, event)
			result.events++
			switch event.SubscriptionNotification.NotificationType {
			case types.NotificationTypeRenewed:
				result.renewals++
			case types.NotificationTypeExpired:
				result.expirations++
			}
		}
	}

	return result
}

// crossBoundary applies the single transition due at boundaryMillis and
// returns its event. Callers guarantee the subscription actually has a
// boundary at that time.
func (s *timeService) crossBoundary(sub *subscription.Subscription, boundaryMillis int64) *types.DeveloperNotification {
	switch sub.State {
	case types.SubscriptionStateActive:
		if sub.AutoRenewing {
			if err := applyRenewal(sub, boundaryMillis); err != nil {
				// Malformed frozen period. Expire instead of looping forever.
				s.logger.Errorw("renewal failed during sweep",
					"error", err,
					"token", sub.Token,
				)
				expireAt(sub, boundaryMillis)
				return types.NewSubscriptionNotification(sub.PackageName, boundaryMillis, types.NotificationTypeExpired, sub.Token, sub.SubscriptionID)
			}
			return types.NewSubscriptionNotification(sub.PackageName, boundaryMillis, types.NotificationTypeRenewed, sub.Token, sub.SubscriptionID)
		}
		expireAt(sub, boundaryMillis)
		return types.NewSubscriptionNotification(sub.PackageName, boundaryMillis, types.NotificationTypeExpired, sub.Token, sub.SubscriptionID)

	case types.SubscriptionStateCancelPending:
		expireAt(sub, boundaryMillis)
		return types.NewSubscriptionNotification(sub.PackageName, boundaryMillis, types.NotificationTypeExpired, sub.Token, sub.SubscriptionID)

	case types.SubscriptionStateGracePeriod:
		sub.State = types.SubscriptionStateOnHold
		sub.AccountHoldStartMillis = &boundaryMillis
		sub.GracePeriodDeadlineMillis = nil
		return types.NewSubscriptionNotification(sub.PackageName, boundaryMillis, types.NotificationTypeOnHold, sub.Token, sub.SubscriptionID)

	default:
		// NextBoundaryMillis never reports a boundary for other states
		return nil
	}
}

func expireAt(sub *subscription.Subscription, millis int64) {
	sub.State = types.SubscriptionStateExpired
	sub.AutoRenewing = false
	sub.ExpiryTimeMillis = millis
}
