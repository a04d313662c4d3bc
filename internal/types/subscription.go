package types

import (
	ierr "github.com/billingsim/billingsim/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionState is the lifecycle state of a subscription
type SubscriptionState string

const (
	SubscriptionStateActive SubscriptionState = "ACTIVE"

	// SubscriptionStateGracePeriod means the last payment failed and the
	// subscription retains access until the grace deadline passes
	SubscriptionStateGracePeriod SubscriptionState = "GRACE_PERIOD"

	// SubscriptionStateOnHold means the grace period elapsed without payment
	// recovery; access is suspended but the subscription can still recover
	SubscriptionStateOnHold SubscriptionState = "ON_HOLD"

	SubscriptionStatePaused SubscriptionState = "PAUSED"

	// SubscriptionStateCancelPending means the user canceled but the
	// subscription stays usable until the current period expires
	SubscriptionStateCancelPending SubscriptionState = "CANCEL_PENDING"

	SubscriptionStateExpired SubscriptionState = "EXPIRED"
	SubscriptionStateRevoked SubscriptionState = "REVOKED"
)

func (s SubscriptionState) String() string {
	return string(s)
}

func (s SubscriptionState) Validate() error {
	allowed := []SubscriptionState{
		SubscriptionStateActive,
		SubscriptionStateGracePeriod,
		SubscriptionStateOnHold,
		SubscriptionStatePaused,
		SubscriptionStateCancelPending,
		SubscriptionStateExpired,
		SubscriptionStateRevoked,
	}
	if !lo.Contains(allowed, s) {
		return ierr.NewError("invalid subscription state").
			WithHint("Invalid subscription state").
			WithReportableDetails(map[string]any{
				"allowed": allowed,
				"given":   s,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// IsTerminal reports whether no further command may mutate the subscription
func (s SubscriptionState) IsTerminal() bool {
	return s == SubscriptionStateExpired || s == SubscriptionStateRevoked
}

// PaymentState mirrors the androidpublisher paymentState integer codes
type PaymentState int

const (
	PaymentStatePending PaymentState = iota
	PaymentStateReceived
	PaymentStateFreeTrial
	PaymentStatePendingDeferred
)

// AcknowledgementState mirrors the androidpublisher acknowledgementState codes
type AcknowledgementState int

const (
	AcknowledgementStateNotAcknowledged AcknowledgementState = iota
	AcknowledgementStateAcknowledged
)

// CancelReason mirrors the androidpublisher cancelReason integer codes
type CancelReason int

const (
	CancelReasonUser CancelReason = iota
	CancelReasonSystem
	CancelReasonReplaced
	CancelReasonDeveloper
)
