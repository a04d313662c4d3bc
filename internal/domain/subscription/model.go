package subscription

import (
	"github.com/billingsim/billingsim/internal/types"
)

// Subscription is the mutable lifecycle entity, owned exclusively by the
// store and mutated only through Repository.Mutate.
type Subscription struct {
	// Token is the opaque purchase token, primary key, stable across renewals
	Token string `json:"token"`

	// OrderID is the current billing transaction id; a new one is minted on
	// every renewal and refunds route against the current one only
	OrderID string `json:"order_id"`

	// Immutable identity triple
	PackageName    string `json:"package_name"`
	SubscriptionID string `json:"subscription_id"`
	UserID         string `json:"user_id"`

	State types.SubscriptionState `json:"state"`

	StartTimeMillis    int64 `json:"start_time_millis"`
	ExpiryTimeMillis   int64 `json:"expiry_time_millis"`
	PurchaseTimeMillis int64 `json:"purchase_time_millis"`

	AutoRenewing bool `json:"auto_renewing"`

	PaymentState         types.PaymentState         `json:"payment_state"`
	AcknowledgementState types.AcknowledgementState `json:"acknowledgement_state"`

	CancelReason       *types.CancelReason `json:"cancel_reason,omitempty"`
	CanceledTimeMillis *int64              `json:"canceled_time_millis,omitempty"`

	// Set only while in GRACE_PERIOD
	GracePeriodDeadlineMillis *int64 `json:"grace_period_deadline_millis,omitempty"`

	// Set when the grace deadline passes without recovery
	AccountHoldStartMillis *int64 `json:"account_hold_start_millis,omitempty"`

	// Set only while PAUSED; resume is explicit, never auto-triggered
	PauseStartMillis  *int64 `json:"pause_start_millis,omitempty"`
	PauseResumeMillis *int64 `json:"pause_resume_millis,omitempty"`

	InTrial           bool   `json:"in_trial"`
	TrialExpiryMillis *int64 `json:"trial_expiry_millis,omitempty"`

	RenewalCount int `json:"renewal_count"`

	// Catalog values frozen at creation
	BillingPeriod     types.BillingPeriod `json:"billing_period"`
	GracePeriod       types.BillingPeriod `json:"grace_period,omitempty"`
	PriceAmountMicros int64               `json:"price_amount_micros"`
	PriceCurrencyCode string              `json:"price_currency_code"`
}

// NextBoundaryMillis returns the next simulated-time boundary at which the
// subscription requires a transition, and whether one exists. Paused,
// on-hold and terminal subscriptions have no boundary.
func (s *Subscription) NextBoundaryMillis() (int64, bool) {
	switch s.State {
	case types.SubscriptionStateActive, types.SubscriptionStateCancelPending:
		return s.ExpiryTimeMillis, true
	case types.SubscriptionStateGracePeriod:
		if s.GracePeriodDeadlineMillis != nil {
			return *s.GracePeriodDeadlineMillis, true
		}
		return 0, false
	default:
		return 0, false
	}
}

// Copy returns a deep copy so callers never alias store-owned state
func (s *Subscription) Copy() *Subscription {
	out := *s
	out.CancelReason = copyPtr(s.CancelReason)
	out.CanceledTimeMillis = copyPtr(s.CanceledTimeMillis)
	out.GracePeriodDeadlineMillis = copyPtr(s.GracePeriodDeadlineMillis)
	out.AccountHoldStartMillis = copyPtr(s.AccountHoldStartMillis)
	out.PauseStartMillis = copyPtr(s.PauseStartMillis)
	out.PauseResumeMillis = copyPtr(s.PauseResumeMillis)
	out.TrialExpiryMillis = copyPtr(s.TrialExpiryMillis)
	return &out
}

func copyPtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
