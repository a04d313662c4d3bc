package dto

import (
	"strconv"

	"github.com/billingsim/billingsim/internal/domain/subscription"
	ierr "github.com/billingsim/billingsim/internal/errors"
)

// SubscriptionPurchaseResponse mirrors the androidpublisher v3
// SubscriptionPurchase resource. Millisecond timestamps are strings on
// the wire.
type SubscriptionPurchaseResponse struct {
	Kind                       string `json:"kind"`
	StartTimeMillis            string `json:"startTimeMillis"`
	ExpiryTimeMillis           string `json:"expiryTimeMillis"`
	AutoResumeTimeMillis       string `json:"autoResumeTimeMillis,omitempty"`
	AutoRenewing               bool   `json:"autoRenewing"`
	PriceCurrencyCode          string `json:"priceCurrencyCode"`
	PriceAmountMicros          string `json:"priceAmountMicros"`
	CountryCode                string `json:"countryCode"`
	PaymentState               *int   `json:"paymentState,omitempty"`
	CancelReason               *int   `json:"cancelReason,omitempty"`
	UserCancellationTimeMillis string `json:"userCancellationTimeMillis,omitempty"`
	OrderID                    string `json:"orderId"`
	AcknowledgementState       int    `json:"acknowledgementState"`
	PurchaseToken              string `json:"purchaseToken"`
}

// NewSubscriptionPurchaseResponse renders a subscription entity as an
// androidpublisher resource
func NewSubscriptionPurchaseResponse(sub *subscription.Subscription) *SubscriptionPurchaseResponse {
	resp := &SubscriptionPurchaseResponse{
		Kind:                 "androidpublisher#subscriptionPurchase",
		StartTimeMillis:      strconv.FormatInt(sub.StartTimeMillis, 10),
		ExpiryTimeMillis:     strconv.FormatInt(sub.ExpiryTimeMillis, 10),
		AutoRenewing:         sub.AutoRenewing,
		PriceCurrencyCode:    sub.PriceCurrencyCode,
		PriceAmountMicros:    strconv.FormatInt(sub.PriceAmountMicros, 10),
		CountryCode:          "US",
		OrderID:              sub.OrderID,
		AcknowledgementState: int(sub.AcknowledgementState),
		PurchaseToken:        sub.Token,
	}

	paymentState := int(sub.PaymentState)
	resp.PaymentState = &paymentState

	if sub.CancelReason != nil {
		cancelReason := int(*sub.CancelReason)
		resp.CancelReason = &cancelReason
	}
	if sub.CanceledTimeMillis != nil {
		resp.UserCancellationTimeMillis = strconv.FormatInt(*sub.CanceledTimeMillis, 10)
	}
	if sub.PauseResumeMillis != nil {
		resp.AutoResumeTimeMillis = strconv.FormatInt(*sub.PauseResumeMillis, 10)
	}

	return resp
}

// CreateSubscriptionRequest creates a subscription through the emulator
// control surface
type CreateSubscriptionRequest struct {
	SubscriptionID string `json:"subscription_id" binding:"required"`
	UserID         string `json:"user_id" binding:"required"`
	PackageName    string `json:"package_name"`
	StartTrial     bool   `json:"start_trial"`
}

func (r *CreateSubscriptionRequest) Validate() error {
	if r.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Please provide a subscription id").
			Mark(ierr.ErrValidation)
	}
	if r.UserID == "" {
		return ierr.NewError("user_id is required").
			WithHint("Please provide a user id").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CreateSubscriptionResponse is returned by the emulator control surface
type CreateSubscriptionResponse struct {
	Token            string `json:"token"`
	SubscriptionID   string `json:"subscription_id"`
	UserID           string `json:"user_id"`
	OrderID          string `json:"order_id"`
	StartTimeMillis  int64  `json:"start_time_millis"`
	ExpiryTimeMillis int64  `json:"expiry_time_millis"`
	InTrial          bool   `json:"in_trial"`
}

// CancelSubscriptionRequest carries the emulator cancel options
type CancelSubscriptionRequest struct {
	Immediate bool `json:"immediate"`
}

// PauseSubscriptionRequest carries the optional informational pause
// duration. Expiry is frozen while paused regardless.
type PauseSubscriptionRequest struct {
	PauseDurationDays int `json:"pause_duration_days"`
}

// DeferralInfo matches the androidpublisher defer request body
type DeferralInfo struct {
	ExpectedExpiryTimeMillis string `json:"expectedExpiryTimeMillis"`
	DesiredExpiryTimeMillis  string `json:"desiredExpiryTimeMillis"`
}

// DeferSubscriptionRequest matches SubscriptionPurchasesDeferRequest
type DeferSubscriptionRequest struct {
	DeferralInfo DeferralInfo `json:"deferralInfo"`
}

// Millis parses the string millisecond fields.
// Fails with InvalidArgument on malformed values.
func (r *DeferSubscriptionRequest) Millis() (expected int64, desired int64, err error) {
	expected, err = strconv.ParseInt(r.DeferralInfo.ExpectedExpiryTimeMillis, 10, 64)
	if err != nil {
		return 0, 0, ierr.NewError("invalid expectedExpiryTimeMillis").
			WithHint("expectedExpiryTimeMillis must be a millisecond timestamp string").
			Mark(ierr.ErrInvalidArgument)
	}
	desired, err = strconv.ParseInt(r.DeferralInfo.DesiredExpiryTimeMillis, 10, 64)
	if err != nil {
		return 0, 0, ierr.NewError("invalid desiredExpiryTimeMillis").
			WithHint("desiredExpiryTimeMillis must be a millisecond timestamp string").
			Mark(ierr.ErrInvalidArgument)
	}
	return expected, desired, nil
}

// DeferSubscriptionResponse matches SubscriptionPurchasesDeferResponse
type DeferSubscriptionResponse struct {
	NewExpiryTimeMillis string `json:"newExpiryTimeMillis"`
}

// ListSubscriptionsResponse is the diagnostic store snapshot
type ListSubscriptionsResponse struct {
	Subscriptions []*subscription.Subscription `json:"subscriptions"`
	Total         int                          `json:"total"`
}
