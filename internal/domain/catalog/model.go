package catalog

import (
	"github.com/billingsim/billingsim/internal/types"
	"github.com/shopspring/decimal"
)

// PlanType distinguishes renewing subscriptions from one-time products
type PlanType string

const (
	PlanTypeSubscription PlanType = "subs"
	PlanTypeProduct      PlanType = "inapp"
)

// Plan is one catalog entry: a subscription plan or a one-time product.
// Entries are immutable after startup; lifecycle entities freeze the
// values they need at creation time.
type Plan struct {
	ID          string   `json:"id"`
	Type        PlanType `json:"type"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`

	PriceAmountMicros int64  `json:"price_amount_micros"`
	PriceCurrencyCode string `json:"price_currency_code"`

	// Subscription-only periods; empty for products
	BillingPeriod types.BillingPeriod `json:"billing_period,omitempty"`
	TrialPeriod   types.BillingPeriod `json:"trial_period,omitempty"`
	GracePeriod   types.BillingPeriod `json:"grace_period,omitempty"`

	BasePlanID string `json:"base_plan_id,omitempty"`
}

// Price returns the plan price as a decimal amount in major currency
// units, e.g. 29990000 micros -> 29.99
func (p *Plan) Price() decimal.Decimal {
	return decimal.NewFromInt(p.PriceAmountMicros).Shift(-6)
}

// HasTrial reports whether the plan grants a free trial period
func (p *Plan) HasTrial() bool {
	return p.TrialPeriod != ""
}
