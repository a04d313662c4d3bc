package config

import (
	ierr "github.com/billingsim/billingsim/internal/errors"
	"github.com/billingsim/billingsim/internal/types"
)

// CatalogConfig holds the product and subscription definitions served by
// the emulator. Definitions are frozen at startup; there is no runtime
// catalog mutation surface.
type CatalogConfig struct {
	Subscriptions []PlanConfig `mapstructure:"subscriptions"`
	Products      []PlanConfig `mapstructure:"products"`
}

// PlanConfig is one catalog entry as declared in config.yaml
type PlanConfig struct {
	ID          string `mapstructure:"id"`
	Title       string `mapstructure:"title"`
	Description string `mapstructure:"description"`

	PriceMicros int64  `mapstructure:"price_micros"`
	Currency    string `mapstructure:"currency" default:"USD"`

	// Subscription-only fields, ISO-8601 single designator durations
	BillingPeriod string `mapstructure:"billing_period"`
	TrialPeriod   string `mapstructure:"trial_period"`
	GracePeriod   string `mapstructure:"grace_period"`

	BasePlanID string `mapstructure:"base_plan_id"`
}

func (p PlanConfig) Validate() error {
	if p.ID == "" {
		return ierr.NewError("catalog entry missing id").
			WithHint("Every catalog entry needs an id").
			Mark(ierr.ErrValidation)
	}
	if p.PriceMicros < 0 {
		return ierr.NewError("catalog entry has negative price").
			WithHintf("Plan %s has a negative price", p.ID).
			Mark(ierr.ErrValidation)
	}
	for _, period := range []string{p.BillingPeriod, p.TrialPeriod, p.GracePeriod} {
		if period == "" {
			continue
		}
		if err := types.BillingPeriod(period).Validate(); err != nil {
			return err
		}
	}
	return nil
}
