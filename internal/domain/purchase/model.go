package purchase

import (
	"github.com/billingsim/billingsim/internal/types"
)

// Purchase is a one-time product purchase. Created once, optionally
// acknowledged, consumed or refunded; it never expires on its own.
type Purchase struct {
	// Token is the opaque purchase token, primary key
	Token string `json:"token"`

	// OrderID is the billing transaction id used for refund routing
	OrderID string `json:"order_id"`

	// Immutable identity
	PackageName string `json:"package_name"`
	ProductID   string `json:"product_id"`
	UserID      string `json:"user_id"`

	PurchaseState        types.PurchaseState        `json:"purchase_state"`
	ConsumptionState     types.ConsumptionState     `json:"consumption_state"`
	AcknowledgementState types.AcknowledgementState `json:"acknowledgement_state"`

	PurchaseTimeMillis int64 `json:"purchase_time_millis"`

	PriceAmountMicros int64  `json:"price_amount_micros"`
	PriceCurrencyCode string `json:"price_currency_code"`

	DeveloperPayload string `json:"developer_payload,omitempty"`
	Quantity         int    `json:"quantity"`
}

// Copy returns a copy so callers never alias store-owned state
func (p *Purchase) Copy() *Purchase {
	out := *p
	return &out
}
