package types

// PurchaseState mirrors the androidpublisher purchaseState integer codes
// for one-time products
type PurchaseState int

const (
	PurchaseStatePurchased PurchaseState = iota
	PurchaseStateCanceled
	PurchaseStatePending
)

// ConsumptionState mirrors the androidpublisher consumptionState codes
type ConsumptionState int

const (
	ConsumptionStateNotConsumed ConsumptionState = iota
	ConsumptionStateConsumed
)
