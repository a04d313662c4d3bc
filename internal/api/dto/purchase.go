package dto

import (
	"strconv"

	"github.com/billingsim/billingsim/internal/domain/purchase"
	ierr "github.com/billingsim/billingsim/internal/errors"
)

// ProductPurchaseResponse mirrors the androidpublisher v3
// ProductPurchase resource
type ProductPurchaseResponse struct {
	Kind                 string `json:"kind"`
	PurchaseTimeMillis   string `json:"purchaseTimeMillis"`
	PurchaseState        int    `json:"purchaseState"`
	ConsumptionState     int    `json:"consumptionState"`
	DeveloperPayload     string `json:"developerPayload,omitempty"`
	OrderID              string `json:"orderId"`
	AcknowledgementState int    `json:"acknowledgementState"`
	PurchaseToken        string `json:"purchaseToken"`
	ProductID            string `json:"productId"`
	Quantity             int    `json:"quantity"`
	RegionCode           string `json:"regionCode"`
}

// NewProductPurchaseResponse renders a purchase entity as an
// androidpublisher resource
func NewProductPurchaseResponse(p *purchase.Purchase) *ProductPurchaseResponse {
	return &ProductPurchaseResponse{
		Kind:                 "androidpublisher#productPurchase",
		PurchaseTimeMillis:   strconv.FormatInt(p.PurchaseTimeMillis, 10),
		PurchaseState:        int(p.PurchaseState),
		ConsumptionState:     int(p.ConsumptionState),
		DeveloperPayload:     p.DeveloperPayload,
		OrderID:              p.OrderID,
		AcknowledgementState: int(p.AcknowledgementState),
		PurchaseToken:        p.Token,
		ProductID:            p.ProductID,
		Quantity:             p.Quantity,
		RegionCode:           "US",
	}
}

// CreatePurchaseRequest creates a one-time purchase through the
// emulator control surface
type CreatePurchaseRequest struct {
	ProductID        string `json:"product_id" binding:"required"`
	UserID           string `json:"user_id" binding:"required"`
	PackageName      string `json:"package_name"`
	DeveloperPayload string `json:"developer_payload"`
	Quantity         int    `json:"quantity"`
}

func (r *CreatePurchaseRequest) Validate() error {
	if r.ProductID == "" {
		return ierr.NewError("product_id is required").
			WithHint("Please provide a product id").
			Mark(ierr.ErrValidation)
	}
	if r.UserID == "" {
		return ierr.NewError("user_id is required").
			WithHint("Please provide a user id").
			Mark(ierr.ErrValidation)
	}
	if r.Quantity < 0 {
		return ierr.NewError("quantity must not be negative").
			WithHint("Quantity must be a positive integer").
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CreatePurchaseResponse is returned by the emulator control surface
type CreatePurchaseResponse struct {
	Token              string `json:"token"`
	ProductID          string `json:"product_id"`
	UserID             string `json:"user_id"`
	OrderID            string `json:"order_id"`
	PurchaseTimeMillis int64  `json:"purchase_time_millis"`
	PurchaseState      int    `json:"purchase_state"`
}

// ListPurchasesResponse is the diagnostic store snapshot
type ListPurchasesResponse struct {
	Purchases []*purchase.Purchase `json:"purchases"`
	Total     int                  `json:"total"`
}
