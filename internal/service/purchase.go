package service

import (
	"context"

	"github.com/billingsim/billingsim/internal/api/dto"
	"github.com/billingsim/billingsim/internal/clock"
	"github.com/billingsim/billingsim/internal/config"
	"github.com/billingsim/billingsim/internal/domain/catalog"
	"github.com/billingsim/billingsim/internal/domain/purchase"
	ierr "github.com/billingsim/billingsim/internal/errors"
	"github.com/billingsim/billingsim/internal/logger"
	"github.com/billingsim/billingsim/internal/rtdn/publisher"
	"github.com/billingsim/billingsim/internal/types"
)

// PurchaseService manages one-time product purchases. Unlike
// subscriptions they never expire on their own: only explicit commands
// change them.
type PurchaseService interface {
	CreatePurchase(ctx context.Context, req dto.CreatePurchaseRequest) (*dto.CreatePurchaseResponse, error)
	GetPurchase(ctx context.Context, packageName, productID, token string) (*dto.ProductPurchaseResponse, error)
	AcknowledgePurchase(ctx context.Context, packageName, productID, token string) error
	ConsumePurchase(ctx context.Context, packageName, productID, token string) error
	RefundPurchase(ctx context.Context, token string) error
	ListPurchases(ctx context.Context) (*dto.ListPurchasesResponse, error)
}

type purchaseService struct {
	repo      purchase.Repository
	catalog   catalog.Repository
	clock     clock.Clock
	publisher publisher.NotificationPublisher
	config    *config.Configuration
	logger    *logger.Logger
}

func NewPurchaseService(
	repo purchase.Repository,
	catalogRepo catalog.Repository,
	clk clock.Clock,
	pub publisher.NotificationPublisher,
	cfg *config.Configuration,
	log *logger.Logger,
) PurchaseService {
	return &purchaseService{
		repo:      repo,
		catalog:   catalogRepo,
		clock:     clk,
		publisher: pub,
		config:    cfg,
		logger:    log,
	}
}

func (s *purchaseService) CreatePurchase(ctx context.Context, req dto.CreatePurchaseRequest) (*dto.CreatePurchaseResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	packageName := req.PackageName
	if packageName == "" {
		packageName = s.config.Emulator.DefaultPackageName
	}

	product, err := s.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	quantity := req.Quantity
	if quantity == 0 {
		quantity = 1
	}

	nowMillis := s.clock.NowMillis()

	p := &purchase.Purchase{
		Token:              types.GeneratePurchaseToken(s.config.Emulator.TokenPrefix, nowMillis),
		OrderID:            types.GenerateOrderID(),
		PackageName:        packageName,
		ProductID:          req.ProductID,
		UserID:             req.UserID,
		PurchaseState:      types.PurchaseStatePurchased,
		PurchaseTimeMillis: nowMillis,
		PriceAmountMicros:  product.PriceAmountMicros,
		PriceCurrencyCode:  product.PriceCurrencyCode,
		DeveloperPayload:   req.DeveloperPayload,
		Quantity:           quantity,
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Infow("purchase created",
		"token", p.Token,
		"product_id", p.ProductID,
		"user_id", p.UserID,
		"package_name", p.PackageName,
	)

	publishNotification(ctx, s.publisher, s.logger,
		types.NewOneTimeProductNotification(p.PackageName, nowMillis, types.OneTimeNotificationTypePurchased, p.Token, p.ProductID))

	return &dto.CreatePurchaseResponse{
		Token:              p.Token,
		ProductID:          p.ProductID,
		UserID:             p.UserID,
		OrderID:            p.OrderID,
		PurchaseTimeMillis: p.PurchaseTimeMillis,
		PurchaseState:      int(p.PurchaseState),
	}, nil
}

func (s *purchaseService) GetPurchase(ctx context.Context, packageName, productID, token string) (*dto.ProductPurchaseResponse, error) {
	p, err := s.getVerified(ctx, packageName, productID, token)
	if err != nil {
		return nil, err
	}
	return dto.NewProductPurchaseResponse(p), nil
}

// AcknowledgePurchase is idempotent, same contract as the subscription
// acknowledge.
func (s *purchaseService) AcknowledgePurchase(ctx context.Context, packageName, productID, token string) error {
	if _, err := s.getVerified(ctx, packageName, productID, token); err != nil {
		return err
	}

	return s.repo.Mutate(ctx, token, func(p *purchase.Purchase) error {
		p.AcknowledgementState = types.AcknowledgementStateAcknowledged
		return nil
	})
}

// ConsumePurchase marks the purchase consumed. Re-consuming is a no-op;
// a refunded purchase cannot be consumed.
func (s *purchaseService) ConsumePurchase(ctx context.Context, packageName, productID, token string) error {
	if _, err := s.getVerified(ctx, packageName, productID, token); err != nil {
		return err
	}

	return s.repo.Mutate(ctx, token, func(p *purchase.Purchase) error {
		if p.PurchaseState == types.PurchaseStateCanceled {
			return ierr.NewError("purchase is refunded").
				WithHint("Cannot consume a refunded purchase").
				Mark(ierr.ErrInvalidState)
		}
		p.ConsumptionState = types.ConsumptionStateConsumed
		return nil
	})
}

// RefundPurchase cancels the purchase without emitting a notification.
// Refunding an already refunded purchase is a no-op.
func (s *purchaseService) RefundPurchase(ctx context.Context, token string) error {
	err := s.repo.Mutate(ctx, token, func(p *purchase.Purchase) error {
		p.PurchaseState = types.PurchaseStateCanceled
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Infow("purchase refunded", "token", token)
	return nil
}

func (s *purchaseService) ListPurchases(ctx context.Context) (*dto.ListPurchasesResponse, error) {
	purchases, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	return &dto.ListPurchasesResponse{
		Purchases: purchases,
		Total:     len(purchases),
	}, nil
}

// getVerified resolves a purchase by token and validates the path
// identity. Identity mismatches surface the same NotFound message as an
// unknown token so the probe leaks nothing.
func (s *purchaseService) getVerified(ctx context.Context, packageName, productID, token string) (*purchase.Purchase, error) {
	p, err := s.repo.Get(ctx, token)
	if err != nil {
		return nil, err
	}

	if p.PackageName != packageName || p.ProductID != productID {
		return nil, ierr.NewError("purchase identity mismatch").
			WithHint(msgPurchaseTokenNotFound).
			WithReportableDetails(map[string]any{
				"package_name": packageName,
				"product_id":   productID,
			}).
			Mark(ierr.ErrNotFound)
	}

	return p, nil
}
