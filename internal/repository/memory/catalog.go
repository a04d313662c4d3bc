package memory

import (
	"context"

	"github.com/billingsim/billingsim/internal/cache"
	"github.com/billingsim/billingsim/internal/config"
	"github.com/billingsim/billingsim/internal/domain/catalog"
	ierr "github.com/billingsim/billingsim/internal/errors"
	"github.com/billingsim/billingsim/internal/types"
	"github.com/samber/lo"
)

// Protocol-visible messages for catalog mismatches. Callers depend on the
// exact text.
const (
	MsgSubscriptionPlanNotFound = "The subscription does not exist for this product."
	MsgProductNotFound          = "The in-app product was not found."
)

// CatalogStore serves the immutable catalog loaded from configuration.
// Lookups go through the cache since catalog reads sit on every command
// path.
type CatalogStore struct {
	subscriptions map[string]*catalog.Plan
	products      map[string]*catalog.Plan
	cache         cache.Cache
}

// NewCatalogRepository builds the catalog from configuration
func NewCatalogRepository(cfg *config.Configuration, c cache.Cache) catalog.Repository {
	store := &CatalogStore{
		subscriptions: make(map[string]*catalog.Plan),
		products:      make(map[string]*catalog.Plan),
		cache:         c,
	}
	for _, plan := range cfg.Catalog.Subscriptions {
		store.subscriptions[plan.ID] = fromConfig(plan, catalog.PlanTypeSubscription)
	}
	for _, product := range cfg.Catalog.Products {
		store.products[product.ID] = fromConfig(product, catalog.PlanTypeProduct)
	}
	return store
}

func fromConfig(p config.PlanConfig, planType catalog.PlanType) *catalog.Plan {
	currency := p.Currency
	if currency == "" {
		currency = "USD"
	}
	return &catalog.Plan{
		ID:                p.ID,
		Type:              planType,
		Title:             p.Title,
		Description:       p.Description,
		PriceAmountMicros: p.PriceMicros,
		PriceCurrencyCode: currency,
		BillingPeriod:     types.BillingPeriod(p.BillingPeriod),
		TrialPeriod:       types.BillingPeriod(p.TrialPeriod),
		GracePeriod:       types.BillingPeriod(p.GracePeriod),
		BasePlanID:        p.BasePlanID,
	}
}

func (s *CatalogStore) GetSubscriptionPlan(ctx context.Context, id string) (*catalog.Plan, error) {
	key := cache.GenerateKey(cache.PrefixPlan, id)
	if cached, ok := s.cache.Get(ctx, key); ok {
		if plan, ok := cached.(*catalog.Plan); ok {
			return plan, nil
		}
	}

	plan, ok := s.subscriptions[id]
	if !ok {
		return nil, ierr.NewError("subscription plan not found").
			WithHint(MsgSubscriptionPlanNotFound).
			WithReportableDetails(map[string]any{
				"subscription_id": id,
			}).
			Mark(ierr.ErrNotFound)
	}

	s.cache.Set(ctx, key, plan, 0)
	return plan, nil
}

func (s *CatalogStore) GetProduct(ctx context.Context, id string) (*catalog.Plan, error) {
	key := cache.GenerateKey(cache.PrefixProduct, id)
	if cached, ok := s.cache.Get(ctx, key); ok {
		if plan, ok := cached.(*catalog.Plan); ok {
			return plan, nil
		}
	}

	product, ok := s.products[id]
	if !ok {
		return nil, ierr.NewError("product not found").
			WithHint(MsgProductNotFound).
			WithReportableDetails(map[string]any{
				"product_id": id,
			}).
			Mark(ierr.ErrNotFound)
	}

	s.cache.Set(ctx, key, product, 0)
	return product, nil
}

func (s *CatalogStore) ListSubscriptionPlans(ctx context.Context) ([]*catalog.Plan, error) {
	return lo.Values(s.subscriptions), nil
}

func (s *CatalogStore) ListProducts(ctx context.Context) ([]*catalog.Plan, error) {
	return lo.Values(s.products), nil
}
