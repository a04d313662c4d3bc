package catalog

import "context"

// Repository resolves catalog entries by id
type Repository interface {
	GetSubscriptionPlan(ctx context.Context, id string) (*Plan, error)
	GetProduct(ctx context.Context, id string) (*Plan, error)
	ListSubscriptionPlans(ctx context.Context) ([]*Plan, error)
	ListProducts(ctx context.Context) ([]*Plan, error)
}
