package purchase

import "context"

// Repository provides access to the one-time purchase store. Mutate runs
// fn under the purchase's own lock, same discipline as the subscription
// repository.
type Repository interface {
	Create(ctx context.Context, p *Purchase) error
	Get(ctx context.Context, token string) (*Purchase, error)
	GetByOrderID(ctx context.Context, orderID string) (*Purchase, error)
	Mutate(ctx context.Context, token string, fn func(p *Purchase) error) error
	List(ctx context.Context) ([]*Purchase, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}
