package subscription

import "context"

// Repository provides access to the subscription store.
//
// Mutate is the only write path after creation: it runs fn under the
// subscription's own lock so that concurrent commands on the same token
// serialize, while commands on different tokens never block each other.
// The order-id secondary index is re-pointed atomically with the entity
// update whenever fn changes the current order id.
type Repository interface {
	Create(ctx context.Context, sub *Subscription) error
	Get(ctx context.Context, token string) (*Subscription, error)
	GetByOrderID(ctx context.Context, orderID string) (*Subscription, error)
	FindByIdentity(ctx context.Context, packageName, subscriptionID, userID string) (*Subscription, error)
	Mutate(ctx context.Context, token string, fn func(sub *Subscription) error) error
	List(ctx context.Context) ([]*Subscription, error)
	Tokens(ctx context.Context) ([]string, error)
	Count(ctx context.Context) (int, error)
	Clear(ctx context.Context) error
}
