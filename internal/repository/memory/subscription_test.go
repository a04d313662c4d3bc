package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/billingsim/billingsim/internal/domain/subscription"
	ierr "github.com/billingsim/billingsim/internal/errors"
	"github.com/billingsim/billingsim/internal/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSubscription(token, orderID string) *subscription.Subscription {
	return &subscription.Subscription{
		Token:            token,
		OrderID:          orderID,
		PackageName:      "com.example.app",
		SubscriptionID:   "premium_monthly",
		UserID:           "user-" + token,
		State:            types.SubscriptionStateActive,
		AutoRenewing:     true,
		ExpiryTimeMillis: 1700000000000,
		BillingPeriod:    "P1M",
	}
}

func TestSubscriptionStoreCreateAndGet(t *testing.T) {
	ctx := context.Background()
	store := NewSubscriptionStore()

	sub := newSubscription("tok-1", "GPA.1111-1111-1111-1111")
	require.NoError(t, store.Create(ctx, sub))

	got, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, sub.Token, got.Token)

	// The store hands out copies, never its own entity
	got.State = types.SubscriptionStateExpired
	again, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, types.SubscriptionStateActive, again.State)

	err = store.Create(ctx, newSubscription("tok-1", "GPA.2222-2222-2222-2222"))
	assert.True(t, ierr.IsAlreadyExists(err))

	_, err = store.Get(ctx, "missing")
	assert.True(t, ierr.IsNotFound(err))
}

func TestSubscriptionStoreSecondaryIndexes(t *testing.T) {
	ctx := context.Background()
	store := NewSubscriptionStore()

	sub := newSubscription("tok-1", "GPA.1111-1111-1111-1111")
	require.NoError(t, store.Create(ctx, sub))

	byOrder, err := store.GetByOrderID(ctx, "GPA.1111-1111-1111-1111")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", byOrder.Token)

	byIdentity, err := store.FindByIdentity(ctx, "com.example.app", "premium_monthly", "user-tok-1")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", byIdentity.Token)

	_, err = store.FindByIdentity(ctx, "com.example.app", "premium_monthly", "nobody")
	assert.True(t, ierr.IsNotFound(err))
}

func TestSubscriptionStoreMutateRepointsOrderIndex(t *testing.T) {
	ctx := context.Background()
	store := NewSubscriptionStore()
	require.NoError(t, store.Create(ctx, newSubscription("tok-1", "GPA.1111-1111-1111-1111")))

	err := store.Mutate(ctx, "tok-1", func(sub *subscription.Subscription) error {
		sub.OrderID = "GPA.2222-2222-2222-2222"
		return nil
	})
	require.NoError(t, err)

	// Old order id no longer routes, new one does
	_, err = store.GetByOrderID(ctx, "GPA.1111-1111-1111-1111")
	assert.True(t, ierr.IsNotFound(err))

	got, err := store.GetByOrderID(ctx, "GPA.2222-2222-2222-2222")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", got.Token)
}

func TestSubscriptionStoreMutateRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := NewSubscriptionStore()
	require.NoError(t, store.Create(ctx, newSubscription("tok-1", "GPA.1111-1111-1111-1111")))

	err := store.Mutate(ctx, "tok-1", func(sub *subscription.Subscription) error {
		sub.State = types.SubscriptionStateRevoked
		sub.OrderID = "GPA.9999-9999-9999-9999"
		return fmt.Errorf("boom")
	})
	require.Error(t, err)

	got, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, types.SubscriptionStateActive, got.State)
	assert.Equal(t, "GPA.1111-1111-1111-1111", got.OrderID)

	_, err = store.GetByOrderID(ctx, "GPA.9999-9999-9999-9999")
	assert.True(t, ierr.IsNotFound(err))
}

func TestSubscriptionStoreConcurrentMutations(t *testing.T) {
	ctx := context.Background()
	store := NewSubscriptionStore()
	require.NoError(t, store.Create(ctx, newSubscription("tok-1", "GPA.1111-1111-1111-1111")))

	const workers = 20
	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			_ = store.Mutate(ctx, "tok-1", func(sub *subscription.Subscription) error {
				sub.RenewalCount++
				return nil
			})
		}()
	}
	wg.Wait()

	got, err := store.Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, workers, got.RenewalCount)
}

func TestSubscriptionStoreTokensSorted(t *testing.T) {
	ctx := context.Background()
	store := NewSubscriptionStore()

	for _, token := range []string{"tok-c", "tok-a", "tok-b"} {
		require.NoError(t, store.Create(ctx, newSubscription(token, "GPA."+token)))
	}

	tokens, err := store.Tokens(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"tok-a", "tok-b", "tok-c"}, tokens)
}

func TestSubscriptionStoreClear(t *testing.T) {
	ctx := context.Background()
	store := NewSubscriptionStore()
	require.NoError(t, store.Create(ctx, newSubscription("tok-1", "GPA.1111-1111-1111-1111")))

	require.NoError(t, store.Clear(ctx))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = store.GetByOrderID(ctx, "GPA.1111-1111-1111-1111")
	assert.True(t, ierr.IsNotFound(err))
}
