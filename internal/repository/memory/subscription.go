package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/billingsim/billingsim/internal/domain/subscription"
	ierr "github.com/billingsim/billingsim/internal/errors"
)

// MsgSubscriptionTokenNotFound is the protocol-visible message for an
// unknown subscription token. Callers depend on the exact text.
const MsgSubscriptionTokenNotFound = "The subscription token was not found."

type identityKey struct {
	packageName    string
	subscriptionID string
	userID         string
}

type subscriptionEntry struct {
	mu  sync.Mutex
	sub *subscription.Subscription
}

// SubscriptionStore is the in-memory subscription repository.
//
// The outer RWMutex guards only the maps; each entry carries its own lock
// so mutations on different tokens never block each other while mutations
// on the same token serialize. Entries are never removed: terminal
// subscriptions stay queryable for audit.
type SubscriptionStore struct {
	mu         sync.RWMutex
	entries    map[string]*subscriptionEntry
	byOrder    map[string]string
	byIdentity map[identityKey]string
}

// NewSubscriptionStore creates an empty in-memory subscription store
func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{
		entries:    make(map[string]*subscriptionEntry),
		byOrder:    make(map[string]string),
		byIdentity: make(map[identityKey]string),
	}
}

// NewSubscriptionRepository creates the store behind the domain interface
func NewSubscriptionRepository() subscription.Repository {
	return NewSubscriptionStore()
}

func (s *SubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[sub.Token]; ok {
		return ierr.NewError("subscription token already exists").
			WithHint("A subscription with this token already exists").
			WithReportableDetails(map[string]any{
				"token": sub.Token,
			}).
			Mark(ierr.ErrAlreadyExists)
	}

	s.entries[sub.Token] = &subscriptionEntry{sub: sub.Copy()}
	s.byOrder[sub.OrderID] = sub.Token
	s.byIdentity[identityKey{sub.PackageName, sub.SubscriptionID, sub.UserID}] = sub.Token
	return nil
}

func (s *SubscriptionStore) Get(ctx context.Context, token string) (*subscription.Subscription, error) {
	e, err := s.entry(token)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sub.Copy(), nil
}

func (s *SubscriptionStore) GetByOrderID(ctx context.Context, orderID string) (*subscription.Subscription, error) {
	s.mu.RLock()
	token, ok := s.byOrder[orderID]
	s.mu.RUnlock()

	if !ok {
		return nil, ierr.NewError("order not found").
			WithHint("The order was not found.").
			Mark(ierr.ErrNotFound)
	}
	return s.Get(ctx, token)
}

func (s *SubscriptionStore) FindByIdentity(ctx context.Context, packageName, subscriptionID, userID string) (*subscription.Subscription, error) {
	s.mu.RLock()
	token, ok := s.byIdentity[identityKey{packageName, subscriptionID, userID}]
	s.mu.RUnlock()

	if !ok {
		return nil, ierr.NewError("subscription not found for user").
			WithHint(MsgSubscriptionTokenNotFound).
			Mark(ierr.ErrNotFound)
	}
	return s.Get(ctx, token)
}

// Mutate applies fn to the subscription under its entry lock. fn receives
// a working copy; the store commits it only when fn succeeds, so a failed
// command never leaves partial field updates behind. If fn mints a new
// order id the order index is re-pointed in the same critical section.
func (s *SubscriptionStore) Mutate(ctx context.Context, token string, fn func(sub *subscription.Subscription) error) error {
	e, err := s.entry(token)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	work := e.sub.Copy()
	if err := fn(work); err != nil {
		return err
	}

	if work.OrderID != e.sub.OrderID {
		s.mu.Lock()
		delete(s.byOrder, e.sub.OrderID)
		s.byOrder[work.OrderID] = token
		s.mu.Unlock()
	}

	e.sub = work
	return nil
}

func (s *SubscriptionStore) List(ctx context.Context) ([]*subscription.Subscription, error) {
	tokens, _ := s.Tokens(ctx)

	out := make([]*subscription.Subscription, 0, len(tokens))
	for _, token := range tokens {
		sub, err := s.Get(ctx, token)
		if err != nil {
			continue
		}
		out = append(out, sub)
	}
	return out, nil
}

// Tokens returns all tokens in sorted order so that sweeps over the store
// are deterministic for a fixed set of subscriptions.
func (s *SubscriptionStore) Tokens(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	tokens := make([]string, 0, len(s.entries))
	for token := range s.entries {
		tokens = append(tokens, token)
	}
	s.mu.RUnlock()

	sort.Strings(tokens)
	return tokens, nil
}

func (s *SubscriptionStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *SubscriptionStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*subscriptionEntry)
	s.byOrder = make(map[string]string)
	s.byIdentity = make(map[identityKey]string)
	return nil
}

func (s *SubscriptionStore) entry(token string) (*subscriptionEntry, error) {
	s.mu.RLock()
	e, ok := s.entries[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ierr.NewError("subscription not found").
			WithHint(MsgSubscriptionTokenNotFound).
			WithReportableDetails(map[string]any{
				"token": token,
			}).
			Mark(ierr.ErrNotFound)
	}
	return e, nil
}
