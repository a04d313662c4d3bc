package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/billingsim/billingsim/internal/domain/purchase"
	ierr "github.com/billingsim/billingsim/internal/errors"
)

// MsgPurchaseTokenNotFound is the protocol-visible message for an unknown
// one-time purchase token
const MsgPurchaseTokenNotFound = "The purchase token was not found."

type purchaseEntry struct {
	mu sync.Mutex
	p  *purchase.Purchase
}

// PurchaseStore is the in-memory one-time purchase repository, same
// locking discipline as the subscription store.
type PurchaseStore struct {
	mu      sync.RWMutex
	entries map[string]*purchaseEntry
	byOrder map[string]string
}

// NewPurchaseStore creates an empty in-memory purchase store
func NewPurchaseStore() *PurchaseStore {
	return &PurchaseStore{
		entries: make(map[string]*purchaseEntry),
		byOrder: make(map[string]string),
	}
}

// NewPurchaseRepository creates the store behind the domain interface
func NewPurchaseRepository() purchase.Repository {
	return NewPurchaseStore()
}

func (s *PurchaseStore) Create(ctx context.Context, p *purchase.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.entries[p.Token]; ok {
		return ierr.NewError("purchase token already exists").
			WithHint("A purchase with this token already exists").
			WithReportableDetails(map[string]any{
				"token": p.Token,
			}).
			Mark(ierr.ErrAlreadyExists)
	}

	s.entries[p.Token] = &purchaseEntry{p: p.Copy()}
	s.byOrder[p.OrderID] = p.Token
	return nil
}

func (s *PurchaseStore) Get(ctx context.Context, token string) (*purchase.Purchase, error) {
	e, err := s.entry(token)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.p.Copy(), nil
}

func (s *PurchaseStore) GetByOrderID(ctx context.Context, orderID string) (*purchase.Purchase, error) {
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

// Mutate applies fn to a working copy under the entry lock and commits it
// only when fn succeeds
func (s *PurchaseStore) Mutate(ctx context.Context, token string, fn func(p *purchase.Purchase) error) error {
	e, err := s.entry(token)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	work := e.p.Copy()
	if err := fn(work); err != nil {
		return err
	}

	e.p = work
	return nil
}

func (s *PurchaseStore) List(ctx context.Context) ([]*purchase.Purchase, error) {
	s.mu.RLock()
	tokens := make([]string, 0, len(s.entries))
	for token := range s.entries {
		tokens = append(tokens, token)
	}
	s.mu.RUnlock()

	sort.Strings(tokens)

	out := make([]*purchase.Purchase, 0, len(tokens))
	for _, token := range tokens {
		p, err := s.Get(ctx, token)
		if err != nil {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (s *PurchaseStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries), nil
}

func (s *PurchaseStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*purchaseEntry)
	s.byOrder = make(map[string]string)
	return nil
}

func (s *PurchaseStore) entry(token string) (*purchaseEntry, error) {
	s.mu.RLock()
	e, ok := s.entries[token]
	s.mu.RUnlock()

	if !ok {
		return nil, ierr.NewError("purchase not found").
			WithHint(MsgPurchaseTokenNotFound).
			WithReportableDetails(map[string]any{
				"token": token,
			}).
			Mark(ierr.ErrNotFound)
	}
	return e, nil
}
