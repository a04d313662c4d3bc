package testutil

import (
	"context"
	"sync"

	"github.com/billingsim/billingsim/internal/types"
)

// CapturingPublisher records every published developer notification so
// tests can assert on event order and content.
type CapturingPublisher struct {
	mu            sync.Mutex
	notifications []*types.DeveloperNotification
}

func NewCapturingPublisher() *CapturingPublisher {
	return &CapturingPublisher{}
}

func (p *CapturingPublisher) PublishNotification(ctx context.Context, notification *types.DeveloperNotification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifications = append(p.notifications, notification)
	return nil
}

func (p *CapturingPublisher) Close() error {
	return nil
}

// Notifications returns a snapshot of everything published so far
func (p *CapturingPublisher) Notifications() []*types.DeveloperNotification {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*types.DeveloperNotification, len(p.notifications))
	copy(out, p.notifications)
	return out
}

// SubscriptionEvents returns the notification type codes of all published
// subscription notifications, in publish order
func (p *CapturingPublisher) SubscriptionEvents() []types.NotificationType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]types.NotificationType, 0, len(p.notifications))
	for _, n := range p.notifications {
		if n.SubscriptionNotification != nil {
			out = append(out, n.SubscriptionNotification.NotificationType)
		}
	}
	return out
}

// Reset drops all captured notifications
func (p *CapturingPublisher) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifications = nil
}
