package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"veilpay/internal/domain"
	"veilpay/internal/repository"
)

// SubscriptionRepository indexes subscriptions by rule so a rule's
// subscriptions can be enumerated without scanning the whole map.
type SubscriptionRepository struct {
	mu        sync.RWMutex
	subs      map[string]*domain.Subscription
	ruleIndex map[string][]string
	order     []string
}

func NewSubscriptionRepository() *SubscriptionRepository {
	return &SubscriptionRepository{
		subs:      make(map[string]*domain.Subscription),
		ruleIndex: make(map[string][]string),
	}
}

func (r *SubscriptionRepository) Save(ctx context.Context, sub *domain.Subscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.subs[sub.SubscriptionID]; exists {
		return fmt.Errorf("%w: subscription %s", repository.ErrDuplicateID, sub.SubscriptionID)
	}

	sub.CreatedAt = time.Now()
	sub.IsActive = true
	sub.LastPaymentTimestamp = 0
	r.subs[sub.SubscriptionID] = sub
	r.ruleIndex[sub.RuleID] = append(r.ruleIndex[sub.RuleID], sub.SubscriptionID)
	r.order = append(r.order, sub.SubscriptionID)

	return nil
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id string) (*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sub, exists := r.subs[id]
	if !exists {
		return nil, fmt.Errorf("%w: subscription %s", repository.ErrNotFound, id)
	}
	return sub, nil
}

func (r *SubscriptionRepository) GetByRuleID(ctx context.Context, ruleID string) ([]*domain.Subscription, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*domain.Subscription
	for _, id := range r.ruleIndex[ruleID] {
		if sub, exists := r.subs[id]; exists {
			result = append(result, sub)
		}
	}

	return result, nil
}

func (r *SubscriptionRepository) ListIDs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)

	return ids, nil
}

func (r *SubscriptionRepository) Deactivate(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, exists := r.subs[id]
	if !exists {
		return fmt.Errorf("%w: subscription %s", repository.ErrNotFound, id)
	}

	sub.IsActive = false
	r.subs[id] = sub

	return nil
}

func (r *SubscriptionRepository) RecordPayment(ctx context.Context, id string, timestamp int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sub, exists := r.subs[id]
	if !exists {
		return fmt.Errorf("%w: subscription %s", repository.ErrNotFound, id)
	}

	sub.LastPaymentTimestamp = timestamp
	r.subs[id] = sub

	return nil
}
