package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"veilpay/internal/domain"
	"veilpay/internal/repository"
)

// RuleRepository keeps rules in an explicit presence-checked map plus an
// insertion-order list for enumeration. Rules are never deleted; deactivation
// is the only removal semantics.
type RuleRepository struct {
	mu    sync.RWMutex
	rules map[string]*domain.PaymentRule
	order []string
}

func NewRuleRepository() *RuleRepository {
	return &RuleRepository{
		rules: make(map[string]*domain.PaymentRule),
	}
}

func (r *RuleRepository) Save(ctx context.Context, rule *domain.PaymentRule) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[rule.RuleID]; exists {
		return fmt.Errorf("%w: rule %s", repository.ErrDuplicateID, rule.RuleID)
	}

	rule.CreatedAt = time.Now()
	rule.IsActive = true
	r.rules[rule.RuleID] = rule
	r.order = append(r.order, rule.RuleID)

	return nil
}

func (r *RuleRepository) GetByID(ctx context.Context, id string) (*domain.PaymentRule, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, exists := r.rules[id]
	if !exists {
		return nil, fmt.Errorf("%w: rule %s", repository.ErrNotFound, id)
	}
	return rule, nil
}

func (r *RuleRepository) ListIDs(ctx context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)

	return ids, nil
}

// Deactivate flips the rule inactive. Deactivating an already-inactive rule
// succeeds with no transition; a disabled rule never becomes active again.
func (r *RuleRepository) Deactivate(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rule, exists := r.rules[id]
	if !exists {
		return fmt.Errorf("%w: rule %s", repository.ErrNotFound, id)
	}

	rule.IsActive = false
	r.rules[id] = rule

	return nil
}
