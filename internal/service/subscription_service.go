package service

import (
	"context"
	"fmt"
	"log/slog"

	"veilpay/internal/domain"
	"veilpay/internal/repository"
)

// SubscriptionService owns the subscription registry. A subscription holds a
// weak reference to its rule: the rule must exist and be active at creation
// time, and later rule disabling blocks execution without touching the
// subscription record.
type SubscriptionService struct {
	subRepo  repository.SubscriptionRepository
	ruleRepo repository.RuleRepository
	events   *EventLog
	seq      *Sequencer
	logger   *slog.Logger
}

func NewSubscriptionService(
	subRepo repository.SubscriptionRepository,
	ruleRepo repository.RuleRepository,
	events *EventLog,
	seq *Sequencer,
	logger *slog.Logger,
) *SubscriptionService {
	if logger == nil {
		logger = slog.Default()
	}

	return &SubscriptionService{
		subRepo:  subRepo,
		ruleRepo: ruleRepo,
		events:   events,
		seq:      seq,
		logger:   logger,
	}
}

func (s *SubscriptionService) CreateSubscription(ctx context.Context, subscriptionID, ruleID, subscriber string) (*domain.Subscription, error) {
	s.seq.Lock()
	defer s.seq.Unlock()

	if _, err := s.subRepo.GetByID(ctx, subscriptionID); err == nil {
		return nil, fmt.Errorf("%w: subscription %s", repository.ErrDuplicateID, subscriptionID)
	}

	rule, err := s.ruleRepo.GetByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if !rule.IsActive {
		return nil, fmt.Errorf("%w: rule %s is disabled", repository.ErrInactiveEntity, ruleID)
	}

	sub := &domain.Subscription{
		SubscriptionID: subscriptionID,
		RuleID:         ruleID,
		Subscriber:     subscriber,
	}

	if err := s.subRepo.Save(ctx, sub); err != nil {
		return nil, err
	}

	s.events.Append(domain.Event{
		Type:           domain.EventSubscriptionCreated,
		SubscriptionID: sub.SubscriptionID,
		RuleID:         sub.RuleID,
		Subscriber:     sub.Subscriber,
	})

	s.logger.InfoContext(ctx, "Subscription created",
		slog.String("subscription_id", sub.SubscriptionID),
		slog.String("rule_id", sub.RuleID),
		slog.String("subscriber", sub.Subscriber))

	return sub, nil
}

func (s *SubscriptionService) DisableSubscription(ctx context.Context, subscriptionID, caller string) error {
	s.seq.Lock()
	defer s.seq.Unlock()

	sub, err := s.subRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return err
	}

	if sub.Subscriber != caller {
		return fmt.Errorf("%w: only the subscriber may disable subscription %s", repository.ErrUnauthorized, subscriptionID)
	}

	if err := s.subRepo.Deactivate(ctx, subscriptionID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Subscription disabled",
		slog.String("subscription_id", subscriptionID),
		slog.String("caller", caller))

	return nil
}

func (s *SubscriptionService) GetSubscription(ctx context.Context, subscriptionID string) (*domain.Subscription, error) {
	return s.subRepo.GetByID(ctx, subscriptionID)
}

func (s *SubscriptionService) ListSubscriptionsForRule(ctx context.Context, ruleID string) ([]*domain.Subscription, error) {
	if _, err := s.ruleRepo.GetByID(ctx, ruleID); err != nil {
		return nil, err
	}
	return s.subRepo.GetByRuleID(ctx, ruleID)
}

func (s *SubscriptionService) ListSubscriptionIDs(ctx context.Context) ([]string, error) {
	return s.subRepo.ListIDs(ctx)
}
