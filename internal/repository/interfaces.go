package repository

import (
	"context"
	"errors"

	"veilpay/internal/domain"
)

type RuleRepository interface {
	Save(ctx context.Context, rule *domain.PaymentRule) error
	GetByID(ctx context.Context, id string) (*domain.PaymentRule, error)
	ListIDs(ctx context.Context) ([]string, error)
	Deactivate(ctx context.Context, id string) error
}

type SubscriptionRepository interface {
	Save(ctx context.Context, sub *domain.Subscription) error
	GetByID(ctx context.Context, id string) (*domain.Subscription, error)
	GetByRuleID(ctx context.Context, ruleID string) ([]*domain.Subscription, error)
	ListIDs(ctx context.Context) ([]string, error)
	Deactivate(ctx context.Context, id string) error
	RecordPayment(ctx context.Context, id string, timestamp int64) error
}

var (
	ErrDuplicateID       = errors.New("duplicate id")
	ErrNotFound          = errors.New("not found")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrInactiveEntity    = errors.New("inactive entity")
	ErrInvalidCiphertext = errors.New("invalid ciphertext")
	ErrInvalidProof      = errors.New("invalid proof")
	ErrThresholdNotMet   = errors.New("threshold not met")
)
