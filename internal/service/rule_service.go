package service

import (
	"context"
	"fmt"
	"log/slog"

	"veilpay/internal/domain"
	"veilpay/internal/fhe"
	"veilpay/internal/repository"
)

// RuleService owns the payment-rule registry. Every mutation runs under the
// shared sequencer with all validation ahead of the first write, so a failed
// operation leaves no partial state behind.
type RuleService struct {
	ruleRepo repository.RuleRepository
	engine   fhe.Engine
	events   *EventLog
	seq      *Sequencer
	logger   *slog.Logger
}

type CreateRuleParams struct {
	RuleID              string
	Ciphertext          []byte
	WellFormednessProof []byte
	PublicThreshold     uint64
	Recipient           string
	Description         string
	Creator             string
}

func NewRuleService(
	ruleRepo repository.RuleRepository,
	engine fhe.Engine,
	events *EventLog,
	seq *Sequencer,
	logger *slog.Logger,
) *RuleService {
	if logger == nil {
		logger = slog.Default()
	}

	return &RuleService{
		ruleRepo: ruleRepo,
		engine:   engine,
		events:   events,
		seq:      seq,
		logger:   logger,
	}
}

func (s *RuleService) CreateRule(ctx context.Context, params CreateRuleParams) (*domain.PaymentRule, error) {
	s.seq.Lock()
	defer s.seq.Unlock()

	if _, err := s.ruleRepo.GetByID(ctx, params.RuleID); err == nil {
		return nil, fmt.Errorf("%w: rule %s", repository.ErrDuplicateID, params.RuleID)
	}

	handle, err := s.engine.ImportExternal(ctx, params.Ciphertext, params.WellFormednessProof)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrInvalidCiphertext, err)
	}
	if !s.engine.IsInitialized(ctx, handle) {
		return nil, fmt.Errorf("%w: handle not initialized", repository.ErrInvalidCiphertext)
	}

	if err := s.engine.AuthorizeSelf(ctx, handle); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrInvalidCiphertext, err)
	}
	// Marked decryptable at creation so any party may later request the
	// verification the executor needs.
	if err := s.engine.MarkPubliclyDecryptable(ctx, handle); err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrInvalidCiphertext, err)
	}

	rule := &domain.PaymentRule{
		RuleID:            params.RuleID,
		ThresholdHandleID: handle.ID(),
		PublicThreshold:   params.PublicThreshold,
		Recipient:         params.Recipient,
		Description:       params.Description,
		Creator:           params.Creator,
	}

	if err := s.ruleRepo.Save(ctx, rule); err != nil {
		return nil, err
	}

	s.events.Append(domain.Event{
		Type:    domain.EventPaymentRuleCreated,
		RuleID:  rule.RuleID,
		Creator: rule.Creator,
	})

	s.logger.InfoContext(ctx, "Payment rule created",
		slog.String("rule_id", rule.RuleID),
		slog.String("creator", rule.Creator),
		slog.Uint64("public_threshold", rule.PublicThreshold))

	return rule, nil
}

func (s *RuleService) DisableRule(ctx context.Context, ruleID, caller string) error {
	s.seq.Lock()
	defer s.seq.Unlock()

	rule, err := s.ruleRepo.GetByID(ctx, ruleID)
	if err != nil {
		return err
	}

	if rule.Creator != caller {
		return fmt.Errorf("%w: only the creator may disable rule %s", repository.ErrUnauthorized, ruleID)
	}

	if err := s.ruleRepo.Deactivate(ctx, ruleID); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "Payment rule disabled",
		slog.String("rule_id", ruleID),
		slog.String("caller", caller))

	return nil
}

func (s *RuleService) GetRule(ctx context.Context, ruleID string) (domain.RuleView, error) {
	rule, err := s.ruleRepo.GetByID(ctx, ruleID)
	if err != nil {
		return domain.RuleView{}, err
	}

	return rule.View(), nil
}

func (s *RuleService) ListRuleIDs(ctx context.Context) ([]string, error) {
	return s.ruleRepo.ListIDs(ctx)
}
