package processor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"veilpay/internal/domain"
	"veilpay/internal/fhe"
	"veilpay/internal/repository"
	"veilpay/internal/service"
)

// PaymentExecutor runs the decryption-verification protocol: subscription and
// rule liveness, oracle attestation of the claimed clear value, then the
// threshold comparison. The comparison only ever sees a value whose
// authenticity has already been established, and the whole attempt commits
// under the shared sequencer so no disable can land mid-flight.
type PaymentExecutor struct {
	subRepo  repository.SubscriptionRepository
	ruleRepo repository.RuleRepository
	verifier fhe.Verifier
	events   *service.EventLog
	seq      *service.Sequencer
	logger   *slog.Logger
	now      func() time.Time
}

func NewPaymentExecutor(
	subRepo repository.SubscriptionRepository,
	ruleRepo repository.RuleRepository,
	verifier fhe.Verifier,
	events *service.EventLog,
	seq *service.Sequencer,
	logger *slog.Logger,
) *PaymentExecutor {
	if logger == nil {
		logger = slog.Default()
	}

	return &PaymentExecutor{
		subRepo:  subRepo,
		ruleRepo: ruleRepo,
		verifier: verifier,
		events:   events,
		seq:      seq,
		logger:   logger,
		now:      time.Now,
	}
}

// ExecutePayment settles one execution attempt. The proof must already be in
// hand; the executor never waits on the oracle. Repeated execution with fresh
// proofs is allowed: the core tracks LastPaymentTimestamp but deliberately
// enforces no minimum interval between executions.
func (p *PaymentExecutor) ExecutePayment(ctx context.Context, subscriptionID string, clearValueEncoding, proof []byte) (*domain.PaymentReceipt, error) {
	p.seq.Lock()
	defer p.seq.Unlock()

	sub, err := p.subRepo.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if !sub.IsActive {
		return nil, fmt.Errorf("%w: subscription %s is disabled", repository.ErrInactiveEntity, subscriptionID)
	}

	rule, err := p.ruleRepo.GetByID(ctx, sub.RuleID)
	if err != nil {
		return nil, err
	}
	if !rule.IsActive {
		return nil, fmt.Errorf("%w: rule %s is disabled", repository.ErrInactiveEntity, rule.RuleID)
	}

	clearValue, err := p.verifier.Verify(ctx, [][]byte{rule.ThresholdHandleID}, clearValueEncoding, proof)
	if err != nil {
		p.logger.WarnContext(ctx, "Decryption proof rejected",
			slog.String("subscription_id", subscriptionID),
			slog.String("rule_id", rule.RuleID),
			slog.String("error", err.Error()))
		return nil, err
	}

	if clearValue < rule.PublicThreshold {
		return nil, fmt.Errorf("%w: verified value %d below threshold %d",
			repository.ErrThresholdNotMet, clearValue, rule.PublicThreshold)
	}

	executedAt := p.now().Unix()
	if err := p.subRepo.RecordPayment(ctx, subscriptionID, executedAt); err != nil {
		return nil, err
	}

	p.events.Append(domain.Event{
		Type:           domain.EventPaymentExecuted,
		SubscriptionID: sub.SubscriptionID,
		RuleID:         rule.RuleID,
		Recipient:      rule.Recipient,
	})

	p.logger.InfoContext(ctx, "Payment executed",
		slog.String("subscription_id", sub.SubscriptionID),
		slog.String("rule_id", rule.RuleID),
		slog.String("recipient", rule.Recipient),
		slog.Uint64("clear_value", clearValue))

	return &domain.PaymentReceipt{
		SubscriptionID: sub.SubscriptionID,
		RuleID:         rule.RuleID,
		Recipient:      rule.Recipient,
		ClearValue:     clearValue,
		ExecutedAt:     executedAt,
	}, nil
}

// IsAvailable is the trivial liveness probe.
func (p *PaymentExecutor) IsAvailable() bool {
	return true
}
