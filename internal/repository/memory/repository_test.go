package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"veilpay/internal/domain"
	"veilpay/internal/repository"
)

func TestRuleRepository_SaveAndGetByID(t *testing.T) {
	repo := NewRuleRepository()
	rule := &domain.PaymentRule{
		RuleID:            "r1",
		ThresholdHandleID: []byte{0x01, 0x02},
		PublicThreshold:   100,
		Recipient:         "acct-a",
		Creator:           "acct-c",
	}

	err := repo.Save(context.Background(), rule)
	if err != nil {
		t.Fatalf("unexpected error on Save: %v", err)
	}
	got, err := repo.GetByID(context.Background(), "r1")

	if err != nil {
		t.Fatalf("unexpected error on GetByID: %v", err)
	}
	if got.RuleID != rule.RuleID || got.PublicThreshold != rule.PublicThreshold || got.Creator != rule.Creator {
		t.Errorf("expected rule %+v, got %+v", rule, got)
	}
	if !got.IsActive {
		t.Errorf("expected saved rule to be active")
	}
	if got.CreatedAt.IsZero() {
		t.Errorf("expected CreatedAt to be set")
	}
}

func TestRuleRepository_DuplicateSaveLeavesOriginal(t *testing.T) {
	repo := NewRuleRepository()
	ctx := context.Background()

	_ = repo.Save(ctx, &domain.PaymentRule{RuleID: "r1", PublicThreshold: 100, Creator: "alice"})
	err := repo.Save(ctx, &domain.PaymentRule{RuleID: "r1", PublicThreshold: 999, Creator: "mallory"})

	if !errors.Is(err, repository.ErrDuplicateID) {
		t.Fatalf("expected ErrDuplicateID, got %v", err)
	}
	got, _ := repo.GetByID(ctx, "r1")
	if got.PublicThreshold != 100 || got.Creator != "alice" {
		t.Errorf("duplicate save mutated original rule: %+v", got)
	}
	ids, _ := repo.ListIDs(ctx)
	if len(ids) != 1 {
		t.Errorf("expected 1 id after duplicate save, got %d", len(ids))
	}
}

func TestRuleRepository_ListIDsInsertionOrder(t *testing.T) {
	repo := NewRuleRepository()
	ctx := context.Background()

	var want []string
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("rule-%d", i)
		want = append(want, id)
		if err := repo.Save(ctx, &domain.PaymentRule{RuleID: id}); err != nil {
			t.Fatalf("save %s failed: %v", id, err)
		}
	}

	ids, err := repo.ListIDs(ctx)
	if err != nil {
		t.Fatalf("unexpected error on ListIDs: %v", err)
	}
	if len(ids) != len(want) {
		t.Fatalf("expected %d ids, got %d", len(want), len(ids))
	}
	for i := range want {
		if ids[i] != want[i] {
			t.Errorf("expected ids[%d]=%s, got %s", i, want[i], ids[i])
		}
		if _, err := repo.GetByID(ctx, ids[i]); err != nil {
			t.Errorf("listed id %s not retrievable: %v", ids[i], err)
		}
	}
}

func TestRuleRepository_DeactivateIsSticky(t *testing.T) {
	repo := NewRuleRepository()
	ctx := context.Background()
	_ = repo.Save(ctx, &domain.PaymentRule{RuleID: "r1"})

	if err := repo.Deactivate(ctx, "r1"); err != nil {
		t.Fatalf("unexpected error on Deactivate: %v", err)
	}
	// Repeat deactivation stays a no-op success.
	if err := repo.Deactivate(ctx, "r1"); err != nil {
		t.Fatalf("unexpected error on repeat Deactivate: %v", err)
	}
	got, _ := repo.GetByID(ctx, "r1")
	if got.IsActive {
		t.Errorf("expected rule inactive after Deactivate")
	}

	if err := repo.Deactivate(ctx, "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound for missing rule, got %v", err)
	}
}

func TestSubscriptionRepository_SaveAndGetByID(t *testing.T) {
	repo := NewSubscriptionRepository()
	sub := &domain.Subscription{
		SubscriptionID:       "s1",
		RuleID:               "r1",
		Subscriber:           "acct-b",
		LastPaymentTimestamp: 42,
	}

	err := repo.Save(context.Background(), sub)
	if err != nil {
		t.Fatalf("unexpected error on Save: %v", err)
	}
	got, err := repo.GetByID(context.Background(), "s1")

	if err != nil {
		t.Fatalf("unexpected error on GetByID: %v", err)
	}
	if got.SubscriptionID != "s1" || got.RuleID != "r1" || got.Subscriber != "acct-b" {
		t.Errorf("expected subscription %+v, got %+v", sub, got)
	}
	if got.LastPaymentTimestamp != 0 {
		t.Errorf("expected LastPaymentTimestamp reset to 0 on save, got %d", got.LastPaymentTimestamp)
	}
}

func TestSubscriptionRepository_GetByRuleID(t *testing.T) {
	repo := NewSubscriptionRepository()
	ctx := context.Background()

	_ = repo.Save(ctx, &domain.Subscription{SubscriptionID: "s1", RuleID: "r1", Subscriber: "a"})
	_ = repo.Save(ctx, &domain.Subscription{SubscriptionID: "s2", RuleID: "r1", Subscriber: "b"})
	_ = repo.Save(ctx, &domain.Subscription{SubscriptionID: "s3", RuleID: "r2", Subscriber: "c"})

	subs, err := repo.GetByRuleID(ctx, "r1")
	if err != nil {
		t.Fatalf("unexpected error on GetByRuleID: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 subscriptions for r1, got %d", len(subs))
	}

	none, err := repo.GetByRuleID(ctx, "r9")
	if err != nil {
		t.Fatalf("unexpected error for rule with no subscriptions: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no subscriptions for r9, got %d", len(none))
	}
}

func TestSubscriptionRepository_RecordPayment(t *testing.T) {
	repo := NewSubscriptionRepository()
	ctx := context.Background()
	_ = repo.Save(ctx, &domain.Subscription{SubscriptionID: "s1", RuleID: "r1", Subscriber: "a"})

	err := repo.RecordPayment(ctx, "s1", 1700000000)
	if err != nil {
		t.Fatalf("unexpected error on RecordPayment: %v", err)
	}
	got, _ := repo.GetByID(ctx, "s1")
	if got.LastPaymentTimestamp != 1700000000 {
		t.Errorf("expected timestamp 1700000000, got %d", got.LastPaymentTimestamp)
	}

	if err := repo.RecordPayment(ctx, "missing", 1); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
