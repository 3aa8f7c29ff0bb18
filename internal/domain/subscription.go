package domain

import (
	"time"
)

// Subscription binds a subscriber to a payment rule. The rule reference is
// weak: a rule disabled after the subscription exists leaves the record
// intact but blocks future execution.
type Subscription struct {
	SubscriptionID       string    `json:"subscription_id"`
	RuleID               string    `json:"rule_id"`
	Subscriber           string    `json:"subscriber"`
	LastPaymentTimestamp int64     `json:"last_payment_timestamp"`
	CreatedAt            time.Time `json:"created_at"`
	IsActive             bool      `json:"is_active"`
}

// PaymentReceipt is returned by a successful payment execution. Funds
// movement itself is driven by the PaymentExecuted event, not by the core.
type PaymentReceipt struct {
	SubscriptionID string `json:"subscription_id"`
	RuleID         string `json:"rule_id"`
	Recipient      string `json:"recipient"`
	ClearValue     uint64 `json:"clear_value"`
	ExecutedAt     int64  `json:"executed_at"`
}
