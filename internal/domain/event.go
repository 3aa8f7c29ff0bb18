package domain

import (
	"time"
)

type EventType string

const (
	EventPaymentRuleCreated  EventType = "payment_rule_created"
	EventSubscriptionCreated EventType = "subscription_created"
	EventPaymentExecuted     EventType = "payment_executed"
)

// Event is an append-only record of a committed state transition. External
// indexers and the funds-movement layer consume these; the core never reads
// them back for its own decisions.
type Event struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	RuleID         string    `json:"rule_id,omitempty"`
	SubscriptionID string    `json:"subscription_id,omitempty"`
	Creator        string    `json:"creator,omitempty"`
	Subscriber     string    `json:"subscriber,omitempty"`
	Recipient      string    `json:"recipient,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}
