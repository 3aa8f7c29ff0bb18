package domain

import (
	"encoding/hex"
	"time"
)

// PaymentRule is a recurring-payment rule whose trigger threshold lives in
// encrypted form behind an opaque ciphertext handle. PublicThreshold is the
// plaintext comparison bound the creator chose to declare; the handle itself
// never leaves the rule.
type PaymentRule struct {
	RuleID            string    `json:"rule_id"`
	ThresholdHandleID []byte    `json:"-"`
	PublicThreshold   uint64    `json:"public_threshold"`
	Recipient         string    `json:"recipient"`
	Description       string    `json:"description"`
	Creator           string    `json:"creator"`
	CreatedAt         time.Time `json:"created_at"`
	IsActive          bool      `json:"is_active"`
}

// RuleView is the read-only projection of a rule. The handle identifier is
// exposed in hex so a caller can request a decryption from the oracle; the
// ciphertext itself is never exposed.
type RuleView struct {
	RuleID            string    `json:"rule_id"`
	ThresholdHandleID string    `json:"threshold_handle_id"`
	PublicThreshold   uint64    `json:"public_threshold"`
	Recipient         string    `json:"recipient"`
	Description       string    `json:"description"`
	Creator           string    `json:"creator"`
	CreatedAt         time.Time `json:"created_at"`
	IsActive          bool      `json:"is_active"`
}

// View renders the public projection of the rule.
func (r *PaymentRule) View() RuleView {
	return RuleView{
		RuleID:            r.RuleID,
		ThresholdHandleID: hex.EncodeToString(r.ThresholdHandleID),
		PublicThreshold:   r.PublicThreshold,
		Recipient:         r.Recipient,
		Description:       r.Description,
		Creator:           r.Creator,
		CreatedAt:         r.CreatedAt,
		IsActive:          r.IsActive,
	}
}
