package validator

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func TestValidateID(t *testing.T) {
	v := NewRequestValidator()

	tests := []struct {
		name    string
		id      string
		wantErr error
	}{
		{name: "simple", id: "r1"},
		{name: "with dash and underscore", id: "rule_1-a"},
		{name: "empty", id: "", wantErr: ErrMissingField},
		{name: "spaces", id: "rule 1", wantErr: ErrInvalidID},
		{name: "too long", id: strings.Repeat("a", 65), wantErr: ErrInvalidID},
		{name: "path characters", id: "../etc", wantErr: ErrInvalidID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateID("rule_id", tt.id)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateAccount(t *testing.T) {
	v := NewRequestValidator()

	if err := v.ValidateAccount("recipient", "acct-1"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := v.ValidateAccount("recipient", ""); !errors.Is(err, ErrInvalidAccount) {
		t.Fatalf("expected ErrInvalidAccount, got %v", err)
	}
}

func TestDecodeHex(t *testing.T) {
	v := NewRequestValidator()

	raw, err := v.DecodeHex("proof", "deadbeef")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.Equal(raw, []byte{0xde, 0xad, 0xbe, 0xef}) {
		t.Fatalf("unexpected decode result: %x", raw)
	}

	if _, err := v.DecodeHex("proof", ""); !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	if _, err := v.DecodeHex("proof", "zz"); !errors.Is(err, ErrInvalidHex) {
		t.Fatalf("expected ErrInvalidHex, got %v", err)
	}
}
