package validator

import (
	"encoding/hex"
	"errors"
	"fmt"
	"regexp"
)

var (
	ErrInvalidID      = errors.New("invalid identifier")
	ErrInvalidAccount = errors.New("invalid account")
	ErrInvalidHex     = errors.New("invalid hex encoding")
	ErrMissingField   = errors.New("missing required field")
)

// RequestValidator performs field-level checks on API requests before they
// reach the registries. It validates shape only; existence, authorization and
// proof checks belong to the core.
type RequestValidator struct {
	idRegex *regexp.Regexp
}

func NewRequestValidator() *RequestValidator {
	return &RequestValidator{
		idRegex: regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`),
	}
}

func (v *RequestValidator) ValidateID(field, id string) error {
	if id == "" {
		return fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	if !v.idRegex.MatchString(id) {
		return fmt.Errorf("%w: %s", ErrInvalidID, field)
	}
	return nil
}

func (v *RequestValidator) ValidateAccount(field, account string) error {
	if account == "" {
		return fmt.Errorf("%w: %s", ErrInvalidAccount, field)
	}
	return nil
}

// DecodeHex decodes a required hex field.
func (v *RequestValidator) DecodeHex(field, value string) ([]byte, error) {
	if value == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingField, field)
	}
	raw, err := hex.DecodeString(value)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHex, field)
	}
	return raw, nil
}
