// Package fhe abstracts the homomorphic-encryption backend behind two narrow
// capabilities: a ciphertext engine that imports externally built ciphertexts
// into opaque handles, and a verifier that checks an oracle's attestation that
// a clear value is the authentic decryption of a set of handles.
package fhe

import (
	"context"
	"errors"
	"fmt"
)

// Handle is an opaque reference to an imported ciphertext. Callers operate on
// it only through the Engine; the plaintext is never reachable from a handle.
type Handle struct {
	id []byte
}

// ID returns the stable identifier of the handle.
func (h Handle) ID() []byte {
	return h.id
}

// HandleFromID reconstructs a handle from a stored identifier.
func HandleFromID(id []byte) Handle {
	return Handle{id: id}
}

// Engine is the contract the core has with the ciphertext backend. A concrete
// adapter wraps whatever homomorphic library actually holds the ciphertexts.
type Engine interface {
	// ImportExternal ingests an externally supplied ciphertext together with
	// its well-formedness proof and returns an initialized handle.
	ImportExternal(ctx context.Context, raw, proof []byte) (Handle, error)
	// IsInitialized reports whether the handle refers to an imported ciphertext.
	IsInitialized(ctx context.Context, h Handle) bool
	// AuthorizeSelf grants the registry the right to operate on the handle.
	AuthorizeSelf(ctx context.Context, h Handle) error
	// MarkPubliclyDecryptable allows any party to request a decryption of the
	// handle from the oracle.
	MarkPubliclyDecryptable(ctx context.Context, h Handle) error
}

// Verifier checks that a claimed clear value is the authentic decryption of
// the given handles and returns the decoded unsigned integer. Fails closed.
type Verifier interface {
	Verify(ctx context.Context, handleIDs [][]byte, clearValueEncoding, proof []byte) (uint64, error)
}

const maxClearValueBytes = 32

var errMalformedClearValue = errors.New("malformed clear value encoding")

// DecodeClearValue parses a big-endian unsigned integer of up to 32 bytes.
// Bytes beyond the low eight must be zero or the value does not fit uint64.
func DecodeClearValue(encoding []byte) (uint64, error) {
	if len(encoding) == 0 || len(encoding) > maxClearValueBytes {
		return 0, fmt.Errorf("%w: %d bytes", errMalformedClearValue, len(encoding))
	}

	var value uint64
	for i, b := range encoding {
		if len(encoding)-i > 8 {
			if b != 0 {
				return 0, fmt.Errorf("%w: value exceeds 64 bits", errMalformedClearValue)
			}
			continue
		}
		value = value<<8 | uint64(b)
	}

	return value, nil
}
