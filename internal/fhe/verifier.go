package fhe

import (
	"context"
	"fmt"
	"log/slog"

	"veilpay/internal/repository"
	"veilpay/pkg/crypto"
)

// OracleVerifier validates decryption attestations signed by the oracle.
// Every failure mode, bad signature, mismatched handles or malformed
// encoding, surfaces as repository.ErrInvalidProof so callers can treat the
// whole class as a single fail-closed condition.
type OracleVerifier struct {
	signer *crypto.Signer
	logger *slog.Logger
}

var _ Verifier = (*OracleVerifier)(nil)

func NewOracleVerifier(signer *crypto.Signer, logger *slog.Logger) *OracleVerifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &OracleVerifier{
		signer: signer,
		logger: logger,
	}
}

func (v *OracleVerifier) Verify(ctx context.Context, handleIDs [][]byte, clearValueEncoding, proof []byte) (uint64, error) {
	if len(handleIDs) == 0 {
		return 0, fmt.Errorf("%w: no handles supplied", repository.ErrInvalidProof)
	}

	if ok, err := v.signer.VerifyDecryption(handleIDs, clearValueEncoding, proof); !ok || err != nil {
		return 0, fmt.Errorf("%w: attestation rejected", repository.ErrInvalidProof)
	}

	value, err := DecodeClearValue(clearValueEncoding)
	if err != nil {
		v.logger.Warn("Attested clear value failed to decode",
			slog.Int("encoding_len", len(clearValueEncoding)))
		return 0, fmt.Errorf("%w: %v", repository.ErrInvalidProof, err)
	}

	return value, nil
}
