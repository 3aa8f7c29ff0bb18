package crypto

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
)

// Signer produces and checks HMAC-SHA256 attestations. The decryption oracle
// holds one instance keyed with its signing secret; the verifier side holds a
// second instance with the same secret.
type Signer struct {
	secretKey []byte
	logger    *slog.Logger
}

func NewSigner(secretKey string, logger *slog.Logger) *Signer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Signer{
		secretKey: []byte(secretKey),
		logger:    logger,
	}
}

// Tag returns the raw MAC bytes for data.
func (s *Signer) Tag(data []byte) []byte {
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write(data)
	return mac.Sum(nil)
}

func (s *Signer) Sign(data []byte) string {
	return hex.EncodeToString(s.Tag(data))
}

func (s *Signer) Verify(data []byte, signature string) (bool, error) {
	expectedSignature := s.Sign(data)

	if !hmac.Equal([]byte(expectedSignature), []byte(signature)) {
		s.logger.Warn("Signature verification failed",
			slog.Int("data_len", len(data)))
		return false, fmt.Errorf("invalid signature")
	}

	return true, nil
}

// decryptionDigest binds the handle identifiers to the clear value encoding so
// an attestation for one handle cannot be replayed against another.
func decryptionDigest(handleIDs [][]byte, clearValueEncoding []byte) []byte {
	h := sha256.New()
	for _, id := range handleIDs {
		h.Write([]byte{byte(len(id))})
		h.Write(id)
	}
	h.Write([]byte{0x00})
	h.Write(clearValueEncoding)
	return h.Sum(nil)
}

// SignDecryption attests that clearValueEncoding is the authentic decryption
// of the given handles.
func (s *Signer) SignDecryption(handleIDs [][]byte, clearValueEncoding []byte) []byte {
	mac := hmac.New(sha256.New, s.secretKey)
	mac.Write(decryptionDigest(handleIDs, clearValueEncoding))
	return mac.Sum(nil)
}

// VerifyDecryption checks a decryption attestation. Fails closed: any
// mismatch returns an error.
func (s *Signer) VerifyDecryption(handleIDs [][]byte, clearValueEncoding, signature []byte) (bool, error) {
	expected := s.SignDecryption(handleIDs, clearValueEncoding)

	if !hmac.Equal(expected, signature) {
		s.logger.Warn("Decryption attestation verification failed",
			slog.Int("handles", len(handleIDs)))
		return false, fmt.Errorf("invalid decryption attestation")
	}

	return true, nil
}
