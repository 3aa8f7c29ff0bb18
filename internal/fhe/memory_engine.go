package fhe

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"sync"

	"veilpay/pkg/crypto"
)

// MemoryEngine is the in-process ciphertext adapter. A well-formedness proof
// is an HMAC tag over the raw ciphertext produced by the encryption client
// with the shared import secret; imported ciphertexts are keyed by the
// SHA-256 of their bytes.
type MemoryEngine struct {
	mu          sync.RWMutex
	ciphertexts map[string][]byte
	authorized  map[string]bool
	decryptable map[string]bool
	signer      *crypto.Signer
	logger      *slog.Logger
}

var _ Engine = (*MemoryEngine)(nil)

func NewMemoryEngine(signer *crypto.Signer, logger *slog.Logger) *MemoryEngine {
	if logger == nil {
		logger = slog.Default()
	}
	return &MemoryEngine{
		ciphertexts: make(map[string][]byte),
		authorized:  make(map[string]bool),
		decryptable: make(map[string]bool),
		signer:      signer,
		logger:      logger,
	}
}

func (e *MemoryEngine) ImportExternal(ctx context.Context, raw, proof []byte) (Handle, error) {
	if len(raw) == 0 {
		return Handle{}, fmt.Errorf("empty ciphertext")
	}

	if !hmac.Equal(e.signer.Tag(raw), proof) {
		e.logger.Warn("Rejected ciphertext import",
			slog.Int("ciphertext_len", len(raw)))
		return Handle{}, fmt.Errorf("well-formedness proof does not match ciphertext")
	}

	sum := sha256.Sum256(raw)
	id := sum[:]

	e.mu.Lock()
	defer e.mu.Unlock()

	key := hex.EncodeToString(id)
	e.ciphertexts[key] = append([]byte(nil), raw...)

	e.logger.Info("Ciphertext imported",
		slog.String("handle_id", key))

	return Handle{id: id}, nil
}

func (e *MemoryEngine) IsInitialized(ctx context.Context, h Handle) bool {
	if len(h.id) == 0 {
		return false
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	_, exists := e.ciphertexts[hex.EncodeToString(h.id)]
	return exists
}

func (e *MemoryEngine) AuthorizeSelf(ctx context.Context, h Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := hex.EncodeToString(h.id)
	if _, exists := e.ciphertexts[key]; !exists {
		return fmt.Errorf("unknown handle %s", key)
	}

	e.authorized[key] = true
	return nil
}

func (e *MemoryEngine) MarkPubliclyDecryptable(ctx context.Context, h Handle) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	key := hex.EncodeToString(h.id)
	if _, exists := e.ciphertexts[key]; !exists {
		return fmt.Errorf("unknown handle %s", key)
	}

	e.decryptable[key] = true
	return nil
}

// IsPubliclyDecryptable reports whether a decryption of the handle may be
// requested by any party. The oracle consults this before answering.
func (e *MemoryEngine) IsPubliclyDecryptable(h Handle) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.decryptable[hex.EncodeToString(h.id)]
}
