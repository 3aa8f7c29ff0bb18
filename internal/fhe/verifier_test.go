package fhe

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"veilpay/internal/repository"
	"veilpay/pkg/crypto"
)

func TestOracleVerifier_Verify(t *testing.T) {
	signer := crypto.NewSigner("oracle-secret", nil)
	verifier := NewOracleVerifier(signer, nil)
	ctx := context.Background()

	handleIDs := [][]byte{{0xaa, 0xbb}}
	encoding := []byte{0x00, 0x64} // 100

	proof := signer.SignDecryption(handleIDs, encoding)

	value, err := verifier.Verify(ctx, handleIDs, encoding, proof)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), value)
}

func TestOracleVerifier_TamperedSignature(t *testing.T) {
	signer := crypto.NewSigner("oracle-secret", nil)
	verifier := NewOracleVerifier(signer, nil)
	ctx := context.Background()

	handleIDs := [][]byte{{0xaa, 0xbb}}
	encoding := []byte{0x64}

	proof := signer.SignDecryption(handleIDs, encoding)
	proof[5] ^= 0x01

	_, err := verifier.Verify(ctx, handleIDs, encoding, proof)
	require.ErrorIs(t, err, repository.ErrInvalidProof)
}

func TestOracleVerifier_MismatchedHandle(t *testing.T) {
	signer := crypto.NewSigner("oracle-secret", nil)
	verifier := NewOracleVerifier(signer, nil)
	ctx := context.Background()

	encoding := []byte{0x64}
	proof := signer.SignDecryption([][]byte{{0xaa}}, encoding)

	_, err := verifier.Verify(ctx, [][]byte{{0xbb}}, encoding, proof)
	require.ErrorIs(t, err, repository.ErrInvalidProof)
}

func TestOracleVerifier_MalformedEncoding(t *testing.T) {
	signer := crypto.NewSigner("oracle-secret", nil)
	verifier := NewOracleVerifier(signer, nil)
	ctx := context.Background()

	handleIDs := [][]byte{{0xaa}}
	encoding := make([]byte, 33) // signed but undecodable
	proof := signer.SignDecryption(handleIDs, encoding)

	_, err := verifier.Verify(ctx, handleIDs, encoding, proof)
	require.ErrorIs(t, err, repository.ErrInvalidProof)
}

func TestOracleVerifier_NoHandles(t *testing.T) {
	signer := crypto.NewSigner("oracle-secret", nil)
	verifier := NewOracleVerifier(signer, nil)

	_, err := verifier.Verify(context.Background(), nil, []byte{0x01}, []byte{0x02})
	require.ErrorIs(t, err, repository.ErrInvalidProof)
}

func TestOracleVerifier_WrongOracleKey(t *testing.T) {
	rogue := crypto.NewSigner("rogue-secret", nil)
	verifier := NewOracleVerifier(crypto.NewSigner("oracle-secret", nil), nil)
	ctx := context.Background()

	handleIDs := [][]byte{{0xaa}}
	encoding := []byte{0x64}
	proof := rogue.SignDecryption(handleIDs, encoding)

	_, err := verifier.Verify(ctx, handleIDs, encoding, proof)
	require.ErrorIs(t, err, repository.ErrInvalidProof)
}
