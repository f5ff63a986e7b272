// Package signature
package signature

import (
	"crypto/ed25519"
	"encoding/base64"

	"github.com/gagliardetto/solana-go"
)

// Verifier checks a detached signature over raw message bytes. Implementations
// must return false for malformed input, never panic or error: a key or
// signature that cannot be parsed is a failed verification.
type Verifier interface {
	Verify(message, sig, publicKey []byte) bool
}

// Ed25519Verifier verifies with the same scheme wallets sign with.
type Ed25519Verifier struct{}

func NewVerifier() Ed25519Verifier {
	return Ed25519Verifier{}
}

func (Ed25519Verifier) Verify(message, sig, publicKey []byte) bool {
	if len(publicKey) != ed25519.PublicKeySize || len(sig) != ed25519.SignatureSize {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(publicKey), message, sig)
}

// DecodePublicKey parses a base58 account address into raw key bytes.
func DecodePublicKey(addr string) ([]byte, error) {
	pub, err := solana.PublicKeyFromBase58(addr)
	if err != nil {
		return nil, err
	}
	return pub.Bytes(), nil
}

// DecodeSignature parses the base64 wire form of a detached signature.
func DecodeSignature(sig string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(sig)
}

// StaticVerifier answers every verification with a fixed result.
type StaticVerifier struct {
	Result bool
}

func (v StaticVerifier) Verify(_, _, _ []byte) bool {
	return v.Result
}
