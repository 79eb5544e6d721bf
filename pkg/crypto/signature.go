package crypto

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/decred/dcrd/dcrec/secp256k1/v4"
	"github.com/decred/dcrd/dcrec/secp256k1/v4/schnorr"
)

// Signer signs messages with a private key using Schnorr/secp256k1.
type Signer interface {
	// Sign produces a Schnorr signature over a 32-byte hash.
	Sign(hash []byte) ([]byte, error)
	// PublicKey returns the compressed 33-byte public key.
	PublicKey() []byte
}

// Verifier checks a hex signature over a message for a hex public key.
// The ledger calls it before admitting a signed transaction.
type Verifier interface {
	VerifyMessage(pubKeyHex, message, sigHex string) bool
}

// PrivateKey wraps a secp256k1 private key for Schnorr signing.
type PrivateKey struct {
	key *secp256k1.PrivateKey
}

// GenerateKey creates a new random secp256k1 private key.
func GenerateKey() (*PrivateKey, error) {
	key, err := secp256k1.GeneratePrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generate key: %w", err)
	}
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromBytes creates a PrivateKey from a 32-byte secret.
func PrivateKeyFromBytes(b []byte) (*PrivateKey, error) {
	if len(b) != 32 {
		return nil, fmt.Errorf("private key must be 32 bytes, got %d", len(b))
	}
	key := secp256k1.PrivKeyFromBytes(b)
	return &PrivateKey{key: key}, nil
}

// PrivateKeyFromHex parses a hex-encoded 32-byte secret.
func PrivateKeyFromHex(s string) (*PrivateKey, error) {
	b, err := hex.DecodeString(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("decode private key: %w", err)
	}
	return PrivateKeyFromBytes(b)
}

// Sign produces a Schnorr signature over a 32-byte hash.
func (pk *PrivateKey) Sign(hash []byte) ([]byte, error) {
	if len(hash) != 32 {
		return nil, fmt.Errorf("hash must be 32 bytes, got %d", len(hash))
	}
	sig, err := schnorr.Sign(pk.key, hash)
	if err != nil {
		return nil, fmt.Errorf("schnorr sign: %w", err)
	}
	return sig.Serialize(), nil
}

// PublicKey returns the compressed 33-byte public key.
func (pk *PrivateKey) PublicKey() []byte {
	return pk.key.PubKey().SerializeCompressed()
}

// PublicKeyHex returns the compressed public key in hex.
func (pk *PrivateKey) PublicKeyHex() string {
	return hex.EncodeToString(pk.PublicKey())
}

// Address returns the address owned by this key.
func (pk *PrivateKey) Address() string {
	return AddressFromPubKey(pk.PublicKey())
}

// Serialize returns the 32-byte private key scalar.
func (pk *PrivateKey) Serialize() []byte {
	return pk.key.Serialize()
}

// Hex returns the private key scalar in hex.
func (pk *PrivateKey) Hex() string {
	return hex.EncodeToString(pk.key.Serialize())
}

// Zero securely zeroes the private key memory.
func (pk *PrivateKey) Zero() {
	pk.key.Zero()
}

// SignMessage signs SHA-256(message) and returns the signature in hex.
func SignMessage(s Signer, message string) (string, error) {
	h := Sum256([]byte(message))
	sig, err := s.Sign(h[:])
	if err != nil {
		return "", err
	}
	return hex.EncodeToString(sig), nil
}

// VerifySignature checks a Schnorr signature against a 32-byte hash
// and a compressed public key. Returns false on any error.
func VerifySignature(hash, signature, publicKey []byte) bool {
	pubKey, err := secp256k1.ParsePubKey(publicKey)
	if err != nil {
		return false
	}
	sig, err := schnorr.ParseSignature(signature)
	if err != nil {
		return false
	}
	return sig.Verify(hash, pubKey)
}

// VerifyMessage checks a hex signature produced by SignMessage.
func VerifyMessage(pubKeyHex, message, sigHex string) bool {
	pub, err := hex.DecodeString(pubKeyHex)
	if err != nil {
		return false
	}
	sig, err := hex.DecodeString(sigHex)
	if err != nil {
		return false
	}
	h := Sum256([]byte(message))
	return VerifySignature(h[:], sig, pub)
}

// SchnorrVerifier implements the Verifier interface.
type SchnorrVerifier struct{}

// VerifyMessage checks a hex signature over message.
func (v SchnorrVerifier) VerifyMessage(pubKeyHex, message, sigHex string) bool {
	return VerifyMessage(pubKeyHex, message, sigHex)
}
