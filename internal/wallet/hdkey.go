package wallet

import (
	"fmt"

	"github.com/tyler-smith/go-bip32"

	"github.com/Klingon-tech/utxoledger/pkg/crypto"
)

// BIP-44 derivation: m/44'/CoinType'/account'/change/index.
const (
	PurposeBIP44 = bip32.FirstHardenedChild + 44
	// CoinType is unregistered; wallets only need to agree with each other.
	CoinType = bip32.FirstHardenedChild + 7331

	ChangeExternal = 0
	ChangeInternal = 1
)

// HDKey is a BIP-32 hierarchical deterministic key.
type HDKey struct {
	key *bip32.Key
}

// NewMasterKey creates a master HD key from a 64-byte seed.
func NewMasterKey(seed []byte) (*HDKey, error) {
	if len(seed) != SeedSize {
		return nil, fmt.Errorf("seed must be %d bytes, got %d", SeedSize, len(seed))
	}
	master, err := bip32.NewMasterKey(seed)
	if err != nil {
		return nil, fmt.Errorf("create master key: %w", err)
	}
	return &HDKey{key: master}, nil
}

// DerivePath derives a key along a sequence of indices. Add
// bip32.FirstHardenedChild to an index for hardened derivation.
func (k *HDKey) DerivePath(indices ...uint32) (*HDKey, error) {
	current := k.key
	for _, idx := range indices {
		child, err := current.NewChildKey(idx)
		if err != nil {
			return nil, fmt.Errorf("derive child %d: %w", idx, err)
		}
		current = child
	}
	return &HDKey{key: current}, nil
}

// DeriveAddress derives the key at m/44'/CoinType'/account'/change/index.
func (k *HDKey) DeriveAddress(account, change, index uint32) (*HDKey, error) {
	return k.DerivePath(
		PurposeBIP44,
		CoinType,
		bip32.FirstHardenedChild+account,
		change,
		index,
	)
}

// PrivateKeyBytes returns the raw 32-byte private key, or nil for a
// public-only key.
func (k *HDKey) PrivateKeyBytes() []byte {
	if !k.key.IsPrivate {
		return nil
	}
	// bip32 stores private keys as 33 bytes with a leading zero.
	raw := k.key.Key
	if len(raw) == 33 && raw[0] == 0 {
		return raw[1:]
	}
	return raw
}

// PublicKeyBytes returns the compressed 33-byte public key.
func (k *HDKey) PublicKeyBytes() []byte {
	return k.key.PublicKey().Key
}

// Address returns the ledger address of the key.
func (k *HDKey) Address() string {
	return crypto.AddressFromPubKey(k.PublicKeyBytes())
}

// Depth returns the derivation depth (0 for master).
func (k *HDKey) Depth() uint8 {
	return k.key.Depth
}

// Wallet returns a signing wallet for this key.
func (k *HDKey) Wallet() (*Wallet, error) {
	priv := k.PrivateKeyBytes()
	if priv == nil {
		return nil, fmt.Errorf("cannot create wallet from public key")
	}
	key, err := crypto.PrivateKeyFromBytes(priv)
	if err != nil {
		return nil, err
	}
	return &Wallet{key: key}, nil
}
