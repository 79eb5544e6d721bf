// Package wallet manages ledger credentials: secp256k1 keys, BIP-39
// mnemonics with BIP-32 derivation, and password-encrypted key files.
package wallet

import (
	"fmt"

	"github.com/Klingon-tech/utxoledger/pkg/crypto"
)

// Wallet is a single signing key and the address it controls.
type Wallet struct {
	key *crypto.PrivateKey
}

// Info is the exported form of a wallet.
type Info struct {
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
	Address    string `json:"address"`
}

// Generate creates a wallet with a fresh random key.
func Generate() (*Wallet, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, err
	}
	return &Wallet{key: key}, nil
}

// FromPrivateKey imports a wallet from a hex-encoded 32-byte secret.
func FromPrivateKey(privHex string) (*Wallet, error) {
	key, err := crypto.PrivateKeyFromHex(privHex)
	if err != nil {
		return nil, fmt.Errorf("import wallet: %w", err)
	}
	return &Wallet{key: key}, nil
}

// FromMnemonic derives the wallet at m/44'/CoinType'/account'/0/index.
func FromMnemonic(mnemonic, passphrase string, account, index uint32) (*Wallet, error) {
	seed, err := SeedFromMnemonic(mnemonic, passphrase)
	if err != nil {
		return nil, err
	}
	master, err := NewMasterKey(seed)
	if err != nil {
		return nil, err
	}
	child, err := master.DeriveAddress(account, ChangeExternal, index)
	if err != nil {
		return nil, err
	}
	return child.Wallet()
}

// PrivateKeyHex returns the hex-encoded secret.
func (w *Wallet) PrivateKeyHex() string {
	return w.key.Hex()
}

// PublicKeyHex returns the hex-encoded compressed public key.
func (w *Wallet) PublicKeyHex() string {
	return w.key.PublicKeyHex()
}

// Address returns the ledger address controlled by the key.
func (w *Wallet) Address() string {
	return w.key.Address()
}

// Sign returns a hex Schnorr signature over message.
func (w *Wallet) Sign(message string) (string, error) {
	return crypto.SignMessage(w.key, message)
}

// Info returns the exported key material.
func (w *Wallet) Info() Info {
	return Info{
		PrivateKey: w.PrivateKeyHex(),
		PublicKey:  w.PublicKeyHex(),
		Address:    w.Address(),
	}
}

// Zero wipes the private key.
func (w *Wallet) Zero() {
	w.key.Zero()
}

// Verify reports whether sigHex is a valid signature of message by the
// holder of pubKeyHex.
func Verify(pubKeyHex, message, sigHex string) bool {
	return crypto.VerifyMessage(pubKeyHex, message, sigHex)
}
