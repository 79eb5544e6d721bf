package wallet

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	klog "github.com/Klingon-tech/utxoledger/internal/log"
)

// Keystore errors.
var (
	ErrWalletExists   = errors.New("wallet already exists")
	ErrWalletNotFound = errors.New("wallet not found")
	ErrBadWalletName  = errors.New("invalid wallet name")
)

const keyFileExt = ".key"

// keyFile is the on-disk JSON format of an encrypted wallet.
type keyFile struct {
	Version      int       `json:"version"`
	CreatedAt    time.Time `json:"created_at"`
	Address      string    `json:"address"`
	PublicKey    string    `json:"public_key"`
	EncryptedKey []byte    `json:"encrypted_key"`
}

// Keystore stores wallets as password-encrypted files in a directory.
type Keystore struct {
	path   string
	params EncryptionParams
}

// NewKeystore opens (creating if needed) a keystore directory.
func NewKeystore(path string, params EncryptionParams) (*Keystore, error) {
	if err := os.MkdirAll(path, 0700); err != nil {
		return nil, fmt.Errorf("create keystore dir: %w", err)
	}
	return &Keystore{path: path, params: params}, nil
}

func (ks *Keystore) filePath(name string) (string, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrBadWalletName, name)
	}
	return filepath.Join(ks.path, name+keyFileExt), nil
}

// Save encrypts w under password and writes it as name.
func (ks *Keystore) Save(name string, w *Wallet, password []byte) error {
	path, err := ks.filePath(name)
	if err != nil {
		return err
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%w: %q", ErrWalletExists, name)
	}

	secret := w.key.Serialize()
	defer zero(secret)
	encrypted, err := Encrypt(secret, password, ks.params)
	if err != nil {
		return fmt.Errorf("encrypt key: %w", err)
	}

	kf := keyFile{
		Version:      1,
		CreatedAt:    time.Now().UTC(),
		Address:      w.Address(),
		PublicKey:    w.PublicKeyHex(),
		EncryptedKey: encrypted,
	}
	data, err := json.MarshalIndent(&kf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal wallet: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write wallet: %w", err)
	}

	klog.Wallet.Info().Str("name", name).Str("address", kf.Address).Msg("Wallet saved")
	return nil
}

// Load decrypts the wallet stored as name.
func (ks *Keystore) Load(name string, password []byte) (*Wallet, error) {
	kf, err := ks.read(name)
	if err != nil {
		return nil, err
	}
	secret, err := Decrypt(kf.EncryptedKey, password)
	if err != nil {
		return nil, fmt.Errorf("decrypt wallet %q: %w", name, err)
	}
	defer zero(secret)

	w, err := FromPrivateKey(hex.EncodeToString(secret))
	if err != nil {
		return nil, err
	}
	if w.Address() != kf.Address {
		return nil, fmt.Errorf("wallet %q: stored address %s does not match key", name, kf.Address)
	}
	return w, nil
}

// Address returns the address of a stored wallet without decrypting it.
func (ks *Keystore) Address(name string) (string, error) {
	kf, err := ks.read(name)
	if err != nil {
		return "", err
	}
	return kf.Address, nil
}

// List returns the names of stored wallets in directory order.
func (ks *Keystore) List() ([]string, error) {
	entries, err := os.ReadDir(ks.path)
	if err != nil {
		return nil, fmt.Errorf("read keystore dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if name, ok := strings.CutSuffix(e.Name(), keyFileExt); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// Delete removes a stored wallet.
func (ks *Keystore) Delete(name string) error {
	path, err := ks.filePath(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("%w: %q", ErrWalletNotFound, name)
		}
		return err
	}
	return nil
}

func (ks *Keystore) read(name string) (*keyFile, error) {
	path, err := ks.filePath(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %q", ErrWalletNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("read wallet: %w", err)
	}
	var kf keyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("parse wallet: %w", err)
	}
	if kf.Version != 1 {
		return nil, fmt.Errorf("unsupported wallet version: %d", kf.Version)
	}
	return &kf, nil
}
