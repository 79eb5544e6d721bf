package node

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Klingon-tech/utxoledger/config"
	"github.com/Klingon-tech/utxoledger/internal/storage"
	"github.com/Klingon-tech/utxoledger/internal/wallet"
)

// keystorePrefix marks a coinbase given as a keystore wallet name.
const keystorePrefix = "wallet:"

// expandHome replaces a leading ~ with the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// openStorage opens the key-value backend for the UTXO store.
func openStorage(backend config.StorageBackend) (storage.DB, error) {
	switch backend {
	case config.StorageMemory, "":
		return storage.NewMemory(), nil
	case config.StorageBadger:
		db, err := storage.NewBadgerInMemory()
		if err != nil {
			return nil, fmt.Errorf("open badger: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unsupported storage backend: %s", backend)
	}
}

// resolveCoinbase determines the reward address. "wallet:<name>" reads the
// address of a keystore wallet without unlocking it; anything else is used
// as the address itself.
func resolveCoinbase(coinbase string, ks *wallet.Keystore) (string, error) {
	if coinbase == "" {
		return "", fmt.Errorf("mining requires coinbase")
	}
	name, ok := strings.CutPrefix(coinbase, keystorePrefix)
	if !ok {
		return coinbase, nil
	}
	if ks == nil {
		return "", fmt.Errorf("no keystore for coinbase %q", coinbase)
	}
	addr, err := ks.Address(name)
	if err != nil {
		return "", fmt.Errorf("keystore wallet %q: %w", name, err)
	}
	return addr, nil
}
