package config

import (
	"fmt"
	"net"

	"github.com/Klingon-tech/utxoledger/internal/consensus"
	klog "github.com/Klingon-tech/utxoledger/internal/log"
)

// Validate checks cfg for operator mistakes.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	if cfg.Ledger.Difficulty < 0 || cfg.Ledger.Difficulty > consensus.MaxDifficulty {
		return fmt.Errorf("difficulty must be in range [0, %d]", consensus.MaxDifficulty)
	}
	if cfg.Ledger.CoinbaseReward <= 0 {
		return fmt.Errorf("coinbase-reward must be positive")
	}

	if cfg.Mempool.MaxSize < 0 {
		return fmt.Errorf("mempool.max-size must not be negative")
	}
	if cfg.Mempool.MaxTxInputs < 0 {
		return fmt.Errorf("mempool.max-inputs must not be negative")
	}

	if cfg.Mining.Threads < 0 {
		return fmt.Errorf("mining.threads must not be negative")
	}
	if cfg.Mining.Enabled {
		if cfg.Mining.Coinbase == "" {
			return fmt.Errorf("mining.enabled requires mining.coinbase")
		}
		if cfg.Mining.Interval <= 0 {
			return fmt.Errorf("mining.interval must be positive")
		}
	}

	if cfg.RPC.Port < 0 || cfg.RPC.Port > 65535 {
		return fmt.Errorf("rpc.port must be in range [0, 65535]")
	}
	for i, ip := range cfg.RPC.AllowedIPs {
		if net.ParseIP(ip) == nil {
			if _, _, err := net.ParseCIDR(ip); err != nil {
				return fmt.Errorf("rpc.allowed[%d] %q is not an IP or CIDR", i, ip)
			}
		}
	}

	switch cfg.Storage.Backend {
	case "":
		cfg.Storage.Backend = StorageMemory
	case StorageMemory, StorageBadger:
	default:
		return fmt.Errorf("storage.backend must be %q or %q", StorageMemory, StorageBadger)
	}

	if !klog.ValidLevel(cfg.Log.Level) {
		return fmt.Errorf("log.level %q is not a known level", cfg.Log.Level)
	}
	if cfg.Log.MaxSizeKB < 0 || cfg.Log.MaxRolls < 0 {
		return fmt.Errorf("log.max-size-kb and log.max-rolls must not be negative")
	}
	return nil
}
