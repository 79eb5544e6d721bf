// Package config handles application configuration.
//
// Values are resolved in order: defaults, then the .conf file in the data
// directory, then command-line flags.
package config

import (
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// StorageBackend selects the UTXO store implementation.
type StorageBackend string

const (
	StorageMemory StorageBackend = "memory"
	StorageBadger StorageBackend = "badger" // badger in in-memory mode
)

// Config holds the ledger node configuration.
type Config struct {
	DataDir string `conf:"datadir"`

	Ledger  LedgerConfig
	Mempool MempoolConfig
	Mining  MiningConfig
	RPC     RPCConfig
	Metrics MetricsConfig
	Storage StorageConfig
	Log     LogConfig
}

// LedgerConfig holds the rules the ledger enforces.
type LedgerConfig struct {
	Difficulty        int   `conf:"difficulty"`
	CoinbaseReward    int64 `conf:"coinbase-reward"`
	RequireSignatures bool  `conf:"require-signatures"`
}

// MempoolConfig holds pending pool limits.
type MempoolConfig struct {
	MaxSize         int  `conf:"mempool.max-size"` // 0 = unbounded
	MaxTxInputs     int  `conf:"mempool.max-inputs"`
	RejectConflicts bool `conf:"mempool.reject-conflicts"`
}

// MiningConfig holds background block production settings.
type MiningConfig struct {
	Enabled  bool          `conf:"mining.enabled"`
	Coinbase string        `conf:"mining.coinbase"`
	Interval time.Duration `conf:"mining.interval"`
	Threads  int           `conf:"mining.threads"`
}

// RPCConfig holds HTTP/RPC server settings.
type RPCConfig struct {
	Enabled     bool     `conf:"rpc.enabled"`
	Addr        string   `conf:"rpc.addr"`
	Port        int      `conf:"rpc.port"`
	AllowedIPs  []string `conf:"rpc.allowed"`
	CORSOrigins []string `conf:"rpc.cors"` // "*" = all
}

// MetricsConfig toggles the /metrics endpoint.
type MetricsConfig struct {
	Enabled bool `conf:"metrics.enabled"`
}

// StorageConfig selects the UTXO backend.
type StorageConfig struct {
	Backend StorageBackend `conf:"storage.backend"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level     string `conf:"log.level"`
	File      string `conf:"log.file"`
	JSON      bool   `conf:"log.json"`
	MaxSizeKB int64  `conf:"log.max-size-kb"`
	MaxRolls  int    `conf:"log.max-rolls"`
}

// DefaultDataDir returns the platform-specific default data directory.
//
//	Linux:   ~/.utxoledger
//	macOS:   ~/Library/Application Support/UTXOLedger
//	Windows: %APPDATA%\UTXOLedger
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".utxoledger"
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "UTXOLedger")
	case "windows":
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "UTXOLedger")
		}
		return filepath.Join(home, "AppData", "Roaming", "UTXOLedger")
	default:
		return filepath.Join(home, ".utxoledger")
	}
}

// KeystoreDir returns the wallet key file directory.
func (c *Config) KeystoreDir() string {
	return filepath.Join(c.DataDir, "keystore")
}

// LogsDir returns the logs directory.
func (c *Config) LogsDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// ConfigFile returns the config file path.
func (c *Config) ConfigFile() string {
	return filepath.Join(c.DataDir, "ledger.conf")
}
