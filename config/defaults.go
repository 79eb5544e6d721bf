package config

import "time"

// Default values.
const (
	DefaultDifficulty     = 4
	DefaultCoinbaseReward = 50
	DefaultRPCPort        = 5000
	DefaultMiningInterval = 10 * time.Second
	DefaultLogMaxSizeKB   = 10 * 1024
	DefaultLogMaxRolls    = 8
)

// Default returns the default node configuration.
func Default() *Config {
	return &Config{
		DataDir: DefaultDataDir(),
		Ledger: LedgerConfig{
			Difficulty:     DefaultDifficulty,
			CoinbaseReward: DefaultCoinbaseReward,
		},
		Mining: MiningConfig{
			Enabled:  false,
			Interval: DefaultMiningInterval,
			Threads:  1,
		},
		RPC: RPCConfig{
			Enabled:    true,
			Addr:       "127.0.0.1",
			Port:       DefaultRPCPort,
			AllowedIPs: []string{"127.0.0.1"},
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Storage: StorageConfig{
			Backend: StorageMemory,
		},
		Log: LogConfig{
			Level:     "info",
			MaxSizeKB: DefaultLogMaxSizeKB,
			MaxRolls:  DefaultLogMaxRolls,
		},
	}
}
