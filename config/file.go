package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// LoadFile loads key = value pairs from a .conf file (# for comments).
// A missing file yields no values.
func LoadFile(path string) (map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return make(map[string]string), nil
		}
		return nil, err
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return nil, fmt.Errorf("line %d: invalid format (expected key = value)", lineNum)
		}
		key = strings.TrimSpace(key)
		value = strings.TrimSpace(value)

		if len(value) >= 2 {
			if (value[0] == '"' && value[len(value)-1] == '"') ||
				(value[0] == '\'' && value[len(value)-1] == '\'') {
				value = value[1 : len(value)-1]
			}
		}
		values[key] = value
	}

	return values, scanner.Err()
}

// ApplyFileConfig applies file values to cfg.
func ApplyFileConfig(cfg *Config, values map[string]string) error {
	for key, value := range values {
		if err := setConfigValue(cfg, key, value); err != nil {
			return fmt.Errorf("config key %q: %w", key, err)
		}
	}
	return nil
}

func setConfigValue(cfg *Config, key, value string) error {
	var err error
	switch key {
	case "datadir":
		cfg.DataDir = value

	// Ledger
	case "difficulty":
		cfg.Ledger.Difficulty, err = strconv.Atoi(value)
	case "coinbase-reward":
		cfg.Ledger.CoinbaseReward, err = strconv.ParseInt(value, 10, 64)
	case "require-signatures":
		cfg.Ledger.RequireSignatures = parseBool(value)

	// Mempool
	case "mempool.max-size":
		cfg.Mempool.MaxSize, err = strconv.Atoi(value)
	case "mempool.max-inputs":
		cfg.Mempool.MaxTxInputs, err = strconv.Atoi(value)
	case "mempool.reject-conflicts":
		cfg.Mempool.RejectConflicts = parseBool(value)

	// Mining
	case "mining.enabled", "mine":
		cfg.Mining.Enabled = parseBool(value)
	case "mining.coinbase", "coinbase":
		cfg.Mining.Coinbase = value
	case "mining.interval":
		cfg.Mining.Interval, err = time.ParseDuration(value)
	case "mining.threads":
		cfg.Mining.Threads, err = strconv.Atoi(value)

	// RPC
	case "rpc.enabled", "rpc":
		cfg.RPC.Enabled = parseBool(value)
	case "rpc.addr":
		cfg.RPC.Addr = value
	case "rpc.port":
		cfg.RPC.Port, err = strconv.Atoi(value)
	case "rpc.allowed":
		cfg.RPC.AllowedIPs = parseStringList(value)
	case "rpc.cors":
		cfg.RPC.CORSOrigins = parseStringList(value)

	case "metrics.enabled", "metrics":
		cfg.Metrics.Enabled = parseBool(value)

	case "storage.backend":
		cfg.Storage.Backend = StorageBackend(strings.ToLower(value))

	// Logging
	case "log.level":
		cfg.Log.Level = value
	case "log.file":
		cfg.Log.File = value
	case "log.json":
		cfg.Log.JSON = parseBool(value)
	case "log.max-size-kb":
		cfg.Log.MaxSizeKB, err = strconv.ParseInt(value, 10, 64)
	case "log.max-rolls":
		cfg.Log.MaxRolls, err = strconv.Atoi(value)

	default:
		// Unknown keys are ignored
	}
	return err
}

func parseBool(s string) bool {
	s = strings.ToLower(s)
	return s == "true" || s == "1" || s == "yes" || s == "on"
}

// parseStringList parses a comma-separated list.
func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			result = append(result, p)
		}
	}
	return result
}

// WriteDefaultConfig writes a commented default configuration file.
func WriteDefaultConfig(path string) error {
	content := `# UTXO Ledger Node Configuration

# Data directory (default: ~/.utxoledger)
# datadir = ~/.utxoledger

# ============================================================================
# Ledger
# ============================================================================

# Leading zero hex digits required in a block hash
difficulty = ` + strconv.Itoa(DefaultDifficulty) + `
coinbase-reward = ` + strconv.Itoa(DefaultCoinbaseReward) + `

# Accept only transactions signed by the sender's key
require-signatures = false

# ============================================================================
# Mempool
# ============================================================================

# 0 = unbounded
mempool.max-size = 0
# Largest input count per transaction (0 = no limit)
mempool.max-inputs = 0

# Refuse a transaction whose inputs are already selected by a pending one
mempool.reject-conflicts = false

# ============================================================================
# Mining
# ============================================================================

mining.enabled = false
# mining.coinbase = <your-address>
mining.interval = ` + DefaultMiningInterval.String() + `
mining.threads = 1

# ============================================================================
# RPC Server
# ============================================================================

rpc.enabled = true
rpc.addr = 127.0.0.1
rpc.port = ` + strconv.Itoa(DefaultRPCPort) + `
rpc.allowed = 127.0.0.1
# CORS allowed origins ("*" for all)
# rpc.cors = http://localhost:3000

metrics.enabled = true

# ============================================================================
# Storage (memory or badger; state is not persisted across restarts)
# ============================================================================

storage.backend = memory

# ============================================================================
# Logging
# ============================================================================

log.level = info
# log.file =
log.json = false
log.max-size-kb = ` + strconv.Itoa(DefaultLogMaxSizeKB) + `
log.max-rolls = ` + strconv.Itoa(DefaultLogMaxRolls) + `
`
	return os.WriteFile(path, []byte(content), 0644)
}
