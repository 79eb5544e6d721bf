package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// Version is the ledgerd release.
const Version = "0.1.0"

// ErrHelp is returned by ParseFlags when usage was requested.
var ErrHelp = errors.New("help requested")

// Flags holds parsed command-line flags.
type Flags struct {
	Help    bool
	Version bool

	DataDir string
	Config  string

	// Ledger
	Difficulty        int
	CoinbaseReward    int64
	RequireSignatures bool

	// Mempool
	MempoolMaxSize  int
	RejectConflicts bool

	// RPC
	RPC        bool
	RPCAddr    string
	RPCPort    int
	RPCAllowed string
	RPCCORS    string

	Metrics bool

	// Mining
	Mine           bool
	Coinbase       string
	MiningInterval time.Duration
	MiningThreads  int

	Storage string

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	Args []string

	// Explicitly-set bool flags (for true/false overrides).
	SetRequireSignatures bool
	SetRejectConflicts   bool
	SetRPC               bool
	SetMetrics           bool
	SetMine              bool
	SetLogJSON           bool
}

// ParseFlags parses args (without the program name).
func ParseFlags(args []string) (*Flags, error) {
	f := &Flags{}
	fs := flag.NewFlagSet("ledgerd", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")

	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")

	fs.IntVar(&f.Difficulty, "difficulty", 0, "Leading zero hex digits required in block hashes")
	fs.Int64Var(&f.CoinbaseReward, "coinbase-reward", 0, "Coinbase amount per block")
	fs.BoolVar(&f.RequireSignatures, "require-signatures", false, "Accept only signed transactions")

	fs.IntVar(&f.MempoolMaxSize, "mempool-max-size", 0, "Maximum pending transactions")
	fs.BoolVar(&f.RejectConflicts, "reject-conflicts", false, "Refuse transactions selecting already-selected outputs")

	fs.BoolVar(&f.RPC, "rpc", true, "Enable RPC server")
	fs.StringVar(&f.RPCAddr, "rpc-addr", "", "RPC listen address")
	fs.IntVar(&f.RPCPort, "rpc-port", 0, "RPC listen port")
	fs.StringVar(&f.RPCAllowed, "rpc-allowed", "", "Allowed IPs for RPC")
	fs.StringVar(&f.RPCCORS, "rpc-cors", "", "Allowed CORS origins for RPC (comma-separated)")
	fs.BoolVar(&f.Metrics, "metrics", true, "Serve Prometheus metrics at /metrics")

	fs.BoolVar(&f.Mine, "mine", false, "Enable background block production")
	fs.StringVar(&f.Coinbase, "coinbase", "", "Address to receive block rewards")
	fs.DurationVar(&f.MiningInterval, "mining-interval", 0, "Time between background blocks")
	fs.IntVar(&f.MiningThreads, "mining-threads", 0, "Proof-of-work goroutines")

	fs.StringVar(&f.Storage, "storage", "", "UTXO backend: memory or badger")

	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, ErrHelp
		}
		return nil, err
	}

	f.SetRequireSignatures = isFlagSet(fs, "require-signatures")
	f.SetRejectConflicts = isFlagSet(fs, "reject-conflicts")
	f.SetRPC = isFlagSet(fs, "rpc")
	f.SetMetrics = isFlagSet(fs, "metrics")
	f.SetMine = isFlagSet(fs, "mine")
	f.SetLogJSON = isFlagSet(fs, "log-json")

	f.Args = fs.Args()
	for _, arg := range f.Args {
		if strings.HasPrefix(arg, "-") {
			return nil, fmt.Errorf("flag %q was not parsed (positional argument stopped parsing)", arg)
		}
	}
	return f, nil
}

// ApplyFlags applies command-line flags to cfg.
func ApplyFlags(cfg *Config, f *Flags) {
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}

	if f.Difficulty != 0 {
		cfg.Ledger.Difficulty = f.Difficulty
	}
	if f.CoinbaseReward != 0 {
		cfg.Ledger.CoinbaseReward = f.CoinbaseReward
	}
	if f.SetRequireSignatures {
		cfg.Ledger.RequireSignatures = f.RequireSignatures
	}

	if f.MempoolMaxSize != 0 {
		cfg.Mempool.MaxSize = f.MempoolMaxSize
	}
	if f.SetRejectConflicts {
		cfg.Mempool.RejectConflicts = f.RejectConflicts
	}

	if f.SetRPC {
		cfg.RPC.Enabled = f.RPC
	}
	if f.RPCAddr != "" {
		cfg.RPC.Addr = f.RPCAddr
	}
	if f.RPCPort != 0 {
		cfg.RPC.Port = f.RPCPort
	}
	if f.RPCAllowed != "" {
		cfg.RPC.AllowedIPs = parseStringList(f.RPCAllowed)
	}
	if f.RPCCORS != "" {
		cfg.RPC.CORSOrigins = parseStringList(f.RPCCORS)
	}
	if f.SetMetrics {
		cfg.Metrics.Enabled = f.Metrics
	}

	if f.SetMine {
		cfg.Mining.Enabled = f.Mine
	}
	if f.Coinbase != "" {
		cfg.Mining.Coinbase = f.Coinbase
	}
	if f.MiningInterval != 0 {
		cfg.Mining.Interval = f.MiningInterval
	}
	if f.MiningThreads != 0 {
		cfg.Mining.Threads = f.MiningThreads
	}

	if f.Storage != "" {
		cfg.Storage.Backend = StorageBackend(strings.ToLower(f.Storage))
	}

	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// PrintUsage writes the ledgerd help text to w.
func PrintUsage(w io.Writer) {
	fmt.Fprint(w, `ledgerd - single-node UTXO ledger with proof-of-work

Usage:
  ledgerd [options]

Commands:
  --help, -h      Show this help message
  --version, -v   Show version information

Core Options:
  --datadir       Data directory (default: ~/.utxoledger)
  --config, -c    Config file path (default: <datadir>/ledger.conf)

Ledger Options:
  --difficulty          Leading zero hex digits per block hash (default: 4)
  --coinbase-reward     Coinbase amount per block (default: 50)
  --require-signatures  Accept only transactions signed by the sender

Mempool Options:
  --mempool-max-size    Maximum pending transactions (default: unbounded)
  --reject-conflicts    Refuse transactions selecting already-selected outputs

RPC Options:
  --rpc           Enable RPC server (default: true)
  --rpc-addr      RPC listen address (default: 127.0.0.1)
  --rpc-port      RPC port (default: 5000)
  --rpc-allowed   Allowed IPs for RPC (comma-separated)
  --rpc-cors      Allowed CORS origins for RPC (comma-separated)
  --metrics       Serve Prometheus metrics at /metrics (default: true)

Mining Options:
  --mine             Enable background block production
  --coinbase         Address to receive block rewards
  --mining-interval  Time between background blocks (default: 10s)
  --mining-threads   Proof-of-work goroutines (default: 1)

Storage Options:
  --storage       UTXO backend: memory (default) or badger

Logging Options:
  --log-level     Log level: trace, debug, info, warn, error (default: info)
  --log-file      Log file path, rotated by size (default: stdout)
  --log-json      Output logs as JSON

Examples:
  ledgerd --difficulty=2
  ledgerd --mine --coinbase=MINER001 --mining-interval=5s
`)
}

// Load resolves configuration with the following precedence:
// 1. Default values
// 2. Config file (created with defaults on first start)
// 3. Command-line flags
func Load(args []string) (*Config, *Flags, error) {
	flags, err := ParseFlags(args)
	if err != nil {
		return nil, nil, err
	}
	if flags.Help || flags.Version {
		return nil, flags, nil
	}

	cfg := Default()
	if flags.DataDir != "" {
		cfg.DataDir = flags.DataDir
	}
	if err := EnsureDataDirs(cfg); err != nil {
		return nil, nil, fmt.Errorf("ensuring data dirs: %w", err)
	}

	configPath := flags.Config
	if configPath == "" {
		configPath = cfg.ConfigFile()
	}
	fileValues, err := LoadFile(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, fileValues); err != nil {
		return nil, nil, fmt.Errorf("applying config file: %w", err)
	}

	ApplyFlags(cfg, flags)
	if err := Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, flags, nil
}

// EnsureDataDirs creates the data directory layout and a default config
// file if they don't already exist.
func EnsureDataDirs(cfg *Config) error {
	for _, dir := range []string{cfg.DataDir, cfg.KeystoreDir(), cfg.LogsDir()} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}

	configPath := cfg.ConfigFile()
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := WriteDefaultConfig(configPath); err != nil {
			return fmt.Errorf("writing config file: %w", err)
		}
	}
	return nil
}
