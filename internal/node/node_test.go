package node

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Klingon-tech/utxoledger/config"
	"github.com/Klingon-tech/utxoledger/internal/storage"
	"github.com/Klingon-tech/utxoledger/internal/wallet"
)

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home dir")
	}
	tests := []struct {
		input, want string
	}{
		{"~/foo/bar", filepath.Join(home, "foo/bar")},
		{"~/.utxoledger/logs", filepath.Join(home, ".utxoledger/logs")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"", ""},
	}
	for _, tt := range tests {
		got := expandHome(tt.input)
		if got != tt.want {
			t.Errorf("expandHome(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestOpenStorage(t *testing.T) {
	mem, err := openStorage(config.StorageMemory)
	if err != nil {
		t.Fatalf("memory: %v", err)
	}
	if _, ok := mem.(*storage.MemoryDB); !ok {
		t.Errorf("memory backend = %T", mem)
	}
	mem.Close()

	bdb, err := openStorage(config.StorageBadger)
	if err != nil {
		t.Fatalf("badger: %v", err)
	}
	if _, ok := bdb.(*storage.BadgerDB); !ok {
		t.Errorf("badger backend = %T", bdb)
	}
	bdb.Close()

	if _, err := openStorage("leveldb"); err == nil {
		t.Error("expected error for unknown backend")
	}
}

func TestResolveCoinbase_FromString(t *testing.T) {
	addr, err := resolveCoinbase("MINER001", nil)
	if err != nil {
		t.Fatalf("resolveCoinbase: %v", err)
	}
	if addr != "MINER001" {
		t.Errorf("addr = %q", addr)
	}
}

func TestResolveCoinbase_FromKeystore(t *testing.T) {
	ks, err := wallet.NewKeystore(t.TempDir(), wallet.EncryptionParams{Memory: 64, Iterations: 1, Parallelism: 1})
	if err != nil {
		t.Fatalf("NewKeystore: %v", err)
	}
	w, err := wallet.Generate()
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if err := ks.Save("miner", w, []byte("pw")); err != nil {
		t.Fatalf("Save: %v", err)
	}

	addr, err := resolveCoinbase("wallet:miner", ks)
	if err != nil {
		t.Fatalf("resolveCoinbase: %v", err)
	}
	if addr != w.Address() {
		t.Errorf("addr = %s, want %s", addr, w.Address())
	}

	if _, err := resolveCoinbase("wallet:missing", ks); err == nil {
		t.Error("expected error for missing wallet")
	}
}

func TestResolveCoinbase_NoSource(t *testing.T) {
	if _, err := resolveCoinbase("", nil); err == nil {
		t.Error("expected error with no coinbase")
	}
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	cfg.Ledger.Difficulty = 1
	cfg.RPC.Port = 0 // Use random port.
	cfg.Log.Level = "error"
	if err := config.EnsureDataDirs(cfg); err != nil {
		t.Fatalf("EnsureDataDirs: %v", err)
	}
	return cfg
}

func TestNodeLifecycle(t *testing.T) {
	cfg := testConfig(t)

	n, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if n.Height() != 0 {
		t.Errorf("expected height 0, got %d", n.Height())
	}
	if n.RPCAddr() == "" {
		t.Error("RPCAddr should not be empty")
	}

	if err := n.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	resp, err := http.Get("http://" + n.RPCAddr() + "/valid")
	if err != nil {
		t.Fatalf("GET /valid: %v", err)
	}
	var valid struct {
		Valid bool `json:"valid"`
	}
	json.NewDecoder(resp.Body).Decode(&valid)
	resp.Body.Close()
	if !valid.Valid {
		t.Error("fresh node reports invalid chain")
	}

	resp, err = http.Get("http://" + n.RPCAddr() + "/metrics")
	if err != nil {
		t.Fatalf("GET /metrics: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("metrics status = %d", resp.StatusCode)
	}

	// Stop should not panic or error.
	n.Stop()
}

func TestNode_RPCDisabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.RPC.Enabled = false
	cfg.Metrics.Enabled = false

	n, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer n.Stop()
	if n.RPCAddr() != "" {
		t.Errorf("RPCAddr = %q, want empty", n.RPCAddr())
	}
}

func TestNode_BackgroundMiner(t *testing.T) {
	cfg := testConfig(t)
	cfg.Mining.Enabled = true
	cfg.Mining.Coinbase = "MINER001"
	cfg.Mining.Interval = 20 * time.Millisecond

	n, err := New(cfg)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := n.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(10 * time.Second)
	for n.Height() < 2 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	// Memory storage stays readable after Stop.
	n.Stop()

	height := n.Height()
	if height < 2 {
		t.Fatalf("height = %d, want >= 2", height)
	}
	bal, err := n.Ledger().Balance("MINER001")
	if err != nil {
		t.Fatalf("Balance: %v", err)
	}
	if bal != height*config.DefaultCoinbaseReward {
		t.Errorf("balance = %d, want %d", bal, height*config.DefaultCoinbaseReward)
	}
}

func TestNode_MiningWithoutCoinbase(t *testing.T) {
	cfg := testConfig(t)
	cfg.Mining.Enabled = true

	_, err := New(cfg)
	if err == nil || !strings.Contains(err.Error(), "coinbase") {
		t.Fatalf("expected coinbase error, got %v", err)
	}
}

func TestNode_InvalidConfig(t *testing.T) {
	cfg := testConfig(t)
	cfg.Ledger.Difficulty = -1

	if _, err := New(cfg); err == nil {
		t.Fatal("expected error for negative difficulty")
	}
}
