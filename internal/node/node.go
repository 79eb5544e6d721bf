// Package node provides a reusable ledger node that can be embedded
// in any binary.
package node

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/utxoledger/config"
	"github.com/Klingon-tech/utxoledger/internal/consensus"
	"github.com/Klingon-tech/utxoledger/internal/ledger"
	klog "github.com/Klingon-tech/utxoledger/internal/log"
	"github.com/Klingon-tech/utxoledger/internal/mempool"
	"github.com/Klingon-tech/utxoledger/internal/metrics"
	"github.com/Klingon-tech/utxoledger/internal/rpc"
	"github.com/Klingon-tech/utxoledger/internal/storage"
	"github.com/Klingon-tech/utxoledger/internal/utxo"
	"github.com/Klingon-tech/utxoledger/internal/wallet"
)

// Node is a fully-initialized ledger node.
type Node struct {
	cfg    *config.Config
	logger zerolog.Logger

	// Core
	db        storage.DB
	utxoStore *utxo.Store
	pool      *mempool.Pool
	ledger    *ledger.Ledger
	metrics   *metrics.Metrics // nil when metrics are disabled
	keystore  *wallet.Keystore

	// RPC
	rpcServer *rpc.Server

	// Mining
	coinbase string

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates and initializes a new Node. It performs all setup steps
// (logger, storage, mempool, ledger, RPC) but does NOT start the
// background miner. Call Start() for that.
func New(cfg *config.Config) (*Node, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	cfg.DataDir = expandHome(cfg.DataDir)

	// ── 1. Init logger ──────────────────────────────────────────────
	logFile := cfg.Log.File
	if logFile == "" {
		logsDir := cfg.LogsDir()
		if err := os.MkdirAll(logsDir, 0755); err != nil {
			return nil, fmt.Errorf("creating logs dir: %w", err)
		}
		logFile = filepath.Join(logsDir, "ledger.log")
	}
	if err := klog.InitRotating(cfg.Log.Level, cfg.Log.JSON, expandHome(logFile), cfg.Log.MaxSizeKB, cfg.Log.MaxRolls); err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	logger := klog.WithComponent("node")

	logger.Info().
		Int("difficulty", cfg.Ledger.Difficulty).
		Int64("reward", cfg.Ledger.CoinbaseReward).
		Str("storage", string(cfg.Storage.Backend)).
		Msg("Starting UTXO ledger node")

	// ── 2. Open storage ─────────────────────────────────────────────
	db, err := openStorage(cfg.Storage.Backend)
	if err != nil {
		return nil, err
	}
	utxoStore := utxo.NewStore(db)

	// ── 3. Keystore ─────────────────────────────────────────────────
	ks, err := wallet.NewKeystore(cfg.KeystoreDir(), wallet.DefaultParams())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create wallet keystore: %w", err)
	}

	var coinbase string
	if cfg.Mining.Enabled {
		coinbase, err = resolveCoinbase(cfg.Mining.Coinbase, ks)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("resolve coinbase: %w", err)
		}
	}

	// ── 4. Mempool ──────────────────────────────────────────────────
	policy := &mempool.Policy{
		MaxTxInputs:     cfg.Mempool.MaxTxInputs,
		RejectConflicts: cfg.Mempool.RejectConflicts,
	}
	pool := mempool.New(cfg.Mempool.MaxSize, policy)

	logger.Info().
		Int("max_size", cfg.Mempool.MaxSize).
		Bool("reject_conflicts", cfg.Mempool.RejectConflicts).
		Msg("Mempool ready")

	// ── 5. Metrics ──────────────────────────────────────────────────
	var m *metrics.Metrics
	ledgerCfg := ledger.Config{
		Difficulty:        cfg.Ledger.Difficulty,
		CoinbaseReward:    cfg.Ledger.CoinbaseReward,
		Threads:           cfg.Mining.Threads,
		RequireSignatures: cfg.Ledger.RequireSignatures,
	}
	if cfg.Metrics.Enabled {
		m = metrics.New()
		ledgerCfg.Observer = m
	}

	// ── 6. Ledger (mines genesis) ───────────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	l, err := ledger.New(ctx, ledgerCfg, utxoStore, pool)
	if err != nil {
		cancel()
		db.Close()
		return nil, fmt.Errorf("create ledger: %w", err)
	}

	// ── 7. RPC server ───────────────────────────────────────────────
	var rpcServer *rpc.Server
	if cfg.RPC.Enabled {
		rpcAddr := fmt.Sprintf("%s:%d", cfg.RPC.Addr, cfg.RPC.Port)
		rpcServer = rpc.New(rpcAddr, l, cfg.RPC)
		if m != nil {
			rpcServer.SetMetrics(m)
		}
		if err := rpcServer.Start(); err != nil {
			cancel()
			db.Close()
			return nil, fmt.Errorf("start RPC at %s: %w", rpcAddr, err)
		}
	} else {
		logger.Warn().Msg("RPC disabled by config")
	}

	return &Node{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		utxoStore: utxoStore,
		pool:      pool,
		ledger:    l,
		metrics:   m,
		keystore:  ks,
		rpcServer: rpcServer,
		coinbase:  coinbase,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start launches the background miner when mining is enabled.
func (n *Node) Start() error {
	if n.cfg.Mining.Enabled {
		n.logger.Info().
			Str("coinbase", n.coinbase).
			Int64("reward", n.ledger.Reward()).
			Dur("interval", n.cfg.Mining.Interval).
			Msg("Block production enabled")

		n.wg.Add(1)
		go func() {
			defer n.wg.Done()
			n.runMiner(n.cfg.Mining.Interval)
		}()
	}

	tip := n.ledger.Tip()
	n.logger.Info().
		Int64("height", tip.Index).
		Str("tip", tip.Hash[:16]+"...").
		Bool("mining", n.cfg.Mining.Enabled).
		Msg("Node started successfully")

	return nil
}

// Stop performs graceful shutdown in reverse order. An in-flight seal is
// abandoned.
func (n *Node) Stop() {
	n.cancel()
	n.wg.Wait()

	if n.rpcServer != nil {
		n.rpcServer.Stop()
	}
	if n.db != nil {
		n.db.Close()
	}

	n.logger.Info().Msg("Goodbye!")
}

// Ledger returns the node's ledger.
func (n *Node) Ledger() *ledger.Ledger {
	return n.ledger
}

// Keystore returns the node's wallet keystore.
func (n *Node) Keystore() *wallet.Keystore {
	return n.keystore
}

// RPCAddr returns the address the RPC server is listening on.
func (n *Node) RPCAddr() string {
	if n.rpcServer == nil {
		return ""
	}
	return n.rpcServer.Addr()
}

// Height returns the current chain height.
func (n *Node) Height() int64 {
	return n.ledger.Height()
}

// ── Mining ──────────────────────────────────────────────────────────

func (n *Node) runMiner(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-n.ctx.Done():
			n.logger.Info().Msg("Block production stopped")
			return
		case <-ticker.C:
			if _, err := n.ledger.MinePending(n.ctx, n.coinbase); err != nil {
				if errors.Is(err, consensus.ErrSealCancelled) && n.ctx.Err() != nil {
					n.logger.Info().Msg("Block production stopped")
					return
				}
				n.logger.Error().Err(err).Msg("Failed to produce block")
			}
		}
	}
}
