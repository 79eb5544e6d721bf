// Package ledger is the single-writer controller that owns the chain, the
// pending pool and the UTXO set. It sequences transaction admission,
// mining and block application.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Klingon-tech/utxoledger/internal/consensus"
	klog "github.com/Klingon-tech/utxoledger/internal/log"
	"github.com/Klingon-tech/utxoledger/internal/mempool"
	"github.com/Klingon-tech/utxoledger/internal/miner"
	"github.com/Klingon-tech/utxoledger/internal/utxo"
	"github.com/Klingon-tech/utxoledger/pkg/block"
	"github.com/Klingon-tech/utxoledger/pkg/crypto"
	"github.com/Klingon-tech/utxoledger/pkg/tx"
)

// DefaultCoinbaseReward is the amount minted to the miner of each block.
const DefaultCoinbaseReward = 50

// Ledger errors.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrSignatureRequired   = errors.New("signed transaction required")
	ErrBadSignature        = errors.New("invalid signature")
	ErrAddressMismatch     = errors.New("public key does not own sender address")
	ErrBlockNotFound       = errors.New("block not found")
	ErrChainTampered       = errors.New("chain tamper detected")
)

// Observer receives ledger events. internal/metrics implements it.
type Observer interface {
	TxAdmitted()
	TxRejected(reason string)
	BlockMined(blk *block.Block, elapsed time.Duration)
	StateChanged(height int64, pending, utxos int)
}

// Config holds the ledger parameters.
type Config struct {
	Difficulty     int
	CoinbaseReward int64
	// Threads is the number of PoW goroutines (<= 1 for one).
	Threads int
	// RequireSignatures makes CreateTransaction refuse unsigned
	// admissions; only CreateSignedTransaction is accepted.
	RequireSignatures bool
	// Verifier checks signatures in CreateSignedTransaction.
	// Defaults to crypto.SchnorrVerifier.
	Verifier crypto.Verifier
	// Engine overrides the PoW engine built from Difficulty and Threads.
	// The ledger then takes its difficulty from the engine.
	Engine   consensus.Engine
	Observer Observer
}

// Ledger owns the chain, the pending pool and the UTXO set.
//
// writeMu serializes every mutation (admission, mining) end to end.
// mu guards the state read by queries; mining holds it only to snapshot
// the tip and to append and apply the sealed block, never during PoW.
type Ledger struct {
	writeMu sync.Mutex
	mu      sync.RWMutex

	chain []*block.Block
	pool  *mempool.Pool
	utxos *utxo.Store

	engine      consensus.Engine
	miner       *miner.Miner
	difficulty  int
	requireSigs bool
	verifier    crypto.Verifier
	observer    Observer
	logger      zerolog.Logger
}

// New creates a ledger and mines its genesis block.
func New(ctx context.Context, cfg Config, utxos *utxo.Store, pool *mempool.Pool) (*Ledger, error) {
	if utxos == nil {
		return nil, fmt.Errorf("utxo store is nil")
	}
	if pool == nil {
		return nil, fmt.Errorf("mempool is nil")
	}
	if cfg.CoinbaseReward <= 0 {
		cfg.CoinbaseReward = DefaultCoinbaseReward
	}

	engine := cfg.Engine
	if engine == nil {
		pow, err := consensus.NewPoW(cfg.Difficulty)
		if err != nil {
			return nil, fmt.Errorf("create pow: %w", err)
		}
		pow.Threads = cfg.Threads
		engine = pow
	}
	difficulty, err := engineDifficulty(engine)
	if err != nil {
		return nil, err
	}
	verifier := cfg.Verifier
	if verifier == nil {
		verifier = crypto.SchnorrVerifier{}
	}

	l := &Ledger{
		pool:        pool,
		utxos:       utxos,
		engine:      engine,
		miner:       miner.New(engine, cfg.CoinbaseReward),
		difficulty:  difficulty,
		requireSigs: cfg.RequireSignatures,
		verifier:    verifier,
		observer:    cfg.Observer,
		logger:      klog.Ledger,
	}

	genesis, err := l.miner.ProduceGenesis(ctx)
	if err != nil {
		return nil, fmt.Errorf("create genesis: %w", err)
	}
	l.chain = []*block.Block{genesis}
	l.logger.Info().
		Str("hash", genesis.Hash).
		Int("difficulty", genesis.Difficulty).
		Msg("Genesis block created")
	l.notifyState()

	return l, nil
}

// engineDifficulty reads the difficulty engine stamps into new blocks.
func engineDifficulty(engine consensus.Engine) (int, error) {
	var scratch block.Block
	if err := engine.Prepare(&scratch); err != nil {
		return 0, fmt.Errorf("prepare block: %w", err)
	}
	return scratch.Difficulty, nil
}

// Blocks returns the chain in index order.
func (l *Ledger) Blocks() []*block.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]*block.Block(nil), l.chain...)
}

// Block returns the block at index.
func (l *Ledger) Block(index int64) (*block.Block, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if index < 0 || index >= int64(len(l.chain)) {
		return nil, fmt.Errorf("%w: index %d", ErrBlockNotFound, index)
	}
	return l.chain[index], nil
}

// Tip returns the latest block.
func (l *Ledger) Tip() *block.Block {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.chain[len(l.chain)-1]
}

// Height returns the index of the latest block.
func (l *Ledger) Height() int64 {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return int64(len(l.chain) - 1)
}

// Difficulty returns the number of leading zero hex digits required.
func (l *Ledger) Difficulty() int {
	return l.difficulty
}

// Reward returns the coinbase amount per block.
func (l *Ledger) Reward() int64 {
	return l.miner.Reward()
}

// Pending returns the queued transactions in admission order.
func (l *Ledger) Pending() []*tx.Transaction {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.pool.Transactions()
}

// Balance returns the confirmed balance of address. Pending spends and
// receipts are not counted.
func (l *Ledger) Balance(address string) (int64, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.utxos.Balance(address)
}

// UTXOs returns the confirmed outputs of address in insertion order.
func (l *Ledger) UTXOs(address string) ([]*utxo.UTXO, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.utxos.List(address)
}

// Info summarizes the ledger state.
type Info struct {
	Height         int64  `json:"height"`
	TipHash        string `json:"tip_hash"`
	Difficulty     int    `json:"difficulty"`
	CoinbaseReward int64  `json:"coinbase_reward"`
	Pending        int    `json:"pending"`
	UTXOCount      int    `json:"utxo_count"`
	UTXOCommitment string `json:"utxo_commitment"`
}

// Info returns a snapshot of the ledger state.
func (l *Ledger) Info() (*Info, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	count, err := l.utxos.Count()
	if err != nil {
		return nil, fmt.Errorf("count utxos: %w", err)
	}
	commitment, err := utxo.Commitment(l.utxos)
	if err != nil {
		return nil, err
	}
	tip := l.chain[len(l.chain)-1]
	return &Info{
		Height:         tip.Index,
		TipHash:        tip.Hash,
		Difficulty:     l.difficulty,
		CoinbaseReward: l.miner.Reward(),
		Pending:        l.pool.Count(),
		UTXOCount:      count,
		UTXOCommitment: commitment,
	}, nil
}

// notifyState reports height, pool size and UTXO count to the observer.
func (l *Ledger) notifyState() {
	if l.observer == nil {
		return
	}
	n, err := l.utxos.Count()
	if err != nil {
		l.logger.Warn().Err(err).Msg("Count UTXOs failed")
		return
	}
	l.observer.StateChanged(int64(len(l.chain)-1), l.pool.Count(), n)
}
