// Package miner assembles and seals new blocks.
package miner

import (
	"context"
	"fmt"
	"time"

	"github.com/Klingon-tech/utxoledger/internal/consensus"
	"github.com/Klingon-tech/utxoledger/pkg/block"
	"github.com/Klingon-tech/utxoledger/pkg/tx"
)

// Tip is a snapshot of the block a new block will extend.
type Tip struct {
	Index     int64
	Hash      string
	Timestamp int64
}

// Miner produces new blocks.
type Miner struct {
	engine consensus.Engine
	reward int64
	now    func() time.Time
}

// New creates a new block producer paying reward per block.
func New(engine consensus.Engine, reward int64) *Miner {
	return &Miner{
		engine: engine,
		reward: reward,
		now:    time.Now,
	}
}

// Reward returns the coinbase amount paid per block.
func (m *Miner) Reward() int64 {
	return m.reward
}

// BuildCoinbase creates a zero-input transaction paying reward to addr.
func BuildCoinbase(addr string, reward, timestamp int64) *tx.Transaction {
	return tx.NewAt(nil, []tx.Output{{Amount: reward, Address: addr}}, timestamp)
}

// CoinbaseNow builds this miner's coinbase for addr at the current time.
func (m *Miner) CoinbaseNow(addr string) *tx.Transaction {
	return BuildCoinbase(addr, m.reward, m.now().Unix())
}

// ProduceGenesis builds and seals the block at index 0.
func (m *Miner) ProduceGenesis(ctx context.Context) (*block.Block, error) {
	blk := &block.Block{
		Index:     0,
		PrevHash:  block.GenesisPrevHash,
		Timestamp: m.now().Unix(),
	}
	if err := m.seal(ctx, blk); err != nil {
		return nil, err
	}
	return blk, nil
}

// ProduceBlock builds a block on top of tip holding a fresh coinbase for
// coinbaseAddr followed by pending in order, then seals it.
// The block is NOT applied, the caller appends it and updates the UTXO set.
func (m *Miner) ProduceBlock(ctx context.Context, tip Tip, coinbaseAddr string, pending []*tx.Transaction) (*block.Block, error) {
	// Strictly after the parent, so that coinbases to one address never
	// share a txid.
	timestamp := m.now().Unix()
	if timestamp <= tip.Timestamp {
		timestamp = tip.Timestamp + 1
	}

	coinbase := BuildCoinbase(coinbaseAddr, m.reward, timestamp)
	txs := make([]*tx.Transaction, 0, 1+len(pending))
	txs = append(txs, coinbase)
	txs = append(txs, pending...)

	blk := &block.Block{
		Index:        tip.Index + 1,
		PrevHash:     tip.Hash,
		Timestamp:    timestamp,
		Transactions: txs,
	}
	if err := m.seal(ctx, blk); err != nil {
		return nil, err
	}
	return blk, nil
}

func (m *Miner) seal(ctx context.Context, blk *block.Block) error {
	if err := m.engine.Prepare(blk); err != nil {
		return fmt.Errorf("prepare block: %w", err)
	}
	if err := m.engine.Seal(ctx, blk); err != nil {
		return fmt.Errorf("seal block %d: %w", blk.Index, err)
	}
	return nil
}
