package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/Klingon-tech/utxoledger/internal/mempool"
	"github.com/Klingon-tech/utxoledger/internal/miner"
	"github.com/Klingon-tech/utxoledger/internal/utxo"
	"github.com/Klingon-tech/utxoledger/pkg/block"
	"github.com/Klingon-tech/utxoledger/pkg/tx"
)

// MinePending seals a block holding a coinbase for minerAddr followed by
// every pending transaction, appends it and applies it to the UTXO set.
//
// Proof-of-work runs without holding the state lock, so queries keep
// being served. If ctx is cancelled before the block is sealed nothing
// changes and the error wraps consensus.ErrSealCancelled.
func (l *Ledger) MinePending(ctx context.Context, minerAddr string) (*block.Block, error) {
	l.writeMu.Lock()
	defer l.writeMu.Unlock()

	l.mu.RLock()
	parent := l.chain[len(l.chain)-1]
	entries := l.pool.Entries()
	l.mu.RUnlock()

	pending := make([]*tx.Transaction, len(entries))
	for i, e := range entries {
		pending[i] = e.Tx
	}

	start := time.Now()
	blk, err := l.miner.ProduceBlock(ctx, miner.Tip{
		Index:     parent.Index,
		Hash:      parent.Hash,
		Timestamp: parent.Timestamp,
	}, minerAddr, pending)
	if err != nil {
		l.logger.Warn().Err(err).Int64("height", parent.Index+1).Msg("Mining aborted")
		return nil, fmt.Errorf("produce block: %w", err)
	}
	elapsed := time.Since(start)

	l.mu.Lock()
	if err := l.applyBlock(blk, entries); err != nil {
		l.mu.Unlock()
		return nil, fmt.Errorf("apply block %d: %w", blk.Index, err)
	}
	l.chain = append(l.chain, blk)
	l.pool.Clear()
	l.mu.Unlock()

	l.logger.Info().
		Int64("height", blk.Index).
		Str("hash", blk.Hash).
		Uint64("nonce", blk.Nonce).
		Int("txs", len(blk.Transactions)).
		Dur("elapsed", elapsed).
		Msg("Block mined")
	if l.observer != nil {
		l.observer.BlockMined(blk, elapsed)
	}
	l.notifyState()
	return blk, nil
}

// applyBlock updates the UTXO set for blk in one atomic write.
// entries carries the bookkeeping of blk.Transactions[1:] in order.
//
// For each transaction, the outputs selected at admission are removed
// from the sender, then the transaction's outputs are added. Removal of
// an already-spent output and re-adding an existing output are no-ops, so
// applying the same block twice leaves the set unchanged.
func (l *Ledger) applyBlock(blk *block.Block, entries []*mempool.Entry) error {
	if n := len(blk.Transactions); n > 0 && n-1 != len(entries) {
		return fmt.Errorf("block has %d pending transactions, got %d entries", n-1, len(entries))
	}

	return l.utxos.Update(func(w *utxo.Writer) error {
		for i, t := range blk.Transactions {
			if !t.IsCoinbase() {
				e := entries[i-1]
				for _, u := range e.Selected {
					if err := w.Spend(e.From, u.TxID, u.Index); err != nil {
						return err
					}
				}
			}
			for idx, out := range t.Outputs() {
				if err := w.Add(out.Address, t.ID(), idx, out.Amount); err != nil {
					return err
				}
			}
		}
		return nil
	})
}
