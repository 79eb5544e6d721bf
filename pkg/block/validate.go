package block

import (
	"errors"
	"fmt"
)

// Validation errors.
var (
	ErrNoTransactions   = errors.New("block has no transactions")
	ErrNoCoinbase       = errors.New("first transaction must be coinbase")
	ErrMultipleCoinbase = errors.New("multiple coinbase transactions in block")
	ErrBadHash          = errors.New("block hash does not match content")
	ErrInsufficientWork = errors.New("block hash does not meet difficulty")
	ErrBadGenesis       = errors.New("invalid genesis block")
	ErrNegativeIndex    = errors.New("block index is negative")
)

// Validate checks block structure and internal consistency: hash matches
// content, hash meets difficulty, and a non-genesis block starts with its
// single coinbase. Linkage to the previous block is checked by the ledger.
// Inputs reused across transactions are not rejected here.
func (b *Block) Validate() error {
	if b.Index < 0 {
		return ErrNegativeIndex
	}

	if b.Hash != b.ContentHash() {
		return ErrBadHash
	}
	if !MeetsDifficulty(b.Hash, b.Difficulty) {
		return fmt.Errorf("%w: difficulty %d", ErrInsufficientWork, b.Difficulty)
	}

	if b.IsGenesis() {
		if b.PrevHash != GenesisPrevHash || len(b.Transactions) != 0 {
			return ErrBadGenesis
		}
		return nil
	}

	if len(b.Transactions) == 0 {
		return ErrNoTransactions
	}
	if !b.Transactions[0].IsCoinbase() {
		return ErrNoCoinbase
	}
	for i, t := range b.Transactions[1:] {
		if t.IsCoinbase() {
			return fmt.Errorf("tx %d: %w", i+1, ErrMultipleCoinbase)
		}
	}

	for i, t := range b.Transactions {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("tx %d: %w", i, err)
		}
	}

	return nil
}
