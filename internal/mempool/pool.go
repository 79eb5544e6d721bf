// Package mempool manages pending transactions waiting for block inclusion.
package mempool

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Klingon-tech/utxoledger/internal/utxo"
	"github.com/Klingon-tech/utxoledger/pkg/tx"
	"github.com/Klingon-tech/utxoledger/pkg/types"
)

// Mempool errors.
var (
	ErrConflict   = errors.New("transaction conflicts with existing mempool entry")
	ErrPoolFull   = errors.New("mempool is full")
	ErrValidation = errors.New("transaction failed validation")
	ErrNilEntry   = errors.New("nil mempool entry")
)

// Entry pairs an admitted transaction with the bookkeeping needed to
// apply it once mined: the sender and the outputs selected to fund it.
// None of this is part of the transaction's hashed content.
type Entry struct {
	Tx       *tx.Transaction
	From     string
	Selected []*utxo.UTXO
	AddedAt  time.Time
}

// Pool holds unconfirmed transactions in admission order.
//
// Two entries may select the same confirmed outputs unless the policy
// rejects conflicts; the pool does not reserve outputs for pending spends.
type Pool struct {
	mu      sync.RWMutex
	entries []*Entry
	spends  map[types.Outpoint]int // outpoint -> number of entries selecting it
	maxSize int
	policy  *Policy
}

// New creates a new mempool. maxSize <= 0 means unbounded.
func New(maxSize int, policy *Policy) *Pool {
	if policy == nil {
		policy = DefaultPolicy()
	}
	return &Pool{
		spends:  make(map[types.Outpoint]int),
		maxSize: maxSize,
		policy:  policy,
	}
}

// Add appends an entry to the pool.
func (p *Pool) Add(e *Entry) error {
	if e == nil || e.Tx == nil {
		return ErrNilEntry
	}
	if err := p.policy.Check(e.Tx); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.maxSize > 0 && len(p.entries) >= p.maxSize {
		return fmt.Errorf("%w: %d entries", ErrPoolFull, p.maxSize)
	}

	if p.policy.RejectConflicts {
		for _, u := range e.Selected {
			op := u.Outpoint()
			if p.spends[op] > 0 {
				return fmt.Errorf("%w: output %s already selected by a pending transaction", ErrConflict, op)
			}
		}
	}

	if e.AddedAt.IsZero() {
		e.AddedAt = time.Now()
	}
	p.entries = append(p.entries, e)
	for _, u := range e.Selected {
		p.spends[u.Outpoint()]++
	}
	return nil
}

// Entries returns the pending entries in admission order.
func (p *Pool) Entries() []*Entry {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]*Entry(nil), p.entries...)
}

// Transactions returns the pending transactions in admission order.
func (p *Pool) Transactions() []*tx.Transaction {
	p.mu.RLock()
	defer p.mu.RUnlock()
	txs := make([]*tx.Transaction, len(p.entries))
	for i, e := range p.entries {
		txs[i] = e.Tx
	}
	return txs
}

// Get returns the first entry whose transaction has the given ID.
func (p *Pool) Get(txid string) (*Entry, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	for _, e := range p.entries {
		if e.Tx.ID() == txid {
			return e, true
		}
	}
	return nil, false
}

// IsSelected reports whether a pending entry has selected op.
func (p *Pool) IsSelected(op types.Outpoint) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.spends[op] > 0
}

// Count returns the number of pending entries.
func (p *Pool) Count() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.entries)
}

// Clear removes every entry.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = nil
	p.spends = make(map[types.Outpoint]int)
}
