package mempool

import (
	"fmt"

	"github.com/Klingon-tech/utxoledger/pkg/tx"
)

// Policy defines transaction acceptance rules.
type Policy struct {
	MaxTxInputs int // 0 = no limit.

	// RejectConflicts refuses an entry whose selected outputs are already
	// selected by another pending entry. Off by default: two admissions
	// may select the same confirmed outputs.
	RejectConflicts bool
}

// DefaultPolicy returns a policy that admits any transaction the sender
// can fund, however many outputs it has to consume.
func DefaultPolicy() *Policy {
	return &Policy{}
}

// Check validates a transaction against policy rules.
// This is separate from block validation, policy rules can vary per node.
func (p *Policy) Check(transaction *tx.Transaction) error {
	if p.MaxTxInputs > 0 && transaction.NumInputs() > p.MaxTxInputs {
		return fmt.Errorf("too many inputs: %d, max %d", transaction.NumInputs(), p.MaxTxInputs)
	}
	return transaction.Validate()
}
