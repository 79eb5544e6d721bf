package tx

import (
	"errors"
	"fmt"
	"math"

	"github.com/Klingon-tech/utxoledger/pkg/types"
)

// Validation errors.
var (
	ErrNoOutputs      = errors.New("transaction has no outputs")
	ErrDuplicateInput = errors.New("duplicate input")
	ErrOutputOverflow = errors.New("output amounts overflow")
	ErrNegativeOutput = errors.New("output amount is negative")
	ErrTxIDMismatch   = errors.New("txid does not match content")
)

// Validate checks transaction structure and basic rules.
// This does NOT check UTXO existence (that requires the UTXO set).
// Addresses are opaque; an empty one is structurally valid.
func (t *Transaction) Validate() error {
	if len(t.outputs) == 0 {
		return ErrNoOutputs
	}

	seen := make(map[types.Outpoint]bool, len(t.inputs))
	for i, in := range t.inputs {
		op := in.Outpoint()
		if seen[op] {
			return fmt.Errorf("input %d: %w", i, ErrDuplicateInput)
		}
		seen[op] = true
	}

	var total int64
	for i, out := range t.outputs {
		if out.Amount < 0 {
			return fmt.Errorf("output %d: %w", i, ErrNegativeOutput)
		}
		if total > math.MaxInt64-out.Amount {
			return fmt.Errorf("output %d: %w", i, ErrOutputOverflow)
		}
		total += out.Amount
	}

	if !t.VerifyID() {
		return ErrTxIDMismatch
	}
	return nil
}
