// Package utxo manages the UTXO set.
package utxo

import "github.com/Klingon-tech/utxoledger/pkg/types"

// UTXO is an unspent output owned by Address.
type UTXO struct {
	TxID    string `json:"txid"`
	Index   int    `json:"index"`
	Amount  int64  `json:"amount"`
	Address string `json:"address"`
}

// Outpoint returns the output reference of the UTXO.
func (u *UTXO) Outpoint() types.Outpoint {
	return types.Outpoint{TxID: u.TxID, Index: u.Index}
}

// Set is the interface for UTXO storage.
type Set interface {
	// Add records a new output. Amounts <= 0 are ignored.
	Add(address, txid string, index int, amount int64) error
	// Spend removes the output if address owns it, otherwise does nothing.
	Spend(address, txid string, index int) error
	// Balance sums every output owned by address.
	Balance(address string) (int64, error)
	// SelectSpendable picks outputs first-fit in insertion order until
	// their total reaches amount. ok is false when amount <= 0 or the
	// balance is insufficient.
	SelectSpendable(address string, amount int64) (selected []*UTXO, total int64, ok bool, err error)
}
