// Package tx defines transaction types and validation.
package tx

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/Klingon-tech/utxoledger/pkg/crypto"
	"github.com/Klingon-tech/utxoledger/pkg/types"
)

// Input references an output of an earlier transaction.
// The signature is carried verbatim and is not interpreted here.
type Input struct {
	TxID      string `json:"txid"`
	Index     int    `json:"index"`
	Signature string `json:"signature"`
}

// Outpoint returns the output this input spends.
func (in Input) Outpoint() types.Outpoint {
	return types.Outpoint{TxID: in.TxID, Index: in.Index}
}

// Output pays Amount to Address.
type Output struct {
	Amount  int64  `json:"amount"`
	Address string `json:"address"`
}

// Transaction is an immutable set of inputs and outputs. Its ID is fixed
// at construction and never recomputed.
type Transaction struct {
	inputs    []Input
	outputs   []Output
	timestamp int64
	txid      string
}

// New builds a transaction stamped with the current unix time.
func New(inputs []Input, outputs []Output) *Transaction {
	return NewAt(inputs, outputs, time.Now().Unix())
}

// NewAt builds a transaction with an explicit timestamp.
func NewAt(inputs []Input, outputs []Output, timestamp int64) *Transaction {
	t := &Transaction{
		inputs:    append([]Input(nil), inputs...),
		outputs:   append([]Output(nil), outputs...),
		timestamp: timestamp,
	}
	t.txid = crypto.HashHex(t.Serialize())
	return t
}

// ID returns the transaction ID.
func (t *Transaction) ID() string { return t.txid }

// Timestamp returns the construction time in unix seconds.
func (t *Transaction) Timestamp() int64 { return t.timestamp }

// Inputs returns a copy of the inputs.
func (t *Transaction) Inputs() []Input { return append([]Input(nil), t.inputs...) }

// Outputs returns a copy of the outputs.
func (t *Transaction) Outputs() []Output { return append([]Output(nil), t.outputs...) }

// NumInputs returns the number of inputs.
func (t *Transaction) NumInputs() int { return len(t.inputs) }

// IsCoinbase reports whether the transaction has no inputs.
func (t *Transaction) IsCoinbase() bool { return len(t.inputs) == 0 }

// Serialize returns the canonical string the ID is computed over.
// Format: [txid index signature]... [amount address]... timestamp
func (t *Transaction) Serialize() string {
	var sb strings.Builder
	for _, in := range t.inputs {
		sb.WriteString(in.TxID)
		sb.WriteString(strconv.Itoa(in.Index))
		sb.WriteString(in.Signature)
	}
	for _, out := range t.outputs {
		sb.WriteString(strconv.FormatInt(out.Amount, 10))
		sb.WriteString(out.Address)
	}
	sb.WriteString(strconv.FormatInt(t.timestamp, 10))
	return sb.String()
}

// TotalOutput returns the sum of all output amounts.
// Returns an error if the sum overflows int64.
func (t *Transaction) TotalOutput() (int64, error) {
	var total int64
	for _, out := range t.outputs {
		if out.Amount > 0 && total > math.MaxInt64-out.Amount {
			return 0, fmt.Errorf("output amount overflow")
		}
		total += out.Amount
	}
	return total, nil
}

// txJSON is the external representation of a transaction.
type txJSON struct {
	TxID      string   `json:"txid"`
	Timestamp int64    `json:"timestamp"`
	Inputs    []Input  `json:"inputs"`
	Outputs   []Output `json:"outputs"`
}

// MarshalJSON encodes the transaction with its ID.
func (t *Transaction) MarshalJSON() ([]byte, error) {
	j := txJSON{
		TxID:      t.txid,
		Timestamp: t.timestamp,
		Inputs:    t.inputs,
		Outputs:   t.outputs,
	}
	if j.Inputs == nil {
		j.Inputs = []Input{}
	}
	if j.Outputs == nil {
		j.Outputs = []Output{}
	}
	return json.Marshal(j)
}

// UnmarshalJSON decodes a transaction. The declared ID is kept as is;
// use VerifyID to check it against the content.
func (t *Transaction) UnmarshalJSON(data []byte) error {
	var j txJSON
	if err := json.Unmarshal(data, &j); err != nil {
		return err
	}
	t.inputs = j.Inputs
	t.outputs = j.Outputs
	t.timestamp = j.Timestamp
	t.txid = j.TxID
	return nil
}

// VerifyID reports whether the stored ID matches the serialized content.
func (t *Transaction) VerifyID() bool {
	return t.txid == crypto.HashHex(t.Serialize())
}
