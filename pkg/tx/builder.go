package tx

import "time"

// Builder constructs transactions incrementally.
type Builder struct {
	inputs    []Input
	outputs   []Output
	timestamp int64
}

// NewBuilder creates a new transaction builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// AddInput adds an input referencing a previous output.
func (b *Builder) AddInput(txid string, index int, signature string) *Builder {
	b.inputs = append(b.inputs, Input{TxID: txid, Index: index, Signature: signature})
	return b
}

// AddOutput adds an output paying amount to address.
func (b *Builder) AddOutput(amount int64, address string) *Builder {
	b.outputs = append(b.outputs, Output{Amount: amount, Address: address})
	return b
}

// SetTimestamp pins the transaction timestamp. Zero means "now" at Build.
func (b *Builder) SetTimestamp(ts int64) *Builder {
	b.timestamp = ts
	return b
}

// Build returns the constructed transaction.
// Does NOT validate, call tx.Validate() separately.
func (b *Builder) Build() *Transaction {
	ts := b.timestamp
	if ts == 0 {
		ts = time.Now().Unix()
	}
	return NewAt(b.inputs, b.outputs, ts)
}
