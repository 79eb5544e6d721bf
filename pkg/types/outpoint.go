// Package types holds small value types shared across the ledger packages.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Outpoint references a specific output in a transaction.
type Outpoint struct {
	TxID  string `json:"txid"`
	Index int    `json:"index"`
}

// IsZero returns true if the outpoint has an empty TxID and zero index.
func (o Outpoint) IsZero() bool {
	return o.TxID == "" && o.Index == 0
}

// String returns "txid:index".
func (o Outpoint) String() string {
	return fmt.Sprintf("%s:%d", o.TxID, o.Index)
}

// ParseOutpoint parses the "txid:index" form produced by String.
func ParseOutpoint(s string) (Outpoint, error) {
	i := strings.LastIndexByte(s, ':')
	if i <= 0 || i == len(s)-1 {
		return Outpoint{}, fmt.Errorf("invalid outpoint %q", s)
	}
	idx, err := strconv.Atoi(s[i+1:])
	if err != nil || idx < 0 {
		return Outpoint{}, fmt.Errorf("invalid outpoint index in %q", s)
	}
	return Outpoint{TxID: s[:i], Index: idx}, nil
}
