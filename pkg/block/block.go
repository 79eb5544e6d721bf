// Package block defines block types and validation.
package block

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/Klingon-tech/utxoledger/pkg/crypto"
	"github.com/Klingon-tech/utxoledger/pkg/tx"
)

// GenesisPrevHash is the prev_hash of the block at index 0.
const GenesisPrevHash = "0"

// Block is a hash-linked batch of transactions sealed by proof-of-work.
type Block struct {
	Index        int64             `json:"index"`
	PrevHash     string            `json:"prev_hash"`
	Hash         string            `json:"hash"`
	Timestamp    int64             `json:"timestamp"`
	Nonce        uint64            `json:"nonce"`
	Difficulty   int               `json:"difficulty"`
	Transactions []*tx.Transaction `json:"transactions"`
}

// New creates an unsealed block stamped with the current unix time.
func New(index int64, prevHash string, txs []*tx.Transaction, difficulty int) *Block {
	return &Block{
		Index:        index,
		PrevHash:     prevHash,
		Timestamp:    time.Now().Unix(),
		Difficulty:   difficulty,
		Transactions: txs,
	}
}

// HashPrefix returns the nonce-independent part of the hashed string:
// index, prev_hash, timestamp and the txids in block order.
func (b *Block) HashPrefix() string {
	var sb strings.Builder
	sb.WriteString(strconv.FormatInt(b.Index, 10))
	sb.WriteString(b.PrevHash)
	sb.WriteString(strconv.FormatInt(b.Timestamp, 10))
	for _, t := range b.Transactions {
		sb.WriteString(t.ID())
	}
	return sb.String()
}

// HashWithNonce hashes a prefix from HashPrefix together with nonce.
func HashWithNonce(prefix string, nonce uint64) string {
	return crypto.HashHex(prefix + strconv.FormatUint(nonce, 10))
}

// ContentHash recomputes the block hash from its current fields.
func (b *Block) ContentHash() string {
	return HashWithNonce(b.HashPrefix(), b.Nonce)
}

// MeetsDifficulty reports whether hash starts with difficulty '0' characters.
func MeetsDifficulty(hash string, difficulty int) bool {
	if difficulty <= 0 {
		return true
	}
	if len(hash) < difficulty {
		return false
	}
	for i := 0; i < difficulty; i++ {
		if hash[i] != '0' {
			return false
		}
	}
	return true
}

// IsGenesis reports whether this is the first block of a chain.
func (b *Block) IsGenesis() bool {
	return b.Index == 0
}

// TxIDs returns the transaction IDs in block order.
func (b *Block) TxIDs() []string {
	ids := make([]string, len(b.Transactions))
	for i, t := range b.Transactions {
		ids[i] = t.ID()
	}
	return ids
}

// MarshalJSON always emits a transactions array, even for genesis.
func (b *Block) MarshalJSON() ([]byte, error) {
	type alias Block
	a := (*alias)(b)
	if a.Transactions == nil {
		cp := *a
		cp.Transactions = []*tx.Transaction{}
		return json.Marshal(&cp)
	}
	return json.Marshal(a)
}
