package utxo

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"sort"

	"github.com/Klingon-tech/utxoledger/pkg/crypto"
)

// Commitment computes a BLAKE3 digest over all UTXOs in the store.
// Each UTXO is hashed deterministically, the hashes are sorted and the
// digest covers their concatenation. Returns "" for an empty set.
func Commitment(store *Store) (string, error) {
	var hashes [][32]byte

	err := store.ForEach(func(u *UTXO) error {
		hashes = append(hashes, hashUTXO(u))
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("utxo commitment: %w", err)
	}

	if len(hashes) == 0 {
		return "", nil
	}

	sort.Slice(hashes, func(i, j int) bool {
		return bytes.Compare(hashes[i][:], hashes[j][:]) < 0
	})

	buf := make([]byte, 0, len(hashes)*32)
	for _, h := range hashes {
		buf = append(buf, h[:]...)
	}
	root := crypto.Blake3(buf)
	return hex.EncodeToString(root[:]), nil
}

// hashUTXO produces a deterministic BLAKE3 hash of a UTXO.
// Format: len(txid)(4) | txid | index(8) | amount(8) | address
func hashUTXO(u *UTXO) [32]byte {
	var buf []byte
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(u.TxID)))
	buf = append(buf, u.TxID...)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(u.Index))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(u.Amount))
	buf = append(buf, u.Address...)
	return crypto.Blake3(buf)
}
