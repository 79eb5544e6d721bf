// Package crypto provides the hashing and signature primitives used by the ledger.
package crypto

import (
	"encoding/hex"

	sha256 "github.com/minio/sha256-simd"
	"github.com/zeebo/blake3"
)

// AddressLength is the number of hex characters in a derived address.
const AddressLength = 40

// Sum256 computes a SHA-256 hash of the input data.
func Sum256(data []byte) [32]byte {
	return sha256.Sum256(data)
}

// HashHex returns the lowercase hex SHA-256 of s. Block and transaction
// identifiers are produced with this function.
func HashHex(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}

// Blake3 computes a BLAKE3-256 hash of the input data.
func Blake3(data []byte) [32]byte {
	return blake3.Sum256(data)
}

// AddressFromPubKey derives an address from a serialized public key.
// Address = hex(SHA-256(hex(pubkey)))[:40].
func AddressFromPubKey(pubKey []byte) string {
	return HashHex(hex.EncodeToString(pubKey))[:AddressLength]
}
