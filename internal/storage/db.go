// Package storage provides the key-value backends behind the UTXO set.
package storage

import "errors"

// ErrNotFound is returned by Get when a key does not exist.
var ErrNotFound = errors.New("key not found")

// Reader is the read side of a DB or transaction.
type Reader interface {
	Get(key []byte) ([]byte, error)
	Has(key []byte) (bool, error)
}

// Txn is a read-write view used inside Update. Writes become visible
// to other callers only when the Update function returns nil.
type Txn interface {
	Reader
	Put(key, value []byte) error
	Delete(key []byte) error
}

// DB is the interface for key-value storage.
type DB interface {
	Reader
	Put(key, value []byte) error
	Delete(key []byte) error
	// ForEach iterates over all keys with the given prefix in ascending
	// byte order. The callback receives a copy of the key and value.
	// Return a non-nil error from fn to stop iteration early.
	ForEach(prefix []byte, fn func(key, value []byte) error) error
	// Update runs fn in a single atomic transaction. If fn returns an
	// error nothing it wrote is kept.
	Update(fn func(txn Txn) error) error
	Close() error
}
