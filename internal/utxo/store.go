package utxo

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Klingon-tech/utxoledger/internal/storage"
	"github.com/Klingon-tech/utxoledger/pkg/types"
)

// Key prefixes for the UTXO store.
var (
	prefixAddr  = []byte("a/") // a/<addrlen><addr><seq> -> UTXO JSON
	prefixOut   = []byte("o/") // o/<txid:index> -> address key
	prefixSpent = []byte("s/") // s/<txid:index> -> empty (tombstone)
	keySeq      = []byte("m/seq")
)

// Store implements Set backed by a storage.DB. Outputs of an address are
// kept under a monotonically increasing sequence number, so prefix
// iteration returns them in insertion order.
type Store struct {
	db storage.DB
}

// NewStore creates a new UTXO store backed by the given database.
func NewStore(db storage.DB) *Store {
	return &Store{db: db}
}

// addrPrefix builds "a/" + len(addr)(4) + addr. The length keeps one
// address from being a prefix of another.
func addrPrefix(addr string) []byte {
	key := make([]byte, 0, len(prefixAddr)+4+len(addr)+8)
	key = append(key, prefixAddr...)
	key = binary.BigEndian.AppendUint32(key, uint32(len(addr)))
	key = append(key, addr...)
	return key
}

// addrKey builds "a/" + len(addr)(4) + addr + seq(8).
func addrKey(addr string, seq uint64) []byte {
	return binary.BigEndian.AppendUint64(addrPrefix(addr), seq)
}

func outKey(op types.Outpoint) []byte {
	return append(append([]byte{}, prefixOut...), op.String()...)
}

func spentKey(op types.Outpoint) []byte {
	return append(append([]byte{}, prefixSpent...), op.String()...)
}

// Update runs fn with a Writer inside a single storage transaction.
// Either every Add and Spend made by fn is kept or none is.
func (s *Store) Update(fn func(w *Writer) error) error {
	return s.db.Update(func(txn storage.Txn) error {
		return fn(&Writer{txn: txn})
	})
}

// Add records a new output owned by address.
func (s *Store) Add(address, txid string, index int, amount int64) error {
	return s.Update(func(w *Writer) error {
		return w.Add(address, txid, index, amount)
	})
}

// Spend removes an output owned by address. Missing outputs are ignored.
func (s *Store) Spend(address, txid string, index int) error {
	return s.Update(func(w *Writer) error {
		return w.Spend(address, txid, index)
	})
}

// Get retrieves a UTXO by its outpoint.
func (s *Store) Get(op types.Outpoint) (*UTXO, error) {
	ak, err := s.db.Get(outKey(op))
	if err != nil {
		return nil, fmt.Errorf("utxo get %s: %w", op, err)
	}
	data, err := s.db.Get(ak)
	if err != nil {
		return nil, fmt.Errorf("utxo get %s: %w", op, err)
	}
	return decode(data)
}

// Has checks if a UTXO exists for the given outpoint.
func (s *Store) Has(op types.Outpoint) (bool, error) {
	return s.db.Has(outKey(op))
}

// List returns the outputs owned by address in insertion order.
func (s *Store) List(address string) ([]*UTXO, error) {
	var out []*UTXO
	err := s.forAddress(address, func(u *UTXO) (bool, error) {
		out = append(out, u)
		return true, nil
	})
	return out, err
}

// Balance sums the outputs owned by address. Unknown addresses have 0.
func (s *Store) Balance(address string) (int64, error) {
	var total int64
	err := s.forAddress(address, func(u *UTXO) (bool, error) {
		total += u.Amount
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// SelectSpendable walks the address's outputs in insertion order and
// stops as soon as the running total covers amount.
func (s *Store) SelectSpendable(address string, amount int64) ([]*UTXO, int64, bool, error) {
	if amount <= 0 {
		return nil, 0, false, nil
	}

	var (
		selected []*UTXO
		total    int64
	)
	err := s.forAddress(address, func(u *UTXO) (bool, error) {
		selected = append(selected, u)
		total += u.Amount
		return total < amount, nil
	})
	if err != nil {
		return nil, 0, false, err
	}
	if total < amount {
		return nil, 0, false, nil
	}
	return selected, total, true, nil
}

// ForEach iterates over all UTXOs in the store, grouped by address.
func (s *Store) ForEach(fn func(*UTXO) error) error {
	return s.db.ForEach(prefixAddr, func(_, value []byte) error {
		u, err := decode(value)
		if err != nil {
			return err
		}
		return fn(u)
	})
}

// Count returns the number of unspent outputs.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.ForEach(prefixAddr, func(_, _ []byte) error {
		n++
		return nil
	})
	return n, err
}

var errStop = errors.New("stop iteration")

// forAddress calls fn for each output of address until fn returns false.
func (s *Store) forAddress(address string, fn func(*UTXO) (bool, error)) error {
	err := s.db.ForEach(addrPrefix(address), func(_, value []byte) error {
		u, err := decode(value)
		if err != nil {
			return err
		}
		more, err := fn(u)
		if err != nil {
			return err
		}
		if !more {
			return errStop
		}
		return nil
	})
	if errors.Is(err, errStop) {
		return nil
	}
	return err
}

func decode(data []byte) (*UTXO, error) {
	var u UTXO
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("utxo unmarshal: %w", err)
	}
	return &u, nil
}

// Writer applies UTXO changes inside a storage transaction.
type Writer struct {
	txn storage.Txn
}

// Add inserts an output under address. Amounts <= 0 are ignored, and so
// is an outpoint that is already unspent or was spent before, which makes
// re-applying a block a no-op.
func (w *Writer) Add(address, txid string, index int, amount int64) error {
	if amount <= 0 {
		return nil
	}
	op := types.Outpoint{TxID: txid, Index: index}

	if ok, err := w.txn.Has(outKey(op)); err != nil || ok {
		return err
	}
	if ok, err := w.txn.Has(spentKey(op)); err != nil || ok {
		return err
	}

	seq, err := w.nextSeq()
	if err != nil {
		return err
	}
	data, err := json.Marshal(&UTXO{TxID: txid, Index: index, Amount: amount, Address: address})
	if err != nil {
		return fmt.Errorf("utxo marshal: %w", err)
	}
	ak := addrKey(address, seq)
	if err := w.txn.Put(ak, data); err != nil {
		return fmt.Errorf("utxo put: %w", err)
	}
	if err := w.txn.Put(outKey(op), ak); err != nil {
		return fmt.Errorf("utxo index put: %w", err)
	}
	return nil
}

// Spend removes the output (txid, index) if address owns it.
func (w *Writer) Spend(address, txid string, index int) error {
	op := types.Outpoint{TxID: txid, Index: index}
	ak, err := w.txn.Get(outKey(op))
	if errors.Is(err, storage.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("utxo spend: %w", err)
	}

	data, err := w.txn.Get(ak)
	if err != nil {
		return fmt.Errorf("utxo spend: %w", err)
	}
	u, err := decode(data)
	if err != nil {
		return err
	}
	if u.Address != address {
		return nil
	}

	if err := w.txn.Delete(ak); err != nil {
		return fmt.Errorf("utxo delete: %w", err)
	}
	if err := w.txn.Delete(outKey(op)); err != nil {
		return fmt.Errorf("utxo index delete: %w", err)
	}
	if err := w.txn.Put(spentKey(op), []byte{}); err != nil {
		return fmt.Errorf("utxo tombstone put: %w", err)
	}
	return nil
}

func (w *Writer) nextSeq() (uint64, error) {
	var seq uint64
	data, err := w.txn.Get(keySeq)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return 0, fmt.Errorf("utxo seq: %w", err)
	case len(data) == 8:
		seq = binary.BigEndian.Uint64(data)
	}
	seq++
	if err := w.txn.Put(keySeq, binary.BigEndian.AppendUint64(nil, seq)); err != nil {
		return 0, fmt.Errorf("utxo seq: %w", err)
	}
	return seq, nil
}

var _ Set = (*Store)(nil)
