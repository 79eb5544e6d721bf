package ledger

import (
	"encoding/hex"
	"fmt"
	"strconv"

	"github.com/Klingon-tech/utxoledger/internal/mempool"
	"github.com/Klingon-tech/utxoledger/pkg/crypto"
	"github.com/Klingon-tech/utxoledger/pkg/tx"
)

// SigningMessage is the message a sender signs to authorize a transfer.
func SigningMessage(from, to string, amount int64) string {
	return from + to + strconv.FormatInt(amount, 10)
}

// CreateTransaction selects confirmed outputs of from covering amount,
// builds a transaction paying to and returning change to from, and queues
// it. signature is stored on every input without being checked.
//
// Selection only sees confirmed outputs, so two admissions before the
// next block may pick the same outputs.
func (l *Ledger) CreateTransaction(from, to string, amount int64, signature string) (*tx.Transaction, error) {
	if l.requireSigs {
		l.reject("unsigned")
		return nil, ErrSignatureRequired
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return l.admit(from, to, amount, signature)
}

// CreateSignedTransaction admits a transfer authorized by a Schnorr
// signature over SigningMessage(from, to, amount). pubKeyHex must be the
// compressed public key whose address is from.
func (l *Ledger) CreateSignedTransaction(from, to string, amount int64, sigHex, pubKeyHex string) (*tx.Transaction, error) {
	pub, err := hex.DecodeString(pubKeyHex)
	if err != nil {
		l.reject("bad_pubkey")
		return nil, fmt.Errorf("%w: decode public key: %v", ErrBadSignature, err)
	}
	if crypto.AddressFromPubKey(pub) != from {
		l.reject("address_mismatch")
		return nil, ErrAddressMismatch
	}
	if !l.verifier.VerifyMessage(pubKeyHex, SigningMessage(from, to, amount), sigHex) {
		l.reject("bad_signature")
		return nil, ErrBadSignature
	}

	l.writeMu.Lock()
	defer l.writeMu.Unlock()
	return l.admit(from, to, amount, sigHex)
}

// CreateCoinbase builds a reward transaction for miner stamped with the
// current time. It is not queued or applied.
func (l *Ledger) CreateCoinbase(miner string) *tx.Transaction {
	return l.miner.CoinbaseNow(miner)
}

// admit must be called with writeMu held.
func (l *Ledger) admit(from, to string, amount int64, signature string) (*tx.Transaction, error) {
	if amount <= 0 {
		l.reject("insufficient_balance")
		return nil, fmt.Errorf("%w: amount %d", ErrInsufficientBalance, amount)
	}

	selected, total, ok, err := l.utxos.SelectSpendable(from, amount)
	if err != nil {
		return nil, fmt.Errorf("select outputs: %w", err)
	}
	if !ok {
		l.reject("insufficient_balance")
		return nil, fmt.Errorf("%w: %s has %d, needs %d", ErrInsufficientBalance, from, total, amount)
	}

	b := tx.NewBuilder()
	for _, u := range selected {
		b.AddInput(u.TxID, u.Index, signature)
	}
	b.AddOutput(amount, to)
	if change := total - amount; change > 0 {
		b.AddOutput(change, from)
	}
	transaction := b.Build()

	err = l.pool.Add(&mempool.Entry{
		Tx:       transaction,
		From:     from,
		Selected: selected,
	})
	if err != nil {
		l.reject("mempool")
		return nil, fmt.Errorf("add to mempool: %w", err)
	}

	l.logger.Debug().
		Str("txid", transaction.ID()).
		Str("from", from).
		Str("to", to).
		Int64("amount", amount).
		Int("inputs", len(selected)).
		Msg("Transaction admitted")
	if l.observer != nil {
		l.observer.TxAdmitted()
	}
	l.notifyState()
	return transaction, nil
}

func (l *Ledger) reject(reason string) {
	if l.observer != nil {
		l.observer.TxRejected(reason)
	}
}
