package rpc

import (
	"github.com/Klingon-tech/utxoledger/internal/utxo"
	"github.com/Klingon-tech/utxoledger/pkg/tx"
)

// JSON-RPC 2.0 error codes.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
	CodeNotFound       = -32000

	CodeInsufficientBalance = -32001
	CodeRejected            = -32002
	CodeMiningAborted       = -32003
)

// Request is a JSON-RPC 2.0 request.
type Request struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params"`
	ID      interface{} `json:"id"`
}

// Response is a JSON-RPC 2.0 response.
type Response struct {
	JSONRPC string      `json:"jsonrpc"`
	Result  interface{} `json:"result,omitempty"`
	Error   *Error      `json:"error,omitempty"`
	ID      interface{} `json:"id"`
}

// Error is a JSON-RPC 2.0 error object.
type Error struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ── Param types ─────────────────────────────────────────────────────────

// IndexParam is used by chain_getBlockByIndex.
type IndexParam struct {
	Index int64 `json:"index"`
}

// AddressParam is used by utxo_getBalance and utxo_list.
type AddressParam struct {
	Address string `json:"address"`
}

// TxCreateParam is used by tx_create.
type TxCreateParam struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    int64  `json:"amount"`
	Signature string `json:"signature"`
}

// TxCreateSignedParam is used by tx_createSigned. Signature must cover
// from+to+amount and verify under PublicKey.
type TxCreateSignedParam struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    int64  `json:"amount"`
	Signature string `json:"signature"`
	PublicKey string `json:"public_key"`
}

// MineParam is used by mining_mine.
type MineParam struct {
	Miner string `json:"miner"`
}

// WalletCreateParam is used by wallet_create.
type WalletCreateParam struct {
	Mnemonic bool `json:"mnemonic"`
}

// WalletImportParam is used by wallet_import. Either PrivateKey or
// Mnemonic must be set.
type WalletImportParam struct {
	PrivateKey string `json:"private_key,omitempty"`
	Mnemonic   string `json:"mnemonic,omitempty"`
	Passphrase string `json:"passphrase,omitempty"`
	Account    uint32 `json:"account,omitempty"`
	Index      uint32 `json:"index,omitempty"`
}

// ── Result types ────────────────────────────────────────────────────────

// BalanceResult is returned by utxo_getBalance and GET /balance.
type BalanceResult struct {
	Address string `json:"address"`
	Balance int64  `json:"balance"`
}

// UTXOListResult is returned by utxo_list.
type UTXOListResult struct {
	Address string       `json:"address"`
	UTXOs   []*utxo.UTXO `json:"utxos"`
}

// ValidResult is returned by chain_isValid and GET /valid.
type ValidResult struct {
	Valid bool `json:"valid"`
}

// MempoolContentResult is returned by mempool_getContent.
type MempoolContentResult struct {
	Count        int               `json:"count"`
	Transactions []*tx.Transaction `json:"transactions"`
}

// WalletResult is returned by wallet_create and wallet_import.
type WalletResult struct {
	PrivateKey string `json:"private_key"`
	PublicKey  string `json:"public_key"`
	Address    string `json:"address"`
	Mnemonic   string `json:"mnemonic,omitempty"`
}

// ── REST bodies ─────────────────────────────────────────────────────────

// TransactionRequest is the body of POST /transaction.
type TransactionRequest struct {
	Sender    string `json:"sender"`
	Receiver  string `json:"receiver"`
	Amount    int64  `json:"amount"`
	Signature string `json:"signature"`
}

// MineRequest is the body of POST /mine.
type MineRequest struct {
	Miner string `json:"miner"`
}

// PrivateKeyRequest is the body of POST /create_wallet_from_key.
type PrivateKeyRequest struct {
	PrivateKey string `json:"private_key"`
}

// SignedTxRequest is the body of POST /tx/create_signed.
type SignedTxRequest struct {
	PrivateKey string `json:"private_key"`
	From       string `json:"from"`
	To         string `json:"to"`
	Amount     int64  `json:"amount"`
}

// SignedTxResponse is the reply of POST /tx/create_signed.
type SignedTxResponse struct {
	Status    string          `json:"status"`
	Msg       string          `json:"msg,omitempty"`
	Tx        *tx.Transaction `json:"tx,omitempty"`
	PublicKey string          `json:"public_key,omitempty"`
	Signature string          `json:"signature,omitempty"`
}

// MineResponse is the reply of POST /mine.
type MineResponse struct {
	Status string      `json:"status"`
	Block  interface{} `json:"block"`
}
