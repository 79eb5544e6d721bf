package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Klingon-tech/utxoledger/internal/consensus"
	"github.com/Klingon-tech/utxoledger/internal/ledger"
	"github.com/Klingon-tech/utxoledger/internal/mempool"
	"github.com/Klingon-tech/utxoledger/internal/wallet"
)

// handleRPC is the HTTP handler for JSON-RPC requests.
func (s *Server) handleRPC(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, nil, CodeInvalidRequest, err.Error())
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, nil, CodeParseError, "invalid JSON")
		return
	}
	if req.JSONRPC != "2.0" {
		writeError(w, req.ID, CodeInvalidRequest, "jsonrpc must be \"2.0\"")
		return
	}

	result, rpcErr := s.dispatch(r, &req)
	if rpcErr != nil {
		writeJSON(w, Response{JSONRPC: "2.0", Error: rpcErr, ID: req.ID})
		return
	}
	writeJSON(w, Response{JSONRPC: "2.0", Result: result, ID: req.ID})
}

// dispatch routes a request to the appropriate handler.
func (s *Server) dispatch(r *http.Request, req *Request) (interface{}, *Error) {
	switch req.Method {
	case "chain_getInfo":
		return s.handleChainGetInfo(req)
	case "chain_getBlocks":
		return s.ledger.Blocks(), nil
	case "chain_getBlockByIndex":
		return s.handleChainGetBlockByIndex(req)
	case "chain_isValid":
		return &ValidResult{Valid: s.ledger.IsValid()}, nil
	case "tx_create":
		return s.handleTxCreate(req)
	case "tx_createSigned":
		return s.handleTxCreateSigned(req)
	case "mempool_getContent":
		txs := s.ledger.Pending()
		return &MempoolContentResult{Count: len(txs), Transactions: txs}, nil
	case "utxo_getBalance":
		return s.handleUTXOGetBalance(req)
	case "utxo_list":
		return s.handleUTXOList(req)
	case "mining_mine":
		return s.handleMiningMine(r, req)
	case "wallet_create":
		return s.handleWalletCreate(req)
	case "wallet_import":
		return s.handleWalletImport(req)
	default:
		return nil, &Error{Code: CodeMethodNotFound, Message: fmt.Sprintf("method %q not found", req.Method)}
	}
}

// parseParams unmarshals the request params into the given target.
func parseParams(req *Request, target interface{}) *Error {
	if req.Params == nil {
		return &Error{Code: CodeInvalidParams, Message: "params required"}
	}
	data, err := json.Marshal(req.Params)
	if err != nil {
		return &Error{Code: CodeInvalidParams, Message: "invalid params"}
	}
	if err := json.Unmarshal(data, target); err != nil {
		return &Error{Code: CodeInvalidParams, Message: fmt.Sprintf("invalid params: %v", err)}
	}
	return nil
}

// ledgerError maps a ledger error to a JSON-RPC error object.
func ledgerError(err error) *Error {
	switch {
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return &Error{Code: CodeInsufficientBalance, Message: insufficientBalanceMsg}
	case errors.Is(err, ledger.ErrSignatureRequired),
		errors.Is(err, ledger.ErrBadSignature),
		errors.Is(err, ledger.ErrAddressMismatch),
		errors.Is(err, mempool.ErrConflict),
		errors.Is(err, mempool.ErrPoolFull),
		errors.Is(err, mempool.ErrValidation):
		return &Error{Code: CodeRejected, Message: err.Error()}
	case errors.Is(err, ledger.ErrBlockNotFound):
		return &Error{Code: CodeNotFound, Message: err.Error()}
	case errors.Is(err, consensus.ErrSealCancelled):
		return &Error{Code: CodeMiningAborted, Message: err.Error()}
	default:
		return &Error{Code: CodeInternalError, Message: err.Error()}
	}
}

// ── Chain endpoints ─────────────────────────────────────────────────────

func (s *Server) handleChainGetInfo(req *Request) (interface{}, *Error) {
	info, err := s.ledger.Info()
	if err != nil {
		return nil, ledgerError(err)
	}
	return info, nil
}

func (s *Server) handleChainGetBlockByIndex(req *Request) (interface{}, *Error) {
	var params IndexParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	blk, err := s.ledger.Block(params.Index)
	if err != nil {
		return nil, ledgerError(err)
	}
	return blk, nil
}

// ── Transaction endpoints ───────────────────────────────────────────────

func (s *Server) handleTxCreate(req *Request) (interface{}, *Error) {
	var params TxCreateParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.From == "" || params.To == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "from and to are required"}
	}
	t, err := s.ledger.CreateTransaction(params.From, params.To, params.Amount, params.Signature)
	if err != nil {
		return nil, ledgerError(err)
	}
	return t, nil
}

func (s *Server) handleTxCreateSigned(req *Request) (interface{}, *Error) {
	var params TxCreateSignedParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.From == "" || params.To == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "from and to are required"}
	}
	if params.Signature == "" || params.PublicKey == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "signature and public_key are required"}
	}
	t, err := s.ledger.CreateSignedTransaction(params.From, params.To, params.Amount, params.Signature, params.PublicKey)
	if err != nil {
		return nil, ledgerError(err)
	}
	return t, nil
}

// ── UTXO endpoints ──────────────────────────────────────────────────────

func (s *Server) handleUTXOGetBalance(req *Request) (interface{}, *Error) {
	var params AddressParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.Address == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "address is required"}
	}
	bal, err := s.ledger.Balance(params.Address)
	if err != nil {
		return nil, ledgerError(err)
	}
	return &BalanceResult{Address: params.Address, Balance: bal}, nil
}

func (s *Server) handleUTXOList(req *Request) (interface{}, *Error) {
	var params AddressParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}
	if params.Address == "" {
		return nil, &Error{Code: CodeInvalidParams, Message: "address is required"}
	}
	utxos, err := s.ledger.UTXOs(params.Address)
	if err != nil {
		return nil, ledgerError(err)
	}
	return &UTXOListResult{Address: params.Address, UTXOs: utxos}, nil
}

// ── Mining endpoints ────────────────────────────────────────────────────

func (s *Server) handleMiningMine(r *http.Request, req *Request) (interface{}, *Error) {
	var params MineParam
	if req.Params != nil {
		if err := parseParams(req, &params); err != nil {
			return nil, err
		}
	}
	if params.Miner == "" {
		params.Miner = DefaultMiner
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()
	blk, err := s.ledger.MinePending(ctx, params.Miner)
	if err != nil {
		return nil, ledgerError(err)
	}
	return blk, nil
}

// ── Wallet endpoints ────────────────────────────────────────────────────

func walletResult(w *wallet.Wallet, mnemonic string) *WalletResult {
	info := w.Info()
	return &WalletResult{
		PrivateKey: info.PrivateKey,
		PublicKey:  info.PublicKey,
		Address:    info.Address,
		Mnemonic:   mnemonic,
	}
}

func (s *Server) handleWalletCreate(req *Request) (interface{}, *Error) {
	var params WalletCreateParam
	if req.Params != nil {
		if err := parseParams(req, &params); err != nil {
			return nil, err
		}
	}

	if !params.Mnemonic {
		w, err := wallet.Generate()
		if err != nil {
			return nil, &Error{Code: CodeInternalError, Message: err.Error()}
		}
		return walletResult(w, ""), nil
	}

	mnemonic, err := wallet.GenerateMnemonic()
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	w, err := wallet.FromMnemonic(mnemonic, "", 0, 0)
	if err != nil {
		return nil, &Error{Code: CodeInternalError, Message: err.Error()}
	}
	return walletResult(w, mnemonic), nil
}

func (s *Server) handleWalletImport(req *Request) (interface{}, *Error) {
	var params WalletImportParam
	if err := parseParams(req, &params); err != nil {
		return nil, err
	}

	var (
		w   *wallet.Wallet
		err error
	)
	switch {
	case params.PrivateKey != "":
		w, err = wallet.FromPrivateKey(params.PrivateKey)
	case params.Mnemonic != "":
		w, err = wallet.FromMnemonic(params.Mnemonic, params.Passphrase, params.Account, params.Index)
	default:
		return nil, &Error{Code: CodeInvalidParams, Message: "private_key or mnemonic is required"}
	}
	if err != nil {
		return nil, &Error{Code: CodeInvalidParams, Message: err.Error()}
	}
	return walletResult(w, ""), nil
}
