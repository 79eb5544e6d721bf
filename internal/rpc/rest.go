package rpc

import (
	"errors"
	"net/http"

	"github.com/Klingon-tech/utxoledger/internal/ledger"
	"github.com/Klingon-tech/utxoledger/internal/wallet"
)

// insufficientBalanceMsg is the error body REST clients match on.
const insufficientBalanceMsg = "Insufficient balance"

type errorBody struct {
	Error string `json:"error"`
}

// restError maps a ledger error to an HTTP status and message.
// Insufficient balance is reported with 200, as browser clients expect.
func restError(err error) (int, string) {
	switch {
	case errors.Is(err, ledger.ErrInsufficientBalance):
		return http.StatusOK, insufficientBalanceMsg
	case errors.Is(err, ledger.ErrSignatureRequired),
		errors.Is(err, ledger.ErrBadSignature),
		errors.Is(err, ledger.ErrAddressMismatch):
		return http.StatusForbidden, err.Error()
	case errors.Is(err, ledger.ErrBlockNotFound):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusBadRequest, err.Error()
	}
}

func (s *Server) handleBlocks(w http.ResponseWriter, r *http.Request) {
	writeREST(w, http.StatusOK, s.ledger.Blocks())
}

func (s *Server) handleTransaction(w http.ResponseWriter, r *http.Request) {
	var req TransactionRequest
	if err := decodeBody(r, &req); err != nil {
		writeREST(w, http.StatusBadRequest, errorBody{err.Error()})
		return
	}
	if req.Sender == "" || req.Receiver == "" {
		writeREST(w, http.StatusBadRequest, errorBody{"sender and receiver are required"})
		return
	}
	if req.Signature == "" {
		req.Signature = "dummy"
	}

	t, err := s.ledger.CreateTransaction(req.Sender, req.Receiver, req.Amount, req.Signature)
	if err != nil {
		status, msg := restError(err)
		writeREST(w, status, errorBody{msg})
		return
	}
	writeREST(w, http.StatusOK, t)
}

func (s *Server) handleMine(w http.ResponseWriter, r *http.Request) {
	var req MineRequest
	if err := decodeBody(r, &req); err != nil {
		writeREST(w, http.StatusBadRequest, errorBody{err.Error()})
		return
	}
	if req.Miner == "" {
		req.Miner = DefaultMiner
	}

	ctx, cancel := s.requestContext(r)
	defer cancel()
	blk, err := s.ledger.MinePending(ctx, req.Miner)
	if err != nil {
		writeREST(w, http.StatusServiceUnavailable, errorBody{err.Error()})
		return
	}
	writeREST(w, http.StatusOK, MineResponse{Status: "success", Block: blk})
}

func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	addr := r.PathValue("address")
	bal, err := s.ledger.Balance(addr)
	if err != nil {
		writeREST(w, http.StatusInternalServerError, errorBody{err.Error()})
		return
	}
	writeREST(w, http.StatusOK, BalanceResult{Address: addr, Balance: bal})
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	writeREST(w, http.StatusOK, s.ledger.Pending())
}

func (s *Server) handleValid(w http.ResponseWriter, r *http.Request) {
	writeREST(w, http.StatusOK, ValidResult{Valid: s.ledger.IsValid()})
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	info, err := s.ledger.Info()
	if err != nil {
		writeREST(w, http.StatusInternalServerError, errorBody{err.Error()})
		return
	}
	writeREST(w, http.StatusOK, info)
}

func (s *Server) handleCreateWallet(w http.ResponseWriter, r *http.Request) {
	wl, err := wallet.Generate()
	if err != nil {
		writeREST(w, http.StatusInternalServerError, errorBody{err.Error()})
		return
	}
	writeREST(w, http.StatusOK, wl.Info())
}

func (s *Server) handleCreateWalletFromKey(w http.ResponseWriter, r *http.Request) {
	var req PrivateKeyRequest
	if err := decodeBody(r, &req); err != nil {
		writeREST(w, http.StatusBadRequest, errorBody{err.Error()})
		return
	}
	wl, err := wallet.FromPrivateKey(req.PrivateKey)
	if err != nil {
		writeREST(w, http.StatusBadRequest, errorBody{err.Error()})
		return
	}
	writeREST(w, http.StatusOK, wl.Info())
}

// handleCreateSigned signs from+to+amount with the supplied key and
// admits the transfer through the signed path.
func (s *Server) handleCreateSigned(w http.ResponseWriter, r *http.Request) {
	var req SignedTxRequest
	if err := decodeBody(r, &req); err != nil {
		writeREST(w, http.StatusBadRequest, SignedTxResponse{Status: "fail", Msg: err.Error()})
		return
	}
	wl, err := wallet.FromPrivateKey(req.PrivateKey)
	if err != nil {
		writeREST(w, http.StatusOK, SignedTxResponse{Status: "fail", Msg: err.Error()})
		return
	}
	defer wl.Zero()

	sig, err := wl.Sign(ledger.SigningMessage(req.From, req.To, req.Amount))
	if err != nil {
		writeREST(w, http.StatusOK, SignedTxResponse{Status: "fail", Msg: err.Error()})
		return
	}
	pub := wl.PublicKeyHex()

	t, err := s.ledger.CreateSignedTransaction(req.From, req.To, req.Amount, sig, pub)
	if err != nil {
		_, msg := restError(err)
		writeREST(w, http.StatusOK, SignedTxResponse{Status: "fail", Msg: msg})
		return
	}
	writeREST(w, http.StatusOK, SignedTxResponse{
		Status:    "success",
		Tx:        t,
		PublicKey: pub,
		Signature: sig,
	})
}
