package api

import (
	"net/http"
	"strconv"

	"github.com/inkwell-network/inkwell/internal/domain"
)

// ─── Wallet Handlers ────────────────────────────────────────────────────────
// Balance and history are read-only views; deposits and withdrawals are the
// only direct mutations and go through the ledger like everything else.

// handleGetWallet returns the caller's wallet, creating it on first touch.
// GET /api/wallet
func (s *Server) handleGetWallet(w http.ResponseWriter, r *http.Request) {
	wallet, err := s.ledger.EnsureWallet(r.Context(), userID(r))
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

// handleGetLedger returns the caller's entry history, newest first.
// GET /api/wallet/ledger?limit=N
func (s *Server) handleGetLedger(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	entries, err := s.ledger.History(r.Context(), userID(r), limit)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
	})
}

type amountRequest struct {
	Amount domain.Money `json:"amount"`
}

// handleDeposit tops up the caller's wallet.
// POST /api/wallet/deposit
func (s *Server) handleDeposit(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if _, err := s.ledger.EnsureWallet(r.Context(), userID(r)); err != nil {
		s.writeDomainError(w, err)
		return
	}
	wallet, err := s.ledger.Deposit(r.Context(), userID(r), req.Amount)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}

// handleWithdraw removes funds from the caller's wallet.
// POST /api/wallet/withdraw
func (s *Server) handleWithdraw(w http.ResponseWriter, r *http.Request) {
	var req amountRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	wallet, err := s.ledger.Withdraw(r.Context(), userID(r), req.Amount)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wallet)
}
