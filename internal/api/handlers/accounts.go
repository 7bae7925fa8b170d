package handlers

import (
	"net/http"

	"github.com/nft-rental-marketplace/backend/internal/api/middleware"
	"github.com/nft-rental-marketplace/backend/internal/escrow"
	"github.com/nft-rental-marketplace/backend/internal/storage/models"
)

// BalanceResponse reports the value the marketplace currently holds for an
// account: lister proceeds plus overpayment refunds.
type BalanceResponse struct {
	Account models.Address `json:"account"`
	Held    models.Amount  `json:"held"`
}

// WithdrawResponse reports the released total after a withdrawal.
type WithdrawResponse struct {
	Account  models.Address `json:"account"`
	Released models.Amount  `json:"released"`
}

// GetBalance returns the escrow balance held for an account.
func GetBalance(svc *escrow.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := pathAddress(w, r)
		if !ok {
			return
		}

		held, err := svc.Balance(r.Context(), account)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to query escrow balance")
			return
		}

		writeJSON(w, http.StatusOK, BalanceResponse{Account: account, Held: held})
	}
}

// Withdraw releases everything held for the calling account. The caller must
// be the account being withdrawn from.
func Withdraw(svc *escrow.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerAddress(w, r)
		if !ok {
			return
		}
		account, ok := pathAddress(w, r)
		if !ok {
			return
		}
		if caller != account {
			middleware.WriteError(w, http.StatusForbidden, middleware.ErrNotAuthorized, "Accounts can only withdraw their own balance")
			return
		}

		released, err := svc.Withdraw(r.Context(), account)
		if err != nil {
			middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "Failed to withdraw escrow balance")
			return
		}

		writeJSON(w, http.StatusOK, WithdrawResponse{Account: account, Released: released})
	}
}
