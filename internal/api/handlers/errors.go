// Package handlers provides HTTP request handlers for the API endpoints.
package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/nft-rental-marketplace/backend/internal/api/middleware"
	"github.com/nft-rental-marketplace/backend/internal/ledger"
	"github.com/nft-rental-marketplace/backend/internal/storage/models"
)

// callerHeader carries the acting account for command endpoints. Identity is
// explicit per request; the server keeps no ambient account state.
const callerHeader = "X-Account-Address"

// callerAddress extracts and validates the acting account from the request.
func callerAddress(w http.ResponseWriter, r *http.Request) (models.Address, bool) {
	raw := r.Header.Get(callerHeader)
	if raw == "" {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Missing "+callerHeader+" header")
		return "", false
	}

	addr, err := models.ParseAddress(raw)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid account address")
		return "", false
	}

	return addr, true
}

// writeLedgerError maps a ledger error to its HTTP status and error code.
func writeLedgerError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ledger.ErrInvalidParameters):
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, err.Error())
	case errors.Is(err, ledger.ErrInvalidDuration):
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrInvalidDuration, err.Error())
	case errors.Is(err, ledger.ErrNotAuthorized):
		middleware.WriteError(w, http.StatusForbidden, middleware.ErrNotAuthorized, err.Error())
	case errors.Is(err, ledger.ErrNotOwner):
		middleware.WriteError(w, http.StatusForbidden, middleware.ErrNotOwner, err.Error())
	case errors.Is(err, ledger.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, middleware.ErrNotFound, err.Error())
	case errors.Is(err, ledger.ErrNotAvailable):
		middleware.WriteError(w, http.StatusConflict, middleware.ErrNotAvailable, err.Error())
	case errors.Is(err, ledger.ErrNotRented):
		middleware.WriteError(w, http.StatusConflict, middleware.ErrNotRented, err.Error())
	case errors.Is(err, ledger.ErrAlreadyListed):
		middleware.WriteError(w, http.StatusConflict, middleware.ErrAlreadyListed, err.Error())
	case errors.Is(err, ledger.ErrRentalActive):
		middleware.WriteError(w, http.StatusConflict, middleware.ErrRentalActive, err.Error())
	case errors.Is(err, ledger.ErrInsufficientPayment):
		middleware.WriteError(w, http.StatusPaymentRequired, middleware.ErrInsufficientPayment, err.Error())
	case errors.Is(err, ledger.ErrCustodyTransferFailed):
		middleware.WriteError(w, http.StatusBadGateway, middleware.ErrCustodyTransferFailed, err.Error())
	default:
		log.Printf("Internal error: %v", err)
		middleware.WriteError(w, http.StatusInternalServerError, middleware.ErrInternalError, "An unexpected error occurred")
	}
}
