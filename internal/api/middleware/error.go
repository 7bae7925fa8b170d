// Package middleware provides HTTP middleware for the API.
package middleware

import (
	"encoding/json"
	"log"
	"net/http"
	"runtime/debug"
)

// ErrorResponse represents a standardized API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// WriteError writes a JSON error response with the given status code.
func WriteError(w http.ResponseWriter, status int, errCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
	})
}

// WriteErrorWithDetails writes a JSON error response with additional details.
func WriteErrorWithDetails(w http.ResponseWriter, status int, errCode, message string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Error:   errCode,
		Message: message,
		Details: details,
	})
}

// ErrorRecovery is middleware that recovers from panics and returns a 500 error.
func ErrorRecovery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("Panic recovered: %v\n%s", err, debug.Stack())
				WriteError(w, http.StatusInternalServerError, ErrInternalError, "An unexpected error occurred")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// Error codes, one per rejected precondition so UIs can render a specific
// message for each failure.
const (
	ErrBadRequest            = "bad_request"
	ErrValidation            = "validation_error"
	ErrInvalidDuration       = "invalid_duration"
	ErrNotAuthorized         = "not_authorized"
	ErrNotOwner              = "not_owner"
	ErrNotFound              = "not_found"
	ErrNotAvailable          = "not_available"
	ErrNotRented             = "not_rented"
	ErrAlreadyListed         = "already_listed"
	ErrRentalActive          = "rental_active"
	ErrInsufficientPayment   = "insufficient_payment"
	ErrCustodyTransferFailed = "custody_transfer_failed"
	ErrInternalError         = "internal_error"
)
