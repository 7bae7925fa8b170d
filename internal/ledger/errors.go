package ledger

import (
	"errors"
)

// Every rejected precondition maps to one of these sentinels so the API
// layer can surface a specific error code instead of a generic failure.
// Match with errors.Is; operations wrap them with context.
var (
	// ErrInvalidParameters rejects malformed input: non-positive price or
	// max duration, invalid addresses.
	ErrInvalidParameters = errors.New("invalid parameters")

	// ErrInvalidDuration rejects a rental duration outside 1..max_duration_days.
	ErrInvalidDuration = errors.New("invalid rental duration")

	// ErrNotAuthorized rejects callers lacking custody or approval over the
	// asset, and self-rental by the lister.
	ErrNotAuthorized = errors.New("not authorized")

	// ErrNotFound rejects operations on unknown listing ids.
	ErrNotFound = errors.New("listing not found")

	// ErrNotAvailable rejects operations requiring an Available listing when
	// it is currently rented.
	ErrNotAvailable = errors.New("listing not available")

	// ErrNotRented rejects reclaim of a listing with no active rental.
	ErrNotRented = errors.New("listing not rented")

	// ErrAlreadyListed rejects a second listing for an asset the marketplace
	// already holds under an open listing.
	ErrAlreadyListed = errors.New("asset already listed")

	// ErrRentalActive rejects reclaim before the rental window has lapsed.
	ErrRentalActive = errors.New("rental still active")

	// ErrNotOwner rejects owner-only operations from other callers.
	ErrNotOwner = errors.New("caller is not the lister")

	// ErrInsufficientPayment rejects rent calls paying less than
	// price_per_day * duration_days.
	ErrInsufficientPayment = errors.New("insufficient payment")

	// ErrCustodyTransferFailed wraps a custodian rejection. The operation is
	// rolled back in full; no state change is applied.
	ErrCustodyTransferFailed = errors.New("custody transfer failed")
)
