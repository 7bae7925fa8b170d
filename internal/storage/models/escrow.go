package models

import (
	"time"
)

// Escrow entry kinds.
const (
	EscrowKindProceeds = "proceeds" // rental payment due to the lister
	EscrowKindRefund   = "refund"   // overpayment credited back to the renter
)

// Escrow entry statuses.
const (
	EscrowStatusHeld     = "held"
	EscrowStatusReleased = "released"
)

// EscrowEntry records value held by the marketplace on behalf of an account.
// Entries are written atomically with the rental state change that caused
// them and stay held until the payee withdraws.
type EscrowEntry struct {
	ID         string     `json:"id"`
	ListingID  int64      `json:"listing_id"`
	Payer      Address    `json:"payer"`
	Payee      Address    `json:"payee"`
	Amount     Amount     `json:"amount"`
	Kind       string     `json:"kind"`
	Status     string     `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	ReleasedAt *time.Time `json:"released_at,omitempty"`
}
