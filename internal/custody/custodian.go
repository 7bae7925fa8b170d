// Package custody integrates with the asset custodian that holds and moves
// NFTs between accounts on behalf of the marketplace.
package custody

import (
	"context"
	"errors"
	"time"

	"github.com/nft-rental-marketplace/backend/internal/storage/models"
)

// ErrNotAuthorized is returned when the presumed owner does not control the
// asset or has not approved the marketplace vault to move it.
var ErrNotAuthorized = errors.New("caller does not control the asset or has not approved the marketplace")

// ErrTransferRejected is returned when the custodian refuses or reverts a
// transfer. Callers must treat it as fatal to the whole operation.
var ErrTransferRejected = errors.New("custody transfer rejected")

// Receipt documents a completed custody transfer.
type Receipt struct {
	ID    string          `json:"id"`
	From  models.Address  `json:"from"`
	To    models.Address  `json:"to"`
	Asset models.AssetRef `json:"asset"`
	At    time.Time       `json:"at"`
}

// Custodian is the capability the ledger needs from the asset custody layer.
// Implementations must make Transfer all-or-nothing: on error, custody has
// not moved.
type Custodian interface {
	// VerifyApproval checks that owner currently controls the asset and has
	// authorized the marketplace vault to take custody of it.
	VerifyApproval(ctx context.Context, owner models.Address, asset models.AssetRef) error

	// Transfer moves custody of the asset between two accounts.
	Transfer(ctx context.Context, from, to models.Address, asset models.AssetRef) (*Receipt, error)

	// VaultAddress returns the account under which the marketplace holds
	// custodied assets.
	VaultAddress() models.Address
}
