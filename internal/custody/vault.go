package custody

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nft-rental-marketplace/backend/internal/storage/models"
)

// MemoryVault is an in-process Custodian used in dev mode and in tests.
// It tracks asset holders and vault approvals in memory with the same
// all-or-nothing transfer semantics as the external service.
type MemoryVault struct {
	mu        sync.Mutex
	vault     models.Address
	holders   map[string]models.Address // asset key -> current holder
	approvals map[string]bool           // asset key -> vault approved
}

// NewMemoryVault creates an empty in-process vault.
func NewMemoryVault(vault models.Address) *MemoryVault {
	return &MemoryVault{
		vault:     vault,
		holders:   make(map[string]models.Address),
		approvals: make(map[string]bool),
	}
}

// VaultAddress returns the marketplace vault account.
func (v *MemoryVault) VaultAddress() models.Address {
	return v.vault
}

// Mint assigns an asset to an owner. Dev/test seeding only.
func (v *MemoryVault) Mint(owner models.Address, asset models.AssetRef) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.holders[asset.Key()] = owner
}

// Approve authorizes the vault to move the asset on the owner's behalf.
func (v *MemoryVault) Approve(owner models.Address, asset models.AssetRef) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.holders[asset.Key()] != owner {
		return ErrNotAuthorized
	}
	v.approvals[asset.Key()] = true
	return nil
}

// Holder returns the current holder of the asset, or the zero address.
func (v *MemoryVault) Holder(asset models.AssetRef) models.Address {
	v.mu.Lock()
	defer v.mu.Unlock()

	holder, ok := v.holders[asset.Key()]
	if !ok {
		return models.ZeroAddress
	}
	return holder
}

// VerifyApproval checks ownership and vault approval.
func (v *MemoryVault) VerifyApproval(ctx context.Context, owner models.Address, asset models.AssetRef) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.holders[asset.Key()] != owner || !v.approvals[asset.Key()] {
		return ErrNotAuthorized
	}
	return nil
}

// Transfer moves custody of the asset from one account to another.
func (v *MemoryVault) Transfer(ctx context.Context, from, to models.Address, asset models.AssetRef) (*Receipt, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.holders[asset.Key()] != from {
		return nil, ErrTransferRejected
	}
	v.holders[asset.Key()] = to

	return &Receipt{
		ID:    uuid.NewString(),
		From:  from,
		To:    to,
		Asset: asset,
		At:    time.Now().UTC(),
	}, nil
}
