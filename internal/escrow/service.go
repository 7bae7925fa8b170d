// Package escrow implements the value-transfer side of the marketplace:
// rental payments held for listers and overpayment refunds held for renters.
package escrow

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nft-rental-marketplace/backend/internal/storage"
	"github.com/nft-rental-marketplace/backend/internal/storage/models"
)

// Service records and releases escrowed value.
type Service struct {
	db   *storage.DB
	repo *storage.EscrowRepository
}

// NewService creates a new escrow service.
func NewService(db *storage.DB, repo *storage.EscrowRepository) *Service {
	return &Service{db: db, repo: repo}
}

// HoldPayment records a rental payment inside the caller's transaction:
// the required amount becomes proceeds held for the lister, any excess over
// the required amount becomes a refund held for the renter.
func (s *Service) HoldPayment(ctx context.Context, q storage.Queryable, listing *models.Listing, renter models.Address, required, paid models.Amount) error {
	if err := s.repo.Create(ctx, q, &models.EscrowEntry{
		ListingID: listing.ID,
		Payer:     renter,
		Payee:     listing.Lister,
		Amount:    required,
		Kind:      models.EscrowKindProceeds,
		Status:    models.EscrowStatusHeld,
	}); err != nil {
		return fmt.Errorf("holding proceeds: %w", err)
	}

	excess, err := paid.Sub(required)
	if err != nil {
		return fmt.Errorf("computing overpayment: %w", err)
	}
	if excess.IsZero() {
		return nil
	}

	if err := s.repo.Create(ctx, q, &models.EscrowEntry{
		ListingID: listing.ID,
		Payer:     renter,
		Payee:     renter,
		Amount:    excess,
		Kind:      models.EscrowKindRefund,
		Status:    models.EscrowStatusHeld,
	}); err != nil {
		return fmt.Errorf("holding refund: %w", err)
	}

	return nil
}

// Balance returns the total held value payable to the account.
func (s *Service) Balance(ctx context.Context, account models.Address) (models.Amount, error) {
	entries, err := s.repo.ListHeldByPayee(ctx, s.db, account)
	if err != nil {
		return models.Amount{}, err
	}
	return sumEntries(entries), nil
}

// Withdraw releases every held entry payable to the account and returns the
// released total. Withdrawing with nothing held releases zero and is not an
// error.
func (s *Service) Withdraw(ctx context.Context, account models.Address) (models.Amount, error) {
	var total models.Amount

	err := s.db.Transaction(func(tx *sql.Tx) error {
		entries, err := s.repo.ListHeldByPayee(ctx, tx, account)
		if err != nil {
			return err
		}
		total = sumEntries(entries)

		return s.repo.ReleaseByPayee(ctx, tx, account)
	})
	if err != nil {
		return models.Amount{}, fmt.Errorf("withdrawing escrow for %s: %w", account, err)
	}

	return total, nil
}

func sumEntries(entries []models.EscrowEntry) models.Amount {
	var total models.Amount
	for _, e := range entries {
		total = total.Add(e.Amount)
	}
	return total
}
