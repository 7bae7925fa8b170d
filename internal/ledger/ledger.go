// Package ledger implements the rental state machine at the core of the
// marketplace: listing, renting, reclaiming and delisting NFTs, with the
// custody and payment effects of each transition applied all-or-nothing.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nft-rental-marketplace/backend/internal/custody"
	"github.com/nft-rental-marketplace/backend/internal/storage"
	"github.com/nft-rental-marketplace/backend/internal/storage/models"
)

// secondsPerDay converts whole rental days to the Unix-seconds rental window.
const secondsPerDay = 86400

// ValueTransfer is the capability the ledger needs from the payment side:
// record a rental payment (and any overpayment refund) inside the same
// transaction as the listing state change.
type ValueTransfer interface {
	HoldPayment(ctx context.Context, q storage.Queryable, listing *models.Listing, renter models.Address, required, paid models.Amount) error
}

// Ledger owns the authoritative listing state machine.
//
// Every mutating operation takes the per-listing lock, re-reads the row in a
// transaction, validates preconditions, performs the custody transfer, and
// only then commits. A custodian failure rolls the whole operation back.
type Ledger struct {
	db        *storage.DB
	listings  *storage.ListingRepository
	payments  ValueTransfer
	custodian custody.Custodian
	clock     Clock
	locks     *keyedMutex
}

// New creates a Ledger over the given collaborators.
func New(db *storage.DB, listings *storage.ListingRepository, payments ValueTransfer, custodian custody.Custodian, clock Clock) *Ledger {
	if clock == nil {
		clock = SystemClock()
	}
	return &Ledger{
		db:        db,
		listings:  listings,
		payments:  payments,
		custodian: custodian,
		clock:     clock,
		locks:     newKeyedMutex(),
	}
}

// Clock returns the ledger's time source.
func (l *Ledger) Clock() Clock {
	return l.clock
}

// List takes custody of the caller's asset and creates an Available listing.
// The caller must already hold the asset and have approved the marketplace
// vault to move it.
func (l *Ledger) List(ctx context.Context, caller models.Address, asset models.AssetRef, pricePerDay models.Amount, maxDurationDays int64) (*models.Listing, error) {
	if caller.IsZero() || asset.Contract.IsZero() {
		return nil, fmt.Errorf("%w: caller and asset contract are required", ErrInvalidParameters)
	}
	if pricePerDay.IsZero() {
		return nil, fmt.Errorf("%w: price per day must be positive", ErrInvalidParameters)
	}
	if maxDurationDays <= 0 {
		return nil, fmt.Errorf("%w: max duration must be positive", ErrInvalidParameters)
	}

	if err := l.custodian.VerifyApproval(ctx, caller, asset); err != nil {
		if errors.Is(err, custody.ErrNotAuthorized) {
			return nil, fmt.Errorf("%w: %s must hold and approve %s", ErrNotAuthorized, caller, asset.Key())
		}
		return nil, fmt.Errorf("verifying approval for %s: %w", asset.Key(), err)
	}

	listing := &models.Listing{
		NFTContract:     asset.Contract,
		TokenID:         asset.TokenID,
		Lister:          caller,
		PricePerDay:     pricePerDay,
		MaxDurationDays: maxDurationDays,
		Status:          models.StatusAvailable,
		Renter:          models.ZeroAddress,
	}

	err := l.db.Transaction(func(tx *sql.Tx) error {
		if err := l.listings.Create(ctx, tx, listing); err != nil {
			if storage.IsDuplicateAsset(err) {
				return fmt.Errorf("%w: %s", ErrAlreadyListed, asset.Key())
			}
			return err
		}

		if _, err := l.custodian.Transfer(ctx, caller, l.custodian.VaultAddress(), asset); err != nil {
			return fmt.Errorf("%w: taking custody of %s: %v", ErrCustodyTransferFailed, asset.Key(), err)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return listing, nil
}

// Rent pays for a rental and hands custody of the asset to the caller for
// the chosen duration. Overpayment is accepted; the excess is escrowed back
// to the caller as a refundable credit.
func (l *Ledger) Rent(ctx context.Context, caller models.Address, listingID int64, durationDays int64, payment models.Amount) (*models.Listing, error) {
	if caller.IsZero() {
		return nil, fmt.Errorf("%w: caller is required", ErrInvalidParameters)
	}

	l.locks.lock(listingID)
	defer l.locks.unlock(listingID)

	var listing *models.Listing

	err := l.db.Transaction(func(tx *sql.Tx) error {
		var err error
		listing, err = l.listings.GetByIDTx(ctx, tx, listingID)
		if err != nil {
			return err
		}
		if listing == nil {
			return fmt.Errorf("%w: id %d", ErrNotFound, listingID)
		}
		if listing.Status != models.StatusAvailable {
			return fmt.Errorf("%w: listing %d is rented until %d", ErrNotAvailable, listingID, listing.RentalEndTime)
		}
		if caller == listing.Lister {
			return fmt.Errorf("%w: lister cannot rent own listing %d", ErrNotAuthorized, listingID)
		}
		if durationDays < 1 || durationDays > listing.MaxDurationDays {
			return fmt.Errorf("%w: %d days, allowed 1..%d", ErrInvalidDuration, durationDays, listing.MaxDurationDays)
		}

		required := listing.TotalPrice(durationDays)
		if payment.Cmp(required) < 0 {
			return fmt.Errorf("%w: need %s, got %s", ErrInsufficientPayment, required, payment)
		}

		if err := l.payments.HoldPayment(ctx, tx, listing, caller, required, payment); err != nil {
			return err
		}

		if _, err := l.custodian.Transfer(ctx, l.custodian.VaultAddress(), caller, listing.Asset()); err != nil {
			return fmt.Errorf("%w: handing %s to renter: %v", ErrCustodyTransferFailed, listing.Asset().Key(), err)
		}

		endTime := l.clock.Now().Unix() + durationDays*secondsPerDay
		if err := l.listings.MarkRented(ctx, tx, listingID, caller, endTime); err != nil {
			return err
		}

		listing.Status = models.StatusRented
		listing.Renter = caller
		listing.RentalEndTime = endTime
		return nil
	})
	if err != nil {
		return nil, err
	}

	return listing, nil
}

// Reclaim returns an expired rental to the marketplace vault and makes the
// listing Available again. Only the lister may reclaim, and only once the
// rental window has lapsed.
func (l *Ledger) Reclaim(ctx context.Context, caller models.Address, listingID int64) (*models.Listing, error) {
	l.locks.lock(listingID)
	defer l.locks.unlock(listingID)

	var listing *models.Listing

	err := l.db.Transaction(func(tx *sql.Tx) error {
		var err error
		listing, err = l.listings.GetByIDTx(ctx, tx, listingID)
		if err != nil {
			return err
		}
		if listing == nil {
			return fmt.Errorf("%w: id %d", ErrNotFound, listingID)
		}
		if listing.Status != models.StatusRented {
			return fmt.Errorf("%w: listing %d has no rental to reclaim", ErrNotRented, listingID)
		}
		if caller != listing.Lister {
			return fmt.Errorf("%w: %s did not list %d", ErrNotOwner, caller, listingID)
		}
		if now := l.clock.Now().Unix(); now < listing.RentalEndTime {
			return fmt.Errorf("%w: listing %d rented until %d, now %d", ErrRentalActive, listingID, listing.RentalEndTime, now)
		}

		if _, err := l.custodian.Transfer(ctx, listing.Renter, l.custodian.VaultAddress(), listing.Asset()); err != nil {
			return fmt.Errorf("%w: reclaiming %s from renter: %v", ErrCustodyTransferFailed, listing.Asset().Key(), err)
		}

		if err := l.listings.MarkAvailable(ctx, tx, listingID); err != nil {
			return err
		}

		listing.Status = models.StatusAvailable
		listing.Renter = models.ZeroAddress
		listing.RentalEndTime = 0
		return nil
	})
	if err != nil {
		return nil, err
	}

	return listing, nil
}

// Delist removes an Available listing and returns custody of the asset to
// the lister. The listing id is never reused. A rented listing cannot be
// delisted by anyone; the owner must wait for expiry and reclaim first.
func (l *Ledger) Delist(ctx context.Context, caller models.Address, listingID int64) (*models.Listing, error) {
	l.locks.lock(listingID)
	defer l.locks.unlock(listingID)

	var listing *models.Listing

	err := l.db.Transaction(func(tx *sql.Tx) error {
		var err error
		listing, err = l.listings.GetByIDTx(ctx, tx, listingID)
		if err != nil {
			return err
		}
		if listing == nil {
			return fmt.Errorf("%w: id %d", ErrNotFound, listingID)
		}
		if listing.Status != models.StatusAvailable {
			return fmt.Errorf("%w: listing %d has an active rental", ErrNotAvailable, listingID)
		}
		if caller != listing.Lister {
			return fmt.Errorf("%w: %s did not list %d", ErrNotOwner, caller, listingID)
		}

		if _, err := l.custodian.Transfer(ctx, l.custodian.VaultAddress(), listing.Lister, listing.Asset()); err != nil {
			return fmt.Errorf("%w: returning %s to lister: %v", ErrCustodyTransferFailed, listing.Asset().Key(), err)
		}

		return l.listings.Delete(ctx, tx, listingID)
	})
	if err != nil {
		return nil, err
	}

	return listing, nil
}

// GetListing returns a single listing by id.
func (l *Ledger) GetListing(ctx context.Context, listingID int64) (*models.Listing, error) {
	listing, err := l.listings.GetByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing == nil {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, listingID)
	}
	return listing, nil
}

// AvailableListings returns all Available listings in ascending id order.
func (l *Ledger) AvailableListings(ctx context.Context) ([]models.Listing, error) {
	return l.listings.ListAvailable(ctx)
}

// UserListings returns all listings created by the account.
func (l *Ledger) UserListings(ctx context.Context, account models.Address) ([]models.Listing, error) {
	return l.listings.ListByLister(ctx, account)
}

// UserRentals returns the account's current rentals, including rentals whose
// window has lapsed but that the owner has not reclaimed yet.
func (l *Ledger) UserRentals(ctx context.Context, account models.Address) ([]models.Listing, error) {
	return l.listings.ListByRenter(ctx, account)
}
