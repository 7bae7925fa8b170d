package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/nft-rental-marketplace/backend/internal/storage/models"
)

const listingColumns = `id, nft_contract, token_id, lister, price_per_day,
	max_duration_days, status, renter, rental_end_time, created_at, updated_at`

// ListingRepository provides data access for listings.
type ListingRepository struct {
	BaseRepository
}

// NewListingRepository creates a new listing repository.
func NewListingRepository(db *DB) *ListingRepository {
	return &ListingRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// IsDuplicateAsset reports whether err is the unique-index violation raised
// when a second listing is created for an asset the marketplace already holds.
func IsDuplicateAsset(err error) bool {
	return err != nil && strings.Contains(err.Error(), "idx_listings_asset")
}

// Create inserts a new listing and assigns its monotonic id.
// q may be a transaction so the insert commits together with the custody
// transfer verification.
func (r *ListingRepository) Create(ctx context.Context, q Queryable, l *models.Listing) error {
	l.CreatedAt = r.Now()
	l.UpdatedAt = l.CreatedAt
	if l.Renter == "" {
		l.Renter = models.ZeroAddress
	}

	res, err := q.ExecContext(ctx, `
		INSERT INTO listings (
			nft_contract, token_id, lister, price_per_day, max_duration_days,
			status, renter, rental_end_time, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		l.NFTContract, l.TokenID, l.Lister, l.PricePerDay, l.MaxDurationDays,
		l.Status, l.Renter, l.RentalEndTime, l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting listing: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading listing id: %w", err)
	}
	l.ID = id

	return nil
}

// GetByID retrieves a listing by id, or (nil, nil) if it does not exist.
func (r *ListingRepository) GetByID(ctx context.Context, id int64) (*models.Listing, error) {
	return r.getByID(ctx, r.DB(), id)
}

// GetByIDTx is GetByID executed against a transaction, used to re-check
// listing state under the per-listing lock before mutating it.
func (r *ListingRepository) GetByIDTx(ctx context.Context, q Queryable, id int64) (*models.Listing, error) {
	return r.getByID(ctx, q, id)
}

func (r *ListingRepository) getByID(ctx context.Context, q Queryable, id int64) (*models.Listing, error) {
	l := &models.Listing{}

	err := q.QueryRowContext(ctx, `
		SELECT `+listingColumns+`
		FROM listings WHERE id = ?
	`, id).Scan(
		&l.ID, &l.NFTContract, &l.TokenID, &l.Lister, &l.PricePerDay,
		&l.MaxDurationDays, &l.Status, &l.Renter, &l.RentalEndTime,
		&l.CreatedAt, &l.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying listing: %w", err)
	}

	return l, nil
}

// ListAvailable retrieves all Available listings in ascending id order.
// The ordering is part of the query contract: callers see a stable sequence
// for a given ledger state.
func (r *ListingRepository) ListAvailable(ctx context.Context) ([]models.Listing, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+listingColumns+`
		FROM listings
		WHERE status = ?
		ORDER BY id
	`, models.StatusAvailable)
	if err != nil {
		return nil, fmt.Errorf("querying available listings: %w", err)
	}
	defer rows.Close()

	return r.scanListings(rows)
}

// ListByLister retrieves all listings created by the given account.
func (r *ListingRepository) ListByLister(ctx context.Context, lister models.Address) ([]models.Listing, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+listingColumns+`
		FROM listings
		WHERE lister = ?
		ORDER BY id
	`, lister)
	if err != nil {
		return nil, fmt.Errorf("querying listings by lister: %w", err)
	}
	defer rows.Close()

	return r.scanListings(rows)
}

// ListByRenter retrieves all listings currently rented by the given account.
// Rentals whose window has lapsed stay included until the owner reclaims,
// so the renter's UI can show them as expired.
func (r *ListingRepository) ListByRenter(ctx context.Context, renter models.Address) ([]models.Listing, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+listingColumns+`
		FROM listings
		WHERE renter = ? AND status = ?
		ORDER BY id
	`, renter, models.StatusRented)
	if err != nil {
		return nil, fmt.Errorf("querying listings by renter: %w", err)
	}
	defer rows.Close()

	return r.scanListings(rows)
}

// ListExpired retrieves Rented listings whose rental window lapsed at or
// before the given Unix time and that have not been reclaimed yet.
func (r *ListingRepository) ListExpired(ctx context.Context, now int64) ([]models.Listing, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+listingColumns+`
		FROM listings
		WHERE status = ? AND rental_end_time <= ?
		ORDER BY rental_end_time
	`, models.StatusRented, now)
	if err != nil {
		return nil, fmt.Errorf("querying expired rentals: %w", err)
	}
	defer rows.Close()

	return r.scanListings(rows)
}

// MarkRented transitions a listing to Rented with the given renter and
// rental end time.
func (r *ListingRepository) MarkRented(ctx context.Context, q Queryable, id int64, renter models.Address, endTime int64) error {
	return r.setRentalState(ctx, q, id, models.StatusRented, renter, endTime)
}

// MarkAvailable transitions a listing back to Available, clearing the
// renter and rental end time.
func (r *ListingRepository) MarkAvailable(ctx context.Context, q Queryable, id int64) error {
	return r.setRentalState(ctx, q, id, models.StatusAvailable, models.ZeroAddress, 0)
}

func (r *ListingRepository) setRentalState(ctx context.Context, q Queryable, id int64, status models.ListingStatus, renter models.Address, endTime int64) error {
	result, err := q.ExecContext(ctx, `
		UPDATE listings SET status = ?, renter = ?, rental_end_time = ?, updated_at = ?
		WHERE id = ?
	`, status, renter, endTime, r.Now(), id)
	if err != nil {
		return fmt.Errorf("updating listing state: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("listing not found: %d", id)
	}

	return nil
}

// Delete removes a delisted listing. The id is never reassigned.
func (r *ListingRepository) Delete(ctx context.Context, q Queryable, id int64) error {
	result, err := q.ExecContext(ctx, "DELETE FROM listings WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting listing: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("listing not found: %d", id)
	}

	return nil
}

// CountByStatus returns the number of Available and Rented listings.
func (r *ListingRepository) CountByStatus(ctx context.Context) (available, rented int, err error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT status, COUNT(*) FROM listings GROUP BY status
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("counting listings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status models.ListingStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return 0, 0, fmt.Errorf("scanning listing count: %w", err)
		}
		switch status {
		case models.StatusAvailable:
			available = count
		case models.StatusRented:
			rented = count
		}
	}

	return available, rented, rows.Err()
}

func (r *ListingRepository) scanListings(rows *sql.Rows) ([]models.Listing, error) {
	var listings []models.Listing
	for rows.Next() {
		var l models.Listing
		if err := rows.Scan(
			&l.ID, &l.NFTContract, &l.TokenID, &l.Lister, &l.PricePerDay,
			&l.MaxDurationDays, &l.Status, &l.Renter, &l.RentalEndTime,
			&l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning listing: %w", err)
		}
		listings = append(listings, l)
	}
	return listings, rows.Err()
}
