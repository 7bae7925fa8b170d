package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/nft-rental-marketplace/backend/internal/storage/models"
)

const escrowColumns = `id, listing_id, payer, payee, amount, kind, status,
	created_at, released_at`

// EscrowRepository provides data access for escrow entries.
type EscrowRepository struct {
	BaseRepository
}

// NewEscrowRepository creates a new escrow repository.
func NewEscrowRepository(db *DB) *EscrowRepository {
	return &EscrowRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new escrow entry. q may be a transaction so the entry
// commits atomically with the rental state change that produced it.
func (r *EscrowRepository) Create(ctx context.Context, q Queryable, e *models.EscrowEntry) error {
	if e.ID == "" {
		e.ID = GenerateID()
	}
	e.CreatedAt = r.Now()

	_, err := q.ExecContext(ctx, `
		INSERT INTO escrow_entries (
			id, listing_id, payer, payee, amount, kind, status, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		e.ID, e.ListingID, e.Payer, e.Payee, e.Amount, e.Kind, e.Status, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting escrow entry: %w", err)
	}

	return nil
}

// ListHeldByPayee retrieves all held entries payable to the given account,
// oldest first.
func (r *EscrowRepository) ListHeldByPayee(ctx context.Context, q Queryable, payee models.Address) ([]models.EscrowEntry, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+escrowColumns+`
		FROM escrow_entries
		WHERE payee = ? AND status = ?
		ORDER BY created_at
	`, payee, models.EscrowStatusHeld)
	if err != nil {
		return nil, fmt.Errorf("querying held escrow entries: %w", err)
	}
	defer rows.Close()

	return r.scanEntries(rows)
}

// ListByListing retrieves all entries recorded for a listing.
func (r *EscrowRepository) ListByListing(ctx context.Context, listingID int64) ([]models.EscrowEntry, error) {
	rows, err := r.DB().QueryContext(ctx, `
		SELECT `+escrowColumns+`
		FROM escrow_entries
		WHERE listing_id = ?
		ORDER BY created_at
	`, listingID)
	if err != nil {
		return nil, fmt.Errorf("querying escrow entries by listing: %w", err)
	}
	defer rows.Close()

	return r.scanEntries(rows)
}

// ReleaseByPayee marks every held entry payable to the account as released.
func (r *EscrowRepository) ReleaseByPayee(ctx context.Context, q Queryable, payee models.Address) error {
	_, err := q.ExecContext(ctx, `
		UPDATE escrow_entries SET status = ?, released_at = ?
		WHERE payee = ? AND status = ?
	`, models.EscrowStatusReleased, r.Now(), payee, models.EscrowStatusHeld)
	if err != nil {
		return fmt.Errorf("releasing escrow entries: %w", err)
	}
	return nil
}

// CountHeld returns the number of held escrow entries.
func (r *EscrowRepository) CountHeld(ctx context.Context) (int, error) {
	var count int
	err := r.DB().QueryRowContext(ctx, `
		SELECT COUNT(*) FROM escrow_entries WHERE status = ?
	`, models.EscrowStatusHeld).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting held escrow entries: %w", err)
	}
	return count, nil
}

func (r *EscrowRepository) scanEntries(rows *sql.Rows) ([]models.EscrowEntry, error) {
	var entries []models.EscrowEntry
	for rows.Next() {
		var e models.EscrowEntry
		if err := rows.Scan(
			&e.ID, &e.ListingID, &e.Payer, &e.Payee, &e.Amount, &e.Kind,
			&e.Status, &e.CreatedAt, &e.ReleasedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning escrow entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
