package escrow

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nft-rental-marketplace/backend/internal/storage"
	"github.com/nft-rental-marketplace/backend/internal/storage/models"
)

const (
	lister = models.Address("0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	renter = models.Address("0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb")
)

func newTestService(t *testing.T) (*Service, *storage.DB) {
	t.Helper()
	db, err := storage.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.RunMigrations(db))
	return NewService(db, storage.NewEscrowRepository(db)), db
}

func listingFor(id int64) *models.Listing {
	return &models.Listing{
		ID:          id,
		Lister:      lister,
		PricePerDay: models.AmountFromUint64(1000),
	}
}

func TestHoldPaymentExactAmount(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	required := models.AmountFromUint64(3000)
	require.NoError(t, svc.HoldPayment(ctx, db, listingFor(1), renter, required, required))

	held, err := svc.Balance(ctx, lister)
	require.NoError(t, err)
	assert.Equal(t, "3000", held.String())

	// Exact payment leaves nothing owed back to the renter.
	renterHeld, err := svc.Balance(ctx, renter)
	require.NoError(t, err)
	assert.True(t, renterHeld.IsZero())
}

func TestHoldPaymentOverpayment(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	required := models.AmountFromUint64(3000)
	paid := models.AmountFromUint64(3700)
	require.NoError(t, svc.HoldPayment(ctx, db, listingFor(1), renter, required, paid))

	held, err := svc.Balance(ctx, lister)
	require.NoError(t, err)
	assert.Equal(t, "3000", held.String())

	renterHeld, err := svc.Balance(ctx, renter)
	require.NoError(t, err)
	assert.Equal(t, "700", renterHeld.String())
}

func TestWithdrawReleasesEverything(t *testing.T) {
	svc, db := newTestService(t)
	ctx := context.Background()

	required := models.AmountFromUint64(1000)
	require.NoError(t, svc.HoldPayment(ctx, db, listingFor(1), renter, required, required))
	require.NoError(t, svc.HoldPayment(ctx, db, listingFor(2), renter, required, required))

	released, err := svc.Withdraw(ctx, lister)
	require.NoError(t, err)
	assert.Equal(t, "2000", released.String())

	held, err := svc.Balance(ctx, lister)
	require.NoError(t, err)
	assert.True(t, held.IsZero())

	// Withdrawing again releases zero and is not an error.
	released, err = svc.Withdraw(ctx, lister)
	require.NoError(t, err)
	assert.True(t, released.IsZero())
}
