package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nft-rental-marketplace/backend/internal/custody"
	"github.com/nft-rental-marketplace/backend/internal/escrow"
	"github.com/nft-rental-marketplace/backend/internal/ledger"
	"github.com/nft-rental-marketplace/backend/internal/storage"
	"github.com/nft-rental-marketplace/backend/internal/storage/models"
)

const (
	ownerAddr  = "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	renterAddr = "0xbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb"
	nftAddr    = "0x1234567890123456789012345678901234567890"
	vaultAddr  = "0x00000000000000000000000000000000000000fe"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type apiEnv struct {
	router http.Handler
	vault  *custody.MemoryVault
	clock  *fakeClock
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()

	db, err := storage.NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, storage.RunMigrations(db))

	vault := custody.NewMemoryVault(vaultAddr)
	listingRepo := storage.NewListingRepository(db)
	escrowRepo := storage.NewEscrowRepository(db)
	escrowService := escrow.NewService(db, escrowRepo)
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0).UTC()}

	router := NewRouter(Services{
		DB:            db,
		Ledger:        ledger.New(db, listingRepo, escrowService, vault, clock),
		Escrow:        escrowService,
		Listings:      listingRepo,
		EscrowRepo:    escrowRepo,
		CustodyConfig: custody.Config{Vault: vaultAddr},
		Hub:           nil,
	}, t.TempDir())

	return &apiEnv{router: router, vault: vault, clock: clock}
}

func (e *apiEnv) seedAsset(t *testing.T, holder models.Address, token uint64) models.AssetRef {
	t.Helper()
	asset := models.AssetRef{Contract: nftAddr, TokenID: models.AmountFromUint64(token)}
	e.vault.Mint(holder, asset)
	require.NoError(t, e.vault.Approve(holder, asset))
	return asset
}

func (e *apiEnv) do(t *testing.T, method, path, caller string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if caller != "" {
		req.Header.Set("X-Account-Address", caller)
	}

	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *apiEnv) createListing(t *testing.T, token uint64) int64 {
	t.Helper()
	e.seedAsset(t, ownerAddr, token)

	rec := e.do(t, "POST", "/api/listings", ownerAddr, map[string]any{
		"nft_contract":      nftAddr,
		"token_id":          fmt.Sprint(token),
		"price_per_day":     "1000",
		"max_duration_days": 7,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var listing models.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listing))
	return listing.ID
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Error
}

func TestListingLifecycleOverHTTP(t *testing.T) {
	env := newAPIEnv(t)
	id := env.createListing(t, 1)

	// The new listing shows up in the available view.
	rec := env.do(t, "GET", "/api/listings", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var listings []models.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listings))
	require.Len(t, listings, 1)
	assert.Equal(t, id, listings[0].ID)

	// Rent it.
	rec = env.do(t, "POST", fmt.Sprintf("/api/listings/%d/rent", id), renterAddr, map[string]any{
		"duration_days": 3,
		"payment":       "3000",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var rented models.Listing
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rented))
	assert.Equal(t, models.StatusRented, rented.Status)
	assert.Equal(t, models.Address(renterAddr), rented.Renter)

	// The renter sees it under rentals, not yet expired.
	rec = env.do(t, "GET", "/api/users/"+renterAddr+"/rentals", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var rentals []struct {
		models.Listing
		Expired bool `json:"expired"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rentals))
	require.Len(t, rentals, 1)
	assert.False(t, rentals[0].Expired)

	// After the window lapses the rental is flagged expired.
	env.clock.advance(4 * 24 * time.Hour)
	rec = env.do(t, "GET", "/api/users/"+renterAddr+"/rentals", "", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &rentals))
	require.Len(t, rentals, 1)
	assert.True(t, rentals[0].Expired)

	// Reclaim and delist.
	rec = env.do(t, "POST", fmt.Sprintf("/api/listings/%d/reclaim", id), ownerAddr, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, "DELETE", fmt.Sprintf("/api/listings/%d", id), ownerAddr, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, "GET", fmt.Sprintf("/api/listings/%d", id), "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	env := newAPIEnv(t)
	id := env.createListing(t, 1)

	tests := []struct {
		name     string
		method   string
		path     string
		caller   string
		body     any
		wantCode int
		wantErr  string
	}{
		{
			"missing caller header", "POST", "/api/listings", "",
			map[string]any{}, http.StatusBadRequest, "bad_request",
		},
		{
			"zero price", "POST", "/api/listings", ownerAddr,
			map[string]any{"nft_contract": nftAddr, "token_id": "2", "price_per_day": "0", "max_duration_days": 7},
			http.StatusBadRequest, "validation_error",
		},
		{
			"listing not approved", "POST", "/api/listings", renterAddr,
			map[string]any{"nft_contract": nftAddr, "token_id": "99", "price_per_day": "1000", "max_duration_days": 7},
			http.StatusForbidden, "not_authorized",
		},
		{
			"rent unknown listing", "POST", "/api/listings/999/rent", renterAddr,
			map[string]any{"duration_days": 3, "payment": "3000"},
			http.StatusNotFound, "not_found",
		},
		{
			"rent duration above max", "POST", fmt.Sprintf("/api/listings/%d/rent", id), renterAddr,
			map[string]any{"duration_days": 8, "payment": "8000"},
			http.StatusBadRequest, "invalid_duration",
		},
		{
			"rent underpaid", "POST", fmt.Sprintf("/api/listings/%d/rent", id), renterAddr,
			map[string]any{"duration_days": 3, "payment": "2999"},
			http.StatusPaymentRequired, "insufficient_payment",
		},
		{
			"reclaim with no rental", "POST", fmt.Sprintf("/api/listings/%d/reclaim", id), ownerAddr,
			nil, http.StatusConflict, "not_rented",
		},
		{
			"delist by non-owner", "DELETE", fmt.Sprintf("/api/listings/%d", id), renterAddr,
			nil, http.StatusForbidden, "not_owner",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.path, tt.caller, tt.body)
			assert.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantErr, errorCode(t, rec))
		})
	}

	// Rented-listing conflicts.
	rec := env.do(t, "POST", fmt.Sprintf("/api/listings/%d/rent", id), renterAddr, map[string]any{
		"duration_days": 3, "payment": "3000",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, "POST", fmt.Sprintf("/api/listings/%d/rent", id), renterAddr, map[string]any{
		"duration_days": 2, "payment": "2000",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "not_available", errorCode(t, rec))

	rec = env.do(t, "POST", fmt.Sprintf("/api/listings/%d/reclaim", id), ownerAddr, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "rental_active", errorCode(t, rec))

	rec = env.do(t, "DELETE", fmt.Sprintf("/api/listings/%d", id), ownerAddr, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "not_available", errorCode(t, rec))
}

func TestEscrowEndpoints(t *testing.T) {
	env := newAPIEnv(t)
	id := env.createListing(t, 1)

	rec := env.do(t, "POST", fmt.Sprintf("/api/listings/%d/rent", id), renterAddr, map[string]any{
		"duration_days": 3, "payment": "3500",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, "GET", "/api/accounts/"+ownerAddr+"/balance", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var balance struct {
		Held string `json:"held"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &balance))
	assert.Equal(t, "3000", balance.Held)

	// Withdrawing someone else's balance is rejected.
	rec = env.do(t, "POST", "/api/accounts/"+ownerAddr+"/withdraw", renterAddr, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, "POST", "/api/accounts/"+ownerAddr+"/withdraw", ownerAddr, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var withdrawal struct {
		Released string `json:"released"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &withdrawal))
	assert.Equal(t, "3000", withdrawal.Released)

	// The renter's overpayment is refundable.
	rec = env.do(t, "GET", "/api/accounts/"+renterAddr+"/balance", "", nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &balance))
	assert.Equal(t, "500", balance.Held)
}

func TestHealthAndStatus(t *testing.T) {
	env := newAPIEnv(t)
	env.createListing(t, 1)

	rec := env.do(t, "GET", "/api/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, "GET", "/api/status", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var status struct {
		AvailableListings int `json:"available_listings"`
		ActiveRentals     int `json:"active_rentals"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, 1, status.AvailableListings)
	assert.Equal(t, 0, status.ActiveRentals)
}
