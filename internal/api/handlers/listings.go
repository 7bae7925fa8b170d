package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/nft-rental-marketplace/backend/internal/api/middleware"
	"github.com/nft-rental-marketplace/backend/internal/ledger"
	"github.com/nft-rental-marketplace/backend/internal/storage/models"
	"github.com/nft-rental-marketplace/backend/internal/websocket"
)

// Listing request/response types

type CreateListingRequest struct {
	NFTContract     string `json:"nft_contract"`
	TokenID         string `json:"token_id"`
	PricePerDay     string `json:"price_per_day"`
	MaxDurationDays int64  `json:"max_duration_days"`
}

type RentListingRequest struct {
	DurationDays int64  `json:"duration_days"`
	Payment      string `json:"payment"`
}

// RentalResponse augments a listing with the expired display flag for the
// renter's view of lapsed-but-unreclaimed rentals.
type RentalResponse struct {
	models.Listing
	Expired bool `json:"expired"`
}

func listingID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid listing id")
		return 0, false
	}
	return id, true
}

func pathAddress(w http.ResponseWriter, r *http.Request) (models.Address, bool) {
	addr, err := models.ParseAddress(mux.Vars(r)["address"])
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid account address")
		return "", false
	}
	return addr, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// CreateListing lists an NFT for rent: the marketplace takes custody and a
// new Available listing is created.
func CreateListing(l *ledger.Ledger, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerAddress(w, r)
		if !ok {
			return
		}

		var req CreateListingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		contract, err := models.ParseAddress(req.NFTContract)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid NFT contract address")
			return
		}
		tokenID, err := models.ParseAmount(req.TokenID)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid token id")
			return
		}
		price, err := models.ParseAmount(req.PricePerDay)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid price per day")
			return
		}

		asset := models.AssetRef{Contract: contract, TokenID: tokenID}
		listing, err := l.List(r.Context(), caller, asset, price, req.MaxDurationDays)
		if err != nil {
			writeLedgerError(w, err)
			return
		}

		if hub != nil {
			websocket.NewEventBroadcaster(hub).BroadcastListingCreated(*listing)
		}

		writeJSON(w, http.StatusCreated, listing)
	}
}

// RentListing rents an Available listing for the requested duration.
func RentListing(l *ledger.Ledger, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerAddress(w, r)
		if !ok {
			return
		}
		id, ok := listingID(w, r)
		if !ok {
			return
		}

		var req RentListingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrBadRequest, "Invalid request body")
			return
		}

		payment, err := models.ParseAmount(req.Payment)
		if err != nil {
			middleware.WriteError(w, http.StatusBadRequest, middleware.ErrValidation, "Invalid payment amount")
			return
		}

		listing, err := l.Rent(r.Context(), caller, id, req.DurationDays, payment)
		if err != nil {
			writeLedgerError(w, err)
			return
		}

		if hub != nil {
			websocket.NewEventBroadcaster(hub).BroadcastListingRented(*listing)
		}

		writeJSON(w, http.StatusOK, listing)
	}
}

// ReclaimListing returns an expired rental to the marketplace and reopens
// the listing.
func ReclaimListing(l *ledger.Ledger, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerAddress(w, r)
		if !ok {
			return
		}
		id, ok := listingID(w, r)
		if !ok {
			return
		}

		listing, err := l.Reclaim(r.Context(), caller, id)
		if err != nil {
			writeLedgerError(w, err)
			return
		}

		if hub != nil {
			websocket.NewEventBroadcaster(hub).BroadcastListingReclaimed(*listing)
		}

		writeJSON(w, http.StatusOK, listing)
	}
}

// DelistListing removes an Available listing and returns the asset to the
// lister.
func DelistListing(l *ledger.Ledger, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		caller, ok := callerAddress(w, r)
		if !ok {
			return
		}
		id, ok := listingID(w, r)
		if !ok {
			return
		}

		listing, err := l.Delist(r.Context(), caller, id)
		if err != nil {
			writeLedgerError(w, err)
			return
		}

		if hub != nil {
			websocket.NewEventBroadcaster(hub).BroadcastListingDelisted(*listing)
		}

		writeJSON(w, http.StatusOK, listing)
	}
}

// GetListing returns a single listing by id.
func GetListing(l *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := listingID(w, r)
		if !ok {
			return
		}

		listing, err := l.GetListing(r.Context(), id)
		if err != nil {
			writeLedgerError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, listing)
	}
}

// ListAvailableListings returns all Available listings in ascending id order.
func ListAvailableListings(l *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listings, err := l.AvailableListings(r.Context())
		if err != nil {
			writeLedgerError(w, err)
			return
		}

		if listings == nil {
			listings = []models.Listing{}
		}
		writeJSON(w, http.StatusOK, listings)
	}
}

// ListUserListings returns all listings created by an account.
func ListUserListings(l *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := pathAddress(w, r)
		if !ok {
			return
		}

		listings, err := l.UserListings(r.Context(), account)
		if err != nil {
			writeLedgerError(w, err)
			return
		}

		if listings == nil {
			listings = []models.Listing{}
		}
		writeJSON(w, http.StatusOK, listings)
	}
}

// ListUserRentals returns an account's rentals, flagging those whose window
// has lapsed but that the owner has not reclaimed yet.
func ListUserRentals(l *ledger.Ledger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account, ok := pathAddress(w, r)
		if !ok {
			return
		}

		listings, err := l.UserRentals(r.Context(), account)
		if err != nil {
			writeLedgerError(w, err)
			return
		}

		now := l.Clock().Now()
		rentals := make([]RentalResponse, 0, len(listings))
		for _, listing := range listings {
			rentals = append(rentals, RentalResponse{
				Listing: listing,
				Expired: listing.Expired(now),
			})
		}

		writeJSON(w, http.StatusOK, rentals)
	}
}
