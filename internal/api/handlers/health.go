package handlers

import (
	"net/http"

	"github.com/nft-rental-marketplace/backend/internal/custody"
	"github.com/nft-rental-marketplace/backend/internal/storage"
	"github.com/nft-rental-marketplace/backend/internal/websocket"
)

// HealthResponse represents the health check response.
type HealthResponse struct {
	Status      string `json:"status"`
	DBConnected bool   `json:"db_connected"`
}

// HealthCheck returns a handler that performs a health check.
func HealthCheck(db *storage.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dbConnected := db.Ping() == nil

		status := "healthy"
		httpStatus := http.StatusOK
		if !dbConnected {
			status = "degraded"
			httpStatus = http.StatusServiceUnavailable
		}

		writeJSON(w, httpStatus, HealthResponse{
			Status:      status,
			DBConnected: dbConnected,
		})
	}
}

// StatusResponse represents the system status response.
type StatusResponse struct {
	CustodyServiceAvailable bool `json:"custody_service_available"`
	AvailableListings       int  `json:"available_listings"`
	ActiveRentals           int  `json:"active_rentals"`
	HeldEscrowEntries       int  `json:"held_escrow_entries"`
	ConnectedClients        int  `json:"connected_clients"`
}

// Status returns a handler that provides system status information.
func Status(listings *storage.ListingRepository, escrowRepo *storage.EscrowRepository, custodyConfig custody.Config, hub *websocket.Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		available, rented, err := listings.CountByStatus(ctx)
		if err != nil {
			available, rented = 0, 0
		}

		heldEntries, err := escrowRepo.CountHeld(ctx)
		if err != nil {
			heldEntries = 0
		}

		response := StatusResponse{
			CustodyServiceAvailable: custody.IsServiceAvailable(ctx, custodyConfig),
			AvailableListings:       available,
			ActiveRentals:           rented,
			HeldEscrowEntries:       heldEntries,
		}
		if hub != nil {
			response.ConnectedClients = hub.ClientCount()
		}

		writeJSON(w, http.StatusOK, response)
	}
}
