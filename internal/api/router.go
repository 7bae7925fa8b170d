// Package api provides HTTP routing and handlers for the REST API.
package api

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/nft-rental-marketplace/backend/internal/api/handlers"
	"github.com/nft-rental-marketplace/backend/internal/api/middleware"
	"github.com/nft-rental-marketplace/backend/internal/custody"
	"github.com/nft-rental-marketplace/backend/internal/escrow"
	"github.com/nft-rental-marketplace/backend/internal/ledger"
	"github.com/nft-rental-marketplace/backend/internal/storage"
	"github.com/nft-rental-marketplace/backend/internal/websocket"
)

// Services groups the collaborators the API surfaces.
type Services struct {
	DB            *storage.DB
	Ledger        *ledger.Ledger
	Escrow        *escrow.Service
	Listings      *storage.ListingRepository
	EscrowRepo    *storage.EscrowRepository
	CustodyConfig custody.Config
	Hub           *websocket.Hub
}

// NewRouter creates and configures the HTTP router with all API routes.
func NewRouter(s Services, staticDir string) *mux.Router {
	r := mux.NewRouter()

	r.Use(middleware.Logging)
	r.Use(middleware.ErrorRecovery)

	api := r.PathPrefix("/api").Subrouter()

	// Health and status endpoints
	api.HandleFunc("/health", handlers.HealthCheck(s.DB)).Methods("GET")
	api.HandleFunc("/status", handlers.Status(s.Listings, s.EscrowRepo, s.CustodyConfig, s.Hub)).Methods("GET")

	// WebSocket endpoint
	api.HandleFunc("/ws", handlers.WebSocketUpgrade(s.Hub)).Methods("GET")

	// Listing commands and queries
	api.HandleFunc("/listings", handlers.CreateListing(s.Ledger, s.Hub)).Methods("POST")
	api.HandleFunc("/listings", handlers.ListAvailableListings(s.Ledger)).Methods("GET")
	api.HandleFunc("/listings/{id}", handlers.GetListing(s.Ledger)).Methods("GET")
	api.HandleFunc("/listings/{id}", handlers.DelistListing(s.Ledger, s.Hub)).Methods("DELETE")
	api.HandleFunc("/listings/{id}/rent", handlers.RentListing(s.Ledger, s.Hub)).Methods("POST")
	api.HandleFunc("/listings/{id}/reclaim", handlers.ReclaimListing(s.Ledger, s.Hub)).Methods("POST")

	// Per-user views
	api.HandleFunc("/users/{address}/listings", handlers.ListUserListings(s.Ledger)).Methods("GET")
	api.HandleFunc("/users/{address}/rentals", handlers.ListUserRentals(s.Ledger)).Methods("GET")

	// Escrow balance and withdrawal
	api.HandleFunc("/accounts/{address}/balance", handlers.GetBalance(s.Escrow)).Methods("GET")
	api.HandleFunc("/accounts/{address}/withdraw", handlers.Withdraw(s.Escrow)).Methods("POST")

	// Serve static frontend files
	r.PathPrefix("/").Handler(http.FileServer(http.Dir(staticDir)))

	return r
}
