// Package main is the entry point for the NFT rental marketplace server.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nft-rental-marketplace/backend/internal/api"
	"github.com/nft-rental-marketplace/backend/internal/custody"
	"github.com/nft-rental-marketplace/backend/internal/escrow"
	"github.com/nft-rental-marketplace/backend/internal/ledger"
	"github.com/nft-rental-marketplace/backend/internal/rental"
	"github.com/nft-rental-marketplace/backend/internal/storage"
	"github.com/nft-rental-marketplace/backend/internal/websocket"
)

// version is set at build time via -ldflags "-X main.version=x.y.z".
// Defaults to "dev" when not provided.
var version = "dev"

func main() {
	addr := flag.String("addr", ":8090", "HTTP server address")
	dataDir := flag.String("data", "/data", "Data directory for SQLite database")
	staticDir := flag.String("static", "./static", "Directory for static frontend files")
	healthCheck := flag.Bool("health-check", false, "Run health check and exit")
	flag.Parse()

	// Health check mode for Docker HEALTHCHECK
	if *healthCheck {
		if err := runHealthCheck(*addr); err != nil {
			log.Fatalf("Health check failed: %v", err)
		}
		os.Exit(0)
	}

	if envVer := os.Getenv("VERSION"); envVer != "" {
		version = envVer
	}

	log.Printf("Starting NFT Rental Marketplace (version: %s)...", version)

	// Initialize database
	if err := os.MkdirAll(*dataDir, 0o755); err != nil {
		log.Fatalf("Failed to create data directory %q: %v", *dataDir, err)
	}
	dbPath := *dataDir + "/rental-marketplace.db"
	db, err := storage.NewDB(dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	log.Println("Database migrations complete")

	// Initialize WebSocket hub
	hub := websocket.NewHub()
	go hub.Run()

	// Initialize repositories
	listingRepo := storage.NewListingRepository(db)
	escrowRepo := storage.NewEscrowRepository(db)

	// Initialize the asset custodian: the external custody service when
	// configured, otherwise the in-process vault for development.
	custodyConfig := custody.DefaultConfig()
	var custodian custody.Custodian
	if custodyConfig.HasService() {
		custodian = custody.NewClient(custodyConfig)
		log.Printf("Using custody service at %s", custodyConfig.BaseURL)
	} else {
		custodian = custody.NewMemoryVault(custodyConfig.Vault)
		log.Println("No custody service configured, using in-process vault (dev mode)")
	}

	// Initialize services
	escrowService := escrow.NewService(db, escrowRepo)
	clock := ledger.SystemClock()
	rentalLedger := ledger.New(db, listingRepo, escrowService, custodian, clock)

	// Start the rental expiry scheduler
	expiryScheduler := rental.NewExpiryScheduler(listingRepo, clock, hub)
	expiryScheduler.Start()

	// Initialize HTTP router
	router := api.NewRouter(api.Services{
		DB:            db,
		Ledger:        rentalLedger,
		Escrow:        escrowService,
		Listings:      listingRepo,
		EscrowRepo:    escrowRepo,
		CustodyConfig: custodyConfig,
		Hub:           hub,
	}, *staticDir)

	server := &http.Server{
		Addr:         *addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in background
	go func() {
		log.Printf("Server listening on %s", *addr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	expiryScheduler.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}

// runHealthCheck performs a health check against the running server.
func runHealthCheck(addr string) error {
	url := "http://localhost" + addr + "/api/health"
	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return http.ErrAbortHandler
	}
	return nil
}
