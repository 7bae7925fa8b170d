// Package rental watches active rentals for expiry.
package rental

import (
	"context"
	"log"
	"sync"

	"github.com/nft-rental-marketplace/backend/internal/ledger"
	"github.com/nft-rental-marketplace/backend/internal/storage"
	"github.com/nft-rental-marketplace/backend/internal/websocket"
	"github.com/robfig/cron/v3"
)

// ExpiryScheduler periodically scans for rentals whose window has lapsed and
// announces them over the event feed. It never mutates listing state:
// reclaim stays an owner-driven operation gated on the ledger clock, the
// scheduler only tells UIs that reclaim has become possible.
type ExpiryScheduler struct {
	cron        *cron.Cron
	listings    *storage.ListingRepository
	clock       ledger.Clock
	broadcaster *websocket.EventBroadcaster

	mu        sync.Mutex
	announced map[int64]int64 // listing id -> rental_end_time already announced
}

// NewExpiryScheduler creates a new expiry scheduler.
func NewExpiryScheduler(listings *storage.ListingRepository, clock ledger.Clock, hub *websocket.Hub) *ExpiryScheduler {
	var broadcaster *websocket.EventBroadcaster
	if hub != nil {
		broadcaster = websocket.NewEventBroadcaster(hub)
	}

	return &ExpiryScheduler{
		cron:        cron.New(cron.WithSeconds()),
		listings:    listings,
		clock:       clock,
		broadcaster: broadcaster,
		announced:   make(map[int64]int64),
	}
}

// Start begins the expiry scheduler.
func (s *ExpiryScheduler) Start() {
	log.Println("Starting rental expiry scheduler...")

	s.cron.AddFunc("@every 30s", func() {
		s.AnnounceExpired(context.Background())
	})

	s.cron.Start()
	log.Println("Rental expiry scheduler started")
}

// Stop gracefully shuts down the scheduler.
func (s *ExpiryScheduler) Stop() {
	log.Println("Stopping rental expiry scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Rental expiry scheduler stopped")
}

// AnnounceExpired broadcasts a rental.expired event for every lapsed rental
// not announced before. Each rental window is announced at most once; a
// listing re-rented after reclaim gets a fresh announcement for the new
// window.
func (s *ExpiryScheduler) AnnounceExpired(ctx context.Context) {
	now := s.clock.Now().Unix()

	expired, err := s.listings.ListExpired(ctx, now)
	if err != nil {
		log.Printf("Failed to list expired rentals: %v", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[int64]bool, len(expired))
	for _, listing := range expired {
		seen[listing.ID] = true
		if s.announced[listing.ID] == listing.RentalEndTime {
			continue
		}
		s.announced[listing.ID] = listing.RentalEndTime

		log.Printf("Rental expired: listing %d (renter %s)", listing.ID, listing.Renter)
		if s.broadcaster != nil {
			s.broadcaster.BroadcastRentalExpired(listing)
		}
	}

	// Drop reclaimed/delisted entries so the map does not grow unbounded.
	for id := range s.announced {
		if !seen[id] {
			delete(s.announced, id)
		}
	}
}
