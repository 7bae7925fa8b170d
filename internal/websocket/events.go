package websocket

import (
	"log"

	"github.com/nft-rental-marketplace/backend/internal/storage/models"
)

// EventBroadcaster handles broadcasting marketplace events. Events are sent
// after the state change committed, never before.
type EventBroadcaster struct {
	hub *Hub
}

// NewEventBroadcaster creates a new event broadcaster.
func NewEventBroadcaster(hub *Hub) *EventBroadcaster {
	return &EventBroadcaster{hub: hub}
}

// BroadcastListingCreated announces a new Available listing.
func (b *EventBroadcaster) BroadcastListingCreated(listing models.Listing) {
	b.broadcast(NewMessage(TypeListingCreated, ListingPayload{
		Listing: listing,
		Actor:   listing.Lister,
	}))
}

// BroadcastListingRented announces a listing transitioning to Rented.
func (b *EventBroadcaster) BroadcastListingRented(listing models.Listing) {
	b.broadcast(NewMessage(TypeListingRented, ListingPayload{
		Listing: listing,
		Actor:   listing.Renter,
	}))
}

// BroadcastListingReclaimed announces a listing returning to Available.
func (b *EventBroadcaster) BroadcastListingReclaimed(listing models.Listing) {
	b.broadcast(NewMessage(TypeListingReclaimed, ListingPayload{
		Listing: listing,
		Actor:   listing.Lister,
	}))
}

// BroadcastListingDelisted announces a listing's removal.
func (b *EventBroadcaster) BroadcastListingDelisted(listing models.Listing) {
	b.broadcast(NewMessage(TypeListingDelisted, ListingPayload{
		Listing: listing,
		Actor:   listing.Lister,
	}))
}

// BroadcastRentalExpired announces that a rental window lapsed and the
// listing is waiting for the owner to reclaim.
func (b *EventBroadcaster) BroadcastRentalExpired(listing models.Listing) {
	b.broadcast(NewMessage(TypeRentalExpired, RentalExpiredPayload{
		ListingID:     listing.ID,
		Lister:        listing.Lister,
		Renter:        listing.Renter,
		RentalEndTime: listing.RentalEndTime,
	}))
}

// BroadcastNotification sends a notification to all connected clients.
func (b *EventBroadcaster) BroadcastNotification(level, title, message string) {
	b.broadcast(NewMessage(TypeNotification, NotificationPayload{
		Level:       level,
		Title:       title,
		Message:     message,
		Dismissible: true,
	}))
}

func (b *EventBroadcaster) broadcast(msg Message) {
	data, err := msg.JSON()
	if err != nil {
		log.Printf("Error encoding WebSocket message: %v", err)
		return
	}
	b.hub.Broadcast(data)
}
