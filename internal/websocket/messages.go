package websocket

import (
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/nft-rental-marketplace/backend/internal/storage/models"
)

// Event payloads are encoded on every broadcast to every client, so they go
// through jsoniter rather than encoding/json.
var json = jsoniter.ConfigCompatibleWithStandardLibrary

// MessageType identifies the type of WebSocket message.
type MessageType string

const (
	// Server -> Client event types
	TypeListingCreated   MessageType = "listing.created"
	TypeListingRented    MessageType = "listing.rented"
	TypeListingReclaimed MessageType = "listing.reclaimed"
	TypeListingDelisted  MessageType = "listing.delisted"
	TypeRentalExpired    MessageType = "rental.expired"
	TypeNotification     MessageType = "notification"

	// Client -> Server command types
	TypeSubscribe   MessageType = "subscribe"
	TypeUnsubscribe MessageType = "unsubscribe"
	TypePing        MessageType = "ping"

	// Server -> Client response types
	TypeSubscribeAck MessageType = "subscribe.ack"
	TypePong         MessageType = "pong"
	TypeError        MessageType = "error"
)

// Message represents a WebSocket message envelope.
type Message struct {
	Type      MessageType `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   any         `json:"payload"`
}

// NewMessage creates a new message with the current timestamp.
func NewMessage(msgType MessageType, payload any) Message {
	return Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

// JSON serializes the message to JSON bytes.
func (m Message) JSON() ([]byte, error) {
	return json.Marshal(m)
}

// DecodeMessage parses a client message envelope.
func DecodeMessage(data []byte) (Message, error) {
	var m Message
	if err := json.Unmarshal(data, &m); err != nil {
		return Message{}, err
	}
	return m, nil
}

// ListingPayload is the payload for listing lifecycle events. It carries the
// full wire shape of the listing after the transition.
type ListingPayload struct {
	Listing models.Listing `json:"listing"`
	Actor   models.Address `json:"actor,omitempty"`
}

// RentalExpiredPayload is the payload for rental.expired events.
type RentalExpiredPayload struct {
	ListingID     int64          `json:"listing_id"`
	Lister        models.Address `json:"lister"`
	Renter        models.Address `json:"renter"`
	RentalEndTime int64          `json:"rental_end_time"`
}

// NotificationPayload is the payload for notification events.
type NotificationPayload struct {
	Level       string `json:"level"` // info, warning, error, success
	Title       string `json:"title"`
	Message     string `json:"message"`
	Dismissible bool   `json:"dismissible"`
}

// ErrorPayload is the payload for error messages.
type ErrorPayload struct {
	Code         string `json:"code"`
	Message      string `json:"message"`
	OriginalType string `json:"original_type,omitempty"`
}
