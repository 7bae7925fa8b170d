package models

import (
	"time"
)

// ListingStatus is the lifecycle state of a listing.
// The numeric values are part of the wire shape: 0 = Available, 1 = Rented.
type ListingStatus int

const (
	StatusAvailable ListingStatus = 0
	StatusRented    ListingStatus = 1
)

func (s ListingStatus) String() string {
	switch s {
	case StatusAvailable:
		return "available"
	case StatusRented:
		return "rented"
	default:
		return "unknown"
	}
}

// AssetRef identifies an NFT: the collection contract plus the token id.
type AssetRef struct {
	Contract Address `json:"nft_contract"`
	TokenID  Amount  `json:"token_id"`
}

// Key returns the canonical "contract:token" form used for custody tracking.
func (a AssetRef) Key() string {
	return a.Contract.String() + ":" + a.TokenID.String()
}

// Listing is a rentable NFT held in custody by the marketplace.
// id, asset, lister, price and max duration are immutable after creation;
// status, renter and rental_end_time drive the rental state machine.
type Listing struct {
	ID              int64         `json:"id"`
	NFTContract     Address       `json:"nft_contract"`
	TokenID         Amount        `json:"token_id"`
	Lister          Address       `json:"lister"`
	PricePerDay     Amount        `json:"price_per_day"`
	MaxDurationDays int64         `json:"max_duration_days"`
	Status          ListingStatus `json:"status"`
	Renter          Address       `json:"renter"`
	RentalEndTime   int64         `json:"rental_end_time"`
	CreatedAt       time.Time     `json:"-"`
	UpdatedAt       time.Time     `json:"-"`
}

// Asset returns the listing's asset reference.
func (l *Listing) Asset() AssetRef {
	return AssetRef{Contract: l.NFTContract, TokenID: l.TokenID}
}

// Expired reports whether the current rental window has lapsed.
// Always false for Available listings.
func (l *Listing) Expired(now time.Time) bool {
	return l.Status == StatusRented && now.Unix() >= l.RentalEndTime
}

// TotalPrice returns the cost of renting for the given number of days.
func (l *Listing) TotalPrice(durationDays int64) Amount {
	return l.PricePerDay.MulDays(durationDays)
}
