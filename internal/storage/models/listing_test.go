package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListingWireShape(t *testing.T) {
	l := Listing{
		ID:              1,
		NFTContract:     "0x1234567890123456789012345678901234567890",
		TokenID:         AmountFromUint64(1),
		Lister:          "0xaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		PricePerDay:     AmountFromUint64(1000),
		MaxDurationDays: 7,
		Status:          StatusAvailable,
		Renter:          ZeroAddress,
		RentalEndTime:   0,
		CreatedAt:       time.Now(),
	}

	data, err := json.Marshal(l)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))

	// The nine-field wire tuple, statuses as 0/1, amounts as strings.
	assert.Len(t, decoded, 9)
	assert.Equal(t, float64(1), decoded["id"])
	assert.Equal(t, "1", decoded["token_id"])
	assert.Equal(t, "1000", decoded["price_per_day"])
	assert.Equal(t, float64(0), decoded["status"])
	assert.Equal(t, ZeroAddress.String(), decoded["renter"])
	assert.Equal(t, float64(0), decoded["rental_end_time"])
}

func TestListingExpired(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)

	l := Listing{Status: StatusRented, RentalEndTime: now.Unix()}
	assert.True(t, l.Expired(now))
	assert.False(t, l.Expired(now.Add(-time.Second)))

	l.Status = StatusAvailable
	assert.False(t, l.Expired(now.Add(time.Hour)))
}

func TestListingTotalPrice(t *testing.T) {
	l := Listing{PricePerDay: AmountFromUint64(1500)}
	assert.Equal(t, "4500", l.TotalPrice(3).String())
}
