package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAmount(t *testing.T) {
	a, err := ParseAmount("1000000000000000")
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000", a.String())

	// Values beyond uint64 must survive untouched.
	big, err := ParseAmount("115792089237316195423570985008687907853269984665640564039457584007913129639935")
	require.NoError(t, err)
	assert.Equal(t, "115792089237316195423570985008687907853269984665640564039457584007913129639935", big.String())

	for _, bad := range []string{"", "-1", "1.5", "0x10", "abc"} {
		_, err := ParseAmount(bad)
		assert.Error(t, err, "input %q", bad)
	}
}

func TestAmountArithmetic(t *testing.T) {
	price := AmountFromUint64(1000)

	total := price.MulDays(3)
	assert.Equal(t, "3000", total.String())

	paid := AmountFromUint64(3500)
	excess, err := paid.Sub(total)
	require.NoError(t, err)
	assert.Equal(t, "500", excess.String())

	_, err = total.Sub(paid)
	assert.Error(t, err)

	assert.Equal(t, -1, total.Cmp(paid))
	assert.True(t, Amount{}.IsZero())
	assert.False(t, price.IsZero())
}

func TestAmountJSONRoundTrip(t *testing.T) {
	a := AmountFromUint64(123456789)

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Equal(t, `"123456789"`, string(data))

	var back Amount
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, 0, a.Cmp(back))

	// Bare numbers are accepted too.
	require.NoError(t, json.Unmarshal([]byte(`42`), &back))
	assert.Equal(t, "42", back.String())
}

func TestAmountScan(t *testing.T) {
	var a Amount
	require.NoError(t, a.Scan("5000"))
	assert.Equal(t, "5000", a.String())

	require.NoError(t, a.Scan(int64(7)))
	assert.Equal(t, "7", a.String())

	assert.Error(t, a.Scan("not a number"))
	assert.Error(t, a.Scan(3.14))
}

func TestParseAddress(t *testing.T) {
	addr, err := ParseAddress("0xABCDEF1234567890abcdef1234567890ABCDEF12")
	require.NoError(t, err)
	assert.Equal(t, Address("0xabcdef1234567890abcdef1234567890abcdef12"), addr)

	for _, bad := range []string{"", "0x123", "abcdef1234567890abcdef1234567890abcdef12ab", "0xZZcdef1234567890abcdef1234567890abcdef12"} {
		_, err := ParseAddress(bad)
		assert.Error(t, err, "input %q", bad)
	}

	assert.True(t, ZeroAddress.IsZero())
	assert.True(t, Address("").IsZero())
	assert.False(t, addr.IsZero())
}
