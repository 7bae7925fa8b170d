// Package models defines the persistent entities of the rental marketplace.
package models

import (
	"fmt"
	"strings"
)

// Address is an account identifier: "0x" followed by 40 hex characters,
// stored in canonical lowercase form.
type Address string

// ZeroAddress is the cleared-renter sentinel.
const ZeroAddress Address = "0x0000000000000000000000000000000000000000"

// ParseAddress validates and canonicalizes an account address.
func ParseAddress(s string) (Address, error) {
	if len(s) != 42 || !strings.HasPrefix(s, "0x") {
		return "", fmt.Errorf("invalid address %q: want 0x followed by 40 hex characters", s)
	}
	for _, c := range s[2:] {
		switch {
		case c >= '0' && c <= '9', c >= 'a' && c <= 'f', c >= 'A' && c <= 'F':
		default:
			return "", fmt.Errorf("invalid address %q: non-hex character %q", s, c)
		}
	}
	return Address(strings.ToLower(s)), nil
}

// IsZero reports whether the address is the zero sentinel (or empty).
func (a Address) IsZero() bool {
	return a == "" || a == ZeroAddress
}

func (a Address) String() string {
	return string(a)
}
