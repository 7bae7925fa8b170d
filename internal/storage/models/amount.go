package models

import (
	"database/sql/driver"
	"fmt"
	"math/big"
)

// Amount is an arbitrary-precision unsigned integer used for monetary values
// (smallest indivisible unit, no floating point) and for token identifiers.
// It serializes as a decimal string both in JSON and in the database.
type Amount struct {
	i big.Int
}

// ParseAmount parses a non-negative decimal string into an Amount.
func ParseAmount(s string) (Amount, error) {
	var a Amount
	if s == "" {
		return a, fmt.Errorf("empty amount")
	}
	if _, ok := a.i.SetString(s, 10); !ok {
		return Amount{}, fmt.Errorf("invalid amount %q: not a decimal integer", s)
	}
	if a.i.Sign() < 0 {
		return Amount{}, fmt.Errorf("invalid amount %q: must not be negative", s)
	}
	return a, nil
}

// AmountFromUint64 builds an Amount from a machine integer.
func AmountFromUint64(v uint64) Amount {
	var a Amount
	a.i.SetUint64(v)
	return a
}

func (a Amount) String() string {
	return a.i.String()
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool {
	return a.i.Sign() == 0
}

// Cmp compares a to b: -1 if a < b, 0 if equal, +1 if a > b.
func (a Amount) Cmp(b Amount) int {
	return a.i.Cmp(&b.i)
}

// Add returns a + b.
func (a Amount) Add(b Amount) Amount {
	var r Amount
	r.i.Add(&a.i, &b.i)
	return r
}

// Sub returns a - b. The result must not be negative.
func (a Amount) Sub(b Amount) (Amount, error) {
	if a.Cmp(b) < 0 {
		return Amount{}, fmt.Errorf("amount underflow: %s - %s", a.String(), b.String())
	}
	var r Amount
	r.i.Sub(&a.i, &b.i)
	return r, nil
}

// MulDays returns a * days, the total price of a rental.
func (a Amount) MulDays(days int64) Amount {
	var r Amount
	r.i.Mul(&a.i, big.NewInt(days))
	return r
}

// MarshalJSON encodes the amount as a decimal string.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.i.String() + `"`), nil
}

// UnmarshalJSON accepts a decimal string or a bare JSON number.
func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = s[1 : len(s)-1]
	}
	parsed, err := ParseAmount(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Value implements driver.Valuer, storing the amount as TEXT.
func (a Amount) Value() (driver.Value, error) {
	return a.i.String(), nil
}

// Scan implements sql.Scanner for TEXT and INTEGER columns.
func (a *Amount) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseAmount(v)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	case []byte:
		parsed, err := ParseAmount(string(v))
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	case int64:
		if v < 0 {
			return fmt.Errorf("invalid amount %d: must not be negative", v)
		}
		a.i.SetInt64(v)
		return nil
	case nil:
		*a = Amount{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Amount", src)
	}
}
