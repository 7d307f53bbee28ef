// Package types provides common types used across Subgate.
package types

import (
	"database/sql/driver"
	"fmt"

	"github.com/shopspring/decimal"
)

// Amount represents an asset quantity in the asset's smallest unit.
// It is arbitrary-precision and unitless — the Asset it denominates is
// always carried alongside it, never inside it.
//
// Examples:
//   - Units(100) = 100 base units
//   - MustAmount("250000000000000000") = 0.25 of an 18-decimal asset
type Amount struct {
	dec decimal.Decimal
}

// Units creates an Amount from an integer number of base units.
func Units(n int64) Amount { return Amount{dec: decimal.NewFromInt(n)} }

// ZeroAmount returns the zero Amount.
func ZeroAmount() Amount { return Amount{} }

// ParseAmount parses a decimal string into an Amount.
func ParseAmount(s string) (Amount, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("types: parse amount %q: %w", s, err)
	}
	return Amount{dec: d}, nil
}

// MustAmount is like ParseAmount but panics on error. Use for hardcoded values.
func MustAmount(s string) Amount {
	a, err := ParseAmount(s)
	if err != nil {
		panic(err)
	}
	return a
}

// Arithmetic operations

// Add returns the sum of two Amounts.
func (a Amount) Add(other Amount) Amount {
	return Amount{dec: a.dec.Add(other.dec)}
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (a Amount) IsZero() bool { return a.dec.IsZero() }

// IsPositive returns true if the amount is greater than zero.
func (a Amount) IsPositive() bool { return a.dec.IsPositive() }

// IsNegative returns true if the amount is less than zero.
func (a Amount) IsNegative() bool { return a.dec.IsNegative() }

// Equal returns true if both Amounts represent the same quantity.
func (a Amount) Equal(other Amount) bool { return a.dec.Equal(other.dec) }

// LessThan returns true if this Amount is less than other.
func (a Amount) LessThan(other Amount) bool { return a.dec.LessThan(other.dec) }

// GreaterThan returns true if this Amount is greater than other.
func (a Amount) GreaterThan(other Amount) bool { return a.dec.GreaterThan(other.dec) }

// String returns the canonical decimal string representation.
func (a Amount) String() string { return a.dec.String() }

// MarshalJSON implements json.Marshaler. Amounts serialize as strings to
// survive arbitrary precision in JSON.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(`"` + a.dec.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Amount) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return fmt.Errorf("types: unmarshal amount: %w", err)
	}
	a.dec = d
	return nil
}

// Value implements driver.Valuer. Amounts are stored as decimal strings.
func (a Amount) Value() (driver.Value, error) {
	return a.dec.String(), nil
}

// Scan implements sql.Scanner.
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
		*a = Units(v)
		return nil
	case nil:
		*a = Amount{}
		return nil
	default:
		return fmt.Errorf("types: cannot scan %T into Amount", src)
	}
}

// SumAmounts calculates the sum of multiple Amounts.
func SumAmounts(values ...Amount) Amount {
	var result Amount
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}
