package types

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Money represents a monetary value with exactly two fraction digits,
// stored in the smallest unit (cents). All arithmetic is integer-only,
// so sums of line items are exact — no floating point anywhere.
//
// Examples:
//   - Cents(4900)  = 49.00
//   - Cents(-500)  = -5.00
type Money struct {
	Amount int64 `json:"amount"` // Smallest unit (cents)
}

// Cents creates a Money value from an amount in cents.
func Cents(amount int64) Money { return Money{Amount: amount} }

// Zero returns a zero Money value.
func Zero() Money { return Money{} }

// Parse converts a decimal string such as "50.00", "175", or "-9.99" into
// Money. It rejects values with more than two fraction digits and anything
// that is not a valid decimal number, so malformed client input surfaces as
// an error rather than silently rounding.
func Parse(s string) (Money, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Money{}, fmt.Errorf("money: parse %q: %w", s, err)
	}
	return FromDecimal(d)
}

// MustParse is like Parse but panics on error. Use for hardcoded values.
func MustParse(s string) Money {
	m, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return m
}

// FromDecimal converts a decimal value into Money, rejecting anything that
// does not fit exactly into two fraction digits.
func FromDecimal(d decimal.Decimal) (Money, error) {
	shifted := d.Shift(2)
	if !shifted.IsInteger() {
		return Money{}, fmt.Errorf("money: %s has more than 2 fraction digits", d.String())
	}
	return Money{Amount: shifted.IntPart()}, nil
}

// Decimal returns the exact decimal representation of the value.
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -2)
}

// Arithmetic operations

// Add adds two Money values.
func (m Money) Add(other Money) Money {
	return Money{Amount: m.Amount + other.Amount}
}

// Subtract subtracts another Money value.
func (m Money) Subtract(other Money) Money {
	return Money{Amount: m.Amount - other.Amount}
}

// Multiply multiplies the Money by a quantity.
func (m Money) Multiply(qty int64) Money {
	return Money{Amount: m.Amount * qty}
}

// Negate returns the negative of the Money value.
func (m Money) Negate() Money {
	return Money{Amount: -m.Amount}
}

// Abs returns the absolute value.
func (m Money) Abs() Money {
	if m.Amount < 0 {
		return Money{Amount: -m.Amount}
	}
	return m
}

// Comparison methods

// IsZero returns true if the amount is zero.
func (m Money) IsZero() bool { return m.Amount == 0 }

// IsPositive returns true if the amount is greater than zero.
func (m Money) IsPositive() bool { return m.Amount > 0 }

// IsNegative returns true if the amount is less than zero.
func (m Money) IsNegative() bool { return m.Amount < 0 }

// Equal returns true if both Money values are equal.
func (m Money) Equal(other Money) bool {
	return m.Amount == other.Amount
}

// LessThan returns true if this Money is less than other.
func (m Money) LessThan(other Money) bool {
	return m.Amount < other.Amount
}

// GreaterThan returns true if this Money is greater than other.
func (m Money) GreaterThan(other Money) bool {
	return m.Amount > other.Amount
}

// Formatting

// String returns the canonical two-fraction-digit decimal string,
// e.g. "175.00" for Cents(17500) and "-5.00" for Cents(-500).
func (m Money) String() string {
	return m.Decimal().StringFixed(2)
}

// MarshalJSON implements json.Marshaler. Money serializes as its decimal
// string so API clients never see binary floating point.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON implements json.Unmarshaler. Accepts a decimal string
// ("50.00") or a bare JSON number.
func (m *Money) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		// Bare numbers are accepted for convenience; decimal parses the
		// raw token so no float64 round-trip is involved.
		s = string(data)
	}

	parsed, err := Parse(s)
	if err != nil {
		return err
	}

	*m = parsed
	return nil
}

// Sum calculates the sum of multiple Money values.
func Sum(values ...Money) Money {
	var result Money
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}
